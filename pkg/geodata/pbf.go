package geodata

import (
	"context"
	"fmt"
	"io"
	"os"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

// ScanOptions mengatur scan file osm pbf.
type ScanOptions struct {
	Procs int
	// Keep filters candidate signals; nil keeps everything.
	Keep func(datastructure.Coordinate) bool
	// OnNode is called for every scanned osm node, for progress output.
	OnNode func()
}

// ScanSignals reads every highway=traffic_signals node from an osm pbf stream.
// Ways and relations are skipped.
func ScanSignals(ctx context.Context, r io.Reader, opts ScanOptions) ([]datastructure.SignalNode, error) {
	procs := opts.Procs
	if procs < 1 {
		procs = 3
	}
	scanner := osmpbf.New(ctx, r, procs)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	nodes := make([]datastructure.SignalNode, 0)
	for scanner.Scan() {
		o := scanner.Object()
		if o.ObjectID().Type() != osm.TypeNode {
			continue
		}
		if opts.OnNode != nil {
			opts.OnNode()
		}
		node := o.(*osm.Node)
		if !isTrafficSignal(node.Tags) {
			continue
		}
		sig := signalFromNode(node)
		if opts.Keep != nil && !opts.Keep(sig.Position) {
			continue
		}
		nodes = append(nodes, sig)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan osm pbf: %w", err)
	}
	return nodes, nil
}

// PBFSource reads signals from a local extract on every fetch.
type PBFSource struct {
	path  string
	procs int
}

func NewPBFSource(path string, procs int) *PBFSource {
	return &PBFSource{path: path, procs: procs}
}

func (p *PBFSource) Name() string {
	return SourcePBF
}

func (p *PBFSource) FetchSignals(ctx context.Context, bbox geo.BBox) ([]datastructure.SignalNode, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open pbf: %w", err)
	}
	defer f.Close()

	return ScanSignals(ctx, f, ScanOptions{Procs: p.procs, Keep: bbox.Contains})
}
