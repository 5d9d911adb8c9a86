package geodata

import (
	"context"
	"errors"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"

	"github.com/paulmach/osm"
)

const (
	SourceOverpass = "overpass"
	SourcePBF      = "pbf"
	SourceCache    = "cache"
	SourceStatic   = "static"
)

var ErrNoSignals = errors.New("no traffic signals available")

// Source fetches raw traffic-signal points inside a bounding box.
type Source interface {
	Name() string
	FetchSignals(ctx context.Context, bbox geo.BBox) ([]datastructure.SignalNode, error)
}

func isTrafficSignal(tags osm.Tags) bool {
	return tags.Find("highway") == "traffic_signals"
}

func signalFromNode(n *osm.Node) datastructure.SignalNode {
	label := n.Tags.Find("name")
	if label == "" {
		label = datastructure.UnnamedLabel
	}
	return datastructure.SignalNode{
		ID:       n.FeatureID().String(),
		Position: datastructure.NewCoordinate(n.Lat, n.Lon),
		Label:    label,
	}
}
