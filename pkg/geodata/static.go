package geodata

import (
	"context"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"
	"lintang/greenwave/pkg/kv"

	"github.com/samber/lo"
)

// StaticSource serves a fixed, configured list of signals.
type StaticSource struct {
	nodes []datastructure.SignalNode
}

func NewStaticSource(nodes []datastructure.SignalNode) *StaticSource {
	return &StaticSource{nodes: append([]datastructure.SignalNode(nil), nodes...)}
}

func (s *StaticSource) Name() string {
	return SourceStatic
}

func (s *StaticSource) FetchSignals(ctx context.Context, bbox geo.BBox) ([]datastructure.SignalNode, error) {
	return lo.Filter(s.nodes, func(n datastructure.SignalNode, _ int) bool {
		return bbox.Contains(n.Position)
	}), nil
}

// CacheSource serves whatever the signal cache holds for the box. An empty result is an error
// so a fallback chain moves on.
type CacheSource struct {
	cache *kv.SignalCache
}

func NewCacheSource(cache *kv.SignalCache) *CacheSource {
	return &CacheSource{cache: cache}
}

func (c *CacheSource) Name() string {
	return SourceCache
}

func (c *CacheSource) FetchSignals(ctx context.Context, bbox geo.BBox) ([]datastructure.SignalNode, error) {
	nodes, err := c.cache.SignalsInBox(bbox)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNoSignals
	}
	return nodes, nil
}
