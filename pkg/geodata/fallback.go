package geodata

import (
	"context"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"
	"lintang/greenwave/pkg/kv"

	"github.com/sirupsen/logrus"
)

// CachedSource writes every successful fetch of the wrapped source into the signal cache.
// Pair it with a CacheSource later in a Fallback chain to serve cached cells when the source fails.
type CachedSource struct {
	inner Source
	cache *kv.SignalCache
	log   *logrus.Entry
}

func NewCachedSource(inner Source, cache *kv.SignalCache, logger *logrus.Entry) *CachedSource {
	if logger == nil {
		logger = logrus.WithField("module", "geodata")
	}
	return &CachedSource{inner: inner, cache: cache, log: logger}
}

func (c *CachedSource) Name() string {
	return c.inner.Name()
}

func (c *CachedSource) FetchSignals(ctx context.Context, bbox geo.BBox) ([]datastructure.SignalNode, error) {
	nodes, err := c.inner.FetchSignals(ctx, bbox)
	if err != nil {
		return nil, err
	}
	if err := c.cache.PutSignals(nodes); err != nil {
		// cache gagal bukan alasan menolak data yang sudah didapat
		c.log.WithError(err).Warn("store signals in cache")
	}
	return nodes, nil
}

type Result struct {
	Nodes  []datastructure.SignalNode
	Source string
}

// Observer is notified of every source attempt.
type Observer func(source string, err error)

// Fallback tries its sources in order. The first success wins; when every source fails the
// static list is served, so resolving never fails.
type Fallback struct {
	sources  []Source
	static   *StaticSource
	observer Observer
	log      *logrus.Entry
}

func NewFallback(sources []Source, static *StaticSource, observer Observer, logger *logrus.Entry) *Fallback {
	if static == nil {
		static = NewStaticSource(nil)
	}
	if logger == nil {
		logger = logrus.WithField("module", "geodata")
	}
	return &Fallback{sources: sources, static: static, observer: observer, log: logger}
}

func (f *Fallback) Name() string {
	return "fallback"
}

func (f *Fallback) FetchSignals(ctx context.Context, bbox geo.BBox) ([]datastructure.SignalNode, error) {
	return f.Resolve(ctx, bbox).Nodes, nil
}

func (f *Fallback) Resolve(ctx context.Context, bbox geo.BBox) Result {
	for _, src := range f.sources {
		nodes, err := src.FetchSignals(ctx, bbox)
		f.observe(src.Name(), err)
		if err == nil {
			return Result{Nodes: nodes, Source: src.Name()}
		}
		f.log.WithError(err).WithField("source", src.Name()).Warn("signal source failed, trying next")
		if ctx.Err() != nil {
			break
		}
	}

	nodes, _ := f.static.FetchSignals(ctx, bbox)
	f.observe(SourceStatic, nil)
	return Result{Nodes: nodes, Source: SourceStatic}
}

func (f *Fallback) observe(source string, err error) {
	if f.observer != nil {
		f.observer(source, err)
	}
}
