package kv_test

import (
	"fmt"
	"sync"
	"testing"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"
	"lintang/greenwave/pkg/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openCache(t *testing.T) *kv.SignalCache {
	cache, err := kv.OpenSignalCache("", kv.DefaultResolution, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCodecRoundTrip(t *testing.T) {
	nodes := []datastructure.SignalNode{
		{ID: "node/1", Position: datastructure.NewCoordinate(12.97, 77.59), Label: "Trinity Circle"},
		{ID: "node/2", Position: datastructure.NewCoordinate(12.98, 77.60), Label: "Unnamed"},
	}
	bb, err := kv.CompressSignals(nodes)
	require.NoError(t, err)

	got, err := kv.LoadSignals(bb)
	require.NoError(t, err)
	assert.Equal(t, nodes, got)
}

func TestSignalCacheConcurrentPutSameCell(t *testing.T) {
	cache := openCache(t)
	center := datastructure.NewCoordinate(12.9716, 77.5946)

	// semua node jatuh di h3 cell yang sama (offset < 1 m)
	const writers = 16
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			node := datastructure.SignalNode{
				ID:       fmt.Sprintf("node/%d", w),
				Position: datastructure.NewCoordinate(center.Lat+float64(w)*1e-7, center.Lon),
				Label:    datastructure.UnnamedLabel,
			}
			assert.NoError(t, cache.PutSignals([]datastructure.SignalNode{node}))
		}(w)
	}
	wg.Wait()

	box := geo.BBox{South: center.Lat - 1e-4, West: center.Lon - 1e-4, North: center.Lat + 1e-4, East: center.Lon + 1e-4}
	got, err := cache.SignalsInBox(box)
	require.NoError(t, err)
	assert.Len(t, got, writers)
}

func TestSignalCache(t *testing.T) {
	cache := openCache(t)

	// grid 10 x 10 node tiap ~0.005 derajat
	nodes := []datastructure.SignalNode{}
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			nodes = append(nodes, datastructure.SignalNode{
				ID:       fmt.Sprintf("node/%d", i*10+j),
				Position: datastructure.NewCoordinate(12.95+float64(i)*0.005, 77.55+float64(j)*0.005),
				Label:    datastructure.UnnamedLabel,
			})
		}
	}
	require.NoError(t, cache.PutSignals(nodes))

	t.Run("box query returns exactly the nodes inside", func(t *testing.T) {
		box := geo.BBox{South: 12.9625, West: 77.5625, North: 12.9825, East: 77.5825}
		got, err := cache.SignalsInBox(box)
		require.NoError(t, err)

		expected := map[string]bool{}
		for _, n := range nodes {
			if box.Contains(n.Position) {
				expected[n.ID] = true
			}
		}
		require.Len(t, got, len(expected))
		for _, n := range got {
			assert.True(t, expected[n.ID], n.ID)
		}
	})

	t.Run("tiny box around one node", func(t *testing.T) {
		target := nodes[55].Position
		box := geo.BBox{South: target.Lat - 1e-5, West: target.Lon - 1e-5, North: target.Lat + 1e-5, East: target.Lon + 1e-5}
		got, err := cache.SignalsInBox(box)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "node/55", got[0].ID)
	})

	t.Run("re-put merges by id", func(t *testing.T) {
		renamed := nodes[0]
		renamed.Label = "Hosur Road"
		require.NoError(t, cache.PutSignals([]datastructure.SignalNode{renamed}))

		box := geo.BBox{South: 12.9499, West: 77.5499, North: 12.9501, East: 77.5501}
		got, err := cache.SignalsInBox(box)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Hosur Road", got[0].Label)

		all, err := cache.SignalsInBox(geo.BBox{South: 12.9, West: 77.5, North: 13.05, East: 77.65})
		require.NoError(t, err)
		assert.Len(t, all, 100)
	})

	t.Run("empty box and empty put", func(t *testing.T) {
		got, err := cache.SignalsInBox(geo.BBox{South: 1, North: -1, West: 1, East: -1})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, cache.PutSignals(nil))
	})
}
