package proximity_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/engine/matching"
	"lintang/greenwave/pkg/engine/proximity"
	"lintang/greenwave/pkg/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metersPerDegree = geo.EarthRadiusMeters * math.Pi / 180

var origin = datastructure.NewCoordinate(12.9716, 77.5946)

func at(eastM, northM float64) datastructure.Coordinate {
	return datastructure.NewCoordinate(origin.Lat+northM/metersPerDegree,
		origin.Lon+eastM/(metersPerDegree*math.Cos(origin.Lat*math.Pi/180)))
}

type fakeEmitter struct {
	events []datastructure.ProximityEvent
	err    error
}

func (f *fakeEmitter) Emit(ctx context.Context, ev datastructure.ProximityEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func newRoute() ([]datastructure.Coordinate, []datastructure.MatchedCluster) {
	path := []datastructure.Coordinate{}
	for m := 0.0; m <= 1000; m += 50 {
		path = append(path, at(m, 0))
	}
	clusters := []datastructure.SignalCluster{
		{ID: "J1", Label: "Silk Board", Centroid: at(500, 10)},
		{ID: "J2", Label: "Unnamed", Centroid: at(900, -10)},
	}
	return path, matching.MatchClustersToRoute(path, clusters, 100)
}

func newTracker(em proximity.Emitter) *proximity.Tracker {
	path, matched := newRoute()
	tr := proximity.NewTracker(proximity.DefaultConfig(), em, nil)
	tr.SetRoute(path, matched)
	return tr
}

func tickAt(tr *proximity.Tracker, eastM float64) proximity.TickResult {
	p := at(eastM, 0)
	return tr.Tick(context.Background(), &p, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
}

func TestTrackerSingleFirePerApproach(t *testing.T) {
	em := &fakeEmitter{}
	tr := newTracker(em)

	res := tickAt(tr, 0)
	assert.Nil(t, res.ActiveClusterID)
	require.NotNil(t, res.NearestClusterID)
	assert.Equal(t, "J1", *res.NearestClusterID)
	assert.InDelta(t, 500, *res.DistanceMeters, 1)
	assert.Empty(t, em.events)

	res = tickAt(tr, 350)
	require.NotNil(t, res.ActiveClusterID)
	assert.Equal(t, "J1", *res.ActiveClusterID)
	require.NotNil(t, res.Emitted)
	require.Len(t, em.events, 1)

	ev := em.events[0]
	assert.Equal(t, "J1", ev.ClusterID)
	assert.Equal(t, "Silk Board", ev.Label)
	assert.Equal(t, "eastbound", ev.Heading)
	assert.InDelta(t, 150, ev.DistanceMeters, 1)
	assert.NotEmpty(t, ev.ID)
	ts, err := ev.Time()
	require.NoError(t, err)
	assert.Equal(t, 2024, ts.Year())

	// masih approach yang sama, tidak emit lagi
	for _, m := range []float64{400, 450, 500, 550} {
		res = tickAt(tr, m)
		assert.Nil(t, res.Emitted)
	}
	assert.Len(t, em.events, 1)
	require.NotNil(t, tr.State().ActiveClusterID)
	assert.Equal(t, "J1", *tr.State().ActiveClusterID)
}

func TestTrackerExitHysteresis(t *testing.T) {
	em := &fakeEmitter{}
	tr := newTracker(em)

	tickAt(tr, 350)
	res := tickAt(tr, 560)
	assert.Empty(t, res.Exited)
	require.NotNil(t, res.ActiveClusterID)
	assert.Equal(t, "J1", *res.ActiveClusterID)

	res = tickAt(tr, 650)
	assert.Equal(t, "J1", res.Exited)
	assert.Nil(t, res.ActiveClusterID)
	assert.Nil(t, tr.State().NotifiedApproachForClusterID)

	res = tickAt(tr, 750)
	require.NotNil(t, res.Emitted)
	assert.Equal(t, "J2", res.Emitted.ClusterID)
	assert.Len(t, em.events, 2)
}

func TestTrackerRearm(t *testing.T) {
	t.Run("no re-arm without exit", func(t *testing.T) {
		em := &fakeEmitter{}
		tr := newTracker(em)

		tickAt(tr, 350)
		tickAt(tr, 100) // mundur, J1 masih di depan
		tickAt(tr, 350)
		assert.Len(t, em.events, 1)
	})

	t.Run("second approach after exit fires again", func(t *testing.T) {
		em := &fakeEmitter{}
		tr := newTracker(em)

		tickAt(tr, 350)
		tickAt(tr, 650)
		tickAt(tr, 350)
		require.Len(t, em.events, 2)
		assert.Equal(t, "J1", em.events[1].ClusterID)
		assert.NotEqual(t, em.events[0].ID, em.events[1].ID)
	})
}

func TestTrackerEmitError(t *testing.T) {
	em := &fakeEmitter{err: errors.New("queue full")}
	tr := newTracker(em)

	res := tickAt(tr, 350)
	require.NotNil(t, res.Emitted)
	require.NotNil(t, tr.State().NotifiedApproachForClusterID)
	assert.Equal(t, "J1", *tr.State().NotifiedApproachForClusterID)

	tickAt(tr, 400)
	assert.Len(t, em.events, 1)
}

func TestTrackerNoWork(t *testing.T) {
	t.Run("nil agent", func(t *testing.T) {
		em := &fakeEmitter{}
		tr := newTracker(em)
		tickAt(tr, 350)

		res := tr.Tick(context.Background(), nil, time.Now())
		assert.Equal(t, proximity.TickResult{}, res)
		require.NotNil(t, tr.State().ActiveClusterID)
	})

	t.Run("short path", func(t *testing.T) {
		em := &fakeEmitter{}
		tr := proximity.NewTracker(proximity.DefaultConfig(), em, nil)
		tr.SetRoute([]datastructure.Coordinate{at(0, 0)}, nil)

		res := tickAt(tr, 0)
		assert.Nil(t, res.ActiveClusterID)
		assert.Empty(t, em.events)
	})

	t.Run("set route clears state", func(t *testing.T) {
		em := &fakeEmitter{}
		tr := newTracker(em)
		tickAt(tr, 350)

		path, matched := newRoute()
		tr.SetRoute(path, matched)
		assert.Equal(t, datastructure.ProximityState{}, tr.State())

		tickAt(tr, 350)
		assert.Len(t, em.events, 2)
	})

	t.Run("reset", func(t *testing.T) {
		tr := newTracker(nil)
		tickAt(tr, 350)
		tr.Reset()
		assert.Equal(t, datastructure.ProximityState{}, tr.State())
	})
}

func TestTrackerTieBreakByRouteOrder(t *testing.T) {
	path, _ := newRoute()
	// dua cluster di vertex yang sama, urutan input sengaja terbalik
	matched := []datastructure.MatchedCluster{
		{Cluster: datastructure.SignalCluster{ID: "late", Label: "Unnamed", Centroid: at(500, 0)}, RouteOrderIndex: 10},
		{Cluster: datastructure.SignalCluster{ID: "early", Label: "Unnamed", Centroid: at(500, 0)}, RouteOrderIndex: 9},
	}
	em := &fakeEmitter{}
	tr := proximity.NewTracker(proximity.DefaultConfig(), em, nil)
	tr.SetRoute(path, matched)

	res := tickAt(tr, 0)
	require.NotNil(t, res.NearestClusterID)
	assert.Equal(t, "early", *res.NearestClusterID)

	res = tickAt(tr, 400)
	require.NotNil(t, res.ActiveClusterID)
	assert.Equal(t, "early", *res.ActiveClusterID)
	require.Len(t, em.events, 1)
	assert.Equal(t, 9, em.events[0].RouteOrderIndex)
}
