package geo_test

import (
	"math"
	"testing"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// meter per derajat latitude untuk radius bumi 6371 km
const metersPerDegree = geo.EarthRadiusMeters * math.Pi / 180

func offset(c datastructure.Coordinate, northM, eastM float64) datastructure.Coordinate {
	dLat := northM / metersPerDegree
	dLon := eastM / (metersPerDegree * math.Cos(c.Lat*math.Pi/180))
	return datastructure.NewCoordinate(c.Lat+dLat, c.Lon+dLon)
}

var origin = datastructure.NewCoordinate(12.9716, 77.5946)

func TestDistance(t *testing.T) {
	t.Run("one degree of latitude", func(t *testing.T) {
		a := datastructure.NewCoordinate(0, 0)
		b := datastructure.NewCoordinate(1, 0)
		assert.InDelta(t, metersPerDegree, geo.Distance(a, b), 1e-6)
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]datastructure.Coordinate{
			{origin, offset(origin, 120, -40)},
			{datastructure.NewCoordinate(-7.55, 110.8), datastructure.NewCoordinate(-7.51, 110.84)},
			{datastructure.NewCoordinate(51.5, -0.12), datastructure.NewCoordinate(40.7, -74.0)},
		}
		for _, p := range pairs {
			assert.InDelta(t, geo.Distance(p[0], p[1]), geo.Distance(p[1], p[0]), 1e-9)
		}
	})

	t.Run("same point", func(t *testing.T) {
		assert.Equal(t, 0.0, geo.Distance(origin, origin))
	})
}

func TestPointToSegmentDistance(t *testing.T) {
	start := origin
	end := offset(origin, 0, 200)

	t.Run("perpendicular to the middle", func(t *testing.T) {
		p := offset(origin, 50, 100)
		assert.InDelta(t, 50, geo.PointToSegmentDistance(p, start, end), 0.5)
	})

	t.Run("beyond the end clamps to the endpoint", func(t *testing.T) {
		p := offset(origin, 0, 260)
		assert.InDelta(t, 60, geo.PointToSegmentDistance(p, start, end), 0.5)
	})

	t.Run("before the start clamps to the start", func(t *testing.T) {
		p := offset(origin, 30, -40)
		assert.InDelta(t, geo.Distance(p, start), geo.PointToSegmentDistance(p, start, end), 1e-9)
	})

	t.Run("degenerate segment", func(t *testing.T) {
		p := offset(origin, 70, 0)
		assert.InDelta(t, geo.Distance(p, start), geo.PointToSegmentDistance(p, start, start), 1e-9)
	})
}

func straightPath(n int, stepM float64) []datastructure.Coordinate {
	path := make([]datastructure.Coordinate, 0, n)
	for i := 0; i < n; i++ {
		path = append(path, offset(origin, 0, float64(i)*stepM))
	}
	return path
}

func TestProjectIndexOnPath(t *testing.T) {
	path := straightPath(5, 100)

	assert.Equal(t, -1, geo.ProjectIndexOnPath(origin, nil))
	assert.Equal(t, 0, geo.ProjectIndexOnPath(offset(origin, 10, -30), path))
	assert.Equal(t, 2, geo.ProjectIndexOnPath(offset(origin, 20, 210), path))
	assert.Equal(t, 4, geo.ProjectIndexOnPath(offset(origin, 0, 900), path))
}

func TestSignedRouteDistance(t *testing.T) {
	path := straightPath(5, 100)

	t.Run("target ahead", func(t *testing.T) {
		d := geo.SignedRouteDistance(path[1], offset(path[3], 15, 0), path)
		assert.InDelta(t, 200, d, 0.5)
	})

	t.Run("target behind", func(t *testing.T) {
		d := geo.SignedRouteDistance(path[4], path[1], path)
		assert.InDelta(t, -300, d, 0.5)
	})

	t.Run("same vertex is zero and counts as ahead", func(t *testing.T) {
		d := geo.SignedRouteDistance(offset(path[2], 5, 0), offset(path[2], -5, 0), path)
		assert.Equal(t, 0.0, d)
	})

	t.Run("short path", func(t *testing.T) {
		assert.Equal(t, 0.0, geo.SignedRouteDistance(origin, path[2], path[:1]))
	})
}

func TestPathIndexInterpolate(t *testing.T) {
	path := straightPath(3, 100)
	idx := geo.NewPathIndex(path)

	assert.InDelta(t, 200, idx.Length(), 0.5)
	assert.Equal(t, path[0], idx.Interpolate(-5))
	assert.Equal(t, path[2], idx.Interpolate(1000))

	mid := idx.Interpolate(150)
	assert.InDelta(t, 150, geo.Distance(path[0], mid), 0.5)
}

func TestBearingAndHeading(t *testing.T) {
	north := offset(origin, 100, 0)
	east := offset(origin, 0, 100)

	assert.InDelta(t, 0, geo.BearingTo(origin, north), 0.01)
	assert.InDelta(t, 90, geo.BearingTo(origin, east), 0.05)
	assert.Equal(t, "northbound", geo.CompassHeading(geo.BearingTo(origin, north)))
	assert.Equal(t, "westbound", geo.CompassHeading(geo.BearingTo(east, origin)))
	assert.Equal(t, "southbound", geo.CompassHeading(180))
	assert.Equal(t, "northbound", geo.CompassHeading(-10))

	mid := geo.MidPoint(origin, east)
	assert.InDelta(t, 50, geo.Distance(origin, mid), 0.5)
}

func TestBoundingBox(t *testing.T) {
	path := []datastructure.Coordinate{origin, offset(origin, 500, 800)}

	box := geo.BoundingBox(path, 0)
	require.False(t, box.IsEmpty())
	assert.InDelta(t, origin.Lat, box.South, 1e-9)
	assert.InDelta(t, origin.Lon, box.West, 1e-9)
	assert.True(t, box.Contains(box.Center()))
	assert.InDelta(t, geo.Distance(path[0], box.Center()), geo.Distance(path[1], box.Center()), 0.5)

	padded := geo.BoundingBox(path, 100)
	assert.InDelta(t, 100, geo.Distance(datastructure.NewCoordinate(padded.South, origin.Lon), origin), 1)
	assert.True(t, padded.Contains(offset(origin, -80, -80)))
	assert.False(t, box.Contains(offset(origin, -80, -80)))

	assert.True(t, geo.BoundingBox(nil, 50).IsEmpty())
}
