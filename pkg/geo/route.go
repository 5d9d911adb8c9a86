package geo

import (
	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/util"
)

// PointToSegmentDistance returns the distance in meters from p to the segment [segStart, segEnd].
//
// The projection parameter is computed in planar lat/lon degree space and the
// distance to the projected point is great-circle. The mix is a precision
// trade-off that holds at city scale (< 50 km) and degrades near the poles and
// for long segments.
func PointToSegmentDistance(p, segStart, segEnd datastructure.Coordinate) float64 {
	dx := segEnd.Lon - segStart.Lon
	dy := segEnd.Lat - segStart.Lat
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Distance(p, segStart)
	}

	t := ((p.Lon-segStart.Lon)*dx + (p.Lat-segStart.Lat)*dy) / lenSq
	t = util.Clamp01(t)

	projected := datastructure.NewCoordinate(segStart.Lat+t*dy, segStart.Lon+t*dx)
	return Distance(p, projected)
}

// ProjectIndexOnPath returns the index of the path vertex nearest to point (ties: lowest index).
// Empty path returns -1.
func ProjectIndexOnPath(point datastructure.Coordinate, path []datastructure.Coordinate) int {
	best := -1
	bestDist := 0.0
	for i, v := range path {
		d := Distance(point, v)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// PathIndex caches cumulative along-route distances so signed distances are O(n) per projection
// instead of re-summing segments.
type PathIndex struct {
	path       []datastructure.Coordinate
	cumulative []float64 // cumulative[i] = jarak dari path[0] ke path[i] (meter)
}

func NewPathIndex(path []datastructure.Coordinate) *PathIndex {
	cum := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		cum[i] = cum[i-1] + Distance(path[i-1], path[i])
	}
	return &PathIndex{path: path, cumulative: cum}
}

func (pi *PathIndex) Path() []datastructure.Coordinate {
	return pi.path
}

// Valid reports whether the path has at least one edge.
func (pi *PathIndex) Valid() bool {
	return len(pi.path) >= 2
}

func (pi *PathIndex) Length() float64 {
	if len(pi.cumulative) == 0 {
		return 0
	}
	return pi.cumulative[len(pi.cumulative)-1]
}

func (pi *PathIndex) Project(p datastructure.Coordinate) int {
	return ProjectIndexOnPath(p, pi.path)
}

// SignedDistanceBetween returns the along-route distance from vertex ai to vertex ti:
// positive when ti is ahead of (or at) ai, negative when behind.
func (pi *PathIndex) SignedDistanceBetween(ai, ti int) float64 {
	return pi.cumulative[ti] - pi.cumulative[ai]
}

// SignedDistance projects agent and target onto the path and returns the signed along-route distance.
func (pi *PathIndex) SignedDistance(agent, target datastructure.Coordinate) (float64, bool) {
	if !pi.Valid() {
		return 0, false
	}
	return pi.SignedDistanceBetween(pi.Project(agent), pi.Project(target)), true
}

// Interpolate returns the point lying meters along the path from its origin.
func (pi *PathIndex) Interpolate(meters float64) datastructure.Coordinate {
	if len(pi.path) == 0 {
		return datastructure.Coordinate{}
	}
	if meters <= 0 || len(pi.path) == 1 {
		return pi.path[0]
	}
	last := len(pi.path) - 1
	if meters >= pi.cumulative[last] {
		return pi.path[last]
	}
	for i := 1; i <= last; i++ {
		if pi.cumulative[i] < meters {
			continue
		}
		segLen := pi.cumulative[i] - pi.cumulative[i-1]
		if segLen == 0 {
			return pi.path[i]
		}
		f := (meters - pi.cumulative[i-1]) / segLen
		a, b := pi.path[i-1], pi.path[i]
		return datastructure.NewCoordinate(a.Lat+f*(b.Lat-a.Lat), a.Lon+f*(b.Lon-a.Lon))
	}
	return pi.path[last]
}

// SignedRouteDistance: let ai, ti be the projected vertex indexes of agent and target.
// ai <= ti yields the positive sum of segment lengths between them (target ahead),
// ai > ti the negative sum (target behind). Paths with fewer than two points yield 0.
func SignedRouteDistance(agent, target datastructure.Coordinate, path []datastructure.Coordinate) float64 {
	d, _ := NewPathIndex(path).SignedDistance(agent, target)
	return d
}

func PathLength(path []datastructure.Coordinate) float64 {
	return NewPathIndex(path).Length()
}
