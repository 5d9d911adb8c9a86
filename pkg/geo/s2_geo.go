package geo

import (
	"lintang/greenwave/pkg/datastructure"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// BBox is a lat/lon box in degrees, in the south,west,north,east order Overpass expects.
type BBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

func (b BBox) Contains(c datastructure.Coordinate) bool {
	return c.Lat >= b.South && c.Lat <= b.North && c.Lon >= b.West && c.Lon <= b.East
}

// Center is the great-circle midpoint of the south-west and north-east corners.
func (b BBox) Center() datastructure.Coordinate {
	return MidPoint(datastructure.NewCoordinate(b.South, b.West), datastructure.NewCoordinate(b.North, b.East))
}

func (b BBox) IsEmpty() bool {
	return b.South > b.North || b.West > b.East
}

// BoundingBox returns the box covering path, grown by padMeters on every side.
func BoundingBox(path []datastructure.Coordinate, padMeters float64) BBox {
	rect := s2.EmptyRect()
	pad := s1.Angle(padMeters / EarthRadiusMeters)
	for _, p := range path {
		ll := s2.LatLngFromDegrees(p.Lat, p.Lon)
		rect = rect.AddPoint(ll)
		if padMeters > 0 {
			// cap per titik, s2.Rect tidak punya expand by distance yang exported
			rect = rect.Union(s2.CapFromCenterAngle(s2.PointFromLatLng(ll), pad).RectBound())
		}
	}
	if rect.IsEmpty() {
		return BBox{South: 1, North: -1, West: 1, East: -1}
	}
	lo, hi := rect.Lo(), rect.Hi()
	return BBox{
		South: lo.Lat.Degrees(),
		West:  lo.Lng.Degrees(),
		North: hi.Lat.Degrees(),
		East:  hi.Lng.Degrees(),
	}
}
