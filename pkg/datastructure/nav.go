package datastructure

import "encoding/json"

// Coordinate adalah titik lat/lon (WGS84, derajat). Immutable value.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

// UnmarshalJSON accepts both "lng" and "lon" for the longitude.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat float64  `json:"lat"`
		Lng *float64 `json:"lng"`
		Lon *float64 `json:"lon"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Lat = raw.Lat
	switch {
	case raw.Lng != nil:
		c.Lon = *raw.Lng
	case raw.Lon != nil:
		c.Lon = *raw.Lon
	default:
		c.Lon = 0
	}
	return nil
}

// RouteEdge is one segment of an ordered route polyline.
type RouteEdge struct {
	Start Coordinate
	End   Coordinate
}

// Edges returns the adjacent pairs of path. Paths with fewer than two points have no edges.
func Edges(path []Coordinate) []RouteEdge {
	if len(path) < 2 {
		return []RouteEdge{}
	}
	edges := make([]RouteEdge, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		edges = append(edges, RouteEdge{Start: path[i], End: path[i+1]})
	}
	return edges
}
