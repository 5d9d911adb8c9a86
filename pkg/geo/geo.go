package geo

import (
	"math"

	"lintang/greenwave/pkg/datastructure"
)

//	φ is latitude, λ is longitude
//
// https://www.movable-type.co.uk/scripts/latlong.html
func MidPoint(a, b datastructure.Coordinate) datastructure.Coordinate {
	p1LatRad := degToRad(a.Lat)
	p2LatRad := degToRad(b.Lat)

	diffLon := degToRad(b.Lon - a.Lon)

	bx := math.Cos(p2LatRad) * math.Cos(diffLon)
	by := math.Cos(p2LatRad) * math.Sin(diffLon)

	newLon := degToRad(a.Lon) + math.Atan2(by, math.Cos(p1LatRad)+bx)
	newLat := math.Atan2(math.Sin(p1LatRad)+math.Sin(p2LatRad), math.Sqrt((math.Cos(p1LatRad)+bx)*(math.Cos(p1LatRad)+bx)+by*by))

	return datastructure.NewCoordinate(radToDeg(newLat), radToDeg(newLon))
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180.0
}

func radToDeg(r float64) float64 {
	return 180.0 * r / math.Pi
}

/*
BearingTo. menghitung sudut bearing dari a ke b, hasilnya [0, 360).
https://www.movable-type.co.uk/scripts/latlong.html
*/
func BearingTo(a, b datastructure.Coordinate) float64 {
	dLon := degToRad(b.Lon - a.Lon)

	lat1 := degToRad(a.Lat)
	lat2 := degToRad(b.Lat)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := math.Atan2(y, x) * 180.0 / math.Pi

	return math.Mod(brng+360, 360)
}

// CompassHeading maps a bearing to the approach direction an agent travels in.
func CompassHeading(bearing float64) string {
	b := math.Mod(bearing+360, 360)
	switch {
	case b >= 315 || b < 45:
		return "northbound"
	case b < 135:
		return "eastbound"
	case b < 225:
		return "southbound"
	default:
		return "westbound"
	}
}
