package geo

import (
	"math"

	"lintang/greenwave/pkg/datastructure"
)

// haversine distance
const (
	earthRadiusKM     = 6371.0
	EarthRadiusMeters = earthRadiusKM * 1000
)

type Location struct {
	Latitude  float64
	Longitude float64
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

// NewLocation. lat/lon dalam derajat, disimpan dalam radian.
func NewLocation(latDegree float64, lonDegree float64) Location {
	return Location{
		Latitude:  degreeToRadians(latDegree),
		Longitude: degreeToRadians(lonDegree),
	}
}

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func havFormula(locationOne Location, locationTwo Location) float64 {
	latitudeDiff := locationOne.Latitude - locationTwo.Latitude
	longitudeDiff := locationOne.Longitude - locationTwo.Longitude

	havLatitude := havFunction(latitudeDiff)
	havLongitude := havFunction(longitudeDiff)

	return havLatitude + math.Cos(locationOne.Latitude)*math.Cos(locationTwo.Latitude)*havLongitude
}

func archaversine(havAngle float64) float64 {
	// floating point bisa sedikit > 1 untuk titik antipodal
	if havAngle > 1 {
		havAngle = 1
	}
	return 2.0 * math.Asin(math.Sqrt(havAngle))
}

// HaversineDistance returns the great-circle distance in kilometers.
func HaversineDistance(locationOne Location, locationTwo Location) float64 {
	centralAngleRad := archaversine(havFormula(locationOne, locationTwo))
	return earthRadiusKM * centralAngleRad
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b datastructure.Coordinate) float64 {
	return HaversineDistance(NewLocation(a.Lat, a.Lon), NewLocation(b.Lat, b.Lon)) * 1000
}
