package geo

import (
	"fmt"
	"math"
)

const (
	earthRadiusKM = 6371.0
)

// DistanceCalc. jarak dua koordinat dalam km.
type DistanceCalc interface {
	CalcDist(latOne, lonOne, latTwo, lonTwo float64) float64
}

type DistanceCalcFunc func(latOne, lonOne, latTwo, lonTwo float64) float64

func (f DistanceCalcFunc) CalcDist(latOne, lonOne, latTwo, lonTwo float64) float64 {
	return f(latOne, lonOne, latTwo, lonTwo)
}

var (
	// Haversine exact great-circle distance.
	Haversine DistanceCalc = DistanceCalcFunc(CalculateHaversineDistance)
	// PlaneProjection equirectangular approximation, cheaper than Haversine for short distances.
	PlaneProjection DistanceCalc = DistanceCalcFunc(CalculateEuclidianDistanceEquirectangularProj)
	// S2Distance exact spherical distance using s2 angles.
	S2Distance DistanceCalc = DistanceCalcFunc(CalculateS2Distance)
)

func NewDistanceCalc(mode string) (DistanceCalc, error) {
	switch mode {
	case "plane":
		return PlaneProjection, nil
	case "haversine", "":
		return Haversine, nil
	case "s2":
		return S2Distance, nil
	default:
		return nil, fmt.Errorf("unknown distance mode: %s", mode)
	}
}

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func radToDeg(r float64) float64 {
	return 180.0 * r / math.Pi
}

func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	longOne = degreeToRadians(longOne)
	latTwo = degreeToRadians(latTwo)
	longTwo = degreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

func CalculateEuclidianDistanceEquirectangularProj(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	longOne = degreeToRadians(longOne)
	latTwo = degreeToRadians(latTwo)
	longTwo = degreeToRadians(longTwo)

	x := (longTwo - longOne) * math.Cos((latOne+latTwo)/2)
	y := latTwo - latOne
	return math.Sqrt(x*x+y*y) * earthRadiusKM
}

// GetDestinationPoint titik tujuan dari (lat1, lon1) dengan bearing (derajat) sejauh dist km.
func GetDestinationPoint(lat1, lon1 float64, bearing float64, dist float64) (float64, float64) {
	dr := dist / earthRadiusKM

	bearing = degreeToRadians(bearing)
	lat1 = degreeToRadians(lat1)
	lon1 = degreeToRadians(lon1)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(dr) + math.Cos(lat1)*math.Sin(dr)*math.Cos(bearing))

	lon2Part1 := math.Sin(bearing) * math.Sin(dr) * math.Cos(lat1)
	lon2Part2 := math.Cos(dr) - (math.Sin(lat1) * math.Sin(lat2))
	lon2 := lon1 + math.Atan2(lon2Part1, lon2Part2)

	return radToDeg(lat2), normalizeLongitude(radToDeg(lon2))
}

func normalizeLongitude(lon float64) float64 {
	return math.Mod(lon+540, 360) - 180
}
