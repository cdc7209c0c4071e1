package geo

import (
	"github.com/golang/geo/s2"
)

type Coordinate struct {
	Lat float64
	Lon float64
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Lat: lat, Lon: lon}
}

func CalculateS2Distance(latOne, lonOne, latTwo, lonTwo float64) float64 {
	angle := s2.LatLngFromDegrees(latOne, lonOne).Distance(s2.LatLngFromDegrees(latTwo, lonTwo))
	return angle.Radians() * earthRadiusKM
}

// ProjectPointToSegment proyeksi snap ke segment (a,b) di permukaan bola. fraction = posisi proyeksi
// di segment, 0 di a dan 1 di b.
func ProjectPointToSegment(a, b, snap Coordinate) (Coordinate, float64) {
	aS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lon))
	bS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lon))
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snap.Lat, snap.Lon))

	if aS2.ApproxEqual(bS2) {
		return a, 0
	}

	projection := s2.Project(snapS2, aS2, bS2)
	projectLatLng := s2.LatLngFromPoint(projection)

	total := aS2.Distance(bS2).Radians()
	fraction := 0.0
	if total > 0 {
		fraction = aS2.Distance(projection).Radians() / total
	}
	return Coordinate{projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees()}, fraction
}

// PointLinePerpendicularDistance jarak (meter) snap ke segment (a,b).
func PointLinePerpendicularDistance(a, b, snap Coordinate) float64 {
	projection, _ := ProjectPointToSegment(a, b, snap)
	return CalculateHaversineDistance(snap.Lat, snap.Lon, projection.Lat, projection.Lon) * 1000
}
