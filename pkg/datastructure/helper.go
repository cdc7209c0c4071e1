package datastructure

import (
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/twpayne/go-polyline"
)

func CreatePolyline(path []geo.Coordinate) string {
	if len(path) == 0 {
		return ""
	}
	coords := make([][]float64, 0, len(path))
	for _, c := range path {
		coords = append(coords, []float64{c.Lat, c.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

func DecodePolyline(encoded string) ([]geo.Coordinate, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	path := make([]geo.Coordinate, 0, len(coords))
	for _, c := range coords {
		path = append(path, geo.NewCoordinate(c[0], c[1]))
	}
	return path, nil
}
