package geo

const (
	DOUGLAS_PEUCKER_THRESHOLDS = 7.0 // 7 meter
)

// RamerDouglasPeucker simplify polyline, titik yang jaraknya ke segment <= threshold dibuang.
// https://cartography-playground.gitlab.io/playgrounds/douglas-peucker-algorithm/
func RamerDouglasPeucker(coords []Coordinate, thresholdMeter float64) []Coordinate {
	size := len(coords)
	if size < 3 {
		return coords
	}

	kept := make([]bool, size)
	kept[0] = true
	kept[size-1] = true

	stack := [][2]int{{0, size - 1}}
	for len(stack) > 0 {
		span := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		left, right := span[0], span[1]

		maxDist := 0.0
		farthest := left
		for i := left + 1; i < right; i++ {
			dist := PointLinePerpendicularDistance(coords[left], coords[right], coords[i])
			if dist > maxDist {
				maxDist = dist
				farthest = i
			}
		}

		if maxDist > thresholdMeter {
			kept[farthest] = true
			stack = append(stack, [2]int{left, farthest}, [2]int{farthest, right})
		}
	}

	simplified := make([]Coordinate, 0, size)
	for i, necessary := range kept {
		if necessary {
			simplified = append(simplified, coords[i])
		}
	}
	return simplified
}
