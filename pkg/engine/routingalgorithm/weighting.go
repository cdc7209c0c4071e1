package routingalgorithm

import (
	"math"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
)

// Weighting bobot edge dilihat dari arah traversal. reverse = true untuk backward search,
// state.Base adalah node yang sedang di expand.
type Weighting interface {
	CalcWeight(state datastructure.EdgeState, reverse bool, prevEdge datastructure.EdgeID) float64
	// MinWeight batas bawah bobot untuk jarak distKm, dipakai heuristic A*.
	MinWeight(distKm float64) float64
}

// TimeWeighting weighting yang juga tahu waktu tempuh edge (ms).
type TimeWeighting interface {
	Weighting
	CalcMillis(state datastructure.EdgeState, reverse bool, prevEdge datastructure.EdgeID) int64
}

// TimeDependentWeighting bobot & waktu tempuh tergantung jam berangkat dari base node.
type TimeDependentWeighting interface {
	Weighting
	CalcWeightAt(state datastructure.EdgeState, reverse bool, prevEdge datastructure.EdgeID, atMillis int64) float64
	CalcMillisAt(state datastructure.EdgeState, reverse bool, prevEdge datastructure.EdgeID, atMillis int64) int64
}

// DistanceWeighting bobot = panjang edge (km) yang tersimpan di graph.
type DistanceWeighting struct {
	minWeightPerKm float64
}

func NewDistanceWeighting() *DistanceWeighting {
	return &DistanceWeighting{minWeightPerKm: 1.0}
}

// NewDistanceWeightingWithMinWeight untuk graph yang bobot edge nya bisa lebih kecil dari jarak garis lurus,
// minWeightPerKm 0 membuat A* sama dengan dijkstra.
func NewDistanceWeightingWithMinWeight(minWeightPerKm float64) *DistanceWeighting {
	return &DistanceWeighting{minWeightPerKm: minWeightPerKm}
}

func (w *DistanceWeighting) CalcWeight(state datastructure.EdgeState, reverse bool, prevEdge datastructure.EdgeID) float64 {
	return state.Weight
}

func (w *DistanceWeighting) MinWeight(distKm float64) float64 {
	return distKm * w.minWeightPerKm
}

/*
SpeedWeighting bobot = waktu tempuh dalam ms dengan kecepatan konstan:

	ms = km / kmh * 3600 * 1000
*/
type SpeedWeighting struct {
	speedKmh float64
}

func NewSpeedWeighting(speedKmh float64) *SpeedWeighting {
	if speedKmh <= 0 {
		speedKmh = 40
	}
	return &SpeedWeighting{speedKmh: speedKmh}
}

func (w *SpeedWeighting) millis(distKm float64) int64 {
	return int64(math.Round(distKm / w.speedKmh * 3600 * 1000))
}

func (w *SpeedWeighting) CalcWeight(state datastructure.EdgeState, reverse bool, prevEdge datastructure.EdgeID) float64 {
	return float64(w.millis(state.Weight))
}

func (w *SpeedWeighting) CalcMillis(state datastructure.EdgeState, reverse bool, prevEdge datastructure.EdgeID) int64 {
	return w.millis(state.Weight)
}

// MinWeight dibulatkan ke bawah supaya heuristic tetap tidak overestimate setelah pembulatan ms.
func (w *SpeedWeighting) MinWeight(distKm float64) float64 {
	return math.Floor(distKm / w.speedKmh * 3600 * 1000)
}

func (w *SpeedWeighting) CalcWeightAt(state datastructure.EdgeState, reverse bool, prevEdge datastructure.EdgeID,
	atMillis int64) float64 {
	return w.CalcWeight(state, reverse, prevEdge)
}

func (w *SpeedWeighting) CalcMillisAt(state datastructure.EdgeState, reverse bool, prevEdge datastructure.EdgeID,
	atMillis int64) int64 {
	return w.CalcMillis(state, reverse, prevEdge)
}
