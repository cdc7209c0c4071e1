package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	cases := []struct {
		latOne, longOne, latTwo, longTwo float64
		expectedDist                     float64
	}{
		{
			latOne:       -7.557155997491524,
			longOne:      110.77170252731288,
			latTwo:       -7.550209300671982,
			longTwo:      110.78942094938256,
			expectedDist: 2.1,
		},
		{
			latOne:       -7.546196863318374,
			longOne:      110.7775170972345,
			latTwo:       -7.550209300671982,
			longTwo:      110.78942094938256,
			expectedDist: 1.38,
		},
	}

	for _, c := range cases {
		t.Run("haversine", func(t *testing.T) {
			dist := CalculateHaversineDistance(c.latOne, c.longOne, c.latTwo, c.longTwo)
			assert.InDelta(t, c.expectedDist, dist, 0.02)
		})
	}
}

func TestDistanceCalcsAgree(t *testing.T) {
	// short distances: approximation stays within 0.5% of the exact value
	latOne, lonOne := 52.520008, 13.404954
	latTwo, lonTwo := 52.516275, 13.377704

	exact := Haversine.CalcDist(latOne, lonOne, latTwo, lonTwo)
	approx := PlaneProjection.CalcDist(latOne, lonOne, latTwo, lonTwo)
	s2Dist := S2Distance.CalcDist(latOne, lonOne, latTwo, lonTwo)

	assert.InEpsilon(t, exact, approx, 0.005)
	assert.InEpsilon(t, exact, s2Dist, 1e-6)
	assert.Equal(t, 0.0, Haversine.CalcDist(latOne, lonOne, latOne, lonOne))
}

func TestNewDistanceCalc(t *testing.T) {
	for _, mode := range []string{"plane", "haversine", "s2", ""} {
		calc, err := NewDistanceCalc(mode)
		require.NoError(t, err)
		assert.NotNil(t, calc)
	}

	_, err := NewDistanceCalc("manhattan")
	assert.Error(t, err)
}

func TestGetDestinationPoint(t *testing.T) {
	lat, lon := GetDestinationPoint(-7.55, 110.78, 90, 1.0)
	assert.InDelta(t, 1.0, CalculateHaversineDistance(-7.55, 110.78, lat, lon), 1e-6)
	assert.Greater(t, lon, 110.78)
}

func TestProjectPointToSegment(t *testing.T) {
	a := NewCoordinate(47.667324, -122.118989)
	b := NewCoordinate(47.667338, -122.121784)
	snap := NewCoordinate(47.667347, -122.120561)

	projected, fraction := ProjectPointToSegment(a, b, snap)
	assert.Greater(t, fraction, 0.0)
	assert.Less(t, fraction, 1.0)
	assert.InDelta(t, 47.66733, projected.Lat, 1e-4)
	assert.Less(t, PointLinePerpendicularDistance(a, b, snap), 5.0)

	same, fraction := ProjectPointToSegment(a, a, snap)
	assert.Equal(t, a, same)
	assert.Equal(t, 0.0, fraction)
}

func TestRamerDouglasPeucker(t *testing.T) {
	lineCoords := []Coordinate{
		{-7.565837, 110.831586},
		{-7.566063, 110.832379},
		{-7.566406, 110.833232},
	}

	simplified := RamerDouglasPeucker(lineCoords, DOUGLAS_PEUCKER_THRESHOLDS)
	assert.LessOrEqual(t, len(simplified), 2)
	assert.Equal(t, lineCoords[0], simplified[0])
}
