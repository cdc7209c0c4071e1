package pkg

const (
	INF_WEIGHT = 1e15

	// loader replaces zero-length edges with this distance (km)
	EPSILON_DISTANCE = 0.0001

	INVALID_INDEX = -1
)
