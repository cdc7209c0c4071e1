package util

import (
	"context"
	"math"
)

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func ReverseG[T any](arr []T) []T {
	copyArr := make([]T, len(arr)) // should do on the copy )
	copy(copyArr, arr)
	for i, j := 0, len(copyArr)-1; i < j; i, j = i+1, j-1 {
		copyArr[i], copyArr[j] = copyArr[j], copyArr[i]
	}
	return copyArr
}

// PackInt32Pair. high 32 bit = a, low 32 bit = b.
func PackInt32Pair(a, b int32) uint64 {
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

func UnpackInt32Pair(packed uint64) (int32, int32) {
	return int32(uint32(packed >> 32)), int32(uint32(packed))
}

func BitPackIntBool(a int32, b bool, offset int32) int32 {
	if b {
		return a | 1<<offset
	}
	return a
}

func BitUnpackIntBool(packed int32, offset int32) (int32, bool) {
	return packed &^ (1 << offset), packed&(1<<offset) != 0
}

func StopConcurrentOperation(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
