package spatialindex

import "math"

/*
SpatialKeyAlgo. Z-order key: setiap bit membagi dua bounding box, bergantian lat lalu lon.

	bit ke-0 (paling kiri) = lat >= midLat, bit ke-1 = lon >= midLon, dst.

jadi cell yang berdekatan punya prefix key yang sama.
*/
type SpatialKeyAlgo struct {
	bits   int
	minLat float64
	maxLat float64
	minLon float64
	maxLon float64
}

func NewSpatialKeyAlgo(bits int) *SpatialKeyAlgo {
	if bits < 1 {
		bits = 1
	}
	if bits > 62 {
		bits = 62
	}
	return &SpatialKeyAlgo{bits: bits, minLat: -90, maxLat: 90, minLon: -180, maxLon: 180}
}

func (s *SpatialKeyAlgo) SetBounds(minLat, maxLat, minLon, maxLon float64) *SpatialKeyAlgo {
	s.minLat, s.maxLat = minLat, maxLat
	s.minLon, s.maxLon = minLon, maxLon
	return s
}

func (s *SpatialKeyAlgo) Bits() int {
	return s.bits
}

// LatBits jumlah bit untuk lat (bit genap).
func (s *SpatialKeyAlgo) LatBits() int {
	return (s.bits + 1) / 2
}

func (s *SpatialKeyAlgo) LonBits() int {
	return s.bits / 2
}

// Encode key cell yang memuat (lat, lon). Koordinat di luar bounds di clamp ke cell tepi.
func (s *SpatialKeyAlgo) Encode(lat, lon float64) uint64 {
	lat = math.Max(s.minLat, math.Min(s.maxLat, lat))
	lon = math.Max(s.minLon, math.Min(s.maxLon, lon))

	minLat, maxLat := s.minLat, s.maxLat
	minLon, maxLon := s.minLon, s.maxLon

	var key uint64
	for i := 0; i < s.bits; i++ {
		key <<= 1
		if i%2 == 0 {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				key |= 1
				minLat = mid
			} else {
				maxLat = mid
			}
		} else {
			mid := (minLon + maxLon) / 2
			if lon >= mid {
				key |= 1
				minLon = mid
			} else {
				maxLon = mid
			}
		}
	}
	return key
}

// Decode titik tengah cell dari key.
func (s *SpatialKeyAlgo) Decode(key uint64) (float64, float64) {
	minLat, maxLat := s.minLat, s.maxLat
	minLon, maxLon := s.minLon, s.maxLon

	for i := 0; i < s.bits; i++ {
		bit := (key >> uint(s.bits-1-i)) & 1
		if i%2 == 0 {
			mid := (minLat + maxLat) / 2
			if bit == 1 {
				minLat = mid
			} else {
				maxLat = mid
			}
		} else {
			mid := (minLon + maxLon) / 2
			if bit == 1 {
				minLon = mid
			} else {
				maxLon = mid
			}
		}
	}
	return (minLat + maxLat) / 2, (minLon + maxLon) / 2
}

// CellSize ukuran satu cell dalam derajat (lat, lon).
func (s *SpatialKeyAlgo) CellSize() (float64, float64) {
	return (s.maxLat - s.minLat) / math.Pow(2, float64(s.LatBits())),
		(s.maxLon - s.minLon) / math.Pow(2, float64(s.LonBits()))
}
