// Package sampling implements the sampling of bytes and floats from a byte stream.
package sampling

import (
	"encoding/binary"
	"io"
	"math"
)

// ReadUint64 returns a value between 0 and 0xFFFFFFFFFFFFFFFF read from r.
// Panics if r fails.
func ReadUint64(r io.Reader) uint64 {
	b := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	if _, err := io.ReadFull(r, b); err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint64(b)
}

// Float64 returns a float uniformly distributed in [0, 1).
func Float64(r io.Reader) float64 {
	// 53 bits: the largest integer range exactly representable.
	return float64(ReadUint64(r)>>11) / (1 << 53)
}

// RandFloat64 returns a float uniformly distributed between min and max.
func RandFloat64(r io.Reader, min, max float64) float64 {
	return min + Float64(r)*(max-min)
}

// NormFloat64 returns a standard normal deviate, using the Box-Muller transform.
func NormFloat64(r io.Reader) float64 {
	u := 1 - Float64(r) // (0, 1]
	v := Float64(r)
	return math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
}
