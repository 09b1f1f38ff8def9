// Package utils implements various helper functions.
package utils

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
)

// GetKeys returns the keys of the input map.
// Order is not guaranteed.
func GetKeys[K constraints.Ordered, V any](m map[K]V) (keys []K) {

	keys = make([]K, len(m))

	var i int
	for key := range m {
		keys[i] = key
		i++
	}

	return
}

// GetSortedKeys returns the sorted keys of a map.
func GetSortedKeys[K constraints.Ordered, V any](m map[K]V) (keys []K) {
	keys = GetKeys(m)
	SortSlice(keys)
	return
}

// SortSlice sorts a slice in place.
func SortSlice[T constraints.Ordered](s []T) {
	sort.Slice(s, func(i, j int) bool {
		return s[i] < s[j]
	})
}

// MaxAbs returns max(|x[i]|), or zero for an empty slice.
func MaxAbs[V constraints.Float](x []V) (max V) {
	for _, xi := range x {
		max = V(math.Max(float64(max), math.Abs(float64(xi))))
	}
	return
}

// Resize returns a copy of x of length n, truncated or padded with zero values.
func Resize[V any](x []V, n int) (y []V) {
	y = make([]V, n)
	copy(y, x)
	return
}

// Broadcast returns a slice of length n whose values are all equal to v.
func Broadcast[V any](v V, n int) (y []V) {
	y = make([]V, n)
	for i := range y {
		y[i] = v
	}
	return
}
