package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSortedKeys(t *testing.T) {
	m := map[int]int{1: 1, 3: 3, 2: 2}
	require.Equal(t, []int{1, 2, 3}, GetSortedKeys(m))
	m = map[int]int{-1: 1, -3: 3, -2: 2}
	require.Equal(t, []int{-3, -2, -1}, GetSortedKeys(m))
	require.Equal(t, []string{"x", "y"}, GetSortedKeys(map[string]bool{"y": true, "x": true}))
}

func TestMaxAbs(t *testing.T) {
	require.Equal(t, 3.5, MaxAbs([]float64{1, -3.5, 2}))
	require.Equal(t, 0.0, MaxAbs([]float64{}))
}

func TestResize(t *testing.T) {
	require.Equal(t, []float64{1, 2, 0, 0}, Resize([]float64{1, 2}, 4))
	require.Equal(t, []float64{1}, Resize([]float64{1, 2}, 1))

	x := []float64{1, 2}
	y := Resize(x, 2)
	y[0] = 3
	require.Equal(t, 1.0, x[0])
}

func TestBroadcast(t *testing.T) {
	require.Equal(t, []float64{5, 5, 5}, Broadcast(5.0, 3))
	require.Empty(t, Broadcast(5.0, 0))
}
