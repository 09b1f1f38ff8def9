package scale

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewScale(t *testing.T) {

	require.Equal(t, 0, NewScale(1<<40).Cmp(Exp2(40)))
	require.Equal(t, 0, NewScale(uint64(1<<40)).Cmp(Exp2(40)))
	require.Equal(t, 0, NewScale(new(big.Int).Lsh(big.NewInt(1), 40)).Cmp(Exp2(40)))
	require.Equal(t, 0, NewScale(Exp2(40)).Cmp(Exp2(40)))

	require.Panics(t, func() { NewScale(-1.0) })
	require.Panics(t, func() { NewScale(math.NaN()) })
	require.Panics(t, func() { NewScale("2^40") })
}

func TestMulDiv(t *testing.T) {

	q := NewScale(uint64(1099511627689)) // 40-bit prime
	delta := Exp2(40)

	// (delta * delta) / q is not an integer, the division must not truncate.
	rescaled := delta.Mul(delta).Div(q)
	require.Greater(t, rescaled.Cmp(delta), 0)
	require.True(t, rescaled.Mul(q).InDelta(delta.Mul(delta), 1e-30))

	// p = target * q / s lands exactly on target after s * p / q.
	p := delta.Mul(q).Div(rescaled)
	require.True(t, rescaled.Mul(p).Div(q).InDelta(delta, 1e-30))
}

func TestLog2(t *testing.T) {
	require.InDelta(t, 40, Exp2(40).Log2(), 1e-12)
	require.InDelta(t, 2000, Exp2(2000).Log2(), 1e-9)
	require.InDelta(t, math.Log2(3), NewScale(3).Log2(), 1e-12)
	require.True(t, math.IsInf(NewScale(0).Log2(), -1))
}

func TestRelativeDistance(t *testing.T) {

	a := Exp2(40)
	b := NewScale(a.Float64() * (1 + 1e-3))

	require.InDelta(t, 1e-3/(1+1e-3), a.RelativeDistance(b), 1e-12)
	require.Equal(t, a.RelativeDistance(b), b.RelativeDistance(a))
	require.Zero(t, a.RelativeDistance(a))
	require.Zero(t, NewScale(0).RelativeDistance(NewScale(0)))

	require.True(t, a.InDelta(b, 1e-2))
	require.False(t, a.InDelta(b, 1e-4))

	require.True(t, a.Equal(Exp2(40)))
	require.False(t, a.Equal(b))
	require.Equal(t, 0, a.Max(b).Cmp(b))
}

func TestMarshalJSON(t *testing.T) {

	s := Exp2(40).Div(NewScale(uint64(1099511627689)))

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var have Scale
	require.NoError(t, json.Unmarshal(data, &have))
	require.True(t, s.InDelta(have, 1e-30))

	require.Error(t, json.Unmarshal([]byte(`40`), &have))
	require.Error(t, json.Unmarshal([]byte(`"-1"`), &have))
}
