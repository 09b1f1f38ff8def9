package leveled

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spgrammatakis/sealDemo/core/params"
	"github.com/spgrammatakis/sealDemo/core/scale"
)

func TestChecks(t *testing.T) {

	p, err := params.NewParametersFromLiteral(params.ExampleParametersSEALBasics)
	require.NoError(t, err)

	delta := p.NominalScale()
	slots := p.MaxSlots()

	ct0 := NewCiphertext(nil, 0, 1, slots, delta)
	ct1 := NewCiphertext(nil, 1, 1, slots, delta)
	ct2 := NewCiphertext(nil, 0, 2, slots, delta)
	ctMax := NewCiphertext(nil, p.MaxLevel(), 1, slots, delta)
	pt0 := NewPlaintext(nil, 0, slots, delta)

	t.Run("Kind", func(t *testing.T) {
		require.NoError(t, CheckCiphertext(ct0))
		require.True(t, errors.Is(CheckCiphertext(pt0), ErrInvalidOperand))
		require.True(t, errors.Is(CheckCiphertext(nil), ErrInvalidOperand))
		require.NoError(t, CheckPlaintext(pt0))
		require.True(t, errors.Is(CheckPlaintext(ct0), ErrInvalidOperand))
		require.True(t, errors.Is(CheckSlots(p, slots+1), ErrInvalidOperand))
		require.NoError(t, CheckSlots(p, slots))
	})

	t.Run("Level", func(t *testing.T) {
		require.NoError(t, CheckSameLevel(ct0, pt0))
		require.True(t, errors.Is(CheckSameLevel(ct0, ct1), ErrLevelMismatch))
	})

	t.Run("Scale", func(t *testing.T) {
		near := NewCiphertext(nil, 0, 1, slots, scale.NewScale(delta.Float64()*(1+1e-8)))
		far := NewCiphertext(nil, 0, 1, slots, scale.NewScale(delta.Float64()*(1+1e-3)))
		require.NoError(t, CheckSameScale(ct0, near, DefaultScaleTolerance))
		require.True(t, errors.Is(CheckSameScale(ct0, far, DefaultScaleTolerance), ErrScaleMismatch))

		require.NoError(t, CheckScale(delta))
		require.True(t, errors.Is(CheckScale(scale.Scale{}), ErrInvalidOperand))
		require.True(t, errors.Is(CheckScale(scale.NewScale(0)), ErrInvalidOperand))
	})

	t.Run("Degree", func(t *testing.T) {
		require.NoError(t, CheckLinear(ct0))
		require.NoError(t, CheckLinear(pt0))
		require.True(t, errors.Is(CheckLinear(ct2), ErrDegree))
		require.NoError(t, CheckRelinearizable(ct2))
		require.True(t, errors.Is(CheckRelinearizable(ct0), ErrNotRelinearizable))
	})

	t.Run("Rescale", func(t *testing.T) {
		require.NoError(t, CheckRescalable(p, ct0))
		require.True(t, errors.Is(CheckRescalable(p, ctMax), ErrLevelExhausted))
		require.True(t, errors.Is(CheckRescalable(p, ct2), ErrDegree))
	})

	t.Run("ModSwitch", func(t *testing.T) {
		require.NoError(t, CheckModSwitch(p, ct0, p.MaxLevel()))
		require.NoError(t, CheckModSwitch(p, ct1, 1))
		require.True(t, errors.Is(CheckModSwitch(p, ct1, 0), ErrLevelMismatch))
		require.True(t, errors.Is(CheckModSwitch(p, ct0, p.MaxLevel()+1), ErrLevelExhausted))
	})
}

func TestValue(t *testing.T) {
	s := scale.Exp2(40)
	ct := NewCiphertext("operand", 1, 2, 8, s)
	require.Equal(t, Ciphertext, ct.Kind())
	require.True(t, ct.IsCiphertext())
	require.Equal(t, 1, ct.Level())
	require.Equal(t, 2, ct.Degree())
	require.Equal(t, 8, ct.Slots())
	require.Equal(t, "operand", ct.Operand())
	require.InDelta(t, 40, ct.LogScale(), 1e-9)
	require.Equal(t, "Ciphertext@1/2^40.0000/2", ct.String())

	pt := NewPlaintext(nil, 0, 8, s)
	require.Equal(t, 0, pt.Degree())
	require.Equal(t, "Plaintext@0/2^40.0000/0", pt.String())

	// The scale of a value cannot be modified through its accessor.
	sc := ct.Scale()
	sc.Value.SetInt64(1)
	require.InDelta(t, 40, ct.LogScale(), 1e-9)
}
