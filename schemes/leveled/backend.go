package leveled

import (
	"fmt"

	"github.com/spgrammatakis/sealDemo/core/params"
	"github.com/spgrammatakis/sealDemo/core/scale"
)

// DefaultScaleTolerance is the relative distance under which two scales are treated as equal.
const DefaultScaleTolerance = 1e-6

// Backend is the interface of the primitives of a leveled CKKS scheme.
// The [Evaluator] only interacts with the scheme through this interface.
//
// A Backend does not schedule anything: each method checks the contract of the
// primitive (see the Check functions) and returns an error wrapping one of the
// package sentinel errors if it is violated. Inputs are never modified.
type Backend interface {
	Parameters() params.Parameters

	// Encode returns a plaintext at level 0 encoding values with the given scale.
	Encode(values []float64, scale scale.Scale) (pt *Value, err error)
	// Encrypt returns a degree 1 ciphertext with the level and scale of pt.
	Encrypt(pt *Value) (ct *Value, err error)
	Decrypt(ct *Value) (pt *Value, err error)
	Decode(pt *Value) (values []float64, err error)

	// Add returns a + b for two ciphertexts at the same level and scale.
	Add(a, b *Value) (ct *Value, err error)
	// AddPlain returns ct + pt for operands at the same level and scale.
	AddPlain(ct, pt *Value) (res *Value, err error)
	// Multiply returns the degree 2 product of two degree 1 ciphertexts at the same level.
	Multiply(a, b *Value) (ct *Value, err error)
	// MultiplyPlain returns ct * pt for operands at the same level.
	MultiplyPlain(ct, pt *Value) (res *Value, err error)
	// Square returns the degree 2 ciphertext a * a.
	Square(a *Value) (ct *Value, err error)
	// Relinearize returns a degree 1 ciphertext from a degree 2 ciphertext.
	Relinearize(a *Value) (ct *Value, err error)
	// Rescale divides a by the prime of its level and returns it at the next level.
	Rescale(a *Value) (ct *Value, err error)
	// ModSwitchTo drops a to the given level without changing its scale.
	ModSwitchTo(a *Value, level int) (res *Value, err error)
	// SetScale relabels the scale of a without changing its content.
	SetScale(a *Value, s scale.Scale) (res *Value, err error)

	// ShallowCopy returns a Backend sharing the read-only state (parameters, keys)
	// of the receiver but none of its buffers, which can be used concurrently.
	ShallowCopy() Backend

	// WithScaleTolerance returns a shallow copy of the Backend whose additions accept
	// operands whose scales are within the relative distance tol.
	WithScaleTolerance(tol float64) Backend
}

// CheckCiphertext returns an error wrapping [ErrInvalidOperand] if v is not a ciphertext.
func CheckCiphertext(v *Value) error {
	if v == nil {
		return fmt.Errorf("%w: nil ciphertext", ErrInvalidOperand)
	}
	if !v.IsCiphertext() {
		return fmt.Errorf("%w: expected a Ciphertext but got a %s", ErrInvalidOperand, v.Kind())
	}
	return nil
}

// CheckPlaintext returns an error wrapping [ErrInvalidOperand] if v is not a plaintext.
func CheckPlaintext(v *Value) error {
	if v == nil {
		return fmt.Errorf("%w: nil plaintext", ErrInvalidOperand)
	}
	if v.IsCiphertext() {
		return fmt.Errorf("%w: expected a Plaintext but got a %s", ErrInvalidOperand, v.Kind())
	}
	return nil
}

// CheckScale returns an error wrapping [ErrInvalidOperand] if s is not positive.
func CheckScale(s scale.Scale) error {
	if s.Value.Sign() <= 0 {
		return fmt.Errorf("%w: scale must be positive but is %s", ErrInvalidOperand, s.Value.String())
	}
	return nil
}

// CheckLinear returns an error wrapping [ErrDegree] if a ciphertext v is not of degree 1.
func CheckLinear(v *Value) error {
	if v.IsCiphertext() && v.Degree() != 1 {
		return fmt.Errorf("%w: ciphertext degree is %d but must be 1", ErrDegree, v.Degree())
	}
	return nil
}

// CheckSlots returns an error wrapping [ErrInvalidOperand] if n values do not fit in the slots.
func CheckSlots(p params.Parameters, n int) error {
	if n > p.MaxSlots() {
		return fmt.Errorf("%w: %d values for %d slots", ErrInvalidOperand, n, p.MaxSlots())
	}
	return nil
}

// CheckSameLevel returns an error wrapping [ErrLevelMismatch] if a and b are at different levels.
func CheckSameLevel(a, b *Value) error {
	if a.Level() != b.Level() {
		return fmt.Errorf("%w: %d != %d", ErrLevelMismatch, a.Level(), b.Level())
	}
	return nil
}

// CheckSameScale returns an error wrapping [ErrScaleMismatch] if the relative distance
// between the scales of a and b is greater than tol.
func CheckSameScale(a, b *Value, tol float64) error {
	if sa, sb := a.Scale(), b.Scale(); !sa.InDelta(sb, tol) {
		return fmt.Errorf("%w: %s != %s (relative distance %.3e > %.3e)", ErrScaleMismatch, sa, sb, sa.RelativeDistance(sb), tol)
	}
	return nil
}

// CheckRelinearizable returns an error wrapping [ErrNotRelinearizable] if v is not of degree 2.
func CheckRelinearizable(v *Value) error {
	if v.Degree() != 2 {
		return fmt.Errorf("%w: degree is %d", ErrNotRelinearizable, v.Degree())
	}
	return nil
}

// CheckRescalable returns an error wrapping [ErrLevelExhausted] if v is already at the
// last level, or [ErrDegree] if v is not of degree 1.
func CheckRescalable(p params.Parameters, v *Value) error {
	if v.Level() >= p.MaxLevel() {
		return fmt.Errorf("%w: level %d is the last level", ErrLevelExhausted, v.Level())
	}
	return CheckLinear(v)
}

// CheckModSwitch returns an error wrapping [ErrLevelMismatch] if the target level is
// above the level of v, or [ErrLevelExhausted] if it is beyond the chain.
func CheckModSwitch(p params.Parameters, v *Value, level int) error {
	if level < v.Level() {
		return fmt.Errorf("%w: cannot switch from level %d up to level %d", ErrLevelMismatch, v.Level(), level)
	}
	if level > p.MaxLevel() {
		return fmt.Errorf("%w: target level %d > max level %d", ErrLevelExhausted, level, p.MaxLevel())
	}
	return nil
}
