package leveled

import (
	"errors"
)

var (
	// ErrLevelMismatch is returned when the operands of a primitive are not at the same
	// level, or when a mod-switch targets a level above the current one.
	ErrLevelMismatch = errors.New("level mismatch")

	// ErrScaleMismatch is returned when the operands of an addition have scales that
	// differ beyond the tolerance and cannot be normalized.
	ErrScaleMismatch = errors.New("scale mismatch")

	// ErrLevelExhausted is returned when an operation requires more levels than the chain has left.
	ErrLevelExhausted = errors.New("level exhausted")

	// ErrNotRelinearizable is returned when relinearizing a ciphertext of degree 1.
	ErrNotRelinearizable = errors.New("ciphertext is not relinearizable")

	// ErrDegree is returned when a ciphertext of degree 2 is given to an operation that requires degree 1.
	ErrDegree = errors.New("invalid ciphertext degree")

	// ErrInvalidOperand is returned on a nil operand, a plaintext given where a ciphertext
	// is expected (or the converse) or too many values for the slots.
	ErrInvalidOperand = errors.New("invalid operand")

	// ErrModulusOverflow is returned when a decrypted message does not fit in the remaining modulus.
	ErrModulusOverflow = errors.New("modulus overflow")
)
