// Package circuits implements arithmetic circuits over leveled values: expression DAGs
// evaluated bottom-up by a [leveled.Evaluator], a polynomial scheduler that folds the
// coefficients into the encodings and the concurrent evaluation of independent circuits.
package circuits

import (
	"errors"
)

var (
	// ErrUnboundInput is returned when a circuit references an input that is not provided.
	ErrUnboundInput = errors.New("unbound input")

	// ErrInvalidPolynomial is returned for polynomials of degree smaller than 1.
	ErrInvalidPolynomial = errors.New("invalid polynomial")
)
