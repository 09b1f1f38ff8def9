package circuits

import (
	"fmt"
	"math/bits"

	"github.com/spgrammatakis/sealDemo/core/scale"
	"github.com/spgrammatakis/sealDemo/schemes/leveled"
	"github.com/spgrammatakis/sealDemo/utils"
)

// Degree returns the degree of the polynomial with the given coefficients,
// given in increasing degree order, or -1 for the zero polynomial.
func Degree(coeffs []float64) int {
	for i := len(coeffs) - 1; i >= 0; i-- {
		if coeffs[i] != 0 {
			return i
		}
	}
	return -1
}

// PolynomialDepth returns the number of levels consumed by [EvaluatePolynomial]
// for a polynomial of the given degree: ceil(log2(degree)) for the powers and
// one for the coefficients.
func PolynomialDepth(degree int) int {
	if degree < 1 {
		return 0
	}
	return bits.Len64(uint64(degree-1)) + 1
}

// EvaluatePolynomial evaluates sum coeffs[i] * x^i on the ciphertext x.
//
// The powers of x are computed by binary splitting. Each coefficient is encoded
// at the level of its power, with the scale for which the rescaled product lands
// exactly on the nominal scale, so that all the terms share the same scale and
// are added after a mod-switch at most. The constant term is encoded directly at
// the level and scale of the result, which is x.Level() + PolynomialDepth(degree).
//
// Returns an error wrapping [leveled.ErrLevelExhausted] before any evaluation if
// x does not have enough levels left.
func EvaluatePolynomial(eval *leveled.Evaluator, x *leveled.Value, coeffs []float64) (res *leveled.Value, err error) {

	if err = leveled.CheckCiphertext(x); err != nil {
		return nil, fmt.Errorf("cannot EvaluatePolynomial: %w", err)
	}

	if err = leveled.CheckLinear(x); err != nil {
		return nil, fmt.Errorf("cannot EvaluatePolynomial: %w", err)
	}

	degree := Degree(coeffs)
	if degree < 1 {
		return nil, fmt.Errorf("cannot EvaluatePolynomial: %w: degree %d < 1", ErrInvalidPolynomial, degree)
	}

	params := eval.Parameters()

	if depth := PolynomialDepth(degree); x.Level()+depth > params.MaxLevel() {
		return nil, fmt.Errorf("cannot EvaluatePolynomial: %w: degree %d requires %d levels but x at level %d has %d left",
			leveled.ErrLevelExhausted, degree, depth, x.Level(), params.LevelBudget(x.Level()))
	}

	pb := NewPowerBasis(x)
	for i := 1; i <= degree; i++ {
		if coeffs[i] != 0 {
			if err = pb.GenPower(i, eval); err != nil {
				return nil, fmt.Errorf("cannot EvaluatePolynomial: %w", err)
			}
		}
	}

	target := params.NominalScale()

	// Highest degree first: it sets the level of the result.
	for i := degree; i > 0; i-- {

		if coeffs[i] == 0 {
			continue
		}

		var term *leveled.Value
		if term, err = monomial(eval, pb.Value[i], coeffs[i], target); err != nil {
			return nil, fmt.Errorf("cannot EvaluatePolynomial: coefficient %d: %w", i, err)
		}

		if res == nil {
			res = term
		} else if res, err = eval.Add(res, term); err != nil {
			return nil, fmt.Errorf("cannot EvaluatePolynomial: coefficient %d: %w", i, err)
		}
	}

	if coeffs[0] != 0 {
		if res, err = eval.AddConst(res, coeffs[0]); err != nil {
			return nil, fmt.Errorf("cannot EvaluatePolynomial: constant term: %w", err)
		}
	}

	return
}

// monomial returns c * xi, rescaled to the scale target.
func monomial(eval *leveled.Evaluator, xi *leveled.Value, c float64, target scale.Scale) (term *leveled.Value, err error) {

	var s scale.Scale
	if s, err = eval.ScaleForTarget(xi, target); err != nil {
		return
	}

	var pt *leveled.Value
	if pt, err = eval.EncodeAt(utils.Broadcast(c, xi.Slots()), xi.Level(), s); err != nil {
		return
	}

	if term, err = eval.Multiply(xi, pt); err != nil {
		return
	}

	return eval.Rescale(term)
}

// LinSpace returns n values evenly spaced over [start, stop).
func LinSpace(start, stop float64, n int) (values []float64) {
	values = make([]float64, n)
	step := (stop - start) / float64(n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return
}
