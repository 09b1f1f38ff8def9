package circuits

import (
	"fmt"
	"math/bits"

	"github.com/spgrammatakis/sealDemo/schemes/leveled"
)

// PowerBasis is a struct storing powers of a ciphertext.
type PowerBasis struct {
	Value map[int]*leveled.Value
}

// NewPowerBasis creates a new [PowerBasis] treating ct as the monomial X.
func NewPowerBasis(ct *leveled.Value) PowerBasis {
	return PowerBasis{Value: map[int]*leveled.Value{1: ct}}
}

// SplitDegree returns a + b = n such that X^{n} = X^{a} * X^{b} is
// computed at depth ceil(log2(n)), with a and/or b odd if possible.
func SplitDegree(n int) (a, b int) {

	if n&(n-1) == 0 {
		a, b = n/2, n/2 // Necessary for optimal depth
	} else {
		k := bits.Len64(uint64(n-1)) - 1
		a = (1 << k) - 1
		b = n + 1 - (1 << k)
	}

	return
}

// GenPower recursively computes X^{n}. Each product is relinearized and
// rescaled once, so that X^{n} is at ceil(log2(n)) levels below X.
func (p *PowerBasis) GenPower(n int, eval *leveled.Evaluator) (err error) {

	if n < 1 {
		return fmt.Errorf("cannot GenPower: n=%d < 1", n)
	}

	if p.Value[n] != nil {
		return nil
	}

	a, b := SplitDegree(n)

	if err = p.GenPower(a, eval); err != nil {
		return fmt.Errorf("genpower: p.Value[%d]: %w", a, err)
	}

	if err = p.GenPower(b, eval); err != nil {
		return fmt.Errorf("genpower: p.Value[%d]: %w", b, err)
	}

	var xn *leveled.Value
	if a == b {
		xn, err = eval.Square(p.Value[a])
	} else {
		xn, err = eval.Multiply(p.Value[a], p.Value[b])
	}

	if err != nil {
		return fmt.Errorf("genpower: p.Value[%d] * p.Value[%d]: %w", a, b, err)
	}

	if p.Value[n], err = eval.Rescale(xn); err != nil {
		return fmt.Errorf("genpower: p.Value[%d]: rescale: %w", n, err)
	}

	return
}
