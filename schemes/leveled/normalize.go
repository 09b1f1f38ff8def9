package leveled

import (
	"fmt"
	"math"

	"github.com/spgrammatakis/sealDemo/core/scale"
)

type opKind int

const (
	opAdd = opKind(iota)
	opMultiply
)

// normalize brings a and b to a common level and, for additions, to a common scale.
// Both operands must be of degree at most one: products are relinearized before
// they are combined with anything else.
func (eval *Evaluator) normalize(op string, kind opKind, a, b *Value) (*Value, *Value, error) {

	if a == nil || b == nil {
		return nil, nil, fmt.Errorf("%w: nil operand", ErrInvalidOperand)
	}

	if !a.IsCiphertext() && !b.IsCiphertext() {
		return nil, nil, fmt.Errorf("%w: at least one operand must be a Ciphertext", ErrInvalidOperand)
	}

	if err := CheckLinear(a); err != nil {
		return nil, nil, err
	}
	if err := CheckLinear(b); err != nil {
		return nil, nil, err
	}

	var err error
	for a.Level() != b.Level() {
		if a.Level() < b.Level() {
			a, err = eval.lower(op, kind, a, b)
		} else {
			b, err = eval.lower(op, kind, b, a)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	if kind == opAdd {
		if a, b, err = eval.alignScales(op, a, b); err != nil {
			return nil, nil, err
		}
	}

	return a, b, nil
}

// lower moves v, the operand above, toward the level of deeper. The level
// between them has to be dropped anyway, so v is rescaled instead if that
// brings its scale closer to the scale the operation needs: the scale of
// deeper for an addition, the nominal scale for a multiplication.
// Otherwise v is mod-switched to the level of deeper in one step.
func (eval *Evaluator) lower(op string, kind opKind, v, deeper *Value) (*Value, error) {

	target := eval.params.NominalScale()
	if kind == opAdd {
		target = deeper.Scale()
	}

	if eval.rescaleHelps(v, target) {
		return eval.rescale(op, v, true)
	}

	return eval.modSwitchTo(op, v, deeper.Level(), true)
}

// rescaleHelps returns true if v can be rescaled and the rescale brings
// its scale closer to target.
func (eval *Evaluator) rescaleHelps(v *Value, target scale.Scale) bool {

	if !v.IsCiphertext() || v.Degree() != 1 || v.Level() >= eval.params.MaxLevel() {
		return false
	}

	s := v.Scale()
	q := eval.params.Chain().Modulus(v.Level()).Scale()
	logTarget := target.Log2()

	return math.Abs(s.Div(q).Log2()-logTarget) < math.Abs(s.Log2()-logTarget)
}

// alignScales brings the operands of an addition to a common scale.
// Scales within Config.ScaleTolerance are left untouched. Otherwise, if
// Config.NormalizeScales is enabled and the drift is at most Config.MaxScaleDrift,
// both are relabeled to the nominal scale if both are close to it, else to the
// scale of a.
func (eval *Evaluator) alignScales(op string, a, b *Value) (*Value, *Value, error) {

	sa, sb := a.Scale(), b.Scale()

	if sa.InDelta(sb, eval.cfg.ScaleTolerance) {
		return a, b, nil
	}

	drift := sa.RelativeDistance(sb)

	if !eval.cfg.NormalizeScales {
		return nil, nil, fmt.Errorf("%w: %s != %s (relative distance %.3e > %.3e)", ErrScaleMismatch, sa, sb, drift, eval.cfg.ScaleTolerance)
	}

	if drift > eval.cfg.MaxScaleDrift {
		return nil, nil, fmt.Errorf("%w: %s != %s (relative distance %.3e exceeds the normalization bound %.3e)", ErrScaleMismatch, sa, sb, drift, eval.cfg.MaxScaleDrift)
	}

	target := sa
	if nominal := eval.params.NominalScale(); sa.InDelta(nominal, eval.cfg.MaxScaleDrift) && sb.InDelta(nominal, eval.cfg.MaxScaleDrift) {
		target = nominal
	}

	var err error
	if a, err = eval.normalizeScale(op, a, target, true); err != nil {
		return nil, nil, err
	}

	if b, err = eval.normalizeScale(op, b, target, true); err != nil {
		return nil, nil, err
	}

	return a, b, nil
}

func (eval *Evaluator) normalizeScale(op string, v *Value, target scale.Scale, automatic bool) (*Value, error) {

	s := v.Scale()

	if s.Equal(target) {
		return v, nil
	}

	drift := s.RelativeDistance(target)

	if drift > eval.cfg.MaxScaleDrift {
		return nil, fmt.Errorf("%w: %s != %s (relative distance %.3e exceeds the normalization bound %.3e)", ErrScaleMismatch, s, target, drift, eval.cfg.MaxScaleDrift)
	}

	res, err := eval.backend.SetScale(v, target)
	if err != nil {
		return nil, err
	}

	eval.record(StepNormalizeScale, op, automatic, res, fmt.Sprintf("scale %s relabeled as %s, relative drift %.3e", s, target, drift), v)

	return res, nil
}
