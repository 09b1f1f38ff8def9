package leveled

import (
	"fmt"

	"github.com/spgrammatakis/sealDemo/core/params"
	"github.com/spgrammatakis/sealDemo/core/scale"
	"github.com/spgrammatakis/sealDemo/utils"
)

// Evaluator is a struct that holds the necessary elements to schedule the
// homomorphic operations of a circuit on a [Backend].
//
// Before each addition or multiplication, the operands are brought to a common
// level and, for additions, to a common scale. Products of ciphertexts are
// relinearized before being returned. Rescales are never inserted after a
// multiplication: they are requested explicitly by the caller.
//
// An Evaluator is not safe for concurrent use, see [Evaluator.ShallowCopy].
type Evaluator struct {
	backend Backend
	params  params.Parameters
	cfg     Config
	trace   []Step
}

// NewEvaluator instantiates a new [Evaluator] over a copy of the given backend
// that accepts the scale tolerance of cfg.
func NewEvaluator(backend Backend, cfg Config) *Evaluator {
	cfg = cfg.withDefaults()
	return &Evaluator{
		backend: backend.WithScaleTolerance(cfg.ScaleTolerance),
		params:  backend.Parameters(),
		cfg:     cfg,
	}
}

// ShallowCopy creates a shallow copy of this [Evaluator] with an empty trace
// and a shallow copy of the backend. The copy can be used concurrently with
// the receiver.
func (eval *Evaluator) ShallowCopy() *Evaluator {
	return &Evaluator{
		backend: eval.backend.ShallowCopy(),
		params:  eval.params,
		cfg:     eval.cfg,
	}
}

// Parameters returns the parameters of the underlying backend.
func (eval *Evaluator) Parameters() params.Parameters {
	return eval.params
}

// Backend returns the underlying backend.
func (eval *Evaluator) Backend() Backend {
	return eval.backend
}

// Config returns the configuration of the evaluator, defaults included.
func (eval *Evaluator) Config() Config {
	return eval.cfg
}

// Encode encodes values on a plaintext at level 0 with the given scale.
func (eval *Evaluator) Encode(values []float64, s scale.Scale) (pt *Value, err error) {
	if err = CheckScale(s); err != nil {
		return nil, fmt.Errorf("cannot Encode: %w", err)
	}
	if pt, err = eval.backend.Encode(values, s); err != nil {
		return nil, fmt.Errorf("cannot Encode: %w", err)
	}
	eval.record(StepEncode, "Encode", false, pt, fmt.Sprintf("%d values", len(values)))
	return
}

// EncodeAt encodes values on a plaintext at the given level with the given scale.
func (eval *Evaluator) EncodeAt(values []float64, level int, s scale.Scale) (pt *Value, err error) {

	if level < 0 {
		return nil, fmt.Errorf("cannot EncodeAt: %w: level %d < 0", ErrLevelMismatch, level)
	}

	if level > eval.params.MaxLevel() {
		return nil, fmt.Errorf("cannot EncodeAt: %w: level %d > max level %d", ErrLevelExhausted, level, eval.params.MaxLevel())
	}

	if err = CheckScale(s); err != nil {
		return nil, fmt.Errorf("cannot EncodeAt: %w", err)
	}

	if pt, err = eval.backend.Encode(values, s); err != nil {
		return nil, fmt.Errorf("cannot EncodeAt: %w", err)
	}
	eval.record(StepEncode, "EncodeAt", false, pt, fmt.Sprintf("%d values", len(values)))

	if pt, err = eval.modSwitchTo("EncodeAt", pt, level, true); err != nil {
		return nil, fmt.Errorf("cannot EncodeAt: %w", err)
	}

	return
}

// Encrypt encrypts a plaintext.
func (eval *Evaluator) Encrypt(pt *Value) (ct *Value, err error) {
	if ct, err = eval.backend.Encrypt(pt); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}
	eval.record(StepEncrypt, "Encrypt", false, ct, "", pt)
	return
}

// Decrypt decrypts a ciphertext.
func (eval *Evaluator) Decrypt(ct *Value) (pt *Value, err error) {
	return eval.decrypt("Decrypt", ct)
}

func (eval *Evaluator) decrypt(op string, ct *Value) (pt *Value, err error) {
	if pt, err = eval.backend.Decrypt(ct); err != nil {
		return nil, fmt.Errorf("cannot %s: %w", op, err)
	}
	eval.record(StepDecrypt, op, false, pt, "", ct)
	return
}

// Decode decodes a plaintext, or decrypts and decodes a ciphertext.
func (eval *Evaluator) Decode(v *Value) (values []float64, err error) {

	if v == nil {
		return nil, fmt.Errorf("cannot Decode: %w: nil value", ErrInvalidOperand)
	}

	if v.IsCiphertext() {
		if v, err = eval.decrypt("Decode", v); err != nil {
			return
		}
	}

	if values, err = eval.backend.Decode(v); err != nil {
		return nil, fmt.Errorf("cannot Decode: %w", err)
	}

	return
}

// Add returns a + b. At least one operand must be a ciphertext.
// The operands are first brought to the same level and, if enabled,
// to the same scale. The result has the scale of a.
func (eval *Evaluator) Add(a, b *Value) (res *Value, err error) {
	if res, err = eval.add("Add", a, b); err != nil {
		return nil, fmt.Errorf("cannot Add: %w", err)
	}
	return
}

func (eval *Evaluator) add(op string, a, b *Value) (res *Value, err error) {

	if a, b, err = eval.normalize(op, opAdd, a, b); err != nil {
		return
	}

	switch {
	case a.IsCiphertext() && b.IsCiphertext():
		res, err = eval.backend.Add(a, b)
	case a.IsCiphertext():
		res, err = eval.backend.AddPlain(a, b)
	default:
		res, err = eval.backend.AddPlain(b, a)
	}

	if err != nil {
		return nil, err
	}

	eval.record(StepAdd, op, false, res, "", a, b)

	return
}

// Multiply returns a * b. At least one operand must be a ciphertext.
// The operands are first brought to the same level. The result has scale
// a.Scale * b.Scale and is relinearized, but not rescaled.
func (eval *Evaluator) Multiply(a, b *Value) (res *Value, err error) {
	if res, err = eval.multiply("Multiply", a, b); err != nil {
		return nil, fmt.Errorf("cannot Multiply: %w", err)
	}
	return
}

func (eval *Evaluator) multiply(op string, a, b *Value) (res *Value, err error) {

	if a, b, err = eval.normalize(op, opMultiply, a, b); err != nil {
		return
	}

	switch {
	case a.IsCiphertext() && b.IsCiphertext():
		if res, err = eval.backend.Multiply(a, b); err != nil {
			return nil, err
		}
		eval.record(StepMultiply, op, false, res, "", a, b)
		return eval.relinearize(op, res, true)
	case a.IsCiphertext():
		res, err = eval.backend.MultiplyPlain(a, b)
	default:
		res, err = eval.backend.MultiplyPlain(b, a)
	}

	if err != nil {
		return nil, err
	}

	eval.record(StepMultiply, op, false, res, "", a, b)

	return
}

// Square returns a * a, relinearized but not rescaled.
func (eval *Evaluator) Square(a *Value) (res *Value, err error) {

	if err = CheckCiphertext(a); err != nil {
		return nil, fmt.Errorf("cannot Square: %w", err)
	}

	if err = CheckLinear(a); err != nil {
		return nil, fmt.Errorf("cannot Square: %w", err)
	}

	if res, err = eval.backend.Square(a); err != nil {
		return nil, fmt.Errorf("cannot Square: %w", err)
	}

	eval.record(StepSquare, "Square", false, res, "", a)

	if res, err = eval.relinearize("Square", res, true); err != nil {
		return nil, fmt.Errorf("cannot Square: %w", err)
	}

	return
}

// AddConst returns a + c. A single constant is added to every slot, otherwise
// c is added slot-wise. The constant is encoded directly at the level and the
// scale of a.
func (eval *Evaluator) AddConst(a *Value, c ...float64) (res *Value, err error) {

	if err = CheckCiphertext(a); err != nil {
		return nil, fmt.Errorf("cannot AddConst: %w", err)
	}

	var pt *Value
	if pt, err = eval.EncodeAt(constant(c, a.Slots()), a.Level(), a.Scale()); err != nil {
		return nil, fmt.Errorf("cannot AddConst: %w", err)
	}

	if res, err = eval.add("AddConst", a, pt); err != nil {
		return nil, fmt.Errorf("cannot AddConst: %w", err)
	}

	return
}

// MulConst returns a * c. A single constant multiplies every slot, otherwise
// c is multiplied slot-wise. The constant is encoded at the level of a with a
// scale equal to the prime of that level, so that rescaling the result gives
// back exactly the scale of a. At the last level, the constant is encoded at
// the nominal scale.
func (eval *Evaluator) MulConst(a *Value, c ...float64) (res *Value, err error) {

	if err = CheckCiphertext(a); err != nil {
		return nil, fmt.Errorf("cannot MulConst: %w", err)
	}

	s := eval.params.NominalScale()
	if a.Level() < eval.params.MaxLevel() {
		s = eval.params.Chain().Modulus(a.Level()).Scale()
	}

	var pt *Value
	if pt, err = eval.EncodeAt(constant(c, a.Slots()), a.Level(), s); err != nil {
		return nil, fmt.Errorf("cannot MulConst: %w", err)
	}

	if res, err = eval.multiply("MulConst", a, pt); err != nil {
		return nil, fmt.Errorf("cannot MulConst: %w", err)
	}

	return
}

// Relinearize returns the degree 1 ciphertext of a degree 2 ciphertext.
// Values returned by the evaluator are always of degree 1, so that this
// method is only useful on values produced directly by a [Backend].
func (eval *Evaluator) Relinearize(a *Value) (res *Value, err error) {

	if err = CheckCiphertext(a); err != nil {
		return nil, fmt.Errorf("cannot Relinearize: %w", err)
	}

	if res, err = eval.relinearize("Relinearize", a, false); err != nil {
		return nil, fmt.Errorf("cannot Relinearize: %w", err)
	}

	return
}

func (eval *Evaluator) relinearize(op string, a *Value, automatic bool) (res *Value, err error) {
	if res, err = eval.backend.Relinearize(a); err != nil {
		return nil, err
	}
	eval.record(StepRelinearize, op, automatic, res, "", a)
	return
}

// Rescale divides a by the prime of its level and returns it at the next level.
// Returns an error wrapping [ErrLevelExhausted] if a is at the last level.
func (eval *Evaluator) Rescale(a *Value) (res *Value, err error) {

	if err = CheckCiphertext(a); err != nil {
		return nil, fmt.Errorf("cannot Rescale: %w", err)
	}

	if res, err = eval.rescale("Rescale", a, false); err != nil {
		return nil, fmt.Errorf("cannot Rescale: %w", err)
	}

	return
}

func (eval *Evaluator) rescale(op string, a *Value, automatic bool) (res *Value, err error) {
	if res, err = eval.backend.Rescale(a); err != nil {
		return nil, err
	}
	eval.record(StepRescale, op, automatic, res, fmt.Sprintf("divided by q=%d", eval.params.Chain().Modulus(a.Level()).Value), a)
	return
}

// ModSwitchTo drops a to the given level without changing its scale.
// Returns a itself if it already is at that level.
func (eval *Evaluator) ModSwitchTo(a *Value, level int) (res *Value, err error) {

	if a == nil {
		return nil, fmt.Errorf("cannot ModSwitchTo: %w: nil value", ErrInvalidOperand)
	}

	if res, err = eval.modSwitchTo("ModSwitchTo", a, level, false); err != nil {
		return nil, fmt.Errorf("cannot ModSwitchTo: %w", err)
	}

	return
}

func (eval *Evaluator) modSwitchTo(op string, a *Value, level int, automatic bool) (res *Value, err error) {

	if a.Level() == level {
		return a, nil
	}

	if res, err = eval.backend.ModSwitchTo(a, level); err != nil {
		return nil, err
	}

	eval.record(StepModSwitch, op, automatic, res, fmt.Sprintf("level %d -> %d", a.Level(), level), a)

	return
}

// NormalizeScale relabels the scale of v to target. The decoded message is
// multiplied by v.Scale / target. Returns an error wrapping [ErrScaleMismatch]
// if the relative drift between both scales exceeds Config.MaxScaleDrift.
// The step is recorded in the trace and logged as a warning.
func (eval *Evaluator) NormalizeScale(v *Value, target scale.Scale) (res *Value, err error) {

	if v == nil {
		return nil, fmt.Errorf("cannot NormalizeScale: %w: nil value", ErrInvalidOperand)
	}

	if err = CheckScale(target); err != nil {
		return nil, fmt.Errorf("cannot NormalizeScale: %w", err)
	}

	if res, err = eval.normalizeScale("NormalizeScale", v, target, false); err != nil {
		return nil, fmt.Errorf("cannot NormalizeScale: %w", err)
	}

	return
}

// ScaleForTarget returns the scale p such that rescaling the product of v by
// a plaintext of scale p gives a value of scale exactly target:
// p = target * q / v.Scale, where q is the prime of the level of v.
func (eval *Evaluator) ScaleForTarget(v *Value, target scale.Scale) (p scale.Scale, err error) {

	if v == nil {
		return p, fmt.Errorf("cannot ScaleForTarget: %w: nil value", ErrInvalidOperand)
	}

	if err = CheckScale(target); err != nil {
		return p, fmt.Errorf("cannot ScaleForTarget: target: %w", err)
	}

	if err = CheckScale(v.Scale()); err != nil {
		return p, fmt.Errorf("cannot ScaleForTarget: %w", err)
	}

	if v.Level() >= eval.params.MaxLevel() {
		return p, fmt.Errorf("cannot ScaleForTarget: %w: level %d is the last level", ErrLevelExhausted, v.Level())
	}

	q := eval.params.Chain().Modulus(v.Level()).Scale()

	return target.Mul(q).Div(v.Scale()), nil
}

// LevelBudget returns the number of rescales v can still undergo.
// It panics if v is nil.
func (eval *Evaluator) LevelBudget(v *Value) int {
	return eval.params.LevelBudget(v.Level())
}

// State is the position of a ciphertext in the life cycle
// Fresh -> Degree2 -> Degree1 -> Fresh at the next level -> ... -> LevelExhausted.
type State int

const (
	// StateFresh is a ciphertext whose scale is close to the nominal scale.
	StateFresh = State(iota)
	// StateDegree2 is the product of two ciphertexts, not yet relinearized.
	StateDegree2
	// StateDegree1 is a relinearized product waiting for its rescale.
	StateDegree1
	// StateLevelExhausted is a ciphertext at the last level: it can only be added or decrypted.
	StateLevelExhausted
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "Fresh"
	case StateDegree2:
		return "Degree2"
	case StateDegree1:
		return "Degree1"
	case StateLevelExhausted:
		return "LevelExhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// State returns the state of v in the life cycle of a ciphertext.
// It panics if v is nil.
func (eval *Evaluator) State(v *Value) State {
	switch {
	case v.Degree() == 2:
		return StateDegree2
	case v.Level() >= eval.params.MaxLevel():
		return StateLevelExhausted
	case eval.rescaleHelps(v, eval.params.NominalScale()):
		return StateDegree1
	default:
		return StateFresh
	}
}

// constant returns c broadcast to the slots if it has a single value.
func constant(c []float64, slots int) []float64 {
	if len(c) == 1 {
		return utils.Broadcast(c[0], slots)
	}
	return c
}
