package circuits

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spgrammatakis/sealDemo/schemes/leveled"
	"github.com/spgrammatakis/sealDemo/utils"
)

// Op is the operation of an [Expression] node.
type Op int

const (
	OpInput = Op(iota)
	OpConstant
	OpAdd
	OpMul
	OpSquare
	OpMulConst
	OpRescale
	OpModSwitch
)

// Expression is a node of an arithmetic circuit. Nodes can be shared
// by several parents, in which case they are evaluated once.
type Expression struct {
	Op Op

	// Name is the name of an input.
	Name string

	// Values are the values of a constant or of the factor of a MulConst.
	// A single value applies to every slot.
	Values []float64

	Args []*Expression

	// Level is the target level of a mod-switch.
	Level int
}

// Input returns a reference to the input of the given name.
func Input(name string) *Expression {
	return &Expression{Op: OpInput, Name: name}
}

// Constant returns a constant. A single value applies to every slot.
func Constant(values ...float64) *Expression {
	return &Expression{Op: OpConstant, Values: values}
}

// Add returns a + b.
func Add(a, b *Expression) *Expression {
	return &Expression{Op: OpAdd, Args: []*Expression{a, b}}
}

// Mul returns a * b.
func Mul(a, b *Expression) *Expression {
	return &Expression{Op: OpMul, Args: []*Expression{a, b}}
}

// Square returns a * a.
func Square(a *Expression) *Expression {
	return &Expression{Op: OpSquare, Args: []*Expression{a}}
}

// MulConst returns c * a.
func MulConst(a *Expression, c ...float64) *Expression {
	return &Expression{Op: OpMulConst, Values: c, Args: []*Expression{a}}
}

// Rescale returns a rescaled.
func Rescale(a *Expression) *Expression {
	return &Expression{Op: OpRescale, Args: []*Expression{a}}
}

// ModSwitchTo returns a dropped to the given level.
func ModSwitchTo(a *Expression, level int) *Expression {
	return &Expression{Op: OpModSwitch, Args: []*Expression{a}, Level: level}
}

func (e *Expression) String() string {
	switch e.Op {
	case OpInput:
		return e.Name
	case OpConstant:
		return formatValues(e.Values)
	case OpAdd:
		return fmt.Sprintf("(%s + %s)", e.Args[0], e.Args[1])
	case OpMul:
		return fmt.Sprintf("(%s * %s)", e.Args[0], e.Args[1])
	case OpSquare:
		return fmt.Sprintf("%s^2", e.Args[0])
	case OpMulConst:
		return fmt.Sprintf("(%s * %s)", formatValues(e.Values), e.Args[0])
	case OpRescale:
		return fmt.Sprintf("rescale(%s)", e.Args[0])
	case OpModSwitch:
		return fmt.Sprintf("modswitch(%s, %d)", e.Args[0], e.Level)
	default:
		return fmt.Sprintf("Op(%d)", int(e.Op))
	}
}

func formatValues(values []float64) string {
	if len(values) == 1 {
		return strconv.FormatFloat(values[0], 'g', -1, 64)
	}
	s := make([]string, len(values))
	for i := range values {
		s[i] = strconv.FormatFloat(values[i], 'g', -1, 64)
	}
	return "[" + strings.Join(s, " ") + "]"
}

// Depth returns the level of the result when all the inputs are at level 0.
func (e *Expression) Depth() int {
	return e.depth(map[*Expression]int{})
}

func (e *Expression) depth(memo map[*Expression]int) (d int) {

	if d, ok := memo[e]; ok {
		return d
	}

	for _, arg := range e.Args {
		d = max(d, arg.depth(memo))
	}

	switch e.Op {
	case OpRescale:
		d++
	case OpModSwitch:
		d = max(d, e.Level)
	}

	memo[e] = d

	return
}

// Inputs returns the sorted names of the inputs of the expression.
func (e *Expression) Inputs() []string {
	names := map[string]bool{}
	e.inputs(names, map[*Expression]bool{})
	return utils.GetSortedKeys(names)
}

func (e *Expression) inputs(names map[string]bool, visited map[*Expression]bool) {
	if visited[e] {
		return
	}
	visited[e] = true
	if e.Op == OpInput {
		names[e.Name] = true
	}
	for _, arg := range e.Args {
		arg.inputs(names, visited)
	}
}

// Circuit is an arithmetic circuit given by its output node.
type Circuit struct {
	Root *Expression
}

// Evaluate evaluates the circuit bottom-up with the given evaluator and inputs.
// Constants combined with a value are encoded at the level of that value, see
// [leveled.Evaluator.AddConst] and [leveled.Evaluator.MulConst]. The evaluation
// stops at the first error and no partial result is returned.
func (c Circuit) Evaluate(eval *leveled.Evaluator, inputs map[string]*leveled.Value) (res *leveled.Value, err error) {

	if c.Root == nil {
		return nil, fmt.Errorf("cannot Evaluate: circuit has no root")
	}

	if res, err = c.Root.evaluate(eval, inputs, map[*Expression]*leveled.Value{}); err != nil {
		return nil, fmt.Errorf("cannot Evaluate: %w", err)
	}

	return
}

func (e *Expression) evaluate(eval *leveled.Evaluator, inputs map[string]*leveled.Value, memo map[*Expression]*leveled.Value) (res *leveled.Value, err error) {

	if res, ok := memo[e]; ok {
		return res, nil
	}

	switch e.Op {
	case OpInput:
		var ok bool
		if res, ok = inputs[e.Name]; !ok || res == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnboundInput, e.Name)
		}
	case OpConstant:
		p := eval.Parameters()
		res, err = eval.Encode(broadcast(e.Values, p.MaxSlots()), p.NominalScale())
	case OpAdd, OpMul:
		res, err = e.evaluateBinary(eval, inputs, memo)
	case OpSquare, OpMulConst, OpRescale, OpModSwitch:
		var a *leveled.Value
		if a, err = e.Args[0].evaluate(eval, inputs, memo); err != nil {
			return
		}
		switch e.Op {
		case OpSquare:
			res, err = eval.Square(a)
		case OpMulConst:
			res, err = eval.MulConst(a, e.Values...)
		case OpRescale:
			res, err = eval.Rescale(a)
		default:
			res, err = eval.ModSwitchTo(a, e.Level)
		}
	default:
		return nil, fmt.Errorf("invalid operation %d", int(e.Op))
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", e, err)
	}

	memo[e] = res

	return
}

// evaluateBinary folds a constant operand into an encoding at the level of the other operand.
func (e *Expression) evaluateBinary(eval *leveled.Evaluator, inputs map[string]*leveled.Value, memo map[*Expression]*leveled.Value) (res *leveled.Value, err error) {

	a, b := e.Args[0], e.Args[1]

	if a.Op == OpConstant && b.Op != OpConstant {
		a, b = b, a
	}

	var va, vb *leveled.Value
	if va, err = a.evaluate(eval, inputs, memo); err != nil {
		return
	}

	if b.Op == OpConstant && a.Op != OpConstant {
		if e.Op == OpAdd {
			return eval.AddConst(va, b.Values...)
		}
		return eval.MulConst(va, b.Values...)
	}

	if vb, err = b.evaluate(eval, inputs, memo); err != nil {
		return
	}

	if e.Op == OpAdd {
		return eval.Add(va, vb)
	}

	return eval.Multiply(va, vb)
}

func broadcast(values []float64, slots int) []float64 {
	if len(values) == 1 {
		return utils.Broadcast(values[0], slots)
	}
	return values
}
