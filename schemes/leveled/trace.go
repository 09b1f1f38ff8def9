package leveled

import (
	"context"
	"fmt"
	"log/slog"
)

// StepKind is the primitive issued by a [Step].
type StepKind int

const (
	StepEncode = StepKind(iota)
	StepEncrypt
	StepDecrypt
	StepAdd
	StepMultiply
	StepSquare
	StepRelinearize
	StepRescale
	StepModSwitch
	StepNormalizeScale
)

var stepKindNames = [...]string{
	StepEncode:         "Encode",
	StepEncrypt:        "Encrypt",
	StepDecrypt:        "Decrypt",
	StepAdd:            "Add",
	StepMultiply:       "Multiply",
	StepSquare:         "Square",
	StepRelinearize:    "Relinearize",
	StepRescale:        "Rescale",
	StepModSwitch:      "ModSwitch",
	StepNormalizeScale: "NormalizeScale",
}

func (k StepKind) String() string {
	if k < 0 || int(k) >= len(stepKindNames) {
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
	return stepKindNames[k]
}

// Step is a primitive issued by the [Evaluator] to its [Backend].
type Step struct {
	Kind StepKind

	// Operation is the evaluator method that issued the step.
	Operation string

	// Automatic is true if the step was inserted by the scheduler
	// rather than requested by the caller.
	Automatic bool

	Input  []string
	Output string

	// Level and LogScale are those of the output.
	Level    int
	LogScale float64

	Detail string
}

func (s Step) String() string {
	str := fmt.Sprintf("%-14s %-12s %v -> %s", s.Kind, s.Operation, s.Input, s.Output)
	if s.Automatic {
		str += " (auto)"
	}
	if s.Detail != "" {
		str += ": " + s.Detail
	}
	return str
}

// Kinds returns the kinds of the steps.
func Kinds(steps []Step) (kinds []StepKind) {
	kinds = make([]StepKind, len(steps))
	for i := range steps {
		kinds[i] = steps[i].Kind
	}
	return
}

func (eval *Evaluator) record(kind StepKind, op string, automatic bool, out *Value, detail string, in ...*Value) {

	step := Step{
		Kind:      kind,
		Operation: op,
		Automatic: automatic,
		Input:     make([]string, len(in)),
		Output:    out.String(),
		Level:     out.Level(),
		LogScale:  out.LogScale(),
		Detail:    detail,
	}

	for i := range in {
		step.Input[i] = in[i].String()
	}

	eval.trace = append(eval.trace, step)

	level := slog.LevelDebug
	if kind == StepNormalizeScale {
		level = slog.LevelWarn
	}

	eval.cfg.Logger.LogAttrs(context.Background(), level, kind.String(),
		slog.String("operation", op),
		slog.Bool("automatic", automatic),
		slog.Int("level", step.Level),
		slog.Float64("log_scale", step.LogScale),
		slog.String("detail", detail))
}

// Trace returns a copy of the steps issued since the creation of the
// evaluator or the last call to ResetTrace.
func (eval *Evaluator) Trace() []Step {
	steps := make([]Step, len(eval.trace))
	copy(steps, eval.trace)
	return steps
}

// ResetTrace clears the trace.
func (eval *Evaluator) ResetTrace() {
	eval.trace = eval.trace[:0]
}
