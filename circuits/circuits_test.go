package circuits_test

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spgrammatakis/sealDemo/backend/sim"
	"github.com/spgrammatakis/sealDemo/circuits"
	"github.com/spgrammatakis/sealDemo/core/params"
	"github.com/spgrammatakis/sealDemo/schemes/leveled"
	"github.com/spgrammatakis/sealDemo/utils/sampling"
)

var flagParamString = flag.String("params", "", "specify the test cryptographic parameters as a JSON string.")

// 2^{-20}
var testPrecision = math.Exp2(-20)

func GetTestName(params params.Parameters, opname string) string {
	return fmt.Sprintf("%s/LogN=%d/Levels=%d/LogScale=%d",
		opname,
		params.LogN(),
		params.MaxLevel()+1,
		params.LogDefaultScale())
}

type testContext struct {
	params  params.Parameters
	backend *sim.Backend
	eval    *leveled.Evaluator
}

func newTestContext(t *testing.T, pl params.ParametersLiteral) *testContext {

	if *flagParamString != "" {
		pl = params.ParametersLiteral{}
		require.NoError(t, json.Unmarshal([]byte(*flagParamString), &pl))
	}

	p, err := params.NewParametersFromLiteral(pl)
	require.NoError(t, err)

	backend, err := sim.NewBackend(p, []byte(t.Name()))
	require.NoError(t, err)

	return &testContext{
		params:  p,
		backend: backend,
		eval:    leveled.NewEvaluator(backend, leveled.Config{}),
	}
}

func (tc *testContext) encrypt(t *testing.T, values []float64) *leveled.Value {
	pt, err := tc.eval.Encode(values, tc.params.NominalScale())
	require.NoError(t, err)
	ct, err := tc.eval.Encrypt(pt)
	require.NoError(t, err)
	return ct
}

func (tc *testContext) verify(t *testing.T, want []float64, v *leveled.Value) {
	have, err := tc.eval.Decode(v)
	require.NoError(t, err)
	prec, err := leveled.GetPrecisionStats(want, have)
	require.NoError(t, err)
	require.LessOrEqual(t, prec.MaxAbsErr, testPrecision, prec.String())
}

// horner evaluates the polynomial in the clear.
func horner(coeffs []float64, x []float64) (y []float64) {
	y = make([]float64, len(x))
	for i := range x {
		for j := len(coeffs) - 1; j >= 0; j-- {
			y[i] = y[i]*x[i] + coeffs[j]
		}
	}
	return
}

func count(trace []leveled.Step, kind leveled.StepKind) (n int) {
	for _, step := range trace {
		if step.Kind == kind {
			n++
		}
	}
	return
}

func TestSplitDegree(t *testing.T) {
	for n := 2; n < 64; n++ {
		a, b := circuits.SplitDegree(n)
		require.Equal(t, n, a+b)
		require.LessOrEqual(t, circuits.PolynomialDepth(max(a, b))-1, circuits.PolynomialDepth(n)-2, "n=%d", n)
	}
}

func TestPolynomialDepth(t *testing.T) {
	for _, tc := range []struct{ degree, depth int }{
		{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 3}, {5, 4}, {8, 4}, {9, 5},
	} {
		require.Equal(t, tc.depth, circuits.PolynomialDepth(tc.degree), "degree=%d", tc.degree)
	}
	require.Equal(t, 2, circuits.Degree([]float64{1, 0, 3, 0}))
	require.Equal(t, -1, circuits.Degree([]float64{0, 0}))
}

func TestLinSpace(t *testing.T) {
	x := circuits.LinSpace(0, 1, 4)
	require.Equal(t, []float64{0, 0.25, 0.5, 0.75}, x)
	require.Empty(t, circuits.LinSpace(0, 1, 0))
}

func TestEvaluatePolynomial(t *testing.T) {

	tc := newTestContext(t, params.ExampleParametersDepth4)
	p := tc.params

	prng, err := sampling.NewKeyedPRNG([]byte("coefficients"))
	require.NoError(t, err)

	x := make([]float64, p.MaxSlots())
	for i := range x {
		x[i] = sampling.RandFloat64(prng, -1, 1)
	}

	ct := tc.encrypt(t, x)

	for degree := 1; degree <= 1<<(p.MaxLevel()-1); degree++ {

		t.Run(GetTestName(p, fmt.Sprintf("Degree=%d", degree)), func(t *testing.T) {

			coeffs := make([]float64, degree+1)
			for i := range coeffs {
				coeffs[i] = sampling.RandFloat64(prng, -1, 1)
			}

			tc.eval.ResetTrace()

			res, err := circuits.EvaluatePolynomial(tc.eval, ct, coeffs)
			require.NoError(t, err)

			require.Equal(t, circuits.PolynomialDepth(degree), res.Level())
			require.True(t, res.Scale().InDelta(p.NominalScale(), leveled.DefaultScaleTolerance))
			require.Zero(t, count(tc.eval.Trace(), leveled.StepNormalizeScale))

			tc.verify(t, horner(coeffs, x), res)
		})
	}

	t.Run(GetTestName(p, "SparseCoefficients"), func(t *testing.T) {
		coeffs := []float64{0, 0, 0.5, 0, 0, 0.25}
		res, err := circuits.EvaluatePolynomial(tc.eval, ct, coeffs)
		require.NoError(t, err)
		tc.verify(t, horner(coeffs, x), res)
	})

	t.Run(GetTestName(p, "InvalidPolynomial"), func(t *testing.T) {
		_, err := circuits.EvaluatePolynomial(tc.eval, ct, []float64{1, 0})
		require.True(t, errors.Is(err, circuits.ErrInvalidPolynomial))
	})

	t.Run(GetTestName(p, "LevelExhausted"), func(t *testing.T) {

		low, err := tc.eval.ModSwitchTo(ct, 1)
		require.NoError(t, err)

		tc.eval.ResetTrace()

		coeffs := make([]float64, 1<<(p.MaxLevel()-1)+1)
		coeffs[len(coeffs)-1] = 1

		_, err = circuits.EvaluatePolynomial(tc.eval, low, coeffs)
		require.True(t, errors.Is(err, leveled.ErrLevelExhausted))

		// Nothing is evaluated.
		require.Empty(t, tc.eval.Trace())
	})
}

// TestPolynomialSEALBasics evaluates 5x^2 + 3.2x + 2 on x in [0, 1) with the
// {60, 40, 40, 60} chain and the scale 2^{40}.
func TestPolynomialSEALBasics(t *testing.T) {

	tc := newTestContext(t, params.ExampleParametersSEALBasics)
	p := tc.params

	coeffs := []float64{2.0, 3.2, 5.0}
	x := circuits.LinSpace(0, 1, p.MaxSlots())

	tc.eval.ResetTrace()

	res, err := circuits.EvaluatePolynomial(tc.eval, tc.encrypt(t, x), coeffs)
	require.NoError(t, err)
	require.Equal(t, p.MaxLevel(), res.Level())

	trace := tc.eval.Trace()
	require.Equal(t, 1, count(trace, leveled.StepSquare))
	require.Equal(t, 3, count(trace, leveled.StepRescale))
	require.Equal(t, 0, count(trace, leveled.StepNormalizeScale))

	// The term 3.2x is one level above 5x^2 and is mod-switched down.
	var modSwitches int
	for _, step := range trace {
		if step.Kind == leveled.StepModSwitch && step.Operation == "Add" {
			require.True(t, step.Automatic)
			modSwitches++
		}
	}
	require.Equal(t, 1, modSwitches)

	tc.verify(t, horner(coeffs, x), res)
}

func TestExpression(t *testing.T) {

	x, y := circuits.Input("x"), circuits.Input("y")

	for _, c := range []struct {
		expr   *circuits.Expression
		str    string
		depth  int
		inputs []string
	}{
		{circuits.Add(x, circuits.Constant(2)), "(x + 2)", 0, []string{"x"}},
		{circuits.MulConst(y, 3.2), "(3.2 * y)", 0, []string{"y"}},
		{circuits.Rescale(circuits.Square(x)), "rescale(x^2)", 1, []string{"x"}},
		{circuits.ModSwitchTo(circuits.Mul(y, x), 2), "modswitch((y * x), 2)", 2, []string{"x", "y"}},
		{circuits.Add(circuits.Rescale(circuits.Rescale(x)), circuits.Rescale(y)), "(rescale(rescale(x)) + rescale(y))", 2, []string{"x", "y"}},
		{circuits.Constant(1, 2), "[1 2]", 0, []string{}},
	} {
		require.Equal(t, c.str, c.expr.String())
		require.Equal(t, c.depth, c.expr.Depth(), c.str)
		require.Equal(t, c.inputs, c.expr.Inputs(), c.str)
	}
}

func TestCircuit(t *testing.T) {

	tc := newTestContext(t, params.ExampleParametersSEALBasics)
	p := tc.params
	eval := tc.eval

	x := circuits.LinSpace(-1, 1, p.MaxSlots())
	y := circuits.LinSpace(1, 0, p.MaxSlots())

	inputs := map[string]*leveled.Value{"x": tc.encrypt(t, x), "y": tc.encrypt(t, y)}

	t.Run(GetTestName(p, "SharedNodes"), func(t *testing.T) {

		// (x^2 + x^2) * x^2, x^2 being evaluated once.
		sq := circuits.Rescale(circuits.Square(circuits.Input("x")))
		root := circuits.Rescale(circuits.Mul(circuits.Add(sq, sq), sq))

		eval.ResetTrace()

		res, err := circuits.Circuit{Root: root}.Evaluate(eval, inputs)
		require.NoError(t, err)
		require.Equal(t, root.Depth(), res.Level())
		require.Equal(t, 1, count(eval.Trace(), leveled.StepSquare))
		require.Equal(t, 1, count(eval.Trace(), leveled.StepMultiply))

		want := make([]float64, len(x))
		for i := range want {
			want[i] = 2 * math.Pow(x[i], 4)
		}

		tc.verify(t, want, res)
	})

	t.Run(GetTestName(p, "MultipleInputs"), func(t *testing.T) {

		// 0.5 * x * y + 1.5
		root := circuits.Add(
			circuits.Rescale(circuits.Mul(circuits.Rescale(circuits.MulConst(circuits.Input("x"), 0.5)), circuits.Input("y"))),
			circuits.Constant(1.5))

		res, err := circuits.Circuit{Root: root}.Evaluate(eval, inputs)
		require.NoError(t, err)
		require.Equal(t, 2, res.Level())

		want := make([]float64, len(x))
		for i := range want {
			want[i] = 0.5*x[i]*y[i] + 1.5
		}

		tc.verify(t, want, res)
	})

	t.Run(GetTestName(p, "UnboundInput"), func(t *testing.T) {
		res, err := circuits.Circuit{Root: circuits.Add(circuits.Input("x"), circuits.Input("z"))}.Evaluate(eval, inputs)
		require.True(t, errors.Is(err, circuits.ErrUnboundInput))
		require.Nil(t, res)
	})

	t.Run(GetTestName(p, "Constants"), func(t *testing.T) {
		_, err := circuits.Circuit{Root: circuits.Add(circuits.Constant(1), circuits.Constant(2))}.Evaluate(eval, inputs)
		require.True(t, errors.Is(err, leveled.ErrInvalidOperand))

		_, err = circuits.Circuit{}.Evaluate(eval, inputs)
		require.Error(t, err)
	})

	t.Run(GetTestName(p, "LevelExhausted"), func(t *testing.T) {
		root := circuits.Rescale(circuits.Rescale(circuits.Rescale(circuits.Input("x"))))
		_, err := circuits.Circuit{Root: root}.Evaluate(eval, inputs)
		require.True(t, errors.Is(err, leveled.ErrLevelExhausted))
	})
}

func TestBatchEvaluate(t *testing.T) {

	tc := newTestContext(t, params.ExampleParametersSEALBasics)
	p := tc.params

	x := circuits.LinSpace(0, 1, p.MaxSlots())
	ct := tc.encrypt(t, x)

	polys := [][]float64{
		{2.0, 3.2, 5.0},
		{1, -1},
		{0, 0, 1},
		{-0.5, 0.25, 0.125},
		{1, 1, 1},
	}

	t.Run(GetTestName(p, "Polynomials"), func(t *testing.T) {

		for _, workers := range []int{0, 1, 3, 16} {

			jobs := make([]circuits.Job, len(polys))
			for i := range polys {
				jobs[i] = circuits.PolynomialJob(ct, polys[i])
			}

			results, err := circuits.BatchEvaluate(tc.backend, leveled.Config{}, jobs, workers)
			require.NoError(t, err)
			require.Len(t, results, len(polys))

			for i := range polys {
				tc.verify(t, horner(polys[i], x), results[i])
			}
		}
	})

	t.Run(GetTestName(p, "Circuits"), func(t *testing.T) {

		c := circuits.Circuit{Root: circuits.Add(circuits.Rescale(circuits.MulConst(circuits.Input("x"), 2)), circuits.Constant(1))}

		jobs := []circuits.Job{
			circuits.CircuitJob(c, map[string]*leveled.Value{"x": ct}),
			circuits.PolynomialJob(ct, []float64{0, 2}),
		}

		results, err := circuits.BatchEvaluate(tc.backend, leveled.Config{}, jobs, 2)
		require.NoError(t, err)
		tc.verify(t, horner([]float64{1, 2}, x), results[0])
		tc.verify(t, horner([]float64{0, 2}, x), results[1])
	})

	t.Run(GetTestName(p, "Error"), func(t *testing.T) {

		jobs := []circuits.Job{
			circuits.PolynomialJob(ct, polys[0]),
			circuits.PolynomialJob(ct, []float64{0, 0, 0, 1}),
			circuits.PolynomialJob(ct, polys[1]),
		}

		results, err := circuits.BatchEvaluate(tc.backend, leveled.Config{}, jobs, 1)
		require.True(t, errors.Is(err, leveled.ErrLevelExhausted))
		require.Nil(t, results)
	})

	t.Run(GetTestName(p, "Empty"), func(t *testing.T) {
		results, err := circuits.BatchEvaluate(tc.backend, leveled.Config{}, nil, 4)
		require.NoError(t, err)
		require.Empty(t, results)
	})
}
