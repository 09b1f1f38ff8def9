package circuits

import (
	"fmt"
	"runtime"

	"github.com/spgrammatakis/sealDemo/schemes/leveled"
	"github.com/spgrammatakis/sealDemo/utils/concurrency"
)

// Job is a computation run by [BatchEvaluate] with the evaluator of a worker.
type Job func(eval *leveled.Evaluator) (*leveled.Value, error)

// CircuitJob returns a [Job] evaluating the circuit on the inputs.
func CircuitJob(c Circuit, inputs map[string]*leveled.Value) Job {
	return func(eval *leveled.Evaluator) (*leveled.Value, error) {
		return c.Evaluate(eval, inputs)
	}
}

// PolynomialJob returns a [Job] evaluating the polynomial on x.
func PolynomialJob(x *leveled.Value, coeffs []float64) Job {
	return func(eval *leveled.Evaluator) (*leveled.Value, error) {
		return EvaluatePolynomial(eval, x, coeffs)
	}
}

// BatchEvaluate runs independent jobs on at most workers goroutines, each owning
// an evaluator over a shallow copy of the backend. If workers is not positive,
// GOMAXPROCS workers are used. The i-th result is the output of the i-th job.
//
// Inputs shared between jobs are only read. On the first error, the jobs that
// have not started are skipped and the error is returned without any result.
func BatchEvaluate(backend leveled.Backend, cfg leveled.Config, jobs []Job, workers int) ([]*leveled.Value, error) {

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	workers = max(1, min(workers, len(jobs)))

	evaluators := make([]*leveled.Evaluator, workers)
	for i := range evaluators {
		evaluators[i] = leveled.NewEvaluator(backend, cfg)
	}

	results := make([]*leveled.Value, len(jobs))

	rm := concurrency.NewResourceManager(evaluators)

	for i := range jobs {
		rm.Run(func(eval *leveled.Evaluator) (err error) {
			if results[i], err = jobs[i](eval); err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			return
		})
	}

	if err := rm.Wait(); err != nil {
		return nil, fmt.Errorf("cannot BatchEvaluate: %w", err)
	}

	return results, nil
}
