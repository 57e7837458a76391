package align

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/optimize"
)

const (
	// DefaultEvaluations caps the objective calls of the evolutionary search.
	DefaultEvaluations = 3000
	evolveStep         = 0.2
)

// Evolve searches the slope and offset of a linear scan time to size map with
// CMA-ES, scoring each candidate by its matching similarity. A fixed seed
// keeps runs reproducible.
type Evolve struct {
	Evaluations int
	Seed        uint64
}

// Name implements the Strategy interface.
func (Evolve) Name() string { return "evolve" }

// Accepts implements the Strategy interface.
func (Evolve) Accepts(score float64) bool { return score >= 0.75 }

// Align implements the Strategy interface.
func (e Evolve) Align(in *Input) Result {
	evals := e.Evaluations
	if evals <= 0 {
		evals = DefaultEvaluations
	}
	rt, sizes := in.rtimes(), in.Ladder.Sizes
	n, m := len(rt), len(sizes)
	if n < minPairs || m < minPairs || rt[n-1] <= rt[0] {
		return Result{Status: Failed, Message: fmt.Sprintf("only %d peaks for %d sizes", n, m)}
	}
	tol := in.tolerance()

	// x[0] scales and x[1] shifts the end to end map, both in units of the size range.
	r0, rSpan := rt[0], rt[n-1]-rt[0]
	s0, sSpan := sizes[0], sizes[m-1]-sizes[0]
	mapping := func(x []float64) func(float64) float64 {
		return func(r float64) float64 {
			return s0 + sSpan*(x[0]*(r-r0)/rSpan+x[1])
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			_, s := match(rt, sizes, mapping(x), tol)
			return -s
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: evals,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-3, Iterations: 40},
	}
	method := &optimize.CmaEsChol{
		InitStepSize: evolveStep,
		Src:          rand.NewPCG(e.Seed, e.Seed^0x9e3779b97f4a7c15),
	}
	start := []float64{1, 0}
	res, err := optimize.Minimize(problem, start, settings, method)
	if res == nil {
		return Result{Status: Failed, Message: fmt.Sprintf("search failed: %v", err)}
	}

	// The search samples around its start without scoring it, so the start competes too.
	var best fitted
	found := false
	for _, x := range [][]float64{res.X, start} {
		fit, ferr := refine(rt, sizes, mapping(x), tol)
		if ferr != nil {
			continue
		}
		if !found || better(fit, best) {
			best, found = fit, true
		}
	}
	if !found {
		return Result{Status: Failed, Message: "search found no usable map"}
	}
	return finish(in, best, fmt.Sprintf("%d evaluations", res.Stats.FuncEvaluations))
}
