package gp

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/scigp/core/parallel"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/pkg/log"
)

// Restart statuses that are not gonum optimize.Status values.
const (
	StatusFixed   = "Fixed"   // hyperparameters held at their initial values
	StatusSkipped = "Skipped" // time budget spent before the restart began
)

// RestartResult is the outcome of one optimizer start. Parameters are in
// log space, laid out as [log ℓ.., log σ², log σ_n²]; the noise entry is
// present only when the noise is optimized.
type RestartResult struct {
	Index       int
	Start       []float64
	Final       []float64
	NLL         float64
	Iterations  int
	Evaluations int
	Status      string
	Elapsed     time.Duration
	Err         error
}

// Usable reports whether the restart produced a finite NLL.
func (r RestartResult) Usable() bool {
	return r.Err == nil && r.Final != nil && !math.IsInf(r.NLL, 0) && !math.IsNaN(r.NLL)
}

// FitReport summarizes hyperparameter optimization.
type FitReport struct {
	Method   string
	Restarts []RestartResult
	Best     int
	Elapsed  time.Duration
	TimedOut bool
}

// optimizer runs the restarts of one fit.
type optimizer struct {
	rows   [][]float64
	y      *mat.VecDense
	st     start
	cfg    Config
	logger log.Logger
}

func (o *optimizer) run(ctx context.Context) (*evaluation, *FitReport, error) {
	began := time.Now()
	if !o.cfg.FitKernel {
		return o.fixed(began)
	}

	sp := newSpace(o.st.kernel, o.cfg.FitNoise, o.st.bounds)
	var deadline time.Time
	if o.cfg.MaxTime > 0 {
		deadline = began.Add(o.cfg.MaxTime)
	}

	results := make([]RestartResult, o.cfg.Restarts)
	errs := parallel.ForEach(ctx, o.cfg.Restarts, o.cfg.NJobs, func(ctx context.Context, i int) error {
		results[i] = o.restart(ctx, i, sp, deadline)
		return results[i].Err
	})
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "gp: fit cancelled")
	}

	report := &FitReport{Method: o.cfg.Method.String(), Restarts: results, Best: -1, Elapsed: time.Since(began)}
	var cause error
	completed := 0
	for i, r := range results {
		if r.Err == nil && errs[i] != nil {
			// recovered panic
			results[i].Err, r.Err = errs[i], errs[i]
		}
		switch r.Status {
		case StatusSkipped, optimize.RuntimeLimit.String():
			report.TimedOut = true
		default:
			completed++
		}
		if !r.Usable() {
			if cause == nil {
				cause = r.Err
			}
			continue
		}
		// ties keep the lowest index
		if report.Best < 0 || r.NLL < results[report.Best].NLL {
			report.Best = i
		}
	}
	if report.Best < 0 {
		return nil, report, errors.NewFitFailureError(o.cfg.Restarts, cause)
	}

	best := results[report.Best]
	ev, err := newObjective(o.rows, o.y, o.st, o.cfg, sp).at(best.Final)
	if err != nil {
		return nil, report, errors.NewFitFailureError(o.cfg.Restarts, err)
	}

	if report.TimedOut {
		errors.Warn(errors.NewOptimizerTimeoutWarning(o.cfg.MaxTime, report.Elapsed,
			completed, o.cfg.Restarts, ev.nll))
	}
	return ev, report, nil
}

// fixed evaluates the initial hyperparameters without optimizing them.
func (o *optimizer) fixed(began time.Time) (*evaluation, *FitReport, error) {
	sp := newSpace(o.st.kernel, false, o.st.bounds)
	obj := newObjective(o.rows, o.y, o.st, o.cfg, sp)
	ev, err := obj.at(nil)
	res := RestartResult{Start: o.st.kernel.Params(), Status: StatusFixed, Evaluations: 1, Err: err}
	report := &FitReport{Method: StatusFixed, Restarts: []RestartResult{res}, Best: -1}
	if err != nil {
		report.Elapsed = time.Since(began)
		return nil, report, errors.NewFitFailureError(1, err)
	}
	report.Restarts[0].Final = res.Start
	report.Restarts[0].NLL = ev.nll
	report.Best = 0
	report.Elapsed = time.Since(began)
	return ev, report, nil
}

// startPoint returns the log parameters restart i begins from: the
// configured initial values for restart 0, uniform draws inside the log
// bounds otherwise.
func (o *optimizer) startPoint(i int, sp *space) []float64 {
	if i == 0 {
		return sp.initial(o.st)
	}
	src := rand.New(rand.NewPCG(o.cfg.Seed, uint64(i)))
	logp := make([]float64, sp.dim())
	for j := range logp {
		if sp.lo[j] == sp.hi[j] {
			logp[j] = sp.lo[j]
			continue
		}
		logp[j] = distuv.Uniform{Min: sp.lo[j], Max: sp.hi[j], Src: src}.Rand()
	}
	return logp
}

func (o *optimizer) restart(ctx context.Context, i int, sp *space, deadline time.Time) RestartResult {
	began := time.Now()
	res := RestartResult{Index: i, Start: o.startPoint(i, sp), NLL: math.Inf(1)}
	// restart 0 always evaluates its start point
	if i > 0 && !deadline.IsZero() && !began.Before(deadline) {
		res.Status = StatusSkipped
		return res
	}

	obj := newObjective(o.rows, o.y, o.st, o.cfg, sp)
	problem := optimize.Problem{
		Func: obj.Func,
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				return optimize.RuntimeLimit, nil
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		MajorIterations: o.cfg.MaxIter,
		Converger: &optimize.FunctionConverge{
			Relative:   o.cfg.Tolerance,
			Iterations: convergeIterations(o.cfg.Method, sp.dim()),
		},
	}
	if !deadline.IsZero() {
		settings.Runtime = time.Until(deadline)
	}

	var method optimize.Method
	switch o.cfg.Method {
	case NelderMead:
		method = &optimize.NelderMead{}
	default:
		problem.Grad = obj.Grad
		method = &optimize.LBFGS{Linesearcher: &optimize.Backtracking{}}
	}

	result, err := optimize.Minimize(problem, sp.fromLog(res.Start), settings, method)
	res.Evaluations = obj.evals
	res.Elapsed = time.Since(began)
	if result == nil {
		res.Status = optimize.Failure.String()
		res.Err = errors.Wrapf(err, "gp: restart %d", i)
		return res
	}

	res.Iterations = result.MajorIterations
	res.Status = result.Status.String()
	// The optimizer only reports accepted iterates; a run cut short after
	// its first evaluation still has that point.
	nll, u := result.F, result.X
	if !(nll <= obj.bestNLL) {
		nll, u = obj.bestNLL, obj.bestU
	}
	if math.IsInf(nll, 1) || math.IsNaN(nll) {
		res.Err = obj.failure(i)
		return res
	}
	res.NLL = nll
	res.Final = sp.toLog(u, nil)

	logger := o.logger.With(log.RestartKey, i)
	if err != nil {
		// Line search failures still leave the best point found.
		logger.Debug("optimizer stopped early", err, log.StatusKey, res.Status)
	}
	if result.Status == optimize.IterationLimit {
		logger.Debug("restart reached the iteration limit",
			"warning", errors.NewConvergenceWarning(o.cfg.Method.String(), res.Iterations,
				"increase max_iter or loosen tolerance"))
	}
	logger.Debug("restart finished",
		log.NLLKey, res.NLL,
		log.IterationKey, res.Iterations,
		log.EvaluationsKey, res.Evaluations,
		log.StatusKey, res.Status,
		log.DurationMsKey, res.Elapsed.Milliseconds(),
	)
	return res
}

// convergeIterations is how many iterations without relative improvement
// end a restart. Simplex steps often leave the best vertex unchanged.
func convergeIterations(m Method, dim int) int {
	if m == NelderMead {
		return 5 * (dim + 1)
	}
	return 1
}
