package gp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/kernel"
	"github.com/YuminosukeSato/scigp/linalg"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/prior"
)

var log2Pi = math.Log(2 * math.Pi)

// evaluation is one NLL evaluation at fixed hyperparameters.
type evaluation struct {
	kernel kernel.Kernel
	noise  float64
	prior  prior.Prior
	factor *linalg.Factor
	alpha  *mat.VecDense
	nll    float64
}

// objective evaluates the NLL and its gradient for one restart. It owns its
// covariance buffer; the rows and targets are shared read-only.
type objective struct {
	rows     [][]float64
	y        *mat.VecDense
	design   *mat.Dense
	base     kernel.Kernel
	prior    prior.Prior
	noise    float64 // used when the noise is not optimized
	fitPrior bool
	jitter   linalg.JitterConfig
	space    *space

	sigma *mat.SymDense
	prec  mat.Dense
	kgrad []float64
	logp  []float64

	last    *evaluation
	lastU   []float64
	lastErr error
	evals   int

	// lowest NLL seen at any evaluated point
	bestNLL float64
	bestU   []float64
}

func newObjective(rows [][]float64, y *mat.VecDense, st start, cfg Config, sp *space) *objective {
	n := len(rows)
	o := &objective{
		rows:     rows,
		y:        y,
		base:     st.kernel,
		prior:    st.prior,
		noise:    st.noise,
		fitPrior: cfg.FitPrior,
		jitter:   cfg.Jitter,
		space:    sp,
		sigma:    mat.NewSymDense(n, nil),
		bestNLL:  math.Inf(1),
	}
	if cfg.FitPrior {
		o.design = st.prior.Design(rows)
	}
	return o
}

// at evaluates the model at log parameters laid out as in space. A nil
// logp evaluates the start point unchanged.
func (o *objective) at(logp []float64) (*evaluation, error) {
	o.evals++
	k, noise := o.base, o.noise
	if logp != nil {
		k = o.base.WithParams(logp[:o.base.NumParams()])
		if o.space.fitNoise {
			noise = math.Exp(logp[len(logp)-1])
		}
	}
	return evaluate(o.rows, o.y, o.design, k, noise, o.prior, o.fitPrior, o.jitter, o.sigma)
}

// evaluate builds Σ into sigma, factors it, fits the prior if asked and
// returns the NLL.
func evaluate(rows [][]float64, y *mat.VecDense, design *mat.Dense, k kernel.Kernel, noise float64,
	p prior.Prior, fitPrior bool, jitter linalg.JitterConfig, sigma *mat.SymDense) (*evaluation, error) {
	linalg.CovarianceRows(sigma, rows, k, noise)
	factor, err := linalg.Factorize(sigma, jitter)
	if err != nil {
		return nil, err
	}

	if fitPrior {
		beta, err := prior.FitGLS(factor, design, y)
		if err != nil {
			return nil, err
		}
		p = p.WithCoefficients(beta)
	}

	n := len(rows)
	r := mat.NewVecDense(n, p.Residuals(rows, y.RawVector().Data))
	alpha := mat.NewVecDense(n, nil)
	factor.SolveVec(alpha, r)

	nll := 0.5*mat.Dot(r, alpha) + 0.5*factor.LogDet() + 0.5*float64(n)*log2Pi
	if err := errors.CheckScalar("gp.nll", nll, 0); err != nil {
		return nil, err
	}
	return &evaluation{kernel: k, noise: noise, prior: p, factor: factor, alpha: alpha, nll: nll}, nil
}

// logGradient writes ∂NLL/∂log p into dst:
//
//	½ Σ_ik ([Σ⁻¹]_ik − α_i α_k) ∂Σ_ik/∂log p
//
// The prior coefficients are profiled out by GLS, so they add no term.
func (o *objective) logGradient(ev *evaluation, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	ev.factor.Precision(&o.prec)
	alpha := ev.alpha.RawVector().Data
	nk := ev.kernel.NumParams()

	for i := range o.rows {
		for j := 0; j <= i; j++ {
			w := o.prec.At(i, j) - alpha[i]*alpha[j]
			if i != j {
				w *= 2
			}
			o.kgrad = ev.kernel.Gradient(o.rows[i], o.rows[j], o.kgrad)
			for p := 0; p < nk; p++ {
				dst[p] += 0.5 * w * o.kgrad[p]
			}
		}
	}
	if o.space.fitNoise {
		var tr float64
		for i := range o.rows {
			tr += o.prec.At(i, i) - alpha[i]*alpha[i]
		}
		dst[nk] = 0.5 * tr * ev.noise
	}
}

// eval caches the evaluation at u so that Func and Grad calls at the same
// point factor Σ once.
func (o *objective) eval(u []float64) (*evaluation, error) {
	if o.last != nil && floats.Equal(u, o.lastU) {
		return o.last, nil
	}
	o.logp = o.space.toLog(u, o.logp)
	ev, err := o.at(o.logp)
	if err != nil {
		o.last, o.lastU, o.lastErr = nil, nil, err
		return nil, err
	}
	o.last = ev
	o.lastU = append(o.lastU[:0], u...)
	if ev.nll < o.bestNLL {
		o.bestNLL = ev.nll
		o.bestU = append(o.bestU[:0], u...)
	}
	return ev, nil
}

// Func is the optimizer objective. Points where Σ cannot be factored score +Inf.
func (o *objective) Func(u []float64) float64 {
	ev, err := o.eval(u)
	if err != nil {
		return math.Inf(1)
	}
	return ev.nll
}

// Grad is the gradient of Func with respect to u.
func (o *objective) Grad(grad, u []float64) {
	ev, err := o.eval(u)
	if err != nil {
		for i := range grad {
			grad[i] = 0
		}
		return
	}
	o.logGradient(ev, grad)
	o.space.chain(u, grad)
}

// failure explains a restart that never reached a finite NLL.
func (o *objective) failure(restart int) error {
	if o.lastErr != nil {
		return errors.Wrapf(o.lastErr, "gp: restart %d", restart)
	}
	return errors.NewNumericalInstabilityError("gp.nll", []float64{math.Inf(1)}, restart)
}
