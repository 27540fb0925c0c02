// Package prior implements the mean functions of the Gaussian process and
// their generalized least squares fit against a factored covariance.
package prior

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/linalg"
	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// Kind selects the mean function family.
type Kind int

const (
	// Constant is m(x) = b.
	Constant Kind = iota
	// Linear is m(x) = b + wᵗx.
	Linear
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Linear:
		return "linear"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses "constant" or "linear".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "constant", "const":
		return Constant, nil
	case "linear":
		return Linear, nil
	}
	return 0, errors.NewValidationError("prior", "unknown prior kind", s)
}

// Prior is a parametric mean function. Weights is used by Linear only; a nil
// Weights slice on a Linear prior means all-zero weights.
type Prior struct {
	Kind    Kind
	Bias    float64
	Weights []float64
}

// NewConstant returns the constant prior m(x) = bias.
func NewConstant(bias float64) Prior {
	return Prior{Kind: Constant, Bias: bias}
}

// NewLinear returns the linear prior m(x) = bias + weightsᵗx.
func NewLinear(bias float64, weights []float64) Prior {
	w := make([]float64, len(weights))
	copy(w, weights)
	return Prior{Kind: Linear, Bias: bias, Weights: w}
}

// Validate checks the prior against an input dimensionality.
func (p Prior) Validate(dim int) error {
	switch p.Kind {
	case Constant:
	case Linear:
		if p.Weights != nil && len(p.Weights) != dim {
			return errors.NewValidationError("prior.weights",
				fmt.Sprintf("need %d values", dim), len(p.Weights))
		}
	default:
		return errors.NewValidationError("prior", "unknown prior kind", int(p.Kind))
	}
	for _, v := range p.Coefficients() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationError("prior", "coefficients must be finite", v)
		}
	}
	return nil
}

// NumCoefficients is the number of design matrix columns for inputs of
// dimension dim.
func (p Prior) NumCoefficients(dim int) int {
	if p.Kind == Linear {
		return dim + 1
	}
	return 1
}

// DesignRow writes the design matrix row for x, [1] or [1, x_1..x_D], into
// dst and returns it.
func (p Prior) DesignRow(x, dst []float64) []float64 {
	n := p.NumCoefficients(len(x))
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	dst[0] = 1
	if p.Kind == Linear {
		copy(dst[1:], x)
	}
	return dst
}

// Design builds the N×m design matrix F for the given rows.
func (p Prior) Design(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	m := p.NumCoefficients(len(rows[0]))
	F := mat.NewDense(len(rows), m, nil)
	buf := make([]float64, m)
	for i, row := range rows {
		F.SetRow(i, p.DesignRow(row, buf))
	}
	return F
}

// Mean evaluates m(x).
func (p Prior) Mean(x []float64) float64 {
	m := p.Bias
	if p.Kind == Linear && p.Weights != nil {
		for d, w := range p.Weights {
			m += w * x[d]
		}
	}
	return m
}

// Coefficients returns [b] or [b, w_1..w_D].
func (p Prior) Coefficients() []float64 {
	c := []float64{p.Bias}
	if p.Kind == Linear {
		c = append(c, p.Weights...)
	}
	return c
}

// WithCoefficients returns a copy of p with coefficients laid out as in
// Coefficients.
func (p Prior) WithCoefficients(beta []float64) Prior {
	q := Prior{Kind: p.Kind, Bias: beta[0]}
	if p.Kind == Linear {
		q.Weights = append([]float64(nil), beta[1:]...)
	}
	return q
}

// Residuals returns y − m(x_i) for every row.
func (p Prior) Residuals(rows [][]float64, y []float64) []float64 {
	r := make([]float64, len(y))
	for i, row := range rows {
		r[i] = y[i] - p.Mean(row)
	}
	return r
}

// FitGLS returns β = (FᵗΣ⁻¹F)⁻¹FᵗΣ⁻¹y. With Σ = LLᵗ it forms W = L⁻¹F and
// z = L⁻¹y and solves the m×m normal equations (WᵗW)β = Wᵗz by Cholesky.
func FitGLS(factor *linalg.Factor, F *mat.Dense, y mat.Vector) ([]float64, error) {
	n, m := F.Dims()
	if y.Len() != n {
		return nil, errors.NewDimensionError("prior.FitGLS", n, y.Len(), 0)
	}
	if n < m {
		return nil, errors.NewModelError("prior.FitGLS",
			fmt.Sprintf("%d rows cannot determine %d coefficients", n, m), errors.ErrSingularMatrix)
	}

	var W mat.Dense
	factor.SolveLower(&W, F)
	var z mat.VecDense
	factor.SolveLowerVec(&z, y)

	A := mat.NewSymDense(m, nil)
	A.SymOuterK(1, W.T())
	var c mat.VecDense
	c.MulVec(W.T(), &z)

	var chol mat.Cholesky
	if !chol.Factorize(A) {
		return nil, errors.NewModelError("prior.FitGLS", "singular design", errors.ErrSingularMatrix)
	}
	beta := mat.NewVecDense(m, nil)
	if err := chol.SolveVecTo(beta, &c); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, errors.Wrap(err, "prior.FitGLS")
		}
	}
	return beta.RawVector().Data, nil
}
