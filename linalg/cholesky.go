package linalg

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// JitterConfig controls the diagonal jitter added when Σ is not numerically
// positive definite. Initial and Max are relative to the mean diagonal of Σ.
type JitterConfig struct {
	Initial float64
	Growth  float64
	Max     float64
}

// DefaultJitter starts at 1e-10·mean(diag Σ) and grows tenfold up to 1e-4.
func DefaultJitter() JitterConfig {
	return JitterConfig{Initial: 1e-10, Growth: 10, Max: 1e-4}
}

// Validate checks the jitter schedule.
func (c JitterConfig) Validate() error {
	if !(c.Initial > 0) {
		return errors.NewValidationError("jitter.initial", "must be positive", c.Initial)
	}
	if !(c.Growth > 1) {
		return errors.NewValidationError("jitter.growth", "must be greater than 1", c.Growth)
	}
	if !(c.Max >= c.Initial) {
		return errors.NewValidationError("jitter.max", "must be at least jitter.initial", c.Max)
	}
	return nil
}

// Factor is the Cholesky factorization Σ + jitter·I = LLᵗ.
type Factor struct {
	chol   mat.Cholesky
	l      *mat.TriDense
	jitter float64
}

// Factorize computes the Cholesky factor of sigma. When sigma is not
// numerically positive definite a growing jitter is added to a copy of its
// diagonal. sigma itself is never modified.
func Factorize(sigma *mat.SymDense, cfg JitterConfig) (*Factor, error) {
	n := sigma.SymmetricDim()
	f := &Factor{}
	if f.chol.Factorize(sigma) {
		return f.finish(0), nil
	}

	var meanDiag float64
	for i := 0; i < n; i++ {
		meanDiag += sigma.At(i, i)
	}
	meanDiag /= float64(n)
	if !(meanDiag > 0) || math.IsInf(meanDiag, 0) {
		return nil, errors.NewNotPositiveDefiniteError("linalg.Factorize", n, 0, 0)
	}

	work := mat.NewSymDense(n, nil)
	attempts := 0
	last := 0.0
	for jitter := cfg.Initial * meanDiag; jitter <= cfg.Max*meanDiag; jitter *= cfg.Growth {
		attempts++
		last = jitter
		work.CopySym(sigma)
		for i := 0; i < n; i++ {
			work.SetSym(i, i, sigma.At(i, i)+jitter)
		}
		if f.chol.Factorize(work) {
			return f.finish(jitter), nil
		}
	}
	return nil, errors.NewNotPositiveDefiniteError("linalg.Factorize", n, attempts, last)
}

func (f *Factor) finish(jitter float64) *Factor {
	f.jitter = jitter
	f.l = &mat.TriDense{}
	f.chol.LTo(f.l)
	return f
}

// Size is the dimension N of the factored matrix.
func (f *Factor) Size() int {
	return f.chol.SymmetricDim()
}

// Jitter is the diagonal jitter that made the factorization succeed.
func (f *Factor) Jitter() float64 {
	return f.jitter
}

// LogDet returns log|Σ| = 2·Σ log L_ii.
func (f *Factor) LogDet() float64 {
	return f.chol.LogDet()
}

// L returns a copy of the lower triangular factor.
func (f *Factor) L() *mat.TriDense {
	l := mat.NewTriDense(f.Size(), mat.Lower, nil)
	l.Copy(f.l)
	return l
}

// SolveVec stores Σ⁻¹b into dst by forward then back substitution.
func (f *Factor) SolveVec(dst *mat.VecDense, b mat.Vector) {
	dst.CloneFromVec(b)
	raw := dst.RawVector()
	tri := f.l.RawTriangular()
	blas64.Trsv(blas.NoTrans, tri, raw)
	blas64.Trsv(blas.Trans, tri, raw)
}

// SolveLowerVec stores L⁻¹b into dst by forward substitution.
func (f *Factor) SolveLowerVec(dst *mat.VecDense, b mat.Vector) {
	dst.CloneFromVec(b)
	blas64.Trsv(blas.NoTrans, f.l.RawTriangular(), dst.RawVector())
}

// SolveLowerSlice overwrites b with L⁻¹b.
func (f *Factor) SolveLowerSlice(b []float64) {
	blas64.Trsv(blas.NoTrans, f.l.RawTriangular(), blas64.Vector{N: len(b), Data: b, Inc: 1})
}

// SolveLower stores L⁻¹B into dst.
func (f *Factor) SolveLower(dst *mat.Dense, b mat.Matrix) {
	dst.CloneFrom(b)
	blas64.Trsm(blas.Left, blas.NoTrans, 1, f.l.RawTriangular(), dst.RawMatrix())
}

// Solve stores Σ⁻¹B into dst.
func (f *Factor) Solve(dst *mat.Dense, b mat.Matrix) {
	dst.CloneFrom(b)
	tri := f.l.RawTriangular()
	raw := dst.RawMatrix()
	blas64.Trsm(blas.Left, blas.NoTrans, 1, tri, raw)
	blas64.Trsm(blas.Left, blas.Trans, 1, tri, raw)
}

// Precision stores Σ⁻¹ into dst by solving against the identity.
func (f *Factor) Precision(dst *mat.Dense) {
	n := f.Size()
	if dst.IsEmpty() {
		dst.ReuseAs(n, n)
	}
	dst.Zero()
	for i := 0; i < n; i++ {
		dst.Set(i, i, 1)
	}
	tri := f.l.RawTriangular()
	raw := dst.RawMatrix()
	blas64.Trsm(blas.Left, blas.NoTrans, 1, tri, raw)
	blas64.Trsm(blas.Left, blas.Trans, 1, tri, raw)
}

// Cond is the 2-norm condition number estimate of Σ.
func (f *Factor) Cond() float64 {
	return f.chol.Cond()
}
