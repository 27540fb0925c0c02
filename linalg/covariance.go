// Package linalg builds Gaussian process covariance matrices and factorizes
// them.
//
// Σ = K(X,X) + σ_n²I is held in a caller-owned *mat.SymDense so a restart can
// reuse one buffer across evaluations. Factorization is Cholesky with
// diagonal jitter growth. All solves go through triangular substitution
// against the factor. Factorization is O(N³) and each solve O(N²); training
// sets beyond a few thousand rows need sparse or low-rank approximations,
// which this package does not provide.
package linalg

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/core/parallel"
	"github.com/YuminosukeSato/scigp/kernel"
	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// parallelThreshold is the row count below which covariance assembly stays
// on the calling goroutine.
const parallelThreshold = 256

// Rows copies the rows of X into freshly allocated slices.
func Rows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	backing := make([]float64, r*c)
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = backing[i*c : (i+1)*c : (i+1)*c]
		mat.Row(rows[i], i, X)
	}
	return rows
}

// Covariance fills dst with K(X,X) + noise·I. dst is resized when empty and
// must be N×N otherwise.
func Covariance(dst *mat.SymDense, X mat.Matrix, k kernel.Kernel, noise float64) {
	CovarianceRows(dst, Rows(X), k, noise)
}

// CovarianceRows is Covariance over pre-extracted rows.
func CovarianceRows(dst *mat.SymDense, rows [][]float64, k kernel.Kernel, noise float64) {
	n := len(rows)
	if dst.IsEmpty() {
		dst.ReuseAsSym(n)
	} else if dst.SymmetricDim() != n {
		panic(mat.ErrShape)
	}
	diag := k.Variance() + noise
	fill := func(start, end int) {
		for i := start; i < end; i++ {
			dst.SetSym(i, i, diag)
			for j := i + 1; j < n; j++ {
				dst.SetSym(i, j, k.Covariance(rows[i], rows[j]))
			}
		}
	}
	parallel.ParallelizeWithThreshold(n, parallelThreshold, fill)
}

// CrossCovariance writes k* = [k(x, x_i)] over the rows of X into dst and
// returns it. dst is grown when too short.
func CrossCovariance(dst []float64, X mat.Matrix, x []float64, k kernel.Kernel) []float64 {
	return CrossCovarianceRows(dst, Rows(X), x, k)
}

// CrossCovarianceRows is CrossCovariance over pre-extracted rows.
func CrossCovarianceRows(dst []float64, rows [][]float64, x []float64, k kernel.Kernel) []float64 {
	if cap(dst) < len(rows) {
		dst = make([]float64, len(rows))
	}
	dst = dst[:len(rows)]
	for i, row := range rows {
		dst[i] = k.Covariance(x, row)
	}
	return dst
}

// CheckRows verifies that every row has dim entries.
func CheckRows(op string, rows [][]float64, dim int) error {
	for i, row := range rows {
		if len(row) != dim {
			return errors.NewRowDimensionError(op, i, dim, len(row))
		}
	}
	return nil
}
