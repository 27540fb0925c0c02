// Package dataset holds the immutable training set a Gaussian process is fit to.
package dataset

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// TrainingSet is an N×D input matrix with N scalar targets. It copies
// everything it is built from and never changes afterwards, so it can be
// shared between goroutines without locking.
type TrainingSet struct {
	rows     [][]float64
	y        []float64
	features []string
	target   string
}

// New builds a TrainingSet from a matrix and a vector.
func New(X mat.Matrix, y mat.Vector) (*TrainingSet, error) {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return nil, errors.NewModelError("dataset.New", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError("dataset.New", n, y.Len(), 0)
	}
	rows := make([][]float64, n)
	targets := make([]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
		targets[i] = y.AtVec(i)
	}
	return build(rows, targets)
}

// FromRows builds a TrainingSet from row slices. Every row must have the
// length of the first.
func FromRows(rows [][]float64, targets []float64) (*TrainingSet, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.NewModelError("dataset.FromRows", "empty data", errors.ErrEmptyData)
	}
	if len(targets) != len(rows) {
		return nil, errors.NewDimensionError("dataset.FromRows", len(rows), len(targets), 0)
	}
	d := len(rows[0])
	cp := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != d {
			return nil, errors.NewRowDimensionError("dataset.FromRows", i, d, len(row))
		}
		cp[i] = append([]float64(nil), row...)
	}
	return build(cp, append([]float64(nil), targets...))
}

func build(rows [][]float64, y []float64) (*TrainingSet, error) {
	d := len(rows[0])
	for i, row := range rows {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.NewIngestionError("dataset", i, j,
					strconv.FormatFloat(v, 'g', -1, 64), "non-finite input", nil)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, errors.NewIngestionError("dataset", i, d,
				strconv.FormatFloat(y[i], 'g', -1, 64), "non-finite target", nil)
		}
	}
	return &TrainingSet{rows: rows, y: y}, nil
}

// WithNames returns a TrainingSet sharing t's data with column names
// attached. features must have one name per input dimension.
func (t *TrainingSet) WithNames(features []string, target string) (*TrainingSet, error) {
	if len(features) != t.Dim() {
		return nil, errors.NewDimensionError("dataset.WithNames", t.Dim(), len(features), 1)
	}
	return &TrainingSet{
		rows:     t.rows,
		y:        t.y,
		features: append([]string(nil), features...),
		target:   target,
	}, nil
}

// Dims returns N and D.
func (t *TrainingSet) Dims() (n, d int) {
	return len(t.rows), len(t.rows[0])
}

// Len is the number of observations N.
func (t *TrainingSet) Len() int { return len(t.rows) }

// Dim is the input dimensionality D.
func (t *TrainingSet) Dim() int { return len(t.rows[0]) }

// Row returns a copy of input row i.
func (t *TrainingSet) Row(i int) []float64 {
	return append([]float64(nil), t.rows[i]...)
}

// Rows returns a deep copy of all input rows.
func (t *TrainingSet) Rows() [][]float64 {
	n, d := t.Dims()
	backing := make([]float64, n*d)
	out := make([][]float64, n)
	for i, row := range t.rows {
		out[i] = backing[i*d : (i+1)*d : (i+1)*d]
		copy(out[i], row)
	}
	return out
}

// Target returns y_i.
func (t *TrainingSet) Target(i int) float64 { return t.y[i] }

// Targets returns a copy of y.
func (t *TrainingSet) Targets() []float64 {
	return append([]float64(nil), t.y...)
}

// X returns a copy of the inputs as an N×D matrix.
func (t *TrainingSet) X() *mat.Dense {
	n, d := t.Dims()
	X := mat.NewDense(n, d, nil)
	for i, row := range t.rows {
		X.SetRow(i, row)
	}
	return X
}

// Y returns a copy of the targets as a vector.
func (t *TrainingSet) Y() *mat.VecDense {
	return mat.NewVecDense(len(t.y), t.Targets())
}

// FeatureNames returns the input column names, or nil when none were set.
func (t *TrainingSet) FeatureNames() []string {
	return append([]string(nil), t.features...)
}

// TargetName returns the target column name.
func (t *TrainingSet) TargetName() string { return t.target }

// Permute returns a TrainingSet whose row i is t's row perm[i].
func (t *TrainingSet) Permute(perm []int) (*TrainingSet, error) {
	if len(perm) != t.Len() {
		return nil, errors.NewDimensionError("dataset.Permute", t.Len(), len(perm), 0)
	}
	seen := make([]bool, len(perm))
	rows := make([][]float64, len(perm))
	y := make([]float64, len(perm))
	for i, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return nil, errors.NewValidationError("perm", "not a permutation", perm)
		}
		seen[p] = true
		rows[i] = t.rows[p]
		y[i] = t.y[p]
	}
	return &TrainingSet{rows: rows, y: y, features: t.features, target: t.target}, nil
}
