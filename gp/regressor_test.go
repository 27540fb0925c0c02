package gp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/pkg/errors"
)

func TestGaussianProcessRegressor(t *testing.T) {
	n := 25
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) * 0.25
		X.Set(i, 0, x)
		y.Set(i, 0, math.Sin(x))
	}

	r, err := NewGaussianProcessRegressor(WithRestarts(2), WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Predict(X)
	var nfErr *errors.NotFittedError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFittedError before Fit, got %v", err)
	}

	if err := r.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if !r.IsFitted() || r.Model() == nil {
		t.Fatal("regressor should be fitted")
	}

	score, err := r.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if score < 0.99 {
		t.Errorf("training R² = %g, want at least 0.99", score)
	}

	mean, variance, err := r.PredictWithVariance(mat.NewDense(2, 1, []float64{1.1, 20}))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mean.AtVec(0)-math.Sin(1.1)) > 0.05 {
		t.Errorf("mean at 1.1 = %g, want about %g", mean.AtVec(0), math.Sin(1.1))
	}
	if variance.AtVec(1) <= variance.AtVec(0) {
		t.Error("variance far from the data should exceed variance inside it")
	}

	_, err = r.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("expected DimensionError, got %v", err)
	}

	params := r.GetParams()
	if params["fitted"] != true || params["kernel"] != "squared_exponential" {
		t.Errorf("params = %v", params)
	}

	// a rejected refit drops the previous model
	bad := mat.DenseCopyOf(y)
	bad.Set(3, 0, math.NaN())
	if err := r.Fit(X, bad); err == nil {
		t.Fatal("expected error for a NaN target")
	}
	if r.IsFitted() || r.Model() != nil {
		t.Error("regressor should be unfitted after a failed refit")
	}
	if _, err := r.Predict(X); !errors.As(err, &nfErr) {
		t.Errorf("expected NotFittedError after a failed refit, got %v", err)
	}
}

func TestRegressorRejectsBadTargets(t *testing.T) {
	r, err := NewGaussianProcessRegressor()
	if err != nil {
		t.Fatal(err)
	}
	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	if err := r.Fit(X, mat.NewDense(3, 2, nil)); err == nil {
		t.Error("expected an error for a two column target")
	}
	if err := r.Fit(X, mat.NewDense(2, 1, nil)); err == nil {
		t.Error("expected an error for mismatched rows")
	}

	if _, err := NewGaussianProcessRegressor(WithRestarts(0)); err == nil {
		t.Error("expected a validation error for zero restarts")
	}
}
