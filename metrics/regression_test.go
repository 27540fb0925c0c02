package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// residual cases shared by the point metrics; want holds MSE, MAE and R².
var pointCases = []struct {
	name  string
	yTrue []float64
	yPred []float64
	mse   float64
	mae   float64
	r2    float64
}{
	{
		name:  "exact interpolation",
		yTrue: []float64{0.2, -1.1, 3.5, 0.7},
		yPred: []float64{0.2, -1.1, 3.5, 0.7},
		mse:   0,
		mae:   0,
		r2:    1,
	},
	{
		name:  "symmetric residuals",
		yTrue: []float64{1, 2, 3, 4},
		yPred: []float64{1.5, 2.5, 2.5, 3.5},
		mse:   0.25,
		mae:   0.5,
		r2:    0.8, // 1 - 1/5
	},
	{
		name:  "one outlier",
		yTrue: []float64{10, 20, 30},
		yPred: []float64{12, 18, 33},
		mse:   17.0 / 3, // (4 + 4 + 9) / 3
		mae:   7.0 / 3,
		r2:    1 - 17.0/200,
	},
	{
		name:  "constant prediction at the mean",
		yTrue: []float64{-1, 0, 1},
		yPred: []float64{0, 0, 0},
		mse:   2.0 / 3,
		mae:   2.0 / 3,
		r2:    0,
	},
}

func TestPointMetrics(t *testing.T) {
	const tol = 1e-12
	for _, tt := range pointCases {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			yPred := mat.NewVecDense(len(tt.yPred), tt.yPred)

			mse, err := MSE(yTrue, yPred)
			if err != nil {
				t.Fatalf("MSE: %v", err)
			}
			if math.Abs(mse-tt.mse) > tol {
				t.Errorf("MSE = %v, want %v", mse, tt.mse)
			}

			rmse, err := RMSE(yTrue, yPred)
			if err != nil {
				t.Fatalf("RMSE: %v", err)
			}
			if math.Abs(rmse-math.Sqrt(tt.mse)) > tol {
				t.Errorf("RMSE = %v, want %v", rmse, math.Sqrt(tt.mse))
			}

			mae, err := MAE(yTrue, yPred)
			if err != nil {
				t.Fatalf("MAE: %v", err)
			}
			if math.Abs(mae-tt.mae) > tol {
				t.Errorf("MAE = %v, want %v", mae, tt.mae)
			}
			if mae > rmse+tol {
				t.Errorf("MAE %v exceeds RMSE %v", mae, rmse)
			}

			r2, err := R2Score(yTrue, yPred)
			if err != nil {
				t.Fatalf("R2Score: %v", err)
			}
			if math.Abs(r2-tt.r2) > tol {
				t.Errorf("R2Score = %v, want %v", r2, tt.r2)
			}
		})
	}
}

func TestPointMetricsRejectBadInput(t *testing.T) {
	metrics := map[string]func(yTrue, yPred mat.Vector) (float64, error){
		"MSE":     MSE,
		"RMSE":    RMSE,
		"MAE":     MAE,
		"R2Score": R2Score,
	}
	short := mat.NewVecDense(2, []float64{1, 2})
	long := mat.NewVecDense(3, []float64{1, 2, 3})

	for name, fn := range metrics {
		t.Run(name, func(t *testing.T) {
			_, err := fn(long, short)
			var dimErr *errors.DimensionError
			if !errors.As(err, &dimErr) {
				t.Errorf("length mismatch: got %v, want DimensionError", err)
			}
			if _, err := fn(&mat.VecDense{}, &mat.VecDense{}); err == nil {
				t.Error("empty vectors: expected error")
			}
		})
	}
}

func TestR2ScoreConstantTargets(t *testing.T) {
	y := mat.NewVecDense(3, []float64{2, 2, 2})
	if _, err := R2Score(y, mat.NewVecDense(3, []float64{2, 2, 2.1})); err == nil {
		t.Error("expected error when the targets have no variance")
	}
}
