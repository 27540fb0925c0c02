package gp

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/core/model"
	"github.com/YuminosukeSato/scigp/dataset"
	"github.com/YuminosukeSato/scigp/metrics"
	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// GaussianProcessRegressor is a scikit-learn style wrapper around Fit and
// FittedModel for callers working with gonum matrices.
type GaussianProcessRegressor struct {
	state *model.StateManager // 学習状態の管理

	cfg    Config
	fitted *FittedModel
}

var (
	_ model.Regressor       = (*GaussianProcessRegressor)(nil)
	_ model.ParameterGetter = (*GaussianProcessRegressor)(nil)
)

// NewGaussianProcessRegressor は新しいGaussianProcessRegressorを作成
func NewGaussianProcessRegressor(opts ...Option) (*GaussianProcessRegressor, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &GaussianProcessRegressor{state: model.NewStateManager(), cfg: cfg}, nil
}

// Fit はモデルを訓練データで学習させる
// y は n×1 の列ベクトル
func (r *GaussianProcessRegressor) Fit(X, y mat.Matrix) error {
	return r.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation.
// A failed refit leaves the regressor unfitted.
func (r *GaussianProcessRegressor) FitContext(ctx context.Context, X, y mat.Matrix) error {
	r.state.Reset()
	r.fitted = nil

	rows, _ := X.Dims()
	ry, cy := y.Dims()
	if ry != rows {
		return errors.NewDimensionError("GaussianProcessRegressor.Fit", rows, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("GaussianProcessRegressor.Fit", "y must be a column vector")
	}

	data, err := dataset.New(X, mat.NewVecDense(ry, mat.Col(nil, 0, y)))
	if err != nil {
		return err
	}
	fitted, err := FitConfig(ctx, data, r.cfg)
	if err != nil {
		return err
	}

	r.fitted = fitted
	n, d := data.Dims()
	r.state.SetDimensions(d, n)
	r.state.SetFitted()
	return nil
}

// Predict は予測平均を n×1 行列で返す
func (r *GaussianProcessRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	mean, _, err := r.PredictWithVariance(X)
	if err != nil {
		return nil, err
	}
	n := mean.Len()
	return mat.NewDense(n, 1, mean.RawVector().Data), nil
}

// PredictWithVariance returns the predictive mean and the noise-inclusive
// predictive variance of each row of X.
func (r *GaussianProcessRegressor) PredictWithVariance(X mat.Matrix) (mean, variance *mat.VecDense, err error) {
	if err := r.state.RequireFitted(modelName, "Predict"); err != nil {
		return nil, nil, err
	}
	rows, cols := X.Dims()
	if err := r.state.RequireFeatures("GaussianProcessRegressor.Predict", cols); err != nil {
		return nil, nil, err
	}

	queries := make([][]float64, rows)
	for i := range queries {
		queries[i] = mat.Row(nil, i, X)
	}
	preds, err := r.fitted.PredictBatch(context.Background(), queries)
	if err != nil {
		return nil, nil, err
	}
	mean = mat.NewVecDense(rows, nil)
	variance = mat.NewVecDense(rows, nil)
	for i, p := range preds {
		mean.SetVec(i, p.Mean)
		variance.SetVec(i, p.Variance)
	}
	return mean, variance, nil
}

// Score はモデルの決定係数（R²）を計算
func (r *GaussianProcessRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	ry, _ := y.Dims()
	return metrics.R2Score(
		mat.NewVecDense(ry, mat.Col(nil, 0, y)),
		mat.NewVecDense(ry, mat.Col(nil, 0, pred)),
	)
}

// IsFitted reports whether Fit has succeeded.
func (r *GaussianProcessRegressor) IsFitted() bool {
	return r.state.IsFitted()
}

// Model returns the underlying fitted model, or nil before Fit.
func (r *GaussianProcessRegressor) Model() *FittedModel {
	return r.fitted
}

// GetParams returns the model's hyperparameters (scikit-learn compatible)
func (r *GaussianProcessRegressor) GetParams() map[string]interface{} {
	params := map[string]interface{}{
		"kernel":      r.cfg.Kernel.String(),
		"anisotropic": r.cfg.Anisotropic,
		"prior":       r.cfg.Prior.Kind.String(),
		"fit_kernel":  r.cfg.FitKernel,
		"fit_prior":   r.cfg.FitPrior,
		"fit_noise":   r.cfg.FitNoise,
		"n_restarts":  r.cfg.Restarts,
		"max_iter":    r.cfg.MaxIter,
		"tol":         r.cfg.Tolerance,
		"max_time":    r.cfg.MaxTime.String(),
		"seed":        r.cfg.Seed,
		"method":      r.cfg.Method.String(),
		"projection":  r.cfg.Projection,
		"standardize": r.cfg.Standardize,
		"unit_range":  r.cfg.UnitRange,
		"n_jobs":      r.cfg.NJobs,
		"fitted":      r.state.IsFitted(),
	}
	if r.fitted != nil {
		params["lengthscales"] = r.fitted.kernel.Lengthscales
		params["amplitude"] = r.fitted.kernel.Amplitude
		params["noise_variance"] = r.fitted.noise
	}
	return params
}

func (r *GaussianProcessRegressor) String() string {
	if r.fitted == nil {
		return fmt.Sprintf("GaussianProcessRegressor(kernel=%s, fitted=false)", r.cfg.Kernel)
	}
	return fmt.Sprintf("GaussianProcessRegressor(kernel=%s, noise=%g)", r.fitted.kernel, r.fitted.noise)
}
