package gp

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/core/model"
	"github.com/YuminosukeSato/scigp/dataset"
	"github.com/YuminosukeSato/scigp/kernel"
	"github.com/YuminosukeSato/scigp/linalg"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/pkg/log"
	"github.com/YuminosukeSato/scigp/preprocessing"
	"github.com/YuminosukeSato/scigp/prior"
)

const modelName = "GaussianProcessRegressor"

// FittedModel is a Gaussian process conditioned on a TrainingSet. It never
// changes after Fit returns and is safe for concurrent prediction.
type FittedModel struct {
	data      *dataset.TrainingSet
	transform *preprocessing.Pipeline
	features  [][]float64 // transformed training inputs

	kernel kernel.Kernel
	prior  prior.Prior
	noise  float64
	factor *linalg.Factor
	alpha  *mat.VecDense
	nll    float64

	jitter linalg.JitterConfig
	nJobs  int
	report *FitReport
	logger log.Logger
}

// Fit optimizes the hyperparameters on data and conditions the process on it.
func Fit(ctx context.Context, data *dataset.TrainingSet, opts ...Option) (*FittedModel, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return FitConfig(ctx, data, cfg)
}

// FitConfig is Fit with an explicit Config.
func FitConfig(ctx context.Context, data *dataset.TrainingSet, cfg Config) (*FittedModel, error) {
	if data == nil {
		return nil, errors.NewModelError("gp.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	began := time.Now()
	n, d := data.Dims()
	logger := cfg.logger().With(
		log.ModelNameKey, modelName,
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
	)

	transform, features, err := fitTransform(data, cfg)
	if err != nil {
		return nil, err
	}
	st, err := resolveStart(cfg, features, data.Targets())
	if err != nil {
		return nil, err
	}
	logger.Debug("starting hyperparameter search",
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.ProjectedFeaturesKey, len(features[0]),
		log.KernelKey, st.kernel.String(),
		log.PriorKey, st.prior.Kind.String(),
		log.RandomSeedKey, cfg.Seed,
	)

	opt := &optimizer{rows: features, y: data.Y(), st: st, cfg: cfg, logger: logger}
	ev, report, err := opt.run(ctx)
	if err != nil {
		logger.Error("fit failed", err, log.ErrorCodeKey, log.ErrorFitFailure)
		return nil, err
	}

	m := &FittedModel{
		data:      data,
		transform: transform,
		features:  features,
		kernel:    ev.kernel,
		prior:     ev.prior,
		noise:     ev.noise,
		factor:    ev.factor,
		alpha:     ev.alpha,
		nll:       ev.nll,
		jitter:    cfg.Jitter,
		nJobs:     cfg.NJobs,
		report:    report,
		logger:    cfg.logger().With(log.ModelNameKey, modelName),
	}
	logger.Info("gaussian process fitted",
		log.KernelKey, m.kernel.Kind.String(),
		log.LengthscaleKey, m.kernel.Lengthscales,
		log.AmplitudeKey, m.kernel.Amplitude,
		log.NoiseKey, m.noise,
		log.JitterKey, m.factor.Jitter(),
		log.NLLKey, m.nll,
		log.RestartKey, report.Best,
		log.DurationMsKey, time.Since(began).Milliseconds(),
	)
	return m, nil
}

// fitTransform fits the optional input transform and returns the rows the
// kernel sees.
func fitTransform(data *dataset.TrainingSet, cfg Config) (*preprocessing.Pipeline, [][]float64, error) {
	var steps []preprocessing.Step
	switch {
	case cfg.Standardize:
		steps = append(steps, preprocessing.NewStandardScalerDefault())
	case cfg.UnitRange:
		steps = append(steps, preprocessing.NewMinMaxScalerDefault())
	}
	if cfg.Projection > 0 {
		if d := data.Dim(); cfg.Projection > d {
			return nil, nil, errors.NewValidationError("projection",
				"cannot exceed the input dimension", cfg.Projection)
		}
		steps = append(steps, preprocessing.NewPCA(cfg.Projection))
	}
	if len(steps) == 0 {
		return nil, data.Rows(), nil
	}
	pipe, out, err := preprocessing.FitPipeline(data.X(), steps...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "gp: input transform")
	}
	return pipe, linalg.Rows(out), nil
}

// condition rebuilds the posterior for fixed hyperparameters.
func condition(data *dataset.TrainingSet, transform *preprocessing.Pipeline, k kernel.Kernel,
	p prior.Prior, noise float64, jitter linalg.JitterConfig) (*FittedModel, error) {
	features := data.Rows()
	if transform.Len() > 0 {
		var err error
		if features, err = transform.TransformRows(features); err != nil {
			return nil, err
		}
	}
	n := len(features)
	ev, err := evaluate(features, data.Y(), nil, k, noise, p, false, jitter, mat.NewSymDense(n, nil))
	if err != nil {
		return nil, err
	}
	return &FittedModel{
		data:      data,
		transform: transform,
		features:  features,
		kernel:    ev.kernel,
		prior:     ev.prior,
		noise:     ev.noise,
		factor:    ev.factor,
		alpha:     ev.alpha,
		nll:       ev.nll,
		jitter:    jitter,
		logger:    log.GetLogger().With(log.ModelNameKey, modelName),
	}, nil
}

// Kernel returns the fitted kernel.
func (m *FittedModel) Kernel() kernel.Kernel {
	return kernel.New(m.kernel.Kind, m.kernel.Lengthscales, m.kernel.Amplitude)
}

// Prior returns the mean prior with its fitted coefficients.
func (m *FittedModel) Prior() prior.Prior {
	return m.prior.WithCoefficients(m.prior.Coefficients())
}

// NoiseVariance is σ_n².
func (m *FittedModel) NoiseVariance() float64 { return m.noise }

// Jitter is the diagonal jitter Σ needed to factor.
func (m *FittedModel) Jitter() float64 { return m.factor.Jitter() }

// NLL is the negative log marginal likelihood at the fitted hyperparameters.
func (m *FittedModel) NLL() float64 { return m.nll }

// LogMarginalLikelihood is −NLL.
func (m *FittedModel) LogMarginalLikelihood() float64 { return -m.nll }

// Report describes the hyperparameter search. It is nil for restored models.
func (m *FittedModel) Report() *FitReport { return m.report }

// TrainingSet returns the data the model is conditioned on.
func (m *FittedModel) TrainingSet() *dataset.TrainingSet { return m.data }

// Dim is the input dimension queries must have.
func (m *FittedModel) Dim() int { return m.data.Dim() }

// Cholesky returns a copy of the lower factor L of Σ.
func (m *FittedModel) Cholesky() *mat.TriDense { return m.factor.L() }

// Alpha returns a copy of Σ⁻¹(y − m(X)).
func (m *FittedModel) Alpha() *mat.VecDense {
	return mat.VecDenseCopyOf(m.alpha)
}

// Hyperparameters returns the JSON artifact describing the fitted model.
func (m *FittedModel) Hyperparameters() *model.Hyperparameters {
	n, d := m.data.Dims()
	meta := map[string]interface{}{
		"samples":  n,
		"features": d,
	}
	if m.transform.Len() > 0 {
		meta["kernel_features"] = len(m.features[0])
	}
	if r := m.report; r != nil {
		meta["method"] = r.Method
		meta["restarts"] = len(r.Restarts)
		meta["best_restart"] = r.Best
		meta["elapsed_ms"] = r.Elapsed.Milliseconds()
		meta["timed_out"] = r.TimedOut
	}
	return &model.Hyperparameters{
		ModelType:             modelName,
		Version:               model.HyperparametersVersion,
		Kernel:                m.kernel.Kind.String(),
		Lengthscales:          append([]float64(nil), m.kernel.Lengthscales...),
		Amplitude:             m.kernel.Amplitude,
		NoiseVariance:         m.noise,
		Jitter:                m.factor.Jitter(),
		Prior:                 m.prior.Kind.String(),
		PriorCoefficients:     m.prior.Coefficients(),
		LogMarginalLikelihood: -m.nll,
		Features:              m.data.FeatureNames(),
		Metadata:              meta,
	}
}
