// Package log defines standard attribute keys for Gaussian process operations.
//
// Using these keys keeps fit and prediction logs consistent across packages so
// that restarts, hyperparameters and timings can be filtered and aggregated.
// Keys follow a hierarchical naming convention (e.g. "gp.lengthscale",
// "data.samples").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "GaussianProcessRegressor", "StandardScaler"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "loo", "ingest"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "gp", "linalg", "dataio"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of training rows N.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the input dimensionality D.
	FeaturesKey = "data.features"

	// ProjectedFeaturesKey indicates the dimensionality after projection.
	ProjectedFeaturesKey = "data.projected_features"

	// SourceKey names the file or stream data was read from.
	SourceKey = "data.source"

	// RowKey identifies a data row (0-based, header excluded).
	RowKey = "data.row"

	// BatchSizeKey indicates the size of processing batches.
	BatchSizeKey = "data.batch_size"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records the optimizer iteration count.
	IterationKey = "training.iteration"

	// EvaluationsKey records the number of objective evaluations.
	EvaluationsKey = "training.evaluations"

	// NLLKey records a negative log marginal likelihood.
	NLLKey = "metrics.nll"

	// MSEKey records a mean squared error.
	MSEKey = "metrics.mse"

	// RMSEKey records a root mean squared error.
	RMSEKey = "metrics.rmse"

	// MAEKey records a mean absolute error.
	MAEKey = "metrics.mae"

	// CoverageKey records the share of targets inside a predictive interval.
	CoverageKey = "metrics.coverage"

	// NLPDKey records a mean negative log predictive density.
	NLPDKey = "metrics.nlpd"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"
)

// Gaussian process hyperparameters
const (
	// KernelKey names the kernel family.
	KernelKey = "gp.kernel"

	// PriorKey names the mean prior family.
	PriorKey = "gp.prior"

	// LengthscaleKey records the kernel lengthscale(s).
	LengthscaleKey = "gp.lengthscale"

	// AmplitudeKey records the kernel amplitude (sill).
	AmplitudeKey = "gp.amplitude"

	// NoiseKey records the noise variance (nugget).
	NoiseKey = "gp.noise"

	// JitterKey records the diagonal jitter added during factorization.
	JitterKey = "gp.jitter"

	// RestartKey identifies an optimizer restart.
	RestartKey = "gp.restart"

	// StatusKey records the optimizer termination status.
	StatusKey = "gp.status"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationLOO     = "loo"
	OperationIngest  = "ingest"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorIngestion         = "INGESTION_ERROR"
	ErrorFitFailure        = "FIT_FAILURE"
	ErrorNumerical         = "NUMERICAL_INSTABILITY"
)
