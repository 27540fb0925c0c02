package gp

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/YuminosukeSato/scigp/kernel"
	"github.com/YuminosukeSato/scigp/linalg"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/pkg/log"
	"github.com/YuminosukeSato/scigp/prior"
)

// Method selects the local refinement algorithm run from every restart.
type Method int

const (
	// LBFGS uses the analytic NLL gradient.
	LBFGS Method = iota
	// NelderMead is gradient free.
	NelderMead
)

func (m Method) String() string {
	switch m {
	case LBFGS:
		return "lbfgs"
	case NelderMead:
		return "nelder_mead"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod maps "lbfgs" or "nelder_mead" (also "nelder-mead") to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "lbfgs", "l_bfgs":
		return LBFGS, nil
	case "nelder_mead", "neldermead", "nm":
		return NelderMead, nil
	}
	return 0, errors.NewValidationError("method", "unknown optimizer", s)
}

// Range is a closed interval [Lo, Hi] for a positive hyperparameter.
// The zero Range means "derive from the data".
type Range struct {
	Lo, Hi float64
}

// IsZero reports whether r is unset.
func (r Range) IsZero() bool { return r.Lo == 0 && r.Hi == 0 }

func (r Range) validate(name string) error {
	if r.IsZero() {
		return nil
	}
	if !(r.Lo > 0) || !(r.Hi >= r.Lo) || math.IsInf(r.Hi, 0) {
		return errors.NewValidationError(name, "need 0 < lo <= hi < inf", [2]float64{r.Lo, r.Hi})
	}
	return nil
}

// Bounds limits the optimized hyperparameters.
type Bounds struct {
	Lengthscale Range
	Amplitude   Range
	Noise       Range
}

// Config holds everything Fit needs besides the data.
type Config struct {
	Kernel      kernel.Kind
	Anisotropic bool
	// Initial lengthscales; nil derives them from the data.
	Lengthscales []float64
	// Initial amplitude σ²; 0 derives it from the targets.
	Amplitude float64
	// Initial noise variance σ_n²; negative derives it from the targets.
	Noise float64

	Prior     prior.Prior
	FitKernel bool
	FitPrior  bool
	FitNoise  bool

	// Restarts is the number of optimizer starts, including the one from
	// the initial hyperparameters.
	Restarts  int
	MaxIter   int
	Tolerance float64
	// MaxTime is the wall-clock budget shared by all restarts; 0 disables it.
	MaxTime time.Duration
	Seed    uint64
	Bounds  Bounds
	Method  Method

	// Projection > 0 projects inputs onto that many principal components.
	Projection  int
	Standardize bool
	// UnitRange rescales every input to [0, 1]; exclusive with Standardize.
	UnitRange bool

	Jitter linalg.JitterConfig
	// NJobs bounds the restart and prediction workers; <= 0 uses every CPU.
	NJobs int

	Logger log.Logger
}

// DefaultConfig fits a squared exponential kernel and a constant prior with
// 5 restarts of at most 100 iterations each, tolerance 1e-5 and a one hour
// budget.
func DefaultConfig() Config {
	return Config{
		Kernel:    kernel.SquaredExponential,
		Noise:     -1,
		Prior:     prior.NewConstant(0),
		FitKernel: true,
		FitPrior:  true,
		FitNoise:  true,
		Restarts:  5,
		MaxIter:   100,
		Tolerance: 1e-5,
		MaxTime:   time.Hour,
		Seed:      1,
		Method:    LBFGS,
		Jitter:    linalg.DefaultJitter(),
	}
}

// NewConfig applies opts to DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that do not depend on the data.
func (c Config) Validate() error {
	if c.Kernel < kernel.SquaredExponential || c.Kernel > kernel.Matern52 {
		return errors.NewValidationError("kernel", "unknown kernel kind", int(c.Kernel))
	}
	for _, l := range c.Lengthscales {
		if !(l > 0) || math.IsInf(l, 0) {
			return errors.NewValidationError("lengthscales", "must be positive and finite", l)
		}
	}
	if c.Amplitude < 0 || math.IsInf(c.Amplitude, 0) || math.IsNaN(c.Amplitude) {
		return errors.NewValidationError("amplitude", "must be positive and finite", c.Amplitude)
	}
	if math.IsInf(c.Noise, 0) || math.IsNaN(c.Noise) {
		return errors.NewValidationError("noise", "must be finite", c.Noise)
	}
	if c.Restarts < 1 {
		return errors.NewValidationError("restarts", "must be at least 1", c.Restarts)
	}
	if c.MaxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", c.MaxIter)
	}
	if !(c.Tolerance >= 0) {
		return errors.NewValidationError("tolerance", "must be non-negative", c.Tolerance)
	}
	if c.MaxTime < 0 {
		return errors.NewValidationError("max_time", "must be non-negative", c.MaxTime)
	}
	if c.Method != LBFGS && c.Method != NelderMead {
		return errors.NewValidationError("method", "unknown optimizer", int(c.Method))
	}
	if c.Standardize && c.UnitRange {
		return errors.NewValidationError("unit_range", "cannot be combined with standardize", c.UnitRange)
	}
	if c.Projection < 0 {
		return errors.NewValidationError("projection", "must be non-negative", c.Projection)
	}
	if c.Prior.Kind != prior.Constant && c.Prior.Kind != prior.Linear {
		return errors.NewValidationError("prior", "unknown prior kind", int(c.Prior.Kind))
	}
	for name, r := range map[string]Range{
		"bounds.lengthscale": c.Bounds.Lengthscale,
		"bounds.amplitude":   c.Bounds.Amplitude,
		"bounds.noise":       c.Bounds.Noise,
	} {
		if err := r.validate(name); err != nil {
			return err
		}
	}
	return c.Jitter.Validate()
}

func (c Config) logger() log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.GetLogger()
}
