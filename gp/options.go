package gp

import (
	"time"

	"github.com/YuminosukeSato/scigp/kernel"
	"github.com/YuminosukeSato/scigp/linalg"
	"github.com/YuminosukeSato/scigp/pkg/log"
	"github.com/YuminosukeSato/scigp/prior"
)

// Option is a function that configures a Config
type Option func(*Config)

// WithKernel sets the covariance function family
func WithKernel(kind kernel.Kind) Option {
	return func(c *Config) {
		c.Kernel = kind
	}
}

// WithAnisotropic gives every input dimension its own lengthscale
func WithAnisotropic(on bool) Option {
	return func(c *Config) {
		c.Anisotropic = on
	}
}

// WithLengthscales sets the initial lengthscales. One value is broadcast to
// every dimension of an anisotropic kernel.
func WithLengthscales(ls ...float64) Option {
	return func(c *Config) {
		c.Lengthscales = append([]float64(nil), ls...)
	}
}

// WithAmplitude sets the initial kernel amplitude σ²
func WithAmplitude(a float64) Option {
	return func(c *Config) {
		c.Amplitude = a
	}
}

// WithNoise sets the initial noise variance σ_n²
func WithNoise(v float64) Option {
	return func(c *Config) {
		c.Noise = v
	}
}

// WithPrior sets the mean prior and its initial coefficients
func WithPrior(p prior.Prior) Option {
	return func(c *Config) {
		c.Prior = p
	}
}

// WithFitKernel sets whether kernel and noise hyperparameters are optimized
func WithFitKernel(fit bool) Option {
	return func(c *Config) {
		c.FitKernel = fit
	}
}

// WithFitPrior sets whether prior coefficients are estimated by GLS
func WithFitPrior(fit bool) Option {
	return func(c *Config) {
		c.FitPrior = fit
	}
}

// WithFitNoise sets whether the noise variance is optimized along with the kernel
func WithFitNoise(fit bool) Option {
	return func(c *Config) {
		c.FitNoise = fit
	}
}

// WithRestarts sets the number of optimizer starts
func WithRestarts(n int) Option {
	return func(c *Config) {
		c.Restarts = n
	}
}

// WithMaxIter sets the iteration cap of each restart
func WithMaxIter(n int) Option {
	return func(c *Config) {
		c.MaxIter = n
	}
}

// WithTolerance sets the relative NLL improvement below which a restart stops
func WithTolerance(tol float64) Option {
	return func(c *Config) {
		c.Tolerance = tol
	}
}

// WithMaxTime sets the time budget shared by all restarts
func WithMaxTime(d time.Duration) Option {
	return func(c *Config) {
		c.MaxTime = d
	}
}

// WithSeed sets the seed of the restart generator
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		c.Seed = seed
	}
}

// WithBounds overrides the data-derived hyperparameter bounds. Zero ranges
// keep the derived value.
func WithBounds(b Bounds) Option {
	return func(c *Config) {
		c.Bounds = b
	}
}

// WithProjection projects inputs onto k principal components before distances are taken
func WithProjection(k int) Option {
	return func(c *Config) {
		c.Projection = k
	}
}

// WithUnitRange min-max scales inputs to [0, 1] before any projection.
func WithUnitRange(on bool) Option {
	return func(c *Config) {
		c.UnitRange = on
	}
}

// WithStandardize standardizes inputs before any projection
func WithStandardize(on bool) Option {
	return func(c *Config) {
		c.Standardize = on
	}
}

// WithJitter sets the Cholesky jitter schedule
func WithJitter(j linalg.JitterConfig) Option {
	return func(c *Config) {
		c.Jitter = j
	}
}

// WithNJobs sets the number of parallel workers
func WithNJobs(n int) Option {
	return func(c *Config) {
		c.NJobs = n
	}
}

// WithMethod sets the local optimizer
func WithMethod(m Method) Option {
	return func(c *Config) {
		c.Method = m
	}
}

// WithLogger sets the logger used during fitting
func WithLogger(l log.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
