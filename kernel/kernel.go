// Package kernel implements the stationary covariance functions used by the
// Gaussian process regressor.
//
// A Kernel is a plain value: a kind tag, one lengthscale per input dimension
// (or a single shared one) and an amplitude. Dispatch on the kind is explicit.
package kernel

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// Kind selects the covariance family.
type Kind int

const (
	// SquaredExponential is σ²·exp(−r²/2).
	SquaredExponential Kind = iota
	// Exponential is σ²·exp(−r), the Matérn kernel with ν = 1/2.
	Exponential
	// Matern32 is σ²·(1+√3r)·exp(−√3r).
	Matern32
	// Matern52 is σ²·(1+√5r+5r²/3)·exp(−√5r).
	Matern52
)

var kindNames = [...]string{
	SquaredExponential: "squared_exponential",
	Exponential:        "exponential",
	Matern32:           "matern32",
	Matern52:           "matern52",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts the canonical names plus common aliases
// ("se", "rbf", "exp", "matern3/2", "matern5/2").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "squared_exponential", "squaredexponential", "sqexp", "se", "rbf", "gaussian":
		return SquaredExponential, nil
	case "exponential", "exp", "matern12", "matern1/2":
		return Exponential, nil
	case "matern32", "matern3/2", "matern_32":
		return Matern32, nil
	case "matern52", "matern5/2", "matern_52":
		return Matern52, nil
	}
	return 0, errors.NewValidationError("kernel", "unknown kernel kind", s)
}

const (
	sqrt3 = 1.7320508075688772
	sqrt5 = 2.23606797749979
)

// Kernel is a stationary covariance function with its hyperparameters.
// A single lengthscale makes the kernel isotropic; one per input dimension
// makes it anisotropic.
type Kernel struct {
	Kind         Kind
	Lengthscales []float64
	Amplitude    float64
}

// New returns a Kernel owning a copy of lengthscales.
func New(kind Kind, lengthscales []float64, amplitude float64) Kernel {
	ls := make([]float64, len(lengthscales))
	copy(ls, lengthscales)
	return Kernel{Kind: kind, Lengthscales: ls, Amplitude: amplitude}
}

// Isotropic reports whether all dimensions share one lengthscale.
func (k Kernel) Isotropic() bool {
	return len(k.Lengthscales) == 1
}

// Validate checks the kernel against an input dimensionality.
func (k Kernel) Validate(dim int) error {
	if k.Kind < SquaredExponential || k.Kind > Matern52 {
		return errors.NewValidationError("kernel", "unknown kernel kind", int(k.Kind))
	}
	if n := len(k.Lengthscales); n != 1 && n != dim {
		return errors.NewValidationError("lengthscales",
			fmt.Sprintf("need 1 or %d values", dim), n)
	}
	for _, l := range k.Lengthscales {
		if !(l > 0) || math.IsInf(l, 0) {
			return errors.NewValidationError("lengthscales", "must be positive and finite", l)
		}
	}
	if !(k.Amplitude > 0) || math.IsInf(k.Amplitude, 0) {
		return errors.NewValidationError("amplitude", "must be positive and finite", k.Amplitude)
	}
	return nil
}

func (k Kernel) lengthscale(d int) float64 {
	if len(k.Lengthscales) == 1 {
		return k.Lengthscales[0]
	}
	return k.Lengthscales[d]
}

// Distance2 returns the squared scaled distance r² = Σ_d ((x1_d−x2_d)/ℓ_d)².
func (k Kernel) Distance2(x1, x2 []float64) float64 {
	var r2 float64
	for d := range x1 {
		u := (x1[d] - x2[d]) / k.lengthscale(d)
		r2 += u * u
	}
	return r2
}

// Covariance evaluates k(x1, x2). Both vectors must have the same length.
func (k Kernel) Covariance(x1, x2 []float64) float64 {
	return k.FromDistance2(k.Distance2(x1, x2))
}

// FromDistance2 evaluates the kernel at a precomputed squared scaled distance.
func (k Kernel) FromDistance2(r2 float64) float64 {
	s := k.Amplitude
	switch k.Kind {
	case SquaredExponential:
		return s * math.Exp(-0.5*r2)
	case Exponential:
		return s * math.Exp(-math.Sqrt(r2))
	case Matern32:
		r := math.Sqrt(r2)
		return s * (1 + sqrt3*r) * math.Exp(-sqrt3*r)
	case Matern52:
		r := math.Sqrt(r2)
		return s * (1 + sqrt5*r + 5*r2/3) * math.Exp(-sqrt5*r)
	}
	panic(fmt.Sprintf("kernel: unknown kind %d", int(k.Kind)))
}

// Variance is k(x, x), the amplitude for every stationary kind.
func (k Kernel) Variance() float64 {
	return k.Amplitude
}

// radial returns g(r) such that ∂k/∂log ℓ_d = g(r)·(Δ_d/ℓ_d)².
func (k Kernel) radial(r2 float64) float64 {
	s := k.Amplitude
	switch k.Kind {
	case SquaredExponential:
		return s * math.Exp(-0.5*r2)
	case Exponential:
		if r2 == 0 {
			return 0
		}
		r := math.Sqrt(r2)
		return s * math.Exp(-r) / r
	case Matern32:
		r := math.Sqrt(r2)
		return 3 * s * math.Exp(-sqrt3*r)
	case Matern52:
		r := math.Sqrt(r2)
		return 5.0 / 3.0 * s * (1 + sqrt5*r) * math.Exp(-sqrt5*r)
	}
	panic(fmt.Sprintf("kernel: unknown kind %d", int(k.Kind)))
}

// NumParams is the number of optimizable kernel parameters:
// the lengthscales followed by the amplitude.
func (k Kernel) NumParams() int {
	return len(k.Lengthscales) + 1
}

// Params returns the parameters in log space, ordered
// [log ℓ_1 .. log ℓ_m, log σ²].
func (k Kernel) Params() []float64 {
	p := make([]float64, 0, k.NumParams())
	for _, l := range k.Lengthscales {
		p = append(p, math.Log(l))
	}
	return append(p, math.Log(k.Amplitude))
}

// WithParams returns a copy of k with parameters taken from a log-space
// vector laid out as in Params.
func (k Kernel) WithParams(logParams []float64) Kernel {
	if len(logParams) != k.NumParams() {
		panic(fmt.Sprintf("kernel: got %d params, want %d", len(logParams), k.NumParams()))
	}
	m := len(k.Lengthscales)
	ls := make([]float64, m)
	for i := range ls {
		ls[i] = math.Exp(logParams[i])
	}
	return Kernel{Kind: k.Kind, Lengthscales: ls, Amplitude: math.Exp(logParams[m])}
}

// Gradient writes ∂k(x1,x2)/∂θ for θ in the Params layout into dst, growing
// it if needed, and returns it.
func (k Kernel) Gradient(x1, x2, dst []float64) []float64 {
	n := k.NumParams()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = 0
	}

	r2 := k.Distance2(x1, x2)
	g := k.radial(r2)
	if k.Isotropic() {
		dst[0] = g * r2
	} else {
		for d := range x1 {
			u := (x1[d] - x2[d]) / k.Lengthscales[d]
			dst[d] = g * u * u
		}
	}
	dst[n-1] = k.FromDistance2(r2)
	return dst
}

func (k Kernel) String() string {
	return fmt.Sprintf("%s(lengthscales=%v, amplitude=%g)", k.Kind, k.Lengthscales, k.Amplitude)
}
