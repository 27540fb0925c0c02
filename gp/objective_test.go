package gp

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/scigp/dataset"
	"github.com/YuminosukeSato/scigp/kernel"
	"github.com/YuminosukeSato/scigp/linalg"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/prior"
)

// synthetic draws n points uniformly in [0, 4]^d with
// y = sin(x_0) + 0.5·x_d-1 + N(0, noise²).
func synthetic(t testing.TB, n, d int, noise float64, seed uint64) *dataset.TrainingSet {
	t.Helper()
	src := rand.New(rand.NewPCG(seed, 0))
	u := distuv.Uniform{Min: 0, Max: 4, Src: src}
	eps := distuv.Normal{Mu: 0, Sigma: noise, Src: src}
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i := range rows {
		rows[i] = make([]float64, d)
		for j := range rows[i] {
			rows[i][j] = u.Rand()
		}
		y[i] = math.Sin(rows[i][0]) + 0.5*rows[i][d-1]
		if noise > 0 {
			y[i] += eps.Rand()
		}
	}
	data, err := dataset.FromRows(rows, y)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newTestObjective(t *testing.T, data *dataset.TrainingSet, cfg Config) (*objective, start) {
	t.Helper()
	st, err := resolveStart(cfg, data.Rows(), data.Targets())
	if err != nil {
		t.Fatal(err)
	}
	sp := newSpace(st.kernel, cfg.FitNoise, st.bounds)
	return newObjective(data.Rows(), data.Y(), st, cfg, sp), st
}

func TestNLLGradientMatchesFiniteDifferences(t *testing.T) {
	tests := []struct {
		name        string
		kind        kernel.Kind
		anisotropic bool
		prior       prior.Prior
		fitNoise    bool
	}{
		{"squared exponential", kernel.SquaredExponential, false, prior.NewConstant(0), true},
		{"matern52 anisotropic", kernel.Matern52, true, prior.NewConstant(0), true},
		{"matern32 linear prior", kernel.Matern32, false, prior.Prior{Kind: prior.Linear}, true},
		{"exponential fixed noise", kernel.Exponential, true, prior.NewConstant(0), false},
	}

	data := synthetic(t, 15, 2, 0.1, 11)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Kernel = tt.kind
			cfg.Anisotropic = tt.anisotropic
			cfg.Prior = tt.prior
			cfg.FitNoise = tt.fitNoise
			cfg.Noise = 0.05
			obj, st := newTestObjective(t, data, cfg)

			logp := obj.space.initial(st)
			ev, err := obj.at(logp)
			if err != nil {
				t.Fatal(err)
			}
			if ev.factor.Jitter() != 0 {
				t.Fatalf("test point needs jitter %g", ev.factor.Jitter())
			}
			grad := make([]float64, len(logp))
			obj.logGradient(ev, grad)

			const h = 1e-5
			for j := range logp {
				plus := append([]float64(nil), logp...)
				minus := append([]float64(nil), logp...)
				plus[j] += h
				minus[j] -= h
				fp, err := obj.at(plus)
				if err != nil {
					t.Fatal(err)
				}
				fm, err := obj.at(minus)
				if err != nil {
					t.Fatal(err)
				}
				fd := (fp.nll - fm.nll) / (2 * h)
				if math.Abs(fd-grad[j]) > 1e-4*math.Max(1, math.Abs(fd)) {
					t.Errorf("param %d: analytic %g, finite difference %g", j, grad[j], fd)
				}
			}
		})
	}
}

func TestUnconstrainedGradientIncludesChainRule(t *testing.T) {
	data := synthetic(t, 10, 1, 0.1, 3)
	cfg := DefaultConfig()
	obj, _ := newTestObjective(t, data, cfg)

	u := []float64{0.3, -0.2, 0.1}
	grad := make([]float64, len(u))
	obj.Grad(grad, u)

	const h = 1e-6
	for j := range u {
		plus := append([]float64(nil), u...)
		minus := append([]float64(nil), u...)
		plus[j] += h
		minus[j] -= h
		fd := (obj.Func(plus) - obj.Func(minus)) / (2 * h)
		if math.Abs(fd-grad[j]) > 1e-4*math.Max(1, math.Abs(fd)) {
			t.Errorf("u[%d]: analytic %g, finite difference %g", j, grad[j], fd)
		}
	}
}

func TestSpaceRoundTripStaysInBounds(t *testing.T) {
	k := kernel.New(kernel.SquaredExponential, []float64{1, 2}, 1)
	b := Bounds{
		Lengthscale: Range{Lo: 0.1, Hi: 10},
		Amplitude:   Range{Lo: 0.01, Hi: 100},
		Noise:       Range{Lo: 1e-6, Hi: 1},
	}
	sp := newSpace(k, true, b)
	if sp.dim() != 4 {
		t.Fatalf("dim = %d, want 4", sp.dim())
	}

	for _, u := range [][]float64{{0, 0, 0, 0}, {-30, 30, 5, -5}, {1.5, -0.5, 2, 0.25}} {
		logp := sp.toLog(u, nil)
		for i, v := range logp {
			if v < sp.lo[i] || v > sp.hi[i] {
				t.Errorf("log param %d = %g outside [%g, %g]", i, v, sp.lo[i], sp.hi[i])
			}
		}
		back := sp.toLog(sp.fromLog(logp), nil)
		for i := range logp {
			if math.Abs(back[i]-logp[i]) > 1e-6 {
				t.Errorf("round trip %d: %g != %g", i, back[i], logp[i])
			}
		}
	}
}

func TestNLLIsInfiniteWhereSigmaCannotFactor(t *testing.T) {
	data, err := dataset.FromRows([][]float64{{0}, {0.5}, {1}}, []float64{1, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.FitNoise = false
	obj, _ := newTestObjective(t, data, cfg)
	// A negative nugget larger than the amplitude makes Σ indefinite.
	obj.noise = -10

	u := []float64{0, 0}
	if f := obj.Func(u); !math.IsInf(f, 1) {
		t.Errorf("Func = %g, want +Inf", f)
	}
	grad := []float64{1, 1}
	obj.Grad(grad, u)
	if grad[0] != 0 || grad[1] != 0 {
		t.Errorf("grad = %v, want zeros", grad)
	}
	if err := obj.failure(2); !errors.Is(err, errors.ErrNotPositiveDefinite) {
		t.Errorf("failure = %v, want ErrNotPositiveDefinite", err)
	}
}

func TestInitialClampsIntoBounds(t *testing.T) {
	b := Bounds{
		Lengthscale: Range{Lo: 0.1, Hi: 10},
		Amplitude:   Range{Lo: 0.01, Hi: 100},
		Noise:       Range{Lo: 1e-6, Hi: 1},
	}
	st := start{
		kernel: kernel.New(kernel.SquaredExponential, []float64{100, 0.001}, 1),
		noise:  0,
		bounds: b,
	}
	sp := newSpace(st.kernel, true, b)

	got := sp.initial(st)
	want := []float64{math.Log(10), math.Log(0.1), 0, math.Log(1e-6)}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("initial[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestNonFiniteNLLIsNumericalInstability(t *testing.T) {
	rows := [][]float64{{0}, {10}, {20}}
	y := mat.NewVecDense(3, []float64{1e200, -1e200, 1e200})
	k := kernel.New(kernel.SquaredExponential, []float64{1}, 1)

	_, err := evaluate(rows, y, nil, k, 0.1, prior.Prior{Kind: prior.Constant}, false,
		linalg.DefaultJitter(), mat.NewSymDense(3, nil))
	var numErr *errors.NumericalInstabilityError
	if !errors.As(err, &numErr) {
		t.Fatalf("got %v, want NumericalInstabilityError", err)
	}
	if numErr.Operation != "gp.nll" {
		t.Errorf("operation = %q, want gp.nll", numErr.Operation)
	}
}
