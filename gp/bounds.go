package gp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scigp/kernel"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/prior"
)

// maxHeuristicRows caps the rows used for the pairwise distance heuristic.
const maxHeuristicRows = 256

// start is the resolved initial model and search box for one fit.
type start struct {
	kernel kernel.Kernel
	noise  float64
	prior  prior.Prior
	bounds Bounds
}

// resolveStart fills every data-derived default of cfg.
//
//	ℓ  ∈ [1e-3·span, 1e3·span], initial mean pairwise distance
//	σ² ∈ [1e-4·var(y), 1e4·var(y)], initial var(y)
//	σ_n² ∈ [1e-10·var(y), 10·var(y)], initial 0.01·var(y)
//
// span is the bounding box diagonal of the features.
func resolveStart(cfg Config, features [][]float64, y []float64) (start, error) {
	dim := len(features[0])

	_, sd := stat.PopMeanStdDev(y, nil)
	varY := sd * sd
	if !(varY > 0) || math.IsInf(varY, 0) {
		varY = 1
	}
	span := boundingDiagonal(features)
	if !(span > 0) {
		span = 1
	}

	b := cfg.Bounds
	if b.Lengthscale.IsZero() {
		b.Lengthscale = Range{Lo: 1e-3 * span, Hi: 1e3 * span}
	}
	if b.Amplitude.IsZero() {
		b.Amplitude = Range{Lo: 1e-4 * varY, Hi: 1e4 * varY}
	}
	if b.Noise.IsZero() {
		b.Noise = Range{Lo: 1e-10 * varY, Hi: 10 * varY}
	}

	ls, err := initialLengthscales(cfg, features, span)
	if err != nil {
		return start{}, err
	}
	amp := cfg.Amplitude
	if amp == 0 {
		amp = varY
	}
	noise := cfg.Noise
	if noise < 0 {
		noise = 0.01 * varY
	}

	k := kernel.New(cfg.Kernel, ls, amp)
	if err := k.Validate(dim); err != nil {
		return start{}, err
	}
	if err := cfg.Prior.Validate(dim); err != nil {
		return start{}, err
	}
	return start{kernel: k, noise: noise, prior: cfg.Prior, bounds: b}, nil
}

func initialLengthscales(cfg Config, features [][]float64, span float64) ([]float64, error) {
	dim := len(features[0])
	switch n := len(cfg.Lengthscales); {
	case n == 0:
	case n == 1 && cfg.Anisotropic && dim > 1:
		ls := make([]float64, dim)
		for d := range ls {
			ls[d] = cfg.Lengthscales[0]
		}
		return ls, nil
	case n == 1 || (cfg.Anisotropic && n == dim):
		return append([]float64(nil), cfg.Lengthscales...), nil
	default:
		want := "1"
		if cfg.Anisotropic {
			want = fmt.Sprintf("1 or %d", dim)
		}
		return nil, errors.NewValidationError("lengthscales", "need "+want+" values", n)
	}

	rows := features
	if len(rows) > maxHeuristicRows {
		step := len(rows) / maxHeuristicRows
		sub := make([][]float64, 0, maxHeuristicRows)
		for i := 0; i < len(rows) && len(sub) < maxHeuristicRows; i += step {
			sub = append(sub, rows[i])
		}
		rows = sub
	}

	// mean pairwise distance, per dimension mean |Δ| when anisotropic
	m := 1
	if cfg.Anisotropic {
		m = dim
	}
	ls := make([]float64, m)
	pairs := 0
	for i := range rows {
		for j := i + 1; j < len(rows); j++ {
			pairs++
			if cfg.Anisotropic {
				for d := 0; d < dim; d++ {
					ls[d] += math.Abs(rows[i][d] - rows[j][d])
				}
			} else {
				ls[0] += floats.Distance(rows[i], rows[j], 2)
			}
		}
	}
	for d := range ls {
		if pairs > 0 {
			ls[d] /= float64(pairs)
		}
		if !(ls[d] > 0) {
			ls[d] = span
		}
	}
	return ls, nil
}

func boundingDiagonal(rows [][]float64) float64 {
	dim := len(rows[0])
	lo := append([]float64(nil), rows[0]...)
	hi := append([]float64(nil), rows[0]...)
	for _, r := range rows[1:] {
		for d := 0; d < dim; d++ {
			lo[d] = math.Min(lo[d], r[d])
			hi[d] = math.Max(hi[d], r[d])
		}
	}
	return floats.Distance(lo, hi, 2)
}

// space maps log hyperparameters [log ℓ.., log σ², (log σ_n²)] to an
// unconstrained vector u through log p = lo + (hi − lo)·sigmoid(u).
type space struct {
	nKernel  int
	fitNoise bool
	lo, hi   []float64
}

func newSpace(k kernel.Kernel, fitNoise bool, b Bounds) *space {
	s := &space{nKernel: k.NumParams(), fitNoise: fitNoise}
	for range k.Lengthscales {
		s.lo = append(s.lo, math.Log(b.Lengthscale.Lo))
		s.hi = append(s.hi, math.Log(b.Lengthscale.Hi))
	}
	s.lo = append(s.lo, math.Log(b.Amplitude.Lo))
	s.hi = append(s.hi, math.Log(b.Amplitude.Hi))
	if fitNoise {
		s.lo = append(s.lo, math.Log(b.Noise.Lo))
		s.hi = append(s.hi, math.Log(b.Noise.Hi))
	}
	return s
}

func (s *space) dim() int { return len(s.lo) }

func sigmoid(u float64) float64 {
	return 1 / (1 + math.Exp(-u))
}

// toLog writes the log parameters for u into dst.
func (s *space) toLog(u, dst []float64) []float64 {
	if cap(dst) < len(u) {
		dst = make([]float64, len(u))
	}
	dst = dst[:len(u)]
	for i, v := range u {
		dst[i] = s.lo[i] + (s.hi[i]-s.lo[i])*sigmoid(v)
	}
	return dst
}

// fromLog is the inverse of toLog, clamping into the open box.
func (s *space) fromLog(logp []float64) []float64 {
	const eps = 1e-9
	u := make([]float64, len(logp))
	for i, v := range logp {
		w := s.hi[i] - s.lo[i]
		if w == 0 {
			continue
		}
		f := (v - s.lo[i]) / w
		f = errors.ClipValue(f, eps, 1-eps)
		u[i] = math.Log(f / (1 - f))
	}
	return u
}

// chain converts ∂/∂log p into ∂/∂u in place.
func (s *space) chain(u, grad []float64) {
	for i, v := range u {
		sg := sigmoid(v)
		grad[i] *= (s.hi[i] - s.lo[i]) * sg * (1 - sg)
	}
}

// initial returns the log parameters of the start point, clamped into bounds.
func (s *space) initial(st start) []float64 {
	logp := st.kernel.Params()
	if s.fitNoise {
		logp = append(logp, errors.StabilizeLog(st.noise))
	}
	for i := range logp {
		logp[i] = errors.ClipValue(logp[i], s.lo[i], s.hi[i])
	}
	return logp
}
