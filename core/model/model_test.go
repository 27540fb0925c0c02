package model

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YuminosukeSato/scigp/pkg/errors"
)

func validHyperparameters() *Hyperparameters {
	return &Hyperparameters{
		ModelType:             "GaussianProcessRegressor",
		Version:               HyperparametersVersion,
		Kernel:                "matern52",
		Lengthscales:          []float64{0.5, 2},
		Amplitude:             1.5,
		NoiseVariance:         0.01,
		Prior:                 "constant",
		PriorCoefficients:     []float64{3},
		LogMarginalLikelihood: -12.5,
		Features:              []string{"x", "y"},
		Metadata:              map[string]interface{}{"n_samples": 10},
	}
}

func TestHyperparametersJSONRoundTrip(t *testing.T) {
	h := validHyperparameters()

	var buf bytes.Buffer
	if _, err := h.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"noise_variance": 0.01`) {
		t.Errorf("unexpected JSON: %s", buf.String())
	}

	var back Hyperparameters
	if err := back.FromJSON(buf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if back.Kernel != "matern52" || back.Lengthscales[1] != 2 || back.PriorCoefficients[0] != 3 {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestHyperparametersValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *Hyperparameters)
	}{
		{"missing kernel", func(h *Hyperparameters) { h.Kernel = "" }},
		{"no lengthscales", func(h *Hyperparameters) { h.Lengthscales = nil }},
		{"negative lengthscale", func(h *Hyperparameters) { h.Lengthscales[0] = -1 }},
		{"zero amplitude", func(h *Hyperparameters) { h.Amplitude = 0 }},
		{"negative noise", func(h *Hyperparameters) { h.NoiseVariance = -1e-3 }},
		{"missing prior", func(h *Hyperparameters) { h.Prior = "" }},
		{"missing version", func(h *Hyperparameters) { h.Version = "" }},
	}

	if err := validHyperparameters().Validate(); err != nil {
		t.Fatalf("valid artifact rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHyperparameters()
			tt.mutate(h)
			err := h.Validate()
			var vErr *errors.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	err := s.RequireFitted("GaussianProcessRegressor", "Predict")
	var nfErr *errors.NotFittedError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}

	s.SetDimensions(2, 10)
	s.SetFitted()
	if err := s.RequireFitted("GaussianProcessRegressor", "Predict"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.RequireFeatures("Predict", 3); err == nil {
		t.Error("expected dimension error")
	}

	if nf, ns := s.GetDimensions(); nf != 2 || ns != 10 {
		t.Errorf("GetDimensions = (%d, %d), want (2, 10)", nf, ns)
	}

	s.Reset()
	if s.IsFitted() {
		t.Error("Reset must clear fitted state")
	}
	if nf, ns := s.GetDimensions(); nf != 0 || ns != 0 {
		t.Errorf("Reset left dimensions (%d, %d)", nf, ns)
	}
}

type snapshot struct {
	Lengthscales []float64
	Noise        float64
}

func TestSaveLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	in := snapshot{Lengthscales: []float64{1, 2}, Noise: 0.1}
	if err := SaveModel(in, path); err != nil {
		t.Fatal(err)
	}

	var out snapshot
	if err := LoadModel(&out, path); err != nil {
		t.Fatal(err)
	}
	if out.Noise != 0.1 || out.Lengthscales[1] != 2 {
		t.Errorf("got %+v", out)
	}

	if err := LoadModel(&out, filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Error("expected error for missing file")
	}
}
