package gp

import (
	"io"

	"github.com/YuminosukeSato/scigp/core/model"
	"github.com/YuminosukeSato/scigp/dataset"
	"github.com/YuminosukeSato/scigp/kernel"
	"github.com/YuminosukeSato/scigp/linalg"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/preprocessing"
	"github.com/YuminosukeSato/scigp/prior"
)

// Snapshot is the gob-encodable state of a FittedModel. The Cholesky factor
// is not stored; Restore recomputes it from the hyperparameters.
type Snapshot struct {
	Rows         [][]float64
	Targets      []float64
	FeatureNames []string
	TargetName   string

	Transform *preprocessing.Pipeline

	Kernel kernel.Kernel
	Prior  prior.Prior
	Noise  float64
	Jitter linalg.JitterConfig
}

// Snapshot captures everything needed to rebuild m.
func (m *FittedModel) Snapshot() *Snapshot {
	return &Snapshot{
		Rows:         m.data.Rows(),
		Targets:      m.data.Targets(),
		FeatureNames: m.data.FeatureNames(),
		TargetName:   m.data.TargetName(),
		Transform:    m.transform,
		Kernel:       m.Kernel(),
		Prior:        m.Prior(),
		Noise:        m.noise,
		Jitter:       m.jitter,
	}
}

// Restore rebuilds a FittedModel with the snapshot's hyperparameters.
// Nothing is re-optimized.
func Restore(s *Snapshot) (*FittedModel, error) {
	data, err := dataset.FromRows(s.Rows, s.Targets)
	if err != nil {
		return nil, err
	}
	if len(s.FeatureNames) > 0 {
		if data, err = data.WithNames(s.FeatureNames, s.TargetName); err != nil {
			return nil, err
		}
	}
	kdim := data.Dim()
	if s.Transform.Len() > 0 {
		kdim = s.Transform.Steps[len(s.Transform.Steps)-1].OutputDim()
	}
	if err := s.Kernel.Validate(kdim); err != nil {
		return nil, err
	}
	m, err := condition(data, s.Transform, s.Kernel, s.Prior, s.Noise, s.Jitter)
	if err != nil {
		return nil, errors.Wrap(err, "gp: restore")
	}
	return m, nil
}

// Save writes a gob snapshot of m to w.
func (m *FittedModel) Save(w io.Writer) error {
	return model.SaveModelToWriter(m.Snapshot(), w)
}

// Load reads a snapshot written by Save and rebuilds the model.
func Load(r io.Reader) (*FittedModel, error) {
	var s Snapshot
	if err := model.LoadModelFromReader(&s, r); err != nil {
		return nil, err
	}
	return Restore(&s)
}

// SaveFile writes a gob snapshot of m to path.
func (m *FittedModel) SaveFile(path string) error {
	return model.SaveModel(m.Snapshot(), path)
}

// LoadFile reads a snapshot file written by SaveFile.
func LoadFile(path string) (*FittedModel, error) {
	var s Snapshot
	if err := model.LoadModel(&s, path); err != nil {
		return nil, err
	}
	return Restore(&s)
}
