package preprocessing

import (
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/core/model"
	"github.com/YuminosukeSato/scigp/pkg/errors"
)

func init() {
	gob.Register(&StandardScaler{})
	gob.Register(&MinMaxScaler{})
	gob.Register(&PCA{})
}

// Step is a transform that can be fitted on a matrix and then applied row by row.
type Step interface {
	model.Transformer
	model.RowTransformer
}

// Pipeline applies fitted row transforms in order. The zero Pipeline is the
// identity.
type Pipeline struct {
	Steps []model.RowTransformer
}

// FitPipeline fits each step on the output of the previous one and returns
// the pipeline together with the fully transformed X.
func FitPipeline(X mat.Matrix, steps ...Step) (*Pipeline, mat.Matrix, error) {
	p := &Pipeline{}
	cur := X
	for _, s := range steps {
		out, err := s.FitTransform(cur)
		if err != nil {
			return nil, nil, err
		}
		p.Steps = append(p.Steps, s)
		cur = out
	}
	return p, cur, nil
}

// Len is the number of steps.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}

// TransformRow runs x through every step. With no steps it returns a copy of x.
func (p *Pipeline) TransformRow(x, dst []float64) ([]float64, error) {
	if p.Len() == 0 {
		dst = grow(dst, len(x))
		copy(dst, x)
		return dst, nil
	}
	cur := x
	for i, s := range p.Steps {
		var out []float64
		if i == len(p.Steps)-1 {
			out = dst
		}
		next, err := s.TransformRow(cur, out)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline step %d", i)
		}
		cur = next
	}
	return cur, nil
}

// TransformRows applies the pipeline to each row.
func (p *Pipeline) TransformRows(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		t, err := p.TransformRow(row, nil)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
