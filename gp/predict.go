package gp

import (
	"context"
	"iter"

	"github.com/YuminosukeSato/scigp/core/parallel"
	"github.com/YuminosukeSato/scigp/linalg"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/pkg/log"
)

// predictChunk is the number of queries one worker handles at a time.
const predictChunk = 64

// Prediction is the posterior at one query point. Variance includes the
// observation noise; LatentVariance is the variance of the noise-free
// function value.
type Prediction struct {
	Point          []float64
	Mean           float64
	LatentVariance float64
	Variance       float64
}

// scratch holds per-goroutine buffers for prediction.
type scratch struct {
	x  []float64
	ks []float64
}

// Predict returns the posterior at x.
func (m *FittedModel) Predict(x []float64) (Prediction, error) {
	if len(x) != m.Dim() {
		return Prediction{}, errors.NewRowDimensionError("gp.Predict", 0, m.Dim(), len(x))
	}
	var s scratch
	return m.predict(x, &s)
}

func (m *FittedModel) predict(x []float64, s *scratch) (Prediction, error) {
	z := x
	if m.transform.Len() > 0 {
		var err error
		if s.x, err = m.transform.TransformRow(x, s.x); err != nil {
			return Prediction{}, err
		}
		z = s.x
	}

	// k* = [k(x*, x_i)], mean = m(x*) + k*ᵗα
	s.ks = linalg.CrossCovarianceRows(s.ks, m.features, z, m.kernel)
	mean := m.prior.Mean(z)
	for i, a := range m.alpha.RawVector().Data {
		mean += s.ks[i] * a
	}

	// latent = k(x*,x*) − ‖L⁻¹k*‖²
	m.factor.SolveLowerSlice(s.ks)
	var q float64
	for _, v := range s.ks {
		q += v * v
	}
	latent := errors.ClampNonNegative(m.kernel.Variance() - q)

	return Prediction{
		Point:          append([]float64(nil), x...),
		Mean:           mean,
		LatentVariance: latent,
		Variance:       latent + m.noise,
	}, nil
}

// checkQueries reports the first query whose length differs from the model's.
func (m *FittedModel) checkQueries(op string, queries [][]float64) error {
	return linalg.CheckRows(op, queries, m.Dim())
}

// PredictBatch predicts every query in order. Any query with the wrong
// dimension fails the whole batch before computation starts.
func (m *FittedModel) PredictBatch(ctx context.Context, queries [][]float64) ([]Prediction, error) {
	if err := m.checkQueries("gp.PredictBatch", queries); err != nil {
		return nil, err
	}
	out := make([]Prediction, len(queries))
	if err := m.predictRange(ctx, queries, out, 0); err != nil {
		return nil, err
	}
	m.logger.Debug("batch predicted",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, len(queries),
	)
	return out, nil
}

// predictRange fills out[i] with the prediction for queries[offset+i],
// spreading chunks over the worker pool.
func (m *FittedModel) predictRange(ctx context.Context, queries [][]float64, out []Prediction, offset int) error {
	chunks := (len(out) + predictChunk - 1) / predictChunk
	errs := parallel.ForEach(ctx, chunks, m.nJobs, func(ctx context.Context, c int) error {
		var s scratch
		lo := c * predictChunk
		hi := min(lo+predictChunk, len(out))
		for i := lo; i < hi; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := m.predict(queries[offset+i], &s)
			if err != nil {
				return errors.Wrapf(err, "gp: query %d", offset+i)
			}
			out[i] = p
		}
		return nil
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Predictions lazily yields the posterior for each query in input order.
// Queries are computed ahead in parallel blocks. The sequence stops after
// the first error, which is yielded with a zero Prediction; a query with
// the wrong dimension yields a DimensionError carrying its row index.
func (m *FittedModel) Predictions(ctx context.Context, queries [][]float64) iter.Seq2[Prediction, error] {
	return func(yield func(Prediction, error) bool) {
		block := predictChunk * parallel.Workers(m.nJobs)
		buf := make([]Prediction, 0, block)
		for start := 0; start < len(queries); start += block {
			end := min(start+block, len(queries))
			batch := queries[start:end]

			// rows before a bad query are still produced
			valid := len(batch)
			var dimErr error
			for i, q := range batch {
				if len(q) != m.Dim() {
					valid = i
					dimErr = errors.NewRowDimensionError("gp.Predictions", start+i, m.Dim(), len(q))
					break
				}
			}

			buf = buf[:valid]
			if err := m.predictRange(ctx, queries, buf, start); err != nil {
				yield(Prediction{}, err)
				return
			}
			for _, p := range buf {
				if !yield(p, nil) {
					return
				}
			}
			if dimErr != nil {
				yield(Prediction{}, dimErr)
				return
			}
		}
	}
}
