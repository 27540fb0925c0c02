package dataio

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/YuminosukeSato/scigp/core/model"
	"github.com/YuminosukeSato/scigp/gp"
	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// Output column names after the query columns.
const (
	MeanColumn           = "predicted_mean"
	VarianceColumn       = "predicted_variance"
	LatentVarianceColumn = "latent_variance"
)

// PredictionWriter writes one CSV record per prediction: the query point,
// the predictive mean and the noise-inclusive predictive variance, plus the
// latent variance when enabled.
type PredictionWriter struct {
	cw      *csv.Writer
	names   []string
	latent  bool
	started bool
	record  []string
	n       int
}

// NewPredictionWriter returns a writer whose point columns are named after
// names, normally the query header.
func NewPredictionWriter(w io.Writer, names []string, latent bool) *PredictionWriter {
	return &PredictionWriter{
		cw:     csv.NewWriter(w),
		names:  append([]string(nil), names...),
		latent: latent,
	}
}

// Header returns the column names written before the first record.
func (pw *PredictionWriter) Header() []string {
	h := append(append([]string(nil), pw.names...), MeanColumn, VarianceColumn)
	if pw.latent {
		h = append(h, LatentVarianceColumn)
	}
	return h
}

func (pw *PredictionWriter) start() error {
	if pw.started {
		return nil
	}
	pw.started = true
	return pw.cw.Write(pw.Header())
}

// Write appends p. The header is written on the first call.
func (pw *PredictionWriter) Write(p gp.Prediction) error {
	if len(p.Point) != len(pw.names) {
		return errors.NewRowDimensionError("dataio.PredictionWriter", pw.n, len(pw.names), len(p.Point))
	}
	if err := pw.start(); err != nil {
		return errors.Wrap(err, "write prediction header")
	}
	pw.record = pw.record[:0]
	for _, v := range p.Point {
		pw.record = append(pw.record, formatFloat(v))
	}
	pw.record = append(pw.record, formatFloat(p.Mean), formatFloat(p.Variance))
	if pw.latent {
		pw.record = append(pw.record, formatFloat(p.LatentVariance))
	}
	if err := pw.cw.Write(pw.record); err != nil {
		return errors.Wrapf(err, "write prediction %d", pw.n)
	}
	pw.n++
	return nil
}

// Count returns the number of predictions written.
func (pw *PredictionWriter) Count() int { return pw.n }

// Flush writes any buffered data, including the header of an empty table.
func (pw *PredictionWriter) Flush() error {
	if err := pw.start(); err != nil {
		return errors.Wrap(err, "write prediction header")
	}
	pw.cw.Flush()
	return pw.cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteHyperparameters writes h as indented JSON.
func WriteHyperparameters(w io.Writer, h *model.Hyperparameters) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if _, err := h.WriteTo(w); err != nil {
		return errors.Wrap(err, "write hyperparameters")
	}
	return nil
}

// WriteHyperparametersFile writes h to path, replacing any existing file.
func WriteHyperparametersFile(path string, h *model.Hyperparameters) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create hyperparameter file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close hyperparameter file")
		}
	}()
	return WriteHyperparameters(f, h)
}
