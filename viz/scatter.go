// Package viz renders prediction maps with gonum/plot.
package viz

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/scigp/gp"
	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// Quantity selects the predicted value that colours each point.
type Quantity int

const (
	// Mean colours points by the predictive mean.
	Mean Quantity = iota
	// Variance colours points by the noise-inclusive predictive variance.
	Variance
)

func (q Quantity) String() string {
	if q == Variance {
		return "predicted_variance"
	}
	return "predicted_mean"
}

// ParseQuantity accepts "mean" or "variance".
func ParseQuantity(s string) (Quantity, error) {
	switch strings.ToLower(s) {
	case "mean", "predicted_mean":
		return Mean, nil
	case "variance", "var", "predicted_variance":
		return Variance, nil
	}
	return Mean, errors.NewValidationError("plot quantity", "want mean or variance", s)
}

func (q Quantity) of(p gp.Prediction) float64 {
	if q == Variance {
		return p.Variance
	}
	return p.Mean
}

// Default canvas size.
const (
	Width  = 16 * vg.Centimeter
	Height = 12 * vg.Centimeter
)

// NewScatter builds a scatter of the predictions. For two or more input
// dimensions points sit at their first two coordinates and are coloured by
// q on a blue to red scale; for one dimension q is drawn against the input.
func NewScatter(preds []gp.Prediction, q Quantity, names []string) (*plot.Plot, error) {
	if len(preds) == 0 {
		return nil, errors.NewModelError("viz.NewScatter", "no predictions", errors.ErrEmptyData)
	}
	dim := len(preds[0].Point)
	if dim == 0 {
		return nil, errors.NewValueError("viz.NewScatter", "predictions carry no query point")
	}

	p := plot.New()
	p.Title.Text = q.String()
	p.X.Label.Text = axisName(names, 0, "x")

	xys := make(plotter.XYs, len(preds))
	values := make([]float64, len(preds))
	for i, pr := range preds {
		if len(pr.Point) != dim {
			return nil, errors.NewRowDimensionError("viz.NewScatter", i, dim, len(pr.Point))
		}
		values[i] = q.of(pr)
		xys[i].X = pr.Point[0]
		if dim > 1 {
			xys[i].Y = pr.Point[1]
		} else {
			xys[i].Y = values[i]
		}
	}

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, errors.Wrap(err, "viz: scatter")
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(2.5)

	if dim == 1 {
		p.Y.Label.Text = q.String()
		sc.GlyphStyle.Color = color.RGBA{R: 59, G: 76, B: 192, A: 255}
		p.Add(sc, plotter.NewGrid())
		return p, nil
	}

	p.Y.Label.Text = axisName(names, 1, "y")
	cmap := moreland.SmoothBlueRed()
	lo, hi := valueRange(values)
	cmap.SetMin(lo)
	cmap.SetMax(hi)
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		style := sc.GlyphStyle
		c, err := cmap.At(values[i])
		if err == nil {
			style.Color = c
		}
		return style
	}
	p.Add(sc)
	p.Legend.Add(fmt.Sprintf("%s in [%.4g, %.4g]", q, lo, hi), sc)
	return p, nil
}

func axisName(names []string, i int, fallback string) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fallback
}

// valueRange returns a non-empty interval covering values.
func valueRange(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo <= 0 {
		pad := math.Max(math.Abs(lo)*1e-6, 1e-12)
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}

// WriteScatter renders the scatter to w in the given format
// ("png", "svg", "pdf", "eps", "jpg", "tiff").
func WriteScatter(w io.Writer, format string, preds []gp.Prediction, q Quantity, names []string) error {
	p, err := NewScatter(preds, q, names)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return errors.Wrap(err, "viz: render")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "viz: write")
	}
	return nil
}

// SaveScatter writes the scatter to path; the extension picks the format.
func SaveScatter(path string, preds []gp.Prediction, q Quantity, names []string) error {
	p, err := NewScatter(preds, q, names)
	if err != nil {
		return err
	}
	if filepath.Ext(path) == "" {
		return errors.NewValidationError("plot", "file name needs an image extension", path)
	}
	if err := p.Save(Width, Height, path); err != nil {
		return errors.Wrapf(err, "viz: save %s", path)
	}
	return nil
}
