package dataio

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/assert"

	"github.com/YuminosukeSato/scigp/core/model"
	"github.com/YuminosukeSato/scigp/gp"
)

func TestPredictionWriter(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPredictionWriter(&buf, []string{"x", "y"}, false)
	assert.NilError(t, pw.Write(gp.Prediction{Point: []float64{0, 1}, Mean: 0.25, Variance: 0.5, LatentVariance: 0.4}))
	assert.NilError(t, pw.Write(gp.Prediction{Point: []float64{2, 3}, Mean: -1, Variance: 1e-6}))
	assert.NilError(t, pw.Flush())

	want := "x,y,predicted_mean,predicted_variance\n0,1,0.25,0.5\n2,3,-1,1e-06\n"
	assert.Equal(t, buf.String(), want)
	assert.Equal(t, pw.Count(), 2)
}

func TestPredictionWriterLatentColumn(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPredictionWriter(&buf, []string{"lon"}, true)
	assert.NilError(t, pw.Write(gp.Prediction{Point: []float64{1}, Mean: 2, Variance: 3, LatentVariance: 2.5}))
	assert.NilError(t, pw.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, lines[0], "lon,predicted_mean,predicted_variance,latent_variance")
	assert.Equal(t, lines[1], "1,2,3,2.5")

	err := pw.Write(gp.Prediction{Point: []float64{1, 2}})
	assert.Assert(t, err != nil)
}

func TestPredictionWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPredictionWriter(&buf, []string{"x", "y"}, false)
	assert.NilError(t, pw.Flush())
	assert.Equal(t, buf.String(), "x,y,predicted_mean,predicted_variance\n")
}

func TestWriteHyperparametersFile(t *testing.T) {
	h := &model.Hyperparameters{
		ModelType:             "GaussianProcessRegressor",
		Version:               model.HyperparametersVersion,
		Kernel:                "squared_exponential",
		Lengthscales:          []float64{1.5},
		Amplitude:             2,
		NoiseVariance:         0.01,
		Prior:                 "constant",
		PriorCoefficients:     []float64{0.3},
		LogMarginalLikelihood: -12.5,
	}
	path := filepath.Join(t.TempDir(), "params.json")
	assert.NilError(t, WriteHyperparametersFile(path, h))

	raw, err := os.ReadFile(path)
	assert.NilError(t, err)
	var decoded map[string]interface{}
	assert.NilError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, decoded["kernel"], "squared_exponential")
	assert.Equal(t, decoded["amplitude"], 2.0)

	var back model.Hyperparameters
	assert.NilError(t, back.FromJSON(raw))
	assert.DeepEqual(t, back.Lengthscales, h.Lengthscales)

	h.Amplitude = 0
	assert.ErrorContains(t, WriteHyperparameters(&bytes.Buffer{}, h), "amplitude")
}
