package gp

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigp/metrics"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/pkg/log"
)

// LOOCoverageLevel is the central interval level used for LOOResult.Coverage.
const LOOCoverageLevel = 0.95

// LOOResult holds closed-form leave-one-out predictions at the training
// points. The prior coefficients stay at their full-data values.
type LOOResult struct {
	Means     []float64
	Variances []float64 // noise inclusive
	MSE       float64
	RMSE      float64
	MAE       float64
	NLPD      float64
	// Coverage is the share of targets inside the central 95% interval.
	Coverage float64
}

// LeaveOneOut computes μ_i = y_i − α_i/[Σ⁻¹]_ii and σ²_i = 1/[Σ⁻¹]_ii for
// every training point without refitting.
func (m *FittedModel) LeaveOneOut() (*LOOResult, error) {
	n := m.data.Len()
	var prec mat.Dense
	m.factor.Precision(&prec)

	diag := make([]float64, n)
	for i := range diag {
		diag[i] = prec.At(i, i)
	}
	if err := errors.CheckNumericalStability("gp.LeaveOneOut", diag, 0); err != nil {
		return nil, err
	}

	res := &LOOResult{Means: make([]float64, n), Variances: make([]float64, n)}
	for i, d := range diag {
		if !(d > 0) {
			return nil, errors.NewNumericalInstabilityError("gp.LeaveOneOut", []float64{d}, i)
		}
		res.Means[i] = m.data.Target(i) - m.alpha.AtVec(i)/d
		res.Variances[i] = 1 / d
	}

	y := m.data.Y()
	mean := mat.NewVecDense(n, res.Means)
	variance := mat.NewVecDense(n, res.Variances)
	var err error
	if res.MSE, err = metrics.MSE(y, mean); err != nil {
		return nil, err
	}
	if res.RMSE, err = metrics.RMSE(y, mean); err != nil {
		return nil, err
	}
	if res.MAE, err = metrics.MAE(y, mean); err != nil {
		return nil, err
	}
	if res.NLPD, err = metrics.NLPD(y, mean, variance); err != nil {
		return nil, err
	}
	if res.Coverage, err = metrics.Coverage(y, mean, variance, LOOCoverageLevel); err != nil {
		return nil, err
	}
	m.logger.Info("leave-one-out evaluated",
		log.OperationKey, log.OperationLOO,
		log.MSEKey, res.MSE,
		log.RMSEKey, res.RMSE,
		log.MAEKey, res.MAE,
		log.NLPDKey, res.NLPD,
		log.CoverageKey, res.Coverage,
	)
	return res, nil
}
