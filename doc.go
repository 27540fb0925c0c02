// Package scigp provides Gaussian process regression for scattered data in Go,
// designed for spatial interpolation (kriging) services and batch tooling.
//
// scigp fits a stationary kernel and a parametric mean to N observations by
// maximizing the log marginal likelihood, then predicts the posterior mean
// and variance at any number of query points.
//
// # Features
//
//   - Kernels: squared exponential, exponential, Matérn 3/2 and Matérn 5/2,
//     isotropic or with one lengthscale per input dimension
//   - Mean priors: constant or linear, fitted by generalized least squares
//   - Multi-start L-BFGS or Nelder-Mead hyperparameter search with a shared
//     wall-clock budget and reproducible seeds
//   - Parallel restarts and batched parallel prediction
//   - Optional input standardization or [0, 1] rescaling, and PCA projection
//   - Leave-one-out cross validation from a single factorization
//
// # Installation
//
//	go get github.com/YuminosukeSato/scigp
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/scigp/dataset"
//	    "github.com/YuminosukeSato/scigp/gp"
//	)
//
//	func main() {
//	    data, err := dataset.FromRows(
//	        [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
//	        []float64{0.1, 0.9, 1.1, 2.0},
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    model, err := gp.Fit(context.Background(), data, gp.WithRestarts(8))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    p, err := model.Predict([]float64{0.5, 0.5})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("mean:", p.Mean, "variance:", p.Variance)
//	}
//
// # Packages
//
//   - gp: fitting, prediction, leave-one-out, persistence and the
//     scikit-learn style GaussianProcessRegressor
//   - kernel: covariance functions and their gradients
//   - prior: mean functions and the GLS fit
//   - linalg: Cholesky factorization with jitter escalation
//   - dataset: the immutable training set
//   - dataio: CSV readers and writers, hyperparameter JSON
//   - viz: prediction scatter plots
//   - metrics: MSE, RMSE, MAE, R², NLPD and coverage
//   - preprocessing: StandardScaler, MinMaxScaler, PCA and pipelines
//   - core/model: estimator interfaces, state tracking and gob persistence
//   - core/parallel: bounded worker fan-out
//   - pkg/errors, pkg/log: error taxonomy and structured logging
//
// # Command Line
//
//	scigp fit-predict -input-csv train.csv -predict-csv grid.csv -output-csv out.csv
//
// writes x,y,predicted_mean,predicted_variance for every query row.
//
// # License
//
// scigp is released under the MIT License.
package scigp
