// Package gp fits Gaussian process regression models to scattered
// observations and predicts the posterior mean and variance at new points.
//
// Fitting maximizes the log marginal likelihood over the kernel
// lengthscales, the kernel amplitude and the noise variance from several
// starting points, each refined by gonum's optimize package. The mean prior
// is estimated by generalized least squares at every evaluation.
//
//	data, _ := dataset.FromRows(rows, targets)
//	m, err := gp.Fit(ctx, data,
//		gp.WithKernel(kernel.Matern52),
//		gp.WithRestarts(8),
//		gp.WithMaxTime(time.Minute),
//	)
//	p, err := m.Predict([]float64{0.5, 0.5})
//
// Predictions expose two variances. LatentVariance is the variance of the
// noise-free function value; Variance adds the noise variance and is the
// one written by the command line tool.
//
// A FittedModel is immutable. Factoring Σ costs O(N³) time and O(N²)
// memory, so N beyond a few thousand points is impractical.
package gp
