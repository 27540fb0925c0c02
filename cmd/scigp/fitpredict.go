package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/YuminosukeSato/scigp/dataio"
	"github.com/YuminosukeSato/scigp/gp"
	"github.com/YuminosukeSato/scigp/kernel"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/pkg/log"
	"github.com/YuminosukeSato/scigp/prior"
	"github.com/YuminosukeSato/scigp/viz"
)

type fitPredictOptions struct {
	inputCSV   string
	predictCSV string
	outputCSV  string
	paramsJSON string
	modelPath  string
	plotPath   string
	plotValue  string

	kernel      string
	anisotropic bool
	prior       string
	method      string
	restarts    int
	maxIter     int
	tol         float64
	maxTime     time.Duration
	seed        uint64
	projection  int
	standardize bool
	unitRange   bool
	njobs       int

	loo      bool
	latent   bool
	logLevel string
}

func fitPredictCmd() *commander.Command {
	o := &fitPredictOptions{}
	cmd := &commander.Command{
		UsageLine: "fit-predict -input-csv <train> -predict-csv <queries> -output-csv <out> [options]",
		Short:     "fits a Gaussian process and predicts at query points",
		Long: `
fits a Gaussian process to the training CSV (header row, input columns, target
in the last column) and writes the predictive mean and variance for every row
of the query CSV.

	$ scigp fit-predict -input-csv train.csv -predict-csv grid.csv -output-csv out.csv [-params-json params.json] [-plot map.png]

`,
		Flag: *flag.NewFlagSet("fit-predict", flag.ExitOnError),
	}
	cmd.Run = func(cmd *commander.Command, args []string) error {
		if len(args) > 0 {
			return errors.NewValidationError("arguments", "unexpected positional arguments", strings.Join(args, " "))
		}
		if err := log.SetupLogger(o.logLevel); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return fitPredict(ctx, o)
	}

	def := gp.DefaultConfig()
	f := &cmd.Flag
	f.StringVar(&o.inputCSV, "input-csv", "", "Training CSV: header, input columns, target last")
	f.StringVar(&o.predictCSV, "predict-csv", "", "Query CSV: header, input columns")
	f.StringVar(&o.outputCSV, "output-csv", "", "Prediction output CSV")
	f.StringVar(&o.paramsJSON, "params-json", "", "Write fitted hyperparameters as JSON")
	f.StringVar(&o.modelPath, "save-model", "", "Write a gob snapshot of the fitted model")
	f.StringVar(&o.plotPath, "plot", "", "Write a scatter of the predictions (png, svg, pdf)")
	f.StringVar(&o.plotValue, "plot-value", "mean", "Plotted quantity: mean or variance")
	f.StringVar(&o.kernel, "kernel", def.Kernel.String(), "Kernel: squared_exponential, exponential, matern32, matern52")
	f.BoolVar(&o.anisotropic, "anisotropic", false, "One lengthscale per input dimension")
	f.StringVar(&o.prior, "prior", def.Prior.Kind.String(), "Mean prior: constant or linear")
	f.StringVar(&o.method, "method", def.Method.String(), "Optimizer: lbfgs or nelder_mead")
	f.IntVar(&o.restarts, "restarts", def.Restarts, "Optimizer restarts, including the initial start")
	f.IntVar(&o.maxIter, "max-iter", def.MaxIter, "Iterations per restart")
	f.Float64Var(&o.tol, "tol", def.Tolerance, "Relative NLL change that counts as converged")
	f.DurationVar(&o.maxTime, "max-time", def.MaxTime, "Wall-clock budget for the whole fit")
	f.Uint64Var(&o.seed, "seed", def.Seed, "Seed for restart start points")
	f.IntVar(&o.projection, "projection", 0, "Project inputs onto this many principal components; 0 = off")
	f.BoolVar(&o.standardize, "standardize", false, "Standardize inputs before the kernel")
	f.BoolVar(&o.unitRange, "unit-range", false, "Rescale inputs to [0, 1] before the kernel")
	f.IntVar(&o.njobs, "jobs", 0, "Worker goroutines; 0 = all CPUs")
	f.BoolVar(&o.loo, "loo", false, "Log leave-one-out MSE and NLPD")
	f.BoolVar(&o.latent, "latent-variance", false, "Add a latent_variance column to the output")
	f.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	return cmd
}

func (o *fitPredictOptions) validate() error {
	for name, v := range map[string]string{
		"input-csv":   o.inputCSV,
		"predict-csv": o.predictCSV,
		"output-csv":  o.outputCSV,
	} {
		if v == "" {
			return errors.NewValidationError(name, "is required", v)
		}
	}
	return nil
}

func (o *fitPredictOptions) gpOptions() ([]gp.Option, error) {
	k, err := kernel.ParseKind(o.kernel)
	if err != nil {
		return nil, err
	}
	pk, err := prior.ParseKind(o.prior)
	if err != nil {
		return nil, err
	}
	m, err := gp.ParseMethod(o.method)
	if err != nil {
		return nil, err
	}
	return []gp.Option{
		gp.WithKernel(k),
		gp.WithAnisotropic(o.anisotropic),
		gp.WithPrior(prior.Prior{Kind: pk}),
		gp.WithMethod(m),
		gp.WithRestarts(o.restarts),
		gp.WithMaxIter(o.maxIter),
		gp.WithTolerance(o.tol),
		gp.WithMaxTime(o.maxTime),
		gp.WithSeed(o.seed),
		gp.WithProjection(o.projection),
		gp.WithStandardize(o.standardize),
		gp.WithUnitRange(o.unitRange),
		gp.WithNJobs(o.njobs),
	}, nil
}

// fitPredict runs the whole pipeline. Nothing is written unless the
// training data is read and the fit succeeds.
func fitPredict(ctx context.Context, o *fitPredictOptions) error {
	if err := o.validate(); err != nil {
		return err
	}
	opts, err := o.gpOptions()
	if err != nil {
		return err
	}
	var quantity viz.Quantity
	if o.plotPath != "" {
		if quantity, err = viz.ParseQuantity(o.plotValue); err != nil {
			return err
		}
	}
	logger := log.Provider{}.GetLoggerWithName("cli")
	started := time.Now()

	data, err := dataio.ReadTrainingFile(o.inputCSV)
	if err != nil {
		logger.Error("reading training data failed", err, log.SourceKey, o.inputCSV, log.ErrorCodeKey, log.ErrorIngestion)
		return err
	}

	m, err := gp.Fit(ctx, data, opts...)
	if err != nil {
		return err
	}
	k := m.Kernel()
	logger.Info("fitted hyperparameters",
		log.KernelKey, k.Kind.String(),
		log.LengthscaleKey, k.Lengthscales,
		log.AmplitudeKey, k.Amplitude,
		log.NoiseKey, m.NoiseVariance(),
		log.NLLKey, m.NLL(),
	)

	if o.loo {
		loo, err := m.LeaveOneOut()
		if err != nil {
			return err
		}
		logger.Info("leave-one-out",
			log.RMSEKey, loo.RMSE,
			log.MAEKey, loo.MAE,
			log.NLPDKey, loo.NLPD,
			log.CoverageKey, loo.Coverage,
		)
	}
	if o.paramsJSON != "" {
		if err := dataio.WriteHyperparametersFile(o.paramsJSON, m.Hyperparameters()); err != nil {
			return err
		}
	}

	if o.modelPath != "" {
		if err := m.SaveFile(o.modelPath); err != nil {
			return err
		}
	}

	queries, err := dataio.ReadQueryFile(o.predictCSV, m.Dim())
	if err != nil {
		logger.Error("reading query data failed", err, log.SourceKey, o.predictCSV)
		return err
	}
	preds, err := writePredictions(ctx, m, queries, o.outputCSV, o.latent, o.plotPath != "")
	if err != nil {
		return err
	}

	if o.plotPath != "" && len(preds) > 0 {
		if err := viz.SaveScatter(o.plotPath, preds, quantity, queries.Names); err != nil {
			return err
		}
	}
	logger.Info("predictions written",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, queries.Len(),
		"output", o.outputCSV,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return nil
}

// writePredictions streams predictions into path in query order. On error
// the partial file is removed. keep returns the predictions as well.
func writePredictions(ctx context.Context, m *gp.FittedModel, q *dataio.QuerySet, path string, latent, keep bool) (kept []gp.Prediction, err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create output directory")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create output")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close output")
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	pw := dataio.NewPredictionWriter(f, q.Names, latent)
	for p, perr := range m.Predictions(ctx, q.Rows) {
		if perr != nil {
			return nil, perr
		}
		if err := pw.Write(p); err != nil {
			return nil, err
		}
		if keep {
			kept = append(kept, p)
		}
	}
	if err := pw.Flush(); err != nil {
		return nil, errors.Wrap(err, "flush output")
	}
	return kept, nil
}
