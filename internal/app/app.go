package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/agbru/pm1factor/internal/calibration"
	"github.com/agbru/pm1factor/internal/cli"
	"github.com/agbru/pm1factor/internal/config"
	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/logging"
	"github.com/agbru/pm1factor/internal/orchestration"
	"github.com/agbru/pm1factor/internal/pollard"
	"github.com/agbru/pm1factor/internal/primes"
	"github.com/agbru/pm1factor/internal/server"
	"github.com/agbru/pm1factor/internal/service"
	"github.com/agbru/pm1factor/internal/ui"
)

// Application represents the pm1 application instance.
// It encapsulates the configuration and provides methods to run
// the application in its modes (batch, server, listing, completion).
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory creates the compute backends.
	Factory pollard.BackendFactory
	// ErrWriter is the writer for diagnostics, progress and logs (typically os.Stderr).
	ErrWriter io.Writer
	// Logger is the structured logger built from -log-level.
	Logger logging.Logger
}

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	factory := pollard.NewDefaultFactory()

	// args[0] is program name, args[1:] are the actual arguments
	programName := "pm1"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, factory.List())
	if err != nil {
		return nil, err
	}

	// An explicit -lanes wins; otherwise use a cached calibration for this
	// machine, falling back to one lane per CPU.
	if cfg.Lanes == 0 && !cfg.Calibrate {
		if lanes, ok := calibration.LoadCachedLanes(cfg.CalibrationProfile); ok {
			cfg.Lanes = lanes
		} else {
			cfg.Lanes = calibration.EstimateOptimalLanes()
		}
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
		Logger:    logging.NewLogger(errWriter, "pm1", cfg.LogLevel),
	}, nil
}

// Run executes the application based on the configured mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	outFile, _ := out.(*os.File)
	ui.InitTheme(a.Config.NoColor, outFile)

	if a.Config.ListBackends {
		if err := cli.PrintBackends(out, a.Factory, a.Config.BackendName()); err != nil {
			return a.fail(err, 0)
		}
		return apperrors.ExitSuccess
	}

	ctx, lifecycle := SetupLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Cleanup()

	if a.Config.Calibrate {
		return a.runCalibration(ctx, out)
	}

	start := time.Now()
	backend, table, err := a.prepareBackend(ctx)
	if err != nil {
		return a.fail(err, time.Since(start))
	}
	defer func() {
		if err := backend.Shutdown(); err != nil {
			a.Logger.Error("backend shutdown failed", err, logging.String("backend", backend.Name()))
		}
	}()

	if a.Config.ServerMode {
		return a.runServer(ctx, backend)
	}
	return a.runBatch(ctx, backend, table, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	backends := a.Factory.List()
	if err := cli.GenerateCompletion(out, a.Config.Completion, config.FlagNames(backends), backends); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runCalibration benchmarks the accelerator on the prime table and saves
// the fastest lane count.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	start := time.Now()
	table, err := a.loadPrimes(ctx)
	if err != nil {
		return a.fail(err, time.Since(start))
	}
	if _, err := calibration.Run(ctx, out, table, calibration.Options{
		ProfilePath: a.Config.CalibrationProfile,
		SaveProfile: true,
	}); err != nil {
		return a.fail(err, time.Since(start))
	}
	return apperrors.ExitSuccess
}

func (a *Application) loadPrimes(ctx context.Context) (primes.Table, error) {
	table, source, err := primes.LoadOrGenerate(ctx, a.Config.PrimeCache, a.Config.Primes, a.Logger)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("prime table ready",
		logging.String("source", string(source)), logging.Int("count", table.Len()))
	return table, nil
}

// prepareBackend loads the prime table and initializes the selected backend
// on it.
func (a *Application) prepareBackend(ctx context.Context) (pollard.Backend, primes.Table, error) {
	table, err := a.loadPrimes(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !table.Covers(a.Config.BoundMax - 1) {
		return nil, nil, apperrors.NewConfigError(
			"a table of %d primes (largest %d) does not reach bound max %d; raise -primes or lower -bound-max",
			table.Len(), table.Last(), a.Config.BoundMax)
	}
	name := a.Config.BackendName()
	backend, err := a.Factory.Create(name, a.Config.BackendOptions(a.Logger))
	if err != nil {
		return nil, nil, apperrors.NewBackendInitError(name, err)
	}
	if err := backend.Initialize(table); err != nil {
		return nil, nil, apperrors.NewBackendInitError(name, err)
	}
	return backend, table, nil
}

// newOrchestrator wires progress observers onto the backend attempts.
func (a *Application) newOrchestrator(backend pollard.Backend, display *cli.ProgressDisplay) *orchestration.Orchestrator {
	subject := pollard.NewProgressSubject()
	subject.Register(pollard.NewMetricsObserver())
	if z, ok := a.Logger.(*logging.ZerologAdapter); ok {
		subject.Register(pollard.NewLoggingObserver(z.Zerolog(), 0.1))
	}
	if display != nil {
		subject.Register(display)
	}
	return orchestration.New(backend, a.Config.OrchestrationConfig(),
		orchestration.WithLogger(a.Logger),
		orchestration.WithProgress(subject.AsProgressReporter()))
}

// runServer serves factorization requests until ctx is canceled.
func (a *Application) runServer(ctx context.Context, backend pollard.Backend) int {
	svc := service.NewFactorService(a.newOrchestrator(backend, nil), server.DefaultSecurityConfig().MaxInputBits)
	srv := server.NewServer(svc, a.Factory, a.Config, server.WithLogger(a.Logger))
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runBatch factors the command-line inputs in order. Individual inputs
// that fail are reported and do not change the exit code.
func (a *Application) runBatch(ctx context.Context, backend pollard.Backend, table primes.Table, out io.Writer) int {
	var (
		reporter orchestration.Reporter
		jsonOut  *cli.JSONReporter
		display  *cli.ProgressDisplay
	)
	switch {
	case a.Config.JSONOutput:
		jsonOut = cli.NewJSONReporter(out, backend.Name())
		reporter = jsonOut
	default:
		if !a.Config.Quiet && isTerminal(a.ErrWriter) {
			display = cli.NewProgressDisplay(a.ErrWriter)
		}
		if !a.Config.Quiet {
			cli.PrintExecutionConfig(out, backend, a.Config.OrchestrationConfig(), table.Len())
		}
		reporter = cli.NewTextReporter(out, a.ErrWriter,
			cli.WithQuiet(a.Config.Quiet), cli.WithProgressDisplay(display))
	}

	orch := a.newOrchestrator(backend, display)
	summary, err := orchestration.RunBatch(ctx, orch, a.Config.Inputs, orchestration.BatchOptions{
		MinusOne:  a.Config.MinusOne,
		MaxFactor: a.Config.MaxFactor(),
	}, reporter)
	if err != nil {
		return a.fail(err, summary.Duration)
	}
	if jsonOut != nil && jsonOut.Err() != nil {
		return a.fail(jsonOut.Err(), summary.Duration)
	}
	a.Logger.Debug("batch finished",
		logging.Int("attempted", summary.Attempted),
		logging.Int("factored", summary.Factored),
		logging.Duration("elapsed", summary.Duration))
	return apperrors.ExitSuccess
}

func (a *Application) fail(err error, duration time.Duration) int {
	return apperrors.HandleRunError(err, duration, a.ErrWriter, ui.Colors{})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
