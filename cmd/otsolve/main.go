package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/katalvlaran/lvlot/internal/cliconfig"
	"github.com/katalvlaran/lvlot/internal/logging"
	"github.com/katalvlaran/lvlot/internal/report"
	"github.com/katalvlaran/lvlot/internal/runner"
	"github.com/katalvlaran/lvlot/internal/telemetry"
)

const longHelp = `Solve discrete optimal transport problems described in a TOML file.

Methods:
  sinkhorn         entropic plan by Sinkhorn scaling
  stabilized       log-domain Sinkhorn for small epsilon
  epsilon-scaling  stabilized Sinkhorn over a decreasing epsilon schedule
  unbalanced       KL-relaxed marginals (lambda1, lambda2)
  quadratic        quadratically regularized, sparse plan
  exact            unregularized plan by min-cost flow
  barycenter       entropic barycenter of [problem].marginals

Configuration precedence: flags > OTSOLVE_* environment > file > defaults.`

var exampleUsage = strings.TrimSpace(`
  otsolve solve problem.toml
  otsolve solve problem.toml --method stabilized --epsilon 1e-3 --plot residual.png
  OTSOLVE_PRECISION=float32 otsolve watch problem.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "otsolve:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree writing reports to stdout and logs to stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cfg := cliconfig.DefaultConfig()

	root := &cobra.Command{
		Use:           "otsolve",
		Short:         "Regularized optimal transport solver",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bindFlags(root.PersistentFlags(), &cfg)

	solveCmd := &cobra.Command{
		Use:   "solve <problem.toml>",
		Short: "Solve once and print a TOML report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg
			log, err := prepare(cmd, &c, args[0], stderr)
			if err != nil {
				return err
			}
			return withTelemetry(cmd.Context(), c, log, func(ctx context.Context) error {
				return solveOnce(ctx, c, log, stdout)
			})
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch <problem.toml>",
		Short: "Re-solve every time the problem file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			c := cfg
			log, err := prepare(cmd, &c, path, stderr)
			if err != nil {
				return err
			}
			return withTelemetry(cmd.Context(), c, log, func(ctx context.Context) error {
				if err := solveOnce(ctx, c, log, stdout); err != nil {
					log.Error().Err(err).Msg("solve failed")
				}
				log.Info().Str("file", path).Msg("watching for changes")
				return runner.Watch(ctx, path, runner.DefaultDebounce, log, func() {
					next := cfg
					if _, err := prepare(cmd, &next, path, io.Discard); err != nil {
						log.Error().Err(err).Msg("reload failed")
						return
					}
					if err := solveOnce(ctx, next, log, stdout); err != nil {
						log.Error().Err(err).Msg("solve failed")
					}
				})
			})
		},
	}

	root.AddCommand(solveCmd, watchCmd)

	return root
}

// bindFlags registers the solver flags on fs, writing into cfg.
func bindFlags(fs *pflag.FlagSet, cfg *cliconfig.Config) {
	fs.StringVar(&cfg.Method, "method", cfg.Method, "solver: "+strings.Join(cliconfig.Methods, ", "))
	fs.Float64Var(&cfg.Epsilon, "epsilon", cfg.Epsilon, "regularization strength")
	fs.Float64SliceVar(&cfg.Schedule, "schedule", cfg.Schedule, "epsilon-scaling stages, strictly decreasing")
	fs.Float64Var(&cfg.Lambda1, "lambda1", cfg.Lambda1, "row marginal relaxation (0 = hard constraint)")
	fs.Float64Var(&cfg.Lambda2, "lambda2", cfg.Lambda2, "column marginal relaxation (0 = hard constraint)")
	fs.IntVar(&cfg.MaxIter, "max-iter", cfg.MaxIter, "iteration cap")
	fs.Float64Var(&cfg.Tol, "tol", cfg.Tol, "residual tolerance (0 = precision default)")
	fs.StringVar(&cfg.Precision, "precision", cfg.Precision, "float32 or float64")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "cpu, parallel or gonum")
	fs.Float64Var(&cfg.AbsorbThreshold, "absorb-threshold", cfg.AbsorbThreshold, "log-domain absorption bound (0 = default)")
	fs.BoolVar(&cfg.WithRegularization, "with-regularization", cfg.WithRegularization, "add the regularization term to the reported cost")
	fs.BoolVar(&cfg.Stabilized, "stabilized", cfg.Stabilized, "log-domain kernel for the unbalanced method")
	fs.StringVar(&cfg.Debias, "debias", cfg.Debias, "barycenter debiasing: auto, on or off")
	fs.BoolVar(&cfg.Concurrent, "concurrent", cfg.Concurrent, "run barycenter sub-problems concurrently")
	fs.StringVar(&cfg.Plot, "plot", cfg.Plot, "write the residual history to this image file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn or error")
	fs.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP/HTTP endpoint for traces (empty disables)")
}

// prepare layers file and environment under the explicitly set flags and
// builds the logger.
func prepare(cmd *cobra.Command, cfg *cliconfig.Config, path string, stderr io.Writer) (zerolog.Logger, error) {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if !cliconfig.FileExists(path) {
		return zerolog.Nop(), fmt.Errorf("problem file %s not found", path)
	}
	if err := cliconfig.Resolve(cfg, path, changed); err != nil {
		return zerolog.Nop(), err
	}
	log, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), err
	}
	log.Debug().Interface("config", cfg).Msg("configuration")

	return log, nil
}

func withTelemetry(ctx context.Context, cfg cliconfig.Config, log zerolog.Logger, fn func(context.Context) error) error {
	shutdown, err := telemetry.Setup(ctx, cfg.OTelEndpoint, "otsolve")
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	return fn(ctx)
}

func solveOnce(ctx context.Context, cfg cliconfig.Config, log zerolog.Logger, stdout io.Writer) error {
	rep, err := runner.Run(ctx, cfg, log)
	if err != nil {
		return err
	}
	if !rep.Converged {
		log.Warn().Int("iterations", rep.Iterations).Float64("residual", rep.Residual).Msg("not converged")
	}
	if cfg.Plot != "" && len(rep.History) > 0 {
		if err := report.PlotHistory(cfg.Plot, cfg.Method+" residual", rep.History); err != nil {
			log.Warn().Err(err).Str("file", cfg.Plot).Msg("plot")
		}
	}

	return report.Write(stdout, rep)
}
