package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/cpuconfig"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/launcher"
	"github.com/spf13/cobra"
)

const (
	exitRuntime = 1
	exitConfig  = 2
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configError(err error) error  { return &exitError{code: exitConfig, err: err} }
func runtimeError(err error) error { return &exitError{code: exitRuntime, err: err} }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(logger)
	if err := cmd.ExecuteContext(ctx); err != nil {
		code := exitRuntime
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			code = exitErr.code
		}
		logger.Error("launch failed", "error", err)
		stop()
		os.Exit(code)
	}
}

func newRootCommand(logger *slog.Logger) *cobra.Command {
	var cpu string
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Register artifacts and submit the Skylake micro-benchmark runs",
		Long: `launch registers the experiment's provenance artifacts (the experiments
repository, the gem5 repository and binary, the run scripts and one binary
per micro-benchmark) and submits one gem5 run per selected CPU variant and
benchmark.

Storage, executor and object store are configured through GEM5ART_*
environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd.Context(), logger, cpu)
		},
	}
	cmd.Flags().StringVar(&cpu, "cpu", launcher.SelectAll,
		"CPU type: one of UnCalib, Calib, Max or all")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return configError(err)
	})
	return cmd
}

func runLaunch(ctx context.Context, logger *slog.Logger, cpu string) error {
	cpus, err := launcher.ParseSelection(cpu)
	if err != nil {
		return configError(err)
	}

	cfg, err := loadEnvConfig()
	if err != nil {
		return configError(err)
	}
	expCfg, err := launcher.LoadConfig(cfg.ExperimentFile)
	if err != nil {
		return configError(err)
	}

	deps, err := wire(ctx, logger, cfg)
	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return err
		}
		return runtimeError(err)
	}
	defer deps.Close()

	l, err := launcher.New(expCfg, deps.artifacts, deps.runs, logger)
	if err != nil {
		return configError(err)
	}

	logger.Info("launch starting",
		"launch_id", deps.launchID,
		"cpus", strings.Join(cpus, ","),
		"benchmarks", len(expCfg.Benchmarks),
		"backend", cfg.Backend,
		"executor", cfg.Executor,
	)
	report, err := l.Launch(ctx, cpus)
	if errors.Is(err, launcher.ErrInvalidSelection) || errors.Is(err, cpuconfig.ErrVariantRenamed) {
		return configError(err)
	}
	if err != nil {
		return runtimeError(fmt.Errorf("launch %s: %w", deps.launchID, err))
	}
	logger.Info("launch finished", "launch_id", deps.launchID, "runs", len(report.Runs))
	return nil
}
