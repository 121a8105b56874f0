package runtimeexec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	stdoutFile = "gem5.out"
	stderrFile = "gem5.err"
)

// LocalExecutor runs the simulator as a child process and waits for it.
type LocalExecutor struct{}

func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{}
}

func (e *LocalExecutor) Kind() string {
	return "local"
}

func (e *LocalExecutor) Submit(ctx context.Context, spec JobSpec) (Observation, error) {
	if err := spec.Validate(); err != nil {
		return Observation{}, err
	}
	outDir := resolveOutDir(spec)
	if outDir == "" {
		return Observation{}, errors.New("outdir is required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Observation{}, fmt.Errorf("create outdir: %w", err)
	}
	stdout, err := os.Create(filepath.Join(outDir, stdoutFile))
	if err != nil {
		return Observation{}, err
	}
	defer stdout.Close()
	stderr, err := os.Create(filepath.Join(outDir, stderrFile))
	if err != nil {
		return Observation{}, err
	}
	defer stderr.Close()

	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = strings.TrimSpace(spec.Cwd)
	cmd.Env = append(os.Environ(), jobEnv(spec)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	started := time.Now()
	err = cmd.Run()
	details := map[string]any{
		"outdir":      outDir,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			details["exit_code"] = exitErr.ExitCode()
		}
		return Observation{Status: "failed", Message: err.Error(), Details: details}, fmt.Errorf("run %s: %w", spec.Name, err)
	}
	details["exit_code"] = 0
	return Observation{Status: "succeeded", Message: "exited", Details: details}, nil
}
