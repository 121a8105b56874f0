// Package launcher registers the experiment's artifacts and submits one
// simulator run per selected CPU variant and benchmark.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/artifacts"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/cpuconfig"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/domain"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/runs"
)

type ArtifactRegistrar interface {
	Register(ctx context.Context, input artifacts.RegisterInput) (domain.Artifact, error)
}

type RunSubmitter interface {
	CreateSERun(ctx context.Context, input runs.SERunInput) (domain.Run, error)
	Submit(ctx context.Context, run domain.Run) (domain.Run, error)
}

// Report lists what one launch registered and submitted.
type Report struct {
	ExperimentsRepo domain.Artifact
	Gem5Repo        domain.Artifact
	Gem5Binary      domain.Artifact
	RunScripts      domain.Artifact
	Benchmarks      map[string]domain.Artifact
	Runs            []domain.Run
}

type Launcher struct {
	cfg       Config
	artifacts ArtifactRegistrar
	runs      RunSubmitter
	logger    *slog.Logger
}

func New(cfg Config, registrar ArtifactRegistrar, submitter RunSubmitter, logger *slog.Logger) (*Launcher, error) {
	if registrar == nil {
		return nil, errors.New("artifact registrar is required")
	}
	if submitter == nil {
		return nil, errors.New("run submitter is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{cfg: cfg, artifacts: registrar, runs: submitter, logger: logger}, nil
}

// Launch runs the experiment for the given variants. Runs are submitted one
// at a time; the first failure stops the launch and is returned together with
// the partial report.
func (l *Launcher) Launch(ctx context.Context, cpus []string) (Report, error) {
	if len(cpus) == 0 {
		return Report{}, fmt.Errorf("%w: no cpu variant selected", ErrInvalidSelection)
	}
	variants := make([]cpuconfig.Variant, 0, len(cpus))
	seen := make(map[string]struct{}, len(cpus))
	for _, name := range cpus {
		if _, dup := seen[name]; dup {
			return Report{}, fmt.Errorf("%w: %s selected twice", ErrInvalidSelection, name)
		}
		seen[name] = struct{}{}
		v, err := l.variant(name)
		if err != nil {
			return Report{}, err
		}
		variants = append(variants, v)
	}

	report := Report{Benchmarks: make(map[string]domain.Artifact, len(l.cfg.Benchmarks))}
	var err error
	if report.ExperimentsRepo, err = l.register(ctx, l.cfg.ExperimentsRepo); err != nil {
		return report, err
	}
	if report.Gem5Repo, err = l.register(ctx, l.cfg.Gem5Repo); err != nil {
		return report, err
	}
	if report.Gem5Binary, err = l.register(ctx, l.cfg.Gem5Binary, report.Gem5Repo); err != nil {
		return report, err
	}
	if report.RunScripts, err = l.register(ctx, l.cfg.RunScripts); err != nil {
		return report, err
	}

	for _, bm := range l.cfg.Benchmarks {
		bm = strings.TrimSpace(bm)
		a, err := l.artifacts.Register(ctx, artifacts.RegisterInput{
			Name:          bm,
			Type:          domain.ArtifactTypeBinary,
			Command:       fmt.Sprintf("cd %s; make %s;", l.benchmarkDir(bm), l.cfg.BenchmarkISA),
			Cwd:           l.benchmarkDir(bm),
			Path:          l.benchmarkPath(bm),
			Documentation: fmt.Sprintf("microbenchmark (%s) binary for %s ISA", bm, l.cfg.BenchmarkISA),
			Inputs:        []domain.Artifact{report.ExperimentsRepo},
		})
		if err != nil {
			return report, fmt.Errorf("register benchmark %s: %w", bm, err)
		}
		report.Benchmarks[bm] = a
	}

	for _, v := range variants {
		meta := variantMetadata(v)
		for _, bm := range l.cfg.Benchmarks {
			bm = strings.TrimSpace(bm)
			run, err := l.runs.CreateSERun(ctx, runs.SERunInput{
				Name:                 fmt.Sprintf("%s_%s_%s", l.cfg.RunNamePrefix, v.Name, bm),
				Gem5Binary:           l.cfg.Gem5Binary.Path,
				RunScript:            l.cfg.RunScript,
				OutDir:               path.Join(l.cfg.OutDirRoot, v.Name, bm),
				Gem5Artifact:         report.Gem5Binary,
				Gem5GitArtifact:      report.Gem5Repo,
				RunScriptGitArtifact: report.ExperimentsRepo,
				Artifacts:            []domain.Artifact{report.Benchmarks[bm]},
				Params:               []string{v.Name, l.benchmarkPath(bm)},
				CPU:                  v.Name,
				Benchmark:            bm,
				Metadata:             meta,
			})
			if err != nil {
				return report, fmt.Errorf("create run %s/%s: %w", v.Name, bm, err)
			}
			submitted, err := l.runs.Submit(ctx, run)
			if err != nil {
				return report, err
			}
			report.Runs = append(report.Runs, submitted)
		}
	}

	l.logger.Info("launch complete",
		"cpus", strings.Join(cpus, ","),
		"benchmarks", len(l.cfg.Benchmarks),
		"runs", len(report.Runs),
	)
	return report, nil
}

func (l *Launcher) register(ctx context.Context, spec ArtifactSpec, inputs ...domain.Artifact) (domain.Artifact, error) {
	a, err := l.artifacts.Register(ctx, artifacts.RegisterInput{
		Name:          spec.Name,
		Type:          spec.Type,
		Command:       spec.Command,
		Cwd:           spec.Cwd,
		Path:          spec.Path,
		Documentation: spec.Documentation,
		Inputs:        inputs,
	})
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("register %s %s: %w", spec.Type, spec.Name, err)
	}
	return a, nil
}

// variant resolves a CPU variant, applying <CPUConfigDir>/<name>.yaml when
// present. The override may not rename the variant.
func (l *Launcher) variant(name string) (cpuconfig.Variant, error) {
	v, err := cpuconfig.Lookup(name)
	if err != nil {
		return cpuconfig.Variant{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	dir := strings.TrimSpace(l.cfg.CPUConfigDir)
	if dir == "" {
		return v, nil
	}
	override := filepath.Join(dir, name+".yaml")
	if _, err := os.Stat(override); errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	v, err = cpuconfig.LoadConfig(override, v)
	if err != nil {
		return cpuconfig.Variant{}, fmt.Errorf("cpu override for %s: %w", name, err)
	}
	return v, nil
}

func (l *Launcher) benchmarkDir(bm string) string {
	return path.Join(l.cfg.BenchmarkDir, bm)
}

func (l *Launcher) benchmarkPath(bm string) string {
	return path.Join(l.cfg.BenchmarkDir, bm, "bench."+l.cfg.BenchmarkISA)
}

func variantMetadata(v cpuconfig.Variant) map[string]any {
	params := make(map[string]any, len(v.FUPool.Units)+32)
	for _, p := range v.Params() {
		params[p.Name] = p.Value
	}
	return map[string]any{"cpu_params": params}
}
