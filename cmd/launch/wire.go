package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/artifacts"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/platform/env"
	platformstore "github.com/ChenBoya-prj/gem5-skylake-config/internal/platform/objectstore"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/platform/postgres"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/repo"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/repo/memory"
	pgrepo "github.com/ChenBoya-prj/gem5-skylake-config/internal/repo/postgres"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/runs"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/runtimeexec"
	store "github.com/ChenBoya-prj/gem5-skylake-config/internal/storage/objectstore"
	"github.com/google/uuid"
)

const (
	backendMemory   = "memory"
	backendPostgres = "postgres"

	executorLocal  = "local"
	executorDocker = "docker"
	executorDryRun = "dryrun"
)

type envConfig struct {
	ExperimentFile string
	Backend        string
	Executor       string
	WorkDir        string
	Actor          string
	DockerBin      string
	DockerImage    string
	DockerCPUs     int
	DockerMemory   string
	JobEnv         map[string]string
}

func loadEnvConfig() (envConfig, error) {
	cfg := envConfig{
		ExperimentFile: env.String("GEM5ART_CONFIG", ""),
		Backend:        strings.ToLower(env.String("GEM5ART_BACKEND", backendMemory)),
		Executor:       strings.ToLower(env.String("GEM5ART_EXECUTOR", executorLocal)),
		WorkDir:        env.String("GEM5ART_WORKDIR", "."),
		Actor:          env.String("GEM5ART_ACTOR", env.String("USER", "gem5art")),
		DockerBin:      env.String("GEM5ART_DOCKER_BIN", "docker"),
		DockerImage:    env.String("GEM5ART_DOCKER_IMAGE", ""),
		DockerMemory:   env.String("GEM5ART_DOCKER_MEMORY", ""),
	}
	cpus, err := env.Int("GEM5ART_DOCKER_CPUS", 0)
	if err != nil {
		return envConfig{}, err
	}
	if cpus < 0 {
		return envConfig{}, fmt.Errorf("GEM5ART_DOCKER_CPUS must not be negative, got %d", cpus)
	}
	cfg.DockerCPUs = cpus
	jobEnv, err := parseJobEnv(env.List("GEM5ART_JOB_ENV", nil))
	if err != nil {
		return envConfig{}, err
	}
	cfg.JobEnv = jobEnv
	switch cfg.Backend {
	case backendMemory, backendPostgres:
	default:
		return envConfig{}, fmt.Errorf("GEM5ART_BACKEND must be %s or %s, got %q", backendMemory, backendPostgres, cfg.Backend)
	}
	switch cfg.Executor {
	case executorLocal, executorDryRun:
	case executorDocker:
		if strings.TrimSpace(cfg.DockerImage) == "" {
			return envConfig{}, errors.New("GEM5ART_DOCKER_IMAGE is required for the docker executor")
		}
	default:
		return envConfig{}, fmt.Errorf("GEM5ART_EXECUTOR must be %s, %s or %s, got %q", executorLocal, executorDocker, executorDryRun, cfg.Executor)
	}
	return cfg, nil
}

// parseJobEnv reads KEY=VALUE entries. Later entries win.
func parseJobEnv(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("GEM5ART_JOB_ENV: entry %q is not KEY=VALUE", entry)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

func (c envConfig) jobDefaults() runs.JobDefaults {
	job := runs.JobDefaults{Env: c.JobEnv}
	if c.DockerCPUs > 0 || c.DockerMemory != "" {
		job.Resources = map[string]any{}
		if c.DockerCPUs > 0 {
			job.Resources["cpus"] = c.DockerCPUs
		}
		if c.DockerMemory != "" {
			job.Resources["memory"] = c.DockerMemory
		}
	}
	return job
}

type dependencies struct {
	launchID  string
	artifacts *artifacts.Service
	runs      *runs.Service
	db        *sql.DB
}

func (d *dependencies) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}
}

func wire(ctx context.Context, logger *slog.Logger, cfg envConfig) (*dependencies, error) {
	if _, err := os.Stat(cfg.WorkDir); err != nil {
		return nil, configError(fmt.Errorf("GEM5ART_WORKDIR: %w", err))
	}
	deps := &dependencies{launchID: uuid.NewString()}

	var (
		artifactRepo repo.ArtifactRepository
		runRepo      repo.RunRepository
		lineage      repo.LineageRecorder
	)
	switch cfg.Backend {
	case backendPostgres:
		dbCfg, err := postgres.ConfigFromEnv()
		if err != nil {
			return nil, configError(fmt.Errorf("invalid database config: %w", err))
		}
		db, err := postgres.Open(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("database unavailable: %w", err)
		}
		deps.db = db
		if err := pgrepo.EnsureSchema(ctx, db); err != nil {
			deps.Close()
			return nil, err
		}
		artifactRepo = pgrepo.NewArtifactStore(db)
		runRepo = pgrepo.NewRunStore(db)
		lineage = pgrepo.NewLineageStore(db, cfg.Actor, deps.launchID)
	default:
		mem := memory.New()
		artifactRepo, runRepo, lineage = mem, mem, mem
	}

	var executor runtimeexec.Executor
	switch cfg.Executor {
	case executorDocker:
		docker, err := runtimeexec.NewDockerExecutor(cfg.DockerBin, cfg.DockerImage)
		if err != nil {
			deps.Close()
			return nil, err
		}
		executor = docker
	case executorDryRun:
		executor = runtimeexec.NewDryRunExecutor()
	default:
		executor = runtimeexec.NewLocalExecutor()
	}

	registry, err := artifacts.NewService(artifactRepo, lineage, artifacts.NewFSHasher(cfg.WorkDir), logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	runService, err := runs.New(runRepo, lineage, executor, cfg.WorkDir, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	runService.WithJobDefaults(cfg.jobDefaults())

	storeCfg, err := platformstore.ConfigFromEnv()
	if err != nil {
		deps.Close()
		return nil, configError(fmt.Errorf("invalid object store config: %w", err))
	}
	if storeCfg.Enabled {
		objects, err := store.NewMinioStore(storeCfg)
		if err != nil {
			deps.Close()
			return nil, configError(fmt.Errorf("object store: %w", err))
		}
		if err := platformstore.EnsureBuckets(ctx, objects.Client(), storeCfg); err != nil {
			deps.Close()
			return nil, err
		}
		registry.WithObjectStore(objects, storeCfg.BucketArtifacts, cfg.WorkDir)
		runService.WithOutputStore(objects, storeCfg.BucketRuns)
	}

	deps.artifacts = registry
	deps.runs = runService
	return deps, nil
}
