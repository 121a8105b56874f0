package runs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/domain"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/platform/lineageevent"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/repo"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/runtimeexec"
	store "github.com/ChenBoya-prj/gem5-skylake-config/internal/storage/objectstore"
	"github.com/google/uuid"
)

// RunTypeSE marks syscall-emulation runs.
const RunTypeSE = "gem5 run SE"

// SERunInput declares a syscall-emulation run. Params are passed to the run
// script verbatim after the script path.
type SERunInput struct {
	Name                 string
	Gem5Binary           string
	RunScript            string
	OutDir               string
	Gem5Artifact         domain.Artifact
	Gem5GitArtifact      domain.Artifact
	RunScriptGitArtifact domain.Artifact
	Artifacts            []domain.Artifact
	Params               []string
	CPU                  string
	Benchmark            string
	Metadata             domain.Metadata
}

// JobDefaults is applied to every job handed to the executor. Resources
// understands "cpus" and "memory".
type JobDefaults struct {
	Env       map[string]string
	Resources map[string]any
}

type Service struct {
	runs     repo.RunRepository
	lineage  repo.LineageRecorder
	executor runtimeexec.Executor
	cwd      string
	job      JobDefaults
	store    store.Store
	bucket   string
	logger   *slog.Logger
	now      func() time.Time
}

func New(runRepo repo.RunRepository, lineage repo.LineageRecorder, executor runtimeexec.Executor, cwd string, logger *slog.Logger) (*Service, error) {
	if runRepo == nil {
		return nil, errors.New("run repository is required")
	}
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		runs:     runRepo,
		lineage:  lineage,
		executor: executor,
		cwd:      strings.TrimSpace(cwd),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// WithOutputStore uploads the output directory of every run that finished
// successfully into bucket under runs/<run id>/.
func (s *Service) WithOutputStore(objects store.Store, bucket string) *Service {
	s.store = objects
	s.bucket = strings.TrimSpace(bucket)
	return s
}

func (s *Service) WithJobDefaults(job JobDefaults) *Service {
	s.job = job
	return s
}

// CreateSERun persists a new run in status created.
func (s *Service) CreateSERun(ctx context.Context, input SERunInput) (domain.Run, error) {
	if s == nil || s.runs == nil {
		return domain.Run{}, errors.New("run service not initialized")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Run{}, errors.New("run name is required")
	}
	gem5 := strings.TrimSpace(input.Gem5Binary)
	script := strings.TrimSpace(input.RunScript)
	outDir := strings.TrimSpace(input.OutDir)
	if gem5 == "" || script == "" || outDir == "" {
		return domain.Run{}, errors.New("gem5 binary, run script and outdir are required")
	}

	deps := []domain.Artifact{input.Gem5Artifact, input.Gem5GitArtifact, input.RunScriptGitArtifact}
	deps = append(deps, input.Artifacts...)
	artifactIDs := make([]string, 0, len(deps))
	artifactHashes := make([]string, 0, len(deps))
	for _, a := range deps {
		if strings.TrimSpace(a.ID) == "" {
			return domain.Run{}, fmt.Errorf("run %s: artifact %q is not registered", name, a.Name)
		}
		artifactIDs = append(artifactIDs, a.ID)
		artifactHashes = append(artifactHashes, a.Hash)
	}

	params := append([]string(nil), input.Params...)
	command := BuildCommand(gem5, outDir, script, params)
	now := s.now().UTC()

	hash, err := runHash(runHashInput{Command: command, Artifacts: artifactHashes})
	if err != nil {
		return domain.Run{}, err
	}

	run := domain.Run{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        RunTypeSE,
		CPU:         strings.TrimSpace(input.CPU),
		Benchmark:   strings.TrimSpace(input.Benchmark),
		OutDir:      outDir,
		Gem5Binary:  gem5,
		RunScript:   script,
		Params:      params,
		Command:     command,
		ArtifactIDs: artifactIDs,
		Hash:        hash,
		Status:      domain.RunStatusCreated,
		Executor:    s.executor.Kind(),
		Metadata:    input.Metadata.Clone(),
		CreatedAt:   now,
	}
	integrity, err := integritySHA256(run)
	if err != nil {
		return domain.Run{}, fmt.Errorf("integrity: %w", err)
	}
	run.IntegritySHA256 = integrity

	if err := s.runs.CreateRun(ctx, run); err != nil {
		return domain.Run{}, err
	}

	if s.lineage != nil {
		for _, a := range deps {
			if err := s.lineage.RecordEdge(ctx, repo.LineageEdge{
				SubjectType: lineageevent.KindArtifact,
				SubjectID:   a.ID,
				Predicate:   lineageevent.PredicateUsedBy,
				ObjectType:  lineageevent.KindRun,
				ObjectID:    run.ID,
				Metadata:    map[string]any{"artifact_type": a.Type},
			}); err != nil {
				return domain.Run{}, fmt.Errorf("record lineage for %s: %w", name, err)
			}
		}
	}
	return run, nil
}

// BuildCommand assembles the simulator command line.
func BuildCommand(gem5, outDir, runScript string, params []string) []string {
	command := []string{gem5, "-re", "--outdir=" + outDir, runScript}
	return append(command, params...)
}

// Submit hands the run to the executor and records the observed status. An
// executor error marks the run failed and is returned. Only runs still in
// status created can be submitted; anything else is repo.ErrConflict.
func (s *Service) Submit(ctx context.Context, run domain.Run) (domain.Run, error) {
	if s == nil || s.runs == nil || s.executor == nil {
		return domain.Run{}, errors.New("run service not initialized")
	}
	stored, err := s.runs.GetRun(ctx, run.ID)
	if err != nil {
		return domain.Run{}, err
	}
	if stored.Status != domain.RunStatusCreated {
		return domain.Run{}, fmt.Errorf("submit %s: run is %s: %w", run.Name, stored.Status, repo.ErrConflict)
	}
	if err := s.runs.UpdateRunStatus(ctx, run.ID, domain.RunStatusQueued, "", s.now().UTC()); err != nil {
		return domain.Run{}, err
	}

	obs, execErr := s.executor.Submit(ctx, runtimeexec.JobSpec{
		RunID:      run.ID,
		Name:       run.Name,
		Command:    append([]string(nil), run.Command...),
		Cwd:        s.cwd,
		OutDir:     run.OutDir,
		Env:        s.job.Env,
		DockerName: dockerName(run),
		Resources:  s.job.Resources,
	})
	if execErr != nil {
		s.logger.Error("run failed", "run_id", run.ID, "name", run.Name, "executor", s.executor.Kind(), "error", execErr)
		if err := s.runs.UpdateRunStatus(ctx, run.ID, domain.RunStatusFailed, execErr.Error(), s.now().UTC()); err != nil {
			return domain.Run{}, errors.Join(execErr, err)
		}
		return domain.Run{}, fmt.Errorf("submit %s: %w", run.Name, execErr)
	}

	status := domain.NormalizeRunStatus(obs.Status)
	if status == "" {
		status = domain.RunStatusQueued
	}
	if status != domain.RunStatusQueued {
		if err := s.runs.UpdateRunStatus(ctx, run.ID, status, obs.Message, s.now().UTC()); err != nil {
			return domain.Run{}, err
		}
	}

	if status == domain.RunStatusSucceeded {
		s.uploadOutputs(ctx, run)
	}

	s.logger.Info("run submitted",
		"run_id", run.ID,
		"name", run.Name,
		"executor", s.executor.Kind(),
		"status", string(status),
	)
	return s.runs.GetRun(ctx, run.ID)
}

// dockerName keeps container names unique when the same run name is
// launched twice.
func dockerName(run domain.Run) string {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return run.Name + "-" + id
}

func (s *Service) uploadOutputs(ctx context.Context, run domain.Run) {
	if s.store == nil || s.bucket == "" {
		return
	}
	dir := run.OutDir
	if !filepath.IsAbs(dir) && s.cwd != "" {
		dir = filepath.Join(s.cwd, dir)
	}
	objects, err := store.PutDir(ctx, s.store, s.bucket, "runs/"+run.ID, dir)
	if err != nil {
		s.logger.Error("run output upload failed", "run_id", run.ID, "outdir", dir, "error", err)
		return
	}
	s.logger.Info("run outputs uploaded", "run_id", run.ID, "objects", len(objects))
}
