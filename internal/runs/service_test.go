package runs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/domain"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/repo"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/repo/memory"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/runtimeexec"
	store "github.com/ChenBoya-prj/gem5-skylake-config/internal/storage/objectstore"
)

type fakeExecutor struct {
	obs   runtimeexec.Observation
	err   error
	specs []runtimeexec.JobSpec
}

func (e *fakeExecutor) Kind() string { return "fake" }

func (e *fakeExecutor) Submit(ctx context.Context, spec runtimeexec.JobSpec) (runtimeexec.Observation, error) {
	e.specs = append(e.specs, spec)
	return e.obs, e.err
}

type fakeStore struct {
	keys []string
}

func (s *fakeStore) Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	s.keys = append(s.keys, key)
	return nil
}

func (s *fakeStore) Stat(ctx context.Context, bucket, key string) (store.ObjectInfo, error) {
	return store.ObjectInfo{}, errors.New("not implemented")
}

func testArtifacts() (domain.Artifact, domain.Artifact, domain.Artifact) {
	return domain.Artifact{ID: "a-bin", Name: "gem5", Type: domain.ArtifactTypeGem5Binary, Hash: "h1"},
		domain.Artifact{ID: "a-repo", Name: "gem5", Type: domain.ArtifactTypeGitRepo, Hash: "h2"},
		domain.Artifact{ID: "a-exp", Name: "gem5_skylake_config", Type: domain.ArtifactTypeGitRepo, Hash: "h3"}
}

func newTestService(t *testing.T, exec runtimeexec.Executor, cwd string) (*Service, *memory.Store) {
	t.Helper()
	mem := memory.New()
	svc, err := New(mem, mem, exec, cwd, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, mem
}

func seInput() SERunInput {
	bin, gem5Repo, expRepo := testArtifacts()
	return SERunInput{
		Name:                 "skylake_micro-benchmarks_run_Calib_CCa",
		Gem5Binary:           "gem5/build/X86/gem5.opt",
		RunScript:            "gem5-configs/run.py",
		OutDir:               "stats/microbenchmark-experiments/Calib/CCa",
		Gem5Artifact:         bin,
		Gem5GitArtifact:      gem5Repo,
		RunScriptGitArtifact: expRepo,
		Params:               []string{"Calib", "microbench/CCa/bench.X86"},
		CPU:                  "Calib",
		Benchmark:            "CCa",
	}
}

func TestBuildCommand(t *testing.T) {
	got := BuildCommand("gem5.opt", "stats/x", "run.py", []string{"Calib", "bench.X86"})
	want := []string{"gem5.opt", "-re", "--outdir=stats/x", "run.py", "Calib", "bench.X86"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BuildCommand()=%v, want %v", got, want)
	}
}

func TestCreateSERunPersistsCreated(t *testing.T) {
	svc, mem := newTestService(t, &fakeExecutor{}, "")
	run, err := svc.CreateSERun(context.Background(), seInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if run.Status != domain.RunStatusCreated || run.IntegritySHA256 == "" || run.Hash == "" {
		t.Fatalf("unexpected run %+v", run)
	}
	if !reflect.DeepEqual(run.ArtifactIDs, []string{"a-bin", "a-repo", "a-exp"}) {
		t.Fatalf("unexpected artifact ids %v", run.ArtifactIDs)
	}
	if run.Command[2] != "--outdir=stats/microbenchmark-experiments/Calib/CCa" {
		t.Fatalf("unexpected command %v", run.Command)
	}
	if _, err := mem.GetRun(context.Background(), run.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	edges := mem.Edges()
	if len(edges) != 3 {
		t.Fatalf("expected 3 used_by edges, got %d", len(edges))
	}
	for _, e := range edges {
		if e.Predicate != "used_by" || e.ObjectID != run.ID {
			t.Fatalf("unexpected edge %+v", e)
		}
	}
}

func TestCreateSERunRequiresRegisteredArtifacts(t *testing.T) {
	svc, _ := newTestService(t, &fakeExecutor{}, "")
	in := seInput()
	in.Gem5Artifact = domain.Artifact{Name: "gem5"}
	if _, err := svc.CreateSERun(context.Background(), in); err == nil {
		t.Fatalf("expected error for unregistered artifact")
	}
}

func TestSubmitRecordsObservedStatus(t *testing.T) {
	exec := &fakeExecutor{obs: runtimeexec.Observation{Status: "running", Message: "container started"}}
	svc, _ := newTestService(t, exec, "/srv/exp")
	run, err := svc.CreateSERun(context.Background(), seInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.Submit(context.Background(), run)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if updated.Status != domain.RunStatusRunning || updated.SubmittedAt == nil {
		t.Fatalf("unexpected run %+v", updated)
	}
	if len(exec.specs) != 1 || exec.specs[0].Cwd != "/srv/exp" || exec.specs[0].RunID != run.ID {
		t.Fatalf("unexpected specs %+v", exec.specs)
	}
}

func TestSubmitMarksFailedOnExecutorError(t *testing.T) {
	boom := errors.New("boom")
	svc, mem := newTestService(t, &fakeExecutor{err: boom}, "")
	run, err := svc.CreateSERun(context.Background(), seInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Submit(context.Background(), run); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	stored, _ := mem.GetRun(context.Background(), run.ID)
	if stored.Status != domain.RunStatusFailed || stored.EndedAt == nil || stored.Message != "boom" {
		t.Fatalf("unexpected stored run %+v", stored)
	}
}

func TestSubmitUploadsOutputsOnSuccess(t *testing.T) {
	cwd := t.TempDir()
	in := seInput()
	outDir := filepath.Join(cwd, in.OutDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "stats.txt"), []byte("simSeconds 0.1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	objects := &fakeStore{}
	svc, _ := newTestService(t, &fakeExecutor{obs: runtimeexec.Observation{Status: "succeeded"}}, cwd)
	svc.WithOutputStore(objects, "runs")

	run, err := svc.CreateSERun(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.Submit(context.Background(), run)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if updated.Status != domain.RunStatusSucceeded {
		t.Fatalf("unexpected status %s", updated.Status)
	}
	if len(objects.keys) != 1 || objects.keys[0] != "runs/"+run.ID+"/stats.txt" {
		t.Fatalf("unexpected uploads %v", objects.keys)
	}
}

func TestSubmitRejectsFinishedRun(t *testing.T) {
	exec := &fakeExecutor{obs: runtimeexec.Observation{Status: "succeeded"}}
	svc, mem := newTestService(t, exec, "")
	run, err := svc.CreateSERun(context.Background(), seInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Submit(context.Background(), run); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), run); !errors.Is(err, repo.ErrConflict) {
		t.Fatalf("expected ErrConflict on resubmit, got %v", err)
	}
	if len(exec.specs) != 1 {
		t.Fatalf("executor called %d times, want 1", len(exec.specs))
	}
	stored, _ := mem.GetRun(context.Background(), run.ID)
	if stored.Status != domain.RunStatusSucceeded {
		t.Fatalf("stored status %s, want succeeded", stored.Status)
	}
}

func TestSubmitPassesJobDefaults(t *testing.T) {
	exec := &fakeExecutor{obs: runtimeexec.Observation{Status: "queued"}}
	svc, _ := newTestService(t, exec, "")
	svc.WithJobDefaults(JobDefaults{
		Env:       map[string]string{"M5_OVERRIDE_PY_SOURCE": "true"},
		Resources: map[string]any{"cpus": 2, "memory": "8g"},
	})
	run, err := svc.CreateSERun(context.Background(), seInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Submit(context.Background(), run); err != nil {
		t.Fatalf("submit: %v", err)
	}
	spec := exec.specs[0]
	if spec.Env["M5_OVERRIDE_PY_SOURCE"] != "true" || spec.Resources["memory"] != "8g" || spec.Resources["cpus"] != 2 {
		t.Fatalf("job defaults not applied: %+v", spec)
	}
	if want := run.Name + "-" + run.ID[:8]; spec.DockerName != want {
		t.Fatalf("DockerName=%q, want %q", spec.DockerName, want)
	}
}
