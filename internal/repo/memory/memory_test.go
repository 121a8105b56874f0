package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/domain"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/platform/lineageevent"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/repo"
)

func testArtifact(id, name string) domain.Artifact {
	return domain.Artifact{ID: id, Name: name, Type: domain.ArtifactTypeBinary, Path: "microbench/" + name + "/bench.X86", Hash: "h-" + id}
}

func TestCreateArtifactRejectsDuplicateID(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateArtifact(ctx, testArtifact("a1", "CCa")); err != nil {
		t.Fatalf("CreateArtifact() err=%v", err)
	}
	err := s.CreateArtifact(ctx, testArtifact("a1", "CCe"))
	if !errors.Is(err, repo.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetArtifactNotFound(t *testing.T) {
	_, err := New().GetArtifact(context.Background(), "missing")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListArtifactsFiltersInOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i, name := range []string{"CCa", "CCe", "CCa"} {
		a := testArtifact(string(rune('a'+i)), name)
		if err := s.CreateArtifact(ctx, a); err != nil {
			t.Fatalf("CreateArtifact() err=%v", err)
		}
	}
	got, err := s.ListArtifacts(ctx, repo.ArtifactFilter{Name: "CCa"})
	if err != nil {
		t.Fatalf("ListArtifacts() err=%v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected artifacts: %+v", got)
	}
	limited, _ := s.ListArtifacts(ctx, repo.ArtifactFilter{Limit: 1})
	if len(limited) != 1 {
		t.Fatalf("expected limit 1, got %d", len(limited))
	}
}

func TestUpdateRunStatusStampsTimes(t *testing.T) {
	s := New()
	ctx := context.Background()
	run := domain.Run{
		ID:         "r1",
		Name:       "run",
		Gem5Binary: "gem5.opt",
		RunScript:  "run.py",
		OutDir:     "out",
		Command:    []string{"gem5.opt"},
		Status:     domain.RunStatusCreated,
	}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() err=%v", err)
	}
	now := time.Unix(1700000000, 0)
	if err := s.UpdateRunStatus(ctx, "r1", domain.RunStatusQueued, "", now); err != nil {
		t.Fatalf("UpdateRunStatus() err=%v", err)
	}
	if err := s.UpdateRunStatus(ctx, "r1", domain.RunStatusSucceeded, "exit 0", now.Add(time.Minute)); err != nil {
		t.Fatalf("UpdateRunStatus() err=%v", err)
	}
	got, _ := s.GetRun(ctx, "r1")
	if got.SubmittedAt == nil || got.EndedAt == nil {
		t.Fatalf("expected submitted and ended times, got %+v", got)
	}
	if got.Message != "exit 0" {
		t.Fatalf("unexpected message %q", got.Message)
	}
	if err := s.UpdateRunStatus(ctx, "nope", domain.RunStatusFailed, "", now); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testRun(id string) domain.Run {
	return domain.Run{
		ID:         id,
		Name:       "run",
		Gem5Binary: "gem5.opt",
		RunScript:  "run.py",
		OutDir:     "out",
		Params:     []string{"Calib", "microbench/CCa/bench.X86"},
		Command:    []string{"gem5.opt"},
		Status:     domain.RunStatusCreated,
		Metadata:   domain.Metadata{"cpu": "Calib"},
	}
}

func TestUpdateRunStatusRejectsBackwardTransitions(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateRun(ctx, testRun("r1")); err != nil {
		t.Fatalf("CreateRun() err=%v", err)
	}
	now := time.Unix(1700000000, 0)
	if err := s.UpdateRunStatus(ctx, "r1", domain.RunStatusRunning, "", now); !errors.Is(err, repo.ErrConflict) {
		t.Fatalf("expected created -> running to conflict, got %v", err)
	}
	for _, status := range []domain.RunStatus{domain.RunStatusQueued, domain.RunStatusSucceeded} {
		if err := s.UpdateRunStatus(ctx, "r1", status, "", now); err != nil {
			t.Fatalf("UpdateRunStatus(%s) err=%v", status, err)
		}
	}
	for _, status := range []domain.RunStatus{domain.RunStatusQueued, domain.RunStatusRunning, domain.RunStatusFailed} {
		if err := s.UpdateRunStatus(ctx, "r1", status, "", now); !errors.Is(err, repo.ErrConflict) {
			t.Fatalf("expected succeeded -> %s to conflict, got %v", status, err)
		}
	}
	got, _ := s.GetRun(ctx, "r1")
	if got.Status != domain.RunStatusSucceeded {
		t.Fatalf("status changed after rejected transitions: %s", got.Status)
	}
}

func TestRunsAreCopiedInAndOut(t *testing.T) {
	s := New()
	ctx := context.Background()
	run := testRun("r1")
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() err=%v", err)
	}
	run.Params[0] = "Max"
	run.Metadata["cpu"] = "Max"

	got, _ := s.GetRun(ctx, "r1")
	if got.Params[0] != "Calib" || got.Metadata["cpu"] != "Calib" {
		t.Fatalf("stored run shares caller state: %+v", got)
	}
	got.Command[0] = "other"
	got.Metadata["cpu"] = "UnCalib"
	again, _ := s.GetRun(ctx, "r1")
	if again.Command[0] != "gem5.opt" || again.Metadata["cpu"] != "Calib" {
		t.Fatalf("returned run shares stored state: %+v", again)
	}
}

func TestRecordEdgeSkipsRepeatsAndChecksKinds(t *testing.T) {
	s := New()
	ctx := context.Background()
	edge := repo.LineageEdge{
		SubjectType: lineageevent.KindArtifact,
		SubjectID:   "a-bin",
		Predicate:   lineageevent.PredicateUsedBy,
		ObjectType:  lineageevent.KindRun,
		ObjectID:    "run-1",
	}
	for i := 0; i < 2; i++ {
		if err := s.RecordEdge(ctx, edge); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if got := len(s.Edges()); got != 1 {
		t.Fatalf("expected 1 edge, got %d", got)
	}

	edge.ObjectType = lineageevent.KindArtifact
	if err := s.RecordEdge(ctx, edge); err == nil {
		t.Fatalf("expected used_by artifact->artifact to be rejected")
	}
}
