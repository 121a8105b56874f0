// Package memory provides in-process repositories for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/domain"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/platform/lineageevent"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/repo"
)

// Store keeps artifacts, runs and lineage edges in insertion order.
type Store struct {
	mu        sync.Mutex
	artifacts map[string]domain.Artifact
	artOrder  []string
	runs      map[string]domain.Run
	runOrder  []string
	edges     []repo.LineageEdge
}

func New() *Store {
	return &Store{
		artifacts: make(map[string]domain.Artifact),
		runs:      make(map[string]domain.Run),
	}
}

func (s *Store) CreateArtifact(ctx context.Context, artifact domain.Artifact) error {
	if err := artifact.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[artifact.ID]; ok {
		return fmt.Errorf("artifact %s: %w", artifact.ID, repo.ErrConflict)
	}
	s.artifacts[artifact.ID] = cloneArtifact(artifact)
	s.artOrder = append(s.artOrder, artifact.ID)
	return nil
}

func (s *Store) GetArtifact(ctx context.Context, id string) (domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[strings.TrimSpace(id)]
	if !ok {
		return domain.Artifact{}, repo.ErrNotFound
	}
	return cloneArtifact(a), nil
}

func (s *Store) ListArtifacts(ctx context.Context, filter repo.ArtifactFilter) ([]domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Artifact, 0)
	for _, id := range s.artOrder {
		a := s.artifacts[id]
		if filter.Name != "" && a.Name != filter.Name {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Hash != "" && a.Hash != filter.Hash {
			continue
		}
		out = append(out, cloneArtifact(a))
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CreateRun(ctx context.Context, run domain.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("run %s: %w", run.ID, repo.ErrConflict)
	}
	s.runs[run.ID] = cloneRun(run)
	s.runOrder = append(s.runOrder, run.ID)
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[strings.TrimSpace(id)]
	if !ok {
		return domain.Run{}, repo.ErrNotFound
	}
	return cloneRun(r), nil
}

func (s *Store) UpdateRunStatus(ctx context.Context, id string, status domain.RunStatus, message string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[strings.TrimSpace(id)]
	if !ok {
		return repo.ErrNotFound
	}
	if !r.Status.CanTransitionTo(status) {
		return fmt.Errorf("run %s: %s -> %s: %w", r.ID, r.Status, status, repo.ErrConflict)
	}
	r.Status = status
	r.Message = message
	t := at.UTC()
	switch {
	case status == domain.RunStatusQueued && r.SubmittedAt == nil:
		r.SubmittedAt = &t
	case status.Terminal():
		r.EndedAt = &t
	}
	s.runs[r.ID] = r
	return nil
}

// RecordEdge keeps one copy of each subject, predicate and object triple.
func (s *Store) RecordEdge(ctx context.Context, edge repo.LineageEdge) error {
	if err := lineageevent.CheckEdge(edge.SubjectType, edge.Predicate, edge.ObjectType); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		if e.SubjectID == edge.SubjectID && e.Predicate == edge.Predicate && e.ObjectID == edge.ObjectID {
			return nil
		}
	}
	s.edges = append(s.edges, edge)
	return nil
}

// Edges returns a copy of the recorded lineage edges.
func (s *Store) Edges() []repo.LineageEdge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repo.LineageEdge(nil), s.edges...)
}

func cloneArtifact(a domain.Artifact) domain.Artifact {
	a.Inputs = append([]string(nil), a.Inputs...)
	a.Metadata = a.Metadata.Clone()
	return a
}

func cloneRun(r domain.Run) domain.Run {
	r.Params = append([]string(nil), r.Params...)
	r.Command = append([]string(nil), r.Command...)
	r.ArtifactIDs = append([]string(nil), r.ArtifactIDs...)
	r.Metadata = r.Metadata.Clone()
	if r.SubmittedAt != nil {
		t := *r.SubmittedAt
		r.SubmittedAt = &t
	}
	if r.EndedAt != nil {
		t := *r.EndedAt
		r.EndedAt = &t
	}
	return r
}
