package repo

import (
	"context"
	"time"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/domain"
)

type ArtifactFilter struct {
	Name  string
	Type  string
	Hash  string
	Limit int
}

// ArtifactRepository stores immutable provenance records.
type ArtifactRepository interface {
	CreateArtifact(ctx context.Context, artifact domain.Artifact) error
	GetArtifact(ctx context.Context, id string) (domain.Artifact, error)
	ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]domain.Artifact, error)
}

// RunRepository stores runs with immutable identity and mutable status.
type RunRepository interface {
	CreateRun(ctx context.Context, run domain.Run) error
	GetRun(ctx context.Context, id string) (domain.Run, error)
	UpdateRunStatus(ctx context.Context, id string, status domain.RunStatus, message string, at time.Time) error
}

// LineageEdge links two provenance records.
type LineageEdge struct {
	SubjectType string
	SubjectID   string
	Predicate   string
	ObjectType  string
	ObjectID    string
	Metadata    map[string]any
}

// LineageRecorder appends provenance edges.
type LineageRecorder interface {
	RecordEdge(ctx context.Context, edge LineageEdge) error
}
