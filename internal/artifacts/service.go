// Package artifacts registers provenance records for everything a simulation
// run depends on: source repositories, the simulator binary, run scripts and
// benchmark binaries.
package artifacts

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
	store "github.com/ChenBoya-prj/gem5-skylake-config/internal/storage/objectstore"
	"github.com/google/uuid"
)

// RegisterInput declares an artifact. Inputs must already be registered.
type RegisterInput struct {
	Name          string
	Type          string
	Command       string
	Cwd           string
	Path          string
	Documentation string
	Inputs        []domain.Artifact
}

// Service coordinates artifact hashing, persistence and payload upload.
type Service struct {
	repo    repo.ArtifactRepository
	lineage repo.LineageRecorder
	hasher  Hasher
	store   store.Store
	bucket  string
	root    string
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(artifacts repo.ArtifactRepository, lineage repo.LineageRecorder, hasher Hasher, logger *slog.Logger) (*Service, error) {
	if artifacts == nil {
		return nil, errors.New("artifact repository is required")
	}
	if hasher == nil {
		return nil, errors.New("hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    artifacts,
		lineage: lineage,
		hasher:  hasher,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// WithObjectStore enables uploading regular-file payloads into bucket. Relative
// artifact paths are resolved against root.
func (s *Service) WithObjectStore(objects store.Store, bucket, root string) *Service {
	s.store = objects
	s.bucket = strings.TrimSpace(bucket)
	s.root = strings.TrimSpace(root)
	return s
}

// Register hashes and stores an artifact. An artifact with the same hash, name
// and type is returned as is. Input edges are recorded on both paths, so a
// launch that failed after storing the artifact still gets its lineage on the
// next attempt; lineage recorders treat the log as append-only per launch.
func (s *Service) Register(ctx context.Context, input RegisterInput) (domain.Artifact, error) {
	if s == nil || s.repo == nil {
		return domain.Artifact{}, errors.New("artifact service not initialized")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Artifact{}, errors.New("artifact name is required")
	}
	kind := strings.TrimSpace(input.Type)
	if kind == "" {
		return domain.Artifact{}, errors.New("artifact type is required")
	}
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return domain.Artifact{}, errors.New("artifact path is required")
	}

	inputIDs := make([]string, 0, len(input.Inputs))
	for _, in := range input.Inputs {
		if _, err := s.repo.GetArtifact(ctx, in.ID); err != nil {
			return domain.Artifact{}, fmt.Errorf("artifact %s input %q: %w", name, in.Name, err)
		}
		inputIDs = append(inputIDs, in.ID)
	}

	hashed, err := s.hasher.Hash(ctx, input)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("hash artifact %s: %w", name, err)
	}

	existing, err := s.repo.ListArtifacts(ctx, repo.ArtifactFilter{Name: name, Type: kind, Hash: hashed.Hash, Limit: 1})
	if err != nil {
		return domain.Artifact{}, err
	}
	if len(existing) > 0 {
		s.logger.Debug("artifact already registered", "artifact_id", existing[0].ID, "name", name, "type", kind)
		if err := s.recordInputs(ctx, existing[0], input.Inputs); err != nil {
			return domain.Artifact{}, err
		}
		return existing[0], nil
	}

	now := s.now().UTC()
	artifactID := uuid.NewString()
	metadata := domain.Metadata{"content_hashed": hashed.ContentHashed}

	objectKey := ""
	if s.store != nil && s.bucket != "" && hashed.ContentHashed && kind != domain.ArtifactTypeGitRepo {
		objectKey = fmt.Sprintf("artifacts/%s/%s", artifactID, filepath.Base(path))
		info, err := store.PutFile(ctx, s.store, s.bucket, objectKey, s.resolve(path))
		if err != nil {
			return domain.Artifact{}, fmt.Errorf("upload artifact %s: %w", name, err)
		}
		metadata["size_bytes"] = info.Size
		metadata["content_type"] = info.ContentType
	}

	integrity, err := integritySHA256(artifactIntegrityInput{
		ArtifactID:    artifactID,
		Name:          name,
		Type:          kind,
		Command:       input.Command,
		Cwd:           strings.TrimSpace(input.Cwd),
		Path:          path,
		Documentation: input.Documentation,
		Inputs:        inputIDs,
		Hash:          hashed.Hash,
		GitURL:        hashed.GitURL,
		GitHash:       hashed.GitHash,
		ObjectKey:     objectKey,
		Metadata:      metadata,
		CreatedAt:     now,
	})
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("integrity: %w", err)
	}

	artifact := domain.Artifact{
		ID:              artifactID,
		Name:            name,
		Type:            kind,
		Command:         input.Command,
		Cwd:             strings.TrimSpace(input.Cwd),
		Path:            path,
		Documentation:   input.Documentation,
		Inputs:          inputIDs,
		Hash:            hashed.Hash,
		GitURL:          hashed.GitURL,
		GitHash:         hashed.GitHash,
		ObjectKey:       objectKey,
		Metadata:        metadata,
		CreatedAt:       now,
		IntegritySHA256: integrity,
	}
	if err := s.repo.CreateArtifact(ctx, artifact); err != nil {
		return domain.Artifact{}, err
	}

	if err := s.recordInputs(ctx, artifact, input.Inputs); err != nil {
		return domain.Artifact{}, err
	}

	s.logger.Info("artifact registered",
		"artifact_id", artifact.ID,
		"name", artifact.Name,
		"type", artifact.Type,
		"hash", artifact.Hash,
		"inputs", len(artifact.Inputs),
	)
	return artifact, nil
}

func (s *Service) recordInputs(ctx context.Context, artifact domain.Artifact, inputs []domain.Artifact) error {
	if s.lineage == nil {
		return nil
	}
	for _, in := range inputs {
		if err := s.lineage.RecordEdge(ctx, repo.LineageEdge{
			SubjectType: lineageevent.KindArtifact,
			SubjectID:   artifact.ID,
			Predicate:   lineageevent.PredicateDerivedFrom,
			ObjectType:  lineageevent.KindArtifact,
			ObjectID:    in.ID,
			Metadata:    map[string]any{"input_name": in.Name},
		}); err != nil {
			return fmt.Errorf("record lineage for %s: %w", artifact.Name, err)
		}
	}
	return nil
}

func (s *Service) resolve(path string) string {
	if filepath.IsAbs(path) || s.root == "" {
		return path
	}
	return filepath.Join(s.root, path)
}
