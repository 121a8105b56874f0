package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/domain"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/repo"
)

const artifactColumns = `artifact_id, name, type, command, cwd, path, documentation, inputs, hash, git_url, git_hash, object_key, metadata, created_at, integrity_sha256`

type ArtifactStore struct {
	db DB
}

func NewArtifactStore(db DB) *ArtifactStore {
	if db == nil {
		return nil
	}
	return &ArtifactStore{db: db}
}

func (s *ArtifactStore) CreateArtifact(ctx context.Context, artifact domain.Artifact) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("artifact store not initialized")
	}
	if err := artifact.Validate(); err != nil {
		return err
	}
	if err := requireIntegrity(artifact.IntegritySHA256); err != nil {
		return err
	}
	inputsJSON, err := encodeStrings(artifact.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	metadataJSON, err := encodeMetadata(artifact.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO artifacts (`+artifactColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		strings.TrimSpace(artifact.ID),
		strings.TrimSpace(artifact.Name),
		strings.TrimSpace(artifact.Type),
		artifact.Command,
		strings.TrimSpace(artifact.Cwd),
		strings.TrimSpace(artifact.Path),
		artifact.Documentation,
		inputsJSON,
		strings.TrimSpace(artifact.Hash),
		nullIfEmpty(artifact.GitURL),
		nullIfEmpty(artifact.GitHash),
		nullIfEmpty(artifact.ObjectKey),
		metadataJSON,
		normalizeTime(artifact.CreatedAt),
		strings.TrimSpace(artifact.IntegritySHA256),
	)
	if err != nil {
		return translateWriteError("insert artifact", err)
	}
	return nil
}

func (s *ArtifactStore) GetArtifact(ctx context.Context, id string) (domain.Artifact, error) {
	if s == nil || s.db == nil {
		return domain.Artifact{}, fmt.Errorf("artifact store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Artifact{}, fmt.Errorf("artifact id is required")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE artifact_id = $1`, id)
	artifact, err := scanArtifact(row)
	if err != nil {
		return domain.Artifact{}, handleNotFound(err)
	}
	return artifact, nil
}

func (s *ArtifactStore) ListArtifacts(ctx context.Context, filter repo.ArtifactFilter) ([]domain.Artifact, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("artifact store not initialized")
	}
	query, args := buildArtifactListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := make([]domain.Artifact, 0)
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return artifacts, nil
}

func buildArtifactListQuery(filter repo.ArtifactFilter) (string, []any) {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if v := strings.TrimSpace(filter.Name); v != "" {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf("name = $%d", len(args)))
	}
	if v := strings.TrimSpace(filter.Type); v != "" {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf("type = $%d", len(args)))
	}
	if v := strings.TrimSpace(filter.Hash); v != "" {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf("hash = $%d", len(args)))
	}

	query := `SELECT ` + artifactColumns + ` FROM artifacts`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (domain.Artifact, error) {
	var artifact domain.Artifact
	var inputsJSON, metadataJSON []byte
	var gitURL, gitHash, objectKey sql.NullString
	if err := row.Scan(
		&artifact.ID,
		&artifact.Name,
		&artifact.Type,
		&artifact.Command,
		&artifact.Cwd,
		&artifact.Path,
		&artifact.Documentation,
		&inputsJSON,
		&artifact.Hash,
		&gitURL,
		&gitHash,
		&objectKey,
		&metadataJSON,
		&artifact.CreatedAt,
		&artifact.IntegritySHA256,
	); err != nil {
		return domain.Artifact{}, err
	}
	artifact.GitURL = gitURL.String
	artifact.GitHash = gitHash.String
	artifact.ObjectKey = objectKey.String
	inputs, err := decodeStrings(inputsJSON)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("decode inputs: %w", err)
	}
	artifact.Inputs = inputs
	meta, err := decodeMetadata(metadataJSON)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("decode metadata: %w", err)
	}
	artifact.Metadata = meta
	artifact.CreatedAt = artifact.CreatedAt.UTC()
	return artifact, nil
}
