package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/domain"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/repo"
)

const runColumns = `run_id, name, type, cpu, benchmark, outdir, gem5_binary, run_script, params, command, artifact_ids, hash, status, executor, message, metadata, created_at, submitted_at, ended_at, integrity_sha256`

type RunStore struct {
	db DB
}

func NewRunStore(db DB) *RunStore {
	if db == nil {
		return nil
	}
	return &RunStore{db: db}
}

func (s *RunStore) CreateRun(ctx context.Context, run domain.Run) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("run store not initialized")
	}
	if err := run.Validate(); err != nil {
		return err
	}
	if err := requireIntegrity(run.IntegritySHA256); err != nil {
		return err
	}
	paramsJSON, err := encodeStrings(run.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	commandJSON, err := encodeStrings(run.Command)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	artifactsJSON, err := encodeStrings(run.ArtifactIDs)
	if err != nil {
		return fmt.Errorf("encode artifact ids: %w", err)
	}
	metadataJSON, err := encodeMetadata(run.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		strings.TrimSpace(run.ID),
		strings.TrimSpace(run.Name),
		strings.TrimSpace(run.Type),
		strings.TrimSpace(run.CPU),
		strings.TrimSpace(run.Benchmark),
		strings.TrimSpace(run.OutDir),
		strings.TrimSpace(run.Gem5Binary),
		strings.TrimSpace(run.RunScript),
		paramsJSON,
		commandJSON,
		artifactsJSON,
		strings.TrimSpace(run.Hash),
		string(run.Status),
		nullIfEmpty(run.Executor),
		nullIfEmpty(run.Message),
		metadataJSON,
		normalizeTime(run.CreatedAt),
		nullTime(run.SubmittedAt),
		nullTime(run.EndedAt),
		strings.TrimSpace(run.IntegritySHA256),
	)
	if err != nil {
		return translateWriteError("insert run", err)
	}
	return nil
}

func (s *RunStore) GetRun(ctx context.Context, id string) (domain.Run, error) {
	if s == nil || s.db == nil {
		return domain.Run{}, fmt.Errorf("run store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Run{}, fmt.Errorf("run id is required")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = $1`, id)
	run, err := scanRun(row)
	if err != nil {
		return domain.Run{}, handleNotFound(err)
	}
	return run, nil
}

func (s *RunStore) UpdateRunStatus(ctx context.Context, id string, status domain.RunStatus, message string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("run store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("run id is required")
	}
	if domain.NormalizeRunStatus(string(status)) == "" {
		return fmt.Errorf("invalid run status %q", status)
	}
	at = normalizeTime(at)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET
			status = $2,
			message = $3,
			submitted_at = CASE WHEN $2 = 'queued' AND submitted_at IS NULL THEN $4 ELSE submitted_at END,
			ended_at = CASE WHEN $2 IN ('succeeded', 'failed') THEN $4 ELSE ended_at END
		 WHERE run_id = $1 AND status = ANY($5)`,
		id,
		string(status),
		nullIfEmpty(message),
		at,
		predecessorStatuses(status),
	)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if n > 0 {
		return nil
	}

	var current string
	if err := s.db.QueryRowContext(ctx, `SELECT status FROM runs WHERE run_id = $1`, id).Scan(&current); err != nil {
		return handleNotFound(err)
	}
	return fmt.Errorf("run %s: %s -> %s: %w", id, current, status, repo.ErrConflict)
}

// predecessorStatuses lists the stored statuses an update to next may replace.
func predecessorStatuses(next domain.RunStatus) []string {
	prev := domain.PredecessorsOf(next)
	out := make([]string, 0, len(prev))
	for _, p := range prev {
		out = append(out, string(p))
	}
	return out
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func scanRun(row rowScanner) (domain.Run, error) {
	var run domain.Run
	var status string
	var executor, message sql.NullString
	var paramsJSON, commandJSON, artifactsJSON, metadataJSON []byte
	var submittedAt, endedAt sql.NullTime
	if err := row.Scan(
		&run.ID,
		&run.Name,
		&run.Type,
		&run.CPU,
		&run.Benchmark,
		&run.OutDir,
		&run.Gem5Binary,
		&run.RunScript,
		&paramsJSON,
		&commandJSON,
		&artifactsJSON,
		&run.Hash,
		&status,
		&executor,
		&message,
		&metadataJSON,
		&run.CreatedAt,
		&submittedAt,
		&endedAt,
		&run.IntegritySHA256,
	); err != nil {
		return domain.Run{}, err
	}
	run.Status = domain.RunStatus(status)
	run.Executor = executor.String
	run.Message = message.String
	run.CreatedAt = run.CreatedAt.UTC()
	if submittedAt.Valid {
		t := submittedAt.Time.UTC()
		run.SubmittedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time.UTC()
		run.EndedAt = &t
	}
	var err error
	if run.Params, err = decodeStrings(paramsJSON); err != nil {
		return domain.Run{}, fmt.Errorf("decode params: %w", err)
	}
	if run.Command, err = decodeStrings(commandJSON); err != nil {
		return domain.Run{}, fmt.Errorf("decode command: %w", err)
	}
	if run.ArtifactIDs, err = decodeStrings(artifactsJSON); err != nil {
		return domain.Run{}, fmt.Errorf("decode artifact ids: %w", err)
	}
	if run.Metadata, err = decodeMetadata(metadataJSON); err != nil {
		return domain.Run{}, fmt.Errorf("decode metadata: %w", err)
	}
	return run, nil
}
