package postgres

import (
	"context"
	"fmt"
)

// Schema creates the tables used by the stores. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	artifact_id      UUID PRIMARY KEY,
	name             TEXT NOT NULL,
	type             TEXT NOT NULL,
	command          TEXT NOT NULL DEFAULT '',
	cwd              TEXT NOT NULL DEFAULT '',
	path             TEXT NOT NULL,
	documentation    TEXT NOT NULL DEFAULT '',
	inputs           JSONB NOT NULL DEFAULT '[]',
	hash             TEXT NOT NULL,
	git_url          TEXT,
	git_hash         TEXT,
	object_key       TEXT,
	metadata         JSONB NOT NULL DEFAULT '{}',
	created_at       TIMESTAMPTZ NOT NULL,
	integrity_sha256 TEXT NOT NULL,
	UNIQUE (hash, name, type)
);

CREATE TABLE IF NOT EXISTS runs (
	run_id           UUID PRIMARY KEY,
	name             TEXT NOT NULL,
	type             TEXT NOT NULL,
	cpu              TEXT NOT NULL,
	benchmark        TEXT NOT NULL,
	outdir           TEXT NOT NULL,
	gem5_binary      TEXT NOT NULL,
	run_script       TEXT NOT NULL,
	params           JSONB NOT NULL DEFAULT '[]',
	command          JSONB NOT NULL DEFAULT '[]',
	artifact_ids     JSONB NOT NULL DEFAULT '[]',
	hash             TEXT NOT NULL,
	status           TEXT NOT NULL,
	executor         TEXT,
	message          TEXT,
	metadata         JSONB NOT NULL DEFAULT '{}',
	created_at       TIMESTAMPTZ NOT NULL,
	submitted_at     TIMESTAMPTZ,
	ended_at         TIMESTAMPTZ,
	integrity_sha256 TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS runs_cpu_benchmark_idx ON runs (cpu, benchmark);

CREATE TABLE IF NOT EXISTS lineage_events (
	event_id         BIGSERIAL PRIMARY KEY,
	occurred_at      TIMESTAMPTZ NOT NULL,
	actor            TEXT NOT NULL,
	launch_id        TEXT,
	subject_type     TEXT NOT NULL,
	subject_id       TEXT NOT NULL,
	predicate        TEXT NOT NULL,
	object_type      TEXT NOT NULL,
	object_id        TEXT NOT NULL,
	metadata         JSONB NOT NULL DEFAULT '{}',
	integrity_sha256 TEXT NOT NULL
);
`

func EnsureSchema(ctx context.Context, db DB) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
