// Package db owns the storage schema. Statements are idempotent so every
// binary can run Migrate at startup without coordination.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS generation_jobs (
	id               UUID PRIMARY KEY,
	workspace_id     TEXT NOT NULL,
	idempotency_key  TEXT,
	status           TEXT NOT NULL DEFAULT 'queued',
	progress         INT NOT NULL DEFAULT 0,
	deck_id          UUID,
	error_code       TEXT,
	error_message    TEXT,
	cancel_requested BOOLEAN NOT NULL DEFAULT FALSE,
	request_json     JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	started_at       TIMESTAMPTZ,
	completed_at     TIMESTAMPTZ
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS generation_jobs_idempotency
	ON generation_jobs (workspace_id, idempotency_key)
	WHERE idempotency_key IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS decks (
	id           UUID PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	title        TEXT NOT NULL,
	language     TEXT NOT NULL DEFAULT 'en',
	theme_id     TEXT,
	brand_colors JSONB NOT NULL DEFAULT '[]'::jsonb,
	slides       JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	`CREATE TABLE IF NOT EXISTS generation_queue (
	job_id      UUID PRIMARY KEY REFERENCES generation_jobs (id) ON DELETE CASCADE,
	status      TEXT NOT NULL DEFAULT 'queued',
	enqueued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	claimed_at  TIMESTAMPTZ
);`,
	`CREATE INDEX IF NOT EXISTS generation_queue_pending
	ON generation_queue (enqueued_at)
	WHERE status = 'queued';`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
