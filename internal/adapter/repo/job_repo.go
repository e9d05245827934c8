package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

const jobColumns = `id, workspace_id, idempotency_key, status, progress, deck_id,
error_code, error_message, cancel_requested, request_json, created_at, started_at, completed_at`

// Create inserts a new generation job record. A concurrent submission with
// the same workspace and idempotency key surfaces as ErrDuplicateJob via
// the partial unique index.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	query := `
INSERT INTO generation_jobs (id, workspace_id, idempotency_key, status, progress, request_json)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.WorkspaceID,
		nullableString(job.IdempotencyKey),
		job.Status,
		job.Progress,
		job.RequestJSON,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrUniqueViolation {
		return domain.ErrDuplicateJob
	}
	return err
}

// SQLSTATE for unique_violation.
const pgerrUniqueViolation = "23505"

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, id string) (*domain.GenerationJob, error) {
	query := `SELECT ` + jobColumns + ` FROM generation_jobs WHERE id = $1;`
	return r.scanJob(r.pool.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey fetches the job a duplicate submission maps to.
func (r *JobRepositoryPG) GetByIdempotencyKey(ctx context.Context, workspaceID, key string) (*domain.GenerationJob, error) {
	query := `SELECT ` + jobColumns + ` FROM generation_jobs WHERE workspace_id = $1 AND idempotency_key = $2;`
	return r.scanJob(r.pool.QueryRow(ctx, query, workspaceID, key))
}

// MarkRunning transitions a queued job to running and stamps started_at.
func (r *JobRepositoryPG) MarkRunning(ctx context.Context, id string) error {
	query := `
UPDATE generation_jobs
SET status = 'running', started_at = COALESCE(started_at, NOW())
WHERE id = $1 AND status IN ('queued', 'running');
`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// SetDeckID links the deck created partway through the job.
func (r *JobRepositoryPG) SetDeckID(ctx context.Context, id, deckID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE generation_jobs SET deck_id = $2 WHERE id = $1;`, id, deckID)
	return err
}

// UpdateProgress persists progress; GREATEST keeps the value monotonic
// even under redelivery.
func (r *JobRepositoryPG) UpdateProgress(ctx context.Context, id string, progress int) error {
	query := `UPDATE generation_jobs SET progress = GREATEST(progress, $2) WHERE id = $1;`
	_, err := r.pool.Exec(ctx, query, id, progress)
	return err
}

// MarkCompleted finalizes the job with progress 100.
func (r *JobRepositoryPG) MarkCompleted(ctx context.Context, id string) error {
	query := `
UPDATE generation_jobs
SET status = 'completed', progress = 100, completed_at = NOW()
WHERE id = $1 AND status = 'running';
`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// MarkFailed finalizes the job with a stable error code and message.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, id string, code, message string) error {
	query := `
UPDATE generation_jobs
SET status = 'failed', error_code = $2, error_message = $3, completed_at = NOW()
WHERE id = $1 AND status IN ('queued', 'running');
`
	_, err := r.pool.Exec(ctx, query, id, code, message)
	return err
}

// RequestCancel raises the cooperative cancellation flag.
func (r *JobRepositoryPG) RequestCancel(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE generation_jobs SET cancel_requested = TRUE WHERE id = $1 AND status IN ('queued', 'running');`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobTerminal
	}
	return nil
}

// IsCancelRequested reads the cancellation flag.
func (r *JobRepositoryPG) IsCancelRequested(ctx context.Context, id string) (bool, error) {
	var cancelled bool
	err := r.pool.QueryRow(ctx, `SELECT cancel_requested FROM generation_jobs WHERE id = $1;`, id).Scan(&cancelled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrNotFound
		}
		return false, err
	}
	return cancelled, nil
}

func (r *JobRepositoryPG) scanJob(row pgx.Row) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	var idempotencyKey, deckID, errorCode, errorMessage *string
	if err := row.Scan(
		&job.ID,
		&job.WorkspaceID,
		&idempotencyKey,
		&job.Status,
		&job.Progress,
		&deckID,
		&errorCode,
		&errorMessage,
		&job.CancelRequested,
		&job.RequestJSON,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.IdempotencyKey = deref(idempotencyKey)
	job.DeckID = deref(deckID)
	job.ErrorCode = deref(errorCode)
	job.ErrorMessage = deref(errorMessage)
	return &job, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
