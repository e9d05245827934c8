package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

// QueuePG implements domain.TaskQueue on a PostgreSQL table. Claim uses
// FOR UPDATE SKIP LOCKED so concurrent workers never double-claim. Claims
// are leases, not ownership: a claim older than the lease window counts as
// abandoned (worker crashed without acking) and is handed out again.
type QueuePG struct {
	pool  *pgxpool.Pool
	lease time.Duration
}

// NewQueue creates a task queue backed by PostgreSQL. lease bounds how long
// a claimed job may sit unacked before another worker can reclaim it; it
// must exceed the longest expected job run.
func NewQueue(pool *pgxpool.Pool, lease time.Duration) *QueuePG {
	return &QueuePG{pool: pool, lease: lease}
}

// Enqueue makes the job visible to workers.
func (q *QueuePG) Enqueue(ctx context.Context, jobID string) error {
	query := `
INSERT INTO generation_queue (job_id, status)
VALUES ($1, 'queued')
ON CONFLICT (job_id) DO NOTHING;
`
	_, err := q.pool.Exec(ctx, query, jobID)
	return err
}

// Claim hands the oldest runnable job to exactly one caller. Runnable means
// queued, or claimed past the lease window. Returns domain.ErrNoJobAvailable
// when there is nothing to hand out.
func (q *QueuePG) Claim(ctx context.Context) (string, error) {
	query := `
UPDATE generation_queue
SET status = 'claimed', claimed_at = NOW()
WHERE job_id = (
	SELECT job_id FROM generation_queue
	WHERE status = 'queued'
	   OR (status = 'claimed' AND claimed_at < NOW() - make_interval(secs => $1))
	ORDER BY enqueued_at
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING job_id;
`
	var jobID string
	if err := q.pool.QueryRow(ctx, query, q.lease.Seconds()).Scan(&jobID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNoJobAvailable
		}
		return "", err
	}
	return jobID, nil
}

// Ack removes a finished job from the queue.
func (q *QueuePG) Ack(ctx context.Context, jobID string) error {
	_, err := q.pool.Exec(ctx, `DELETE FROM generation_queue WHERE job_id = $1;`, jobID)
	return err
}

// Nack releases a claimed job for redelivery.
func (q *QueuePG) Nack(ctx context.Context, jobID string) error {
	_, err := q.pool.Exec(ctx,
		`UPDATE generation_queue SET status = 'queued', claimed_at = NULL WHERE job_id = $1;`, jobID)
	return err
}

var _ domain.TaskQueue = (*QueuePG)(nil)
