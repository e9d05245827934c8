package repo

import (
	"context"
	"sync"
	"time"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

// In-memory implementations of the domain repositories. They back package
// tests and single-process experiments; the pg implementations are the
// production path. Semantics mirror the pg versions, including monotonic
// progress and copy-on-read decks.

// MemoryJobRepository implements domain.JobRepository in process memory.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*domain.GenerationJob
}

// NewMemoryJobRepository creates an empty in-memory job repository.
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[string]*domain.GenerationJob)}
}

func (r *MemoryJobRepository) Create(_ context.Context, job *domain.GenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.IdempotencyKey != "" {
		for _, existing := range r.jobs {
			if existing.WorkspaceID == job.WorkspaceID && existing.IdempotencyKey == job.IdempotencyKey {
				return domain.ErrDuplicateJob
			}
		}
	}
	clone := *job
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	r.jobs[job.ID] = &clone
	return nil
}

func (r *MemoryJobRepository) GetByID(_ context.Context, id string) (*domain.GenerationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *job
	return &clone, nil
}

func (r *MemoryJobRepository) GetByIdempotencyKey(_ context.Context, workspaceID, key string) (*domain.GenerationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, job := range r.jobs {
		if job.WorkspaceID == workspaceID && job.IdempotencyKey == key && key != "" {
			clone := *job
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryJobRepository) MarkRunning(_ context.Context, id string) error {
	return r.update(id, func(job *domain.GenerationJob) {
		if job.Status.Terminal() {
			return
		}
		job.Status = domain.JobStatusRunning
		if job.StartedAt == nil {
			now := time.Now().UTC()
			job.StartedAt = &now
		}
	})
}

func (r *MemoryJobRepository) SetDeckID(_ context.Context, id, deckID string) error {
	return r.update(id, func(job *domain.GenerationJob) { job.DeckID = deckID })
}

func (r *MemoryJobRepository) UpdateProgress(_ context.Context, id string, progress int) error {
	return r.update(id, func(job *domain.GenerationJob) {
		if progress > job.Progress {
			job.Progress = progress
		}
	})
}

func (r *MemoryJobRepository) MarkCompleted(_ context.Context, id string) error {
	return r.update(id, func(job *domain.GenerationJob) {
		if job.Status.Terminal() {
			return
		}
		job.Status = domain.JobStatusCompleted
		job.Progress = 100
		now := time.Now().UTC()
		job.CompletedAt = &now
	})
}

func (r *MemoryJobRepository) MarkFailed(_ context.Context, id string, code, message string) error {
	return r.update(id, func(job *domain.GenerationJob) {
		if job.Status.Terminal() {
			return
		}
		job.Status = domain.JobStatusFailed
		job.ErrorCode = code
		job.ErrorMessage = message
		now := time.Now().UTC()
		job.CompletedAt = &now
	})
}

func (r *MemoryJobRepository) RequestCancel(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return domain.ErrJobTerminal
	}
	job.CancelRequested = true
	return nil
}

func (r *MemoryJobRepository) IsCancelRequested(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	return job.CancelRequested, nil
}

func (r *MemoryJobRepository) update(id string, fn func(*domain.GenerationJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(job)
	return nil
}

// MemoryDeckRepository implements domain.DeckRepository in process memory.
type MemoryDeckRepository struct {
	mu    sync.RWMutex
	decks map[string]*domain.Deck
}

// NewMemoryDeckRepository creates an empty in-memory deck repository.
func NewMemoryDeckRepository() *MemoryDeckRepository {
	return &MemoryDeckRepository{decks: make(map[string]*domain.Deck)}
}

func (r *MemoryDeckRepository) Create(_ context.Context, deck *domain.Deck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneDeck(deck)
	now := time.Now().UTC()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	r.decks[deck.ID] = clone
	return nil
}

func (r *MemoryDeckRepository) GetByID(_ context.Context, id string) (*domain.Deck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	deck, ok := r.decks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneDeck(deck), nil
}

func (r *MemoryDeckRepository) AppendSlide(_ context.Context, deckID string, slide domain.Slide) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.decks[deckID]
	if !ok {
		return domain.ErrNotFound
	}
	deck.Slides = append(deck.Slides, slide)
	deck.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryDeckRepository) UpdateSlide(_ context.Context, deckID string, index int, slide domain.Slide) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.decks[deckID]
	if !ok {
		return domain.ErrNotFound
	}
	if index < 0 || index >= len(deck.Slides) {
		return domain.ErrNotFound
	}
	deck.Slides[index] = slide
	deck.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneDeck(deck *domain.Deck) *domain.Deck {
	clone := *deck
	clone.Slides = make([]domain.Slide, len(deck.Slides))
	copy(clone.Slides, deck.Slides)
	return &clone
}

// defaultClaimLease mirrors the pg queue's default lease window.
const defaultClaimLease = 5 * time.Minute

// MemoryQueue implements domain.TaskQueue in process memory. Claims carry
// the same lease semantics as the pg queue: a claim older than the lease is
// treated as abandoned and redelivered.
type MemoryQueue struct {
	mu      sync.Mutex
	queued  []string
	claimed map[string]time.Time
	lease   time.Duration
}

// NewMemoryQueue creates an empty in-memory task queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{claimed: make(map[string]time.Time), lease: defaultClaimLease}
}

func (q *MemoryQueue) Enqueue(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.claimed[jobID]; ok {
		return nil
	}
	for _, id := range q.queued {
		if id == jobID {
			return nil
		}
	}
	q.queued = append(q.queued, jobID)
	return nil
}

func (q *MemoryQueue) Claim(_ context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queued) > 0 {
		jobID := q.queued[0]
		q.queued = q.queued[1:]
		q.claimed[jobID] = time.Now()
		return jobID, nil
	}
	if jobID, ok := q.staleClaim(); ok {
		q.claimed[jobID] = time.Now()
		return jobID, nil
	}
	return "", domain.ErrNoJobAvailable
}

// staleClaim returns the longest-expired claim, if any.
func (q *MemoryQueue) staleClaim() (string, bool) {
	cutoff := time.Now().Add(-q.lease)
	var (
		oldest   string
		oldestAt time.Time
		found    bool
	)
	for jobID, at := range q.claimed {
		if at.Before(cutoff) && (!found || at.Before(oldestAt)) {
			oldest, oldestAt, found = jobID, at, true
		}
	}
	return oldest, found
}

func (q *MemoryQueue) Ack(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.claimed, jobID)
	return nil
}

func (q *MemoryQueue) Nack(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.claimed[jobID]; ok {
		delete(q.claimed, jobID)
		q.queued = append(q.queued, jobID)
	}
	return nil
}

var (
	_ domain.JobRepository  = (*MemoryJobRepository)(nil)
	_ domain.DeckRepository = (*MemoryDeckRepository)(nil)
	_ domain.TaskQueue      = (*MemoryQueue)(nil)
)
