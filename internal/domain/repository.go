package domain

import "context"

// JobRepository defines persistence for generation jobs.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	GetByID(ctx context.Context, id string) (*GenerationJob, error)
	// GetByIdempotencyKey returns ErrNotFound when no job matches.
	GetByIdempotencyKey(ctx context.Context, workspaceID, key string) (*GenerationJob, error)
	MarkRunning(ctx context.Context, id string) error
	SetDeckID(ctx context.Context, id, deckID string) error
	// UpdateProgress never lowers a persisted progress value.
	UpdateProgress(ctx context.Context, id string, progress int) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, code, message string) error
	RequestCancel(ctx context.Context, id string) error
	IsCancelRequested(ctx context.Context, id string) (bool, error)
}

// DeckRepository defines persistence for decks. The worker is the single
// writer for a deck while its job runs; readers may observe a partially
// built slide list.
type DeckRepository interface {
	Create(ctx context.Context, deck *Deck) error
	GetByID(ctx context.Context, id string) (*Deck, error)
	AppendSlide(ctx context.Context, deckID string, slide Slide) error
	UpdateSlide(ctx context.Context, deckID string, index int, slide Slide) error
}

// TaskQueue is the durable queue decoupling job creation from execution.
// Claim hands a job id to exactly one worker at a time; Ack removes it,
// Nack releases it for redelivery.
type TaskQueue interface {
	Enqueue(ctx context.Context, jobID string) error
	Claim(ctx context.Context) (jobID string, err error)
	Ack(ctx context.Context, jobID string) error
	Nack(ctx context.Context, jobID string) error
}

// EventPublisher is the pipeline's side of the event bus.
type EventPublisher interface {
	Publish(channel string, event StreamEvent)
}
