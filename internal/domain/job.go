package domain

import "time"

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// GenerationJob is the persistent record of one deck generation.
// Created by the API handler, mutated only by the worker driving the
// pipeline, terminal once completed or failed. Progress is authoritative
// state on this record, not just event payload, so a reconnecting client
// can resynchronize by polling alone.
type GenerationJob struct {
	ID              string
	WorkspaceID     string
	IdempotencyKey  string
	Status          JobStatus
	Progress        int
	DeckID          string
	ErrorCode       string
	ErrorMessage    string
	CancelRequested bool
	RequestJSON     []byte
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}
