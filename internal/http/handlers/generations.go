package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
	"github.com/sander-arti/gamma-klone-sub003/internal/middleware"
)

type generationStatusResponse struct {
	GenerationID string    `json:"generation_id"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	DeckID       string    `json:"deck_id,omitempty"`
	Error        *errorDTO `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type errorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GenerationsCreate accepts a generation request, creates the job record
// and makes it visible to workers. A repeated Idempotency-Key within a
// workspace returns the original job instead of spawning a duplicate.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Language == "" {
		req.Language = middleware.LocaleFromContext(r.Context())
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "request failed validation")
		return
	}

	ws := workspaceID(r)
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		existing, err := a.Jobs.GetByIdempotencyKey(r.Context(), ws, idemKey)
		if err == nil {
			a.json(w, http.StatusOK, map[string]string{
				"generation_id": existing.ID,
				"status":        string(existing.Status),
			})
			return
		}
		if !errors.Is(err, domain.ErrNotFound) {
			a.Logger.Error().Err(err).Msg("idempotency lookup failed")
			a.error(w, http.StatusInternalServerError, "internal", "could not check idempotency key")
			return
		}
	}

	raw, err := json.Marshal(req)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "could not encode request")
		return
	}
	job := &domain.GenerationJob{
		ID:             uuid.NewString(),
		WorkspaceID:    ws,
		IdempotencyKey: idemKey,
		Status:         domain.JobStatusQueued,
		RequestJSON:    raw,
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		// Two submissions with the same key can both miss the lookup above;
		// the unique index picks the winner and we return its job.
		if errors.Is(err, domain.ErrDuplicateJob) && idemKey != "" {
			existing, lookupErr := a.Jobs.GetByIdempotencyKey(r.Context(), ws, idemKey)
			if lookupErr == nil {
				a.json(w, http.StatusOK, map[string]string{
					"generation_id": existing.ID,
					"status":        string(existing.Status),
				})
				return
			}
			a.Logger.Error().Err(lookupErr).Msg("duplicate job lookup failed")
		}
		a.Logger.Error().Err(err).Msg("create job failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not create generation")
		return
	}
	if err := a.Queue.Enqueue(r.Context(), job.ID); err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("enqueue failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not enqueue generation")
		return
	}

	a.json(w, http.StatusAccepted, map[string]string{
		"generation_id": job.ID,
		"status":        string(domain.JobStatusQueued),
	})
}

// GenerationStatus returns the persisted job state. Polling this endpoint
// is the reconnect-safe complement to the event stream.
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := a.Jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "generation not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", id).Msg("load job failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not load generation")
		return
	}
	a.json(w, http.StatusOK, statusDTO(job))
}

// GenerationCancel raises the cooperative cancellation flag. The pipeline
// observes it between steps; a terminal job cannot be cancelled.
func (a *App) GenerationCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := a.Jobs.RequestCancel(r.Context(), id)
	switch {
	case err == nil:
		a.json(w, http.StatusAccepted, map[string]string{
			"generation_id": id,
			"status":        "cancelling",
		})
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "generation not found")
	case errors.Is(err, domain.ErrJobTerminal):
		a.error(w, http.StatusConflict, "conflict", "generation already finished")
	default:
		a.Logger.Error().Err(err).Str("job_id", id).Msg("cancel failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not cancel generation")
	}
}

func statusDTO(job *domain.GenerationJob) generationStatusResponse {
	resp := generationStatusResponse{
		GenerationID: job.ID,
		Status:       string(job.Status),
		Progress:     job.Progress,
		DeckID:       job.DeckID,
		CreatedAt:    job.CreatedAt,
	}
	if job.Status == domain.JobStatusFailed {
		resp.Error = &errorDTO{Code: job.ErrorCode, Message: job.ErrorMessage}
	}
	return resp
}
