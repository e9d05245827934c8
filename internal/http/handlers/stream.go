package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

// GenerationStream serves the live event feed for one generation as SSE.
// Already-terminal jobs get a synthesized terminal event so late and
// reconnecting clients always observe an ending. For running jobs the
// handler subscribes before re-reading the job status, closing the race
// where the job finishes between the status check and the subscription.
func (a *App) GenerationStream(w http.ResponseWriter, r *http.Request) {
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
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(event domain.StreamEvent) {
		payload, err := json.Marshal(event)
		if err != nil {
			a.Logger.Error().Err(err).Str("job_id", id).Msg("encode stream event failed")
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	writeEvent(domain.NewStreamEvent(domain.EventConnected, id, nil))

	if job.Status.Terminal() {
		writeEvent(a.synthesizeTerminal(r, job))
		return
	}

	events, cancel := a.Bus.Subscribe(id)
	defer cancel()

	// The job may have finished between the load above and the subscribe.
	if job, err = a.Jobs.GetByID(r.Context(), id); err == nil && job.Status.Terminal() {
		writeEvent(a.synthesizeTerminal(r, job))
		return
	}

	keepAlive := a.StreamKeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultStreamKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			writeEvent(event)
			if event.Type.Terminal() {
				return
			}
		}
	}
}

// synthesizeTerminal rebuilds the terminal event from the job record; the
// live event is gone once the job finished.
func (a *App) synthesizeTerminal(r *http.Request, job *domain.GenerationJob) domain.StreamEvent {
	if job.Status == domain.JobStatusFailed {
		return domain.NewStreamEvent(domain.EventGenerationFailed, job.ID, domain.GenerationFailedData{
			Code:    job.ErrorCode,
			Message: job.ErrorMessage,
		})
	}
	data := domain.GenerationCompleteData{DeckID: job.DeckID, Progress: job.Progress}
	if job.DeckID != "" {
		if deck, err := a.Decks.GetByID(r.Context(), job.DeckID); err == nil {
			data.TotalSlides = len(deck.Slides)
		}
	}
	return domain.NewStreamEvent(domain.EventGenerationComplete, job.ID, data)
}
