package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sander-arti/gamma-klone-sub003/internal/bus"
	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
	"github.com/sander-arti/gamma-klone-sub003/internal/middleware"
)

// DefaultStreamKeepAlive paces SSE keepalive comments on idle streams.
const DefaultStreamKeepAlive = 15 * time.Second

// App carries the handler dependencies. Handlers talk to storage through
// the domain interfaces so tests run on the memory implementations.
type App struct {
	Jobs   domain.JobRepository
	Decks  domain.DeckRepository
	Queue  domain.TaskQueue
	Bus    *bus.Bus
	Logger zerolog.Logger

	// StreamKeepAlive overrides the keepalive cadence; zero means default.
	StreamKeepAlive time.Duration
}

// NewApp wires an App.
func NewApp(jobs domain.JobRepository, decks domain.DeckRepository, queue domain.TaskQueue, eventBus *bus.Bus, logger zerolog.Logger) *App {
	return &App{Jobs: jobs, Decks: decks, Queue: queue, Bus: eventBus, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// workspaceID scopes jobs and decks. A JWT-authenticated deployment puts
// the workspace in the token; otherwise the header applies, and
// single-tenant deployments omit both and share one workspace.
func workspaceID(r *http.Request) string {
	if ws := middleware.WorkspaceFromContext(r.Context()); ws != "" {
		return ws
	}
	if ws := r.Header.Get("X-Workspace-ID"); ws != "" {
		return ws
	}
	return "default"
}
