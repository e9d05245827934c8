package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sander-arti/gamma-klone-sub003/internal/http/handlers"
	"github.com/sander-arti/gamma-klone-sub003/internal/middleware"
)

// Options configure the cross-cutting router behavior; zero values disable
// the optional pieces.
type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	JWTSecret      string
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
	RateLimit      int
	RatePer        time.Duration
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/generations", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(middleware.AuthJWT(opts.JWTSecret))
		}
		if opts.RateLimit > 0 {
			r.With(middleware.RateLimit(opts.RateLimit, opts.RatePer)).Post("/", app.GenerationsCreate)
		} else {
			r.Post("/", app.GenerationsCreate)
		}
		r.Get("/{id}", app.GenerationStatus)
		r.Get("/{id}/stream", app.GenerationStream)
		r.Post("/{id}/cancel", app.GenerationCancel)
	})

	r.Route("/v1/decks", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(middleware.AuthJWT(opts.JWTSecret))
		}
		r.Get("/{id}", app.DeckGet)
	})

	return r
}
