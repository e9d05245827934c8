package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sander-arti/gamma-klone-sub003/internal/adapter/repo"
	"github.com/sander-arti/gamma-klone-sub003/internal/bus"
	"github.com/sander-arti/gamma-klone-sub003/internal/db"
	"github.com/sander-arti/gamma-klone-sub003/internal/http/handlers"
	"github.com/sander-arti/gamma-klone-sub003/internal/http/httpapi"
	"github.com/sander-arti/gamma-klone-sub003/internal/infra"
	"github.com/sander-arti/gamma-klone-sub003/internal/infra/geoip"
	"github.com/sander-arti/gamma-klone-sub003/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("api: migrate failed")
	}

	// Events published by worker processes arrive over LISTEN/NOTIFY and
	// are republished on the local bus for this process's SSE streams.
	eventBus := bus.New()
	defer eventBus.Close()
	bridge := bus.NewPGBridge(pool, eventBus, logger)
	go func() {
		if err := bridge.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("api: event listener stopped")
		}
	}()

	app := handlers.NewApp(
		repo.NewJobRepository(pool),
		repo.NewDeckRepository(pool),
		repo.NewQueue(pool, cfg.QueueClaimLease),
		eventBus,
		logger,
	)
	app.StreamKeepAlive = cfg.StreamKeepAlive

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
		DefaultLocale:  cfg.DefaultLocale,
		CountryLookup:  lookup,
		RateLimit:      cfg.RateLimitPerMin,
		RatePer:        time.Minute,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("api: listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown failed")
	}
	logger.Info().Msg("api: stopped")
}
