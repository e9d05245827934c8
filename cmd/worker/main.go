package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sander-arti/gamma-klone-sub003/internal/adapter/repo"
	"github.com/sander-arti/gamma-klone-sub003/internal/bus"
	"github.com/sander-arti/gamma-klone-sub003/internal/db"
	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
	"github.com/sander-arti/gamma-klone-sub003/internal/generate"
	"github.com/sander-arti/gamma-klone-sub003/internal/infra"
	"github.com/sander-arti/gamma-klone-sub003/internal/providers/image"
	"github.com/sander-arti/gamma-klone-sub003/internal/providers/text"
)

type jobWorker struct {
	ctx      context.Context
	queue    domain.TaskQueue
	pipeline *generate.Pipeline
	poll     time.Duration
	logger   infra.Logger
}

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
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("worker: migrate failed")
	}

	// Events go to the local bus (for a worker that also serves streams)
	// and across processes via NOTIFY for the API's SSE endpoints.
	localBus := bus.New()
	defer localBus.Close()
	publisher := bus.NewPGBridge(pool, localBus, logger)

	completer := newCompleter(cfg, logger)
	images := newImageGenerator(cfg, logger)

	modelPolicy := generate.RetryPolicy{
		MaxAttempts:    cfg.ModelMaxAttempts,
		AttemptTimeout: cfg.ModelAttemptTimeout,
		Backoff:        cfg.ModelBackoff,
	}
	imagePolicy := generate.RetryPolicy{
		MaxAttempts:    cfg.ImageMaxAttempts,
		AttemptTimeout: cfg.ImageAttemptTimeout,
		Backoff:        cfg.ModelBackoff,
	}

	jobs := repo.NewJobRepository(pool)
	pipeline := generate.NewPipeline(
		jobs,
		repo.NewDeckRepository(pool),
		publisher,
		generate.NewOutlineGenerator(completer, modelPolicy, logger),
		generate.NewContentGenerator(completer, modelPolicy, logger),
		generate.NewRepairer(completer, modelPolicy, cfg.RepairMaxAttempts, logger),
		images,
		imagePolicy,
		logger,
	)

	worker := &jobWorker{
		ctx:      ctx,
		queue:    repo.NewQueue(pool, cfg.QueueClaimLease),
		pipeline: pipeline,
		poll:     cfg.WorkerPollInterval,
		logger:   logger,
	}
	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func newCompleter(cfg *infra.Config, logger infra.Logger) text.Completer {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn().Msg("worker: no OPENAI_API_KEY, using static content provider")
		return text.NewStaticCompleter()
	}
	completer, err := text.NewOpenAICompleter(text.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: configure text provider failed")
	}
	return completer
}

func newImageGenerator(cfg *infra.Config, logger infra.Logger) image.Generator {
	if cfg.OpenAIAPIKey == "" {
		return image.NewStaticGenerator()
	}
	generator, err := image.NewOpenAIGenerator(image.OpenAIOptions{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIImageModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: configure image provider failed")
	}
	return generator
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		jobID, err := w.queue.Claim(w.ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNoJobAvailable) {
				w.sleep()
				continue
			}
			if w.ctx.Err() != nil {
				return w.ctx.Err()
			}
			w.logger.Error().Err(err).Msg("worker: claim failed")
			w.sleep()
			continue
		}

		w.handleJob(jobID)
	}
}

// handleJob drives one claimed job to a terminal state. A pipeline error
// means the job is still runnable (for example shutdown mid-job), so the
// claim is released for redelivery; job-level failures are terminal states
// the pipeline records itself.
func (w *jobWorker) handleJob(jobID string) {
	w.logger.Info().Str("job_id", jobID).Msg("worker: picked job")
	if err := w.pipeline.Run(w.ctx, jobID); err != nil {
		w.logger.Warn().Err(err).Str("job_id", jobID).Msg("worker: releasing job for redelivery")
		// The run context may already be cancelled; release with a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if nackErr := w.queue.Nack(releaseCtx, jobID); nackErr != nil {
			w.logger.Error().Err(nackErr).Str("job_id", jobID).Msg("worker: nack failed")
		}
		return
	}
	ackCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Ack(ackCtx, jobID); err != nil {
		w.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: ack failed")
	}
}

func (w *jobWorker) sleep() {
	select {
	case <-w.ctx.Done():
	case <-time.After(w.poll):
	}
}
