package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
	"github.com/sander-arti/gamma-klone-sub003/internal/providers/image"
	"github.com/sander-arti/gamma-klone-sub003/internal/schema"
)

// blockDeltaRunes sizes the chunks block text is streamed in.
const blockDeltaRunes = 48

// Pipeline drives one generation job through its state machine:
// outline -> per-slide generate/validate/repair -> optional image phase ->
// completed, with failed reachable from any point. All steps within a job
// run sequentially; progress persisted on the job record only ever grows.
type Pipeline struct {
	jobs        domain.JobRepository
	decks       domain.DeckRepository
	pub         domain.EventPublisher
	outliner    *OutlineGenerator
	content     *ContentGenerator
	repairer    *Repairer
	images      image.Generator
	imagePolicy RetryPolicy
	logger      zerolog.Logger
}

// NewPipeline wires a pipeline. images may be nil when no image provider
// is configured; requests asking for images then complete without them.
func NewPipeline(
	jobs domain.JobRepository,
	decks domain.DeckRepository,
	pub domain.EventPublisher,
	outliner *OutlineGenerator,
	content *ContentGenerator,
	repairer *Repairer,
	images image.Generator,
	imagePolicy RetryPolicy,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		jobs:        jobs,
		decks:       decks,
		pub:         pub,
		outliner:    outliner,
		content:     content,
		repairer:    repairer,
		images:      images,
		imagePolicy: imagePolicy,
		logger:      logger,
	}
}

// run-scoped state; one instance per job keeps Pipeline itself stateless.
type pipelineRun struct {
	*Pipeline
	job          *domain.GenerationJob
	req          domain.GenerationRequest
	lastProgress int
}

// Run executes the job to a terminal state. The returned error is non-nil
// only when the job could not be brought to a terminal state (for example
// worker shutdown mid-job); the caller should release the job back to the
// queue in that case.
func (p *Pipeline) Run(ctx context.Context, jobID string) error {
	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.Status.Terminal() {
		return nil
	}

	var req domain.GenerationRequest
	if err := json.Unmarshal(job.RequestJSON, &req); err != nil {
		p.fail(ctx, job, domain.NewGenerationError(domain.ErrCodeInternal, "stored request is unreadable", err))
		return nil
	}
	req.Normalize()

	r := &pipelineRun{Pipeline: p, job: job, req: req, lastProgress: job.Progress}
	if err := r.execute(ctx); err != nil {
		if ctx.Err() != nil {
			// Shutdown mid-job: leave the job running for queue redelivery.
			return err
		}
		r.fail(ctx, job, err)
	}
	return nil
}

func (r *pipelineRun) execute(ctx context.Context) error {
	if err := r.jobs.MarkRunning(ctx, r.job.ID); err != nil {
		return domain.NewGenerationError(domain.ErrCodePersistFailed, "could not mark job running", err)
	}
	r.publish(domain.EventGenerationStarted, domain.GenerationStartedData{RequestedSlides: r.req.NumSlides})

	if err := r.checkCancel(ctx); err != nil {
		return err
	}

	outline, err := r.outliner.Generate(ctx, r.req)
	if err != nil {
		return err
	}
	r.publish(domain.EventOutlineComplete, domain.OutlineCompleteData{
		Title:       outline.Title,
		TotalSlides: len(outline.Slides),
		Slides:      outline.Slides,
	})

	deck, err := r.createDeckShell(ctx, outline)
	if err != nil {
		return err
	}
	r.publish(domain.EventDeckCreated, domain.DeckCreatedData{DeckID: deck.ID})
	r.updateProgress(ctx, 10)

	appended, total, err := r.slidePhase(ctx, deck, outline)
	if err != nil {
		return err
	}

	if r.req.GenerateImages {
		if err := r.imagePhase(ctx, deck.ID); err != nil {
			return err
		}
	}

	if err := r.jobs.MarkCompleted(ctx, r.job.ID); err != nil {
		return domain.NewGenerationError(domain.ErrCodePersistFailed, "could not mark job completed", err)
	}
	r.publish(domain.EventGenerationComplete, domain.GenerationCompleteData{
		DeckID:      deck.ID,
		TotalSlides: total,
		Progress:    100,
	})
	r.logger.Info().Str("job_id", r.job.ID).Str("deck_id", deck.ID).Int("slides", appended).Msg("pipeline: completed")
	return nil
}

func (r *pipelineRun) createDeckShell(ctx context.Context, outline domain.Outline) (*domain.Deck, error) {
	deck := &domain.Deck{
		ID:          uuid.NewString(),
		WorkspaceID: r.job.WorkspaceID,
		Title:       outline.Title,
		Language:    r.req.Language,
		ThemeID:     r.req.ThemeID,
		BrandColors: r.req.BrandColors,
	}
	if err := r.decks.Create(ctx, deck); err != nil {
		return nil, domain.NewGenerationError(domain.ErrCodePersistFailed, "could not create deck", err)
	}
	if err := r.jobs.SetDeckID(ctx, r.job.ID, deck.ID); err != nil {
		return nil, domain.NewGenerationError(domain.ErrCodePersistFailed, "could not link deck to job", err)
	}
	r.job.DeckID = deck.ID
	return deck, nil
}

// slidePhase generates, validates and appends slides in outline order.
// Splits grow the total downstream, so event payloads always carry the
// current figure rather than the outline's original count.
func (r *pipelineRun) slidePhase(ctx context.Context, deck *domain.Deck, outline domain.Outline) (appended, total int, err error) {
	total = len(outline.Slides)

	for i := range outline.Slides {
		if err := r.checkCancel(ctx); err != nil {
			return appended, total, err
		}
		stub := outline.Slides[i]
		r.publish(domain.EventSlideStarted, domain.SlideStartedData{
			SlideIndex:  appended,
			TotalSlides: total,
			Title:       stub.Title,
		})

		slides, attempts, violations := r.produceSlides(ctx, i, outline)
		if ctx.Err() != nil {
			return appended, total, ctx.Err()
		}
		// A split replaces one planned slide with several produced ones.
		total += len(slides) - 1

		for _, slide := range slides {
			slide.ID = uuid.NewString()
			index := appended

			r.emitBlockEvents(index, slide)
			if err := r.decks.AppendSlide(ctx, deck.ID, slide); err != nil {
				return appended, total, domain.NewGenerationError(domain.ErrCodePersistFailed, "could not append slide", err)
			}
			appended++

			r.publish(domain.EventSlideValidated, domain.SlideValidatedData{
				SlideIndex:     index,
				RepairAttempts: attempts,
				Violations:     violations,
			})
			progress := r.slideProgress(appended, total)
			r.updateProgress(ctx, progress)
			r.publish(domain.EventSlideContent, domain.SlideContentData{
				SlideIndex:  index,
				TotalSlides: total,
				Slide:       slide,
				Progress:    progress,
			})
		}
	}
	return appended, total, nil
}

// produceSlides runs generate + repair for one outline entry. Content
// failure after retries is slide-recoverable: a flagged placeholder built
// from the outline stub stands in and the job continues.
func (r *pipelineRun) produceSlides(ctx context.Context, index int, outline domain.Outline) ([]domain.Slide, int, []string) {
	stub := outline.Slides[index]

	slide, err := r.content.Generate(ctx, index, outline, r.req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, nil
		}
		r.logger.Warn().Err(err).Str("job_id", r.job.ID).Int("slide_index", index).
			Msg("pipeline: content generation failed, inserting placeholder")
		return []domain.Slide{placeholderSlide(stub)}, 0, []string{"content generation failed"}
	}

	result := r.repairer.Repair(ctx, slide, r.req)
	var violations []string
	if result.Exhausted {
		violations = schema.ViolationStrings(result.Remaining)
		warning := "repair budget exhausted: " + strings.Join(violations, "; ")
		for i := range result.Slides {
			result.Slides[i].Warning = warning
		}
		r.logger.Warn().Str("job_id", r.job.ID).Int("slide_index", index).
			Int("attempts", result.Attempts).Msg("pipeline: slide kept with violations flagged")
	}
	return result.Slides, result.Attempts, violations
}

func (r *pipelineRun) emitBlockEvents(slideIndex int, slide domain.Slide) {
	for b, block := range slide.Blocks {
		r.publish(domain.EventBlockStarted, domain.BlockStartedData{
			SlideIndex: slideIndex,
			BlockIndex: b,
			Kind:       block.Kind,
		})
		for _, delta := range chunkRunes(blockText(block), blockDeltaRunes) {
			r.publish(domain.EventBlockDelta, domain.BlockDeltaData{
				SlideIndex: slideIndex,
				BlockIndex: b,
				Delta:      delta,
			})
		}
		r.publish(domain.EventBlockComplete, domain.BlockCompleteData{
			SlideIndex: slideIndex,
			BlockIndex: b,
			Block:      block,
		})
	}
}

// imagePhase fills image blocks with generated URLs. Failures are
// per-image non-fatal: the block keeps an empty URL and the job continues.
func (r *pipelineRun) imagePhase(ctx context.Context, deckID string) error {
	deck, err := r.decks.GetByID(ctx, deckID)
	if err != nil {
		return domain.NewGenerationError(domain.ErrCodePersistFailed, "could not reload deck for images", err)
	}

	type target struct {
		slideIndex int
		blockIndex int
	}
	var targets []target
	for si, slide := range deck.Slides {
		for bi, block := range slide.Blocks {
			if block.Kind == domain.BlockKindImage && block.Prompt != "" && block.URL == "" {
				targets = append(targets, target{slideIndex: si, blockIndex: bi})
			}
		}
	}
	if len(targets) == 0 {
		return nil
	}
	r.publish(domain.EventImageStarted, domain.ImageStartedData{TotalImages: len(targets)})

	for done, tgt := range targets {
		if err := r.checkCancel(ctx); err != nil {
			return err
		}
		slide := deck.Slides[tgt.slideIndex]
		block := slide.Blocks[tgt.blockIndex]

		asset, genErr := r.generateImage(ctx, block.Prompt)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if genErr != nil {
			r.logger.Warn().Err(genErr).Str("job_id", r.job.ID).Int("slide_index", tgt.slideIndex).
				Msg("pipeline: image generation failed, leaving block without url")
			r.publish(domain.EventImageComplete, domain.ImageCompleteData{SlideIndex: tgt.slideIndex, Failed: true})
		} else {
			block.URL = asset.URL
			slide.Blocks[tgt.blockIndex] = block
			deck.Slides[tgt.slideIndex] = slide
			if err := r.decks.UpdateSlide(ctx, deckID, tgt.slideIndex, slide); err != nil {
				return domain.NewGenerationError(domain.ErrCodePersistFailed, "could not persist image url", err)
			}
			r.publish(domain.EventImageComplete, domain.ImageCompleteData{SlideIndex: tgt.slideIndex, URL: asset.URL})
		}

		progress := 90 + (done+1)*10/len(targets)
		r.updateProgress(ctx, progress)
		r.publish(domain.EventImageProgress, domain.ImageProgressData{
			SlideIndex: tgt.slideIndex,
			Done:       done + 1,
			Total:      len(targets),
			Progress:   progress,
		})
	}
	return nil
}

func (r *pipelineRun) generateImage(ctx context.Context, prompt string) (image.Asset, error) {
	if r.images == nil {
		return image.Asset{}, fmt.Errorf("no image provider configured")
	}
	return retryDo(ctx, r.imagePolicy, nil, func(ctx context.Context, attempt int) (image.Asset, error) {
		return r.images.Generate(ctx, image.GenerateRequest{Prompt: prompt, RequestID: r.job.ID})
	})
}

// slideProgress reserves headroom for a trailing image phase. The local
// clamp keeps published values monotonic even when a split grows the total
// between publishes.
func (r *pipelineRun) slideProgress(appended, total int) int {
	span := 90
	if r.req.GenerateImages {
		span = 80
	}
	progress := 10 + appended*span/total
	if progress < r.lastProgress {
		progress = r.lastProgress
	}
	return progress
}

func (r *pipelineRun) updateProgress(ctx context.Context, progress int) {
	if progress <= r.lastProgress {
		return
	}
	r.lastProgress = progress
	if err := r.jobs.UpdateProgress(ctx, r.job.ID, progress); err != nil {
		r.logger.Error().Err(err).Str("job_id", r.job.ID).Msg("pipeline: persist progress failed")
	}
}

func (r *pipelineRun) checkCancel(ctx context.Context) error {
	cancelled, err := r.jobs.IsCancelRequested(ctx, r.job.ID)
	if err != nil {
		r.logger.Warn().Err(err).Str("job_id", r.job.ID).Msg("pipeline: cancel check failed")
		return nil
	}
	if cancelled {
		return domain.NewGenerationError(domain.ErrCodeCancelled, "generation cancelled by client", nil)
	}
	return nil
}

func (r *pipelineRun) publish(t domain.EventType, data any) {
	r.pub.Publish(r.job.ID, domain.NewStreamEvent(t, r.job.ID, data))
}

func (p *Pipeline) fail(ctx context.Context, job *domain.GenerationJob, err error) {
	genErr := domain.GenerationErrorFrom(err)
	p.logger.Error().Err(err).Str("job_id", job.ID).Str("code", genErr.Code).Msg("pipeline: job failed")
	if persistErr := p.jobs.MarkFailed(ctx, job.ID, genErr.Code, genErr.Message); persistErr != nil {
		p.logger.Error().Err(persistErr).Str("job_id", job.ID).Msg("pipeline: persist failure state failed")
	}
	p.pub.Publish(job.ID, domain.NewStreamEvent(domain.EventGenerationFailed, job.ID, domain.GenerationFailedData{
		Code:    genErr.Code,
		Message: genErr.Message,
	}))
}

// placeholderSlide substitutes for a slide whose content generation failed
// outright. It always satisfies the bullets schema.
func placeholderSlide(stub domain.OutlineSlide) domain.Slide {
	items := stub.Hints
	if len(items) == 0 {
		items = []string{"Content could not be generated for this slide"}
	}
	return domain.Slide{
		Type:          domain.SlideTypeBullets,
		LayoutVariant: schema.DefaultVariant(domain.SlideTypeBullets),
		Blocks: []domain.Block{
			{Kind: domain.BlockKindTitle, Text: schema.TruncateText(stub.Title, schema.MaxTitleLen)},
			{Kind: domain.BlockKindBullets, Items: items},
		},
		Warning: "content generation failed; placeholder content inserted",
	}
}

func blockText(block domain.Block) string {
	switch block.Kind {
	case domain.BlockKindBullets:
		return strings.Join(block.Items, "\n")
	case domain.BlockKindStat:
		return strings.TrimSpace(block.Label + " " + block.Value + " " + block.Detail)
	case domain.BlockKindTimelineStep, domain.BlockKindIconCard, domain.BlockKindNumberedCard:
		return strings.TrimSpace(block.Title + " " + block.Detail)
	case domain.BlockKindImage:
		return block.Prompt
	case domain.BlockKindTable:
		var rows []string
		for _, row := range block.Rows {
			rows = append(rows, strings.Join(row, " | "))
		}
		return strings.Join(rows, "\n")
	default:
		return block.Text
	}
}

func chunkRunes(s string, size int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
