package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sander-arti/gamma-klone-sub003/internal/adapter/repo"
	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
	"github.com/sander-arti/gamma-klone-sub003/internal/providers/image"
	"github.com/sander-arti/gamma-klone-sub003/internal/providers/text"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []domain.StreamEvent
}

func (p *capturePublisher) Publish(_ string, event domain.StreamEvent) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func (p *capturePublisher) all() []domain.StreamEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.StreamEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *capturePublisher) byType(t domain.EventType) []domain.StreamEvent {
	var out []domain.StreamEvent
	for _, e := range p.all() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeImageGen struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (g *fakeImageGen) Generate(_ context.Context, req image.GenerateRequest) (image.Asset, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	if g.fail {
		return image.Asset{}, errors.New("image backend down")
	}
	return image.Asset{URL: fmt.Sprintf("https://images.example/%d.png", n), Format: "png"}, nil
}

// scriptedCompleter answers outline and slide calls deterministically; the
// slide body echoes the outline entry title so ordering is observable.
func scriptedCompleter(withImage bool, failSubject string) *fakeCompleter {
	return &fakeCompleter{fn: func(req text.CompletionRequest, _ int) (string, error) {
		switch req.Kind {
		case text.KindOutline:
			return `{"title":"Quarterly Review","slides":[
				{"title":"First quarter","suggested_type":"bullets"},
				{"title":"Second quarter","suggested_type":"bullets"},
				{"title":"Third quarter","suggested_type":"bullets"}
			]}`, nil
		case text.KindSlide:
			if failSubject != "" && req.Subject == failSubject {
				return "", errors.New("model unavailable")
			}
			blocks := fmt.Sprintf(`{"kind":"title","text":%q},{"kind":"bullets","items":["point one","point two"]}`, req.Subject)
			if withImage {
				blocks += `,{"kind":"image","prompt":"an office chart","alt":"chart"}`
			}
			return `{"type":"bullets","layout_variant":"default","blocks":[` + blocks + `]}`, nil
		default:
			return "", fmt.Errorf("unexpected kind %q", req.Kind)
		}
	}}
}

type pipelineFixture struct {
	pipeline *Pipeline
	jobs     *repo.MemoryJobRepository
	decks    *repo.MemoryDeckRepository
	pub      *capturePublisher
}

func newPipelineFixture(completer text.Completer, images image.Generator) *pipelineFixture {
	logger := zerolog.Nop()
	policy := fastPolicy()
	f := &pipelineFixture{
		jobs:  repo.NewMemoryJobRepository(),
		decks: repo.NewMemoryDeckRepository(),
		pub:   &capturePublisher{},
	}
	f.pipeline = NewPipeline(
		f.jobs, f.decks, f.pub,
		NewOutlineGenerator(completer, policy, logger),
		NewContentGenerator(completer, policy, logger),
		NewRepairer(completer, policy, 2, logger),
		images, RetryPolicy{MaxAttempts: 1}, logger,
	)
	return f
}

func (f *pipelineFixture) seedJob(t *testing.T, req domain.GenerationRequest) string {
	t.Helper()
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	job := &domain.GenerationJob{
		ID:          uuid.NewString(),
		WorkspaceID: "ws-1",
		Status:      domain.JobStatusQueued,
		RequestJSON: raw,
	}
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job.ID
}

func TestPipelineHappyPath(t *testing.T) {
	f := newPipelineFixture(scriptedCompleter(false, ""), nil)
	jobID := f.seedJob(t, domain.GenerationRequest{InputText: "summarize the year", NumSlides: 3})

	if err := f.pipeline.Run(context.Background(), jobID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job, err := f.jobs.GetByID(context.Background(), jobID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %q (%s: %s)", job.Status, job.ErrorCode, job.ErrorMessage)
	}
	if job.Progress != 100 {
		t.Errorf("progress = %d, want 100", job.Progress)
	}
	if job.DeckID == "" {
		t.Fatal("deck id not linked")
	}

	deck, err := f.decks.GetByID(context.Background(), job.DeckID)
	if err != nil {
		t.Fatalf("load deck: %v", err)
	}
	if len(deck.Slides) != 3 {
		t.Fatalf("deck has %d slides, want 3", len(deck.Slides))
	}
	if deck.Title != "Quarterly Review" {
		t.Errorf("deck title = %q", deck.Title)
	}
	for i, slide := range deck.Slides {
		if slide.ID == "" {
			t.Errorf("slide %d has no id", i)
		}
		if slide.Warning != "" {
			t.Errorf("slide %d unexpectedly flagged: %s", i, slide.Warning)
		}
	}

	contents := f.pub.byType(domain.EventSlideContent)
	if len(contents) != 3 {
		t.Fatalf("slide_content events = %d, want 3", len(contents))
	}
	for i, e := range contents {
		data := e.Data.(domain.SlideContentData)
		if data.SlideIndex != i {
			t.Errorf("slide_content %d carries index %d", i, data.SlideIndex)
		}
	}

	all := f.pub.all()
	if all[0].Type != domain.EventGenerationStarted {
		t.Errorf("first event = %q", all[0].Type)
	}
	last := all[len(all)-1]
	if last.Type != domain.EventGenerationComplete {
		t.Fatalf("last event = %q", last.Type)
	}
	if data := last.Data.(domain.GenerationCompleteData); data.Progress != 100 || data.TotalSlides != 3 {
		t.Errorf("generation_complete data = %+v", data)
	}
}

func TestPipelineProgressMonotonic(t *testing.T) {
	f := newPipelineFixture(scriptedCompleter(true, ""), &fakeImageGen{})
	jobID := f.seedJob(t, domain.GenerationRequest{InputText: "summarize the year", GenerateImages: true})

	if err := f.pipeline.Run(context.Background(), jobID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	prev := 0
	for _, e := range f.pub.all() {
		var progress int
		switch data := e.Data.(type) {
		case domain.SlideContentData:
			progress = data.Progress
		case domain.ImageProgressData:
			progress = data.Progress
		case domain.GenerationCompleteData:
			progress = data.Progress
		default:
			continue
		}
		if progress < prev {
			t.Fatalf("progress went backwards: %d after %d (event %s)", progress, prev, e.Type)
		}
		prev = progress
	}
	if prev != 100 {
		t.Errorf("final progress = %d, want 100", prev)
	}
}

func TestPipelineContentFailureInsertsPlaceholder(t *testing.T) {
	f := newPipelineFixture(scriptedCompleter(false, "Second quarter"), nil)
	jobID := f.seedJob(t, domain.GenerationRequest{InputText: "summarize the year"})

	if err := f.pipeline.Run(context.Background(), jobID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job, _ := f.jobs.GetByID(context.Background(), jobID)
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %q, a single slide failure must not fail the job", job.Status)
	}
	deck, err := f.decks.GetByID(context.Background(), job.DeckID)
	if err != nil {
		t.Fatalf("load deck: %v", err)
	}
	if len(deck.Slides) != 3 {
		t.Fatalf("deck has %d slides, want 3", len(deck.Slides))
	}
	if deck.Slides[1].Warning == "" {
		t.Error("placeholder slide not flagged with a warning")
	}
	if deck.Slides[0].Warning != "" || deck.Slides[2].Warning != "" {
		t.Error("healthy slides were flagged")
	}

	validated := f.pub.byType(domain.EventSlideValidated)
	if len(validated) != 3 {
		t.Fatalf("slide_validated events = %d, want 3", len(validated))
	}
	if data := validated[1].Data.(domain.SlideValidatedData); len(data.Violations) == 0 {
		t.Error("placeholder slide_validated carries no violations")
	}
}

func TestPipelineCancellation(t *testing.T) {
	f := newPipelineFixture(scriptedCompleter(false, ""), nil)
	jobID := f.seedJob(t, domain.GenerationRequest{InputText: "summarize the year"})
	if err := f.jobs.RequestCancel(context.Background(), jobID); err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}

	if err := f.pipeline.Run(context.Background(), jobID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job, _ := f.jobs.GetByID(context.Background(), jobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if job.ErrorCode != domain.ErrCodeCancelled {
		t.Errorf("error code = %q, want %q", job.ErrorCode, domain.ErrCodeCancelled)
	}

	failed := f.pub.byType(domain.EventGenerationFailed)
	if len(failed) != 1 {
		t.Fatalf("generation_failed events = %d, want 1", len(failed))
	}
	if data := failed[0].Data.(domain.GenerationFailedData); data.Code != domain.ErrCodeCancelled {
		t.Errorf("event code = %q", data.Code)
	}
}

func TestPipelineImagePhase(t *testing.T) {
	images := &fakeImageGen{}
	f := newPipelineFixture(scriptedCompleter(true, ""), images)
	jobID := f.seedJob(t, domain.GenerationRequest{InputText: "summarize the year", GenerateImages: true})

	if err := f.pipeline.Run(context.Background(), jobID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job, _ := f.jobs.GetByID(context.Background(), jobID)
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %q (%s)", job.Status, job.ErrorMessage)
	}
	deck, _ := f.decks.GetByID(context.Background(), job.DeckID)
	filled := 0
	for _, slide := range deck.Slides {
		for _, block := range slide.Blocks {
			if block.Kind == domain.BlockKindImage && block.URL != "" {
				filled++
			}
		}
	}
	if filled != 3 {
		t.Errorf("filled image blocks = %d, want 3", filled)
	}

	if started := f.pub.byType(domain.EventImageStarted); len(started) != 1 {
		t.Errorf("image_started events = %d, want 1", len(started))
	}
	completes := f.pub.byType(domain.EventImageComplete)
	if len(completes) != 3 {
		t.Fatalf("image_complete events = %d, want 3", len(completes))
	}
	for _, e := range completes {
		if data := e.Data.(domain.ImageCompleteData); data.Failed || data.URL == "" {
			t.Errorf("image_complete data = %+v", data)
		}
	}
}

func TestPipelineImageFailureNonFatal(t *testing.T) {
	f := newPipelineFixture(scriptedCompleter(true, ""), &fakeImageGen{fail: true})
	jobID := f.seedJob(t, domain.GenerationRequest{InputText: "summarize the year", GenerateImages: true})

	if err := f.pipeline.Run(context.Background(), jobID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job, _ := f.jobs.GetByID(context.Background(), jobID)
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %q, image failures must not fail the job", job.Status)
	}
	deck, _ := f.decks.GetByID(context.Background(), job.DeckID)
	for si, slide := range deck.Slides {
		for _, block := range slide.Blocks {
			if block.Kind == domain.BlockKindImage && block.URL != "" {
				t.Errorf("slide %d image block has a url despite generator failure", si)
			}
		}
	}
	for _, e := range f.pub.byType(domain.EventImageComplete) {
		if data := e.Data.(domain.ImageCompleteData); !data.Failed {
			t.Errorf("image_complete not marked failed: %+v", data)
		}
	}
}

func TestPipelineTerminalJobSkipped(t *testing.T) {
	f := newPipelineFixture(scriptedCompleter(false, ""), nil)
	jobID := f.seedJob(t, domain.GenerationRequest{InputText: "summarize the year"})
	if err := f.jobs.MarkRunning(context.Background(), jobID); err != nil {
		t.Fatal(err)
	}
	if err := f.jobs.MarkCompleted(context.Background(), jobID); err != nil {
		t.Fatal(err)
	}

	if err := f.pipeline.Run(context.Background(), jobID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if events := f.pub.all(); len(events) != 0 {
		t.Errorf("terminal job republished %d events", len(events))
	}
}
