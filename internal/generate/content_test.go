package generate

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
	"github.com/sander-arti/gamma-klone-sub003/internal/providers/text"
)

func bulletsOutline(titles ...string) domain.Outline {
	outline := domain.Outline{Title: "Deck"}
	for _, title := range titles {
		outline.Slides = append(outline.Slides, domain.OutlineSlide{
			Title:         title,
			SuggestedType: domain.SlideTypeBullets,
		})
	}
	return outline
}

const validBulletsSlide = `{"type":"bullets","layout_variant":"default","blocks":[
	{"kind":"title","text":"Soil basics"},
	{"kind":"bullets","items":["Loam drains well","Clay holds water"]}
]}`

func TestContentGenerate(t *testing.T) {
	completer := &fakeCompleter{fn: func(req text.CompletionRequest, _ int) (string, error) {
		if req.Kind != text.KindSlide {
			t.Fatalf("kind = %q, want slide", req.Kind)
		}
		return validBulletsSlide, nil
	}}
	g := NewContentGenerator(completer, fastPolicy(), zerolog.Nop())

	req := domain.GenerationRequest{InputText: "soil types for gardening", Language: "en"}
	slide, err := g.Generate(context.Background(), 0, bulletsOutline("Soil basics"), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if slide.Type != domain.SlideTypeBullets {
		t.Errorf("type = %q, want bullets", slide.Type)
	}
	if slide.LayoutVariant != "default" {
		t.Errorf("variant = %q, want default", slide.LayoutVariant)
	}
	if len(slide.Blocks) != 2 {
		t.Errorf("blocks = %d, want 2", len(slide.Blocks))
	}
}

func TestContentGenerateUnknownTypeUsesTarget(t *testing.T) {
	completer := &fakeCompleter{fn: func(text.CompletionRequest, int) (string, error) {
		return `{"type":"fancy_custom","blocks":[
			{"kind":"title","text":"Soil basics"},
			{"kind":"bullets","items":["one","two"]}
		]}`, nil
	}}
	g := NewContentGenerator(completer, fastPolicy(), zerolog.Nop())

	req := domain.GenerationRequest{InputText: "soil types", Language: "en"}
	slide, err := g.Generate(context.Background(), 0, bulletsOutline("Soil basics"), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if slide.Type != domain.SlideTypeBullets {
		t.Errorf("type = %q, want the target type bullets", slide.Type)
	}
}

func TestContentGenerateRetriesStructureViolation(t *testing.T) {
	completer := &fakeCompleter{fn: func(_ text.CompletionRequest, call int) (string, error) {
		if call == 0 {
			// Missing the required title block.
			return `{"type":"bullets","blocks":[{"kind":"bullets","items":["one"]}]}`, nil
		}
		return validBulletsSlide, nil
	}}
	g := NewContentGenerator(completer, fastPolicy(), zerolog.Nop())

	req := domain.GenerationRequest{InputText: "soil types", Language: "en"}
	if _, err := g.Generate(context.Background(), 0, bulletsOutline("Soil basics"), req); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if completer.callCount() != 2 {
		t.Fatalf("calls = %d, want 2", completer.callCount())
	}
	if !strings.Contains(completer.call(1).Prompt, "previous answer was not valid") {
		t.Error("retry prompt is missing the corrective instruction")
	}
}

func TestContentGenerateOversizedContentAccepted(t *testing.T) {
	// Length overflows are the repair loop's job, not a parse failure.
	long := strings.Repeat("x", 400)
	completer := &fakeCompleter{fn: func(text.CompletionRequest, int) (string, error) {
		return `{"type":"bullets","blocks":[
			{"kind":"title","text":"` + long + `"},
			{"kind":"bullets","items":["one"]}
		]}`, nil
	}}
	g := NewContentGenerator(completer, fastPolicy(), zerolog.Nop())

	req := domain.GenerationRequest{InputText: "soil types", Language: "en"}
	slide, err := g.Generate(context.Background(), 0, bulletsOutline("Soil basics"), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if completer.callCount() != 1 {
		t.Errorf("calls = %d, want 1", completer.callCount())
	}
	if slide.Blocks[0].Text != long {
		t.Error("oversized title was altered before repair")
	}
}

func TestContentGenerateVariantFromContentShape(t *testing.T) {
	completer := &fakeCompleter{fn: func(text.CompletionRequest, int) (string, error) {
		return `{"type":"bullets","blocks":[
			{"kind":"title","text":"Many points"},
			{"kind":"bullets","items":["a","b","c","d","e","f"]}
		]}`, nil
	}}
	g := NewContentGenerator(completer, fastPolicy(), zerolog.Nop())

	req := domain.GenerationRequest{InputText: "soil types", Language: "en"}
	slide, err := g.Generate(context.Background(), 0, bulletsOutline("Many points"), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if slide.LayoutVariant != "grid" {
		t.Errorf("variant = %q, want grid for a dense bullet list", slide.LayoutVariant)
	}
}

func TestContentGenerateExhaustsRetries(t *testing.T) {
	completer := &fakeCompleter{fn: func(text.CompletionRequest, int) (string, error) {
		return "not a slide at all", nil
	}}
	g := NewContentGenerator(completer, fastPolicy(), zerolog.Nop())

	req := domain.GenerationRequest{InputText: "soil types", Language: "en"}
	if _, err := g.Generate(context.Background(), 0, bulletsOutline("Soil basics"), req); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if completer.callCount() != 3 {
		t.Errorf("calls = %d, want 3", completer.callCount())
	}
}
