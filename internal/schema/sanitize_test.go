package schema

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

func TestTruncateText(t *testing.T) {
	if got := TruncateText("short", 100); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	long := strings.Repeat("word ", 50)
	got := TruncateText(long, 40)
	if n := utf8.RuneCountInString(got); n > 40 {
		t.Fatalf("truncated to %d runes, want <= 40", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}

func TestSanitizeOutline_ClampsRawModelOutput(t *testing.T) {
	raw := domain.Outline{
		Title: strings.Repeat("t", 500),
	}
	for i := 0; i < domain.MaxOutlineSlides+10; i++ {
		raw.Slides = append(raw.Slides, domain.OutlineSlide{
			Title:         strings.Repeat("s", 300),
			Hints:         []string{"one", "two", "three", "four", "five"},
			SuggestedType: "made_up_type",
		})
	}

	outline, err := SanitizeOutline(raw)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if len(outline.Slides) != domain.MaxOutlineSlides {
		t.Fatalf("expected %d slides, got %d", domain.MaxOutlineSlides, len(outline.Slides))
	}
	for i, slide := range outline.Slides {
		if slide.Title == "" {
			t.Fatalf("slide %d has empty title", i)
		}
		if n := utf8.RuneCountInString(slide.Title); n > domain.MaxOutlineTitleLen {
			t.Fatalf("slide %d title is %d runes", i, n)
		}
		if len(slide.Hints) > domain.MaxOutlineHints {
			t.Fatalf("slide %d has %d hints", i, len(slide.Hints))
		}
		if slide.SuggestedType != "" {
			t.Fatalf("unknown suggested type should be cleared, got %q", slide.SuggestedType)
		}
	}
}

func TestSanitizeOutline_DropsEmptyTitles(t *testing.T) {
	raw := domain.Outline{Slides: []domain.OutlineSlide{
		{Title: "  "},
		{Title: "Kept"},
	}}
	outline, err := SanitizeOutline(raw)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if len(outline.Slides) != 1 || outline.Slides[0].Title != "Kept" {
		t.Fatalf("unexpected slides: %+v", outline.Slides)
	}
	if outline.Title != "Kept" {
		t.Fatalf("expected deck title fallback to first slide, got %q", outline.Title)
	}
}

func TestSanitizeOutline_AllEmptyFails(t *testing.T) {
	if _, err := SanitizeOutline(domain.Outline{Title: "x"}); err == nil {
		t.Fatal("expected error for outline without slides")
	}
}

func TestSanitizeSlide_ClampsTableCells(t *testing.T) {
	slide := domain.Slide{
		Type:          domain.SlideTypeTable,
		LayoutVariant: "default",
		Blocks: []domain.Block{
			{Kind: domain.BlockKindTitle, Text: "Regions"},
			{Kind: domain.BlockKindTable,
				Header: []string{strings.Repeat("h", MaxTableCellLen+40), "Revenue"},
				Rows:   [][]string{{strings.Repeat("c", MaxTableCellLen+200), "1M"}}},
		},
	}
	clean := SanitizeSlide(slide)
	table := clean.Blocks[1]
	if n := utf8.RuneCountInString(table.Header[0]); n > MaxTableCellLen {
		t.Fatalf("header cell is %d runes after sanitize", n)
	}
	if n := utf8.RuneCountInString(table.Rows[0][0]); n > MaxTableCellLen {
		t.Fatalf("row cell is %d runes after sanitize", n)
	}
	if violations := Validate(clean); len(violations) != 0 {
		t.Fatalf("sanitized table slide must validate, got %v", violations)
	}
}

func TestSanitizeSlide_ClampsAndDropsUnknownKinds(t *testing.T) {
	slide := domain.Slide{
		Type:          domain.SlideTypeBullets,
		LayoutVariant: "spiral",
		Blocks: []domain.Block{
			{Kind: domain.BlockKindTitle, Text: strings.Repeat("a", MaxTitleLen+50)},
			{Kind: "hologram", Text: "?"},
			{Kind: domain.BlockKindBullets, Items: []string{strings.Repeat("b", MaxBulletLen+10), "ok"}},
		},
	}
	clean := SanitizeSlide(slide)
	if len(clean.Blocks) != 2 {
		t.Fatalf("expected unknown kind dropped, got %d blocks", len(clean.Blocks))
	}
	if clean.LayoutVariant != "default" {
		t.Fatalf("expected default variant, got %q", clean.LayoutVariant)
	}
	if violations := Validate(clean); len(violations) != 0 {
		t.Fatalf("sanitized slide must validate, got %v", violations)
	}
}
