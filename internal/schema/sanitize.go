package schema

import (
	"strings"
	"unicode/utf8"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

// TruncateText cuts s to at most max runes, appending an ellipsis when
// anything was removed. Cuts prefer the last word boundary in the kept
// range so truncation is deterministic and readable.
func TruncateText(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := runes[:max-1]
	if idx := lastSpace(cut); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(string(cut), " \t") + "…"
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// SanitizeOutline applies the lenient parse path: oversized raw model
// output is accepted, then clamped deterministically to the outline
// bounds. Slides with empty titles are dropped; unknown suggested types
// are cleared rather than rejected.
func SanitizeOutline(outline domain.Outline) (domain.Outline, error) {
	out := domain.Outline{Title: TruncateText(outline.Title, domain.MaxDeckTitleLen)}

	for _, slide := range outline.Slides {
		title := TruncateText(slide.Title, domain.MaxOutlineTitleLen)
		if title == "" {
			continue
		}
		clean := domain.OutlineSlide{Title: title}
		for _, hint := range slide.Hints {
			hint = TruncateText(hint, domain.MaxOutlineHintLen)
			if hint == "" {
				continue
			}
			clean.Hints = append(clean.Hints, hint)
			if len(clean.Hints) == domain.MaxOutlineHints {
				break
			}
		}
		if KnownSlideType(slide.SuggestedType) {
			clean.SuggestedType = slide.SuggestedType
		}
		out.Slides = append(out.Slides, clean)
		if len(out.Slides) == domain.MaxOutlineSlides {
			break
		}
	}

	if len(out.Slides) == 0 {
		return domain.Outline{}, domain.ErrInvalidRequest
	}
	if out.Title == "" {
		out.Title = out.Slides[0].Title
	}
	return out, nil
}

// SanitizeSlide clamps oversized block content in place of rejecting it.
// Used as the last resort after the repair budget is exhausted so that a
// completed job never carries schema-breaking slides.
func SanitizeSlide(slide domain.Slide) domain.Slide {
	blocks := make([]domain.Block, 0, len(slide.Blocks))
	for _, block := range slide.Blocks {
		if !KnownKind(block.Kind) {
			continue
		}
		blocks = append(blocks, sanitizeBlock(block))
	}
	slide.Blocks = blocks
	if !ValidVariant(slide.Type, slide.LayoutVariant) {
		slide.LayoutVariant = DefaultVariant(slide.Type)
	}
	return slide
}

func sanitizeBlock(block domain.Block) domain.Block {
	switch block.Kind {
	case domain.BlockKindTitle, domain.BlockKindText, domain.BlockKindCallout:
		block.Text = TruncateText(block.Text, boundsByKind[block.Kind].textMax)
	case domain.BlockKindBullets:
		if len(block.Items) > MaxBulletItems {
			block.Items = block.Items[:MaxBulletItems]
		}
		for i, item := range block.Items {
			block.Items[i] = TruncateText(item, MaxBulletLen)
		}
	case domain.BlockKindTable:
		if len(block.Rows) > MaxTableRows {
			block.Rows = block.Rows[:MaxTableRows]
		}
		if len(block.Header) > MaxTableCols {
			block.Header = block.Header[:MaxTableCols]
		}
		for i, cell := range block.Header {
			block.Header[i] = TruncateText(cell, MaxTableCellLen)
		}
		for i, row := range block.Rows {
			if len(row) > MaxTableCols {
				block.Rows[i] = row[:MaxTableCols]
			}
			for j, cell := range block.Rows[i] {
				block.Rows[i][j] = TruncateText(cell, MaxTableCellLen)
			}
		}
	case domain.BlockKindStat:
		block.Label = TruncateText(block.Label, MaxStatLabelLen)
		block.Value = TruncateText(block.Value, MaxStatValueLen)
		block.Detail = TruncateText(block.Detail, MaxStatDetailLen)
	case domain.BlockKindTimelineStep, domain.BlockKindIconCard, domain.BlockKindNumberedCard:
		bounds := boundsByKind[block.Kind]
		block.Title = TruncateText(block.Title, bounds.titleMax)
		block.Detail = TruncateText(block.Detail, bounds.detailMax)
	case domain.BlockKindImage:
		block.Prompt = TruncateText(block.Prompt, MaxImagePromptLen)
	}
	return block
}
