package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sander-arti/gamma-klone-sub003/internal/classify"
	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
	"github.com/sander-arti/gamma-klone-sub003/internal/providers/text"
	"github.com/sander-arti/gamma-klone-sub003/internal/schema"
)

const contentSystemPrompt = "You are a presentation content writer that only responds with valid JSON."

// ContentGenerator expands one outline entry into a fully populated slide.
// Strict parsing rejects malformed model output (unknown kinds, missing
// required blocks) and retries with a corrective prompt; length and
// cardinality overflows are left for the repair loop.
type ContentGenerator struct {
	completer text.Completer
	policy    RetryPolicy
	logger    zerolog.Logger
}

// NewContentGenerator builds a content generator.
func NewContentGenerator(completer text.Completer, policy RetryPolicy, logger zerolog.Logger) *ContentGenerator {
	return &ContentGenerator{completer: completer, policy: policy, logger: logger}
}

type rawSlide struct {
	Type          string         `json:"type"`
	LayoutVariant string         `json:"layout_variant"`
	Blocks        []domain.Block `json:"blocks"`
}

// Generate produces the slide at position index. The full outline travels
// along for cross-slide coherence.
func (g *ContentGenerator) Generate(ctx context.Context, index int, outline domain.Outline, req domain.GenerationRequest) (domain.Slide, error) {
	stub := outline.Slides[index]
	signal := classify.Classify(req.InputText + "\n" + strings.Join(stub.Hints, "\n"))
	target := classify.ResolveSlideType(stub.SuggestedType, signal, fallbackType(index, len(outline.Slides)))

	slide, err := retryDo(ctx, g.policy, nil, func(ctx context.Context, attempt int) (domain.Slide, error) {
		prompt := g.buildPrompt(index, outline, req, target, attempt)
		raw, err := g.completer.Complete(ctx, prompt)
		if err != nil {
			return domain.Slide{}, err
		}
		parsed, err := parseSlide(raw, target)
		if err != nil {
			g.logger.Warn().Err(err).Int("slide_index", index).Int("attempt", attempt).Msg("content: malformed model output")
			return domain.Slide{}, err
		}
		return parsed, nil
	})
	if err != nil {
		return domain.Slide{}, fmt.Errorf("content generation for slide %d: %w", index, err)
	}

	slide.LayoutVariant = chooseVariant(slide, signal)
	return slide, nil
}

func (g *ContentGenerator) buildPrompt(index int, outline domain.Outline, req domain.GenerationRequest, target domain.SlideType, attempt int) text.CompletionRequest {
	stub := outline.Slides[index]

	sb := &strings.Builder{}
	sb.WriteString("Write the content for one presentation slide. Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"type":string,"layout_variant":string,"blocks":[{"kind":string,...}]}`)
	sb.WriteString(". Block kinds: title{text}, text{text}, bullets{items:string[]}, image{prompt,alt}, table{header:string[],rows:string[][]}, callout{text}, stat_block{label,value,detail}, timeline_step{title,detail}, icon_card{icon,title,detail}, numbered_card{number,title,detail}.")
	fmt.Fprintf(sb, " Slide type must be %q. Required blocks: %s.", target, describeSchema(target))
	fmt.Fprintf(sb, " Bounds: titles <= %d chars, bullets %d-%d items of <= %d chars.",
		schema.MaxTitleLen, schema.MinBulletItems, schema.MaxBulletItems, schema.MaxBulletLen)
	fmt.Fprintf(sb, " Write in language %q.", req.Language)
	if req.Tone != "" {
		fmt.Fprintf(sb, " Tone: %s.", req.Tone)
	}
	if req.Audience != "" {
		fmt.Fprintf(sb, " Audience: %s.", req.Audience)
	}
	switch req.Amount {
	case domain.AmountBrief:
		sb.WriteString(" Keep content minimal, a few words per point.")
	case domain.AmountDetailed:
		sb.WriteString(" Make content thorough within the bounds.")
	}
	if attempt > 0 {
		sb.WriteString(" Your previous answer was not valid for the schema. Return ONLY the JSON object with the required blocks, no prose, no code fences.")
	}

	fmt.Fprintf(sb, "\n\nDeck title: %s\nFull outline:\n", outline.Title)
	for i, s := range outline.Slides {
		marker := " "
		if i == index {
			marker = ">"
		}
		fmt.Fprintf(sb, "%s %d. %s\n", marker, i+1, s.Title)
	}
	fmt.Fprintf(sb, "\nThis slide (%d of %d): %s\n", index+1, len(outline.Slides), stub.Title)
	for _, hint := range stub.Hints {
		fmt.Fprintf(sb, "- %s\n", hint)
	}
	if req.TextMode != domain.TextModeGenerate {
		fmt.Fprintf(sb, "\nSource input:\n%s\n", req.InputText)
	}

	return text.CompletionRequest{
		Kind:        text.KindSlide,
		System:      contentSystemPrompt,
		Prompt:      sb.String(),
		Temperature: 0.7,
		Subject:     stub.Title,
		Details:     stub.Hints,
	}
}

// parseSlide is the strict path: unknown kinds or missing required blocks
// are errors, while oversized content is accepted for the repair loop.
func parseSlide(raw string, target domain.SlideType) (domain.Slide, error) {
	fragment := text.ExtractJSONFragment(raw)
	if fragment == "" {
		return domain.Slide{}, fmt.Errorf("slide: empty model output")
	}
	var parsed rawSlide
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return domain.Slide{}, fmt.Errorf("slide: decode: %w", err)
	}

	slide := domain.Slide{
		Type:          domain.SlideType(parsed.Type),
		LayoutVariant: parsed.LayoutVariant,
		Blocks:        parsed.Blocks,
	}
	if !schema.KnownSlideType(slide.Type) {
		// The model occasionally renames the type; trust the target.
		slide.Type = target
	}
	for _, v := range schema.Validate(slide) {
		if v.Class == schema.ViolationStructure {
			return domain.Slide{}, fmt.Errorf("slide: %s", v)
		}
	}
	return slide, nil
}

// fallbackType picks a default layout for outline entries without a
// suggested type and no classifier signal.
func fallbackType(index, total int) domain.SlideType {
	switch {
	case index == 0:
		return domain.SlideTypeCover
	case index == total-1 && total > 2:
		return domain.SlideTypeClosing
	default:
		return domain.SlideTypeBullets
	}
}

// chooseVariant keeps a valid model-picked variant, otherwise derives one
// from the content shape.
func chooseVariant(slide domain.Slide, signal classify.Signal) string {
	if slide.LayoutVariant != "" && schema.ValidVariant(slide.Type, slide.LayoutVariant) {
		return slide.LayoutVariant
	}
	if signal.Variant != "" && schema.ValidVariant(slide.Type, signal.Variant) {
		return signal.Variant
	}
	switch slide.Type {
	case domain.SlideTypeBullets:
		for _, b := range slide.Blocks {
			if b.Kind == domain.BlockKindBullets && len(b.Items) > 4 {
				return "grid"
			}
		}
	case domain.SlideTypeStats:
		count := 0
		for _, b := range slide.Blocks {
			if b.Kind == domain.BlockKindStat {
				count++
			}
		}
		if count >= 4 {
			return "stats_bottom"
		}
	}
	return schema.DefaultVariant(slide.Type)
}

func describeSchema(t domain.SlideType) string {
	switch t {
	case domain.SlideTypeBullets:
		return "1 title + 1 bullets (optional image)"
	case domain.SlideTypeStats:
		return "1 title + 2-4 stat_block"
	case domain.SlideTypeTimeline:
		return "1 title + 2-6 timeline_step"
	case domain.SlideTypeComparison:
		return "1 title + exactly 2 bullets blocks"
	case domain.SlideTypeTwoColumn:
		return "1 title + exactly 2 text blocks"
	case domain.SlideTypeNumberedList:
		return "1 title + 2-6 numbered_card"
	case domain.SlideTypeTable:
		return "1 title + 1 table"
	case domain.SlideTypeTeam, domain.SlideTypeIconGrid:
		return "1 title + 2-8 icon_card"
	case domain.SlideTypeQuote:
		return "1 text (the quote), optional title (attribution)"
	case domain.SlideTypeImageFull:
		return "1 image, optional title"
	case domain.SlideTypeImageText:
		return "1 title + 1 text + 1 image"
	case domain.SlideTypeCallout:
		return "1 callout, optional title"
	default:
		return "1 title (optional text, optional image)"
	}
}
