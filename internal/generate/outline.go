package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
	"github.com/sander-arti/gamma-klone-sub003/internal/providers/text"
	"github.com/sander-arti/gamma-klone-sub003/internal/schema"
)

const outlineSystemPrompt = "You are a presentation planning assistant that only responds with valid JSON."

// OutlineGenerator turns raw request text into a sanitized deck outline
// with one model call, retried with a corrective prompt on malformed
// output. Exhausting the retry budget is job-fatal: nothing downstream can
// proceed without an outline.
type OutlineGenerator struct {
	completer text.Completer
	policy    RetryPolicy
	logger    zerolog.Logger
}

// NewOutlineGenerator builds an outline generator.
func NewOutlineGenerator(completer text.Completer, policy RetryPolicy, logger zerolog.Logger) *OutlineGenerator {
	return &OutlineGenerator{completer: completer, policy: policy, logger: logger}
}

type rawOutline struct {
	Title  string `json:"title"`
	Slides []struct {
		Title         string   `json:"title"`
		Hints         []string `json:"hints"`
		SuggestedType string   `json:"suggested_type"`
	} `json:"slides"`
}

// Generate produces the outline for a request. A pre-supplied outline
// skips the model call but runs through the same sanitizer.
func (g *OutlineGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Outline, error) {
	if req.Outline != nil {
		outline, err := schema.SanitizeOutline(*req.Outline)
		if err != nil {
			return domain.Outline{}, domain.NewGenerationError(domain.ErrCodeOutlineFailed, "supplied outline is empty", err)
		}
		return outline, nil
	}

	outline, err := retryDo(ctx, g.policy, nil, func(ctx context.Context, attempt int) (domain.Outline, error) {
		prompt := g.buildPrompt(req, attempt)
		raw, err := g.completer.Complete(ctx, prompt)
		if err != nil {
			return domain.Outline{}, err
		}
		parsed, err := parseOutline(raw)
		if err != nil {
			g.logger.Warn().Err(err).Int("attempt", attempt).Msg("outline: malformed model output")
			return domain.Outline{}, err
		}
		return parsed, nil
	})
	if err != nil {
		return domain.Outline{}, domain.NewGenerationError(domain.ErrCodeOutlineFailed, "outline generation exhausted retries", err)
	}
	return outline, nil
}

func (g *OutlineGenerator) buildPrompt(req domain.GenerationRequest, attempt int) text.CompletionRequest {
	sb := &strings.Builder{}
	sb.WriteString("Plan a slide presentation from the input below. Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"title":string,"slides":[{"title":string,"hints":string[],"suggested_type":string}]}`)
	fmt.Fprintf(sb, ". Each slide gets at most %d short hints. suggested_type must be one of: %s, or empty.",
		domain.MaxOutlineHints, slideTypeList())
	fmt.Fprintf(sb, " Write in language %q.", req.Language)
	if req.Tone != "" {
		fmt.Fprintf(sb, " Tone: %s.", req.Tone)
	}
	if req.Audience != "" {
		fmt.Fprintf(sb, " Audience: %s.", req.Audience)
	}
	switch req.TextMode {
	case domain.TextModeCondense:
		sb.WriteString(" Condense the input; do not invent content beyond it.")
	case domain.TextModePreserve:
		sb.WriteString(" Preserve the input's wording and structure as closely as possible.")
	default:
		sb.WriteString(" Expand the input into a well-structured narrative.")
	}
	if req.NumSlides > 0 {
		fmt.Fprintf(sb, " Target %d slides.", req.NumSlides)
	} else {
		fmt.Fprintf(sb, " Choose a sensible slide count between 3 and 12.")
	}
	if attempt > 0 {
		sb.WriteString(" Your previous answer was not valid JSON for the schema. Return ONLY the JSON object, no prose, no code fences.")
	}
	fmt.Fprintf(sb, "\n\nInput:\n%s", req.InputText)

	return text.CompletionRequest{
		Kind:        text.KindOutline,
		System:      outlineSystemPrompt,
		Prompt:      sb.String(),
		Temperature: 0.5,
		Subject:     subjectFromInput(req.InputText),
		Details:     sentencesFromInput(req.InputText, req.NumSlides),
	}
}

func parseOutline(raw string) (domain.Outline, error) {
	fragment := text.ExtractJSONFragment(raw)
	if fragment == "" {
		return domain.Outline{}, fmt.Errorf("outline: empty model output")
	}
	var parsed rawOutline
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return domain.Outline{}, fmt.Errorf("outline: decode: %w", err)
	}
	outline := domain.Outline{Title: parsed.Title}
	for _, s := range parsed.Slides {
		outline.Slides = append(outline.Slides, domain.OutlineSlide{
			Title:         s.Title,
			Hints:         s.Hints,
			SuggestedType: domain.SlideType(s.SuggestedType),
		})
	}
	// Lenient path: oversized raw output is clamped, not rejected.
	sanitized, err := schema.SanitizeOutline(outline)
	if err != nil {
		return domain.Outline{}, fmt.Errorf("outline: no usable slides: %w", err)
	}
	return sanitized, nil
}

func slideTypeList() string {
	types := []domain.SlideType{
		domain.SlideTypeCover, domain.SlideTypeAgenda, domain.SlideTypeSectionHeader,
		domain.SlideTypeBullets, domain.SlideTypeNumberedList, domain.SlideTypeTwoColumn,
		domain.SlideTypeComparison, domain.SlideTypeImageFull, domain.SlideTypeImageText,
		domain.SlideTypeQuote, domain.SlideTypeStats, domain.SlideTypeTimeline,
		domain.SlideTypeTable, domain.SlideTypeTeam, domain.SlideTypeIconGrid,
		domain.SlideTypeCallout, domain.SlideTypeClosing,
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func subjectFromInput(input string) string {
	line := strings.TrimSpace(input)
	if idx := strings.IndexByte(line, '\n'); idx > 0 {
		line = line[:idx]
	}
	return schema.TruncateText(line, 80)
}

func sentencesFromInput(input string, max int) []string {
	if max <= 0 || max > 8 {
		max = 5
	}
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == '.' || r == '\n' || r == ';'
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		out = append(out, schema.TruncateText(f, domain.MaxOutlineTitleLen))
		if len(out) == max {
			break
		}
	}
	return out
}
