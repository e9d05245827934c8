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

const repairSystemPrompt = "You fix presentation slide content to satisfy constraints. Respond only with valid JSON."

// DefaultRepairAttempts caps the repair loop per slide.
const DefaultRepairAttempts = 2

// RepairResult reports what the repair loop produced. Exhausted means the
// attempt cap was reached with violations remaining; the caller keeps the
// slides with a warning flag instead of failing the job.
type RepairResult struct {
	Slides    []domain.Slide
	Attempts  int
	Exhausted bool
	Remaining []schema.Violation
}

// Repairer runs the bounded validate-repair loop for one generated slide.
// Two strategies: shorten rewrites the offending blocks in place; split
// redistributes the content across multiple slides when it structurally
// cannot fit one.
type Repairer struct {
	completer   text.Completer
	policy      RetryPolicy
	maxAttempts int
	logger      zerolog.Logger
}

// NewRepairer builds a repairer. maxAttempts <= 0 selects the default cap.
func NewRepairer(completer text.Completer, policy RetryPolicy, maxAttempts int, logger zerolog.Logger) *Repairer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultRepairAttempts
	}
	return &Repairer{completer: completer, policy: policy, maxAttempts: maxAttempts, logger: logger}
}

// Repair validates slide and repairs it until valid or the cap is hit.
// A single slide's unrepaired violation never fails the job: on
// exhaustion (or on repair-call failure) the current content is clamped by
// the sanitizer and surfaced with a warning.
func (r *Repairer) Repair(ctx context.Context, slide domain.Slide, req domain.GenerationRequest) RepairResult {
	current := []domain.Slide{slide}
	attempts := 0

	for {
		remaining := validateAll(current)
		if len(remaining) == 0 {
			return RepairResult{Slides: current, Attempts: attempts}
		}
		if attempts >= r.maxAttempts || !schema.Repairable(remaining) {
			return r.exhaust(current, attempts, remaining)
		}
		attempts++

		repaired, err := r.repairOnce(ctx, current, remaining, req)
		if err != nil {
			r.logger.Warn().Err(err).Int("attempt", attempts).Msg("repair: call failed")
			return r.exhaust(current, attempts, remaining)
		}
		current = repaired
	}
}

func (r *Repairer) exhaust(slides []domain.Slide, attempts int, remaining []schema.Violation) RepairResult {
	out := make([]domain.Slide, len(slides))
	for i, s := range slides {
		out[i] = schema.SanitizeSlide(s)
	}
	return RepairResult{Slides: out, Attempts: attempts, Exhausted: true, Remaining: remaining}
}

func (r *Repairer) repairOnce(ctx context.Context, slides []domain.Slide, violations []schema.Violation, req domain.GenerationRequest) ([]domain.Slide, error) {
	split := schema.NeedsSplit(violations)
	return retryDo(ctx, r.policy, nil, func(ctx context.Context, attempt int) ([]domain.Slide, error) {
		prompt, err := r.buildPrompt(slides, violations, req, split, attempt)
		if err != nil {
			return nil, err
		}
		raw, err := r.completer.Complete(ctx, prompt)
		if err != nil {
			return nil, err
		}
		if split {
			return parseSlideList(raw)
		}
		repaired, err := parseSlide(raw, slides[len(slides)-1].Type)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Slide, len(slides))
		copy(out, slides[:len(slides)-1])
		out[len(slides)-1] = repaired
		return out, nil
	})
}

func (r *Repairer) buildPrompt(slides []domain.Slide, violations []schema.Violation, req domain.GenerationRequest, split bool, attempt int) (text.CompletionRequest, error) {
	// Repairs always target the most recently produced slide; earlier
	// split results that already validate are carried through untouched.
	subject := slides[len(slides)-1]
	encoded, err := json.Marshal(rawSlide{
		Type:          string(subject.Type),
		LayoutVariant: subject.LayoutVariant,
		Blocks:        subject.Blocks,
	})
	if err != nil {
		return text.CompletionRequest{}, fmt.Errorf("repair: encode slide: %w", err)
	}

	sb := &strings.Builder{}
	if split {
		sb.WriteString("The slide below holds more content than one slide allows. Redistribute its content across two or more slides of the same type family, preserving all meaning and order. Respond strictly with JSON: ")
		sb.WriteString(`{"slides":[{"type":string,"layout_variant":string,"blocks":[...]}]}`)
	} else {
		sb.WriteString("Rewrite ONLY the offending blocks of the slide below so every constraint holds, preserving meaning and the slide shape. Respond strictly with JSON: ")
		sb.WriteString(`{"type":string,"layout_variant":string,"blocks":[...]}`)
	}
	fmt.Fprintf(sb, " Write in language %q.", req.Language)
	if attempt > 0 {
		sb.WriteString(" Your previous answer was still invalid. Return ONLY the JSON, no prose.")
	}
	sb.WriteString("\n\nConstraint violations:\n")
	for _, v := range violations {
		fmt.Fprintf(sb, "- %s\n", v)
	}
	fmt.Fprintf(sb, "\nSlide:\n%s\n", encoded)

	return text.CompletionRequest{
		Kind:        text.KindRepair,
		System:      repairSystemPrompt,
		Prompt:      sb.String(),
		Temperature: 0.3,
		Subject:     string(subject.Type),
	}, nil
}

func parseSlideList(raw string) ([]domain.Slide, error) {
	fragment := text.ExtractJSONFragment(raw)
	if fragment == "" {
		return nil, fmt.Errorf("repair: empty model output")
	}
	var parsed struct {
		Slides []rawSlide `json:"slides"`
	}
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return nil, fmt.Errorf("repair: decode split: %w", err)
	}
	if len(parsed.Slides) < 2 {
		return nil, fmt.Errorf("repair: split produced %d slides", len(parsed.Slides))
	}
	out := make([]domain.Slide, 0, len(parsed.Slides))
	for _, rs := range parsed.Slides {
		slide := domain.Slide{Type: domain.SlideType(rs.Type), LayoutVariant: rs.LayoutVariant, Blocks: rs.Blocks}
		if !schema.KnownSlideType(slide.Type) {
			return nil, fmt.Errorf("repair: split produced unknown type %q", rs.Type)
		}
		for _, v := range schema.Validate(slide) {
			if v.Class == schema.ViolationStructure {
				return nil, fmt.Errorf("repair: split slide invalid: %s", v)
			}
		}
		out = append(out, slide)
	}
	return out, nil
}

func validateAll(slides []domain.Slide) []schema.Violation {
	var out []schema.Violation
	for _, s := range slides {
		out = append(out, schema.Validate(s)...)
	}
	return out
}
