// Package text abstracts the text-generation model endpoint: prompt in,
// structured-JSON-ish text out. Retry policy lives with the callers; a
// completer performs exactly one call per invocation.
package text

import "context"

// Kind tags what a completion is asked to produce. The static fallback
// completer switches on it; the OpenAI completer only logs it.
type Kind string

const (
	KindOutline Kind = "outline"
	KindSlide   Kind = "slide"
	KindRepair  Kind = "repair"
)

// CompletionRequest describes one model call.
type CompletionRequest struct {
	Kind        Kind
	System      string
	Prompt      string
	Temperature float64

	// Subject and Details feed the static fallback, which cannot read the
	// full prompt: a short human-readable topic plus optional supporting
	// lines.
	Subject string
	Details []string
}

// Completer performs a single text-model call and returns the raw response
// text (typically JSON, possibly fenced or padded by the model).
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
