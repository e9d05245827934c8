package text

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrStaticRepair is returned when a repair completion is requested from
// the static completer; repairs need a real model.
var ErrStaticRepair = errors.New("static completer cannot repair content")

// StaticCompleter produces deterministic placeholder content when no model
// API key is configured. Output always parses and always fits the schema
// bounds, so pipelines running on it never enter the repair loop.
type StaticCompleter struct {
	titleCaser cases.Caser
}

// NewStaticCompleter builds the fallback completer.
func NewStaticCompleter() *StaticCompleter {
	return &StaticCompleter{titleCaser: cases.Title(language.English)}
}

func (s *StaticCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	switch req.Kind {
	case KindOutline:
		return s.outline(req)
	case KindSlide:
		return s.slide(req)
	case KindRepair:
		return "", ErrStaticRepair
	default:
		return "", fmt.Errorf("static completer: unsupported kind %q", req.Kind)
	}
}

func (s *StaticCompleter) outline(req CompletionRequest) (string, error) {
	subject := req.Subject
	if subject == "" {
		subject = "Presentation"
	}
	titles := req.Details
	if len(titles) == 0 {
		titles = []string{"Overview", "Key Points", "Details", "Next Steps"}
	}
	if len(titles) > 8 {
		titles = titles[:8]
	}
	type outlineSlide struct {
		Title string   `json:"title"`
		Hints []string `json:"hints,omitempty"`
	}
	payload := struct {
		Title  string         `json:"title"`
		Slides []outlineSlide `json:"slides"`
	}{Title: s.titleCaser.String(subject)}
	for _, title := range titles {
		payload.Slides = append(payload.Slides, outlineSlide{Title: s.titleCaser.String(title)})
	}
	return marshalString(payload)
}

func (s *StaticCompleter) slide(req CompletionRequest) (string, error) {
	subject := req.Subject
	if subject == "" {
		subject = "Untitled"
	}
	items := req.Details
	if len(items) == 0 {
		items = []string{"Placeholder content generated without a model", "Configure an API key for real content"}
	}
	if len(items) > 8 {
		items = items[:8]
	}
	type block struct {
		Kind  string   `json:"kind"`
		Text  string   `json:"text,omitempty"`
		Items []string `json:"items,omitempty"`
	}
	payload := struct {
		Type          string  `json:"type"`
		LayoutVariant string  `json:"layout_variant"`
		Blocks        []block `json:"blocks"`
	}{
		Type:          "bullets",
		LayoutVariant: "default",
		Blocks: []block{
			{Kind: "title", Text: subject},
			{Kind: "bullets", Items: items},
		},
	}
	return marshalString(payload)
}

func marshalString(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

var _ Completer = (*StaticCompleter)(nil)
