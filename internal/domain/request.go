package domain

import "unicode/utf8"

// TextMode controls how the pipeline treats the submitted text.
type TextMode string

const (
	TextModeGenerate TextMode = "generate"
	TextModeCondense TextMode = "condense"
	TextModePreserve TextMode = "preserve"
)

// Amount controls how much content each slide carries.
type Amount string

const (
	AmountBrief    Amount = "brief"
	AmountMedium   Amount = "medium"
	AmountDetailed Amount = "detailed"
)

// MaxInputTextLen bounds the raw input accepted for a generation, counted
// in runes like every other content bound.
const MaxInputTextLen = 20000

// GenerationRequest is the immutable input a generation job is created from.
type GenerationRequest struct {
	InputText      string   `json:"input_text"`
	TextMode       TextMode `json:"text_mode"`
	Language       string   `json:"language,omitempty"`
	Tone           string   `json:"tone,omitempty"`
	Audience       string   `json:"audience,omitempty"`
	Amount         Amount   `json:"amount,omitempty"`
	NumSlides      int      `json:"num_slides,omitempty"`
	ThemeID        string   `json:"theme_id,omitempty"`
	BrandColors    []string `json:"brand_colors,omitempty"`
	GenerateImages bool     `json:"generate_images,omitempty"`
	Outline        *Outline `json:"outline,omitempty"`
}

// Normalize applies defaults for optional fields left empty by the client.
func (r *GenerationRequest) Normalize() {
	if r.TextMode == "" {
		r.TextMode = TextModeGenerate
	}
	if r.Amount == "" {
		r.Amount = AmountMedium
	}
	if r.Language == "" {
		r.Language = "en"
	}
}

// Validate reports whether the request can be turned into a job.
func (r *GenerationRequest) Validate() error {
	if r.InputText == "" && r.Outline == nil {
		return ErrInvalidRequest
	}
	if utf8.RuneCountInString(r.InputText) > MaxInputTextLen {
		return ErrInvalidRequest
	}
	switch r.TextMode {
	case TextModeGenerate, TextModeCondense, TextModePreserve:
	default:
		return ErrInvalidRequest
	}
	switch r.Amount {
	case AmountBrief, AmountMedium, AmountDetailed:
	default:
		return ErrInvalidRequest
	}
	if r.NumSlides < 0 || r.NumSlides > MaxOutlineSlides {
		return ErrInvalidRequest
	}
	return nil
}
