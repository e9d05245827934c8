package domain

// Outline bounds applied after sanitization.
const (
	MaxOutlineSlides     = 30
	MaxOutlineTitleLen   = 100
	MaxOutlineHints      = 3
	MaxOutlineHintLen    = 150
	MaxDeckTitleLen      = 120
)

// OutlineSlide is one stub of the deck skeleton produced before full
// content generation.
type OutlineSlide struct {
	Title         string    `json:"title"`
	Hints         []string  `json:"hints,omitempty"`
	SuggestedType SlideType `json:"suggested_type,omitempty"`
}

// Outline is produced once per job and immutable afterwards; its slide
// count is the authoritative total reported to clients, superseding the
// count the user originally requested.
type Outline struct {
	Title  string         `json:"title"`
	Slides []OutlineSlide `json:"slides"`
}
