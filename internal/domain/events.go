package domain

import "time"

// EventType enumerates the closed vocabulary of generation stream events.
// Consumers switch over this set; adding a type means touching every
// reducer, which is intentional.
type EventType string

const (
	EventConnected          EventType = "connected"
	EventGenerationStarted  EventType = "generation_started"
	EventOutlineComplete    EventType = "outline_complete"
	EventDeckCreated        EventType = "deck_created"
	EventSlideStarted       EventType = "slide_started"
	EventBlockStarted       EventType = "block_started"
	EventBlockDelta         EventType = "block_delta"
	EventBlockComplete      EventType = "block_complete"
	EventSlideContent       EventType = "slide_content"
	EventSlideValidated     EventType = "slide_validated"
	EventImageStarted       EventType = "image_started"
	EventImageProgress      EventType = "image_progress"
	EventImageComplete      EventType = "image_complete"
	EventGenerationComplete EventType = "generation_complete"
	EventGenerationFailed   EventType = "generation_failed"
)

// Terminal reports whether the event ends a stream.
func (t EventType) Terminal() bool {
	return t == EventGenerationComplete || t == EventGenerationFailed
}

// StreamEvent is one entry of the per-job event log. Only the tail is
// normally observed live; events are transient and never replayed from
// storage except the two terminal types, which the streaming endpoint can
// reconstruct from the job record.
type StreamEvent struct {
	Type         EventType `json:"type"`
	GenerationID string    `json:"generation_id"`
	Timestamp    time.Time `json:"timestamp"`
	Data         any       `json:"data,omitempty"`
}

// NewStreamEvent stamps an event with the current time.
func NewStreamEvent(t EventType, generationID string, data any) StreamEvent {
	return StreamEvent{Type: t, GenerationID: generationID, Timestamp: time.Now().UTC(), Data: data}
}

// Typed event payloads.

type GenerationStartedData struct {
	RequestedSlides int `json:"requested_slides,omitempty"`
}

type OutlineCompleteData struct {
	Title       string         `json:"title"`
	TotalSlides int            `json:"total_slides"`
	Slides      []OutlineSlide `json:"slides"`
}

type DeckCreatedData struct {
	DeckID string `json:"deck_id"`
}

type SlideStartedData struct {
	SlideIndex  int    `json:"slide_index"`
	TotalSlides int    `json:"total_slides"`
	Title       string `json:"title"`
}

type BlockStartedData struct {
	SlideIndex int       `json:"slide_index"`
	BlockIndex int       `json:"block_index"`
	Kind       BlockKind `json:"kind"`
}

type BlockDeltaData struct {
	SlideIndex int    `json:"slide_index"`
	BlockIndex int    `json:"block_index"`
	Delta      string `json:"delta"`
}

type BlockCompleteData struct {
	SlideIndex int   `json:"slide_index"`
	BlockIndex int   `json:"block_index"`
	Block      Block `json:"block"`
}

type SlideContentData struct {
	SlideIndex  int   `json:"slide_index"`
	TotalSlides int   `json:"total_slides"`
	Slide       Slide `json:"slide"`
	Progress    int   `json:"progress"`
}

type SlideValidatedData struct {
	SlideIndex     int      `json:"slide_index"`
	RepairAttempts int      `json:"repair_attempts"`
	Violations     []string `json:"violations,omitempty"`
}

type ImageStartedData struct {
	TotalImages int `json:"total_images"`
}

type ImageProgressData struct {
	SlideIndex int `json:"slide_index"`
	Done       int `json:"done"`
	Total      int `json:"total"`
	Progress   int `json:"progress"`
}

type ImageCompleteData struct {
	SlideIndex int    `json:"slide_index"`
	URL        string `json:"url,omitempty"`
	Failed     bool   `json:"failed,omitempty"`
}

type GenerationCompleteData struct {
	DeckID      string `json:"deck_id"`
	TotalSlides int    `json:"total_slides"`
	Progress    int    `json:"progress"`
}

type GenerationFailedData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
