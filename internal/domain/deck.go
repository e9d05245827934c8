package domain

import "time"

// SlideType enumerates the supported slide layouts.
type SlideType string

const (
	SlideTypeCover         SlideType = "cover"
	SlideTypeAgenda        SlideType = "agenda"
	SlideTypeSectionHeader SlideType = "section_header"
	SlideTypeBullets       SlideType = "bullets"
	SlideTypeNumberedList  SlideType = "numbered_list"
	SlideTypeTwoColumn     SlideType = "two_column"
	SlideTypeComparison    SlideType = "comparison"
	SlideTypeImageFull     SlideType = "image_full"
	SlideTypeImageText     SlideType = "image_text"
	SlideTypeQuote         SlideType = "quote"
	SlideTypeStats         SlideType = "stats"
	SlideTypeTimeline      SlideType = "timeline"
	SlideTypeTable         SlideType = "table"
	SlideTypeTeam          SlideType = "team"
	SlideTypeIconGrid      SlideType = "icon_grid"
	SlideTypeCallout       SlideType = "callout"
	SlideTypeClosing       SlideType = "closing"
)

// BlockKind enumerates the typed content units a slide is built from.
type BlockKind string

const (
	BlockKindTitle        BlockKind = "title"
	BlockKindText         BlockKind = "text"
	BlockKindBullets      BlockKind = "bullets"
	BlockKindImage        BlockKind = "image"
	BlockKindTable        BlockKind = "table"
	BlockKindCallout      BlockKind = "callout"
	BlockKindStat         BlockKind = "stat_block"
	BlockKindTimelineStep BlockKind = "timeline_step"
	BlockKindIconCard     BlockKind = "icon_card"
	BlockKindNumberedCard BlockKind = "numbered_card"
)

// Block is an immutable typed content unit. The populated fields depend on
// Kind; blocks are returned whole by a model or repair call, never mutated
// field-by-field afterwards.
type Block struct {
	Kind BlockKind `json:"kind"`

	// title, text, callout, quote body
	Text string `json:"text,omitempty"`

	// bullets
	Items []string `json:"items,omitempty"`

	// table
	Header []string   `json:"header,omitempty"`
	Rows   [][]string `json:"rows,omitempty"`

	// stat_block
	Label  string `json:"label,omitempty"`
	Value  string `json:"value,omitempty"`
	Detail string `json:"detail,omitempty"`

	// timeline_step, icon_card, numbered_card
	Title string `json:"title,omitempty"`

	// icon_card
	Icon string `json:"icon,omitempty"`

	// numbered_card
	Number int `json:"number,omitempty"`

	// image; URL stays empty until (and unless) image generation succeeds
	Prompt string `json:"prompt,omitempty"`
	URL    string `json:"url,omitempty"`
	Alt    string `json:"alt,omitempty"`
}

// Slide is one typed layout unit of a deck.
type Slide struct {
	ID            string    `json:"id"`
	Type          SlideType `json:"type"`
	LayoutVariant string    `json:"layout_variant,omitempty"`
	Blocks        []Block   `json:"blocks"`
	// Warning marks a slide whose repair budget was exhausted or whose
	// content had to be substituted; the job still completes.
	Warning string `json:"warning,omitempty"`
}

// Deck is the generated presentation document. Slides are appended one at a
// time while the job runs, so readers must tolerate the slice growing
// between reads.
type Deck struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Title       string    `json:"title"`
	Language    string    `json:"language"`
	ThemeID     string    `json:"theme_id,omitempty"`
	BrandColors []string  `json:"brand_colors,omitempty"`
	Slides      []Slide   `json:"slides"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
