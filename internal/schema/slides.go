package schema

import "github.com/sander-arti/gamma-klone-sub003/internal/domain"

// kindRange bounds how many blocks of one kind a slide type may carry.
type kindRange struct {
	Min int
	Max int
}

// slideSchema lists the block kinds a slide type accepts. Kinds absent from
// the map are not allowed for that type.
type slideSchema struct {
	Blocks map[domain.BlockKind]kindRange
}

var schemaByType = map[domain.SlideType]slideSchema{
	domain.SlideTypeCover: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle: {1, 1},
		domain.BlockKindText:  {0, 1},
		domain.BlockKindImage: {0, 1},
	}},
	domain.SlideTypeAgenda: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle:   {1, 1},
		domain.BlockKindBullets: {1, 1},
	}},
	domain.SlideTypeSectionHeader: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle: {1, 1},
		domain.BlockKindText:  {0, 1},
	}},
	domain.SlideTypeBullets: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle:   {1, 1},
		domain.BlockKindBullets: {1, 1},
		domain.BlockKindImage:   {0, 1},
	}},
	domain.SlideTypeNumberedList: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle:        {1, 1},
		domain.BlockKindNumberedCard: {2, 6},
	}},
	domain.SlideTypeTwoColumn: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle: {1, 1},
		domain.BlockKindText:  {2, 2},
		domain.BlockKindImage: {0, 1},
	}},
	domain.SlideTypeComparison: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle:   {1, 1},
		domain.BlockKindBullets: {2, 2},
	}},
	domain.SlideTypeImageFull: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle: {0, 1},
		domain.BlockKindImage: {1, 1},
	}},
	domain.SlideTypeImageText: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle: {1, 1},
		domain.BlockKindText:  {1, 1},
		domain.BlockKindImage: {1, 1},
	}},
	domain.SlideTypeQuote: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle: {0, 1},
		domain.BlockKindText:  {1, 1},
	}},
	domain.SlideTypeStats: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle: {1, 1},
		domain.BlockKindStat:  {2, 4},
	}},
	domain.SlideTypeTimeline: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle:        {1, 1},
		domain.BlockKindTimelineStep: {2, 6},
	}},
	domain.SlideTypeTable: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle: {1, 1},
		domain.BlockKindTable: {1, 1},
	}},
	domain.SlideTypeTeam: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle:    {1, 1},
		domain.BlockKindIconCard: {2, 8},
	}},
	domain.SlideTypeIconGrid: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle:    {1, 1},
		domain.BlockKindIconCard: {2, 8},
	}},
	domain.SlideTypeCallout: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle:   {0, 1},
		domain.BlockKindCallout: {1, 1},
	}},
	domain.SlideTypeClosing: {Blocks: map[domain.BlockKind]kindRange{
		domain.BlockKindTitle:   {1, 1},
		domain.BlockKindText:    {0, 1},
		domain.BlockKindCallout: {0, 1},
	}},
}

// layout variants accepted per slide type; the first entry is the default.
var variantsByType = map[domain.SlideType][]string{
	domain.SlideTypeBullets:   {"default", "grid"},
	domain.SlideTypeStats:     {"stats_inline", "stats_bottom"},
	domain.SlideTypeImageText: {"image_left", "image_right"},
	domain.SlideTypeTimeline:  {"horizontal", "vertical"},
	domain.SlideTypeIconGrid:  {"grid", "row"},
}

// KnownSlideType reports whether t belongs to the closed layout vocabulary.
func KnownSlideType(t domain.SlideType) bool {
	_, ok := schemaByType[t]
	return ok
}

// DefaultVariant returns the default layout variant for a slide type.
func DefaultVariant(t domain.SlideType) string {
	if variants, ok := variantsByType[t]; ok {
		return variants[0]
	}
	return "default"
}

// ValidVariant reports whether variant is accepted for the slide type.
func ValidVariant(t domain.SlideType, variant string) bool {
	variants, ok := variantsByType[t]
	if !ok {
		return variant == "default" || variant == ""
	}
	for _, v := range variants {
		if v == variant {
			return true
		}
	}
	return false
}

// Variants exposes the accepted layout variants for a slide type, default
// first.
func Variants(t domain.SlideType) []string {
	if variants, ok := variantsByType[t]; ok {
		return variants
	}
	return []string{"default"}
}
