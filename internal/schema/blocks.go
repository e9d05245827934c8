package schema

import "github.com/sander-arti/gamma-klone-sub003/internal/domain"

// Per-kind content bounds. Raw model output regularly exceeds these before
// sanitization, which is why the lenient parse path exists.
const (
	MaxTitleLen = 120
	MaxTextLen  = 600

	MinBulletItems = 1
	MaxBulletItems = 8
	MaxBulletLen   = 150

	MaxTableRows    = 8
	MaxTableCols    = 5
	MaxTableCellLen = 120

	MaxCalloutLen = 300

	MaxStatLabelLen  = 40
	MaxStatValueLen  = 24
	MaxStatDetailLen = 120

	MaxStepTitleLen  = 80
	MaxStepDetailLen = 200

	MaxCardTitleLen  = 60
	MaxCardDetailLen = 180

	MaxImagePromptLen = 300
)

// blockBounds captures the simple length/cardinality bounds for one kind.
type blockBounds struct {
	textMax   int
	itemsMin  int
	itemsMax  int
	itemMax   int
	titleMax  int
	detailMax int
}

var boundsByKind = map[domain.BlockKind]blockBounds{
	domain.BlockKindTitle:        {textMax: MaxTitleLen},
	domain.BlockKindText:         {textMax: MaxTextLen},
	domain.BlockKindBullets:      {itemsMin: MinBulletItems, itemsMax: MaxBulletItems, itemMax: MaxBulletLen},
	domain.BlockKindCallout:      {textMax: MaxCalloutLen},
	domain.BlockKindStat:         {titleMax: MaxStatLabelLen, detailMax: MaxStatDetailLen},
	domain.BlockKindTimelineStep: {titleMax: MaxStepTitleLen, detailMax: MaxStepDetailLen},
	domain.BlockKindIconCard:     {titleMax: MaxCardTitleLen, detailMax: MaxCardDetailLen},
	domain.BlockKindNumberedCard: {titleMax: MaxCardTitleLen, detailMax: MaxCardDetailLen},
}

// KnownKind reports whether kind belongs to the closed block vocabulary.
func KnownKind(kind domain.BlockKind) bool {
	switch kind {
	case domain.BlockKindTitle, domain.BlockKindText, domain.BlockKindBullets,
		domain.BlockKindImage, domain.BlockKindTable, domain.BlockKindCallout,
		domain.BlockKindStat, domain.BlockKindTimelineStep,
		domain.BlockKindIconCard, domain.BlockKindNumberedCard:
		return true
	}
	return false
}
