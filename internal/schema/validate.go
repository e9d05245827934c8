package schema

import (
	"fmt"
	"unicode/utf8"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

// ViolationClass groups violations by the repair strategy they call for.
type ViolationClass string

const (
	// ViolationLength marks oversized content fixable by rewriting in place.
	ViolationLength ViolationClass = "length"
	// ViolationCardinality marks content that structurally cannot fit one
	// slide and needs a split.
	ViolationCardinality ViolationClass = "cardinality"
	// ViolationStructure marks malformed blocks (unknown kind, missing
	// required field); these are parse-level and not model-repairable.
	ViolationStructure ViolationClass = "structure"
)

// Violation names one constraint failure. BlockIndex is -1 for slide-level
// violations.
type Violation struct {
	BlockIndex int
	Class      ViolationClass
	Reason     string
}

func (v Violation) String() string {
	if v.BlockIndex < 0 {
		return v.Reason
	}
	return fmt.Sprintf("block %d: %s", v.BlockIndex, v.Reason)
}

// Validate checks a slide against its type schema and every block against
// its kind bounds. An empty result means the slide is valid.
func Validate(slide domain.Slide) []Violation {
	var out []Violation

	if !KnownSlideType(slide.Type) {
		return append(out, Violation{BlockIndex: -1, Class: ViolationStructure,
			Reason: fmt.Sprintf("unknown slide type %q", slide.Type)})
	}

	counts := make(map[domain.BlockKind]int)
	for i, block := range slide.Blocks {
		counts[block.Kind]++
		out = append(out, validateBlock(i, block)...)
	}

	sch := schemaByType[slide.Type]
	for kind, count := range counts {
		rng, allowed := sch.Blocks[kind]
		if !allowed {
			out = append(out, Violation{BlockIndex: -1, Class: ViolationStructure,
				Reason: fmt.Sprintf("kind %s not allowed on %s slide", kind, slide.Type)})
			continue
		}
		if count > rng.Max {
			out = append(out, Violation{BlockIndex: -1, Class: ViolationCardinality,
				Reason: fmt.Sprintf("%d %s blocks, max %d for %s slide", count, kind, rng.Max, slide.Type)})
		}
	}
	for kind, rng := range sch.Blocks {
		if rng.Min > 0 && counts[kind] < rng.Min {
			out = append(out, Violation{BlockIndex: -1, Class: ViolationStructure,
				Reason: fmt.Sprintf("%s slide requires at least %d %s block(s)", slide.Type, rng.Min, kind)})
		}
	}
	return out
}

func validateBlock(index int, block domain.Block) []Violation {
	var out []Violation
	lengthViolation := func(field string, got, max int) {
		out = append(out, Violation{BlockIndex: index, Class: ViolationLength,
			Reason: fmt.Sprintf("%s is %d chars, max %d", field, got, max)})
	}

	if !KnownKind(block.Kind) {
		return append(out, Violation{BlockIndex: index, Class: ViolationStructure,
			Reason: fmt.Sprintf("unknown block kind %q", block.Kind)})
	}

	switch block.Kind {
	case domain.BlockKindTitle, domain.BlockKindText, domain.BlockKindCallout:
		if block.Text == "" {
			out = append(out, Violation{BlockIndex: index, Class: ViolationStructure,
				Reason: string(block.Kind) + " block has empty text"})
			break
		}
		max := boundsByKind[block.Kind].textMax
		if n := utf8.RuneCountInString(block.Text); n > max {
			lengthViolation("text", n, max)
		}
	case domain.BlockKindBullets:
		if len(block.Items) < MinBulletItems {
			out = append(out, Violation{BlockIndex: index, Class: ViolationStructure,
				Reason: "bullets block has no items"})
			break
		}
		if len(block.Items) > MaxBulletItems {
			out = append(out, Violation{BlockIndex: index, Class: ViolationCardinality,
				Reason: fmt.Sprintf("%d bullet items, max %d", len(block.Items), MaxBulletItems)})
		}
		for _, item := range block.Items {
			if n := utf8.RuneCountInString(item); n > MaxBulletLen {
				lengthViolation("bullet item", n, MaxBulletLen)
			}
		}
	case domain.BlockKindTable:
		if len(block.Rows) == 0 {
			out = append(out, Violation{BlockIndex: index, Class: ViolationStructure,
				Reason: "table block has no rows"})
			break
		}
		if len(block.Rows) > MaxTableRows {
			out = append(out, Violation{BlockIndex: index, Class: ViolationCardinality,
				Reason: fmt.Sprintf("%d table rows, max %d", len(block.Rows), MaxTableRows)})
		}
		if len(block.Header) > MaxTableCols {
			out = append(out, Violation{BlockIndex: index, Class: ViolationCardinality,
				Reason: fmt.Sprintf("%d table columns, max %d", len(block.Header), MaxTableCols)})
		}
		for _, row := range block.Rows {
			if len(row) > MaxTableCols {
				out = append(out, Violation{BlockIndex: index, Class: ViolationCardinality,
					Reason: fmt.Sprintf("%d table columns, max %d", len(row), MaxTableCols)})
				break
			}
		}
		for _, cell := range block.Header {
			if n := utf8.RuneCountInString(cell); n > MaxTableCellLen {
				lengthViolation("header cell", n, MaxTableCellLen)
			}
		}
		for _, row := range block.Rows {
			for _, cell := range row {
				if n := utf8.RuneCountInString(cell); n > MaxTableCellLen {
					lengthViolation("table cell", n, MaxTableCellLen)
				}
			}
		}
	case domain.BlockKindStat:
		if block.Label == "" || block.Value == "" {
			out = append(out, Violation{BlockIndex: index, Class: ViolationStructure,
				Reason: "stat_block requires label and value"})
			break
		}
		if n := utf8.RuneCountInString(block.Label); n > MaxStatLabelLen {
			lengthViolation("label", n, MaxStatLabelLen)
		}
		if n := utf8.RuneCountInString(block.Value); n > MaxStatValueLen {
			lengthViolation("value", n, MaxStatValueLen)
		}
		if n := utf8.RuneCountInString(block.Detail); n > MaxStatDetailLen {
			lengthViolation("detail", n, MaxStatDetailLen)
		}
	case domain.BlockKindTimelineStep, domain.BlockKindIconCard, domain.BlockKindNumberedCard:
		if block.Title == "" {
			out = append(out, Violation{BlockIndex: index, Class: ViolationStructure,
				Reason: string(block.Kind) + " requires a title"})
			break
		}
		bounds := boundsByKind[block.Kind]
		if n := utf8.RuneCountInString(block.Title); n > bounds.titleMax {
			lengthViolation("title", n, bounds.titleMax)
		}
		if n := utf8.RuneCountInString(block.Detail); n > bounds.detailMax {
			lengthViolation("detail", n, bounds.detailMax)
		}
	case domain.BlockKindImage:
		if block.Prompt == "" && block.URL == "" {
			out = append(out, Violation{BlockIndex: index, Class: ViolationStructure,
				Reason: "image block requires a prompt or url"})
			break
		}
		if n := utf8.RuneCountInString(block.Prompt); n > MaxImagePromptLen {
			lengthViolation("prompt", n, MaxImagePromptLen)
		}
	}
	return out
}

// NeedsSplit reports whether the violation set contains a cardinality
// overflow, meaning the content structurally cannot fit one slide.
func NeedsSplit(violations []Violation) bool {
	for _, v := range violations {
		if v.Class == ViolationCardinality {
			return true
		}
	}
	return false
}

// Repairable reports whether any violation can be addressed by a model
// repair call. Structure-only violation sets are parse failures, not
// repair candidates.
func Repairable(violations []Violation) bool {
	for _, v := range violations {
		if v.Class == ViolationLength || v.Class == ViolationCardinality {
			return true
		}
	}
	return false
}

// ViolationStrings flattens violations for event payloads and warnings.
func ViolationStrings(violations []Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.String())
	}
	return out
}
