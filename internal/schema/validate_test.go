package schema

import (
	"strings"
	"testing"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

func validBulletsSlide() domain.Slide {
	return domain.Slide{
		Type:          domain.SlideTypeBullets,
		LayoutVariant: "default",
		Blocks: []domain.Block{
			{Kind: domain.BlockKindTitle, Text: "Quarterly results"},
			{Kind: domain.BlockKindBullets, Items: []string{"Revenue up 45%", "Churn down"}},
		},
	}
}

func TestValidate_ValidSlide(t *testing.T) {
	if violations := Validate(validBulletsSlide()); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestValidate_UnknownSlideType(t *testing.T) {
	slide := domain.Slide{Type: "hologram"}
	violations := Validate(slide)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if violations[0].Class != ViolationStructure {
		t.Fatalf("expected structure violation, got %s", violations[0].Class)
	}
}

func TestValidate_OversizedTitleIsLengthViolation(t *testing.T) {
	slide := validBulletsSlide()
	slide.Blocks[0].Text = strings.Repeat("a", MaxTitleLen+1)
	violations := Validate(slide)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if violations[0].Class != ViolationLength || violations[0].BlockIndex != 0 {
		t.Fatalf("unexpected violation: %+v", violations[0])
	}
	if NeedsSplit(violations) {
		t.Fatal("length violation must not suggest a split")
	}
	if !Repairable(violations) {
		t.Fatal("length violation must be repairable")
	}
}

func TestValidate_TooManyBulletsNeedsSplit(t *testing.T) {
	slide := validBulletsSlide()
	items := make([]string, MaxBulletItems+3)
	for i := range items {
		items[i] = "item"
	}
	slide.Blocks[1].Items = items
	violations := Validate(slide)
	if !NeedsSplit(violations) {
		t.Fatalf("expected split suggestion for %v", violations)
	}
}

func TestValidate_MissingRequiredBlock(t *testing.T) {
	slide := domain.Slide{
		Type:   domain.SlideTypeStats,
		Blocks: []domain.Block{{Kind: domain.BlockKindTitle, Text: "Numbers"}},
	}
	violations := Validate(slide)
	if len(violations) == 0 {
		t.Fatal("expected a violation for missing stat blocks")
	}
	if Repairable(violations) {
		t.Fatalf("structure-only violations must not be repairable: %v", violations)
	}
}

func TestValidate_KindNotAllowedOnType(t *testing.T) {
	slide := domain.Slide{
		Type: domain.SlideTypeQuote,
		Blocks: []domain.Block{
			{Kind: domain.BlockKindText, Text: "Stay hungry."},
			{Kind: domain.BlockKindTable, Rows: [][]string{{"a"}}},
		},
	}
	violations := Validate(slide)
	found := false
	for _, v := range violations {
		if v.Class == ViolationStructure && strings.Contains(v.Reason, "not allowed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a kind-not-allowed violation, got %v", violations)
	}
}

func TestValidate_StatBlockBounds(t *testing.T) {
	slide := domain.Slide{
		Type: domain.SlideTypeStats,
		Blocks: []domain.Block{
			{Kind: domain.BlockKindTitle, Text: "KPIs"},
			{Kind: domain.BlockKindStat, Label: "Growth", Value: strings.Repeat("9", MaxStatValueLen+5)},
			{Kind: domain.BlockKindStat, Label: "Churn", Value: "2%"},
		},
	}
	violations := Validate(slide)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if violations[0].BlockIndex != 1 {
		t.Fatalf("expected violation on block 1, got %d", violations[0].BlockIndex)
	}
}

func TestValidate_OversizedTableCell(t *testing.T) {
	slide := domain.Slide{
		Type: domain.SlideTypeTable,
		Blocks: []domain.Block{
			{Kind: domain.BlockKindTitle, Text: "Regions"},
			{Kind: domain.BlockKindTable,
				Header: []string{"Region", strings.Repeat("h", MaxTableCellLen+1)},
				Rows: [][]string{
					{"EMEA", strings.Repeat("c", MaxTableCellLen+380)},
					{"APAC", "ok"},
				}},
		},
	}
	violations := Validate(slide)
	if len(violations) != 2 {
		t.Fatalf("expected header and row cell violations, got %v", violations)
	}
	for _, v := range violations {
		if v.Class != ViolationLength || v.BlockIndex != 1 {
			t.Fatalf("unexpected violation: %+v", v)
		}
	}
	if !Repairable(violations) {
		t.Fatal("oversized cells must be repairable")
	}
}

func TestDefaultVariant(t *testing.T) {
	if got := DefaultVariant(domain.SlideTypeStats); got != "stats_inline" {
		t.Fatalf("stats default variant: got %q", got)
	}
	if got := DefaultVariant(domain.SlideTypeQuote); got != "default" {
		t.Fatalf("quote default variant: got %q", got)
	}
	if ValidVariant(domain.SlideTypeBullets, "spiral") {
		t.Fatal("unexpected variant accepted")
	}
	if !ValidVariant(domain.SlideTypeBullets, "grid") {
		t.Fatal("grid variant should be accepted for bullets")
	}
}
