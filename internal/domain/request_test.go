package domain

import (
	"strings"
	"testing"
)

func TestGenerationRequestNormalize(t *testing.T) {
	req := GenerationRequest{InputText: "hello"}
	req.Normalize()
	if req.TextMode != TextModeGenerate || req.Amount != AmountMedium || req.Language != "en" {
		t.Fatalf("unexpected defaults: %+v", req)
	}
}

func TestGenerationRequestValidate(t *testing.T) {
	req := GenerationRequest{InputText: "hello"}
	req.Normalize()
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	req.NumSlides = MaxOutlineSlides + 1
	if err := req.Validate(); err == nil {
		t.Fatal("expected rejection for excessive num_slides")
	}
}

func TestGenerationRequestValidate_InputBoundCountsRunes(t *testing.T) {
	// 3 bytes per rune; at exactly MaxInputTextLen runes the byte length is
	// well past the bound, which must not matter.
	atLimit := GenerationRequest{InputText: strings.Repeat("あ", MaxInputTextLen)}
	atLimit.Normalize()
	if err := atLimit.Validate(); err != nil {
		t.Fatalf("input at the rune limit rejected: %v", err)
	}

	over := GenerationRequest{InputText: strings.Repeat("あ", MaxInputTextLen+1)}
	over.Normalize()
	if err := over.Validate(); err == nil {
		t.Fatal("expected rejection one rune past the limit")
	}
}
