package image

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// StaticGenerator produces deterministic placeholder URLs when no image
// model is configured, so decks remain renderable end to end.
type StaticGenerator struct {
	BaseURL string
}

// NewStaticGenerator builds the fallback generator.
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{BaseURL: "https://placehold.local/generated"}
}

func (s *StaticGenerator) Generate(_ context.Context, req GenerateRequest) (Asset, error) {
	sum := sha256.Sum256([]byte(req.Prompt))
	key := hex.EncodeToString(sum[:8])
	return Asset{
		URL:    fmt.Sprintf("%s/%s.png", s.BaseURL, key),
		Format: "image/png",
	}, nil
}

var _ Generator = (*StaticGenerator)(nil)
