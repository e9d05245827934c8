// Package image abstracts the image-generation model endpoint used by the
// optional trailing image phase.
package image

import "context"

// GenerateRequest describes one image generation call.
type GenerateRequest struct {
	Prompt    string
	Size      string
	RequestID string
}

// Asset is a generated image hosted by the provider or object store.
type Asset struct {
	URL    string
	Format string
}

// Generator performs a single image-model call. Retry policy lives with
// the caller.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (Asset, error)
}
