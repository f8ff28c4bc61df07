package image

import (
	"context"
	"strings"
)

// RenderPrefix frames every visualization prompt as a product shot before it
// reaches the text-to-image model.
const RenderPrefix = "Product design render, 4k photorealistic, cinematic lighting: "

// GenerateRequest carries the render prompt to an image provider.
type GenerateRequest struct {
	Prompt    string
	RequestID string
}

// Image is the normalized result of a concept render.
type Image struct {
	Data []byte
	MIME string
}

// Generator renders a concept image from a visualization prompt.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Image, error)
}

// RenderPrompt builds the final text-to-image prompt from a stored
// visualization prompt.
func RenderPrompt(visualization string) string {
	return RenderPrefix + strings.TrimSpace(visualization)
}
