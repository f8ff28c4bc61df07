package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"metamorphosis/internal/domain"
)

// AnalyzeRequest carries the uploaded image to a vision provider.
type AnalyzeRequest struct {
	ImageData []byte
	MIMEType  string
	RequestID string
}

// Analyzer turns a photo of waste material into a structured upcycling blueprint.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*domain.Blueprint, error)
}

// systemInstruction is shared by every provider. The models are told to keep
// strictly to the materials visible in the photo and to answer with JSON only.
const systemInstruction = "You are the 'Metamorphosis Agent'. Your goal is to help upcycle waste. " +
	"1. ANALYZE the image and strictly identify the specific waste materials present (e.g., plastic bottles, cardboard, wood scrap). " +
	"2. DESIGN a creative upcycling project using ONLY the materials found in the image (plus basic tools/adhesives). " +
	"3. Do NOT hallucinate objects or materials that are not clearly visible in the input image. " +
	"4. Respond with a single JSON object and nothing else."

const userPrompt = "Analyze the following image of discarded materials. Determine the material types, " +
	"estimated quantities, and dominant colors. Then generate a creative and feasible blueprint for a new " +
	"object built using ONLY the materials seen in the image. Respond strictly as JSON matching this schema: " +
	`{"design_title":string,"design_type":"Art Piece"|"Small Furniture"|"Accessory"|"Tool",` +
	`"material_breakdown":[{"material_name":string,"estimated_quantity":string}],` +
	`"assembly_steps_summary":string,"upcycle_score":int (1-10),"visualization_prompt":string}`

// decodeBlueprint parses a model reply into a normalized blueprint. Replies
// wrapped in markdown fences or surrounded by prose are tolerated.
func decodeBlueprint(raw string) (*domain.Blueprint, error) {
	fragment := extractJSONFragment(raw)
	if fragment == "" {
		return nil, errors.New("empty blueprint payload")
	}
	var bp domain.Blueprint
	if err := json.Unmarshal([]byte(fragment), &bp); err != nil {
		return nil, fmt.Errorf("decode blueprint: %w", err)
	}
	bp.Normalize()
	return &bp, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// normalizeMIME coerces browser MIME types to values the vision APIs accept.
func normalizeMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
