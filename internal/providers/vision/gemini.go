package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"metamorphosis/internal/domain"
)

const geminiDefaultTimeout = 45 * time.Second

type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiAnalyzer sends the waste photo inline to the Gemini generateContent
// endpoint with a response schema so the blueprint comes back as strict JSON.
type GeminiAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64         `json:"temperature,omitempty"`
	CandidateCount   int             `json:"candidateCount,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// designSchema mirrors the blueprint struct tags; Gemini enforces it server-side.
var designSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "design_title": {"type": "string"},
    "design_type": {"type": "string", "enum": ["Art Piece", "Small Furniture", "Accessory", "Tool"]},
    "material_breakdown": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "material_name": {"type": "string"},
          "estimated_quantity": {"type": "string"}
        },
        "required": ["material_name", "estimated_quantity"]
      }
    },
    "assembly_steps_summary": {"type": "string"},
    "upcycle_score": {"type": "integer", "minimum": 1, "maximum": 10},
    "visualization_prompt": {"type": "string"}
  },
  "required": ["design_title", "design_type", "material_breakdown", "assembly_steps_summary", "upcycle_score", "visualization_prompt"]
}`)

func NewGeminiAnalyzer(opts GeminiOptions) (*GeminiAnalyzer, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiAnalyzer{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (g *GeminiAnalyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.Blueprint, error) {
	if len(req.ImageData) == 0 {
		return nil, domain.ErrInvalidImage
	}
	payload := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemInstruction}},
		},
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: userPrompt},
				{InlineData: &geminiInlineData{
					MimeType: normalizeMIME(req.MIMEType),
					Data:     base64.StdEncoding.EncodeToString(req.ImageData),
				}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.7,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
			ResponseSchema:   designSchema,
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode gemini request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: gemini status %d: %s", domain.ErrProviderFailure, resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: gemini status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	text := extractCandidateText(out)
	if text == "" {
		// An empty reply with a SAFETY finish reason means the image was
		// blocked, not that the call failed.
		if reason := firstFinishReason(out); reason != "" {
			return nil, fmt.Errorf("%w: gemini returned no text (finish reason %s)", domain.ErrProviderFailure, reason)
		}
		return nil, fmt.Errorf("%w: gemini returned no text", domain.ErrProviderFailure)
	}
	bp, err := decodeBlueprint(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	return bp, nil
}

func extractCandidateText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

func firstFinishReason(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		if cand.FinishReason != "" {
			return cand.FinishReason
		}
	}
	return ""
}

var _ Analyzer = (*GeminiAnalyzer)(nil)
