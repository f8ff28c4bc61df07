package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"metamorphosis/internal/domain"
)

const geminiDefaultTimeout = 120 * time.Second

type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiGenerator renders concept images through the Gemini generateContent
// endpoint with the image generation tool enabled. The first inline image in
// the reply wins.
type GeminiGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type geminiGenRequest struct {
	Contents   []geminiGenContent `json:"contents"`
	Tools      []geminiGenTool    `json:"tools,omitempty"`
	ToolConfig *geminiToolConfig  `json:"tool_config,omitempty"`
}

type geminiGenContent struct {
	Role  string          `json:"role,omitempty"`
	Parts []geminiGenPart `json:"parts"`
}

type geminiGenPart struct {
	Text       string           `json:"text,omitempty"`
	InlineData *geminiGenInline `json:"inlineData,omitempty"`
}

type geminiGenInline struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenTool struct {
	ImageGeneration *struct{} `json:"image_generation,omitempty"`
}

type geminiToolConfig struct {
	ImageGenerationConfig *geminiImageGenConfig `json:"image_generation_config,omitempty"`
}

type geminiImageGenConfig struct {
	NumberOfImages int `json:"number_of_images,omitempty"`
}

type geminiGenResponse struct {
	Candidates []struct {
		Content geminiGenContent `json:"content"`
	} `json:"candidates"`
}

type geminiGenError struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

func NewGeminiGenerator(opts GeminiOptions) (*GeminiGenerator, error) {
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
	return &GeminiGenerator{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*Image, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, domain.ErrNoPrompt
	}
	payload := geminiGenRequest{
		Contents: []geminiGenContent{{
			Role:  "user",
			Parts: []geminiGenPart{{Text: prompt}},
		}},
		Tools: []geminiGenTool{{ImageGeneration: &struct{}{}}},
		ToolConfig: &geminiToolConfig{
			ImageGenerationConfig: &geminiImageGenConfig{NumberOfImages: 1},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode gemini request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
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
		var apiErr geminiGenError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: gemini status %d: %s", domain.ErrProviderFailure, resp.StatusCode, apiErr.Error.Message)
		}
		raw, _ := io.ReadAll(resp.Body)
		if len(raw) > 0 {
			return nil, fmt.Errorf("%w: gemini status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return nil, fmt.Errorf("%w: gemini status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var out geminiGenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	for _, cand := range out.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode inline image: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return &Image{Data: data, MIME: mime}, nil
		}
	}
	return nil, fmt.Errorf("%w: gemini returned no image content", domain.ErrProviderFailure)
}

var _ Generator = (*GeminiGenerator)(nil)
