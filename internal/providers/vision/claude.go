package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"metamorphosis/internal/domain"
)

const (
	claudeDefaultTimeout = 45 * time.Second
	anthropicVersion     = "2023-06-01"
	claudeMaxTokens      = 1024
)

type ClaudeOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// ClaudeAnalyzer sends the waste photo to the Anthropic Messages API as a
// base64 image block followed by the analysis prompt.
type ClaudeAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

type claudeBlock struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Source *claudeSource `json:"source,omitempty"`
}

type claudeSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func NewClaudeAnalyzer(opts ClaudeOptions) (*ClaudeAnalyzer, error) {
	if opts.APIKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: claudeDefaultTimeout}
	}
	return &ClaudeAnalyzer{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (c *ClaudeAnalyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.Blueprint, error) {
	if len(req.ImageData) == 0 {
		return nil, domain.ErrInvalidImage
	}
	payload := claudeRequest{
		Model:     c.model,
		MaxTokens: claudeMaxTokens,
		System:    systemInstruction,
		Messages: []claudeMessage{{
			Role: "user",
			Content: []claudeBlock{
				{
					Type: "image",
					Source: &claudeSource{
						Type:      "base64",
						MediaType: normalizeMIME(req.MIMEType),
						Data:      base64.StdEncoding.EncodeToString(req.ImageData),
					},
				},
				{Type: "text", Text: userPrompt},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode claude request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create claude request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: claude status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var out claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode claude response: %w", err)
	}
	var text string
	for _, blk := range out.Content {
		if blk.Type == "text" && strings.TrimSpace(blk.Text) != "" {
			text = blk.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("%w: claude returned no text", domain.ErrProviderFailure)
	}
	bp, err := decodeBlueprint(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	return bp, nil
}

var _ Analyzer = (*ClaudeAnalyzer)(nil)
