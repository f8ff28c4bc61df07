package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"metamorphosis/internal/domain"
)

const hfDefaultTimeout = 120 * time.Second

type HFOptions struct {
	Token      string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// HFGenerator calls the Hugging Face Inference API. A successful call answers
// with raw image bytes; failures answer with a JSON error body.
type HFGenerator struct {
	token   string
	model   string
	baseURL string
	client  *http.Client
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	GuidanceScale     float64 `json:"guidance_scale,omitempty"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty"`
}

type hfErrorResponse struct {
	Error         json.RawMessage `json:"error"`
	EstimatedTime float64         `json:"estimated_time,omitempty"`
}

func NewHFGenerator(opts HFOptions) (*HFGenerator, error) {
	if opts.Token == "" {
		return nil, errors.New("hugging face token is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "stabilityai/stable-diffusion-xl-base-1.0"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: hfDefaultTimeout}
	}
	return &HFGenerator{
		token:   opts.Token,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (h *HFGenerator) Generate(ctx context.Context, req GenerateRequest) (*Image, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, domain.ErrNoPrompt
	}
	payload := hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			GuidanceScale:     7.5,
			NumInferenceSteps: 30,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode hf request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s", h.baseURL, h.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create hf request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+h.token)

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK && strings.HasPrefix(contentType, "image/") {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read hf image: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: hf returned an empty image", domain.ErrProviderFailure)
		}
		return &Image{Data: data, MIME: contentType}, nil
	}

	raw, _ := io.ReadAll(resp.Body)
	var apiErr hfErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err == nil && len(apiErr.Error) > 0 {
		if apiErr.EstimatedTime > 0 {
			return nil, fmt.Errorf("%w: hf model loading, retry in ~%.0fs", domain.ErrProviderFailure, apiErr.EstimatedTime)
		}
		return nil, fmt.Errorf("%w: hf status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.Trim(string(apiErr.Error), `"`))
	}
	return nil, fmt.Errorf("%w: hf status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(raw)))
}

var _ Generator = (*HFGenerator)(nil)
