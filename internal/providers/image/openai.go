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
)

const (
	openAIDefaultTimeout = 120 * time.Second
	defaultImageModel    = "dall-e-3"
	defaultImageSize     = "1792x1024"
)

// OpenAIOptions configures the OpenAI-backed image generator.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIGenerator calls the images endpoint and returns hosted URLs.
type OpenAIGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type openAIImageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// NewOpenAIGenerator validates the options and builds a generator.
func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultImageModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIGenerator{apiKey: strings.TrimSpace(opts.APIKey), model: model, baseURL: baseURL, client: client}, nil
}

func (o *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (Asset, error) {
	size := req.Size
	if size == "" {
		size = defaultImageSize
	}
	payload := openAIImageRequest{
		Model:          o.model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           size,
		ResponseFormat: "url",
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return Asset{}, fmt.Errorf("openai encode image request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/images/generations", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return Asset{}, fmt.Errorf("openai build image request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return Asset{}, fmt.Errorf("openai image call: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return Asset{}, fmt.Errorf("openai image call: status %d", resp.StatusCode)
	}

	var out openAIImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Asset{}, fmt.Errorf("openai decode image response: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return Asset{}, errors.New("openai image response has no url")
	}
	return Asset{URL: out.Data[0].URL, Format: "image/png"}, nil
}

var _ Generator = (*OpenAIGenerator)(nil)
