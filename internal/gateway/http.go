package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4096

// Compile-time interface check
var _ Generator = (*HTTPClient)(nil)

// Options are the generation parameters sent with every request.
type Options struct {
	ModelName         string
	Temperature       float64
	TopP              float64
	MaxOutputTokens   int
	SystemInstruction string
	UserMetadata      string
}

type httpRequest struct {
	Prompt            string  `json:"prompt"`
	ModelName         string  `json:"model_name,omitempty"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	MaxOutputTokens   int     `json:"max_output_tokens,omitempty"`
	SystemInstruction string  `json:"system_instruction,omitempty"`
	UserMetadata      string  `json:"user_metadata,omitempty"`
}

// HTTPClient posts prompts to the text gateway endpoint.
type HTTPClient struct {
	endpoint   string
	apiKey     string
	opts       Options
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a client for endpoint. An empty apiKey sends no
// credentials.
func NewHTTPClient(endpoint, apiKey string, opts Options, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		opts:       opts,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "gateway", "backend", "http"),
	}
}

// Backend returns the backend name.
func (c *HTTPClient) Backend() string {
	return "http"
}

// Generate sends prompt to the gateway and returns its output.
func (c *HTTPClient) Generate(ctx context.Context, prompt string) (*Response, error) {
	payload, err := json.Marshal(httpRequest{
		Prompt:            prompt,
		ModelName:         c.opts.ModelName,
		Temperature:       c.opts.Temperature,
		TopP:              c.opts.TopP,
		MaxOutputTokens:   c.opts.MaxOutputTokens,
		SystemInstruction: c.opts.SystemInstruction,
		UserMetadata:      c.opts.UserMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode gateway response: %w", err),
		}
	}

	c.logger.Debug("gateway response",
		"model", out.Model,
		"finish_reason", out.FinishReason,
		"total_tokens", out.Usage.TotalTokens,
		"retries", out.Meta.Retries,
		"key_rotations", out.Meta.KeyRotations,
		"backoff_applied", out.Meta.BackoffApplied,
	)

	if strings.TrimSpace(out.OutputText) == "" {
		return nil, ErrEmptyOutput
	}
	return &out, nil
}
