// Package gateway calls the LLM that turns a rendered prompt into raw text.
//
// Two backends implement Generator: HTTPClient talks to the generic text
// gateway, OpenAI talks to any OpenAI-compatible chat completions API.
// Neither retries; failures surface to the caller as *GatewayError.
package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyOutput is returned when the gateway succeeded but produced no text.
var ErrEmptyOutput = errors.New("gateway returned empty output")

// Generator defines the interface contract for LLM text generation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Response, error)
	Backend() string
}

// Usage reports token accounting for a single call.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Meta carries the gateway's own retry bookkeeping. It is informational only.
type Meta struct {
	Retries        int  `json:"retries"`
	KeyRotations   int  `json:"key_rotations"`
	BackoffApplied bool `json:"backoff_applied"`
}

// Response is the outcome of a successful generation.
type Response struct {
	Model        string `json:"model"`
	OutputText   string `json:"output_text"`
	FinishReason string `json:"finish_reason"`
	Usage        Usage  `json:"usage"`
	Meta         Meta   `json:"meta"`
}

// GatewayError reports a transport failure or a non-success status.
// StatusCode is 0 when no response was received.
type GatewayError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("gateway request failed: %v", e.Err)
	case e.Body != "":
		return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("gateway returned status %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("gateway returned status %d", e.StatusCode)
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
