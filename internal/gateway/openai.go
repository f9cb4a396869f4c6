package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Compile-time interface check
var _ Generator = (*OpenAI)(nil)

// CompletionsService defines the interface for making chat completion calls.
// This abstraction enables testing without calling the real OpenAI API.
type CompletionsService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI generates text through an OpenAI-compatible chat completions API.
type OpenAI struct {
	completions CompletionsService
	opts        Options
}

// NewOpenAI creates a chat completions backend. A non-empty baseURL points
// the client at a compatible server instead of api.openai.com.
func NewOpenAI(apiKey, baseURL string, opts Options) *OpenAI {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(reqOpts...)
	return &OpenAI{
		completions: client.Chat.Completions,
		opts:        opts,
	}
}

// Backend returns the backend name.
func (o *OpenAI) Backend() string {
	return "openai"
}

// Generate sends prompt as the user message, preceded by the configured
// system instruction.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (*Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if o.opts.SystemInstruction != "" {
		messages = append(messages, openai.SystemMessage(o.opts.SystemInstruction))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(openai.ChatModel(o.opts.ModelName)),
		Temperature: openai.F(o.opts.Temperature),
		TopP:        openai.F(o.opts.TopP),
	}
	if o.opts.MaxOutputTokens > 0 {
		params.MaxTokens = openai.F(int64(o.opts.MaxOutputTokens))
	}

	resp, err := o.completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &GatewayError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return nil, &GatewayError{Err: err}
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyOutput
	}

	choice := resp.Choices[0]
	return &Response{
		Model:        resp.Model,
		OutputText:   choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}
