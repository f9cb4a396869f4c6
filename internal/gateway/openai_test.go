package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// mockCompletionsService implements CompletionsService for testing
type mockCompletionsService struct {
	response *openai.ChatCompletion
	err      error
	// Track calls for verification
	callCount  int
	lastParams openai.ChatCompletionNewParams
}

func (m *mockCompletionsService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	m.callCount++
	m.lastParams = params
	return m.response, m.err
}

func completion(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Model: "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Content: content},
			FinishReason: openai.ChatCompletionChoicesFinishReasonStop,
		}},
		Usage: openai.CompletionUsage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12},
	}
}

func TestOpenAI_Generate_Success(t *testing.T) {
	mock := &mockCompletionsService{response: completion(`[{"title":"T"}]`)}
	client := &OpenAI{completions: mock, opts: testOptions()}

	resp, err := client.Generate(context.Background(), "make ideas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.callCount != 1 {
		t.Errorf("expected 1 call, got %d", mock.callCount)
	}
	if got := len(mock.lastParams.Messages.Value); got != 2 {
		t.Errorf("expected system and user messages, got %d", got)
	}
	if mock.lastParams.Model.Value != "gemini-2.5-flash" {
		t.Errorf("unexpected model %q", mock.lastParams.Model.Value)
	}
	if mock.lastParams.MaxTokens.Value != 8192 {
		t.Errorf("expected max tokens 8192, got %d", mock.lastParams.MaxTokens.Value)
	}

	if resp.OutputText != `[{"title":"T"}]` {
		t.Errorf("unexpected output %q", resp.OutputText)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("expected finish reason stop, got %q", resp.FinishReason)
	}
	if resp.Usage.InputTokens != 5 || resp.Usage.OutputTokens != 7 || resp.Usage.TotalTokens != 12 {
		t.Errorf("usage not mapped: %+v", resp.Usage)
	}
}

func TestOpenAI_Generate_NoSystemInstruction(t *testing.T) {
	opts := testOptions()
	opts.SystemInstruction = ""
	mock := &mockCompletionsService{response: completion("x")}
	client := &OpenAI{completions: mock, opts: opts}

	if _, err := client.Generate(context.Background(), "p"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(mock.lastParams.Messages.Value); got != 1 {
		t.Errorf("expected only the user message, got %d", got)
	}
}

func TestOpenAI_Generate_EmptyOutput(t *testing.T) {
	tests := []struct {
		name string
		resp *openai.ChatCompletion
	}{
		{"no choices", &openai.ChatCompletion{}},
		{"blank content", completion("   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &OpenAI{completions: &mockCompletionsService{response: tt.resp}, opts: testOptions()}

			_, err := client.Generate(context.Background(), "p")
			if !errors.Is(err, ErrEmptyOutput) {
				t.Errorf("expected ErrEmptyOutput, got %v", err)
			}
		})
	}
}

func TestOpenAI_Generate_APIError(t *testing.T) {
	apiErr := &openai.Error{StatusCode: 429}
	client := &OpenAI{completions: &mockCompletionsService{err: apiErr}, opts: testOptions()}

	_, err := client.Generate(context.Background(), "p")

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *GatewayError, got %T: %v", err, err)
	}
	if gwErr.StatusCode != 429 {
		t.Errorf("expected status 429, got %d", gwErr.StatusCode)
	}
}

func TestOpenAI_Generate_TransportError(t *testing.T) {
	client := &OpenAI{completions: &mockCompletionsService{err: errors.New("connection reset")}, opts: testOptions()}

	_, err := client.Generate(context.Background(), "p")

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *GatewayError, got %T: %v", err, err)
	}
	if gwErr.StatusCode != 0 {
		t.Errorf("expected status 0, got %d", gwErr.StatusCode)
	}
}

func TestNewOpenAI_ServerErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAI("test-key", srv.URL, testOptions())
	_, err := client.Generate(context.Background(), "p")

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *GatewayError, got %T: %v", err, err)
	}
	if gwErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", gwErr.StatusCode)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected exactly one upstream request, got %d", n)
	}
}

func TestOpenAI_Generate_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &OpenAI{completions: &mockCompletionsService{response: completion("x")}, opts: testOptions()}

	_, err := client.Generate(ctx, "p")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBackendNames(t *testing.T) {
	if got := (&OpenAI{}).Backend(); got != "openai" {
		t.Errorf("expected openai, got %q", got)
	}
	if got := (&HTTPClient{}).Backend(); got != "http" {
		t.Errorf("expected http, got %q", got)
	}
}
