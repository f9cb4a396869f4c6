// Package client is a Go client for the genscript HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultMode is the generation mode used when GenerateParams.Mode is empty.
const DefaultMode = "research"

// ErrNotFound is matched by errors.Is for 404 responses.
var ErrNotFound = errors.New("not found")

// Error is a non-success response decoded from an RFC 7807 problem body.
type Error struct {
	StatusCode int
	Type       string
	Title      string
	Detail     string
	Errors     []FieldError
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("genscript: %d %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("genscript: %d %s", e.StatusCode, e.Title)
}

// Is reports whether e matches target. A 404 matches ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to a genscript server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a new Client
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		http:    &http.Client{Timeout: config.Timeout},
	}, nil
}

// Health returns the server health report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Modes lists the generation modes the server supports.
func (c *Client) Modes(ctx context.Context) ([]Mode, error) {
	var out struct {
		Modes []Mode `json:"modes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/modes", nil, &out); err != nil {
		return nil, err
	}
	return out.Modes, nil
}

// Generate runs one generation on the server. An empty Mode means research.
func (c *Client) Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	if params.Mode == "" {
		params.Mode = DefaultMode
	}
	var res GenerateResult
	if err := c.do(ctx, http.MethodPost, "/api/generate", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Save validates ideas and stores the ones with new titles. An invalid idea
// rejects the whole batch.
func (c *Client) Save(ctx context.Context, ideas []Idea) (*SaveResult, error) {
	if ideas == nil {
		ideas = []Idea{}
	}
	var res SaveResult
	body := map[string][]Idea{"ideas": ideas}
	if err := c.do(ctx, http.MethodPost, "/api/validate-and-save", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListIdeas returns every saved idea, newest first.
func (c *Client) ListIdeas(ctx context.Context) ([]Idea, error) {
	var out struct {
		Ideas []Idea `json:"ideas"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/ideas", nil, &out); err != nil {
		return nil, err
	}
	return out.Ideas, nil
}

// GetIdea returns one idea.
func (c *Client) GetIdea(ctx context.Context, id string) (*Idea, error) {
	var idea Idea
	if err := c.do(ctx, http.MethodGet, "/api/ideas/"+url.PathEscape(id), nil, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

// DeleteIdea removes one idea.
func (c *Client) DeleteIdea(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/ideas/"+url.PathEscape(id), nil, nil)
}

// Generations returns recent generation history. A zero limit uses the
// server default.
func (c *Client) Generations(ctx context.Context, limit int) ([]Generation, error) {
	path := "/api/generations"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Generations []Generation `json:"generations"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Generations, nil
}

// do sends an authenticated request and decodes a JSON reply into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	e := &Error{StatusCode: resp.StatusCode}

	var p struct {
		Type   string       `json:"type"`
		Title  string       `json:"title"`
		Detail string       `json:"detail"`
		Errors []FieldError `json:"errors"`
	}
	if json.Unmarshal(data, &p) == nil && p.Title != "" {
		e.Type, e.Title, e.Detail, e.Errors = p.Type, p.Title, p.Detail, p.Errors
		return e
	}
	e.Title = http.StatusText(resp.StatusCode)
	e.Detail = strings.TrimSpace(string(data))
	return e
}
