// Package generator runs one idea generation end to end: it renders the
// prompt, calls the gateway, parses the output and optionally persists the
// result.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyperengineering/genscript/internal/gateway"
	"github.com/hyperengineering/genscript/internal/metrics"
	"github.com/hyperengineering/genscript/internal/parser"
	"github.com/hyperengineering/genscript/internal/prompt"
	"github.com/hyperengineering/genscript/internal/store"
	"github.com/hyperengineering/genscript/internal/types"
	"github.com/hyperengineering/genscript/internal/validation"
	"github.com/oklog/ulid/v2"
)

// Defaults used when Config leaves a value at zero.
const (
	DefaultCount    = 10
	DefaultMaxCount = 50
)

// Config bounds the requested idea count.
type Config struct {
	DefaultCount int
	MaxCount     int
}

// Request describes one generation. Mode accepts aliases such as "python".
// A zero Count uses the configured default.
type Request struct {
	Mode  string
	Topic string
	Count int
	Save  bool
}

// Result is the outcome of a generation.
type Result struct {
	// RequestID identifies this run; callers use it to drop stale results.
	RequestID       string
	Mode            types.GenerationMode
	Strategy        string
	Ideas           []types.Idea
	Saved           []types.Idea
	DuplicatesCount int
	Persisted       bool
	// PersistError is set when saving failed. The ideas are still returned.
	PersistError error
	Gateway      *gateway.Response
}

// EmptyMessage is shown when the gateway answered but no ideas could be parsed.
const EmptyMessage = "The model returned a response, but no structured ideas could be parsed from it. Try a different topic."

// Empty reports whether no ideas could be parsed from the gateway output.
func (r *Result) Empty() bool {
	return len(r.Ideas) == 0
}

// Response converts the result to its wire form.
func (r *Result) Response() types.GenerateResponse {
	resp := types.GenerateResponse{
		RequestID:       r.RequestID,
		Mode:            string(r.Mode),
		Strategy:        r.Strategy,
		Ideas:           r.Ideas,
		Saved:           r.Saved,
		DuplicatesCount: r.DuplicatesCount,
		Persisted:       r.Persisted,
	}
	if r.Empty() {
		resp.Message = EmptyMessage
	}
	return resp
}

// Service wires the pipeline stages together. Store may be nil, in which
// case nothing is persisted.
type Service struct {
	gen    gateway.Generator
	store  store.Store
	parser *parser.Parser
	cfg    Config
	logger *slog.Logger
	newID  func() string
}

// New creates a Service.
func New(g gateway.Generator, s store.Store, cfg Config) *Service {
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = DefaultMaxCount
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = DefaultCount
	}
	if cfg.DefaultCount > cfg.MaxCount {
		cfg.DefaultCount = cfg.MaxCount
	}
	return &Service{
		gen:    g,
		store:  s,
		parser: parser.New(),
		cfg:    cfg,
		logger: slog.Default().With("component", "generator"),
		newID:  func() string { return ulid.Make().String() },
	}
}

// Backend returns the name of the gateway backend in use.
func (s *Service) Backend() string {
	return s.gen.Backend()
}

// MaxCount returns the largest count a request may ask for.
func (s *Service) MaxCount() int {
	return s.cfg.MaxCount
}

// Generate runs the pipeline for req. Invalid requests return
// validation.Errors; gateway failures return the gateway's error wrapped.
// Zero parsed ideas is not an error.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Count == 0 {
		req.Count = s.cfg.DefaultCount
	}
	if errs := validation.ValidateGenerateRequest(req.Topic, req.Mode, req.Count, s.cfg.MaxCount); len(errs) > 0 {
		return nil, validation.Errors(errs)
	}
	mode, err := types.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}

	requestID := s.newID()
	logger := s.logger.With("request_id", requestID, "mode", string(mode))

	text, err := prompt.Build(mode, req.Topic, req.Count)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	start := time.Now()
	resp, err := s.gen.Generate(ctx, text)
	elapsed := time.Since(start)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, gateway.ErrEmptyOutput) {
			outcome = metrics.OutcomeEmpty
		}
		metrics.ObserveGateway(s.gen.Backend(), outcome, elapsed, 0)
		logger.Warn("gateway call failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return nil, fmt.Errorf("generate ideas: %w", err)
	}
	metrics.ObserveGateway(s.gen.Backend(), metrics.OutcomeSuccess, elapsed, resp.Usage.TotalTokens)

	parsed := s.parser.ParseDetailed(resp.OutputText, mode)
	metrics.ObserveParse(string(mode), parsed.Strategy, len(parsed.Ideas))

	result := &Result{
		RequestID: requestID,
		Mode:      mode,
		Strategy:  parsed.Strategy,
		Ideas:     parsed.Ideas,
		Gateway:   resp,
	}

	logger.Info("ideas generated",
		"requested", req.Count,
		"parsed", len(parsed.Ideas),
		"strategy", parsed.Strategy,
		"finish_reason", resp.FinishReason,
		"duration_ms", elapsed.Milliseconds(),
	)

	if req.Save && s.store != nil {
		saved, err := s.Save(ctx, parsed.Ideas)
		if err != nil {
			logger.Error("failed to persist ideas", "error", err)
			result.PersistError = err
		} else {
			result.Saved = saved.Saved
			result.DuplicatesCount = saved.DuplicatesCount
			result.Persisted = true
		}
	}

	s.recordHistory(ctx, logger, types.Generation{
		ID:              requestID,
		Mode:            mode,
		Topic:           req.Topic,
		RequestedCount:  req.Count,
		ParsedCount:     len(result.Ideas),
		SavedCount:      len(result.Saved),
		DuplicatesCount: result.DuplicatesCount,
		Strategy:        result.Strategy,
	})

	return result, nil
}

// Save stores the ideas whose titles are new.
func (s *Service) Save(ctx context.Context, ideas []types.Idea) (*types.SaveResult, error) {
	if s.store == nil {
		return nil, errors.New("no store configured")
	}
	res, err := s.store.SaveIdeas(ctx, ideas)
	if err != nil {
		return nil, err
	}
	metrics.ObserveSave(len(res.Saved), res.DuplicatesCount)
	return res, nil
}

func (s *Service) recordHistory(ctx context.Context, logger *slog.Logger, g types.Generation) {
	if s.store == nil {
		return
	}
	if _, err := s.store.RecordGeneration(ctx, g); err != nil {
		logger.Warn("failed to record generation", "error", err)
	}
}
