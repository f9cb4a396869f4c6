// Package parser turns raw LLM output into validated idea records.
//
// Parsing runs an ordered chain of strategies. The first strategy that
// returns without error wins, even when it keeps zero ideas; an error hands
// the text to the next strategy. Parse never fails: the worst outcome is an
// empty slice.
package parser

import (
	"errors"
	"strings"
	"time"

	"github.com/hyperengineering/genscript/internal/prompt"
	"github.com/hyperengineering/genscript/internal/types"
)

// Strategy names reported in Result.
const (
	StrategyJSON   = "json"
	StrategyLegacy = "legacy"
	StrategyNone   = "none"
)

var (
	errNoArray   = errors.New("no bracketed JSON array in text")
	errEmptyText = errors.New("empty text")
)

// baseFields is used when a mode has no registered field list.
var baseFields = types.FieldSet{types.FieldCategory, types.FieldTitle, types.FieldDescription}

// Strategy is one stage of the parse chain. A returned error means the text
// is unrecoverable for this stage and the next stage should be tried.
type Strategy struct {
	Name  string
	Parse func(text string, mode types.GenerationMode, now time.Time) ([]types.Idea, error)
}

// Result is the outcome of a parse, including which stage produced it.
type Result struct {
	Ideas    []types.Idea
	Strategy string
}

// Parser runs the strategy chain. The zero value is not usable; call New.
type Parser struct {
	// Now supplies the timestamp embedded in synthesized ids.
	Now        func() time.Time
	strategies []Strategy
}

// New returns a Parser with the JSON strategy followed by the legacy strategy.
func New() *Parser {
	return &Parser{
		Now: time.Now,
		strategies: []Strategy{
			{Name: StrategyJSON, Parse: parseJSON},
			{Name: StrategyLegacy, Parse: parseLegacy},
		},
	}
}

var defaultParser = New()

// Parse parses raw with the default parser.
func Parse(raw string, mode types.GenerationMode) []types.Idea {
	return defaultParser.Parse(raw, mode)
}

// Parse returns the ideas recovered from raw, in source order.
func (p *Parser) Parse(raw string, mode types.GenerationMode) []types.Idea {
	return p.ParseDetailed(raw, mode).Ideas
}

// ParseDetailed is Parse plus the name of the strategy that produced the result.
func (p *Parser) ParseDetailed(raw string, mode types.GenerationMode) Result {
	now := p.Now()
	for _, s := range p.strategies {
		ideas, err := s.Parse(raw, mode, now)
		if err != nil {
			continue
		}
		if ideas == nil {
			ideas = []types.Idea{}
		}
		return Result{Ideas: ideas, Strategy: s.Name}
	}
	return Result{Ideas: []types.Idea{}, Strategy: StrategyNone}
}

// fieldsFor returns the legacy field mapping for mode.
func fieldsFor(mode types.GenerationMode) types.FieldSet {
	if f := prompt.Fields(mode); len(f) > 0 {
		return f
	}
	return baseFields
}

// extractArray returns the widest [...] span of text: first '[' to last ']'.
func extractArray(text string) (string, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
