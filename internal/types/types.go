package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// GenerationMode selects the prompt template and the expected idea fields.
type GenerationMode string

const (
	ModeResearch        GenerationMode = "research"
	ModeBusiness        GenerationMode = "business"
	ModeTechnicalScript GenerationMode = "technical-script"
)

// modeAliases maps legacy mode names onto their current mode.
var modeAliases = map[string]GenerationMode{
	"python": ModeTechnicalScript,
}

// AllModes returns every supported mode in display order.
func AllModes() []GenerationMode {
	return []GenerationMode{ModeResearch, ModeBusiness, ModeTechnicalScript}
}

// Valid reports whether m is one of the supported modes.
func (m GenerationMode) Valid() bool {
	switch m {
	case ModeResearch, ModeBusiness, ModeTechnicalScript:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (m GenerationMode) String() string {
	return string(m)
}

// ParseMode resolves a user-supplied mode name, accepting legacy aliases.
func ParseMode(s string) (GenerationMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if alias, ok := modeAliases[s]; ok {
		return alias, nil
	}
	m := GenerationMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown generation mode %q", s)
	}
	return m, nil
}

// Field names shared by the prompt templates, the parser and the store.
const (
	FieldCategory               = "category"
	FieldTitle                  = "title"
	FieldDescription            = "description"
	FieldMoneyValue             = "moneyValue"
	FieldEffortValue            = "effortValue"
	FieldMonetizationStrategies = "monetizationStrategies"
	FieldRefinedPrompt          = "refinedPrompt"
)

// FieldSet is the ordered list of fields a mode expects in each idea.
type FieldSet []string

// Idea is a single generated idea record.
type Idea struct {
	ID                     string     `json:"id"`
	Category               string     `json:"category"`
	Title                  string     `json:"title"`
	Description            string     `json:"description"`
	MoneyValue             string     `json:"moneyValue,omitempty"`
	EffortValue            string     `json:"effortValue,omitempty"`
	MonetizationStrategies string     `json:"monetizationStrategies,omitempty"`
	RefinedPrompt          string     `json:"refinedPrompt,omitempty"`
	Thought                string     `json:"thought,omitempty"`
	CreatedAt              *time.Time `json:"createdAt,omitempty"`
}

// Set assigns value to the named field. Unknown names are ignored.
func (i *Idea) Set(field, value string) {
	switch field {
	case FieldCategory:
		i.Category = value
	case FieldTitle:
		i.Title = value
	case FieldDescription:
		i.Description = value
	case FieldMoneyValue:
		i.MoneyValue = value
	case FieldEffortValue:
		i.EffortValue = value
	case FieldMonetizationStrategies:
		i.MonetizationStrategies = value
	case FieldRefinedPrompt:
		i.RefinedPrompt = value
	}
}

// Complete reports whether the idea carries both a title and a description.
func (i Idea) Complete() bool {
	return i.Title != "" && i.Description != ""
}

// SaveRequest is the body of POST /api/validate-and-save.
type SaveRequest struct {
	Ideas []Idea `json:"ideas"`
}

// SaveResult reports the outcome of a validate-and-save batch.
type SaveResult struct {
	Saved           []Idea `json:"saved"`
	DuplicatesCount int    `json:"duplicatesCount"`
	TotalProcessed  int    `json:"totalProcessed"`
}

// MarshalJSON ensures nil slices in SaveResult marshal as [] not null.
func (r SaveResult) MarshalJSON() ([]byte, error) {
	if r.Saved == nil {
		r.Saved = []Idea{}
	}
	type Alias SaveResult
	return json.Marshal(Alias(r))
}

// IdeaList is the body of GET /api/ideas.
type IdeaList struct {
	Ideas []Idea `json:"ideas"`
}

// MarshalJSON ensures nil slices in IdeaList marshal as [] not null.
func (l IdeaList) MarshalJSON() ([]byte, error) {
	if l.Ideas == nil {
		l.Ideas = []Idea{}
	}
	type Alias IdeaList
	return json.Marshal(Alias(l))
}

// Generation is the history row written for every generation request.
type Generation struct {
	ID              string         `json:"id"`
	Mode            GenerationMode `json:"mode"`
	Topic           string         `json:"topic"`
	RequestedCount  int            `json:"requestedCount"`
	ParsedCount     int            `json:"parsedCount"`
	SavedCount      int            `json:"savedCount"`
	DuplicatesCount int            `json:"duplicatesCount"`
	Strategy        string         `json:"strategy"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Topic string `json:"topic"`
	Mode  string `json:"mode"`
	Count int    `json:"count"`
	Save  bool   `json:"save"`
}

// GenerateResponse is the body returned by POST /api/generate.
type GenerateResponse struct {
	RequestID       string `json:"requestId"`
	Mode            string `json:"mode"`
	Strategy        string `json:"strategy"`
	Ideas           []Idea `json:"ideas"`
	Saved           []Idea `json:"saved,omitempty"`
	DuplicatesCount int    `json:"duplicatesCount"`
	Persisted       bool   `json:"persisted"`
	Message         string `json:"message,omitempty"`
}

// MarshalJSON ensures nil slices in GenerateResponse marshal as [] not null.
func (r GenerateResponse) MarshalJSON() ([]byte, error) {
	if r.Ideas == nil {
		r.Ideas = []Idea{}
	}
	type Alias GenerateResponse
	return json.Marshal(Alias(r))
}

// ModeInfo describes a generation profile for listing endpoints.
type ModeInfo struct {
	Mode        GenerationMode `json:"mode"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Fields      FieldSet       `json:"fields"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	GatewayBackend string `json:"gateway_backend"`
	IdeaCount      int64  `json:"idea_count"`
	SchemaVersion  int64  `json:"schema_version"`
}

// StoreStats holds aggregate store statistics.
type StoreStats struct {
	IdeaCount       int64      `json:"idea_count"`
	GenerationCount int64      `json:"generation_count"`
	SchemaVersion   int64      `json:"schema_version"`
	LastSnapshot    *time.Time `json:"last_snapshot,omitempty"`
}
