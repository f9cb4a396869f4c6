package client

import "time"

// Config holds the client configuration
type Config struct {
	BaseURL string        // genscript server URL, e.g. http://localhost:8080
	APIKey  string        // Sent as a bearer token on every request
	Timeout time.Duration // Per-request timeout (default: 120 seconds)
}

// Idea is a generated idea record.
type Idea struct {
	ID                     string     `json:"id,omitempty"`
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

// GenerateParams are the inputs to Generate.
type GenerateParams struct {
	Topic string `json:"topic"`
	Mode  string `json:"mode,omitempty"`
	Count int    `json:"count,omitempty"`
	Save  bool   `json:"save,omitempty"`
}

// GenerateResult is the outcome of a generation.
type GenerateResult struct {
	RequestID       string `json:"requestId"`
	Mode            string `json:"mode"`
	Strategy        string `json:"strategy"`
	Ideas           []Idea `json:"ideas"`
	Saved           []Idea `json:"saved,omitempty"`
	DuplicatesCount int    `json:"duplicatesCount"`
	Persisted       bool   `json:"persisted"`
	Message         string `json:"message,omitempty"`
}

// SaveResult reports which ideas were stored.
type SaveResult struct {
	Saved           []Idea `json:"saved"`
	DuplicatesCount int    `json:"duplicatesCount"`
	TotalProcessed  int    `json:"totalProcessed"`
}

// Generation is one entry of the generation history.
type Generation struct {
	ID              string    `json:"id"`
	Mode            string    `json:"mode"`
	Topic           string    `json:"topic"`
	RequestedCount  int       `json:"requestedCount"`
	ParsedCount     int       `json:"parsedCount"`
	SavedCount      int       `json:"savedCount"`
	DuplicatesCount int       `json:"duplicatesCount"`
	Strategy        string    `json:"strategy"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Mode describes a generation mode.
type Mode struct {
	Mode        string   `json:"mode"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
}

// Health is the server health report.
type Health struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	GatewayBackend string `json:"gateway_backend"`
	IdeaCount      int64  `json:"idea_count"`
	SchemaVersion  int64  `json:"schema_version"`
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
