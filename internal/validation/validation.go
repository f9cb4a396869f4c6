package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperengineering/genscript/internal/types"
)

// Field limits.
const (
	MaxTopicLength       = 500
	MaxTitleLength       = 500
	MaxCategoryLength    = 200
	MaxDescriptionLength = 20000
	MaxFieldLength       = 20000
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a failed validation carrying every field error.
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Field + ": " + v.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// Err returns the accumulated errors as an Errors value, or nil.
func (c *Collector) Err() error {
	if !c.HasErrors() {
		return nil
	}
	return Errors(c.errors)
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateIntRange returns an error if the value is outside [min, max].
func ValidateIntRange(field string, value, min, max int) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d", min, max),
		}
	}
	return nil
}

// ValidateMode returns an error unless value names a generation mode or
// one of its aliases.
func ValidateMode(field, value string) *ValidationError {
	if _, err := types.ParseMode(value); err != nil {
		allowed := make([]string, 0, len(types.AllModes()))
		for _, m := range types.AllModes() {
			allowed = append(allowed, string(m))
		}
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
		}
	}
	return nil
}

// validateText applies the encoding checks shared by all free-text fields.
func validateText(c *Collector, field, value string, max int) {
	c.Add(ValidateUTF8(field, value))
	c.Add(ValidateNoNullBytes(field, value))
	c.Add(ValidateMaxLength(field, value, max))
}

// ValidateGenerateRequest checks a generation request. count must already
// have any default applied.
func ValidateGenerateRequest(topic, mode string, count, maxCount int) []ValidationError {
	var c Collector

	c.Add(ValidateRequired("topic", topic))
	validateText(&c, "topic", topic, MaxTopicLength)
	c.Add(ValidateMode("mode", mode))
	c.Add(ValidateIntRange("count", count, 1, maxCount))

	return c.Errors()
}

// ValidateIdea checks an idea submitted for saving. Field names are
// prefixed with the idea's position, e.g. "ideas[2].title".
func ValidateIdea(index int, idea types.Idea) []ValidationError {
	var c Collector
	prefix := fmt.Sprintf("ideas[%d].", index)

	c.Add(ValidateRequired(prefix+"title", idea.Title))
	validateText(&c, prefix+"title", idea.Title, MaxTitleLength)
	validateText(&c, prefix+"category", idea.Category, MaxCategoryLength)
	validateText(&c, prefix+"description", idea.Description, MaxDescriptionLength)

	optional := []struct {
		name  string
		value string
	}{
		{types.FieldMoneyValue, idea.MoneyValue},
		{types.FieldEffortValue, idea.EffortValue},
		{types.FieldMonetizationStrategies, idea.MonetizationStrategies},
		{types.FieldRefinedPrompt, idea.RefinedPrompt},
		{"thought", idea.Thought},
	}
	for _, f := range optional {
		validateText(&c, prefix+f.name, f.value, MaxFieldLength)
	}

	return c.Errors()
}
