package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/genscript/internal/types"
)

const (
	defaultCategory = "General"
	defaultTitle    = "Untitled"
)

// optionalFields are copied verbatim when present on a JSON element.
var optionalFields = []string{
	types.FieldMoneyValue,
	types.FieldEffortValue,
	types.FieldMonetizationStrategies,
	types.FieldRefinedPrompt,
}

// parseJSON decodes the widest bracketed span as a JSON array of objects.
// Once the array decodes, its result is final even if no element survives.
func parseJSON(text string, mode types.GenerationMode, now time.Time) ([]types.Idea, error) {
	span, ok := extractArray(text)
	if !ok {
		return nil, errNoArray
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(span), &elems); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}

	ideas := make([]types.Idea, 0, len(elems))
	for i, raw := range elems {
		obj := decodeObject(raw)

		idea := types.Idea{
			ID:          fmt.Sprintf("%s-%d-%d", mode, now.UnixMilli(), i),
			Category:    stringOr(obj, types.FieldCategory, defaultCategory),
			Title:       stringOr(obj, types.FieldTitle, defaultTitle),
			Description: stringOr(obj, types.FieldDescription, ""),
			Thought:     stringOr(obj, "thought", ""),
		}
		for _, f := range optionalFields {
			idea.Set(f, stringOr(obj, f, ""))
		}

		if !idea.Complete() {
			continue
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

// decodeObject returns the element as an object, or nil for any non-object.
func decodeObject(raw json.RawMessage) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil
	}
	return obj
}

// stringOr returns the trimmed scalar value of key, or def when the value is
// absent, empty, or not a scalar.
func stringOr(obj map[string]any, key, def string) string {
	var s string
	switch v := obj[key].(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case bool:
		if v {
			s = "true"
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
