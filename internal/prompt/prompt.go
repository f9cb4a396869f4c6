// Package prompt renders the per-mode instruction text sent to the LLM gateway.
//
// The JSON shape each template asks for is the shape the parser's JSON strategy
// reads, and each profile's field list drives the parser's legacy strategy.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperengineering/genscript/internal/types"
)

// ErrUnknownMode is returned when no profile exists for a mode.
var ErrUnknownMode = errors.New("unknown generation mode")

// SystemInstruction is the default system instruction sent alongside every prompt.
const SystemInstruction = "You are a senior researcher and software architect. " +
	"Always answer with a single valid JSON array and nothing else."

// Profile is the static configuration of one generation mode.
type Profile struct {
	Mode        types.GenerationMode
	Label       string
	Description string
	Fields      types.FieldSet

	intro    string
	guidance string
	focus    string
	hints    map[string]string
}

var fieldHints = map[string]string{
	types.FieldCategory:    "Topic category",
	types.FieldTitle:       "Topic title",
	types.FieldDescription: "Detailed description",
}

var profiles = map[types.GenerationMode]Profile{
	types.ModeResearch: {
		Mode:        types.ModeResearch,
		Label:       "Research Topics",
		Description: "Find in-depth research topics with case studies.",
		Fields: types.FieldSet{
			types.FieldCategory, types.FieldTitle, types.FieldDescription,
			types.FieldEffortValue, types.FieldRefinedPrompt,
		},
		intro:    "Create a list of %d research topics with case studies relevant to %q.",
		focus:    "Focus on practical, applicable aspects and highlight recent trends, innovations and case studies.\n\nGive a detailed description for every topic.",
		guidance: "in-depth research",
		hints: map[string]string{
			types.FieldEffortValue:   "Estimated research complexity (e.g. High/Medium/Low)",
			types.FieldRefinedPrompt: "Detailed R.C.T.F.M prompt for in-depth research...",
		},
	},
	types.ModeBusiness: {
		Mode:        types.ModeBusiness,
		Label:       "Research & Business",
		Description: "Topics with business analysis, monetization strategies, and implementation prompts.",
		Fields: types.FieldSet{
			types.FieldCategory, types.FieldTitle, types.FieldDescription,
			types.FieldMoneyValue, types.FieldEffortValue,
			types.FieldMonetizationStrategies, types.FieldRefinedPrompt,
		},
		intro:    "Create a list of %d business and research topics with case studies relevant to %q.",
		focus:    "Focus on practical aspects, recent trends, innovations and business potential.",
		guidance: "business execution",
		hints: map[string]string{
			types.FieldMoneyValue:             "Financial potential (e.g. High/Medium/Low or an estimate)",
			types.FieldEffortValue:            "Estimated effort (e.g. High/Medium/Low)",
			types.FieldMonetizationStrategies: "Specific monetization strategies",
			types.FieldRefinedPrompt:          "Detailed R.C.T.F.M prompt for business execution...",
		},
	},
	types.ModeTechnicalScript: {
		Mode:        types.ModeTechnicalScript,
		Label:       "Python Scripts",
		Description: "Technical Python script ideas with implementation prompts.",
		Fields: types.FieldSet{
			types.FieldCategory, types.FieldTitle, types.FieldDescription,
			types.FieldMoneyValue, types.FieldEffortValue, types.FieldRefinedPrompt,
		},
		intro:    "Create %d Python script ideas with case studies relevant to %q.",
		focus:    "Focus on practical aspects, scalability and technical implementation.",
		guidance: "writing the program code",
		hints: map[string]string{
			types.FieldTitle:         "Script title",
			types.FieldDescription:   "Detailed description and use",
			types.FieldMoneyValue:    "Commercial/freelance potential (e.g. $$$ or a short description)",
			types.FieldEffortValue:   "Estimated coding complexity (e.g. High/Medium/Low)",
			types.FieldRefinedPrompt: "Detailed R.C.T.F.M prompt for coding...",
		},
	},
}

// Lookup returns the profile for mode.
func Lookup(mode types.GenerationMode) (Profile, error) {
	p, ok := profiles[mode]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	p.Fields = append(types.FieldSet(nil), p.Fields...)
	return p, nil
}

// Profiles returns all profiles in mode display order.
func Profiles() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, m := range types.AllModes() {
		p, _ := Lookup(m)
		out = append(out, p)
	}
	return out
}

// Fields returns the ordered field list for mode, or nil for an unknown mode.
func Fields(mode types.GenerationMode) types.FieldSet {
	p, err := Lookup(mode)
	if err != nil {
		return nil
	}
	return p.Fields
}

// Info converts a profile into its listing representation.
func (p Profile) Info() types.ModeInfo {
	return types.ModeInfo{
		Mode:        p.Mode,
		Label:       p.Label,
		Description: p.Description,
		Fields:      append(types.FieldSet(nil), p.Fields...),
	}
}

// Build renders the instruction text for mode, embedding topic and count.
// The topic is not validated.
func Build(mode types.GenerationMode, topic string, count int) (string, error) {
	p, ok := profiles[mode]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	var b strings.Builder
	fmt.Fprintf(&b, p.intro, count, topic)
	b.WriteString(" ")
	b.WriteString(p.focus)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Also provide a \"refined prompt/instruction\" for an AI assistant (such as Claude or Gemini) "+
		"for %s, using the R.C.T.F.M framework (Role, Context, Task, Format, Meta-Cognition).\n\n", p.guidance)
	b.WriteString("IMPORTANT: The output MUST be a valid JSON array. Do not include any explanatory text outside the JSON. " +
		"If you reason before answering, make sure the final output is the following JSON:\n\n")
	b.WriteString(p.schema())
	return b.String(), nil
}

// schema renders the example JSON array for the profile's fields.
func (p Profile) schema() string {
	var b strings.Builder
	b.WriteString("[\n  {\n")
	for i, f := range p.Fields {
		hint, ok := p.hints[f]
		if !ok {
			hint = fieldHints[f]
		}
		fmt.Fprintf(&b, "    %q: %q", f, hint)
		if i < len(p.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  },\n  ...\n]")
	return b.String()
}
