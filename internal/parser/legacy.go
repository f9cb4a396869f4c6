package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hyperengineering/genscript/internal/types"
)

var (
	// blankLine separates items: two or more newlines, optionally with
	// whitespace-only lines between them.
	blankLine = regexp.MustCompile(`\n\s*\n`)

	// bracketToken matches one {{...}} span, non-greedy, across lines.
	bracketToken = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)
)

// parseLegacy extracts ideas from blank-line separated blocks, using
// {{field}} tokens when there are enough of them and falling back to
// category/title/description on the first three lines.
func parseLegacy(text string, mode types.GenerationMode, now time.Time) ([]types.Idea, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, errEmptyText
	}

	fields := fieldsFor(mode)
	items := blankLine.Split(text, -1)

	var ideas []types.Idea
	for i, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		idea, ok := parseItem(item, fields)
		if !ok {
			continue
		}
		idea.ID = fmt.Sprintf("%s-%d-%d", mode, i, now.UnixMilli())

		if !idea.Complete() {
			continue
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

// parseItem maps one block onto an idea. It reports false when the block has
// neither enough tokens nor at least three lines.
func parseItem(item string, fields types.FieldSet) (types.Idea, bool) {
	var idea types.Idea

	tokens := bracketToken.FindAllStringSubmatch(item, -1)
	if len(tokens) >= len(fields) {
		for n, f := range fields {
			idea.Set(f, strings.TrimSpace(tokens[n][1]))
		}
		return idea, true
	}

	lines := nonEmptyLines(item)
	if len(lines) < 3 {
		return idea, false
	}
	idea.Category = unwrapToken(lines[0])
	idea.Title = unwrapToken(lines[1])
	idea.Description = unwrapToken(lines[2])
	return idea, true
}

// nonEmptyLines returns the trimmed, non-blank lines of s.
func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// unwrapToken strips {{ }} from a line that consists of exactly one token.
func unwrapToken(line string) string {
	if m := bracketToken.FindStringSubmatchIndex(line); m != nil && m[0] == 0 && m[1] == len(line) {
		return strings.TrimSpace(line[m[2]:m[3]])
	}
	return line
}
