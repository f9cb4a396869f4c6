// Package dedup filters candidate ideas whose titles already exist.
//
// Matching is case-insensitive and exact: titles are case-folded and nothing
// else is normalized. The check is made against a snapshot of existing
// titles, so two concurrent batches can both admit the same title; storage
// is expected to hold a unique index as a backstop.
package dedup

import (
	"strings"

	"github.com/hyperengineering/genscript/internal/types"
)

// Result splits a batch into ideas to insert and detected duplicates.
// Both preserve input order.
type Result struct {
	ToInsert   []types.Idea
	Duplicates []types.Idea
}

// Key returns the comparison key for a title.
func Key(title string) string {
	return strings.ToLower(title)
}

// Gate holds the set of titles already accepted.
type Gate struct {
	seen map[string]struct{}
}

// NewGate returns a Gate seeded with existing titles.
func NewGate(existingTitles []string) *Gate {
	g := &Gate{seen: make(map[string]struct{}, len(existingTitles))}
	for _, t := range existingTitles {
		g.seen[Key(t)] = struct{}{}
	}
	return g
}

// Admit reports whether title is new and, if so, records it.
func (g *Gate) Admit(title string) bool {
	k := Key(title)
	if _, ok := g.seen[k]; ok {
		return false
	}
	g.seen[k] = struct{}{}
	return true
}

// FilterNew separates candidates into new ideas and duplicates of
// existingTitles. A title repeated within the batch is a duplicate of its
// first occurrence.
func FilterNew(candidates []types.Idea, existingTitles []string) Result {
	g := NewGate(existingTitles)

	var res Result
	for _, c := range candidates {
		if g.Admit(c.Title) {
			res.ToInsert = append(res.ToInsert, c)
		} else {
			res.Duplicates = append(res.Duplicates, c)
		}
	}
	return res
}
