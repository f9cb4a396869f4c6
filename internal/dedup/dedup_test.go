package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/genscript/internal/types"
)

func idea(title string) types.Idea {
	return types.Idea{ID: "id-" + title, Title: title, Description: "d"}
}

func titles(ideas []types.Idea) []string {
	out := make([]string, len(ideas))
	for i, it := range ideas {
		out[i] = it.Title
	}
	return out
}

func TestFilterNew_CaseInsensitiveMatch(t *testing.T) {
	res := FilterNew([]types.Idea{idea("foo"), idea("Bar")}, []string{"Foo"})

	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, "foo", res.Duplicates[0].Title)
	assert.Equal(t, []string{"Bar"}, titles(res.ToInsert))
}

func TestFilterNew_PreservesOrder(t *testing.T) {
	batch := []types.Idea{idea("c"), idea("A"), idea("b"), idea("a-dup"), idea("D")}

	res := FilterNew(batch, []string{"B"})

	assert.Equal(t, []string{"c", "A", "a-dup", "D"}, titles(res.ToInsert))
	assert.Equal(t, []string{"b"}, titles(res.Duplicates))
}

func TestFilterNew_DuplicateWithinBatch(t *testing.T) {
	res := FilterNew([]types.Idea{idea("Same"), idea("SAME"), idea("other")}, nil)

	assert.Equal(t, []string{"Same", "other"}, titles(res.ToInsert))
	assert.Equal(t, []string{"SAME"}, titles(res.Duplicates))
}

func TestFilterNew_NoWhitespaceNormalization(t *testing.T) {
	res := FilterNew([]types.Idea{idea("Foo "), idea("F-oo")}, []string{"foo"})

	assert.Len(t, res.ToInsert, 2)
	assert.Empty(t, res.Duplicates)
}

func TestFilterNew_UnicodeCaseFolding(t *testing.T) {
	res := FilterNew([]types.Idea{idea("ÉTUDE")}, []string{"étude"})

	assert.Empty(t, res.ToInsert)
	assert.Len(t, res.Duplicates, 1)
}

func TestFilterNew_EmptyBatch(t *testing.T) {
	res := FilterNew(nil, []string{"x"})

	assert.Empty(t, res.ToInsert)
	assert.Empty(t, res.Duplicates)
}

func TestGate_Admit(t *testing.T) {
	g := NewGate([]string{"Known"})

	assert.False(t, g.Admit("known"))
	assert.True(t, g.Admit("new"))
	assert.False(t, g.Admit("NEW"))
}
