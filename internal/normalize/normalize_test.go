package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "jane doe", Normalize("  Jane   DOE "))
	assert.Equal(t, "creme class", Normalize("Crème Class"))
	assert.Equal(t, "2 weekly", Normalize("2 per week"))

	// Stable across repeated calls.
	first := Normalize("10 Session Pack")
	assert.Equal(t, first, Normalize("10 Session Pack"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "jane-doe", Slug("Jane  Doe"))
	assert.Equal(t, Slug("JANE DOE"), Slug("jane doe"))
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("10 Session Pack (Group)")
	assert.Len(t, tokens, 4)
	assert.Contains(t, tokens, "10")
	assert.Contains(t, tokens, "session")
	assert.Contains(t, tokens, "group")

	assert.Empty(t, Tokenize(""))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, float64(1), Similarity("", ""))
	assert.Equal(t, float64(0), Similarity("boxing", ""))
	assert.Equal(t, float64(1), Similarity("Group Monthly", "group monthly"))

	// {group, monthly} vs {group, weekly}: 1 shared / 3 union.
	assert.InDelta(t, 1.0/3.0, Similarity("group monthly", "group weekly"), 1e-9)
}

func TestFuzzyContains(t *testing.T) {
	assert.True(t, FuzzyContains("10 Session Pack", "session pack"))
	assert.True(t, FuzzyContains("pack", "10 Session Pack"))
	assert.False(t, FuzzyContains("", "anything"))
	assert.False(t, FuzzyContains("boxing", "pilates"))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Jane  Doe", "jane doe"))
	assert.False(t, Equal("Jane Doe", "Jane Smith"))
}
