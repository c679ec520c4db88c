// Package normalize canonicalizes free-text fields (customer names, package
// names, payment memos) so the matchers compare like with like. All functions
// are pure and treat empty input as the empty string.
package normalize

import (
	"strings"
	"unicode"

	"github.com/gosimple/slug"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Synonyms collapsed to a canonical token before tokenization. Payment memos
// and membership names spell the same cadence several ways.
var synonyms = [][2]string{
	{"per week", "weekly"},
	{"p/week", "weekly"},
	{"/week", "weekly"},
	{"per month", "monthly"},
	{"p/month", "monthly"},
	{"/month", "monthly"},
	{"per session", "session"},
	{"x week", "weekly"},
}

// Normalize lower-cases, strips diacritics, applies synonym folding and
// collapses whitespace. Stable: same input always yields the same output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	folded, _, err := transform.String(foldDiacritics, text)
	if err != nil {
		folded = text
	}

	out := strings.ToLower(folded)
	for _, pair := range synonyms {
		out = strings.ReplaceAll(out, pair[0], pair[1])
	}

	return strings.Join(strings.Fields(out), " ")
}

// Slug returns a URL-safe canonical key for a normalized value. The invoice
// ledger keys customers by this form.
func Slug(text string) string {
	return slug.Make(Normalize(text))
}

// Tokenize splits normalized text into a set of alphanumeric tokens.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[field] = struct{}{}
	}
	return tokens
}

// Similarity is the Jaccard index over token sets, in [0,1]. Two empty inputs
// are considered identical.
func Similarity(a, b string) float64 {
	ta := Tokenize(a)
	tb := Tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for token := range ta {
		if _, ok := tb[token]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

// FuzzyContains reports whether either normalized value contains the other.
// Empty values never fuzzy-match anything.
func FuzzyContains(a, b string) bool {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// Equal reports whether two values normalize to the same text.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
