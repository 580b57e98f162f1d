package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaroWinkler(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 1.0, s.JaroWinkler("abc plumbing", "abc plumbing"))
	assert.Equal(t, 0.0, s.JaroWinkler("", "abc"))

	// Near-identical names score high
	assert.Greater(t, s.JaroWinkler("abc plumbing", "abc plumbng"), 0.9)

	// Unrelated names score low
	assert.Less(t, s.JaroWinkler("abc plumbing", "zzkq"), 0.5)
}

func TestJaroWinklerSymmetry(t *testing.T) {
	s := NewScorer()
	pairs := [][2]string{
		{"abc plumbing", "abc plumbing co"},
		{"smith electric", "smyth electric"},
		{"a", "b"},
	}
	for _, p := range pairs {
		assert.InDelta(t, s.JaroWinkler(p[0], p[1]), s.JaroWinkler(p[1], p[0]), 1e-12)
	}
}

func TestLevenshtein(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 0, s.LevenshteinDistance("same", "same"))
	assert.Equal(t, 3, s.LevenshteinDistance("", "abc"))
	assert.Equal(t, 1, s.LevenshteinDistance("kitten", "mitten"))
	assert.Equal(t, 3, s.LevenshteinDistance("kitten", "sitting"))

	assert.Equal(t, 1.0, s.Levenshtein("", ""))
	assert.InDelta(t, 1.0-3.0/7.0, s.Levenshtein("kitten", "sitting"), 1e-12)
}

func TestNameSimilarityReorderedTokens(t *testing.T) {
	s := NewScorer()
	// Same words in a different order should still score as a strong match.
	assert.GreaterOrEqual(t, s.NameSimilarity("plumbing abc", "abc plumbing"), 1.0)
	assert.Equal(t, 0.0, s.NameSimilarity("", "abc"))
}

func TestNormalizeCompanyName(t *testing.T) {
	cases := map[string]string{
		"ABC Plumbing Inc":        "abc plumbing",
		"ABC Plumbing LLC":        "abc plumbing",
		"ABC  Plumbing, Co.":      "abc plumbing",
		"Smith & Sons Ltd.":       "smith sons",
		"Acme Holding Co Inc":     "acme holding",
		"Incorporated Widgets":    "incorporated widgets",
		"CO":                      "co",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCompanyName(in), "input %q", in)
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5551234567", NormalizePhone("(555) 123-4567"))
	assert.Equal(t, "5551234567", NormalizePhone("+1 555.123.4567"))
	assert.Equal(t, "5551234567", NormalizePhone("555 123 4567"))
	assert.Equal(t, "", NormalizePhone("n/a"))
}

func TestIsFreeMail(t *testing.T) {
	assert.True(t, IsFreeMail("joe@gmail.com"))
	assert.True(t, IsFreeMail("JOE@YAHOO.COM"))
	assert.True(t, IsFreeMail("not-an-email"))
	assert.False(t, IsFreeMail("office@abcplumbing.com"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "123 n main st", NormalizeAddress("123 North Main Street"))
	assert.Equal(t, "123 n main st ste 4", NormalizeAddress("123 N. Main St., Suite 4"))
}
