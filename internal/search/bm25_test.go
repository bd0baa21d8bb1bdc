package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpus(pairs ...string) []CorpusItem[string] {
	items := make([]CorpusItem[string], 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		items = append(items, CorpusItem[string]{ID: pairs[i], Text: pairs[i+1], Payload: pairs[i]})
	}
	return items
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases", "Hello WORLD", []string{"hello", "world"}},
		{"strips punctuation", "foo, bar! (baz)", []string{"foo", "bar", "baz"}},
		{"keeps digits", "task-42 v2", []string{"task", "42", "v2"}},
		{"keeps cyrillic", "Привет мир", []string{"привет", "мир"}},
		{"empty", "  \t\n ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestRankBM25_MatchesAndExcludes(t *testing.T) {
	items := corpus(
		"1", "Hello world",
		"2", "Hello there",
		"3", "Completely unrelated",
	)

	results := RankBM25(items, "hello", BM25Options{})

	require.Len(t, results, 2)
	ids := []string{results[0].ID, results[1].ID}
	assert.ElementsMatch(t, []string{"1", "2"}, ids)
	for _, r := range results {
		assert.Greater(t, r.Score, 0.0)
		assert.NotEqual(t, "3", r.ID)
	}
}

func TestRankBM25_EmptyInputs(t *testing.T) {
	items := corpus("1", "some text")

	assert.Empty(t, RankBM25(items, "", BM25Options{}))
	assert.Empty(t, RankBM25(items, "!!!", BM25Options{}))
	assert.Empty(t, RankBM25[string](nil, "query", BM25Options{}))
}

func TestRankBM25_TermFrequencyMonotonic(t *testing.T) {
	// Increasing the query term's frequency in a document must not decrease
	// its score, all else equal.
	base := corpus(
		"a", "cat dog bird",
		"b", "fish fish fish",
	)
	more := corpus(
		"a", "cat cat cat",
		"b", "fish fish fish",
	)

	scoreOf := func(results []Result[string], id string) float64 {
		for _, r := range results {
			if r.ID == id {
				return r.Score
			}
		}
		return 0
	}

	low := scoreOf(RankBM25(base, "cat", BM25Options{}), "a")
	high := scoreOf(RankBM25(more, "cat", BM25Options{}), "a")
	assert.GreaterOrEqual(t, high, low)
}

func TestRankBM25_UnseenQueryTerm(t *testing.T) {
	items := corpus("1", "hello world", "2", "hello hello")

	// Unknown terms must not error; known terms still rank.
	results := RankBM25(items, "hello zzzunknown", BM25Options{})
	require.NotEmpty(t, results)
	assert.Equal(t, "2", results[0].ID)
}

func TestRankBM25_LimitAndOrder(t *testing.T) {
	var items []CorpusItem[string]
	for i := 0; i < 30; i++ {
		items = append(items, CorpusItem[string]{
			ID:   string(rune('a' + i)),
			Text: "keyword " + strings.Repeat("filler ", i),
		})
	}

	results := RankBM25(items, "keyword", BM25Options{Limit: 5})
	require.Len(t, results, 5)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRankBM25_PayloadEchoed(t *testing.T) {
	type payload struct{ N int }
	items := []CorpusItem[payload]{{ID: "x", Text: "needle", Payload: payload{N: 7}}}

	results := RankBM25(items, "needle", BM25Options{})
	require.Len(t, results, 1)
	assert.Equal(t, 7, results[0].Payload.N)
}
