package search

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Default BM25 parameters
const (
	DefaultK1    = 1.5
	DefaultB     = 0.75
	DefaultLimit = 20
)

// CorpusItem is a single searchable unit supplied by the caller. The payload
// is opaque to the engine and echoed back unchanged on matching results.
type CorpusItem[T any] struct {
	ID      string
	Text    string
	Payload T
}

// Result is a ranked match. Score > 0 means at least one ranking signal
// matched the item.
type Result[T any] struct {
	ID      string
	Score   float64
	Payload T
}

// BM25Options tunes the lexical ranker. Zero values fall back to defaults.
type BM25Options struct {
	K1    float64
	B     float64
	Limit int
}

func (o BM25Options) withDefaults() BM25Options {
	if o.K1 <= 0 {
		o.K1 = DefaultK1
	}
	if o.B <= 0 {
		o.B = DefaultB
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// Tokenize lowercases the input and splits it into index terms. Latin
// letters, Cyrillic letters and digits are kept; every other rune acts as a
// separator. Empty tokens are dropped.
func Tokenize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || unicode.Is(unicode.Cyrillic, r) {
			return r
		}
		return ' '
	}, text)
	return strings.Fields(mapped)
}

// RankBM25 scores the corpus against the query using Okapi BM25 and returns
// matches sorted by score descending, truncated to the option limit. Items
// sharing no token with the query are excluded. The function is pure: no
// I/O, no shared state, and it never fails on odd input (an empty query or
// corpus simply yields no results).
func RankBM25[T any](corpus []CorpusItem[T], query string, opts BM25Options) []Result[T] {
	opts = opts.withDefaults()

	queryTokens := uniqueTokens(Tokenize(query))
	if len(queryTokens) == 0 || len(corpus) == 0 {
		return nil
	}

	docTokens := make([][]string, len(corpus))
	df := make(map[string]int)
	totalLen := 0
	for i, item := range corpus {
		tokens := Tokenize(item.Text)
		docTokens[i] = tokens
		totalLen += len(tokens)
		for _, t := range uniqueTokens(tokens) {
			df[t]++
		}
	}

	n := float64(len(corpus))
	if n < 1 {
		n = 1
	}
	avgdl := float64(totalLen) / n
	if avgdl <= 0 {
		avgdl = 1
	}

	results := make([]Result[T], 0, len(corpus))
	for i, item := range corpus {
		tokens := docTokens[i]
		dl := float64(len(tokens))

		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}

		score := 0.0
		for _, q := range queryTokens {
			f := float64(tf[q])
			if f == 0 {
				continue
			}
			score += idf(n, df[q]) * (f * (opts.K1 + 1)) / (f + opts.K1*(1-opts.B+opts.B*dl/avgdl))
		}
		if score > 0 {
			results = append(results, Result[T]{ID: item.ID, Score: score, Payload: item.Payload})
		}
	}

	sortResults(results)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// idf computes the BM25+ style inverse document frequency. Unseen terms use
// a document frequency of 0.5 so they contribute a finite weight instead of
// failing.
func idf(n float64, docFreq int) float64 {
	dfv := float64(docFreq)
	if dfv == 0 {
		dfv = 0.5
	}
	return math.Log(1 + (n-dfv+0.5)/(dfv+0.5))
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// sortResults orders results by score in descending order.
func sortResults[T any](results []Result[T]) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
