package search

import (
	"context"
	"log/slog"
)

// VectorSearchFunc scores items by semantic similarity to the query. It is
// an optional signal: implementations are supplied by the embedding adapter
// and may fail or be absent without affecting the lexical path.
type VectorSearchFunc[T any] func(ctx context.Context, query string, items []CorpusItem[T], limit int) ([]Result[T], error)

// HybridOptions configures score fusion. A nil Vector func degrades
// HybridSearch to plain BM25 ranking.
type HybridOptions[T any] struct {
	Limit  int
	K1     float64
	B      float64
	Vector VectorSearchFunc[T]
	Logger *slog.Logger
}

// HybridSearch merges lexical and semantic rankings. BM25 always runs; when
// a vector func is present its results are merged by id, keeping the maximum
// of the two scores per id. A failing vector call is logged and ignored so a
// degraded semantic signal never fails the request.
func HybridSearch[T any](ctx context.Context, query string, items []CorpusItem[T], opts HybridOptions[T]) []Result[T] {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	lexical := RankBM25(items, query, BM25Options{K1: opts.K1, B: opts.B, Limit: opts.Limit})
	if opts.Vector == nil {
		return lexical
	}

	semantic, err := opts.Vector(ctx, query, items, opts.Limit)
	if err != nil {
		logger(opts.Logger).Warn("vector search failed, falling back to lexical ranking", "error", err)
		return lexical
	}
	if len(semantic) == 0 {
		return lexical
	}

	merged := make(map[string]Result[T], len(lexical)+len(semantic))
	for _, r := range lexical {
		merged[r.ID] = r
	}
	for _, r := range semantic {
		if prev, ok := merged[r.ID]; ok && prev.Score >= r.Score {
			continue
		}
		merged[r.ID] = r
	}

	results := make([]Result[T], 0, len(merged))
	for _, r := range merged {
		results = append(results, r)
	}
	sortResults(results)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
