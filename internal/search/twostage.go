package search

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultPrefilterLimit bounds how many documents survive stage one.
const DefaultPrefilterLimit = 30

// TwoStageOptions configures chunked retrieval over a document corpus.
type TwoStageOptions[T any] struct {
	PrefilterLimit int
	Limit          int
	ChunkSize      int
	ChunkOverlap   int
	Vector         VectorSearchFunc[ChunkPayload[T]]
	Logger         *slog.Logger
}

// TwoStageSearch ranks documents by first shortlisting lexically plausible
// candidates with whole-document BM25, then chunking only the shortlist and
// running hybrid search over the chunks. Each document is scored by its
// best-scoring chunk. The expensive chunk+embed work is therefore bounded by
// PrefilterLimit regardless of corpus size.
func TwoStageSearch[T any](ctx context.Context, query string, docs []Document[T], opts TwoStageOptions[T]) []Result[T] {
	if opts.PrefilterLimit <= 0 {
		opts.PrefilterLimit = DefaultPrefilterLimit
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	// Stage 1: lexical prefilter over whole documents. The vector adapter is
	// deliberately excluded here; this pass only bounds the chunking work.
	whole := make([]CorpusItem[int], len(docs))
	for i, doc := range docs {
		whole[i] = CorpusItem[int]{
			ID:      doc.ID,
			Text:    docHeader(doc.Title, doc.Tags) + doc.Content,
			Payload: i,
		}
	}
	shortlist := RankBM25(whole, query, BM25Options{Limit: opts.PrefilterLimit})
	if len(shortlist) == 0 {
		return nil
	}

	// Stage 2: chunk the shortlist and rank chunks with hybrid fusion.
	// Over-fetch chunks so aggregation sees several candidates per document.
	var chunks []CorpusItem[ChunkPayload[T]]
	for _, cand := range shortlist {
		chunks = append(chunks, BuildDocChunks(docs[cand.Payload], opts.ChunkSize, opts.ChunkOverlap)...)
	}
	chunkLimit := 3 * opts.Limit
	if chunkLimit < 50 {
		chunkLimit = 50
	}
	ranked := HybridSearch(ctx, query, chunks, HybridOptions[ChunkPayload[T]]{
		Limit:  chunkLimit,
		Vector: opts.Vector,
		Logger: opts.Logger,
	})

	// Aggregate chunk scores back to document granularity, keeping the best
	// chunk per document.
	best := make(map[string]Result[T])
	for _, r := range ranked {
		docID := chunkOwner(r.ID)
		if prev, ok := best[docID]; ok && prev.Score >= r.Score {
			continue
		}
		best[docID] = Result[T]{ID: docID, Score: r.Score, Payload: r.Payload.Doc}
	}

	results := make([]Result[T], 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}
	sortResults(results)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// chunkOwner strips the "#<index>" suffix from a chunk id.
func chunkOwner(chunkID string) string {
	if i := strings.LastIndex(chunkID, "#"); i >= 0 {
		return chunkID[:i]
	}
	return chunkID
}
