// Package search implements the retrieval engine: BM25 lexical ranking,
// overlapping-window chunking, hybrid lexical+semantic score fusion and the
// two-stage chunked search used for long documents.
//
// All entry points are pure generic functions over caller-supplied corpus
// snapshots; the package holds no cross-call state.
//
// # Ranking
//
//	results := search.RankBM25(corpus, "hello world", search.BM25Options{Limit: 20})
//
// Items sharing no token with the query never appear in the output. Scores
// are Okapi BM25 with k1=1.5, b=0.75 by default.
//
// # Hybrid fusion
//
//	results := search.HybridSearch(ctx, query, corpus, search.HybridOptions[Doc]{
//	    Limit:  20,
//	    Vector: embedding.SearchFunc[Doc](adapter),
//	})
//
// The vector signal is optional. When absent or failing the call degrades to
// the BM25 ranking; when present, results are merged by id keeping the
// maximum score per id.
//
// # Two-stage search
//
// For corpora of long documents, TwoStageSearch first shortlists candidates
// with a cheap whole-document BM25 pass, then chunks only the shortlist and
// runs hybrid search over the chunks, scoring each document by its best
// chunk. Chunking and embedding cost is bounded by the prefilter limit, not
// by corpus size.
package search
