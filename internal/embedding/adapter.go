package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/embedcache"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/search"
)

// Adapter owns the embedding backend session and the vector cache. It is
// safe for concurrent use: cache lookups proceed in parallel while backend
// encode calls are serialized through an internal mutex, since inference
// sessions are not assumed reentrant.
//
// The adapter is fail-open by design. Initialization problems leave it in a
// not-ready state instead of erroring, and search-time failures surface as
// errors the fusion layer logs and ignores. The lexical path never waits on
// or fails because of this component.
type Adapter struct {
	cfg     Config
	backend Backend
	cache   *embedcache.Cache
	log     *slog.Logger

	initOnce sync.Once
	ready    atomic.Bool

	encodeMu sync.Mutex
}

// NewAdapter wires an adapter from resolved configuration. The backend may
// be nil (embeddings disabled); Init must still be called before use.
func NewAdapter(cfg Config, backend Backend, cache *embedcache.Cache, log *slog.Logger) *Adapter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxTextLen <= 0 {
		cfg.MaxTextLen = DefaultMaxTextLen
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{cfg: cfg, backend: backend, cache: cache, log: log}
}

// Init opens the backend session. It is idempotent: only the first call does
// work. Missing configuration or a failing backend leaves the adapter
// not-ready rather than returning an error, so callers treat "no backend" as
// an expected condition.
func (a *Adapter) Init(ctx context.Context) {
	a.initOnce.Do(func() {
		if a.backend == nil {
			a.log.Info("embeddings disabled, searches run lexical-only")
			return
		}
		if a.cfg.Model == "" {
			a.log.Warn("embeddings misconfigured: model not set, running lexical-only")
			return
		}
		if a.backend.Dims() <= 0 {
			a.log.Warn("embeddings misconfigured: dimensionality not set, running lexical-only")
			return
		}
		if err := a.backend.Open(ctx); err != nil {
			a.log.Warn("embedding backend failed to open, running lexical-only", "error", err)
			return
		}
		a.ready.Store(true)
		a.log.Info("embedding backend ready", "model", a.cfg.Model, "dims", a.backend.Dims())
	})
}

// Ready reports whether the backend initialized successfully. It gates every
// operation and is never reset short of process restart.
func (a *Adapter) Ready() bool {
	return a.ready.Load()
}

// Dims reports the active backend's output dimensionality, or 0 when not
// ready.
func (a *Adapter) Dims() int {
	if !a.Ready() {
		return 0
	}
	return a.backend.Dims()
}

// Info returns backend diagnostics when the backend offers them.
func (a *Adapter) Info() map[string]any {
	if !a.Ready() {
		return nil
	}
	if ip, ok := a.backend.(InfoProvider); ok {
		return ip.Info()
	}
	return nil
}

// Close releases the backend session.
func (a *Adapter) Close() error {
	if a.backend == nil {
		return nil
	}
	return a.backend.Close()
}

// EncodeBatch encodes texts into unit vectors, order-preserving, splitting
// the work into configured-size backend batches. Texts longer than the
// configured maximum are truncated before encoding. An empty input yields an
// empty output.
func (a *Adapter) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !a.Ready() {
		return nil, ErrNotReady
	}
	if len(texts) == 0 {
		return nil, nil
	}

	prepared := make([]string, len(texts))
	for i, t := range texts {
		prepared[i] = truncateRunes(t, a.cfg.MaxTextLen)
	}

	out := make([][]float32, 0, len(prepared))
	for start := 0; start < len(prepared); start += a.cfg.BatchSize {
		end := start + a.cfg.BatchSize
		if end > len(prepared) {
			end = len(prepared)
		}

		a.encodeMu.Lock()
		vecs, err := a.backend.Encode(ctx, prepared[start:end])
		a.encodeMu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendFailed, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("%w: want %d, got %d", ErrEncodeMismatch, end-start, len(vecs))
		}
		for _, v := range vecs {
			out = append(out, normalize(v))
		}
	}
	return out, nil
}

// Search scores items by cosine similarity to the query. The query is
// encoded once; item vectors come from the cache keyed by (id, content
// hash), with misses batch-encoded and written back. Errors are returned for
// the fusion layer to log and absorb; they never carry partial results.
func Search[T any](ctx context.Context, a *Adapter, query string, items []search.CorpusItem[T], limit int) ([]search.Result[T], error) {
	if a == nil || !a.Ready() {
		return nil, ErrNotReady
	}
	if query == "" || len(items) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	qvecs, err := a.EncodeBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	qvec := qvecs[0]
	dims := a.backend.Dims()

	vectors := make([][]float32, len(items))
	var missIdx []int
	for i, item := range items {
		hash := embedcache.TextHash(item.Text)
		if vec, ok := a.cache.Get(item.ID, hash, dims); ok {
			vectors[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
	}

	if len(missIdx) > 0 {
		missTexts := make([]string, len(missIdx))
		for j, i := range missIdx {
			missTexts[j] = items[i].Text
		}
		encoded, err := a.EncodeBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, i := range missIdx {
			vectors[i] = encoded[j]
			a.cache.Set(items[i].ID, embedcache.TextHash(items[i].Text), encoded[j])
		}
	}

	results := make([]search.Result[T], 0, len(items))
	for i, item := range items {
		score := Cosine(qvec, vectors[i])
		if score <= 0 {
			continue
		}
		results = append(results, search.Result[T]{ID: item.ID, Score: score, Payload: item.Payload})
	}

	sortByScore(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchFunc adapts the adapter into the fusion layer's vector capability.
// A nil adapter yields a nil func, which fusion treats as "no vector signal".
func SearchFunc[T any](a *Adapter) search.VectorSearchFunc[T] {
	if a == nil {
		return nil
	}
	return func(ctx context.Context, query string, items []search.CorpusItem[T], limit int) ([]search.Result[T], error) {
		return Search(ctx, a, query, items, limit)
	}
}

// Cosine computes cosine similarity between two vectors. Mismatched lengths
// or a zero-norm operand score 0; the function never produces NaN.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// normalize scales a vector to unit length. Zero vectors pass through.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}

func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

func sortByScore[T any](results []search.Result[T]) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
