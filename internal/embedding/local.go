package embedding

import (
	"context"

	"github.com/cespare/xxhash/v2"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/search"
)

// DefaultLocalDims is the dimensionality of the offline hashing backend.
const DefaultLocalDims = 256

// DefaultLocalModel names the hashing scheme used by LocalBackend.
const DefaultLocalModel = "hashing-v1"

// LocalBackend is an offline, deterministic embedding backend. Each token is
// hashed into a fixed-size bucket vector, so texts sharing vocabulary get
// similar vectors without any model artifact. Useful for development and for
// deployments that cannot reach a real inference backend.
type LocalBackend struct {
	model string
	dims  int
}

// NewLocalBackend creates the hashing backend. A non-positive dims falls
// back to DefaultLocalDims.
func NewLocalBackend(model string, dims int) *LocalBackend {
	if dims <= 0 {
		dims = DefaultLocalDims
	}
	if model == "" {
		model = DefaultLocalModel
	}
	return &LocalBackend{model: model, dims: dims}
}

func (l *LocalBackend) Open(ctx context.Context) error {
	return nil
}

func (l *LocalBackend) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, l.dims)
		for _, token := range search.Tokenize(text) {
			bucket := xxhash.Sum64String(token) % uint64(l.dims)
			vec[bucket]++
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (l *LocalBackend) Dims() int {
	return l.dims
}

func (l *LocalBackend) Close() error {
	return nil
}

// Info implements the optional diagnostics capability.
func (l *LocalBackend) Info() map[string]any {
	return map[string]any{
		"backend": ModeLocal,
		"model":   l.model,
		"dims":    l.dims,
	}
}
