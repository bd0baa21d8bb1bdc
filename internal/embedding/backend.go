package embedding

import (
	"context"
	"errors"
)

// Embedding modes selectable via configuration
const (
	ModeNone   = "none"
	ModeLocal  = "local"
	ModeOpenAI = "openai"
)

// Defaults applied when configuration leaves batch and truncation settings
// unset.
const (
	DefaultBatchSize  = 16
	DefaultMaxTextLen = 2048
)

// Common errors
var (
	ErrNotReady       = errors.New("embedding backend not ready")
	ErrBackendFailed  = errors.New("embedding backend failed")
	ErrNoBackend      = errors.New("no embedding backend configured")
	ErrBadDimensions  = errors.New("invalid embedding dimensionality")
	ErrMissingAPIKey  = errors.New("api key not set")
	ErrUnknownMode    = errors.New("unknown embeddings mode")
	ErrMissingModel   = errors.New("model not configured")
	ErrEncodeMismatch = errors.New("backend returned wrong number of vectors")
)

// Config is the flat settings object the adapter is initialized with. It is
// resolved externally (config file / environment) and passed in whole.
type Config struct {
	Mode              string
	Model             string
	Dims              int
	CacheDir          string
	MemoryBudgetBytes int64
	BatchSize         int
	MaxTextLen        int
	APIKey            string
	BaseURL           string
}

// Backend is the inference capability behind the adapter. Implementations
// need not be reentrant; the adapter serializes Encode calls. Open reports
// an error instead of panicking when the backend cannot start.
type Backend interface {
	// Open prepares the backend session. Called once by the adapter.
	Open(ctx context.Context) error

	// Encode produces one vector per input text, order-preserving. An empty
	// input yields an empty output.
	Encode(ctx context.Context, texts []string) ([][]float32, error)

	// Dims reports the output dimensionality.
	Dims() int

	// Close releases the backend session.
	Close() error
}

// InfoProvider is an optional diagnostics capability a Backend may also
// implement. The core never branches on backend identity, only on readiness;
// Info exists purely for status reporting.
type InfoProvider interface {
	Info() map[string]any
}

// NewBackend selects a backend for the configured mode. ModeNone returns
// nil, nil: the absence of a backend is a normal condition, not an error.
func NewBackend(cfg Config) (Backend, error) {
	switch cfg.Mode {
	case "", ModeNone:
		return nil, nil
	case ModeLocal:
		return NewLocalBackend(cfg.Model, cfg.Dims), nil
	case ModeOpenAI:
		return NewOpenAIBackend(cfg), nil
	default:
		return nil, ErrUnknownMode
	}
}
