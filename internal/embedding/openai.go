package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when the mode is openai and no model is
// configured explicitly.
const DefaultOpenAIModel = "text-embedding-3-small"

// DefaultOpenAIDims matches the native output size of DefaultOpenAIModel.
const DefaultOpenAIDims = 1536

// OpenAIBackend encodes text through the OpenAI embeddings API.
type OpenAIBackend struct {
	cfg    Config
	client *openai.Client
}

// NewOpenAIBackend creates the backend without touching the network; the
// client is built in Open so a missing key surfaces as not-ready rather than
// a construction failure.
func NewOpenAIBackend(cfg Config) *OpenAIBackend {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	return &OpenAIBackend{cfg: cfg}
}

func (o *OpenAIBackend) Open(ctx context.Context) error {
	if o.cfg.APIKey == "" {
		return ErrMissingAPIKey
	}
	clientCfg := openai.DefaultConfig(o.cfg.APIKey)
	if o.cfg.BaseURL != "" {
		clientCfg.BaseURL = o.cfg.BaseURL
	}
	o.client = openai.NewClientWithConfig(clientCfg)
	return nil
}

func (o *OpenAIBackend) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if o.client == nil {
		return nil, ErrNotReady
	}
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(o.cfg.Model),
	}
	if o.cfg.Dims > 0 {
		req.Dimensions = o.cfg.Dims
	}

	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrEncodeMismatch, len(texts), len(resp.Data))
	}

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		copy(vec, d.Embedding)
		vecs[i] = vec
	}
	return vecs, nil
}

func (o *OpenAIBackend) Dims() int {
	return o.cfg.Dims
}

func (o *OpenAIBackend) Close() error {
	return nil
}

// Info implements the optional diagnostics capability.
func (o *OpenAIBackend) Info() map[string]any {
	return map[string]any{
		"backend": ModeOpenAI,
		"model":   o.cfg.Model,
		"dims":    o.cfg.Dims,
	}
}
