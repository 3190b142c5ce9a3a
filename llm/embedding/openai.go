package embedding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sabia-ai/sabia/types"
)

// OpenAIConfig configures an OpenAI-compatible embedding backend.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// OpenAIProvider calls an OpenAI-compatible /v1/embeddings endpoint.
type OpenAIProvider struct {
	*BaseProvider
	cfg OpenAIConfig
}

// NewOpenAIProvider creates a provider with defaults filled in.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 384
	}

	return &OpenAIProvider{
		BaseProvider: NewBaseProvider(BaseConfig{
			Name:       "openai-embedding",
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			MaxBatch:   2048,
			Timeout:    cfg.Timeout,
		}),
		cfg: cfg,
	}
}

type openAIEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
}

func (p *OpenAIProvider) embed(ctx context.Context, input []string) ([][]float64, error) {
	body := openAIEmbedRequest{
		Input:      input,
		Model:      p.cfg.Model,
		Dimensions: p.cfg.Dimensions,
	}

	respBody, err := p.DoRequest(ctx, "POST", "/v1/embeddings", body, map[string]string{
		"Authorization": "Bearer " + p.cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}

	var oaResp openAIEmbedResponse
	if err := json.Unmarshal(respBody, &oaResp); err != nil {
		return nil, err
	}
	if len(oaResp.Data) != len(input) {
		return nil, types.NewError(types.ErrUpstreamError, "embedding count does not match input count").
			WithProvider(p.Name())
	}

	// responses may arrive out of order; Index is authoritative
	vectors := make([][]float64, len(input))
	for _, d := range oaResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, types.NewError(types.ErrUpstreamError, "embedding index out of range").
				WithProvider(p.Name())
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// EmbedDocuments embeds a batch of texts for indexing, splitting the input
// into backend-sized batches when needed.
func (p *OpenAIProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += p.MaxBatchSize() {
		end := start + p.MaxBatchSize()
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// EmbedQuery embeds a single query text.
func (p *OpenAIProvider) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vectors, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
