package rag

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"
)

// DefaultDimensions is the vector length used when no embedding backend
// dictates one.
const DefaultDimensions = 384

// Embedder maps texts to fixed-length vectors. Implementations must return
// one vector per input text, all of length Dimensions().
type Embedder interface {
	// EmbedDocuments embeds a batch of texts for indexing.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)

	// EmbedQuery embeds a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float64, error)

	// Dimensions returns the vector length.
	Dimensions() int

	// Name identifies the backend for logs and errors.
	Name() string
}

// HashEmbedder is the deterministic fallback embedder: it seeds a
// pseudo-random generator with a content hash of the lowercased text and
// draws Dimensions() samples from a standard normal distribution. The same
// text always yields the same vector, across runs and processes. It never
// fails, at the cost of not reflecting semantic similarity; it keeps the
// system functional and testable without a live embedding backend.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder. dims <= 0 selects
// DefaultDimensions.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// EmbedDocuments embeds each text independently. Never returns an error.
func (e *HashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

// EmbedQuery embeds a single text. Never returns an error.
func (e *HashEmbedder) EmbedQuery(_ context.Context, text string) ([]float64, error) {
	return e.embed(text), nil
}

// Dimensions returns the vector length.
func (e *HashEmbedder) Dimensions() int { return e.dims }

// Name returns "hash".
func (e *HashEmbedder) Name() string { return "hash" }

func (e *HashEmbedder) embed(text string) []float64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(text)))
	seed := int64(h.Sum64() % (1 << 31))

	rng := rand.New(rand.NewSource(seed))
	vec := make([]float64, e.dims)
	for i := range vec {
		vec[i] = rng.NormFloat64()
	}
	return vec
}
