// Package sabia provides a top-level convenience entry point for creating a
// conversational agent backed by a knowledge base, with minimal boilerplate.
//
// Usage:
//
//	import "github.com/sabia-ai/sabia"
//
//	a, err := sabia.New(sabia.WithOpenAI("gpt-4o-mini"))
//	a, err := sabia.New(sabia.WithProvider(myProvider))
//
// Without a configured embedding backend the knowledge base uses the
// deterministic hash embedder, so retrieval works offline out of the box.
package sabia

import (
	"os"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/agent"
	"github.com/sabia-ai/sabia/llm"
	"github.com/sabia-ai/sabia/rag"
	"github.com/sabia-ai/sabia/types"
)

type options struct {
	provider     llm.Provider
	embedder     rag.Embedder
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

// Option configures the agent created by [New].
type Option func(*options)

// WithProvider sets a pre-built chat completion provider.
func WithProvider(provider llm.Provider) Option {
	return func(o *options) { o.provider = provider }
}

// WithOpenAI creates an OpenAI-compatible provider for the given model. The
// API key is read from OPENAI_API_KEY.
func WithOpenAI(model string) Option {
	return func(o *options) {
		o.provider = llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  model,
		})
	}
}

// WithEmbedder overrides the knowledge-base embedder.
func WithEmbedder(embedder rag.Embedder) Option {
	return func(o *options) { o.embedder = embedder }
}

// WithChunking overrides the document chunking parameters.
func WithChunking(size, overlap int) Option {
	return func(o *options) {
		o.chunkSize = size
		o.chunkOverlap = overlap
	}
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a [agent.ConversationAgent] over a fresh knowledge base.
// A provider must be set via [WithOpenAI] or [WithProvider].
func New(opts ...Option) (*agent.ConversationAgent, error) {
	o := options{
		chunkSize:    rag.DefaultChunkSize,
		chunkOverlap: rag.DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.provider == nil {
		return nil, types.NewError(types.ErrInvalidInput, "a chat provider is required")
	}
	if o.embedder == nil {
		o.embedder = rag.NewHashEmbedder(rag.DefaultDimensions)
	}

	chunker, err := rag.NewChunker(o.chunkSize, o.chunkOverlap, o.logger)
	if err != nil {
		return nil, err
	}

	kb := rag.NewKnowledgeBase(o.embedder, chunker, rag.WithLogger(o.logger))
	return agent.NewConversationAgent(kb, o.provider, o.logger), nil
}
