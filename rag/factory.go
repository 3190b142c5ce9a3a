package rag

import (
	"context"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/config"
)

// SelectEmbedder probes candidate with a single query embedding and returns
// it when the backend answers; otherwise it returns the deterministic hash
// fallback. A nil candidate selects the fallback directly. The choice is made
// once, here, so the knowledge base never switches strategies mid-flight.
func SelectEmbedder(ctx context.Context, candidate Embedder, dims int, logger *zap.Logger) Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if candidate == nil {
		logger.Info("no embedding backend configured, using hash fallback",
			zap.Int("dimensions", dims))
		return NewHashEmbedder(dims)
	}

	if _, err := candidate.EmbedQuery(ctx, "ping"); err != nil {
		logger.Warn("embedding backend unavailable, using hash fallback",
			zap.String("backend", candidate.Name()),
			zap.Error(err))
		return NewHashEmbedder(dims)
	}

	logger.Info("embedding backend selected",
		zap.String("backend", candidate.Name()),
		zap.Int("dimensions", candidate.Dimensions()))
	return candidate
}

// NewKnowledgeBaseFromConfig builds a knowledge base from configuration:
// chunker from chunk size/overlap, embedder via SelectEmbedder, and an
// optional index snapshot restored from cfg.IndexPath.
func NewKnowledgeBaseFromConfig(ctx context.Context, cfg config.RAGConfig, candidate Embedder, logger *zap.Logger) (*KnowledgeBase, error) {
	chunker, err := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, logger)
	if err != nil {
		return nil, err
	}

	embedder := SelectEmbedder(ctx, candidate, cfg.Dimensions, logger)

	kb := NewKnowledgeBase(embedder, chunker, WithLogger(logger))

	if cfg.IndexPath != "" {
		if err := kb.LoadIndex(cfg.IndexPath); err != nil {
			return nil, err
		}
	}

	return kb, nil
}
