package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabia-ai/sabia/config"
)

func TestSelectEmbedder_NilCandidate(t *testing.T) {
	e := SelectEmbedder(context.Background(), nil, 64, nil)

	hash, ok := e.(*HashEmbedder)
	require.True(t, ok)
	assert.Equal(t, 64, hash.Dimensions())
}

func TestSelectEmbedder_UnreachableBackendFallsBack(t *testing.T) {
	e := SelectEmbedder(context.Background(), failingEmbedder{}, 32, nil)

	_, ok := e.(*HashEmbedder)
	assert.True(t, ok)
	assert.Equal(t, 32, e.Dimensions())
}

func TestSelectEmbedder_HealthyBackendKept(t *testing.T) {
	candidate := NewHashEmbedder(16)
	e := SelectEmbedder(context.Background(), candidate, 384, nil)

	assert.Same(t, candidate, e)
}

func TestNewKnowledgeBaseFromConfig(t *testing.T) {
	cfg := config.DefaultRAGConfig()

	kb, err := NewKnowledgeBaseFromConfig(context.Background(), cfg, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 384, kb.Embedder().Dimensions())
	assert.Equal(t, 0, kb.ChunkCount())
}

func TestNewKnowledgeBaseFromConfig_InvalidChunking(t *testing.T) {
	cfg := config.DefaultRAGConfig()
	cfg.ChunkOverlap = cfg.ChunkSize

	_, err := NewKnowledgeBaseFromConfig(context.Background(), cfg, nil, nil)
	assert.Error(t, err)
}

func TestNewKnowledgeBaseFromConfig_RestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/index.gob"

	seed, err := NewKnowledgeBaseFromConfig(ctx, config.DefaultRAGConfig(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, seed.AddDocumentFromText(ctx, "snapshotted content", nil))
	require.NoError(t, seed.SaveIndex(path))

	cfg := config.DefaultRAGConfig()
	cfg.IndexPath = path
	restored, err := NewKnowledgeBaseFromConfig(ctx, cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.ChunkCount())
}
