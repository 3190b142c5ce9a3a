package sabia

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabia-ai/sabia/llm"
	"github.com/sabia-ai/sabia/types"
)

type fixedProvider struct{ reply string }

func (p *fixedProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: p.reply}, nil
}

func (p *fixedProvider) Name() string { return "fixed" }

func TestNew_RequiresProvider(t *testing.T) {
	_, err := New()
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

func TestNew_ChatWithKnowledge(t *testing.T) {
	a, err := New(WithProvider(&fixedProvider{reply: "olá"}))
	require.NoError(t, err)

	require.NoError(t, a.AddKnowledge(t.Context(), "O céu é azul durante o dia.", nil))
	stats := a.KnowledgeStats()
	assert.Equal(t, 1, stats["chunk_count"])

	reply, err := a.Chat(t.Context(), "De que cor é o céu?", nil)
	require.NoError(t, err)
	assert.Equal(t, "olá", reply)
}

func TestNew_InvalidChunking(t *testing.T) {
	_, err := New(WithProvider(&fixedProvider{}), WithChunking(100, 100))
	assert.Error(t, err)
}
