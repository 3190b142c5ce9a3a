package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabia-ai/sabia/rag"
)

func newSearchKB(t *testing.T) *rag.KnowledgeBase {
	t.Helper()
	return rag.NewKnowledgeBase(rag.NewHashEmbedder(32), rag.MustChunker(1000, 200, nil))
}

func TestSearchTool_FormatsHits(t *testing.T) {
	kb := newSearchKB(t)
	ctx := context.Background()

	require.NoError(t, kb.AddDocuments(ctx,
		[]string{"conteúdo sobre faturamento", "conteúdo sobre cadastro"},
		[]rag.Metadata{{"source": "manual.pdf"}, {"source": "wiki"}},
	))

	tool := NewSearchTool(kb, 2, nil)
	got := tool.Search(ctx, "faturamento")

	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[0], "Fonte 1 ("))
	assert.True(t, strings.HasPrefix(parts[1], "Fonte 2 ("))
	assert.Contains(t, got, "manual.pdf")
	assert.Contains(t, got, "wiki")
}

func TestSearchTool_UnknownSource(t *testing.T) {
	kb := newSearchKB(t)
	ctx := context.Background()

	require.NoError(t, kb.AddDocuments(ctx, []string{"sem origem"}, []rag.Metadata{{}}))

	tool := NewSearchTool(kb, 1, nil)
	got := tool.Search(ctx, "origem")

	assert.Contains(t, got, "Fonte 1 (Desconhecido):")
}

func TestSearchTool_NoResults(t *testing.T) {
	tool := NewSearchTool(newSearchKB(t), 3, nil)

	got := tool.Search(context.Background(), "qualquer coisa")
	assert.Equal(t, "Nenhuma informação relevante encontrada na base de conhecimento.", got)
}

func TestSearchTool_ErrorBecomesMessage(t *testing.T) {
	// index has content but the embedder fails at query time
	kb := rag.NewKnowledgeBase(queryBrokenEmbedder{inner: rag.NewHashEmbedder(16)}, rag.MustChunker(1000, 200, nil))
	require.NoError(t, kb.AddDocuments(context.Background(), []string{"conteúdo"}, nil))

	tool := NewSearchTool(kb, 3, nil)
	got := tool.Search(context.Background(), "consulta")

	assert.True(t, strings.HasPrefix(got, "Erro ao buscar na base de conhecimento: "))
}

type queryBrokenEmbedder struct {
	inner rag.Embedder
}

func (e queryBrokenEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	return e.inner.EmbedDocuments(ctx, texts)
}
func (queryBrokenEmbedder) EmbedQuery(context.Context, string) ([]float64, error) {
	return nil, assert.AnError
}
func (e queryBrokenEmbedder) Dimensions() int { return e.inner.Dimensions() }
func (queryBrokenEmbedder) Name() string      { return "query-broken" }
