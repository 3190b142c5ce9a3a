package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/rag"
)

const (
	searchToolName        = "rag_search"
	searchToolDescription = "Busca informações na base de conhecimento por similaridade semântica."

	noResultsMessage   = "Nenhuma informação relevante encontrada na base de conhecimento."
	searchErrorMessage = "Erro ao buscar na base de conhecimento: %s"
)

// SearchTool wraps similarity search as a tool the agent loop can call.
// Search never returns an error: failures become a user-visible message so
// the conversation can continue.
type SearchTool struct {
	kb     *rag.KnowledgeBase
	k      int
	logger *zap.Logger
}

// NewSearchTool creates a search tool over kb. k <= 0 selects the default
// search fan-out.
func NewSearchTool(kb *rag.KnowledgeBase, k int, logger *zap.Logger) *SearchTool {
	if k <= 0 {
		k = rag.DefaultSearchK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchTool{kb: kb, k: k, logger: logger}
}

// Name returns the tool identifier exposed to the model.
func (t *SearchTool) Name() string { return searchToolName }

// Description returns the tool description exposed to the model.
func (t *SearchTool) Description() string { return searchToolDescription }

// Search runs a similarity search and formats the hits for the model, one
// numbered source block per hit.
func (t *SearchTool) Search(ctx context.Context, query string) string {
	chunks, err := t.kb.SimilaritySearch(ctx, query, t.k)
	if err != nil {
		t.logger.Error("knowledge base search failed", zap.Error(err))
		return fmt.Sprintf(searchErrorMessage, err.Error())
	}

	if len(chunks) == 0 {
		return noResultsMessage
	}

	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		source := "Desconhecido"
		if s, ok := chunk.Metadata["source"].(string); ok && s != "" {
			source = s
		}
		parts[i] = fmt.Sprintf("Fonte %d (%s):\n%s", i+1, source, strings.TrimSpace(chunk.Content))
	}

	return strings.Join(parts, "\n\n")
}
