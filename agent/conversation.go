package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/llm"
	"github.com/sabia-ai/sabia/rag"
	"github.com/sabia-ai/sabia/types"
)

// contextTokenBudget bounds the knowledge-base context attached to each
// message, leaving room in the prompt for the conversation itself.
const contextTokenBudget = 1500

const systemPrompt = `Você é um assistente conversacional inteligente com acesso a uma base de conhecimento.
Use as informações fornecidas no contexto quando forem relevantes para a pergunta.
Sempre cite as fontes quando usar informações da base de conhecimento.
Se não tiver informações suficientes, seja honesto sobre as limitações.
Mantenha um tom conversacional e amigável.`

// ContextCache memoizes assembled knowledge-base context between chat
// requests. Get errors are treated as misses; Set is best effort.
type ContextCache interface {
	Get(ctx context.Context, query string, maxTokens int) (string, error)
	Set(ctx context.Context, query string, maxTokens int, value string) error
}

// Option configures a ConversationAgent.
type Option func(*ConversationAgent)

// WithContextCache enables context memoization.
func WithContextCache(cache ContextCache) Option {
	return func(a *ConversationAgent) { a.cache = cache }
}

// ConversationAgent answers chat messages, enriching each one with relevant
// context retrieved from the knowledge base before calling the model.
type ConversationAgent struct {
	kb       *rag.KnowledgeBase
	provider llm.Provider
	cache    ContextCache
	logger   *zap.Logger
}

// NewConversationAgent creates an agent over the given knowledge base and
// model provider.
func NewConversationAgent(kb *rag.KnowledgeBase, provider llm.Provider, logger *zap.Logger, opts ...Option) *ConversationAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &ConversationAgent{kb: kb, provider: provider, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Chat answers a user message. history carries the prior conversation turns
// in order; it may be empty. Knowledge-base context is retrieved for the
// message and injected into the system prompt when non-empty.
func (a *ConversationAgent) Chat(ctx context.Context, message string, history []types.Message) (string, error) {
	ragContext := a.relevantContext(ctx, message)

	system := systemPrompt
	if ragContext != "" {
		system += "\n\nInformações da base de conhecimento:\n" + ragContext
	}

	messages := make([]types.Message, 0, len(history)+2)
	messages = append(messages, types.NewSystemMessage(system))
	messages = append(messages, history...)
	messages = append(messages, types.NewUserMessage(message))

	resp, err := a.provider.Completion(ctx, &llm.ChatRequest{Messages: messages})
	if err != nil {
		return "", err
	}

	a.logger.Debug("chat completed",
		zap.Int("history", len(history)),
		zap.Bool("rag_context", ragContext != ""),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return strings.TrimSpace(resp.Content), nil
}

// relevantContext retrieves knowledge-base context for the message, going
// through the cache when one is configured. Retrieval failure degrades to a
// context-free answer.
func (a *ConversationAgent) relevantContext(ctx context.Context, message string) string {
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, message, contextTokenBudget); err == nil {
			a.logger.Debug("context cache hit")
			return cached
		}
	}

	ragContext, err := a.kb.RelevantContext(ctx, message, contextTokenBudget)
	if err != nil {
		a.logger.Warn("failed to retrieve knowledge base context", zap.Error(err))
		return ""
	}

	if a.cache != nil && ragContext != "" {
		if err := a.cache.Set(ctx, message, contextTokenBudget, ragContext); err != nil {
			a.logger.Debug("context cache store failed", zap.Error(err))
		}
	}
	return ragContext
}

// AddKnowledge ingests a single text into the knowledge base.
func (a *ConversationAgent) AddKnowledge(ctx context.Context, text string, metadata rag.Metadata) error {
	return a.kb.AddDocumentFromText(ctx, text, metadata)
}

// AddKnowledgeBatch ingests a batch of texts into the knowledge base.
func (a *ConversationAgent) AddKnowledgeBatch(ctx context.Context, texts []string, metadatas []rag.Metadata) error {
	return a.kb.AddDocuments(ctx, texts, metadatas)
}

// ClearKnowledge empties the knowledge base.
func (a *ConversationAgent) ClearKnowledge() {
	a.kb.Clear()
}

// KnowledgeStats reports the size of the knowledge base.
func (a *ConversationAgent) KnowledgeStats() map[string]any {
	return map[string]any{
		"chunk_count":    a.kb.ChunkCount(),
		"document_count": a.kb.DocumentCount(),
	}
}

// SearchKnowledge searches the knowledge base directly.
func (a *ConversationAgent) SearchKnowledge(ctx context.Context, query string, k int) ([]rag.Chunk, error) {
	return a.kb.SimilaritySearch(ctx, query, k)
}
