package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/api"
	"github.com/sabia-ai/sabia/internal/cache"
	"github.com/sabia-ai/sabia/internal/metrics"
	"github.com/sabia-ai/sabia/internal/store"
	"github.com/sabia-ai/sabia/rag"
	"github.com/sabia-ai/sabia/types"
)

// PermissionManageKnowledge guards destructive knowledge-base operations.
const PermissionManageKnowledge = "knowledge:manage"

// KnowledgeHandler exposes the knowledge base for inspection and
// administration: direct search, stats and clearing.
type KnowledgeHandler struct {
	kb           *rag.KnowledgeBase
	users        *store.UserRepository
	contextCache *cache.ContextCache
	collector    *metrics.Collector
	logger       *zap.Logger
}

// NewKnowledgeHandler creates the knowledge handler. contextCache and
// collector may be nil.
func NewKnowledgeHandler(kb *rag.KnowledgeBase, users *store.UserRepository, contextCache *cache.ContextCache, collector *metrics.Collector, logger *zap.Logger) *KnowledgeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeHandler{
		kb:           kb,
		users:        users,
		contextCache: contextCache,
		collector:    collector,
		logger:       logger,
	}
}

// HandleSearch handles POST /api/v1/knowledge/search, returning scored hits.
func (h *KnowledgeHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if _, ok := AuthenticatedUser(w, r, h.logger); !ok {
		return
	}

	var req api.KnowledgeSearchRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "query is required"), h.logger)
		return
	}
	if req.K <= 0 {
		req.K = rag.DefaultSearchK
	}

	start := time.Now()
	hits, err := h.kb.SimilaritySearchWithScore(r.Context(), req.Query, req.K)
	if err != nil {
		h.recordSearch("error", start)
		WriteAnyError(w, err, h.logger)
		return
	}

	if len(hits) == 0 {
		h.recordSearch("empty", start)
	} else {
		h.recordSearch("ok", start)
	}

	WriteSuccess(w, map[string]any{"hits": hits, "count": len(hits)})
}

// HandleStats handles GET /api/v1/knowledge/stats.
func (h *KnowledgeHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := AuthenticatedUser(w, r, h.logger); !ok {
		return
	}

	WriteSuccess(w, map[string]any{
		"chunk_count":    h.kb.ChunkCount(),
		"document_count": h.kb.DocumentCount(),
		"embedder":       h.kb.Embedder().Name(),
	})
}

// HandleClear handles DELETE /api/v1/knowledge. Requires the
// knowledge:manage permission; the context cache is invalidated so stale
// context cannot be served afterwards.
func (h *KnowledgeHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	userID, ok := AuthenticatedUser(w, r, h.logger)
	if !ok {
		return
	}

	allowed, err := h.users.HasPermission(userID, PermissionManageKnowledge)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	if !allowed {
		WriteError(w, types.NewError(types.ErrForbidden, "knowledge management permission required"), h.logger)
		return
	}

	h.kb.Clear()
	if err := h.contextCache.Invalidate(r.Context()); err != nil {
		h.logger.Warn("failed to invalidate context cache", zap.Error(err))
	}

	h.logger.Info("knowledge base cleared", zap.Uint("user_id", userID))
	WriteSuccess(w, map[string]any{"cleared": true})
}

func (h *KnowledgeHandler) recordSearch(status string, start time.Time) {
	if h.collector != nil {
		h.collector.RecordSearch(status, time.Since(start))
	}
}
