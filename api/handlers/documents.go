package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/api"
	"github.com/sabia-ai/sabia/internal/metrics"
	"github.com/sabia-ai/sabia/internal/store"
	"github.com/sabia-ai/sabia/rag"
	"github.com/sabia-ai/sabia/types"
)

// DocumentHandler stores uploaded documents and ingests their content into
// the knowledge base. Uploads are deduplicated by content hash.
type DocumentHandler struct {
	documents *store.DocumentRepository
	kb        *rag.KnowledgeBase
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewDocumentHandler creates the document handler. collector may be nil.
func NewDocumentHandler(documents *store.DocumentRepository, kb *rag.KnowledgeBase, collector *metrics.Collector, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{documents: documents, kb: kb, collector: collector, logger: logger}
}

// HandleUpload handles POST /api/v1/documents. A repeated upload of the same
// content returns the existing record without re-ingesting.
func (h *DocumentHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := AuthenticatedUser(w, r, h.logger); !ok {
		return
	}

	var req api.DocumentUploadRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "title is required"), h.logger)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "content is required"), h.logger)
		return
	}

	hash := contentHash(req.Content)
	if existing, err := h.documents.GetByHash(hash); err == nil {
		h.logger.Info("duplicate document upload",
			zap.Uint("document_id", existing.ID),
			zap.String("content_hash", hash))
		WriteSuccess(w, api.DocumentUploadResponse{Document: existing, Duplicate: true})
		return
	} else if types.GetErrorCode(err) != types.ErrNotFound {
		WriteAnyError(w, err, h.logger)
		return
	}

	doc := &store.Document{
		Title:       req.Title,
		Filename:    req.Filename,
		Content:     req.Content,
		ContentType: req.ContentType,
		Metadata:    encodeMetadata(req.Metadata),
		Status:      store.StatusActive,
		SizeBytes:   int64(len(req.Content)),
		ContentHash: hash,
	}
	if err := h.documents.Create(doc); err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	before := h.kb.ChunkCount()
	start := time.Now()
	metadata := rag.Metadata{
		"doc_id": doc.ID,
		"title":  doc.Title,
		"source": fmt.Sprintf("document_%d", doc.ID),
	}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if err := h.kb.AddDocumentFromText(r.Context(), req.Content, metadata); err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	chunks := h.kb.ChunkCount() - before
	if h.collector != nil {
		h.collector.RecordIngest(1, chunks, time.Since(start))
	}

	if err := h.documents.MarkProcessed(doc.ID, time.Now()); err != nil {
		h.logger.Warn("failed to mark document processed", zap.Uint("document_id", doc.ID), zap.Error(err))
	} else {
		doc.Status = store.StatusProcessed
	}

	h.logger.Info("document ingested",
		zap.Uint("document_id", doc.ID),
		zap.String("title", doc.Title),
		zap.Int("chunks", chunks),
	)

	WriteStatus(w, http.StatusCreated, api.DocumentUploadResponse{Document: doc, Duplicate: false})
}

// HandleList handles GET /api/v1/documents with pagination and an optional
// status filter.
func (h *DocumentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := AuthenticatedUser(w, r, h.logger); !ok {
		return
	}

	limit, offset := Pagination(r)
	docs, total, err := h.documents.List(r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	WriteSuccess(w, api.PagedResponse{Items: docs, Total: total, Limit: limit, Offset: offset})
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func encodeMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(raw)
}
