package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/api"
	"github.com/sabia-ai/sabia/internal/store"
)

// ConversationHandler lists, shows and soft-deletes chat threads. Every
// operation is scoped to the authenticated owner.
type ConversationHandler struct {
	conversations *store.ConversationRepository
	messages      *store.MessageRepository
	logger        *zap.Logger
}

// NewConversationHandler creates the conversation handler.
func NewConversationHandler(conversations *store.ConversationRepository, messages *store.MessageRepository, logger *zap.Logger) *ConversationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationHandler{conversations: conversations, messages: messages, logger: logger}
}

// HandleList handles GET /api/v1/conversations.
func (h *ConversationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := AuthenticatedUser(w, r, h.logger)
	if !ok {
		return
	}

	limit, offset := Pagination(r)
	convs, total, err := h.conversations.ListByUser(userID, limit, offset)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	WriteSuccess(w, api.PagedResponse{Items: convs, Total: total, Limit: limit, Offset: offset})
}

// HandleGet handles GET /api/v1/conversations/{id}, returning the thread
// with its messages.
func (h *ConversationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := AuthenticatedUser(w, r, h.logger)
	if !ok {
		return
	}

	id, err := PathID(r)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	conv, err := h.conversations.GetOwned(id, userID)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	msgs, err := h.messages.ListByConversation(conv.ID)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	conv.Messages = msgs

	WriteSuccess(w, conv)
}

// HandleDelete handles DELETE /api/v1/conversations/{id}. Rows are kept;
// the conversation is marked deleted.
func (h *ConversationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := AuthenticatedUser(w, r, h.logger)
	if !ok {
		return
	}

	id, err := PathID(r)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	if err := h.conversations.SoftDelete(id, userID); err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	h.logger.Info("conversation deleted", zap.Uint("conversation_id", id), zap.Uint("user_id", userID))
	WriteSuccess(w, map[string]any{"deleted": true})
}
