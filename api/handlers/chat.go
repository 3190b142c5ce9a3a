package handlers

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/agent"
	"github.com/sabia-ai/sabia/api"
	"github.com/sabia-ai/sabia/internal/store"
	"github.com/sabia-ai/sabia/types"
)

// conversation titles derive from the first message, truncated
const maxTitleRunes = 80

// ChatHandler answers chat messages through the conversation agent and
// persists both sides of the exchange.
type ChatHandler struct {
	agent         *agent.ConversationAgent
	conversations *store.ConversationRepository
	messages      *store.MessageRepository
	logger        *zap.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(agent *agent.ConversationAgent, conversations *store.ConversationRepository, messages *store.MessageRepository, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		agent:         agent,
		conversations: conversations,
		messages:      messages,
		logger:        logger,
	}
}

// HandleChat handles POST /api/v1/chat. A zero conversation_id starts a new
// conversation owned by the caller; otherwise ownership is verified before
// any message is stored.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := AuthenticatedUser(w, r, h.logger)
	if !ok {
		return
	}

	var req api.ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "message is required"), h.logger)
		return
	}

	conv, err := h.resolveConversation(req.ConversationID, userID, req.Message)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	// history is loaded before the new user message is stored
	history, err := h.loadHistory(conv.ID)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	if err := h.messages.Create(&store.Message{
		ConversationID: conv.ID,
		Role:           string(types.RoleUser),
		Content:        req.Message,
		Status:         store.StatusActive,
	}); err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	reply, err := h.agent.Chat(r.Context(), req.Message, history)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	now := time.Now()
	if err := h.messages.Create(&store.Message{
		ConversationID: conv.ID,
		Role:           string(types.RoleAssistant),
		Content:        reply,
		Status:         store.StatusActive,
	}); err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	if err := h.conversations.TouchLastMessage(conv.ID, now); err != nil {
		h.logger.Warn("failed to touch conversation", zap.Uint("conversation_id", conv.ID), zap.Error(err))
	}

	h.logger.Info("chat turn completed",
		zap.Uint("conversation_id", conv.ID),
		zap.Uint("user_id", userID),
		zap.Int("history", len(history)),
	)

	WriteSuccess(w, api.ChatResponse{ConversationID: conv.ID, Reply: reply})
}

func (h *ChatHandler) resolveConversation(id, userID uint, message string) (*store.Conversation, error) {
	if id != 0 {
		return h.conversations.GetOwned(id, userID)
	}

	conv := &store.Conversation{
		Title:  titleFromMessage(message),
		UserID: userID,
		Status: store.StatusActive,
	}
	if err := h.conversations.Create(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (h *ChatHandler) loadHistory(conversationID uint) ([]types.Message, error) {
	stored, err := h.messages.ListByConversation(conversationID)
	if err != nil {
		return nil, err
	}
	history := make([]types.Message, len(stored))
	for i, m := range stored {
		history[i] = types.Message{
			Role:      types.Role(m.Role),
			Content:   m.Content,
			Timestamp: m.CreatedAt,
		}
	}
	return history, nil
}

func titleFromMessage(message string) string {
	if utf8.RuneCountInString(message) <= maxTitleRunes {
		return message
	}
	runes := []rune(message)
	return string(runes[:maxTitleRunes]) + "…"
}
