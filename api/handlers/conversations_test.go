package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sabia-ai/sabia/internal/store"
)

func newConversationHandler(t *testing.T) (*ConversationHandler, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	h := NewConversationHandler(store.NewConversationRepository(db), store.NewMessageRepository(db), nil)
	return h, db
}

func seedConversation(t *testing.T, db *gorm.DB, userID uint, title string) *store.Conversation {
	t.Helper()
	conv := &store.Conversation{Title: title, UserID: userID, Status: store.StatusActive}
	require.NoError(t, db.Create(conv).Error)
	return conv
}

func TestConversationHandler_List(t *testing.T) {
	h, db := newConversationHandler(t)
	user := createTestUser(t, db, "alice", "pw")
	other := createTestUser(t, db, "bob", "pw")

	for i := 0; i < 3; i++ {
		seedConversation(t, db, user.ID, fmt.Sprintf("conv %d", i))
	}
	seedConversation(t, db, other.ID, "not mine")

	rec := httptest.NewRecorder()
	h.HandleList(rec, jsonRequest(t, http.MethodGet, "/api/v1/conversations?limit=2", nil, user.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, float64(3), data["total"])
	assert.Len(t, data["items"], 2)
}

func TestConversationHandler_GetWithMessages(t *testing.T) {
	h, db := newConversationHandler(t)
	user := createTestUser(t, db, "alice", "pw")
	conv := seedConversation(t, db, user.ID, "minha conversa")

	msgs := store.NewMessageRepository(db)
	require.NoError(t, msgs.Create(&store.Message{ConversationID: conv.ID, Role: "user", Content: "oi", Status: store.StatusActive}))
	require.NoError(t, msgs.Create(&store.Message{ConversationID: conv.ID, Role: "assistant", Content: "olá", Status: store.StatusActive}))

	req := jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d", conv.ID), nil, user.ID)
	req.SetPathValue("id", fmt.Sprint(conv.ID))
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, "minha conversa", data["title"])
	assert.Len(t, data["messages"], 2)
}

func TestConversationHandler_GetForeign(t *testing.T) {
	h, db := newConversationHandler(t)
	owner := createTestUser(t, db, "alice", "pw")
	intruder := createTestUser(t, db, "mallory", "pw")
	conv := seedConversation(t, db, owner.ID, "privada")

	req := jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d", conv.ID), nil, intruder.ID)
	req.SetPathValue("id", fmt.Sprint(conv.ID))
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestConversationHandler_Delete(t *testing.T) {
	h, db := newConversationHandler(t)
	user := createTestUser(t, db, "alice", "pw")
	conv := seedConversation(t, db, user.ID, "para apagar")

	req := jsonRequest(t, http.MethodDelete, fmt.Sprintf("/api/v1/conversations/%d", conv.ID), nil, user.ID)
	req.SetPathValue("id", fmt.Sprint(conv.ID))
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// deleted conversations disappear from reads but rows remain
	getReq := jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d", conv.ID), nil, user.ID)
	getReq.SetPathValue("id", fmt.Sprint(conv.ID))
	getRec := httptest.NewRecorder()
	h.HandleGet(getRec, getReq)
	assert.Equal(t, http.StatusNotFound, getRec.Code)

	var stored store.Conversation
	require.NoError(t, db.First(&stored, conv.ID).Error)
	assert.Equal(t, store.StatusDeleted, stored.Status)
}

func TestConversationHandler_DeleteMissing(t *testing.T) {
	h, db := newConversationHandler(t)
	user := createTestUser(t, db, "alice", "pw")

	req := jsonRequest(t, http.MethodDelete, "/api/v1/conversations/999", nil, user.ID)
	req.SetPathValue("id", "999")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationHandler_InvalidID(t *testing.T) {
	h, db := newConversationHandler(t)
	user := createTestUser(t, db, "alice", "pw")

	req := jsonRequest(t, http.MethodGet, "/api/v1/conversations/abc", nil, user.ID)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
