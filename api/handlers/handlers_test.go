package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sabia-ai/sabia/config"
	"github.com/sabia-ai/sabia/internal/store"
	"github.com/sabia-ai/sabia/rag"
	"github.com/sabia-ai/sabia/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username, password string, roles ...store.Role) *store.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	user := &store.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Active:       true,
		Roles:        roles,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newTestKB(t *testing.T) *rag.KnowledgeBase {
	t.Helper()
	return rag.NewKnowledgeBase(rag.NewHashEmbedder(32), rag.MustChunker(1000, 200, nil))
}

// jsonRequest builds a request with body marshalled as JSON and the user
// injected the way the auth middleware would.
func jsonRequest(t *testing.T, method, target string, body any, userID uint) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != 0 {
		req = req.WithContext(types.WithUserID(context.Background(), userID))
	}
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// dataAsMap re-decodes the envelope data field into a map.
func dataAsMap(t *testing.T, resp Response) map[string]any {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}
