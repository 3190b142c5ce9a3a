package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sabia-ai/sabia/api"
	"github.com/sabia-ai/sabia/config"
	"github.com/sabia-ai/sabia/internal/store"
)

const testSecret = "test-secret"

func newAuthHandler(t *testing.T) (*AuthHandler, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	users := store.NewUserRepository(db)
	h := NewAuthHandler(users, config.AuthConfig{Secret: testSecret, Issuer: "sabia", TokenTTL: time.Hour}, nil)
	return h, db
}

func TestAuthHandler_Login(t *testing.T) {
	h, db := newAuthHandler(t)
	admin := store.Role{Name: "admin"}
	user := createTestUser(t, db, "alice", "s3cret", admin)

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{
		Username: "alice",
		Password: "s3cret",
	}, 0))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data := dataAsMap(t, resp)
	tokenStr, _ := data["token"].(string)
	require.NotEmpty(t, tokenStr)

	token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer("sabia"))
	require.NoError(t, err)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(user.ID), claims["user_id"])
	assert.Equal(t, "alice", claims["username"])
	assert.Equal(t, []any{"admin"}, claims["roles"])
}

func TestAuthHandler_WrongPassword(t *testing.T) {
	h, db := newAuthHandler(t)
	createTestUser(t, db, "bob", "right")

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{
		Username: "bob",
		Password: "wrong",
	}, 0))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_UnknownUser(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{
		Username: "nobody",
		Password: "whatever",
	}, 0))

	// same response as a wrong password
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AUTHENTICATION", resp.Error.Code)
}

func TestAuthHandler_DisabledAccount(t *testing.T) {
	h, db := newAuthHandler(t)
	u := createTestUser(t, db, "carol", "pw")
	require.NoError(t, db.Model(u).Update("active", false).Error)

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{
		Username: "carol",
		Password: "pw",
	}, 0))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthHandler_MissingFields(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{Username: " "}, 0))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
