package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sabia-ai/sabia/api"
	"github.com/sabia-ai/sabia/config"
	"github.com/sabia-ai/sabia/internal/store"
	"github.com/sabia-ai/sabia/types"
)

const defaultTokenTTL = 24 * time.Hour

// AuthHandler verifies credentials and issues HS256 bearer tokens.
type AuthHandler struct {
	users  *store.UserRepository
	cfg    config.AuthConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(users *store.UserRepository, cfg config.AuthConfig, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{users: users, cfg: cfg, logger: logger, now: time.Now}
}

// HandleLogin handles POST /api/v1/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "username and password are required"), h.logger)
		return
	}

	user, err := h.users.GetByUsername(req.Username)
	if err != nil {
		// an unknown username reads the same as a wrong password
		h.logger.Debug("login lookup failed", zap.String("username", req.Username), zap.Error(err))
		WriteError(w, invalidCredentials(), h.logger)
		return
	}
	if !user.Active {
		WriteError(w, types.NewError(types.ErrForbidden, "account is disabled"), h.logger)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		WriteError(w, invalidCredentials(), h.logger)
		return
	}

	roles := store.RoleNames(user)
	token, expiresAt, err := h.issueToken(user, roles)
	if err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "failed to issue token").WithCause(err), h.logger)
		return
	}

	h.logger.Info("user logged in", zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	WriteSuccess(w, api.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: api.UserInfo{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			Roles:       roles,
		},
	})
}

// HashPassword produces the bcrypt hash stored on a user record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *AuthHandler) issueToken(user *store.User, roles []string) (string, time.Time, error) {
	ttl := h.cfg.TokenTTL
	if ttl == 0 {
		ttl = defaultTokenTTL
	}

	now := h.now()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"roles":    roles,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
	}
	if h.cfg.Issuer != "" {
		claims["iss"] = h.cfg.Issuer
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func invalidCredentials() *types.Error {
	return types.NewError(types.ErrAuthentication, "invalid username or password")
}
