package api

import "time"

// LoginRequest is the credential payload for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// UserInfo is the public view of an account.
type UserInfo struct {
	ID          uint     `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// ChatRequest is the payload for POST /api/v1/chat. A zero ConversationID
// starts a new conversation.
type ChatRequest struct {
	ConversationID uint   `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	ConversationID uint   `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// DocumentUploadRequest is the payload for POST /api/v1/documents.
type DocumentUploadRequest struct {
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Filename    string         `json:"filename,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// DocumentUploadResponse reports the stored document. Duplicate is true when
// the content hash matched an earlier upload and nothing new was ingested.
type DocumentUploadResponse struct {
	Document  any  `json:"document"`
	Duplicate bool `json:"duplicate"`
}

// KnowledgeSearchRequest is the payload for POST /api/v1/knowledge/search.
// K defaults to the engine's search depth when zero.
type KnowledgeSearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// TransactionRequest is the payload for POST /api/v1/transactions.
type TransactionRequest struct {
	Operation string  `json:"operation"`
	Amount    float64 `json:"amount"`
}

// PagedResponse wraps offset-paginated collections.
type PagedResponse struct {
	Items  any   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
