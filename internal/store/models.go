package store

import "time"

// Conversation and message statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusDeleted  = "deleted"

	// document-only status: content ingested into the knowledge base
	StatusProcessed = "processed"
)

// User is an account that can authenticate and own conversations.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	DisplayName  string `gorm:"size:255" json:"display_name"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Active       bool   `gorm:"default:true" json:"active"`

	Roles         []Role         `gorm:"many2many:user_roles" json:"roles,omitempty"`
	Conversations []Conversation `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role groups permissions and is assigned to users.
type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`

	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Permission is a named capability checked by the API layer.
type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Description string `gorm:"size:255" json:"description"`
}

// Transaction records a financial operation performed by a user.
type Transaction struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	UserID    uint    `gorm:"index;not null" json:"user_id"`
	Operation string  `gorm:"size:100;not null" json:"operation"`
	Amount    float64 `gorm:"not null" json:"amount"`

	User User `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a chat thread owned by a user.
type Conversation struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	UserID      uint   `gorm:"index;not null" json:"user_id"`
	Status      string `gorm:"size:20;default:active;index" json:"status"`

	StartedAt     time.Time  `gorm:"autoCreateTime" json:"started_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`

	User     User      `json:"-"`
	Messages []Message `gorm:"constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// Message is one turn in a conversation. Role is user, assistant or system.
type Message struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	ConversationID uint   `gorm:"index;not null" json:"conversation_id"`
	Role           string `gorm:"size:20;not null" json:"role"`
	Content        string `gorm:"type:text;not null" json:"content"`
	Metadata       string `gorm:"type:text" json:"metadata,omitempty"`
	Status         string `gorm:"size:20;default:active" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

// Document is an uploaded knowledge-base source. ContentHash is the SHA-256
// of the content and deduplicates uploads.
type Document struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Filename    string `gorm:"size:255" json:"filename,omitempty"`
	Content     string `gorm:"type:text;not null" json:"-"`
	ContentType string `gorm:"size:100" json:"content_type,omitempty"`
	Metadata    string `gorm:"type:text" json:"metadata,omitempty"`
	Status      string `gorm:"size:20;default:active;index" json:"status"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentHash string `gorm:"size:64;uniqueIndex" json:"content_hash"`

	UploadedAt  time.Time  `gorm:"autoCreateTime" json:"uploaded_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}
