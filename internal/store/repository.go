package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sabia-ai/sabia/types"
)

// UserRepository persists users and resolves their roles and permissions.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user.
func (r *UserRepository) Create(user *User) error {
	return r.db.Create(user).Error
}

// GetByUsername loads a user with roles and permissions preloaded.
func (r *UserRepository) GetByUsername(username string) (*User, error) {
	var user User
	err := r.db.Preload("Roles.Permissions").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID loads a user with roles and permissions preloaded.
func (r *UserRepository) GetByID(id uint) (*User, error) {
	var user User
	err := r.db.Preload("Roles.Permissions").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// HasPermission reports whether the user holds the permission code through
// any of their roles.
func (r *UserRepository) HasPermission(userID uint, code string) (bool, error) {
	var count int64
	err := r.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ? AND permissions.code = ?", userID, code).
		Count(&count).Error
	return count > 0, err
}

// RoleNames returns the role names of a user.
func RoleNames(user *User) []string {
	names := make([]string, len(user.Roles))
	for i, role := range user.Roles {
		names[i] = role.Name
	}
	return names
}

// ConversationRepository persists chat threads.
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a conversation repository.
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a conversation.
func (r *ConversationRepository) Create(conv *Conversation) error {
	return r.db.Create(conv).Error
}

// GetOwned loads a non-deleted conversation and verifies ownership.
func (r *ConversationRepository) GetOwned(id, userID uint) (*Conversation, error) {
	var conv Conversation
	err := r.db.Where("id = ? AND status <> ?", id, StatusDeleted).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrNotFound, "conversation not found")
	}
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, types.NewError(types.ErrForbidden, "conversation belongs to another user")
	}
	return &conv, nil
}

// ListByUser returns the user's non-deleted conversations, most recent
// first, with offset pagination.
func (r *ConversationRepository) ListByUser(userID uint, limit, offset int) ([]Conversation, int64, error) {
	q := r.db.Model(&Conversation{}).
		Where("user_id = ? AND status <> ?", userID, StatusDeleted)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var convs []Conversation
	err := q.Order("started_at DESC").Limit(limit).Offset(offset).Find(&convs).Error
	return convs, total, err
}

// SoftDelete marks a conversation deleted without removing rows.
func (r *ConversationRepository) SoftDelete(id, userID uint) error {
	res := r.db.Model(&Conversation{}).
		Where("id = ? AND user_id = ? AND status <> ?", id, userID, StatusDeleted).
		Update("status", StatusDeleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.NewError(types.ErrNotFound, "conversation not found")
	}
	return nil
}

// TouchLastMessage bumps the conversation's last-message timestamp.
func (r *ConversationRepository) TouchLastMessage(id uint, at time.Time) error {
	return r.db.Model(&Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}

// MessageRepository persists conversation turns.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a message repository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message.
func (r *MessageRepository) Create(msg *Message) error {
	return r.db.Create(msg).Error
}

// ListByConversation returns a conversation's active messages in
// chronological order.
func (r *MessageRepository) ListByConversation(conversationID uint) ([]Message, error) {
	var msgs []Message
	err := r.db.Where("conversation_id = ? AND status = ?", conversationID, StatusActive).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// DocumentRepository persists uploaded knowledge-base sources.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a document repository.
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document.
func (r *DocumentRepository) Create(doc *Document) error {
	return r.db.Create(doc).Error
}

// GetByHash finds a document by its SHA-256 content hash. Used for upload
// deduplication.
func (r *DocumentRepository) GetByHash(hash string) (*Document, error) {
	var doc Document
	err := r.db.Where("content_hash = ?", hash).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrNotFound, "document not found")
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarkProcessed flags a document as ingested into the knowledge base.
func (r *DocumentRepository) MarkProcessed(id uint, at time.Time) error {
	return r.db.Model(&Document{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": StatusProcessed, "processed_at": at}).Error
}

// List returns documents with offset pagination, optionally filtered by
// status, newest first.
func (r *DocumentRepository) List(status string, limit, offset int) ([]Document, int64, error) {
	q := r.db.Model(&Document{})
	if status != "" {
		q = q.Where("status = ?", status)
	} else {
		q = q.Where("status <> ?", StatusDeleted)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []Document
	err := q.Order("uploaded_at DESC").Limit(limit).Offset(offset).Find(&docs).Error
	return docs, total, err
}

// TransactionRepository persists financial operations.
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository.
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction.
func (r *TransactionRepository) Create(tx *Transaction) error {
	return r.db.Create(tx).Error
}

// ListByUser returns a user's transactions, newest first.
func (r *TransactionRepository) ListByUser(userID uint, limit, offset int) ([]Transaction, int64, error) {
	q := r.db.Model(&Transaction{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []Transaction
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&txs).Error
	return txs, total, err
}
