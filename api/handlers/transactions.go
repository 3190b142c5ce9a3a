package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/api"
	"github.com/sabia-ai/sabia/internal/store"
	"github.com/sabia-ai/sabia/types"
)

// TransactionHandler records and lists financial operations per user.
type TransactionHandler struct {
	transactions *store.TransactionRepository
	logger       *zap.Logger
}

// NewTransactionHandler creates the transaction handler.
func NewTransactionHandler(transactions *store.TransactionRepository, logger *zap.Logger) *TransactionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionHandler{transactions: transactions, logger: logger}
}

// HandleCreate handles POST /api/v1/transactions.
func (h *TransactionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := AuthenticatedUser(w, r, h.logger)
	if !ok {
		return
	}

	var req api.TransactionRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	req.Operation = strings.TrimSpace(req.Operation)
	if req.Operation == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "operation is required"), h.logger)
		return
	}
	if req.Amount <= 0 {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "amount must be positive"), h.logger)
		return
	}

	tx := &store.Transaction{
		UserID:    userID,
		Operation: req.Operation,
		Amount:    req.Amount,
	}
	if err := h.transactions.Create(tx); err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	h.logger.Info("transaction recorded",
		zap.Uint("user_id", userID),
		zap.String("operation", tx.Operation),
		zap.Float64("amount", tx.Amount),
	)

	WriteStatus(w, http.StatusCreated, tx)
}

// HandleList handles GET /api/v1/transactions.
func (h *TransactionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := AuthenticatedUser(w, r, h.logger)
	if !ok {
		return
	}

	limit, offset := Pagination(r)
	txs, total, err := h.transactions.ListByUser(userID, limit, offset)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	WriteSuccess(w, api.PagedResponse{Items: txs, Total: total, Limit: limit, Offset: offset})
}
