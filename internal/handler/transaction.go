package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ojwalters/bankledger/internal/domain"
	"github.com/ojwalters/bankledger/internal/logging"
	"github.com/ojwalters/bankledger/internal/service"
)

type ledgerService interface {
	CreateTransaction(ctx context.Context, accountNumber string, intent service.TransactionIntent, callerUserID uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, accountNumber string, callerUserID uuid.UUID) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, accountNumber, transactionID string, callerUserID uuid.UUID) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, accountNumber, transactionID string, callerUserID uuid.UUID) error
}

type TransactionHandler struct {
	ledger ledgerService
}

func NewTransactionHandler(ledger ledgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type createTransactionRequest struct {
	Amount    string  `json:"amount"`
	Currency  string  `json:"currency"`
	Type      string  `json:"type"`
	Reference *string `json:"reference"`
}

// Amounts travel as decimal strings so values like 99.99 survive the wire
// exactly. Schema bounds admit 0.00; the positivity rule is enforced at
// processing time with its own error code.
func (r createTransactionRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if amount, err := decimal.NewFromString(r.Amount); err != nil {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a decimal number"})
	} else {
		if amount.IsNegative() {
			errs = append(errs, FieldError{Field: "amount", Message: "must not be negative"})
		}
		if amount.GreaterThan(domain.MaxBalance) {
			errs = append(errs, FieldError{Field: "amount", Message: "must be at most 10000.00"})
		}
		if amount.Exponent() < -2 {
			errs = append(errs, FieldError{Field: "amount", Message: "must have at most 2 decimal places"})
		}
	}

	if r.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be GBP"})
	}

	if r.Type == "" {
		errs = append(errs, FieldError{Field: "type", Message: "required"})
	} else if !domain.TransactionType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be deposit or withdrawal"})
	}

	if r.Reference != nil && len(*r.Reference) > 255 {
		errs = append(errs, FieldError{Field: "reference", Message: "must be at most 255 characters"})
	}

	return errs
}

type transactionDTO struct {
	ID        string    `json:"id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Type      string    `json:"type"`
	Reference *string   `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:        t.ID,
		Amount:    t.Amount.StringFixed(2),
		Currency:  string(t.Currency),
		Type:      string(t.Type),
		Reference: t.Reference,
		CreatedAt: t.CreatedAt,
	}
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondAppError(w, ErrInvalidAmount, nil)
		return
	}

	txn, err := h.ledger.CreateTransaction(r.Context(), r.PathValue("number"), service.TransactionIntent{
		Amount:    amount,
		Currency:  domain.Currency(req.Currency),
		Type:      domain.TransactionType(req.Type),
		Reference: req.Reference,
	}, userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create transaction", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(txn))
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	transactions, err := h.ledger.ListTransactions(r.Context(), r.PathValue("number"), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list transactions", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(transactions))
	for i := range transactions {
		dtos[i] = toTransactionDTO(&transactions[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	txn, err := h.ledger.GetTransaction(r.Context(), r.PathValue("number"), r.PathValue("id"), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get transaction", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.ledger.DeleteTransaction(r.Context(), r.PathValue("number"), r.PathValue("id"), userID); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete transaction", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
