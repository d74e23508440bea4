package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ojwalters/bankledger/internal/domain"
	"github.com/ojwalters/bankledger/internal/logging"
	"github.com/ojwalters/bankledger/internal/service"
)

type accountService interface {
	OpenAccount(ctx context.Context, userID uuid.UUID, details service.AccountDetails) (*domain.Account, error)
	GetAccount(ctx context.Context, accountNumber string, callerUserID uuid.UUID) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, accountNumber string, patch service.AccountPatch, callerUserID uuid.UUID) (*domain.Account, error)
	CloseAccount(ctx context.Context, accountNumber string, callerUserID uuid.UUID) error
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type openAccountRequest struct {
	Name           string `json:"name"`
	Classification string `json:"classification"`
}

func (r openAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	} else if len(r.Name) > 100 {
		errs = append(errs, FieldError{Field: "name", Message: "must be at most 100 characters"})
	}
	if r.Classification == "" {
		errs = append(errs, FieldError{Field: "classification", Message: "required"})
	} else if !domain.AccountClassification(r.Classification).IsValid() {
		errs = append(errs, FieldError{Field: "classification", Message: "must be personal_current"})
	}
	return errs
}

type updateAccountRequest struct {
	Name           *string `json:"name"`
	Classification *string `json:"classification"`
}

func (r updateAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == nil && r.Classification == nil {
		errs = append(errs, FieldError{Field: "name", Message: "at least one field must be provided"})
	}
	if r.Name != nil && (*r.Name == "" || len(*r.Name) > 100) {
		errs = append(errs, FieldError{Field: "name", Message: "must be 1-100 characters"})
	}
	if r.Classification != nil && !domain.AccountClassification(*r.Classification).IsValid() {
		errs = append(errs, FieldError{Field: "classification", Message: "must be personal_current"})
	}
	return errs
}

type accountDTO struct {
	AccountNumber  string    `json:"account_number"`
	Name           string    `json:"name"`
	Classification string    `json:"classification"`
	Balance        string    `json:"balance"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		AccountNumber:  a.AccountNumber,
		Name:           a.Name,
		Classification: string(a.Classification),
		Balance:        a.Balance.StringFixed(2),
		Currency:       string(a.Currency),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req openAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.OpenAccount(r.Context(), userID, service.AccountDetails{
		Name:           req.Name,
		Classification: domain.AccountClassification(req.Classification),
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to open account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), r.PathValue("number"), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	patch := service.AccountPatch{Name: req.Name}
	if req.Classification != nil {
		c := domain.AccountClassification(*req.Classification)
		patch.Classification = &c
	}

	account, err := h.accounts.UpdateAccount(r.Context(), r.PathValue("number"), patch, userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to update account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.accounts.CloseAccount(r.Context(), r.PathValue("number"), userID); err != nil {
		logging.FromContext(r.Context()).Error("failed to close account", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
