package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrAccountNotFound      = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrTransactionNotFound  = &AppError{http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found"}
	ErrAccessDenied         = &AppError{http.StatusForbidden, "ACCESS_DENIED", "You do not own this account"}
	ErrInsufficientFunds    = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrInvalidAmount        = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount is invalid"}
	ErrAmountNotPositive    = &AppError{http.StatusUnprocessableEntity, "AMOUNT_MUST_BE_POSITIVE", "Amount must be greater than zero"}
	ErrBalanceLimitExceeded = &AppError{http.StatusUnprocessableEntity, "BALANCE_LIMIT_EXCEEDED", "Deposit would exceed the balance limit"}
	ErrAccountHasBalance    = &AppError{http.StatusUnprocessableEntity, "CANNOT_DELETE_WITH_BALANCE", "Account balance must be zero before deletion"}
	ErrInvalidCurrency      = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrVersionConflict      = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Account was modified concurrently, please retry"}
	ErrEmailTaken           = &AppError{http.StatusConflict, "EMAIL_ALREADY_REGISTERED", "Email already registered"}
)
