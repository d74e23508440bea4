package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrAccountNotFound         = errors.New("account not found")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrAccessDenied            = errors.New("caller does not own this account")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrAmountMustBePositive    = errors.New("transaction amount must be positive")
	ErrBalanceLimitExceeded    = errors.New("deposit would exceed the balance limit")
	ErrCannotDeleteWithBalance = errors.New("account balance must be zero before deletion")
	ErrInvalidCurrency         = errors.New("invalid currency")
	ErrVersionConflict         = errors.New("account was modified concurrently")
	ErrEmailTaken              = errors.New("email already registered")
	ErrInvalidRequest          = errors.New("invalid request")
)

// InsufficientFundsError carries the balance at the time of refusal so
// callers can report it. errors.Is(err, ErrInsufficientFunds) still matches.
type InsufficientFundsError struct {
	Balance decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s", e.Balance.StringFixed(2))
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
