package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const CurrencyGBP Currency = "GBP"

func (c Currency) IsValid() bool {
	return c == CurrencyGBP
}

type AccountClassification string

const ClassificationPersonalCurrent AccountClassification = "personal_current"

func (c AccountClassification) IsValid() bool {
	return c == ClassificationPersonalCurrent
}

// MaxBalance is the balance ceiling enforced on every mutation, not just at
// construction.
var MaxBalance = decimal.NewFromInt(10_000)

type Account struct {
	ID             uuid.UUID
	AccountNumber  string
	Name           string
	Classification AccountClassification
	Balance        decimal.Decimal
	Currency       Currency
	UserID         uuid.UUID
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Deposit and Withdraw are the only balance mutations. Neither performs
// ownership checks; callers authorize before mutating.

func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("Deposit: %w", ErrInvalidAmount)
	}
	next := a.Balance.Add(amount)
	if next.GreaterThan(MaxBalance) {
		return fmt.Errorf("Deposit: %w", ErrBalanceLimitExceeded)
	}
	a.Balance = next
	return nil
}

func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("Withdraw: %w", ErrInvalidAmount)
	}
	if amount.GreaterThan(a.Balance) {
		return fmt.Errorf("Withdraw: %w", &InsufficientFundsError{Balance: a.Balance})
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

func (a *Account) HasSufficientFunds(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(a.Balance)
}
