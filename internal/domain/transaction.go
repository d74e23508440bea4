package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

// Transaction records one balance-affecting event against a single account.
// UserID is copied from the account owner at creation time, never taken from
// the caller.
type Transaction struct {
	ID        string
	AccountID uuid.UUID
	Amount    decimal.Decimal
	Currency  Currency
	Type      TransactionType
	Reference *string
	UserID    uuid.UUID
	CreatedAt time.Time
}

// Process applies the transaction's effect to acct exactly once. A
// non-positive amount is rejected here so the error is attributable to the
// transaction, even when schema validation admits 0.00.
func (t *Transaction) Process(acct *Account) error {
	if !t.Amount.IsPositive() {
		return fmt.Errorf("Process: %w", ErrAmountMustBePositive)
	}
	switch t.Type {
	case TransactionTypeDeposit:
		if err := acct.Deposit(t.Amount); err != nil {
			return fmt.Errorf("Process: %w", err)
		}
	case TransactionTypeWithdrawal:
		if err := acct.Withdraw(t.Amount); err != nil {
			return fmt.Errorf("Process: %w", err)
		}
	default:
		return fmt.Errorf("Process: unknown transaction type %q", t.Type)
	}
	return nil
}

// Reverse undoes a previously applied transaction by applying its exact
// monetary inverse to acct.
func (t *Transaction) Reverse(acct *Account) error {
	if !t.Amount.IsPositive() {
		return fmt.Errorf("Reverse: %w", ErrAmountMustBePositive)
	}
	switch t.Type {
	case TransactionTypeDeposit:
		if err := acct.Withdraw(t.Amount); err != nil {
			return fmt.Errorf("Reverse: %w", err)
		}
	case TransactionTypeWithdrawal:
		if err := acct.Deposit(t.Amount); err != nil {
			return fmt.Errorf("Reverse: %w", err)
		}
	default:
		return fmt.Errorf("Reverse: unknown transaction type %q", t.Type)
	}
	return nil
}
