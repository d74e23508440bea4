package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ojwalters/bankledger/internal/domain"
	"github.com/ojwalters/bankledger/internal/identifier"
	"github.com/ojwalters/bankledger/internal/logging"
)

type ledgerAccountRepo interface {
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByIDForAccount(ctx context.Context, id string, accountID uuid.UUID) (*domain.Transaction, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id string, accountID uuid.UUID) (*domain.Transaction, error)
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, tx *sql.Tx, id string) error
}

type idGenerator interface {
	Generate(ctx context.Context, rule identifier.Rule, exists identifier.ExistsFunc) (string, error)
}

// TransactionIntent is a caller's request to move money on an account.
type TransactionIntent struct {
	Amount    decimal.Decimal
	Currency  domain.Currency
	Type      domain.TransactionType
	Reference *string
}

// LedgerService orchestrates ownership checks, ID generation, balance
// mutation and reversal. Every balance-affecting operation locks the account
// row for its whole read-validate-mutate-write sequence, so concurrent
// operations on one account serialize instead of clobbering each other.
type LedgerService struct {
	accounts     ledgerAccountRepo
	transactions transactionRepo
	ids          idGenerator
	db           *sql.DB
}

func NewLedgerService(accounts ledgerAccountRepo, transactions transactionRepo, ids idGenerator, db *sql.DB) *LedgerService {
	return &LedgerService{
		accounts:     accounts,
		transactions: transactions,
		ids:          ids,
		db:           db,
	}
}

func (s *LedgerService) CreateTransaction(ctx context.Context, accountNumber string, intent TransactionIntent, callerUserID uuid.UUID) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	acct, err := s.loadOwnedAccount(ctx, accountNumber, callerUserID)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	if err := validateIntent(intent); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	// Affordability is checked before ID generation so a doomed withdrawal
	// never burns an ID. The authoritative check runs again on the locked row.
	if intent.Type == domain.TransactionTypeWithdrawal && !acct.HasSufficientFunds(intent.Amount) {
		return nil, fmt.Errorf("CreateTransaction: %w", &domain.InsufficientFundsError{Balance: acct.Balance})
	}

	id, err := s.ids.Generate(ctx, identifier.TransactionID, s.transactions.ExistsByID)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.accounts.GetForUpdate(ctx, tx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	txn := &domain.Transaction{
		ID:        id,
		AccountID: locked.ID,
		Amount:    intent.Amount,
		Currency:  intent.Currency,
		Type:      intent.Type,
		Reference: intent.Reference,
		// Copied from the locked row, not from the caller, so the record can
		// never carry a spoofed owner.
		UserID:    locked.UserID,
		CreatedAt: time.Now().UTC(),
	}

	if err := txn.Process(locked); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}
	if err := s.accounts.UpdateBalance(ctx, tx, locked.ID, locked.Balance, locked.Version+1); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateTransaction: commit: %w", err)
	}

	log.Info("transaction created",
		"transaction_id", txn.ID,
		"account_number", accountNumber,
		"type", txn.Type,
		"amount", txn.Amount.StringFixed(2),
	)

	return txn, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, accountNumber string, callerUserID uuid.UUID) ([]domain.Transaction, error) {
	acct, err := s.loadOwnedAccount(ctx, accountNumber, callerUserID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	transactions, err := s.transactions.ListByAccountID(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return transactions, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, accountNumber, transactionID string, callerUserID uuid.UUID) (*domain.Transaction, error) {
	acct, err := s.loadOwnedAccount(ctx, accountNumber, callerUserID)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}

	txn, err := s.transactions.GetByIDForAccount(ctx, transactionID, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return txn, nil
}

// DeleteTransaction reverses the transaction's monetary effect and removes
// the record, both in one database transaction. Reversed records are not
// retained.
func (s *LedgerService) DeleteTransaction(ctx context.Context, accountNumber, transactionID string, callerUserID uuid.UUID) error {
	log := logging.FromContext(ctx)

	acct, err := s.loadOwnedAccount(ctx, accountNumber, callerUserID)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.accounts.GetForUpdate(ctx, tx, acct.ID)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	// Fetched under the account lock: a concurrent delete of the same
	// transaction commits first and this read then reports not-found.
	txn, err := s.transactions.GetForUpdate(ctx, tx, transactionID, locked.ID)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	if err := txn.Reverse(locked); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	if err := s.transactions.Delete(ctx, tx, txn.ID); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if err := s.accounts.UpdateBalance(ctx, tx, locked.ID, locked.Balance, locked.Version+1); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteTransaction: commit: %w", err)
	}

	log.Info("transaction reversed",
		"transaction_id", txn.ID,
		"account_number", accountNumber,
		"type", txn.Type,
		"amount", txn.Amount.StringFixed(2),
	)

	return nil
}

func (s *LedgerService) loadOwnedAccount(ctx context.Context, accountNumber string, callerUserID uuid.UUID) (*domain.Account, error) {
	acct, err := s.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("loadOwnedAccount: %w", err)
	}
	if acct.UserID != callerUserID {
		return nil, fmt.Errorf("loadOwnedAccount: %w", domain.ErrAccessDenied)
	}
	return acct, nil
}

func validateIntent(intent TransactionIntent) error {
	if !intent.Currency.IsValid() {
		return fmt.Errorf("validateIntent: %w", domain.ErrInvalidCurrency)
	}
	if !intent.Type.IsValid() {
		return fmt.Errorf("validateIntent: %w", domain.ErrInvalidRequest)
	}
	if !intent.Amount.IsPositive() {
		return fmt.Errorf("validateIntent: %w", domain.ErrAmountMustBePositive)
	}
	if intent.Amount.GreaterThan(domain.MaxBalance) {
		return fmt.Errorf("validateIntent: %w", domain.ErrInvalidAmount)
	}
	if intent.Amount.Exponent() < -2 {
		return fmt.Errorf("validateIntent: %w", domain.ErrInvalidAmount)
	}
	return nil
}
