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

type accountRepo interface {
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	Create(ctx context.Context, account *domain.Account) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, name string, classification domain.AccountClassification) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type userChecker interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type AccountDetails struct {
	Name           string
	Classification domain.AccountClassification
}

// AccountPatch carries a partial update; nil fields are left untouched.
// Balance is never part of a patch.
type AccountPatch struct {
	Name           *string
	Classification *domain.AccountClassification
}

type AccountService struct {
	accounts accountRepo
	users    userChecker
	ids      idGenerator
	db       *sql.DB
}

func NewAccountService(accounts accountRepo, users userChecker, ids idGenerator, db *sql.DB) *AccountService {
	return &AccountService{
		accounts: accounts,
		users:    users,
		ids:      ids,
		db:       db,
	}
}

func (s *AccountService) OpenAccount(ctx context.Context, userID uuid.UUID, details AccountDetails) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}

	if !details.Classification.IsValid() {
		return nil, fmt.Errorf("OpenAccount: %w", domain.ErrInvalidRequest)
	}

	number, err := s.ids.Generate(ctx, identifier.AccountNumber, s.accounts.ExistsByNumber)
	if err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:             uuid.New(),
		AccountNumber:  number,
		Name:           details.Name,
		Classification: details.Classification,
		Balance:        decimal.Zero,
		Currency:       domain.CurrencyGBP,
		UserID:         userID,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}

	log.Info("account opened",
		"account_number", account.AccountNumber,
		"user_id", userID,
	)

	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountNumber string, callerUserID uuid.UUID) (*domain.Account, error) {
	acct, err := s.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	if acct.UserID != callerUserID {
		return nil, fmt.Errorf("GetAccount: %w", domain.ErrAccessDenied)
	}
	return acct, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	accounts, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountService) UpdateAccount(ctx context.Context, accountNumber string, patch AccountPatch, callerUserID uuid.UUID) (*domain.Account, error) {
	acct, err := s.GetAccount(ctx, accountNumber, callerUserID)
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}

	if patch.Name != nil {
		acct.Name = *patch.Name
	}
	if patch.Classification != nil {
		if !patch.Classification.IsValid() {
			return nil, fmt.Errorf("UpdateAccount: %w", domain.ErrInvalidRequest)
		}
		acct.Classification = *patch.Classification
	}

	if err := s.accounts.UpdateDetails(ctx, acct.ID, acct.Name, acct.Classification); err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}
	return acct, nil
}

// CloseAccount deletes the account, and with it its transaction history.
// The zero-balance check runs on the locked row so a deposit racing the
// close cannot slip through.
func (s *AccountService) CloseAccount(ctx context.Context, accountNumber string, callerUserID uuid.UUID) error {
	log := logging.FromContext(ctx)

	acct, err := s.GetAccount(ctx, accountNumber, callerUserID)
	if err != nil {
		return fmt.Errorf("CloseAccount: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("CloseAccount: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.accounts.GetForUpdate(ctx, tx, acct.ID)
	if err != nil {
		return fmt.Errorf("CloseAccount: %w", err)
	}

	if locked.Balance.IsPositive() {
		return fmt.Errorf("CloseAccount: %w", domain.ErrCannotDeleteWithBalance)
	}

	if err := s.accounts.Delete(ctx, tx, locked.ID); err != nil {
		return fmt.Errorf("CloseAccount: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("CloseAccount: commit: %w", err)
	}

	log.Info("account closed", "account_number", accountNumber)
	return nil
}
