package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojwalters/bankledger/internal/domain"
	"github.com/ojwalters/bankledger/internal/identifier"
	"github.com/ojwalters/bankledger/internal/repository"
	"github.com/ojwalters/bankledger/internal/service"
	"github.com/ojwalters/bankledger/internal/testutil"
)

func setupLedgerService(t *testing.T, db *sql.DB) *service.LedgerService {
	t.Helper()
	return service.NewLedgerService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		identifier.NewGenerator(),
		db,
	)
}

func gbp(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func depositIntent(amount string) service.TransactionIntent {
	return service.TransactionIntent{
		Amount:   decimal.RequireFromString(amount),
		Currency: domain.CurrencyGBP,
		Type:     domain.TransactionTypeDeposit,
	}
}

func withdrawalIntent(amount string) service.TransactionIntent {
	return service.TransactionIntent{
		Amount:   decimal.RequireFromString(amount),
		Currency: domain.CurrencyGBP,
		Type:     domain.TransactionTypeWithdrawal,
	}
}

func TestCreateTransaction_Deposit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	acct := testutil.SeedAccount(t, db, owner.ID, "13000001", "0.00")

	ref := "Test deposit"
	intent := depositIntent("100.00")
	intent.Reference = &ref

	txn, err := svc.CreateTransaction(ctx, acct.AccountNumber, intent, owner.ID)
	require.NoError(t, err)

	assert.True(t, identifier.TransactionID.Matches(txn.ID), "id %q", txn.ID)
	assert.Equal(t, acct.ID, txn.AccountID)
	assert.Equal(t, owner.ID, txn.UserID)
	assert.Equal(t, domain.TransactionTypeDeposit, txn.Type)
	require.NotNil(t, txn.Reference)
	assert.Equal(t, "Test deposit", *txn.Reference)

	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).Equal(gbp(t, "100.00")))
	assert.Equal(t, 1, testutil.CountTransactions(t, db, acct.ID))
}

func TestCreateTransaction_WithdrawExactBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	acct := testutil.SeedAccount(t, db, owner.ID, "13000002", "1000.00")

	_, err := svc.CreateTransaction(ctx, acct.AccountNumber, withdrawalIntent("1000.00"), owner.ID)
	require.NoError(t, err)

	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).IsZero())
}

func TestCreateTransaction_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	acct := testutil.SeedAccount(t, db, owner.ID, "13000003", "1000.00")

	_, err := svc.CreateTransaction(ctx, acct.AccountNumber, withdrawalIntent("1500.00"), owner.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	var insufficient *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Balance.Equal(gbp(t, "1000.00")))

	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).Equal(gbp(t, "1000.00")))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, acct.ID))
}

func TestCreateTransaction_BalanceLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	acct := testutil.SeedAccount(t, db, owner.ID, "13000004", "9500.00")

	// Exactly to the ceiling succeeds.
	_, err := svc.CreateTransaction(ctx, acct.AccountNumber, depositIntent("500.00"), owner.ID)
	require.NoError(t, err)
	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).Equal(gbp(t, "10000.00")))

	// One penny over fails and changes nothing.
	_, err = svc.CreateTransaction(ctx, acct.AccountNumber, depositIntent("0.01"), owner.ID)
	require.ErrorIs(t, err, domain.ErrBalanceLimitExceeded)
	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).Equal(gbp(t, "10000.00")))
	assert.Equal(t, 1, testutil.CountTransactions(t, db, acct.ID))
}

func TestCreateTransaction_AccessDenied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	stranger := testutil.SeedUser(t, db, "stranger@bank.test", "Stranger")
	acct := testutil.SeedAccount(t, db, owner.ID, "13000005", "1000.00")

	_, err := svc.CreateTransaction(ctx, acct.AccountNumber, depositIntent("10.00"), stranger.ID)
	require.ErrorIs(t, err, domain.ErrAccessDenied)

	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).Equal(gbp(t, "1000.00")))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, acct.ID))
}

func TestCreateTransaction_UnknownAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")

	_, err := svc.CreateTransaction(context.Background(), "13999999", depositIntent("10.00"), owner.ID)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

// Two concurrent withdrawals that are jointly unaffordable must not both
// pass the funds check against the same stale balance.
func TestCreateTransaction_ConcurrentWithdrawals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	acct := testutil.SeedAccount(t, db, owner.ID, "13000006", "1000.00")

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateTransaction(ctx, acct.AccountNumber, withdrawalIntent("600.00"), owner.ID)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
			failures++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)

	final := testutil.AccountBalance(t, db, acct.AccountNumber)
	assert.True(t, final.Equal(gbp(t, "400.00")), "final balance %s", final)
	assert.False(t, final.IsNegative())
	assert.Equal(t, 1, testutil.CountTransactions(t, db, acct.ID))
}

func TestListTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	stranger := testutil.SeedUser(t, db, "stranger@bank.test", "Stranger")
	acct := testutil.SeedAccount(t, db, owner.ID, "13000007", "0.00")

	for _, amount := range []string{"10.00", "20.00", "30.00"} {
		_, err := svc.CreateTransaction(ctx, acct.AccountNumber, depositIntent(amount), owner.ID)
		require.NoError(t, err)
	}

	transactions, err := svc.ListTransactions(ctx, acct.AccountNumber, owner.ID)
	require.NoError(t, err)
	assert.Len(t, transactions, 3)

	_, err = svc.ListTransactions(ctx, acct.AccountNumber, stranger.ID)
	require.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestGetTransaction_ScopedToAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	acctA := testutil.SeedAccount(t, db, owner.ID, "13000008", "0.00")
	acctB := testutil.SeedAccount(t, db, owner.ID, "13000009", "0.00")

	txn, err := svc.CreateTransaction(ctx, acctA.AccountNumber, depositIntent("10.00"), owner.ID)
	require.NoError(t, err)

	got, err := svc.GetTransaction(ctx, acctA.AccountNumber, txn.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)

	// The same ID through another account must read as absent, identical to
	// a nonexistent ID.
	_, err = svc.GetTransaction(ctx, acctB.AccountNumber, txn.ID, owner.ID)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)

	_, err = svc.GetTransaction(ctx, acctA.AccountNumber, "txdoesnotexi", owner.ID)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestDeleteTransaction_ReversesEffect(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	acct := testutil.SeedAccount(t, db, owner.ID, "13000010", "250.00")

	ref := "Test deposit"
	intent := depositIntent("100.00")
	intent.Reference = &ref

	txn, err := svc.CreateTransaction(ctx, acct.AccountNumber, intent, owner.ID)
	require.NoError(t, err)
	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).Equal(gbp(t, "350.00")))

	require.NoError(t, svc.DeleteTransaction(ctx, acct.AccountNumber, txn.ID, owner.ID))

	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).Equal(gbp(t, "250.00")))
	_, err = svc.GetTransaction(ctx, acct.AccountNumber, txn.ID, owner.ID)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestDeleteTransaction_ReversesWithdrawal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	acct := testutil.SeedAccount(t, db, owner.ID, "13000011", "500.00")

	txn, err := svc.CreateTransaction(ctx, acct.AccountNumber, withdrawalIntent("199.99"), owner.ID)
	require.NoError(t, err)
	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).Equal(gbp(t, "300.01")))

	require.NoError(t, svc.DeleteTransaction(ctx, acct.AccountNumber, txn.ID, owner.ID))
	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).Equal(gbp(t, "500.00")))
}

func TestDeleteTransaction_OwnershipAndScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@bank.test", "Owner")
	stranger := testutil.SeedUser(t, db, "stranger@bank.test", "Stranger")
	acct := testutil.SeedAccount(t, db, owner.ID, "13000012", "0.00")

	txn, err := svc.CreateTransaction(ctx, acct.AccountNumber, depositIntent("10.00"), owner.ID)
	require.NoError(t, err)

	err = svc.DeleteTransaction(ctx, acct.AccountNumber, txn.ID, stranger.ID)
	require.ErrorIs(t, err, domain.ErrAccessDenied)

	// Still there, still applied.
	assert.True(t, testutil.AccountBalance(t, db, acct.AccountNumber).Equal(gbp(t, "10.00")))
	assert.Equal(t, 1, testutil.CountTransactions(t, db, acct.ID))
}
