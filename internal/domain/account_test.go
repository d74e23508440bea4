package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gbp(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func accountWithBalance(balance string) *Account {
	return &Account{Balance: gbp(balance), Currency: CurrencyGBP}
}

func TestAccountDeposit(t *testing.T) {
	tests := []struct {
		name        string
		balance     string
		amount      string
		wantErr     error
		wantBalance string
	}{
		{name: "simple deposit", balance: "100.00", amount: "50.25", wantBalance: "150.25"},
		{name: "deposit to exact ceiling", balance: "9000.00", amount: "1000.00", wantBalance: "10000.00"},
		{name: "deposit past ceiling", balance: "9000.00", amount: "1000.01", wantErr: ErrBalanceLimitExceeded, wantBalance: "9000.00"},
		{name: "zero amount", balance: "100.00", amount: "0.00", wantErr: ErrInvalidAmount, wantBalance: "100.00"},
		{name: "negative amount", balance: "100.00", amount: "-5.00", wantErr: ErrInvalidAmount, wantBalance: "100.00"},
		{name: "smallest unit", balance: "0.00", amount: "0.01", wantBalance: "0.01"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			acct := accountWithBalance(tc.balance)
			err := acct.Deposit(gbp(tc.amount))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, acct.Balance.Equal(gbp(tc.wantBalance)),
				"balance = %s, want %s", acct.Balance, tc.wantBalance)
		})
	}
}

func TestAccountWithdraw(t *testing.T) {
	tests := []struct {
		name        string
		balance     string
		amount      string
		wantErr     error
		wantBalance string
	}{
		{name: "simple withdrawal", balance: "100.00", amount: "40.00", wantBalance: "60.00"},
		{name: "withdraw exact balance", balance: "1000.00", amount: "1000.00", wantBalance: "0.00"},
		{name: "overdraw", balance: "1000.00", amount: "1500.00", wantErr: ErrInsufficientFunds, wantBalance: "1000.00"},
		{name: "overdraw by one penny", balance: "10.00", amount: "10.01", wantErr: ErrInsufficientFunds, wantBalance: "10.00"},
		{name: "zero amount", balance: "100.00", amount: "0.00", wantErr: ErrInvalidAmount, wantBalance: "100.00"},
		{name: "negative amount", balance: "100.00", amount: "-1.00", wantErr: ErrInvalidAmount, wantBalance: "100.00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			acct := accountWithBalance(tc.balance)
			err := acct.Withdraw(gbp(tc.amount))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, acct.Balance.Equal(gbp(tc.wantBalance)),
				"balance = %s, want %s", acct.Balance, tc.wantBalance)
		})
	}
}

func TestAccountWithdraw_ReportsBalance(t *testing.T) {
	acct := accountWithBalance("12.34")
	err := acct.Withdraw(gbp("50.00"))

	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Balance.Equal(gbp("12.34")))
}

func TestAccountDepositWithdrawRoundTrip(t *testing.T) {
	acct := accountWithBalance("123.45")

	require.NoError(t, acct.Deposit(gbp("876.55")))
	require.NoError(t, acct.Withdraw(gbp("876.55")))

	assert.True(t, acct.Balance.Equal(gbp("123.45")),
		"round trip drifted: %s", acct.Balance)
}

func TestHasSufficientFunds(t *testing.T) {
	acct := accountWithBalance("500.00")

	assert.True(t, acct.HasSufficientFunds(gbp("499.99")))
	assert.True(t, acct.HasSufficientFunds(gbp("500.00")))
	assert.False(t, acct.HasSufficientFunds(gbp("500.01")))
}
