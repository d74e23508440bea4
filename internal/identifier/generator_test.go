package identifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func neverExists(context.Context, string) (bool, error) {
	return false, nil
}

func TestGenerateMatchesRule(t *testing.T) {
	g := NewGenerator()
	ctx := context.Background()

	t.Run("account number", func(t *testing.T) {
		id, err := g.Generate(ctx, AccountNumber, neverExists)
		require.NoError(t, err)
		assert.Len(t, id, 8)
		assert.True(t, AccountNumber.Matches(id), "id %q does not match rule", id)
	})

	t.Run("transaction id", func(t *testing.T) {
		id, err := g.Generate(ctx, TransactionID, neverExists)
		require.NoError(t, err)
		assert.Len(t, id, 12)
		assert.True(t, TransactionID.Matches(id), "id %q does not match rule", id)
	})
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	g := NewGenerator()

	calls := 0
	exists := func(context.Context, string) (bool, error) {
		calls++
		return calls <= 3, nil
	}

	id, err := g.Generate(context.Background(), TransactionID, exists)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.True(t, TransactionID.Matches(id))
}

func TestGenerateExhaustsRetryCap(t *testing.T) {
	g := NewGenerator()

	calls := 0
	alwaysTaken := func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := g.Generate(context.Background(), AccountNumber, alwaysTaken)
	require.ErrorIs(t, err, ErrSpaceExhausted)
	assert.Equal(t, defaultMaxAttempts, calls)
}

func TestGeneratePropagatesExistenceCheckError(t *testing.T) {
	g := NewGenerator()
	storeErr := errors.New("connection reset")

	_, err := g.Generate(context.Background(), AccountNumber, func(context.Context, string) (bool, error) {
		return false, storeErr
	})
	require.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrSpaceExhausted)
}

func TestRuleMatches(t *testing.T) {
	tests := []struct {
		id   string
		rule Rule
		want bool
	}{
		{"13123456", AccountNumber, true},
		{"1312345", AccountNumber, false},
		{"131234567", AccountNumber, false},
		{"1412len5", AccountNumber, false},
		{"13abcdef", AccountNumber, false},
		{"txabc123def0", TransactionID, true},
		{"tyabc123def0", TransactionID, false},
		{"txABC123DEF0", TransactionID, false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.rule.Matches(tc.id), "id %q", tc.id)
	}
}
