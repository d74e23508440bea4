// Package identifier generates collision-free, pattern-constrained IDs for
// accounts and transactions. Candidates are random; the caller supplies an
// existence check against durable storage and persists the entity itself.
package identifier

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	digits       = "0123456789"
	alphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Rule describes an ID format: a fixed prefix followed by SuffixLen
// characters drawn from Alphabet.
type Rule struct {
	Prefix    string
	SuffixLen int
	Alphabet  string
}

var (
	// AccountNumber: two-char scheme prefix plus six digits, 8 chars total.
	AccountNumber = Rule{Prefix: "13", SuffixLen: 6, Alphabet: digits}
	// TransactionID: "tx" plus ten lowercase alphanumerics.
	TransactionID = Rule{Prefix: "tx", SuffixLen: 10, Alphabet: alphanumeric}
)

func (r Rule) Matches(id string) bool {
	if len(id) != len(r.Prefix)+r.SuffixLen || id[:len(r.Prefix)] != r.Prefix {
		return false
	}
	for _, c := range id[len(r.Prefix):] {
		found := false
		for _, a := range r.Alphabet {
			if c == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ExistsFunc reports whether an ID is already taken.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// ErrSpaceExhausted means the retry cap was hit. At the configured space
// sizes this signals storage trouble or namespace exhaustion, not a
// user-attributable failure.
var ErrSpaceExhausted = errors.New("identifier space exhausted")

const defaultMaxAttempts = 50

type Generator struct {
	maxAttempts int
}

func NewGenerator() *Generator {
	return &Generator{maxAttempts: defaultMaxAttempts}
}

// Generate returns a fresh ID matching rule that exists reports as free,
// retrying on collision up to the attempt cap.
func (g *Generator) Generate(ctx context.Context, rule Rule, exists ExistsFunc) (string, error) {
	for range g.maxAttempts {
		id, err := candidate(rule)
		if err != nil {
			return "", fmt.Errorf("Generate: %w", err)
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("Generate: existence check: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("Generate: %s ids: %w", rule.Prefix, ErrSpaceExhausted)
}

func candidate(rule Rule) (string, error) {
	suffix := make([]byte, rule.SuffixLen)
	max := big.NewInt(int64(len(rule.Alphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("candidate: %w", err)
		}
		suffix[i] = rule.Alphabet[n.Int64()]
	}
	return rule.Prefix + string(suffix), nil
}
