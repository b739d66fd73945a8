package onetime

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/solsticehq/core/internal/pkg/redis"
)

// Purpose namespaces tokens so a value issued for one flow can never be
// consumed by another.
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "password_reset"
	PurposeOAuthState    Purpose = "oauth_state"
)

// TTL returns the lifetime for a token purpose.
func TTL(p Purpose) time.Duration {
	switch p {
	case PurposeEmailVerify:
		return 24 * time.Hour
	case PurposePasswordReset:
		return time.Hour
	case PurposeOAuthState:
		return 10 * time.Minute
	default:
		return time.Hour
	}
}

// ErrTokenInvalid covers unknown, already-consumed and expired tokens alike.
var ErrTokenInvalid = errors.New("invalid or expired token")

// Store issues and consumes single-use tokens backed by Redis. Expiry is
// enforced by key TTL; consumption is an atomic GETDEL, so a token can be
// redeemed at most once even under concurrent requests.
type Store struct {
	rc *pkgredis.Client
}

func NewStore(rc *pkgredis.Client) *Store { return &Store{rc: rc} }

// Issue creates a fresh random token bound to value (typically an email
// address) for the given purpose.
func (s *Store) Issue(ctx context.Context, purpose Purpose, value string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	if err := s.rc.Set(ctx, key(purpose, token), value, TTL(purpose)); err != nil {
		return "", fmt.Errorf("issue %s token: %w", purpose, err)
	}
	return token, nil
}

// Consume redeems a token and returns the bound value. The token is deleted
// atomically; a second consume fails with ErrTokenInvalid.
func (s *Store) Consume(ctx context.Context, purpose Purpose, token string) (string, error) {
	if token == "" {
		return "", ErrTokenInvalid
	}
	value, err := s.rc.GetDel(ctx, key(purpose, token))
	if err != nil {
		return "", fmt.Errorf("consume %s token: %w", purpose, err)
	}
	if value == "" {
		return "", ErrTokenInvalid
	}
	return value, nil
}

func key(purpose Purpose, token string) string {
	return fmt.Sprintf("solstice:onetime:%s:%s", purpose, token)
}
