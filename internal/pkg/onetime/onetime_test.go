package onetime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	pkgredis "github.com/solsticehq/core/internal/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := pkgredis.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewStore(rc), mr
}

func TestIssueAndConsume(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, PurposeEmailVerify, "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	value, err := store.Consume(ctx, PurposeEmailVerify, token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", value)
}

func TestConsumeTwiceFails(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, PurposePasswordReset, "a@x.com")
	require.NoError(t, err)

	_, err = store.Consume(ctx, PurposePasswordReset, token)
	require.NoError(t, err)

	_, err = store.Consume(ctx, PurposePasswordReset, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConsumeWrongPurposeFails(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, PurposeEmailVerify, "a@x.com")
	require.NoError(t, err)

	_, err = store.Consume(ctx, PurposePasswordReset, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConsumeExpiredFails(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, PurposeOAuthState, "state-payload")
	require.NoError(t, err)

	mr.FastForward(TTL(PurposeOAuthState) + time.Second)

	_, err = store.Consume(ctx, PurposeOAuthState, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConsumeEmptyToken(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Consume(context.Background(), PurposeEmailVerify, "")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
