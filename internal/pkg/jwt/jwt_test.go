package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")
	now := time.Now().UTC()

	token, exp, err := codec.Encode(KindAccess, "user-1", "a@x.com", "inv-1", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(AccessTTL).Unix(), exp.Unix())

	claims, err := codec.Decode(token, KindAccess, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, "inv-1", claims.InvalidationID)
	assert.Equal(t, KindAccess, claims.Kind())
	assert.NotEmpty(t, claims.ID)
}

func TestDecodeRefreshTTL(t *testing.T) {
	codec := NewCodec("test-secret")
	now := time.Now().UTC()

	token, exp, err := codec.Encode(KindRefresh, "user-1", "a@x.com", "inv-1", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(RefreshTTL).Unix(), exp.Unix())

	claims, err := codec.Decode(token, KindRefresh, now.Add(29*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "inv-1", claims.InvalidationID)
}

func TestDecodeExpired(t *testing.T) {
	codec := NewCodec("test-secret")
	now := time.Now().UTC()

	token, _, err := codec.Encode(KindAccess, "user-1", "a@x.com", "inv-1", now)
	require.NoError(t, err)

	_, err = codec.Decode(token, KindAccess, now.Add(AccessTTL+time.Second))
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestDecodeWrongSecret(t *testing.T) {
	now := time.Now().UTC()
	token, _, err := NewCodec("secret-a").Encode(KindAccess, "user-1", "a@x.com", "inv-1", now)
	require.NoError(t, err)

	_, err = NewCodec("secret-b").Decode(token, KindAccess, now)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestDecodeWrongKind(t *testing.T) {
	codec := NewCodec("test-secret")
	now := time.Now().UTC()

	access, _, err := codec.Encode(KindAccess, "user-1", "a@x.com", "inv-1", now)
	require.NoError(t, err)
	_, err = codec.Decode(access, KindRefresh, now)
	assert.ErrorIs(t, err, ErrWrongTokenKind)

	refresh, _, err := codec.Encode(KindRefresh, "user-1", "a@x.com", "inv-1", now)
	require.NoError(t, err)
	_, err = codec.Decode(refresh, KindAccess, now)
	assert.ErrorIs(t, err, ErrWrongTokenKind)
}

func TestDecodeGarbage(t *testing.T) {
	codec := NewCodec("test-secret")
	now := time.Now().UTC()

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.Decode(tok, KindAccess, now)
		assert.ErrorIs(t, err, ErrMalformedToken)
	}
}
