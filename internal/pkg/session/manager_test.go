package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/solsticehq/core/internal/models"
	"github.com/solsticehq/core/internal/pkg/clientinfo"
	jwtpkg "github.com/solsticehq/core/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	mu        sync.Mutex
	records   map[string]*models.Session
	failNext  error
	failTouch error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*models.Session{}}
}

func (s *memStore) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *memStore) Create(_ context.Context, rec *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	clone := *rec
	s.records[rec.InvalidationID] = &clone
	return nil
}

func (s *memStore) FindByInvalidationID(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *memStore) DeleteByInvalidationID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	delete(s.records, id)
	return nil
}

func (s *memStore) TouchLastUsed(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTouch != nil {
		return s.failTouch
	}
	if rec, ok := s.records[id]; ok {
		rec.LastUsed = now
	}
	return nil
}

func (s *memStore) DeleteExpiredBefore(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return 0, err
	}
	var n int64
	for id, rec := range s.records {
		if rec.ExpiresAt.Before(now) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

type stubResolver struct {
	identities map[string]Identity
}

func (r *stubResolver) ResolveUserID(_ context.Context, userID string) (Identity, error) {
	id, ok := r.identities[userID]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return id, nil
}

func newTestManager(t *testing.T) (*Manager, *memStore, *stubResolver, primitive.ObjectID) {
	t.Helper()
	store := newMemStore()
	userID := primitive.NewObjectID()
	resolver := &stubResolver{identities: map[string]Identity{
		userID.Hex(): {UserID: userID.Hex(), Subject: "a@x.com"},
	}}
	mgr := NewManager(jwtpkg.NewCodec("test-secret"), store, resolver, nil)
	return mgr, store, resolver, userID
}

func TestCreateSessionAndAuthenticate(t *testing.T) {
	mgr, store, _, userID := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.CreateSession(ctx, userID, "a@x.com", "203.0.113.7", clientinfo.Info{Raw: "curl/8"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Len(t, store.records, 1)

	p, err := mgr.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", p.Subject)
	assert.Equal(t, userID.Hex(), p.UserID)
	assert.NotEmpty(t, p.InvalidationID)
}

func TestCreateSessionStoreFailure(t *testing.T) {
	mgr, store, _, userID := newTestManager(t)
	store.failNext = errors.New("connection refused")

	pair, err := mgr.CreateSession(context.Background(), userID, "a@x.com", "", clientinfo.Info{})
	assert.ErrorIs(t, err, ErrSessionCreationFailed)
	assert.Nil(t, pair)
	assert.Empty(t, store.records)
}

func TestAuthenticateAfterInvalidation(t *testing.T) {
	mgr, _, _, userID := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	p, err := mgr.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, mgr.InvalidateSession(ctx, p.InvalidationID))

	// The token is still cryptographically valid and unexpired, but the
	// session record is gone.
	_, err = mgr.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = mgr.RefreshAccessToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestInvalidateSessionIdempotent(t *testing.T) {
	mgr, _, _, userID := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)
	p, err := mgr.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)

	assert.NoError(t, mgr.InvalidateSession(ctx, p.InvalidationID))
	assert.NoError(t, mgr.InvalidateSession(ctx, p.InvalidationID))
	assert.NoError(t, mgr.InvalidateSession(ctx, "never-existed"))
}

func TestRefreshKeepsInvalidationID(t *testing.T) {
	mgr, _, _, userID := newTestManager(t)
	ctx := context.Background()
	codec := jwtpkg.NewCodec("test-secret")

	base := time.Now().UTC()
	mgr.WithClock(func() time.Time { return base })
	pair, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	origin, err := codec.Decode(pair.AccessToken, jwtpkg.KindAccess, base)
	require.NoError(t, err)

	mgr.WithClock(func() time.Time { return base.Add(30 * time.Minute) })
	first, firstExp, err := mgr.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	mgr.WithClock(func() time.Time { return base.Add(45 * time.Minute) })
	second, secondExp, err := mgr.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	firstClaims, err := codec.Decode(first, jwtpkg.KindAccess, base.Add(31*time.Minute))
	require.NoError(t, err)
	secondClaims, err := codec.Decode(second, jwtpkg.KindAccess, base.Add(46*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, origin.InvalidationID, firstClaims.InvalidationID)
	assert.Equal(t, origin.InvalidationID, secondClaims.InvalidationID)
	assert.NotEqual(t, firstExp.Unix(), secondExp.Unix())
}

func TestRefreshReflectsIdentityChange(t *testing.T) {
	mgr, _, resolver, userID := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	resolver.identities[userID.Hex()] = Identity{UserID: userID.Hex(), Subject: "renamed@x.com"}

	access, _, err := mgr.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := jwtpkg.NewCodec("test-secret").Decode(access, jwtpkg.KindAccess, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "renamed@x.com", claims.Subject)
}

func TestRefreshDeletedIdentity(t *testing.T) {
	mgr, _, resolver, userID := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	delete(resolver.identities, userID.Hex())

	_, _, err = mgr.RefreshAccessToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	mgr, _, _, userID := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	_, _, err = mgr.RefreshAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = mgr.Authenticate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticateExpiredAccessToken(t *testing.T) {
	mgr, _, _, userID := newTestManager(t)
	ctx := context.Background()

	base := time.Now().UTC()
	mgr.WithClock(func() time.Time { return base })
	pair, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	mgr.WithClock(func() time.Time { return base.Add(jwtpkg.AccessTTL + time.Minute) })
	_, err = mgr.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticateForgedToken(t *testing.T) {
	mgr, _, _, userID := newTestManager(t)
	ctx := context.Background()

	forged, _, err := jwtpkg.NewCodec("other-secret").Encode(jwtpkg.KindAccess, userID.Hex(), "a@x.com", "inv-1", time.Now().UTC())
	require.NoError(t, err)

	_, err = mgr.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogoutRevokesSession(t *testing.T) {
	mgr, store, _, userID := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	mgr.Logout(ctx, pair.AccessToken)
	assert.Empty(t, store.records)

	_, err = mgr.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogoutGarbageTokenIsNoop(t *testing.T) {
	mgr, store, _, userID := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	mgr.Logout(ctx, "not-a-token")
	mgr.Logout(ctx, "")
	assert.Len(t, store.records, 1)
}

func TestSweepExpired(t *testing.T) {
	mgr, store, _, userID := newTestManager(t)
	ctx := context.Background()

	base := time.Now().UTC()
	mgr.WithClock(func() time.Time { return base.Add(-31 * 24 * time.Hour) })
	stale, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	mgr.WithClock(func() time.Time { return base })
	live, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	n, err := mgr.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, store.records, 1)

	_, err = mgr.Authenticate(ctx, stale.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = mgr.Authenticate(ctx, live.AccessToken)
	assert.NoError(t, err)
}

func TestAuthenticateTouchFailureIsBestEffort(t *testing.T) {
	mgr, store, _, userID := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.CreateSession(ctx, userID, "a@x.com", "", clientinfo.Info{})
	require.NoError(t, err)

	store.mu.Lock()
	store.failTouch = errors.New("write timeout")
	store.mu.Unlock()

	// Lookup succeeds, the touch fails; authentication must not care.
	p, err := mgr.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", p.Subject)
}
