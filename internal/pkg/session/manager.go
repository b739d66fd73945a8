package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solsticehq/core/internal/models"
	"github.com/solsticehq/core/internal/pkg/clientinfo"
	jwtpkg "github.com/solsticehq/core/internal/pkg/jwt"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Manager orchestrates session creation, token verification, refresh and
// invalidation. It keeps no session state in memory; every mutation is a
// single store operation, which is what lets the request tier scale out
// without coordination.
type Manager struct {
	codec    *jwtpkg.Codec
	store    Store
	resolver IdentityResolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager wires the codec, store and identity resolver together.
func NewManager(codec *jwtpkg.Codec, store Store, resolver IdentityResolver, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		codec:    codec,
		store:    store,
		resolver: resolver,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Tests only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// CreateSession issues an access/refresh token pair bound to one fresh
// session record. Atomic from the caller's view: either both tokens come
// back and the record is persisted, or ErrSessionCreationFailed and nothing
// is issued.
func (m *Manager) CreateSession(ctx context.Context, userID primitive.ObjectID, subject, ip string, info clientinfo.Info) (*TokenPair, error) {
	now := m.now()
	invalidationID := uuid.NewString()

	access, accessExp, err := m.codec.Encode(jwtpkg.KindAccess, userID.Hex(), subject, invalidationID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}
	refresh, refreshExp, err := m.codec.Encode(jwtpkg.KindRefresh, userID.Hex(), subject, invalidationID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	rec := &models.Session{
		InvalidationID: invalidationID,
		UserID:         userID,
		CreatedAt:      now,
		ExpiresAt:      refreshExp,
		LastUsed:       now,
		IsActive:       true,
		IPAddress:      ip,
		ClientInfo:     info,
	}
	if err := m.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Authenticate verifies an access token and confirms its session is still
// live. A cryptographically valid token whose record is gone fails all the
// same; that is the revocation check that makes logout effective. Every
// failure collapses to ErrUnauthenticated.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	now := m.now()

	claims, err := m.codec.Decode(accessToken, jwtpkg.KindAccess, now)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	rec, err := m.store.FindByInvalidationID(ctx, claims.InvalidationID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if now.After(rec.ExpiresAt) {
		// Present but past deadline: expired, just not swept yet.
		return nil, ErrUnauthenticated
	}

	if err := m.store.TouchLastUsed(ctx, claims.InvalidationID, now); err != nil {
		m.logger.Warn("session touch failed", zap.Error(err))
	}

	return &Principal{
		UserID:         claims.UserID,
		Subject:        claims.Subject,
		InvalidationID: claims.InvalidationID,
	}, nil
}

// RefreshAccessToken mints a new access token against a live refresh token.
// The invalidation id is carried over unchanged and the refresh token is
// never rotated. The current identity is re-resolved so a rename since
// session start is reflected in the new token's subject.
func (m *Manager) RefreshAccessToken(ctx context.Context, refreshToken string) (string, time.Time, error) {
	now := m.now()

	claims, err := m.codec.Decode(refreshToken, jwtpkg.KindRefresh, now)
	if err != nil {
		return "", time.Time{}, ErrUnauthenticated
	}

	rec, err := m.store.FindByInvalidationID(ctx, claims.InvalidationID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", time.Time{}, ErrUnauthenticated
		}
		return "", time.Time{}, err
	}
	if now.After(rec.ExpiresAt) {
		return "", time.Time{}, ErrUnauthenticated
	}

	identity, err := m.resolver.ResolveUserID(ctx, claims.UserID)
	if err != nil {
		return "", time.Time{}, err
	}

	access, accessExp, err := m.codec.Encode(jwtpkg.KindAccess, identity.UserID, identity.Subject, claims.InvalidationID, now)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}
	return access, accessExp, nil
}

// InvalidateSession revokes the token pair behind id by deleting its record.
// Idempotent: an id that is already gone is not an error.
func (m *Manager) InvalidateSession(ctx context.Context, invalidationID string) error {
	return m.store.DeleteByInvalidationID(ctx, invalidationID)
}

// Logout extracts the invalidation id from an access token and revokes the
// session. Decode errors are a no-op: logout always succeeds from the
// caller's perspective, and the transport clears cookies regardless.
func (m *Manager) Logout(ctx context.Context, accessToken string) {
	claims, err := m.codec.Decode(accessToken, jwtpkg.KindAccess, m.now())
	if err != nil {
		return
	}
	if err := m.InvalidateSession(ctx, claims.InvalidationID); err != nil {
		m.logger.Warn("logout invalidation failed", zap.String("invalidate_id", claims.InvalidationID), zap.Error(err))
	}
}

// SweepExpired purges all session records past their expiry. Called by the
// background sweeper; racing with live operations is safe because deletes
// are idempotent and lookups tolerate a record that is already gone.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredBefore(ctx, m.now())
}
