package session

import (
	"context"
	"errors"
	"time"

	"github.com/solsticehq/core/internal/models"
)

// Sentinel errors for the session subsystem. The Manager collapses every
// authentication-path failure into ErrUnauthenticated at its public boundary;
// the finer-grained variants stay internal to store and codec callers.
var (
	// ErrSessionNotFound is returned by a Store when no record matches the
	// invalidation id. A missing record means the session was revoked or
	// already swept.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable wraps transport or storage failures. Operational,
	// retryable; never security-relevant.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrUnauthenticated is the umbrella failure surfaced to callers on the
	// authentication path. It deliberately hides whether the token was
	// expired, forged, of the wrong kind, or the session revoked.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrSessionCreationFailed is returned when a session could not be
	// established. No partial token is ever handed out.
	ErrSessionCreationFailed = errors.New("session creation failed")

	// ErrIdentityNotFound means a structurally valid token references an
	// account that no longer exists. Distinct from all token errors.
	ErrIdentityNotFound = errors.New("identity not found")
)

// Store is the persistence contract for session records. All mutation is
// expressed as store-level atomic operations; callers hold no lock across
// these calls.
type Store interface {
	// Create inserts a new session record.
	Create(ctx context.Context, s *models.Session) error

	// FindByInvalidationID returns the record matching id, or
	// ErrSessionNotFound.
	FindByInvalidationID(ctx context.Context, id string) (*models.Session, error)

	// DeleteByInvalidationID removes the record matching id. Deleting a
	// missing id is not an error; logout must stay safe after a concurrent
	// sweep.
	DeleteByInvalidationID(ctx context.Context, id string) error

	// TouchLastUsed updates the last_used timestamp. Best-effort; callers
	// log and continue on failure.
	TouchLastUsed(ctx context.Context, id string, now time.Time) error

	// DeleteExpiredBefore bulk-purges records whose expires_at is before
	// now and returns the number removed. Used only by the sweeper.
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)
}

// Identity is the minimal account view the Manager needs when re-issuing an
// access token.
type Identity struct {
	UserID  string
	Subject string
}

// IdentityResolver maps a user id back to the current identity. Returns
// ErrIdentityNotFound when the account is gone, which must not be confused
// with a token error.
type IdentityResolver interface {
	ResolveUserID(ctx context.Context, userID string) (Identity, error)
}

// TokenPair is the result of a successful session creation.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Principal identifies the authenticated caller of a verified request.
type Principal struct {
	UserID         string
	Subject        string
	InvalidationID string
}
