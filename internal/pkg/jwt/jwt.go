package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates the two token flavors issued per session.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Token lifetimes. The session record expiry mirrors RefreshTTL.
const (
	AccessTTL  = time.Hour
	RefreshTTL = 30 * 24 * time.Hour
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrExpiredToken   = errors.New("token expired")
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// Claims is the JWT payload shared by access and refresh tokens.
// Wire field names are fixed; clients and older deployments depend on them.
type Claims struct {
	UserID         string `json:"user_id"`
	TokenType      string `json:"type"`
	InvalidationID string `json:"invalidate_id"`
	jwtlib.RegisteredClaims
}

// Kind returns the typed kind claim.
func (c *Claims) Kind() Kind { return Kind(c.TokenType) }

// Codec signs and verifies session tokens. The secret and algorithm (HS256)
// are fixed for the process lifetime; there is no per-token key rotation.
type Codec struct {
	secret []byte
}

// NewCodec builds a Codec around the shared signing secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// TTL returns the lifetime for a token kind.
func TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return RefreshTTL
	}
	return AccessTTL
}

// Encode signs a token of the given kind. The caller supplies now so that all
// timestamps within one operation derive from a single clock read.
func (c *Codec) Encode(kind Kind, userID, subject, invalidationID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(TTL(kind))
	claims := Claims{
		UserID:         userID,
		TokenType:      string(kind),
		InvalidationID: invalidationID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Decode verifies signature, structure and time bounds against now, then the
// kind claim. It has no side effects.
func (c *Codec) Decode(tokenStr string, expected Kind, now time.Time) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwtlib.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrMalformedToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformedToken
	}
	if claims.Kind() != expected {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}
