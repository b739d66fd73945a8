package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/solsticehq/core/internal/pkg/response"
	"github.com/solsticehq/core/internal/pkg/session"
)

const (
	// AccessCookieName is where browser clients carry the access token.
	AccessCookieName = "access_token"
	// RefreshCookieName is where browser clients carry the refresh token.
	RefreshCookieName = "refresh_token"

	contextKeyPrincipal = "auth_principal"
)

// Auth returns a middleware that requires a valid access token bound to a
// live session. The cookie wins over the Authorization header.
func Auth(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractAccessToken(c)
		if token == "" {
			response.Unauthorized(c)
			return
		}
		principal, err := mgr.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(contextKeyPrincipal, principal)
		c.Next()
	}
}

// OptionalAuth sets the principal when a valid token is present but never
// blocks the request.
func OptionalAuth(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := ExtractAccessToken(c); token != "" {
			if principal, err := mgr.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(contextKeyPrincipal, principal)
			}
		}
		c.Next()
	}
}

// CurrentPrincipal extracts the authenticated principal from context.
func CurrentPrincipal(c *gin.Context) (*session.Principal, bool) {
	v, ok := c.Get(contextKeyPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*session.Principal)
	return p, ok
}

// CurrentSubject returns the authenticated subject (email), or "" when the
// request is anonymous.
func CurrentSubject(c *gin.Context) string {
	if p, ok := CurrentPrincipal(c); ok {
		return p.Subject
	}
	return ""
}

// ExtractAccessToken reads the access token from the cookie or the
// Authorization header.
func ExtractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessCookieName); err == nil && cookie != "" {
		return cookie
	}
	return NormalizeBearer(c.GetHeader("Authorization"))
}

// NormalizeBearer trims spaces and strips an optional Bearer prefix.
func NormalizeBearer(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
