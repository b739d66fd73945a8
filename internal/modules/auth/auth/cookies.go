package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solsticehq/core/internal/middleware"
	"github.com/solsticehq/core/internal/pkg/session"
)

const (
	accessCookieMaxAge  = 3600
	refreshCookieMaxAge = 30 * 24 * 3600
)

// CookieConfig carries the transport settings shared by every endpoint that
// writes session cookies.
type CookieConfig struct {
	Domain string
	Secure bool
}

// SetSessionCookies writes both token cookies after session creation.
func SetSessionCookies(c *gin.Context, cfg CookieConfig, pair *session.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookieName, pair.AccessToken, accessCookieMaxAge, "/", cfg.Domain, cfg.Secure, true)
	c.SetCookie(middleware.RefreshCookieName, pair.RefreshToken, refreshCookieMaxAge, "/", cfg.Domain, cfg.Secure, true)
}

// SetAccessCookie re-sets only the access cookie, used on refresh. The
// refresh cookie is left as-is since refresh tokens never rotate.
func SetAccessCookie(c *gin.Context, cfg CookieConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookieName, token, accessCookieMaxAge, "/", cfg.Domain, cfg.Secure, true)
}

// ClearSessionCookies expires both cookies. Runs on logout no matter whether
// server-side invalidation succeeded.
func ClearSessionCookies(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookieName, "", -1, "/", cfg.Domain, cfg.Secure, true)
	c.SetCookie(middleware.RefreshCookieName, "", -1, "/", cfg.Domain, cfg.Secure, true)
}
