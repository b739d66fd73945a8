package app

import (
	"github.com/gin-gonic/gin"

	"github.com/solsticehq/core/internal/middleware"
	"github.com/solsticehq/core/internal/modules/account/profile"
	"github.com/solsticehq/core/internal/modules/account/user"
	authmod "github.com/solsticehq/core/internal/modules/auth/auth"
	"github.com/solsticehq/core/internal/modules/auth/oauth"
	"github.com/solsticehq/core/internal/modules/auth/password"
	"github.com/solsticehq/core/internal/modules/billing/payment"
	"github.com/solsticehq/core/internal/modules/system/health"
	"github.com/solsticehq/core/internal/pkg/mail"
	"github.com/solsticehq/core/internal/pkg/onetime"
	"github.com/solsticehq/core/internal/pkg/response"
	"github.com/solsticehq/core/internal/pkg/storage"
)

func (a *App) registerRoutes(authSvc *authmod.Service, mailer *mail.Sender, tokens *onetime.Store, pfpStore *storage.S3) {
	authMW := middleware.Auth(a.sessions)
	idempotence := middleware.Idempotence(a.rc)
	cookies := authmod.CookieConfig{Domain: a.cfg.CookieDomain, Secure: true}

	api := a.router.Group("/api/v1")

	authmod.NewHandler(authSvc, a.sessions, cookies).RegisterRoutes(api, authMW)

	oauthSvc := oauth.NewService(a.db, tokens, a.cfg.Google.ClientID, a.cfg.Google.ClientSecret, a.cfg.PublicURL)
	oauth.NewHandler(oauthSvc, a.sessions, cookies).RegisterRoutes(api, authMW)

	passSvc := password.NewService(a.db, mailer, tokens, a.cfg.FrontendURL, a.cfg.Product, a.logger)
	password.NewHandler(passSvc).RegisterRoutes(api, authMW)

	user.NewHandler(user.NewService(a.db)).RegisterRoutes(api, authMW)

	profileSvc := profile.NewService(a.db, pfpStore, a.logger)
	profile.NewHandler(profileSvc).RegisterRoutes(api, authMW)

	paySvc := payment.NewService(a.db, a.cfg.Stripe, a.cfg.Company, a.cfg.Product, a.logger)
	payment.NewHandler(paySvc).RegisterRoutes(api, authMW, idempotence)

	health.RegisterRoutes(api, a.db, a.rc, a.sched, authMW)

	a.router.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	a.router.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})
}
