package oauth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solsticehq/core/internal/models"
	authmod "github.com/solsticehq/core/internal/modules/auth/auth"
	"github.com/solsticehq/core/internal/pkg/clientinfo"
	"github.com/solsticehq/core/internal/pkg/response"
	"github.com/solsticehq/core/internal/pkg/session"
)

type Handler struct {
	svc      *Service
	sessions *session.Manager
	cookies  authmod.CookieConfig
}

func NewHandler(svc *Service, sessions *session.Manager, cookies authmod.CookieConfig) *Handler {
	return &Handler{svc: svc, sessions: sessions, cookies: cookies}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, _ gin.HandlerFunc) {
	o := rg.Group("/oauth")

	o.GET("/auth/google", h.beginGoogle)
	o.GET("/auth/google/callback", h.googleCallback)
	o.PUT("/users/google", h.completeSetup)
}

func (h *Handler) beginGoogle(c *gin.Context) {
	url, err := h.svc.BeginFlow(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *Handler) googleCallback(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.svc.ConsumeState(ctx, c.Query("state")); err != nil {
		response.BadRequest(c, "Invalid or expired state")
		return
	}
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "code is required")
		return
	}

	profile, err := h.svc.ExchangeProfile(ctx, code)
	if err != nil {
		response.BadRequest(c, "Google sign-in failed")
		return
	}

	u, needsUsername, err := h.svc.ResolveAccount(ctx, profile)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if needsUsername {
		response.OK(c, needsRegistrationResponse{NeedsRegistration: true, GoogleID: u.GoogleID})
		return
	}
	h.finishLogin(c, u)
}

func (h *Handler) completeSetup(c *gin.Context) {
	var dto CompleteSetupDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.CompleteSetup(c.Request.Context(), &dto)
	if err != nil {
		var ue *usernameError
		switch {
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, "User not found")
		case errors.As(err, &ue):
			response.BadRequest(c, ue.reason)
		case errors.Is(err, errUsernameTaken):
			response.BadRequest(c, "Username already taken")
		default:
			response.InternalError(c, err)
		}
		return
	}
	h.finishLogin(c, u)
}

func (h *Handler) finishLogin(c *gin.Context, u *models.User) {
	info := clientinfo.Parse(c.Request.UserAgent())
	pair, err := h.sessions.CreateSession(c.Request.Context(), u.ID, u.Email, c.ClientIP(), info)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	authmod.SetSessionCookies(c, h.cookies, pair)
	response.OK(c, authmod.NewUserPayload(u))
}
