package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/solsticehq/core/internal/middleware"
	"github.com/solsticehq/core/internal/models"
	"github.com/solsticehq/core/internal/pkg/clientinfo"
	"github.com/solsticehq/core/internal/pkg/onetime"
	"github.com/solsticehq/core/internal/pkg/response"
	"github.com/solsticehq/core/internal/pkg/session"
)

type Handler struct {
	svc      *Service
	sessions *session.Manager
	cookies  CookieConfig
}

func NewHandler(svc *Service, sessions *session.Manager, cookies CookieConfig) *Handler {
	return &Handler{svc: svc, sessions: sessions, cookies: cookies}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, _ gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/users", h.register)
	a.POST("/sessions", h.login)
	a.POST("/sessions/refresh", h.refresh)
	a.DELETE("/sessions", h.logout)
	a.PUT("/users/email/verify", h.verifyEmail)
	a.POST("/users/email/verify/resend", h.resendVerification)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Register(c.Request.Context(), &dto)
	if err != nil {
		var ue *usernameError
		switch {
		case errors.As(err, &ue):
			response.BadRequest(c, ue.reason)
		case errors.Is(err, errEmailTaken):
			response.BadRequest(c, "Email already registered")
		case errors.Is(err, errUsernameTaken):
			response.BadRequest(c, "Username already taken")
		default:
			response.InternalError(c, err)
		}
		return
	}
	if !h.startSession(c, u) {
		return
	}
	response.Created(c, NewUserPayload(u))
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Login(c.Request.Context(), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidCredentials):
			response.BadRequest(c, "Incorrect email or password")
		case errors.Is(err, errEmailNotVerified):
			response.Forbidden(c, "Email not verified")
		default:
			response.InternalError(c, err)
		}
		return
	}
	if !h.startSession(c, u) {
		return
	}
	response.OK(c, NewUserPayload(u))
}

func (h *Handler) refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(middleware.RefreshCookieName)
	if err != nil || refreshToken == "" {
		response.Unauthorized(c)
		return
	}

	access, _, err := h.sessions.RefreshAccessToken(c.Request.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrIdentityNotFound):
			response.NotFoundMsg(c, "User not found")
		case errors.Is(err, session.ErrStoreUnavailable):
			response.ServiceUnavailable(c, "Session store unavailable")
		default:
			response.Unauthorized(c)
		}
		return
	}

	SetAccessCookie(c, h.cookies, access)
	response.Message(c, "Token refreshed")
}

func (h *Handler) logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.AccessCookieName); err == nil && token != "" {
		h.sessions.Logout(c.Request.Context(), token)
	}
	ClearSessionCookies(c, h.cookies)
	response.Message(c, "Logged out")
}

func (h *Handler) verifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "Invalid or expired token")
		return
	}
	err := h.svc.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, onetime.ErrTokenInvalid):
			response.BadRequest(c, "Invalid or expired token")
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, "User not found")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Message(c, "Email verified")
}

func (h *Handler) resendVerification(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email is required")
		return
	}
	err := h.svc.ResendVerification(c.Request.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, "User not found")
		case errors.Is(err, errAlreadyVerified):
			response.BadRequest(c, "Email already verified")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Message(c, "Verification email sent")
}

// startSession issues tokens and writes cookies. Reports false after it has
// already written an error response.
func (h *Handler) startSession(c *gin.Context, u *models.User) bool {
	info := clientinfo.Parse(c.Request.UserAgent())
	pair, err := h.sessions.CreateSession(c.Request.Context(), u.ID, u.Email, c.ClientIP(), info)
	if err != nil {
		response.InternalError(c, err)
		return false
	}
	SetSessionCookies(c, h.cookies, pair)
	return true
}
