package password

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/solsticehq/core/internal/middleware"
	"github.com/solsticehq/core/internal/pkg/onetime"
	"github.com/solsticehq/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	p := rg.Group("/pass")

	p.POST("/password/reset-requests", h.requestReset)
	p.PUT("/password/reset", h.reset)
	p.PUT("/users/password", authMW, h.change)
}

func (h *Handler) requestReset(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email is required")
		return
	}
	h.svc.RequestReset(c.Request.Context(), email)
	// Uniform reply regardless of whether the account exists.
	response.Message(c, "If the email exists, a password reset link will be sent")
}

func (h *Handler) reset(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "Invalid or expired token")
		return
	}
	var dto ResetDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.svc.Reset(c.Request.Context(), token, dto.Password)
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
	response.Message(c, "Password updated")
}

func (h *Handler) change(c *gin.Context) {
	var dto ChangeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.svc.Change(c.Request.Context(), middleware.CurrentSubject(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errNoLocalPassword):
			response.BadRequest(c, "Account has no local password")
		case errors.Is(err, errWrongPassword):
			response.BadRequest(c, "Incorrect password")
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, "User not found")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Message(c, "Password changed")
}
