package user

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/solsticehq/core/internal/middleware"
	"github.com/solsticehq/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/data/users/me", authMW, h.me)
	rg.GET("/data/usernames/availability", h.usernameAvailability)
	rg.PUT("/legal/users/terms", authMW, h.acceptTerms)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.FindBySubject(c.Request.Context(), middleware.CurrentSubject(c))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFoundMsg(c, "User not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{
		"email":          u.Email,
		"username":       u.Username,
		"created_at":     u.CreatedAt,
		"credits":        u.Credits,
		"email_verified": u.EmailVerified,
		"terms_accepted": u.TermsAccepted,
	})
}

func (h *Handler) usernameAvailability(c *gin.Context) {
	username := c.Query("username")
	if ok, reason := ValidateUsername(username); !ok {
		response.OK(c, gin.H{"available": false, "reason": reason})
		return
	}
	exists, err := h.svc.UsernameExists(c.Request.Context(), username)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if exists {
		response.OK(c, gin.H{"available": false, "reason": "Username already taken"})
		return
	}
	response.OK(c, gin.H{"available": true})
}

func (h *Handler) acceptTerms(c *gin.Context) {
	err := h.svc.AcceptTerms(c.Request.Context(), middleware.CurrentSubject(c))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFoundMsg(c, "User not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Message(c, "Terms accepted")
}
