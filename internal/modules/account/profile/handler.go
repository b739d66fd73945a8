package profile

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/solsticehq/core/internal/middleware"
	authmod "github.com/solsticehq/core/internal/modules/auth/auth"
	"github.com/solsticehq/core/internal/pkg/response"
)

// maxPictureSize caps profile picture uploads at 5 MiB.
const maxPictureSize = 5 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/profile", authMW, h.get)
	rg.PUT("/profile", authMW, h.update)
	rg.POST("/profile/picture", authMW, h.uploadPicture)
	rg.GET("/onboarding-status", authMW, h.onboardingStatus)
}

func (h *Handler) get(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.CurrentSubject(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, authmod.NewUserPayload(u))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Update(c.Request.Context(), middleware.CurrentSubject(c), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, authmod.NewUserPayload(u))
}

func (h *Handler) uploadPicture(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > maxPictureSize {
		response.BadRequest(c, "file too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPictureSize))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := h.svc.SetPicture(c.Request.Context(), middleware.CurrentSubject(c), fileHeader.Filename, contentType, data)
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			response.BadRequest(c, "File must be an image")
			return
		}
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"pfp_url": url})
}

func (h *Handler) onboardingStatus(c *gin.Context) {
	done, err := h.svc.OnboardingCompleted(c.Request.Context(), middleware.CurrentSubject(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"onboarding_completed": done})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, errUserNotFound) {
		response.NotFoundMsg(c, "User not found")
		return
	}
	response.InternalError(c, err)
}
