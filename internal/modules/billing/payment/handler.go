package payment

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solsticehq/core/internal/middleware"
	"github.com/solsticehq/core/internal/pkg/pagination"
	"github.com/solsticehq/core/internal/pkg/response"
)

// maxWebhookBody bounds the Stripe webhook payload read.
const maxWebhookBody = 1 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the billing routes. The idempotence middleware on
// checkout stops accidental double submits from opening two Stripe sessions.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, idempotence gin.HandlerFunc) {
	p := rg.Group("/payment")

	p.POST("/checkout", authMW, idempotence, h.checkout)
	p.POST("/webhooks/stripe", h.stripeWebhook)
	p.GET("/users/subscription", authMW, h.subscription)
	p.GET("/users/payments", authMW, h.history)
	p.GET("/users/credits", authMW, h.credits)
}

func (h *Handler) checkout(c *gin.Context) {
	var dto CheckoutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	out, err := h.svc.CreateCheckout(c.Request.Context(), middleware.CurrentSubject(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errModeDisabled):
			response.BadRequest(c, "Payment type not enabled")
		case errors.Is(err, errAmountRequired):
			response.BadRequest(c, "amount is required for credit purchases")
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, "User not found")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, out)
}

func (h *Handler) stripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "unreadable payload")
		return
	}
	err = h.svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("stripe-signature"))
	if err != nil {
		if errors.Is(err, errBadSignature) {
			response.BadRequest(c, "Invalid signature")
			return
		}
		response.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) subscription(c *gin.Context) {
	out, err := h.svc.Subscription(c.Request.Context(), middleware.CurrentSubject(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, out)
}

func (h *Handler) history(c *gin.Context) {
	q := pagination.FromContext(c)
	items, meta, err := h.svc.History(c.Request.Context(), middleware.CurrentSubject(c), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Paged(c, items, meta)
}

func (h *Handler) credits(c *gin.Context) {
	credits, err := h.svc.Credits(c.Request.Context(), middleware.CurrentSubject(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"credits": credits})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, errUserNotFound) {
		response.NotFoundMsg(c, "User not found")
		return
	}
	response.InternalError(c, err)
}
