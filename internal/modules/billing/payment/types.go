package payment

import (
	"errors"
	"time"

	"github.com/solsticehq/core/internal/models"
)

var (
	errUserNotFound   = errors.New("user not found")
	errModeDisabled   = errors.New("payment type not enabled")
	errAmountRequired = errors.New("amount required")
	errBadSignature   = errors.New("invalid webhook signature")
)

type CheckoutDTO struct {
	PaymentType models.PaymentType `json:"payment_type" binding:"required"`
	Amount      float64            `json:"amount"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type SubscriptionStatus struct {
	IsActive          bool       `json:"is_active"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}
