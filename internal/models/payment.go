package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentType selects the checkout flow.
type PaymentType string

const (
	PaymentTypeCredit       PaymentType = "credit"
	PaymentTypeSubscription PaymentType = "subscription"
)

// Valid reports whether the value is one of the known payment types.
func (t PaymentType) Valid() bool {
	return t == PaymentTypeCredit || t == PaymentTypeSubscription
}

// Payment lifecycle states. Completion is driven by the Stripe webhook.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// Payment records one checkout attempt. SessionID is the Stripe checkout
// session id; CreditsAdded guards against crediting the same session twice.
type Payment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID       primitive.ObjectID `bson:"user_id"       json:"-"`
	SessionID    string             `bson:"session_id"    json:"id"`
	Status       string             `bson:"status"        json:"status"`
	Amount       *float64           `bson:"amount"        json:"amount"`
	PaymentType  PaymentType        `bson:"payment_type"  json:"payment_type"`
	PaymentDate  time.Time          `bson:"payment_date"  json:"payment_date"`
	CreditsAdded bool               `bson:"credits_added" json:"-"`
}

func (Payment) CollectionName() string { return "payments" }
