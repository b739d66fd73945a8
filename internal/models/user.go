package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription states stored on the user document.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// Profile is the user-editable profile subdocument. Pointer fields let
// partial updates leave unset values alone.
type Profile struct {
	DisplayName *string `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Bio         *string `bson:"bio,omitempty"          json:"bio,omitempty"`
	PfpURL      *string `bson:"pfp_url,omitempty"      json:"pfp_url,omitempty"`
}

// User is an account document. Google-created accounts have no local
// password and no username until setup completes.
type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"                  json:"id"`
	Email               string             `bson:"email"                          json:"email"`
	Username            string             `bson:"username,omitempty"             json:"username,omitempty"`
	Password            string             `bson:"password,omitempty"             json:"-"`
	GoogleID            string             `bson:"google_id,omitempty"            json:"-"`
	Credits             float64            `bson:"credits"                        json:"credits"`
	EmailVerified       bool               `bson:"email_verified"                 json:"email_verified"`
	TermsAccepted       bool               `bson:"terms_accepted"                 json:"terms_accepted"`
	NeedsUsername       bool               `bson:"needs_username,omitempty"       json:"-"`
	OnboardingCompleted bool               `bson:"onboarding_completed,omitempty" json:"-"`
	CreatedAt           time.Time          `bson:"created_at"                     json:"created_at"`
	Profile             Profile            `bson:"profile,omitempty"              json:"profile"`

	SubscriptionStatus string     `bson:"subscription_status,omitempty"  json:"-"`
	SubscriptionID     string     `bson:"subscription_id,omitempty"      json:"-"`
	CurrentPeriodEnd   *time.Time `bson:"current_period_end,omitempty"   json:"-"`
	CancelAtPeriodEnd  bool       `bson:"cancel_at_period_end,omitempty" json:"-"`
}

func (User) CollectionName() string { return "users" }

// HasLocalPassword reports whether password login and password change apply.
func (u *User) HasLocalPassword() bool { return u.Password != "" }

// SubscriptionIsActive reports whether paid features gated on subscription
// are currently unlocked.
func (u *User) SubscriptionIsActive() bool { return u.SubscriptionStatus == SubscriptionActive }
