package auth

import (
	"errors"
	"time"

	"github.com/solsticehq/core/internal/models"
)

var (
	errEmailTaken         = errors.New("email already registered")
	errUsernameTaken      = errors.New("username already taken")
	errInvalidCredentials = errors.New("incorrect email or password")
	errEmailNotVerified   = errors.New("email not verified")
	errUserNotFound       = errors.New("user not found")
	errAlreadyVerified    = errors.New("email already verified")
)

// usernameError carries the syntactic reason a username was rejected.
type usernameError struct{ reason string }

func (e *usernameError) Error() string { return e.reason }

type RegisterDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserPayload is the account shape returned by auth and oauth endpoints.
type UserPayload struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	Username      string         `json:"username,omitempty"`
	Credits       float64        `json:"credits"`
	EmailVerified bool           `json:"email_verified"`
	TermsAccepted bool           `json:"terms_accepted"`
	CreatedAt     time.Time      `json:"created_at"`
	Profile       models.Profile `json:"profile"`
}

// NewUserPayload converts a user document to its API shape.
func NewUserPayload(u *models.User) UserPayload {
	return UserPayload{
		ID:            u.ID.Hex(),
		Email:         u.Email,
		Username:      u.Username,
		Credits:       u.Credits,
		EmailVerified: u.EmailVerified,
		TermsAccepted: u.TermsAccepted,
		CreatedAt:     u.CreatedAt,
		Profile:       u.Profile,
	}
}
