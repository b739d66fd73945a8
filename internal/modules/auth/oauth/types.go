package oauth

import "errors"

var (
	errStateInvalid  = errors.New("invalid oauth state")
	errUserNotFound  = errors.New("user not found")
	errUsernameTaken = errors.New("username already taken")
)

// usernameError carries the syntactic reason a username was rejected.
type usernameError struct{ reason string }

func (e *usernameError) Error() string { return e.reason }

type CompleteSetupDTO struct {
	GoogleID string `json:"google_id" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// needsRegistrationResponse tells the frontend to collect a username before
// the account can sign in.
type needsRegistrationResponse struct {
	NeedsRegistration bool   `json:"needs_registration"`
	GoogleID          string `json:"google_id"`
}

// googleProfile is the subset of Google's userinfo response we consume.
type googleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
}
