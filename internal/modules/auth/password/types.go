package password

import "errors"

var (
	errNoLocalPassword = errors.New("account has no local password")
	errWrongPassword   = errors.New("incorrect password")
	errUserNotFound    = errors.New("user not found")
)

type ResetDTO struct {
	Password string `json:"password" binding:"required,min=8"`
}

type ChangeDTO struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
