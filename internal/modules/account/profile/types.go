package profile

import "errors"

var (
	errUserNotFound = errors.New("user not found")
	errNotAnImage   = errors.New("file is not an image")
)

// UpdateDTO carries a partial profile update. Pointer fields distinguish
// "leave alone" from "set to empty".
type UpdateDTO struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}
