package user

// Username rules: 3-30 characters, ASCII letters, digits and underscore,
// and not composed entirely of digits once underscores are ignored.
const (
	usernameMinLen = 3
	usernameMaxLen = 30
)

// ValidateUsername checks the syntactic rules only; existence is checked
// separately against the users collection. The reason string is suitable for
// returning to clients.
func ValidateUsername(username string) (bool, string) {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return false, "Username must be between 3 and 30 characters"
	}
	hasLetter, hasDigit := false, false
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '_':
		default:
			return false, "Username may only contain letters, digits and underscores"
		}
	}
	if hasDigit && !hasLetter {
		return false, "Username cannot consist of digits only"
	}
	return true, ""
}
