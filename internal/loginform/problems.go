package loginform

import "errors"

// Problem identifies one entry of the error taxonomy shown to the user.
type Problem int

const (
	EmailRequired Problem = iota + 1
	EmailInvalid
	PasswordRequired
	PasswordTooShort
	GeneralAuthFailure
)

var problemMessages = map[Problem]string{
	EmailRequired:      "Email is required",
	EmailInvalid:       "Email address is invalid",
	PasswordRequired:   "Password is required",
	PasswordTooShort:   "Password must be at least 6 characters",
	GeneralAuthFailure: "Invalid email or password. Please try again.",
}

// String returns the human-readable message for p.
func (p Problem) String() string {
	return problemMessages[p]
}

// Errors returned by the controller. They describe why Submit did not
// complete; the corresponding display state has already been applied.
var (
	ErrUnknownField     = errors.New("unknown form field")
	ErrInvalidForm      = errors.New("form has validation errors")
	ErrSubmitInProgress = errors.New("a login attempt is already in progress")
	ErrLoginFailed      = errors.New("login attempt failed")
)
