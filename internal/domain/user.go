package domain

import "context"

// User is the minimal account record known to the shell. Only the email is
// ever read back; passwords are handed to the backend and never stored here.
type User struct {
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// Authenticator is the port through which the login form reaches the real
// authentication backend. AttemptLogin returns nil when the credentials are
// accepted and an error for every other outcome.
type Authenticator interface {
	AttemptLogin(ctx context.Context, email, password string) error
}

// UserRegistrar creates accounts in the backend. It is used by tooling to
// seed users and is not reachable from the login form.
type UserRegistrar interface {
	SignUp(ctx context.Context, user *User, password string) error
}
