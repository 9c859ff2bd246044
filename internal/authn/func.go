package authn

import "context"

// Func adapts a plain function to domain.Authenticator.
type Func func(ctx context.Context, email, password string) error

// AttemptLogin implements domain.Authenticator.
func (f Func) AttemptLogin(ctx context.Context, email, password string) error {
	return f(ctx, email, password)
}
