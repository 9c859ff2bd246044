package loginform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nfrund/authshell/internal/domain"
)

// Observer is called with every state produced by a transition, in order.
// It runs while the controller lock is held and must not call back into the
// controller.
type Observer func(State)

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers an observer for state transitions.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

// WithLogger sets the logger used for submit outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// Controller owns the state of one mounted login form.
type Controller struct {
	auth      domain.Authenticator
	logger    *slog.Logger
	observers []Observer

	mu    sync.Mutex
	state State
}

// NewController mounts a fresh form that submits through auth.
func NewController(auth domain.Authenticator, opts ...Option) *Controller {
	c := &Controller{
		auth:   auth,
		logger: slog.Default(),
		state:  NewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current form state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// dispatch applies a under the lock held by the caller.
func (c *Controller) dispatch(a Action) {
	c.state = Reduce(c.state, a)
	for _, o := range c.observers {
		o(c.state.clone())
	}
}

// OnFieldChange stores value for field and clears that field's error.
// No validation is run. The inputs are frozen while an attempt is in
// flight, so it returns ErrSubmitInProgress without changing anything then.
func (c *Controller) OnFieldChange(field Field, value string) error {
	if _, ok := ParseField(string(field)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading {
		return ErrSubmitInProgress
	}
	c.dispatch(FieldChanged{Field: field, Value: value})
	return nil
}

// ToggleRememberMe flips the remember-me flag. Like the inputs, the flag is
// frozen while an attempt is in flight.
func (c *Controller) ToggleRememberMe() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading {
		return ErrSubmitInProgress
	}
	c.dispatch(RememberToggled{})
	return nil
}

// Validate checks the current values without touching the state.
func (c *Controller) Validate() (bool, FormErrors) {
	c.mu.Lock()
	data := c.state.Data
	c.mu.Unlock()
	return Validate(data)
}

// Submit validates the form and, when it is valid, runs one login attempt.
//
// It returns ErrSubmitInProgress without changing anything while another
// attempt is in flight, ErrInvalidForm when validation fails and an error
// wrapping ErrLoginFailed when the authenticator rejects the attempt. In
// every case the display state has been updated before Submit returns.
func (c *Controller) Submit(ctx context.Context) error {
	_, err := c.SubmitData(ctx)
	return err
}

// SubmitData is Submit, also returning the values that were checked. They
// are the values the authenticator saw when an attempt ran.
func (c *Controller) SubmitData(ctx context.Context) (FormData, error) {
	c.mu.Lock()
	if c.state.Loading {
		data := c.state.Data
		c.mu.Unlock()
		return data, ErrSubmitInProgress
	}

	data := c.state.Data
	valid, errs := Validate(data)
	if !valid {
		c.dispatch(Validated{Errors: errs})
		c.mu.Unlock()
		return data, ErrInvalidForm
	}

	c.dispatch(SubmitStarted{})
	c.mu.Unlock()

	// The attempt has no cancellation path: it always runs to settlement.
	err := c.attempt(context.WithoutCancel(ctx), data)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.dispatch(SubmitFailed{Err: err})
		c.logger.InfoContext(ctx, "Login attempt rejected", "email", data.Email, "error", err)
		return data, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	c.dispatch(SubmitSucceeded{})
	c.logger.InfoContext(ctx, "Login attempt accepted", "email", data.Email)
	return data, nil
}

// attempt calls the authenticator and turns a panic into an error so that
// the form always settles.
func (c *Controller) attempt(ctx context.Context, data FormData) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("authenticator panicked: %v", r)
		}
	}()

	if c.auth == nil {
		return errors.New("no authenticator configured")
	}
	return c.auth.AttemptLogin(ctx, data.Email, data.Password)
}
