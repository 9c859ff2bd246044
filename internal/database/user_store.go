package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nfrund/authshell/internal/config"
	"github.com/nfrund/authshell/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// UserStore authenticates users through SurrealDB record access. Each call
// opens its own connection: a record sign-in changes the authentication of
// the connection it runs on, so it must never share the application's one.
type UserStore struct {
	url    string
	ns     string
	dbName string
	access string
}

// NewUserStore creates a UserStore from the SurrealDB settings in cfg.
func NewUserStore(cfg config.Provider) *UserStore {
	return &UserStore{
		url:    cfg.GetDBUrl(),
		ns:     cfg.GetDBNs(),
		dbName: cfg.GetDBDb(),
		access: cfg.GetDBAccess(),
	}
}

// AttemptLogin implements domain.Authenticator.
func (s *UserStore) AttemptLogin(ctx context.Context, email, password string) error {
	db, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	// Format matches the JavaScript SDK's implementation.
	if _, err := db.SignIn(ctx, s.credentials(email, password)); err != nil {
		if isAccessDenied(err) {
			return fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
		}
		return fmt.Errorf("surrealdb sign in: %w", err)
	}

	slog.DebugContext(ctx, "SurrealDB record sign in succeeded", "email", email)
	return nil
}

// SignUp implements domain.UserRegistrar.
func (s *UserStore) SignUp(ctx context.Context, user *domain.User, password string) error {
	if user == nil || user.Email == "" {
		return errors.New("user email is required")
	}

	db, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	creds := s.credentials(user.Email, password)
	if user.Name != nil {
		creds["name"] = *user.Name
	}

	if _, err := db.SignUp(ctx, creds); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, user.Email)
		}
		return fmt.Errorf("surrealdb sign up: %w", err)
	}

	slog.InfoContext(ctx, "Signed up user", "email", user.Email)
	return nil
}

func (s *UserStore) credentials(email, password string) map[string]any {
	return map[string]any{
		"ns":       s.ns,
		"db":       s.dbName,
		"ac":       s.access,
		"email":    email,
		"password": password,
	}
}

func (s *UserStore) dial(ctx context.Context) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
	}
	return db, nil
}

// isAccessDenied reports whether a sign-in error means the credentials were
// rejected rather than the request failing.
func isAccessDenied(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no record was returned") ||
		strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "invalid")
}
