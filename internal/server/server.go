package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/authshell/internal/audit"
	"github.com/nfrund/authshell/internal/authn"
	"github.com/nfrund/authshell/internal/config"
	"github.com/nfrund/authshell/internal/database"
	"github.com/nfrund/authshell/internal/domain"
	"github.com/nfrund/authshell/internal/handlers"
	"github.com/nfrund/authshell/internal/loginform"
	"github.com/nfrund/authshell/internal/middleware"
	"github.com/nfrund/authshell/internal/pubsub"
	"github.com/nfrund/authshell/internal/rendering"
	"github.com/nfrund/authshell/internal/view"
	"github.com/samber/do/v2"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	Cfg config.Provider

	bus          *pubsub.WatermillBridge
	forms        *loginform.Registry
	loginHandler *handlers.LoginHandler
	stopAudit    context.CancelFunc
}

// New wires the application around cfg. It does not start listening.
func New(cfg config.Provider) (*Server, error) {
	i := do.New()
	do.ProvideValue(i, cfg)
	do.Provide(i, provideAuthenticator)
	do.Provide(i, providePubSub)
	do.Provide(i, provideFormRegistry)
	do.Provide(i, provideLoginHandler)

	loginHandler, err := do.Invoke[*handlers.LoginHandler](i)
	if err != nil {
		return nil, fmt.Errorf("failed to build login handler: %w", err)
	}
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)
	forms := do.MustInvoke[*loginform.Registry](i)

	auditCtx, stopAudit := context.WithCancel(context.Background())
	if err := audit.NewSubscriber(bus, slog.Default()).Start(auditCtx); err != nil {
		stopAudit()
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Renderer = rendering.NewUniversalRenderer()
	setupErrorHandling(e)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			middleware.FromContext(c.Request().Context()).Info("request",
				"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	// Configure and use session middleware
	store := sessions.NewCookieStore([]byte(cfg.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.GetFormTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	return &Server{
		E:            e,
		Cfg:          cfg,
		bus:          bus,
		forms:        forms,
		loginHandler: loginHandler,
		stopAudit:    stopAudit,
	}, nil
}

// Forms exposes the form registry, useful for testing.
func (s *Server) Forms() *loginform.Registry {
	return s.forms
}

func provideAuthenticator(i do.Injector) (domain.Authenticator, error) {
	cfg := do.MustInvoke[config.Provider](i)

	switch cfg.GetAuthBackend() {
	case config.AuthBackendSurreal:
		slog.Info("Using SurrealDB authentication backend", "url", cfg.GetDBUrl())
		return database.NewUserStore(cfg), nil
	case config.AuthBackendSimulated:
		slog.Info("Using simulated authentication backend", "delay", cfg.GetAuthDelay())
		return authn.NewSimulated(cfg.GetAuthDelay()), nil
	default:
		return nil, fmt.Errorf("unknown auth backend: %s", cfg.GetAuthBackend())
	}
}

func providePubSub(i do.Injector) (*pubsub.WatermillBridge, error) {
	return pubsub.NewWatermillBridge(), nil
}

func provideFormRegistry(i do.Injector) (*loginform.Registry, error) {
	cfg := do.MustInvoke[config.Provider](i)
	auth, err := do.Invoke[domain.Authenticator](i)
	if err != nil {
		return nil, err
	}

	return loginform.NewRegistry(func() *loginform.Controller {
		return loginform.NewController(auth)
	}, cfg.GetFormTTL()), nil
}

func provideLoginHandler(i do.Injector) (*handlers.LoginHandler, error) {
	cfg := do.MustInvoke[config.Provider](i)
	forms, err := do.Invoke[*loginform.Registry](i)
	if err != nil {
		return nil, err
	}
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)

	meta := view.Meta{
		Title:       cfg.GetAppTitle(),
		Description: cfg.GetAppDescription(),
		Locale:      cfg.GetAppLocale(),
	}
	return handlers.NewLoginHandler(forms, bus, meta, cfg.GetSuccessRedirect()), nil
}
