package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/authshell/internal/middleware"
	"github.com/nfrund/authshell/internal/view"
	"github.com/nfrund/authshell/web"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	rateLimiter := middleware.RateLimiter(middleware.DefaultLoginRate)

	s.E.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, view.LoginPath)
	})

	s.E.StaticFS("/static", echo.MustSubFS(web.FS, "static"))

	s.E.GET(view.LoginPath, s.loginHandler.LoginGet)
	s.E.POST(view.LoginPath, s.loginHandler.LoginPost, rateLimiter)
	s.E.POST(view.LoginFieldPath, s.loginHandler.FieldPost)
	s.E.POST(view.LoginRememberPath, s.loginHandler.RememberPost)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
