package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/authshell/internal/audit"
	"github.com/nfrund/authshell/internal/loginform"
	"github.com/nfrund/authshell/internal/middleware"
	"github.com/nfrund/authshell/internal/pubsub"
	"github.com/nfrund/authshell/internal/view"
	cmp "maragu.dev/gomponents"
)

const (
	formSessionName = "login-form"
	formSessionKey  = "form_id"

	// successMessage is shown after an accepted login.
	successMessage = "Logged in successfully!"
)

// LoginHandler serves the login page and drives one form controller per visitor.
type LoginHandler struct {
	forms           *loginform.Registry
	events          pubsub.Publisher
	meta            view.Meta
	successRedirect string
}

// NewLoginHandler creates a new LoginHandler. events may be nil, in which case
// no login events are published. An empty successRedirect keeps the visitor on
// the login page after a successful attempt.
func NewLoginHandler(forms *loginform.Registry, events pubsub.Publisher, meta view.Meta, successRedirect string) *LoginHandler {
	return &LoginHandler{
		forms:           forms,
		events:          events,
		meta:            meta,
		successRedirect: successRedirect,
	}
}

// LoginGet renders the login page (GET /auth/login). Every load mounts a
// fresh form, discarding any previous state for this visitor.
func (h *LoginHandler) LoginGet(c echo.Context) error {
	ctrl, err := h.mount(c)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, ctrl.State(), view.GetFlashData(c))
}

// FieldPost records a single field edit (POST /auth/login/field) and returns
// the re-rendered field group.
func (h *LoginHandler) FieldPost(c echo.Context) error {
	var req FieldChangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form data.")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown field.")
	}

	field, _ := loginform.ParseField(req.Field)
	ctrl, err := h.current(c)
	if err != nil {
		return err
	}
	if err := ctrl.OnFieldChange(field, c.FormValue(req.Field)); err != nil {
		if errors.Is(err, loginform.ErrSubmitInProgress) {
			return c.Render(http.StatusConflict, "", view.FieldGroup(ctrl.State(), field))
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.Render(http.StatusOK, "", view.FieldGroup(ctrl.State(), field))
}

// RememberPost flips the remember-me flag (POST /auth/login/remember) and
// returns the re-rendered options row.
func (h *LoginHandler) RememberPost(c echo.Context) error {
	ctrl, err := h.current(c)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if err := ctrl.ToggleRememberMe(); err != nil {
		status = http.StatusConflict
	}
	return c.Render(status, "", view.FormOptions(ctrl.State()))
}

// LoginPost handles the form submission (POST /auth/login).
func (h *LoginHandler) LoginPost(c echo.Context) error {
	logger := middleware.FromContext(c.Request().Context())

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form data.")
	}

	ctrl, err := h.current(c)
	if err != nil {
		return err
	}

	// The controller refuses edits while an attempt is in flight, so a post
	// arriving then cannot rewrite the values being checked.
	if err := syncPosted(ctrl, req); err != nil {
		return h.render(c, http.StatusConflict, ctrl.State(), view.FlashData{})
	}

	data, err := ctrl.SubmitData(c.Request().Context())
	state := ctrl.State()

	switch {
	case errors.Is(err, loginform.ErrSubmitInProgress):
		return h.render(c, http.StatusConflict, state, view.FlashData{})

	case errors.Is(err, loginform.ErrInvalidForm):
		return h.render(c, http.StatusUnprocessableEntity, state, view.FlashData{})

	case errors.Is(err, loginform.ErrLoginFailed):
		logger.Warn("Failed login attempt", "email", req.Email, "error", err)
		h.publish(c, false, data, state.RememberMe, err.Error())
		return h.render(c, http.StatusUnauthorized, state, view.FlashData{})

	case err != nil:
		return err
	}

	h.publish(c, true, data, state.RememberMe, "")

	if h.successRedirect != "" {
		view.SetFlashSuccess(c, successMessage)
		if isHTMX(c) {
			c.Response().Header().Set("HX-Redirect", h.successRedirect)
			return c.NoContent(http.StatusOK)
		}
		return c.Redirect(http.StatusSeeOther, h.successRedirect)
	}

	return h.render(c, http.StatusOK, state, view.FlashData{Success: []string{successMessage}})
}

// syncPosted applies the posted values through the controller so that each
// changed field drops its stale error. It fails with
// loginform.ErrSubmitInProgress while an attempt is in flight.
func syncPosted(ctrl *loginform.Controller, req LoginRequest) error {
	state := ctrl.State()
	if state.Data.Email != req.Email {
		if err := ctrl.OnFieldChange(loginform.FieldEmail, req.Email); err != nil {
			return err
		}
	}
	if state.Data.Password != req.Password {
		if err := ctrl.OnFieldChange(loginform.FieldPassword, req.Password); err != nil {
			return err
		}
	}
	if state.RememberMe != req.Remember() {
		return ctrl.ToggleRememberMe()
	}
	return nil
}

// publish reports a settled attempt. data must be the values the
// authenticator checked, not the current form state.
func (h *LoginHandler) publish(c echo.Context, succeeded bool, data loginform.FormData, rememberMe bool, reason string) {
	if h.events == nil {
		return
	}
	ev := audit.LoginEvent{
		Email:      data.Email,
		RememberMe: rememberMe,
		RemoteIP:   c.RealIP(),
		Reason:     reason,
		At:         time.Now().UTC(),
	}
	reqID := c.Response().Header().Get(echo.HeaderXRequestID)
	if err := audit.PublishLogin(c.Request().Context(), h.events, succeeded, ev, reqID); err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to publish login event", "error", err)
	}
}

// render writes either the bare form (htmx swaps) or the full page.
func (h *LoginHandler) render(c echo.Context, status int, state loginform.State, flashes view.FlashData) error {
	var node cmp.Node
	if isHTMX(c) {
		node = cmp.Group{view.Flashes(flashes), view.LoginForm(state)}
	} else {
		node = view.LoginPage(h.meta, state, flashes)
	}
	return c.Render(status, "", node)
}

// mount starts a new form for this visitor and stores its id in the session.
func (h *LoginHandler) mount(c echo.Context) (*loginform.Controller, error) {
	sess, err := session.Get(formSessionName, c)
	if err != nil {
		return nil, err
	}

	if id, ok := sess.Values[formSessionKey].(string); ok && id != "" {
		h.forms.Delete(id)
	}

	id, ctrl := h.forms.Mount()
	sess.Values[formSessionKey] = id
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return nil, err
	}
	return ctrl, nil
}

// current returns the visitor's live form, mounting one when the session has
// none or its form has expired.
func (h *LoginHandler) current(c echo.Context) (*loginform.Controller, error) {
	sess, err := session.Get(formSessionName, c)
	if err != nil {
		return nil, err
	}

	if id, ok := sess.Values[formSessionKey].(string); ok && id != "" {
		if ctrl, ok := h.forms.Get(id); ok {
			return ctrl, nil
		}
		return h.forms.Reset(id), nil
	}
	return h.mount(c)
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}
