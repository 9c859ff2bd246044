package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/authshell/internal/audit"
	"github.com/nfrund/authshell/internal/authn"
	"github.com/nfrund/authshell/internal/domain"
	"github.com/nfrund/authshell/internal/handlers"
	"github.com/nfrund/authshell/internal/loginform"
	"github.com/nfrund/authshell/internal/pubsub"
	"github.com/nfrund/authshell/internal/rendering"
	"github.com/nfrund/authshell/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "a-very-secret-key-for-testing-!"

// recordingPublisher keeps every published message.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []pubsub.Message
}

func (p *recordingPublisher) Publish(ctx context.Context, msg pubsub.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.msgs {
		out = append(out, m.Topic)
	}
	return out
}

func (p *recordingPublisher) Events(t *testing.T) []audit.LoginEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []audit.LoginEvent
	for _, m := range p.msgs {
		var ev audit.LoginEvent
		require.NoError(t, json.Unmarshal(m.Payload, &ev))
		out = append(out, ev)
	}
	return out
}

// countingAuth counts attempts and answers with result.
type countingAuth struct {
	mu     sync.Mutex
	calls  int
	result error
}

func (a *countingAuth) AttemptLogin(ctx context.Context, email, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.result
}

func (a *countingAuth) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type testApp struct {
	e      *echo.Echo
	events *recordingPublisher
	forms  *loginform.Registry
}

func setupLoginTest(auth domain.Authenticator, successRedirect string) *testApp {
	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Renderer = rendering.NewUniversalRenderer()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(testSessionSecret))))

	forms := loginform.NewRegistry(func() *loginform.Controller {
		return loginform.NewController(auth)
	}, time.Hour)
	events := &recordingPublisher{}
	h := handlers.NewLoginHandler(forms, events, view.Meta{Title: "next.js", Locale: "zh-CN"}, successRedirect)

	e.GET(view.LoginPath, h.LoginGet)
	e.POST(view.LoginPath, h.LoginPost)
	e.POST(view.LoginFieldPath, h.FieldPost)
	e.POST(view.LoginRememberPath, h.RememberPost)

	return &testApp{e: e, events: events, forms: forms}
}

// client replays the cookies set by earlier responses, like a browser.
type client struct {
	app     *testApp
	mu      sync.Mutex
	cookies map[string]*http.Cookie
}

func newClient(app *testApp) *client {
	return &client{app: app, cookies: map[string]*http.Cookie{}}
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	cl.mu.Lock()
	for _, ck := range cl.cookies {
		req.AddCookie(ck)
	}
	cl.mu.Unlock()

	rec := httptest.NewRecorder()
	cl.app.e.ServeHTTP(rec, req)

	cl.mu.Lock()
	for _, ck := range rec.Result().Cookies() {
		cl.cookies[ck.Name] = ck
	}
	cl.mu.Unlock()
	return rec
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (cl *client) post(path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return cl.do(req)
}

func creds(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestLoginGet(t *testing.T) {
	app := setupLoginTest(&countingAuth{}, "")
	cl := newClient(app)

	rec := cl.get(view.LoginPath)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="zh-CN">`)
	assert.Contains(t, body, "Log In")
	assert.Contains(t, body, `<span class="button-label">Log in</span>`)
	assert.Equal(t, 1, app.forms.Len())

	t.Run("reload remounts the form", func(t *testing.T) {
		cl.post(view.LoginPath, creds("", ""), false)
		rec := cl.get(view.LoginPath)

		assert.NotContains(t, rec.Body.String(), "error-text")
		assert.Equal(t, 1, app.forms.Len(), "the previous form is dropped")
	})
}

func TestLoginPost(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		auth := &countingAuth{}
		app := setupLoginTest(auth, "")
		cl := newClient(app)
		cl.get(view.LoginPath)

		rec := cl.post(view.LoginPath, creds("a@b.com", "secret1"), false)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Logged in successfully!")
		assert.NotContains(t, rec.Body.String(), "error-message")
		assert.Equal(t, 1, auth.Calls())
		assert.Equal(t, []string{audit.TopicLoginSucceeded}, app.events.Topics())
	})

	t.Run("empty email and short password", func(t *testing.T) {
		auth := &countingAuth{}
		cl := newClient(setupLoginTest(auth, ""))

		rec := cl.post(view.LoginPath, creds("", "123"), false)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Email is required")
		assert.Contains(t, rec.Body.String(), "Password must be at least 6 characters")
		assert.Zero(t, auth.Calls())
	})

	t.Run("malformed email", func(t *testing.T) {
		auth := &countingAuth{}
		cl := newClient(setupLoginTest(auth, ""))

		rec := cl.post(view.LoginPath, creds("bad-email", "validpass"), false)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Email address is invalid")
		assert.NotContains(t, rec.Body.String(), "Password must")
		assert.Zero(t, auth.Calls())
	})

	t.Run("rejected credentials", func(t *testing.T) {
		auth := &countingAuth{result: domain.ErrInvalidCredentials}
		app := setupLoginTest(auth, "")
		cl := newClient(app)

		rec := cl.post(view.LoginPath, creds("a@b.com", "secret1"), false)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid email or password. Please try again.")
		assert.Contains(t, rec.Body.String(), `<span class="button-label">Log in</span>`)
		assert.Equal(t, []string{audit.TopicLoginFailed}, app.events.Topics())
	})

	t.Run("htmx gets the form fragment", func(t *testing.T) {
		cl := newClient(setupLoginTest(&countingAuth{}, ""))

		rec := cl.post(view.LoginPath, creds("", ""), true)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := rec.Body.String()
		assert.True(t, strings.HasPrefix(body, `<form id="login-form"`), body)
		assert.NotContains(t, body, "<html")
	})

	t.Run("redirects when a target is configured", func(t *testing.T) {
		cl := newClient(setupLoginTest(&countingAuth{}, "/dashboard"))

		rec := cl.post(view.LoginPath, creds("a@b.com", "secret1"), false)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		rec = cl.post(view.LoginPath, creds("a@b.com", "secret1"), true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("HX-Redirect"))
	})

	t.Run("remember-me checkbox is honoured", func(t *testing.T) {
		cl := newClient(setupLoginTest(&countingAuth{}, ""))
		form := creds("", "")
		form.Set("rememberMe", "on")

		rec := cl.post(view.LoginPath, form, true)
		assert.Contains(t, rec.Body.String(), " checked")
	})
}

func TestLoginPost_DoubleSubmitWhileLoading(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	auth := authn.Func(func(ctx context.Context, email, password string) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})

	app := setupLoginTest(auth, "")
	cl := newClient(app)
	cl.get(view.LoginPath)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- cl.post(view.LoginPath, creds("a@b.com", "secret1"), true) }()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first submission never reached the authenticator")
	}

	rec := cl.post(view.LoginPath, creds("other@b.com", "another"), true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span class="button-label">Logging in...</span>`)
	assert.Contains(t, rec.Body.String(), `value="a@b.com"`, "in-flight values are kept")

	close(release)
	res := <-first
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `<span class="button-label">Log in</span>`)
	assert.Equal(t, []string{audit.TopicLoginSucceeded}, app.events.Topics())
}

func TestLoginPost_EditsDuringAttemptAreRefused(t *testing.T) {
	started := make(chan string, 1)
	release := make(chan struct{})
	auth := authn.Func(func(ctx context.Context, email, password string) error {
		started <- email
		<-release
		return nil
	})

	app := setupLoginTest(auth, "")
	cl := newClient(app)
	cl.get(view.LoginPath)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- cl.post(view.LoginPath, creds("a@b.com", "secret1"), true) }()

	var checked string
	select {
	case checked = <-started:
	case <-time.After(time.Second):
		t.Fatal("submission never reached the authenticator")
	}
	require.Equal(t, "a@b.com", checked)

	rec := cl.post(view.LoginFieldPath, url.Values{"field": {"email"}, "email": {"victim@x.com"}}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="a@b.com"`)
	assert.Contains(t, rec.Body.String(), " disabled")

	rec = cl.post(view.LoginRememberPath, nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Body.String(), " checked")

	close(release)
	res := <-first
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `value="a@b.com"`)
	assert.NotContains(t, res.Body.String(), "victim@x.com")

	events := app.events.Events(t)
	require.Len(t, events, 1)
	assert.Equal(t, "a@b.com", events[0].Email, "the event names the account that was checked")
	assert.False(t, events[0].RememberMe)
}

func TestFieldPost(t *testing.T) {
	cl := newClient(setupLoginTest(&countingAuth{}, ""))
	cl.get(view.LoginPath)
	rec := cl.post(view.LoginPath, creds("", ""), true)
	require.Contains(t, rec.Body.String(), "Email is required")

	t.Run("changing a field clears its error", func(t *testing.T) {
		rec := cl.post(view.LoginFieldPath, url.Values{"field": {"email"}, "email": {"a"}}, true)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.True(t, strings.HasPrefix(body, `<div class="form-group" id="group-email"`), body)
		assert.Contains(t, body, `value="a"`)
		assert.NotContains(t, body, "error-text")
	})

	t.Run("password edit renders only the password group", func(t *testing.T) {
		rec := cl.post(view.LoginFieldPath, url.Values{"field": {"password"}, "password": {"x"}}, true)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.True(t, strings.HasPrefix(body, `<div class="form-group" id="group-password"`), body)
		assert.NotContains(t, body, "error-text")
		assert.NotContains(t, body, "group-email")
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		rec := cl.post(view.LoginFieldPath, url.Values{"field": {"general"}}, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = cl.post(view.LoginFieldPath, url.Values{}, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRememberPost(t *testing.T) {
	cl := newClient(setupLoginTest(&countingAuth{}, ""))
	cl.get(view.LoginPath)

	rec := cl.post(view.LoginRememberPath, nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="form-options"`)
	assert.Contains(t, rec.Body.String(), " checked")

	rec = cl.post(view.LoginRememberPath, nil, true)
	assert.NotContains(t, rec.Body.String(), " checked")
}

func TestLoginPost_BackendErrorStillSettles(t *testing.T) {
	auth := authn.Func(func(ctx context.Context, email, password string) error {
		return errors.New("connection refused")
	})
	cl := newClient(setupLoginTest(auth, ""))

	rec := cl.post(view.LoginPath, creds("a@b.com", "secret1"), true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span class="button-label">Log in</span>`)
	assert.NotContains(t, rec.Body.String(), " disabled")
}
