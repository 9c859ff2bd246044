package view_test

import (
	"strings"
	"testing"

	"github.com/nfrund/authshell/internal/loginform"
	"github.com/nfrund/authshell/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"
)

func render(t *testing.T, n cmp.Node) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, n.Render(&b))
	return b.String()
}

func TestLayout(t *testing.T) {
	out := render(t, view.Layout(view.Meta{
		Title:       "next.js",
		Description: "Gen...",
		Locale:      "zh-CN",
	}, g.P(cmp.Text("child"))))

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, `<html lang="zh-CN">`)
	assert.Contains(t, out, `<meta name="google" content="notranslate">`)
	assert.Contains(t, out, `<title>next.js</title>`)
	assert.Contains(t, out, `<meta name="description" content="Gen...">`)
	assert.Contains(t, out, `<link rel="stylesheet" href="/static/auth.css">`)
	assert.Contains(t, out, `<body><p>child</p></body>`)
}

func TestLayout_OmitsEmptyMetadata(t *testing.T) {
	out := render(t, view.Layout(view.Meta{Locale: "en"}))
	assert.NotContains(t, out, "<title>")
	assert.NotContains(t, out, `name="description"`)
}

func TestLoginForm(t *testing.T) {
	t.Run("idle form", func(t *testing.T) {
		out := render(t, view.LoginForm(loginform.NewState()))

		assert.Contains(t, out, `type="email"`)
		assert.Contains(t, out, `type="password"`)
		assert.Contains(t, out, `type="checkbox"`)
		assert.Contains(t, out, `<span class="button-label">Log in</span>`)
		assert.Contains(t, out, `href="/forgot-password"`)
		assert.Contains(t, out, `href="/register"`)
		assert.NotContains(t, out, " disabled")
		assert.NotContains(t, out, "error-text")
		assert.NotContains(t, out, "error-message")
	})

	t.Run("loading disables inputs and relabels the button", func(t *testing.T) {
		s := loginform.Reduce(loginform.NewState(), loginform.SubmitStarted{})
		out := render(t, view.LoginForm(s))

		assert.Contains(t, out, `<span class="button-label">Logging in...</span>`)
		assert.Equal(t, 4, strings.Count(out, " disabled"), "email, password, checkbox and button")
	})

	t.Run("pending submission shows the busy state", func(t *testing.T) {
		out := render(t, view.LoginForm(loginform.NewState()))

		assert.Contains(t, out, `hx-disabled-elt="find input, find button"`)
		assert.Contains(t, out, `<span class="button-busy" aria-hidden="true">Logging in...</span>`)
		assert.Contains(t, out, `<span class="button-label">Log in</span>`)
	})

	t.Run("field errors render inline", func(t *testing.T) {
		_, errs := loginform.Validate(loginform.FormData{Email: "", Password: "123"})
		s := loginform.Reduce(loginform.NewState(), loginform.Validated{Errors: errs})
		out := render(t, view.LoginForm(s))

		assert.Contains(t, out, `<span class="error-text">Email is required</span>`)
		assert.Contains(t, out, `<span class="error-text">Password must be at least 6 characters</span>`)
		assert.Equal(t, 2, strings.Count(out, `class="input-error"`))
	})

	t.Run("general error renders as a banner", func(t *testing.T) {
		s := loginform.Reduce(loginform.NewState(), loginform.SubmitFailed{})
		out := render(t, view.LoginForm(s))

		assert.Contains(t, out, `class="error-message"`)
		assert.Contains(t, out, "Invalid email or password. Please try again.")
	})

	t.Run("keeps values and remember-me", func(t *testing.T) {
		s := loginform.NewState()
		s = loginform.Reduce(s, loginform.FieldChanged{Field: loginform.FieldEmail, Value: "a@b.com"})
		s = loginform.Reduce(s, loginform.RememberToggled{})
		out := render(t, view.LoginForm(s))

		assert.Contains(t, out, `value="a@b.com"`)
		assert.Contains(t, out, " checked")
	})

	t.Run("wires htmx endpoints", func(t *testing.T) {
		out := render(t, view.LoginForm(loginform.NewState()))

		assert.Contains(t, out, `hx-post="/auth/login"`)
		assert.Contains(t, out, `hx-post="/auth/login/field"`)
		assert.Contains(t, out, `hx-post="/auth/login/remember"`)
		assert.Contains(t, out, `hx-target="#group-email"`)
	})
}

func TestLoginPage(t *testing.T) {
	out := render(t, view.LoginPage(
		view.Meta{Title: "Login", Locale: "zh-CN"},
		loginform.NewState(),
		view.FlashData{Success: []string{"Logged in successfully!"}},
	))

	assert.Contains(t, out, "<h1 class=\"title\">Log In</h1>")
	assert.Contains(t, out, "Welcome back! Please enter your details.")
	assert.Contains(t, out, `class="flash flash-success"`)
	assert.Contains(t, out, "Logged in successfully!")
	assert.Contains(t, out, `id="login-form"`)
}
