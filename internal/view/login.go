package view

import (
	"github.com/nfrund/authshell/internal/loginform"
	cmp "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	g "maragu.dev/gomponents/html"
)

// Paths served by the login handlers.
const (
	LoginPath          = "/auth/login"
	LoginFieldPath     = "/auth/login/field"
	LoginRememberPath  = "/auth/login/remember"
	ForgotPasswordPath = "/forgot-password"
	RegisterPath       = "/register"
)

// LoginPage renders the full login page inside the auth layout.
func LoginPage(meta Meta, state loginform.State, flashes FlashData) cmp.Node {
	return Layout(meta,
		g.Div(g.Class("login-container"),
			g.Div(g.Class("login-form"),
				g.H1(g.Class("title"), cmp.Text("Log In")),
				g.P(g.Class("subtitle"), cmp.Text("Welcome back! Please enter your details.")),
				Flashes(flashes),
				LoginForm(state),
			),
		),
	)
}

// Flashes renders success and error flash messages.
func Flashes(f FlashData) cmp.Node {
	return cmp.Group{
		cmp.Map(f.Success, func(msg string) cmp.Node {
			return g.Div(g.Class("flash flash-success"), g.Role("status"), cmp.Text(msg))
		}),
		cmp.Map(f.Error, func(msg string) cmp.Node {
			return g.Div(g.Class("flash flash-error"), g.Role("alert"), cmp.Text(msg))
		}),
	}
}

// LoginForm renders the form element. It is also the htmx swap target for
// submissions.
func LoginForm(state loginform.State) cmp.Node {
	general, hasGeneral := state.Errors[loginform.FieldGeneral]

	return g.Form(
		g.ID("login-form"),
		g.Method("post"),
		g.Action(LoginPath),
		hx.Post(LoginPath),
		hx.Target("this"),
		hx.Swap("outerHTML"),
		// The attempt blocks the request, so the busy state is shown on the
		// client while it is pending.
		hx.DisabledElt(submitDisabledElts),
		cmp.If(hasGeneral, g.Div(g.Class("error-message"), g.Role("alert"), cmp.Text(general))),
		FieldGroup(state, loginform.FieldEmail),
		FieldGroup(state, loginform.FieldPassword),
		FormOptions(state),
		g.Button(
			g.Type("submit"),
			g.Class("login-button"),
			cmp.If(state.Loading, g.Disabled()),
			g.Span(g.Class("button-label"), cmp.Text(submitLabel(state.Loading))),
			g.Span(g.Class("button-busy"), g.Aria("hidden", "true"), cmp.Text(submitLabel(true))),
		),
		g.Div(g.Class("signup-prompt"),
			cmp.Text("Don't have an account? "),
			g.A(g.Href(RegisterPath), g.Class("signup-link"), cmp.Text("Sign up")),
		),
	)
}

// submitDisabledElts lists what htmx disables while a submission is pending.
const submitDisabledElts = "find input, find button"

func submitLabel(loading bool) string {
	if loading {
		return "Logging in..."
	}
	return "Log in"
}

type fieldSpec struct {
	label       string
	inputType   string
	placeholder string
}

var fieldSpecs = map[loginform.Field]fieldSpec{
	loginform.FieldEmail:    {label: "Email", inputType: "email", placeholder: "Enter your email"},
	loginform.FieldPassword: {label: "Password", inputType: "password", placeholder: "Enter your password"},
}

// FieldGroup renders one input with its label and inline error. Each change
// is posted on its own so the server can clear that field's error.
func FieldGroup(state loginform.State, field loginform.Field) cmp.Node {
	spec := fieldSpecs[field]
	name := string(field)
	groupID := "group-" + name
	msg, hasErr := state.Errors[field]

	inputClass := ""
	if hasErr {
		inputClass = "input-error"
	}

	return g.Div(g.Class("form-group"), g.ID(groupID),
		g.Label(g.For(name), cmp.Text(spec.label)),
		g.Input(
			g.Type(spec.inputType),
			g.ID(name),
			g.Name(name),
			g.Value(state.Data.Value(field)),
			g.Placeholder(spec.placeholder),
			cmp.If(inputClass != "", g.Class(inputClass)),
			cmp.If(state.Loading, g.Disabled()),
			hx.Post(LoginFieldPath),
			hx.Trigger("change"),
			hx.Target("#"+groupID),
			hx.Swap("outerHTML"),
			hx.Vals(`{"field":"`+name+`"}`),
		),
		cmp.If(hasErr, g.Span(g.Class("error-text"), cmp.Text(msg))),
	)
}

// FormOptions renders the remember-me toggle and the forgot-password link.
func FormOptions(state loginform.State) cmp.Node {
	return g.Div(g.Class("form-options"), g.ID("form-options"),
		g.Div(g.Class("remember-me"),
			g.Input(
				g.Type("checkbox"),
				g.ID("rememberMe"),
				g.Name("rememberMe"),
				cmp.If(state.RememberMe, g.Checked()),
				cmp.If(state.Loading, g.Disabled()),
				hx.Post(LoginRememberPath),
				hx.Trigger("change"),
				hx.Target("#form-options"),
				hx.Swap("outerHTML"),
			),
			g.Label(g.For("rememberMe"), cmp.Text("Remember me")),
		),
		g.A(g.Href(ForgotPasswordPath), g.Class("forgot-password"), cmp.Text("Forgot password?")),
	)
}
