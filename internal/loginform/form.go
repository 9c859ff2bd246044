// Package loginform holds the state machine behind the login page: field
// values, per-field and general errors, the in-flight flag and the
// remember-me toggle. Every transition goes through Reduce.
package loginform

// Field names a form input, or the form-wide general slot for errors.
type Field string

const (
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
	FieldGeneral  Field = "general"
)

// ParseField maps a posted field name onto an editable Field.
func ParseField(name string) (Field, bool) {
	switch Field(name) {
	case FieldEmail, FieldPassword:
		return Field(name), true
	default:
		return "", false
	}
}

// FormData holds the credential inputs.
type FormData struct {
	Email    string
	Password string
}

// with returns a copy of d with field set to value.
func (d FormData) with(field Field, value string) FormData {
	switch field {
	case FieldEmail:
		d.Email = value
	case FieldPassword:
		d.Password = value
	}
	return d
}

// Value returns the current value of an editable field.
func (d FormData) Value(field Field) string {
	switch field {
	case FieldEmail:
		return d.Email
	case FieldPassword:
		return d.Password
	default:
		return ""
	}
}

// FormErrors maps a field to its display message. A missing key means the
// field has no error.
type FormErrors map[Field]string

// Clone returns an independent copy. A nil receiver yields an empty map.
func (e FormErrors) Clone() FormErrors {
	out := make(FormErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Has reports whether field carries an error.
func (e FormErrors) Has(field Field) bool {
	_, ok := e[field]
	return ok
}

// Phase is the externally observable position of the form.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseSubmitting:
		return "submitting"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// State is a snapshot of the whole form.
type State struct {
	Data       FormData
	Errors     FormErrors
	Loading    bool
	RememberMe bool
}

// NewState returns the state of a freshly mounted form.
func NewState() State {
	return State{Errors: FormErrors{}}
}

// Phase derives the current phase from the flags.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseSubmitting
	case s.Errors.Has(FieldGeneral):
		return PhaseError
	default:
		return PhaseIdle
	}
}

// clone copies s so that no map is shared with the original.
func (s State) clone() State {
	s.Errors = s.Errors.Clone()
	return s
}
