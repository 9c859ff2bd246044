package loginform

// Action is one of the tagged transitions accepted by Reduce.
type Action interface {
	action()
}

// FieldChanged records a new value for an editable field.
type FieldChanged struct {
	Field Field
	Value string
}

// Validated replaces the error set with a validation result.
type Validated struct {
	Errors FormErrors
}

// SubmitStarted marks the beginning of a login attempt.
type SubmitStarted struct{}

// SubmitSucceeded marks a login attempt accepted by the backend.
type SubmitSucceeded struct{}

// SubmitFailed marks a login attempt that ended in any error.
type SubmitFailed struct {
	Err error
}

// RememberToggled flips the remember-me flag.
type RememberToggled struct{}

func (FieldChanged) action()    {}
func (Validated) action()       {}
func (SubmitStarted) action()   {}
func (SubmitSucceeded) action() {}
func (SubmitFailed) action()    {}
func (RememberToggled) action() {}

// Reduce applies a to s and returns the next state. s is never modified and
// the returned state shares no maps with it.
func Reduce(s State, a Action) State {
	next := s.clone()

	switch a := a.(type) {
	case FieldChanged:
		if _, ok := ParseField(string(a.Field)); !ok {
			return next
		}
		next.Data = next.Data.with(a.Field, a.Value)
		delete(next.Errors, a.Field)

	case Validated:
		next.Errors = a.Errors.Clone()

	case SubmitStarted:
		next.Loading = true
		next.Errors = FormErrors{}

	case SubmitSucceeded:
		next.Loading = false

	case SubmitFailed:
		next.Loading = false
		next.Errors = FormErrors{FieldGeneral: GeneralAuthFailure.String()}

	case RememberToggled:
		next.RememberMe = !next.RememberMe
	}

	return next
}
