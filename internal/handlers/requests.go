package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// LoginRequest is the full form as posted on submit. Field rules are not
// expressed here; they belong to the form controller so that failures turn
// into inline errors instead of a 400.
type LoginRequest struct {
	Email      string `form:"email"`
	Password   string `form:"password"`
	RememberMe string `form:"rememberMe"`
}

// Remember reports whether the remember-me checkbox was ticked.
func (r LoginRequest) Remember() bool {
	return r.RememberMe != ""
}

// FieldChangeRequest names the input whose value changed. The value itself
// is posted under the field's own name.
type FieldChangeRequest struct {
	Field string `form:"field" validate:"required,oneof=email password"`
}
