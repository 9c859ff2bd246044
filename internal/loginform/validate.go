package loginform

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest accepted password, counted in runes.
const MinPasswordLength = 6

// emailPattern is a deliberately loose check: something, an "@", something,
// a ".", something. It is not anchored.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// credentials is the validation view of FormData. The validator reports at
// most one failing tag per field, in tag order, so "required" wins over the
// format rules.
type credentials struct {
	Email    string `validate:"required,loginemail"`
	// min counts runes for strings: three emoji are three characters here,
	// although a UTF-16 length would count six.
	Password string `validate:"required,min=6"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("loginemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("loginform: register email rule: %v", err))
	}
	return v
}

// Validate checks every field of data and returns all failures at once.
// The form is valid iff the returned map is empty.
func Validate(data FormData) (bool, FormErrors) {
	errs := FormErrors{}
	for field, problem := range problems(data) {
		errs[field] = problem.String()
	}
	return len(errs) == 0, errs
}

// problems runs the rules and maps validator failures onto the taxonomy.
func problems(data FormData) map[Field]Problem {
	out := map[Field]Problem{}

	err := validate.Struct(credentials{Email: data.Email, Password: data.Password})
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only reachable on a programming error in credentials itself.
		panic(fmt.Sprintf("loginform: unexpected validation error: %v", err))
	}

	for _, fe := range verrs {
		switch fe.StructField() {
		case "Email":
			if fe.Tag() == "required" {
				out[FieldEmail] = EmailRequired
			} else {
				out[FieldEmail] = EmailInvalid
			}
		case "Password":
			if fe.Tag() == "required" {
				out[FieldPassword] = PasswordRequired
			} else {
				out[FieldPassword] = PasswordTooShort
			}
		}
	}
	return out
}
