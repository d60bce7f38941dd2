package session

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var looseEmail = regexp.MustCompile(`\S+@\S+\.\S+`)
var usernameChars = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidationError carries one message per form field. It is returned before
// any remote call is made.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

type signInForm struct {
	Email    string `validate:"required,loose_email"`
	Password string `validate:"required"`
}

type signUpForm struct {
	Email           string `validate:"required,loose_email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type emailForm struct {
	Email string `validate:"required,loose_email"`
}

type passwordForm struct {
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type usernameForm struct {
	Username string `validate:"required,min=3,max=30,username_chars"`
}

var validate = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username_chars", func(fl validator.FieldLevel) bool {
		return usernameChars.MatchString(fl.Field().String())
	})
	return v
}()

// messages by field then tag; "" is the field fallback.
var messages = map[string]map[string]string{
	"Email": {
		"required":    "Email is required",
		"loose_email": "Please enter a valid email",
	},
	"Password": {
		"required": "Password is required",
		"min":      "Password must be at least 6 characters",
	},
	"ConfirmPassword": {
		"required": "Please confirm your password",
		"eqfield":  "Passwords do not match",
	},
	"Username": {
		"required": "Username is required",
		"":         "Username must be 3-30 characters of a-z, 0-9 or _",
	},
}

var fieldKeys = map[string]string{
	"Email":           "email",
	"Password":        "password",
	"ConfirmPassword": "confirm_password",
	"Username":        "username",
}

// check runs the validator and keeps the first message per field.
func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &ValidationError{Fields: map[string]string{}}
	for _, fe := range ves {
		key := fieldKeys[fe.Field()]
		if _, seen := out.Fields[key]; seen {
			continue
		}
		byTag := messages[fe.Field()]
		msg, ok := byTag[fe.Tag()]
		if !ok {
			msg = byTag[""]
		}
		if msg == "" {
			msg = "Invalid value"
		}
		out.Fields[key] = msg
	}
	return out
}
