package session

import (
	"errors"
	"net/http"
	"testing"

	. "github.com/onsi/gomega"

	"wasitku_backend/internals/client/gateway"
)

func TestAuthMessage(t *testing.T) {
	g := NewWithT(t)

	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&gateway.APIError{Status: http.StatusUnauthorized, Message: "Invalid login credentials"}, "Invalid email or password"},
		{&gateway.APIError{Status: http.StatusForbidden, Message: "Email not confirmed"}, "Please confirm your email before logging in"},
		{&gateway.APIError{Status: http.StatusConflict, Message: "User already registered"}, "An account with this email already exists"},
		{ErrUsernameTaken, "Username is already taken"},
		{errors.New("dial tcp: connection refused"), GenericFailure},
	}
	for _, tc := range cases {
		g.Expect(AuthMessage(tc.err)).To(Equal(tc.want))
	}
}

func TestCheckKeepsFirstMessagePerField(t *testing.T) {
	g := NewWithT(t)

	err := check(signUpForm{Email: "", Password: "abc", ConfirmPassword: ""})
	var ve *ValidationError
	g.Expect(errors.As(err, &ve)).To(BeTrue())
	g.Expect(ve.Fields).To(Equal(map[string]string{
		"email":            "Email is required",
		"password":         "Password must be at least 6 characters",
		"confirm_password": "Please confirm your password",
	}))

	g.Expect(check(usernameForm{Username: "ab"})).To(HaveOccurred())
	g.Expect(check(usernameForm{Username: "ref_01"})).To(Succeed())
}
