package session_test

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"wasitku_backend/internals/client/gateway"
)

type fakeGateway struct {
	mu sync.Mutex

	events chan gateway.AuthEvent

	stored     *gateway.Session
	sessionErr error
	signInErr  error
	signUpPend bool
	profile    *gateway.Profile
	profileErr error
	profileHit chan struct{}
	taken      map[string]bool

	calls      []string
	lastLogins int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		events: make(chan gateway.AuthEvent, 16),
		taken:  map[string]bool{},
	}
}

func (f *fakeGateway) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGateway) LastLogins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastLogins
}

func (f *fakeGateway) setProfile(p *gateway.Profile, err error) {
	f.mu.Lock()
	f.profile, f.profileErr = p, err
	f.mu.Unlock()
}

func (f *fakeGateway) Subscribe() (<-chan gateway.AuthEvent, func()) {
	return f.events, func() {}
}

func (f *fakeGateway) GetSession(context.Context) (*gateway.Session, error) {
	f.record("GetSession")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored, f.sessionErr
}

func (f *fakeGateway) SignIn(_ context.Context, email, _ string) (*gateway.Session, error) {
	f.record("SignIn")
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return newSession(email), nil
}

func (f *fakeGateway) SignUp(_ context.Context, email, _ string) (*gateway.Session, error) {
	f.record("SignUp")
	if f.signUpPend {
		return nil, nil
	}
	return newSession(email), nil
}

func (f *fakeGateway) SignInWithGoogle(context.Context, string) (*gateway.Session, error) {
	f.record("SignInWithGoogle")
	return newSession("google@wasitku.test"), nil
}

func (f *fakeGateway) RequestPasswordReset(context.Context, string) error {
	f.record("RequestPasswordReset")
	return nil
}

func (f *fakeGateway) UpdatePassword(context.Context, string, string) error {
	f.record("UpdatePassword")
	return nil
}

func (f *fakeGateway) SignOut(context.Context) error {
	f.record("SignOut")
	return nil
}

func (f *fakeGateway) GetProfile(ctx context.Context) (*gateway.Profile, error) {
	f.record("GetProfile")
	f.mu.Lock()
	hit := f.profileHit
	f.mu.Unlock()
	if hit != nil {
		select {
		case <-hit:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return nil, &gateway.APIError{Status: http.StatusNotFound, Message: "Profile not found"}
	}
	cp := *f.profile
	return &cp, nil
}

func (f *fakeGateway) RecordLastLogin(context.Context) error {
	f.mu.Lock()
	f.lastLogins++
	f.mu.Unlock()
	return nil
}

func (f *fakeGateway) SetUsername(_ context.Context, username string) (*gateway.Profile, error) {
	f.record("SetUsername")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taken[username] {
		return nil, &gateway.APIError{Status: http.StatusConflict, Message: "Username is already taken"}
	}
	p := gateway.Profile{}
	if f.profile != nil {
		p = *f.profile
	}
	p.Username = username
	p.UsernameCustomized = true
	f.profile = &p
	cp := p
	return &cp, nil
}

func (f *fakeGateway) UpdateProfile(_ context.Context, in gateway.ProfileUpdate) (*gateway.Profile, error) {
	f.record("UpdateProfile")
	f.mu.Lock()
	defer f.mu.Unlock()
	p := gateway.Profile{}
	if f.profile != nil {
		p = *f.profile
	}
	if in.Name != nil {
		p.Name = in.Name
	}
	f.profile = &p
	cp := p
	return &cp, nil
}

func (f *fakeGateway) UsernameAvailable(_ context.Context, username string) (bool, error) {
	f.record("UsernameAvailable")
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.taken[username], nil
}

func newSession(email string) *gateway.Session {
	return &gateway.Session{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		TokenType:    "bearer",
		ExpiresIn:    3600,
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         gateway.User{ID: uuid.New(), Email: email},
	}
}

func strp(s string) *string { return &s }
