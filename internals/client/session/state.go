package session

import (
	"time"

	"wasitku_backend/internals/client/gateway"
)

type AuthStatus string

const (
	CheckingSession AuthStatus = "checking_session"
	Authenticated   AuthStatus = "authenticated"
	Unauthenticated AuthStatus = "unauthenticated"
)

// ProfileStatus only means something while Authenticated.
type ProfileStatus string

const (
	ProfileLoading    ProfileStatus = "loading"
	ProfileIncomplete ProfileStatus = "incomplete"
	ProfileComplete   ProfileStatus = "complete"
)

// Snapshot is a read-only copy of the reconciler state.
type Snapshot struct {
	AuthStatus     AuthStatus
	ProfileStatus  ProfileStatus
	Session        *gateway.Session
	User           *gateway.User
	Profile        *gateway.Profile
	SessionExpired bool
}

// Loading mirrors the "still checking" flag forms use to hold rendering.
func (s Snapshot) Loading() bool { return s.AuthStatus == CheckingSession }

// IsProfileComplete: a custom username has been chosen and a name is set.
func IsProfileComplete(p *gateway.Profile) bool {
	return p != nil && p.UsernameCustomized && p.Name != nil
}

func profileStatusOf(p *gateway.Profile) ProfileStatus {
	if IsProfileComplete(p) {
		return ProfileComplete
	}
	return ProfileIncomplete
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.Session != nil {
		cp := *s.Session
		cp.User = cloneUser(s.Session.User)
		out.Session = &cp
	}
	if s.User != nil {
		u := cloneUser(*s.User)
		out.User = &u
	}
	out.Profile = cloneProfile(s.Profile)
	return out
}

func cloneUser(u gateway.User) gateway.User {
	u.EmailConfirmedAt = cloneTime(u.EmailConfirmedAt)
	return u
}

func cloneProfile(p *gateway.Profile) *gateway.Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Name = cloneString(p.Name)
	cp.Email = cloneString(p.Email)
	cp.PhotoURL = cloneString(p.PhotoURL)
	cp.LastLoginAt = cloneTime(p.LastLoginAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
