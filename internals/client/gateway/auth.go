package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

type authResult struct {
	User                 User     `json:"user"`
	Session              *Session `json:"session"`
	ConfirmationRequired bool     `json:"confirmation_required"`
}

func (r *authResult) session() *Session {
	if r.Session == nil {
		return nil
	}
	s := *r.Session
	s.User = r.User
	if s.ExpiresAt.IsZero() && s.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return &s
}

// startSession installs s and announces it as kind.
func (c *Client) startSession(s *Session, kind string) {
	c.setSession(s)
	c.startListener(s)
	c.emit(kind, s)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var res authResult
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/login", fiber.Map{
		"email":    email,
		"password": password,
	}, &res, false); err != nil {
		return nil, err
	}
	s := res.session()
	if s == nil {
		return nil, errors.New("gateway: login returned no session")
	}
	c.startSession(s, EventSignedIn)
	return s, nil
}

// SignUp returns a nil session when the account still needs email confirmation.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var res authResult
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/register", fiber.Map{
		"email":    email,
		"password": password,
	}, &res, false); err != nil {
		return nil, err
	}
	s := res.session()
	if s == nil {
		return nil, nil
	}
	c.startSession(s, EventSignedIn)
	return s, nil
}

func (c *Client) SignInWithGoogle(ctx context.Context, idToken string) (*Session, error) {
	var res authResult
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/login-google", fiber.Map{
		"id_token": idToken,
	}, &res, false); err != nil {
		return nil, err
	}
	s := res.session()
	if s == nil {
		return nil, errors.New("gateway: google login returned no session")
	}
	c.startSession(s, EventSignedIn)
	return s, nil
}

// Recover exchanges an emailed recovery token for a session.
func (c *Client) Recover(ctx context.Context, token string) (*Session, error) {
	var res authResult
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/recover", fiber.Map{"token": token}, &res, false); err != nil {
		return nil, err
	}
	s := res.session()
	if s == nil {
		return nil, errors.New("gateway: recovery returned no session")
	}
	c.startSession(s, EventPasswordRecovery)
	return s, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, fiber.MethodPost, "/api/auth/forgot-password", fiber.Map{"email": email}, nil, false)
}

func (c *Client) UpdatePassword(ctx context.Context, password, confirm string) error {
	return c.do(ctx, fiber.MethodPut, "/api/auth/password", fiber.Map{
		"password":         password,
		"confirm_password": confirm,
	}, nil, true)
}

// RefreshSession rotates the token pair. A rejected refresh token ends the
// session with a signed_out event.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	current := c.CurrentSession()
	if current == nil || current.RefreshToken == "" {
		return nil, ErrNoSession
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// someone else rotated while we waited
	if now := c.CurrentSession(); now == nil {
		return nil, ErrNoSession
	} else if now.RefreshToken != current.RefreshToken {
		return now, nil
	}

	var res authResult
	err := c.do(ctx, fiber.MethodPost, "/api/auth/refresh-token", fiber.Map{
		"refresh_token": current.RefreshToken,
	}, &res, false)
	if err != nil {
		if st := StatusOf(err); st == http.StatusUnauthorized || st == http.StatusForbidden {
			c.expire("refresh rejected")
		}
		return nil, err
	}
	s := res.session()
	if s == nil {
		return nil, errors.New("gateway: refresh returned no session")
	}
	// a sign-out while the request was in flight wins
	if !c.replaceSession(current.RefreshToken, s) {
		return nil, ErrNoSession
	}
	c.emit(EventTokenRefreshed, s)
	return s, nil
}

type sessionInfo struct {
	User      User       `json:"user"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// GetSession restores the stored session and confirms it with the gateway.
// It returns (nil, nil) when there is no usable session. No event is emitted.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	s := c.CurrentSession()
	if s == nil {
		stored, err := c.store.Load()
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, nil
		}
		c.mu.Lock()
		c.session = stored
		c.mu.Unlock()
		s = stored
	}

	if time.Until(s.ExpiresAt) < c.cfg.RefreshMargin {
		refreshed, err := c.RefreshSession(ctx)
		if err != nil {
			if IsUnauthorized(err) || StatusOf(err) == http.StatusForbidden || errors.Is(err, ErrNoSession) {
				return nil, nil
			}
			return nil, err
		}
		s = refreshed
	}

	var info sessionInfo
	if err := c.do(ctx, fiber.MethodGet, "/api/auth/session", nil, &info, true); err != nil {
		if IsUnauthorized(err) {
			// do already tried a refresh; use it when it worked
			if now := c.CurrentSession(); now != nil && now.AccessToken != s.AccessToken {
				return now, nil
			}
			c.dropSession()
			return nil, nil
		}
		return nil, err
	}
	s.User = info.User
	if info.ExpiresAt != nil {
		s.ExpiresAt = *info.ExpiresAt
	}
	c.setSession(s)
	c.startListener(s)
	return s, nil
}

// SignOut revokes the session remotely and always clears it locally.
func (c *Client) SignOut(ctx context.Context) error {
	token := c.accessToken()
	var err error
	if token != "" {
		status, raw, sendErr := c.send(ctx, fiber.MethodPost, "/api/auth/logout", nil, token)
		if sendErr != nil {
			err = sendErr
		} else if _, derr := decodeEnvelope(status, raw); derr != nil && status != http.StatusUnauthorized {
			err = derr
		}
	}
	if c.dropSession() {
		c.emit(EventSignedOut, nil)
	}
	return err
}
