package gateway

import (
	"context"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

/* ==========================
   Profile
========================== */

func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, fiber.MethodGet, "/api/u/profile", nil, &p, true); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, fiber.MethodPatch, "/api/u/profile", in, &p, true); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) SetUsername(ctx context.Context, username string) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, fiber.MethodPut, "/api/u/profile/username", fiber.Map{"username": username}, &p, true); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	var out struct {
		Available bool `json:"available"`
	}
	path := "/api/u/profile/username-available?username=" + url.QueryEscape(username)
	if err := c.do(ctx, fiber.MethodGet, path, nil, &out, true); err != nil {
		return false, err
	}
	return out.Available, nil
}

func (c *Client) RecordLastLogin(ctx context.Context) error {
	return c.do(ctx, fiber.MethodPost, "/api/u/profile/last-login", nil, nil, true)
}

/* ==========================
   Tests & attempts
========================== */

func (c *Client) ListTests(ctx context.Context) ([]Test, error) {
	var out []Test
	err := c.do(ctx, fiber.MethodGet, "/api/u/tests", nil, &out, true)
	return out, err
}

func (c *Client) GetTest(ctx context.Context, slug string) (*Test, error) {
	var t Test
	if err := c.do(ctx, fiber.MethodGet, "/api/u/tests/"+url.PathEscape(slug), nil, &t, true); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListQuestions returns questions ordered by order_index, without the answer key.
func (c *Client) ListQuestions(ctx context.Context, slug string) ([]Question, error) {
	var out struct {
		Questions []Question `json:"questions"`
	}
	if err := c.do(ctx, fiber.MethodGet, "/api/u/tests/"+url.PathEscape(slug)+"/questions", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// CurrentAttempt gets or creates the in-progress attempt for slug.
func (c *Client) CurrentAttempt(ctx context.Context, slug string) (*Attempt, error) {
	var out struct {
		Attempt Attempt `json:"attempt"`
	}
	if err := c.do(ctx, fiber.MethodPost, "/api/u/tests/"+url.PathEscape(slug)+"/attempts/current", nil, &out, true); err != nil {
		return nil, err
	}
	return &out.Attempt, nil
}

func (c *Client) ListAttempts(ctx context.Context, slug, status string) ([]Attempt, error) {
	path := "/api/u/tests/" + url.PathEscape(slug) + "/attempts"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out []Attempt
	err := c.do(ctx, fiber.MethodGet, path, nil, &out, true)
	return out, err
}

func (c *Client) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]Answer, error) {
	var out []Answer
	err := c.do(ctx, fiber.MethodGet, "/api/u/attempts/"+attemptID.String()+"/answers", nil, &out, true)
	return out, err
}

func (c *Client) UpsertAnswer(ctx context.Context, attemptID, questionID uuid.UUID, option string) (*Answer, error) {
	var a Answer
	path := "/api/u/attempts/" + attemptID.String() + "/answers/" + questionID.String()
	if err := c.do(ctx, fiber.MethodPut, path, fiber.Map{"selected_option": option}, &a, true); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) SubmitAttempt(ctx context.Context, attemptID uuid.UUID) (*Attempt, error) {
	var a Attempt
	if err := c.do(ctx, fiber.MethodPost, "/api/u/attempts/"+attemptID.String()+"/submit", nil, &a, true); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) ReviewAttempt(ctx context.Context, attemptID uuid.UUID) ([]ReviewItem, error) {
	var out struct {
		Items []ReviewItem `json:"items"`
	}
	if err := c.do(ctx, fiber.MethodGet, "/api/u/attempts/"+attemptID.String()+"/review", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Items, nil
}

/* ==========================
   Notifications
========================== */

func (c *Client) ActiveNotifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	err := c.do(ctx, fiber.MethodGet, "/api/u/notifications/active", nil, &out, true)
	return out, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, fiber.MethodPatch, "/api/u/notifications/"+id.String()+"/read", nil, nil, true)
}

func (c *Client) RemindLater(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, fiber.MethodPatch, "/api/u/notifications/"+id.String()+"/remind-later", nil, nil, true)
}

func (c *Client) DismissNotification(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, fiber.MethodPatch, "/api/u/notifications/"+id.String()+"/dismiss", nil, nil, true)
}
