package gateway

import (
	"time"

	"github.com/google/uuid"
)

// Auth event kinds, shared with the server push channel.
const (
	EventSignedIn         = "signed_in"
	EventSignedOut        = "signed_out"
	EventTokenRefreshed   = "token_refreshed"
	EventUserUpdated      = "user_updated"
	EventPasswordRecovery = "password_recovery"
)

type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
}

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// AuthEvent is delivered to subscribers. Session is nil for signed_out.
type AuthEvent struct {
	Kind    string
	Session *Session
	At      time.Time
}

type Profile struct {
	ID                 uuid.UUID  `json:"id"`
	Username           string     `json:"username"`
	UsernameCustomized bool       `json:"username_customized"`
	Name               *string    `json:"name"`
	Email              *string    `json:"email"`
	PhotoURL           *string    `json:"photo_url"`
	Role               string     `json:"role"`
	LastLoginAt        *time.Time `json:"last_login_at"`
	IsComplete         bool       `json:"is_complete"`
}

type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	PhotoURL *string `json:"photo_url,omitempty"`
	Username *string `json:"username,omitempty"`
}

type Test struct {
	ID       uuid.UUID `json:"id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	IsActive bool      `json:"is_active"`
	Tags     []string  `json:"tags"`
}

type Question struct {
	ID           uuid.UUID `json:"id"`
	TestID       uuid.UUID `json:"test_id"`
	OrderIndex   int       `json:"order_index"`
	QuestionText string    `json:"question_text"`
	OptionA      string    `json:"option_a"`
	OptionB      string    `json:"option_b"`
	OptionC      string    `json:"option_c"`
	OptionD      string    `json:"option_d"`
}

// Option returns the text for letter A-D.
func (q Question) Option(letter string) string {
	switch letter {
	case "A":
		return q.OptionA
	case "B":
		return q.OptionB
	case "C":
		return q.OptionC
	case "D":
		return q.OptionD
	}
	return ""
}

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

type Attempt struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	TestID       uuid.UUID  `json:"test_id"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	ScoreCorrect *int       `json:"score_correct"`
	ScoreTotal   *int       `json:"score_total"`
	ScorePercent *int       `json:"score_percent"`
}

type Answer struct {
	ID             uuid.UUID `json:"id"`
	AttemptID      uuid.UUID `json:"attempt_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption string    `json:"selected_option"`
	IsCorrect      *bool     `json:"is_correct"`
}

type ReviewItem struct {
	QuestionID     uuid.UUID `json:"question_id"`
	OrderIndex     int       `json:"order_index"`
	QuestionText   string    `json:"question_text"`
	OptionA        string    `json:"option_a"`
	OptionB        string    `json:"option_b"`
	OptionC        string    `json:"option_c"`
	OptionD        string    `json:"option_d"`
	CorrectOption  string    `json:"correct_option"`
	SelectedOption *string   `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
}

type Notification struct {
	ID             uuid.UUID  `json:"id"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Read           bool       `json:"read"`
	NextReminderAt *time.Time `json:"next_reminder_at"`
	CreatedAt      time.Time  `json:"created_at"`
}
