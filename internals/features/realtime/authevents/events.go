package authevents

import (
	"time"

	"github.com/google/uuid"
)

// Kinds pushed to every connection of the affected user.
const (
	SignedIn         = "signed_in"
	SignedOut        = "signed_out"
	TokenRefreshed   = "token_refreshed"
	UserUpdated      = "user_updated"
	PasswordRecovery = "password_recovery"
)

type Event struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"user_id"`
	At     time.Time `json:"at"`
}

// Publisher is what feature services depend on; the Hub implements it.
type Publisher interface {
	Publish(userID uuid.UUID, kind string)
}

// NopPublisher drops every event. Used by seeds and tests.
type NopPublisher struct{}

func (NopPublisher) Publish(uuid.UUID, string) {}
