package gateway

import (
	"strings"
	"time"

	"wasitku_backend/internals/configs"
)

type Config struct {
	BaseURL string
	// WSURL is the auth-event listener root; empty disables the push channel.
	WSURL   string
	Timeout time.Duration
	// RefreshMargin is how long before expiry the session is refreshed.
	RefreshMargin time.Duration
	Store         SessionStore
}

// ConfigFromEnv reads WASITKU_API_URL, WASITKU_WS_URL and WASITKU_TIMEOUT.
func ConfigFromEnv() Config {
	return Config{
		BaseURL:       strings.TrimRight(configs.GetEnv("WASITKU_API_URL", "http://localhost:3000"), "/"),
		WSURL:         strings.TrimRight(configs.GetEnv("WASITKU_WS_URL", "ws://localhost:3001"), "/"),
		Timeout:       configs.GetEnvDuration("WASITKU_TIMEOUT", 15*time.Second),
		RefreshMargin: time.Minute,
	}
}
