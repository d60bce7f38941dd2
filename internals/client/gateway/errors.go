package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
)

var ErrNoSession = errors.New("gateway: no active session")

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	Status  int
	Message string
	Code    string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway: HTTP %d", e.Status)
	}
	return e.Message
}

// StatusOf returns the HTTP status behind err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func IsNotFound(err error) bool     { return StatusOf(err) == http.StatusNotFound }
func IsConflict(err error) bool     { return StatusOf(err) == http.StatusConflict }
func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }

// envelope mirrors the server's {success, message, error_code, errors, data}.
type envelope struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code"`
	Errors    map[string][]string `json:"errors"`
	Data      json.RawMessage     `json:"data"`
}

func decodeEnvelope(status int, body []byte) (*envelope, error) {
	var env envelope
	if len(body) > 0 {
		if err := sonic.Unmarshal(body, &env); err != nil && status < 300 {
			return nil, fmt.Errorf("gateway: decode response: %w", err)
		}
	}
	if status >= 300 {
		return nil, &APIError{
			Status:  status,
			Message: env.Message,
			Code:    env.ErrorCode,
			Fields:  env.Errors,
		}
	}
	return &env, nil
}
