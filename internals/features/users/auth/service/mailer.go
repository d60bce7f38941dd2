package service

import (
	"context"
	"log"
	"net/url"

	"wasitku_backend/internals/configs"
)

// Mailer delivers the links behind email confirmation and password recovery.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, link string) error
	SendRecovery(ctx context.Context, email, link string) error
}

// LogMailer writes links to the log; used until an SMTP provider is wired.
type LogMailer struct{}

func (LogMailer) SendConfirmation(_ context.Context, email, link string) error {
	log.Printf("[MAIL] confirmation for %s: %s", email, link)
	return nil
}

func (LogMailer) SendRecovery(_ context.Context, email, link string) error {
	log.Printf("[MAIL] password recovery for %s: %s", email, link)
	return nil
}

func confirmationLink(token string) string {
	return configs.AppBaseURL + "/auth/confirm?token=" + url.QueryEscape(token)
}

func recoveryLink(token string) string {
	return configs.AppBaseURL + "/auth/recover?token=" + url.QueryEscape(token)
}
