package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RegistrationInviteEmailData holds data for the registration group invite email.
type RegistrationInviteEmailData struct {
	Email         string
	EventName     string
	GroupType     GroupType
	InvitedByName string
	Token         string
	InviteURL     string
	ExpiresAt     *time.Time
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendRegistrationInvite(ctx context.Context, data *RegistrationInviteEmailData) error
}
