package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventregistration/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendRegistrationInvite sends a group invite using the "registration_invite" template.
func (s *emailService) SendRegistrationInvite(ctx context.Context, data *domain.RegistrationInviteEmailData) error {
	if data == nil {
		return fmt.Errorf("registration invite data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("registration_invite", data)
	if err != nil {
		return fmt.Errorf("failed to render registration_invite template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send registration invite email: %w", err)
	}
	s.logger.InfoContext(ctx, "registration invite email sent", slog.String("to", data.Email))
	return nil
}
