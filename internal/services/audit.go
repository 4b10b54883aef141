package services

import (
	"context"
	"log/slog"
	"time"

	"eventregistration/internal/domain"
)

// auditor writes audit entries after a successful commit. Failures are logged, never returned.
type auditor struct {
	repo   domain.AuditRepository
	logger *slog.Logger
	now    func() time.Time
}

func newAuditor(repo domain.AuditRepository, logger *slog.Logger) *auditor {
	return &auditor{repo: repo, logger: logger, now: time.Now}
}

func (a *auditor) record(ctx context.Context, action, actorID, targetType, targetID string, metadata map[string]any) {
	if a == nil || a.repo == nil {
		return
	}
	entry := &domain.AuditEntry{
		Action:     action,
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
		CreatedAt:  a.now(),
	}
	if err := a.repo.Append(ctx, entry); err != nil {
		a.logger.WarnContext(ctx, "audit append failed",
			slog.String("action", action),
			slog.String("target_id", targetID),
			slog.Any("error", err),
		)
	}
}
