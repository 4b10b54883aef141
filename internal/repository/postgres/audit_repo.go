package postgres

import (
	"context"
	"database/sql"

	"eventregistration/internal/domain"
)

type auditRepository struct {
	DB *sql.DB
}

// NewAuditRepository returns a domain.AuditRepository writing to the audit_log table.
func NewAuditRepository(db *sql.DB) domain.AuditRepository {
	return &auditRepository{DB: db}
}

func (r *auditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	metadata, err := encodeJSONB(e.Metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO audit_log (action, actor_id, target_type, target_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var actorID sql.NullString
	if e.ActorID != "" {
		actorID = sql.NullString{String: e.ActorID, Valid: true}
	}
	return conn(ctx, r.DB).QueryRowContext(ctx, query,
		e.Action, actorID, e.TargetType, e.TargetID, metadata, e.CreatedAt,
	).Scan(&e.ID)
}
