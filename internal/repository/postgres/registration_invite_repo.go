package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventregistration/internal/domain"
)

const registrationInviteColumns = `id, group_id, email, token_hash, status, invited_by_user_id, expires_at, accepted_by_user_id, accepted_at, created_at, updated_at`

type registrationInviteRepository struct {
	DB *sql.DB
}

// NewRegistrationInviteRepository returns a domain.RegistrationInviteRepository implemented with Postgres.
func NewRegistrationInviteRepository(db *sql.DB) domain.RegistrationInviteRepository {
	return &registrationInviteRepository{DB: db}
}

func scanRegistrationInvite(row rowScanner) (*domain.RegistrationInvite, error) {
	inv := &domain.RegistrationInvite{}
	var invitedBy, acceptedBy sql.NullString
	var expiresAt, acceptedAt sql.NullTime
	if err := row.Scan(
		&inv.ID, &inv.GroupID, &inv.Email, &inv.TokenHash, &inv.Status,
		&invitedBy, &expiresAt, &acceptedBy, &acceptedAt, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	inv.InvitedByUserID = stringPtr(invitedBy)
	inv.ExpiresAt = timePtr(expiresAt)
	inv.AcceptedByUserID = stringPtr(acceptedBy)
	inv.AcceptedAt = timePtr(acceptedAt)
	return inv, nil
}

func (r *registrationInviteRepository) Create(ctx context.Context, inv *domain.RegistrationInvite) error {
	query := `
		INSERT INTO registration_invites (group_id, email, token_hash, status, invited_by_user_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return conn(ctx, r.DB).QueryRowContext(ctx, query,
		inv.GroupID, inv.Email, inv.TokenHash, string(inv.Status),
		nullString(inv.InvitedByUserID), nullTime(inv.ExpiresAt), inv.CreatedAt, inv.UpdatedAt,
	).Scan(&inv.ID)
}

func (r *registrationInviteRepository) getOne(ctx context.Context, where string, arg any) (*domain.RegistrationInvite, error) {
	query := `SELECT ` + registrationInviteColumns + ` FROM registration_invites WHERE ` + where
	inv, err := scanRegistrationInvite(conn(ctx, r.DB).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *registrationInviteRepository) GetByID(ctx context.Context, id string) (*domain.RegistrationInvite, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *registrationInviteRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RegistrationInvite, error) {
	return r.getOne(ctx, "token_hash = $1", tokenHash)
}

func (r *registrationInviteRepository) RevokePending(ctx context.Context, groupID, email string) (int64, error) {
	query := `
		UPDATE registration_invites SET status = 'revoked', updated_at = NOW()
		WHERE group_id = $1 AND email = $2 AND status = 'pending'
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, groupID, domain.NormalizeEmail(email))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *registrationInviteRepository) TransitionStatus(ctx context.Context, id string, from, to domain.InviteStatus) error {
	query := `UPDATE registration_invites SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, id, string(from), string(to))
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *registrationInviteRepository) MarkAccepted(ctx context.Context, id, userID string, acceptedAt time.Time) error {
	query := `
		UPDATE registration_invites
		SET status = 'accepted', accepted_by_user_id = $2, accepted_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, id, userID, acceptedAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
