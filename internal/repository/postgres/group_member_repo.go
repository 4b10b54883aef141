package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventregistration/internal/domain"
)

const groupMemberColumns = `id, group_id, user_id, email, role, status, invited_by_user_id, invited_at, joined_at, roster_metadata, created_at, updated_at`

type groupMemberRepository struct {
	DB *sql.DB
}

// NewGroupMemberRepository returns a domain.GroupMemberRepository implemented with Postgres.
func NewGroupMemberRepository(db *sql.DB) domain.GroupMemberRepository {
	return &groupMemberRepository{DB: db}
}

func scanGroupMember(row rowScanner) (*domain.GroupMember, error) {
	m := &domain.GroupMember{}
	var userID, invitedBy sql.NullString
	var joinedAt sql.NullTime
	var roster []byte
	if err := row.Scan(
		&m.ID, &m.GroupID, &userID, &m.Email, &m.Role, &m.Status,
		&invitedBy, &m.InvitedAt, &joinedAt, &roster, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.UserID = stringPtr(userID)
	m.InvitedByUserID = stringPtr(invitedBy)
	m.JoinedAt = timePtr(joinedAt)
	meta, err := decodeJSONB(roster)
	if err != nil {
		return nil, err
	}
	m.RosterMetadata = meta
	return m, nil
}

func scanGroupMembers(rows *sql.Rows) ([]*domain.GroupMember, error) {
	defer rows.Close()
	members := make([]*domain.GroupMember, 0)
	for rows.Next() {
		m, err := scanGroupMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *groupMemberRepository) Create(ctx context.Context, m *domain.GroupMember) error {
	roster, err := encodeJSONB(m.RosterMetadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO registration_group_members
			(group_id, user_id, email, role, status, invited_by_user_id, invited_at, joined_at, roster_metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	return conn(ctx, r.DB).QueryRowContext(ctx, query,
		m.GroupID, nullString(m.UserID), m.Email, string(m.Role), string(m.Status),
		nullString(m.InvitedByUserID), m.InvitedAt, nullTime(m.JoinedAt), roster,
		m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
}

func (r *groupMemberRepository) GetByID(ctx context.Context, id string) (*domain.GroupMember, error) {
	query := `SELECT ` + groupMemberColumns + ` FROM registration_group_members WHERE id = $1`
	m, err := scanGroupMember(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *groupMemberRepository) ListByGroupID(ctx context.Context, groupID string) ([]*domain.GroupMember, error) {
	query := `SELECT ` + groupMemberColumns + `
		FROM registration_group_members
		WHERE group_id = $1
		ORDER BY invited_at ASC, id ASC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	return scanGroupMembers(rows)
}

func (r *groupMemberRepository) ListByGroupIDs(ctx context.Context, groupIDs []string) ([]*domain.GroupMember, error) {
	if len(groupIDs) == 0 {
		return []*domain.GroupMember{}, nil
	}
	query := `SELECT ` + groupMemberColumns + `
		FROM registration_group_members
		WHERE group_id = ANY($1)
		ORDER BY group_id, invited_at ASC, id ASC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, pq.Array(groupIDs))
	if err != nil {
		return nil, err
	}
	return scanGroupMembers(rows)
}

func (r *groupMemberRepository) Update(ctx context.Context, m *domain.GroupMember) error {
	query := `
		UPDATE registration_group_members
		SET user_id = $2, email = $3, role = $4, status = $5, invited_by_user_id = $6,
			invited_at = $7, joined_at = $8, updated_at = NOW()
		WHERE id = $1
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query,
		m.ID, nullString(m.UserID), m.Email, string(m.Role), string(m.Status),
		nullString(m.InvitedByUserID), m.InvitedAt, nullTime(m.JoinedAt),
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *groupMemberRepository) UpdateStatus(ctx context.Context, id string, status domain.MemberStatus) error {
	query := `UPDATE registration_group_members SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, id, string(status))
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *groupMemberRepository) UpdateStatusByGroupAndEmail(ctx context.Context, groupID, email string, status domain.MemberStatus) (int64, error) {
	query := `UPDATE registration_group_members SET status = $3, updated_at = NOW() WHERE group_id = $1 AND email = $2`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, groupID, domain.NormalizeEmail(email), string(status))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
