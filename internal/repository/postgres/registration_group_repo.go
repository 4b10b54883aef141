package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventregistration/internal/domain"
)

const registrationGroupColumns = `id, event_id, group_type, status, captain_user_id, team_id, min_size, max_size, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type registrationGroupRepository struct {
	DB *sql.DB
}

// NewRegistrationGroupRepository returns a domain.RegistrationGroupRepository implemented with Postgres.
func NewRegistrationGroupRepository(db *sql.DB) domain.RegistrationGroupRepository {
	return &registrationGroupRepository{DB: db}
}

func scanRegistrationGroup(row rowScanner) (*domain.RegistrationGroup, error) {
	g := &domain.RegistrationGroup{}
	var teamID sql.NullString
	var minSize, maxSize sql.NullInt64
	var metadata []byte
	if err := row.Scan(
		&g.ID, &g.EventID, &g.GroupType, &g.Status, &g.CaptainUserID,
		&teamID, &minSize, &maxSize, &metadata, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	g.TeamID = stringPtr(teamID)
	g.MinSize = intPtr(minSize)
	g.MaxSize = intPtr(maxSize)
	m, err := decodeJSONB(metadata)
	if err != nil {
		return nil, err
	}
	g.Metadata = m
	return g, nil
}

func (r *registrationGroupRepository) Create(ctx context.Context, g *domain.RegistrationGroup) error {
	metadata, err := encodeJSONB(g.Metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO registration_groups (event_id, group_type, status, captain_user_id, team_id, min_size, max_size, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return conn(ctx, r.DB).QueryRowContext(ctx, query,
		g.EventID, string(g.GroupType), string(g.Status), g.CaptainUserID,
		nullString(g.TeamID), nullInt(g.MinSize), nullInt(g.MaxSize), metadata,
		g.CreatedAt, g.UpdatedAt,
	).Scan(&g.ID)
}

func (r *registrationGroupRepository) GetByID(ctx context.Context, id string) (*domain.RegistrationGroup, error) {
	query := `SELECT ` + registrationGroupColumns + ` FROM registration_groups WHERE id = $1`
	g, err := scanRegistrationGroup(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *registrationGroupRepository) Update(ctx context.Context, id string, patch domain.RegistrationGroupPatch) (*domain.RegistrationGroup, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	if patch.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", n))
		args = append(args, string(*patch.Status))
		n++
	}
	if patch.MinSize != nil {
		setClauses = append(setClauses, fmt.Sprintf("min_size = $%d", n))
		args = append(args, *patch.MinSize)
		n++
	}
	if patch.MaxSize != nil {
		setClauses = append(setClauses, fmt.Sprintf("max_size = $%d", n))
		args = append(args, *patch.MaxSize)
		n++
	}
	if patch.TeamID != nil {
		setClauses = append(setClauses, fmt.Sprintf("team_id = $%d", n))
		args = append(args, *patch.TeamID)
		n++
	}
	if patch.Metadata != nil {
		metadata, err := encodeJSONB(patch.Metadata)
		if err != nil {
			return nil, err
		}
		setClauses = append(setClauses, fmt.Sprintf("metadata = $%d", n))
		args = append(args, metadata)
		n++
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE registration_groups SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, registrationGroupColumns)
	g, err := scanRegistrationGroup(conn(ctx, r.DB).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *registrationGroupRepository) ListByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.RegistrationGroup, int, error) {
	q := conn(ctx, r.DB)
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM registration_groups WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + registrationGroupColumns + `
		FROM registration_groups
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.QueryContext(ctx, query, eventID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	groups := make([]*domain.RegistrationGroup, 0)
	for rows.Next() {
		g, err := scanRegistrationGroup(rows)
		if err != nil {
			return nil, 0, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}
