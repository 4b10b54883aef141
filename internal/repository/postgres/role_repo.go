package postgres

import (
	"context"
	"database/sql"

	"eventregistration/internal/domain"
)

type roleRepository struct {
	DB *sql.DB
}

// NewRoleRepository returns a domain.RoleRepository backed by the roles and
// user_roles tables.
func NewRoleRepository(db *sql.DB) domain.RoleRepository {
	return &roleRepository{DB: db}
}

func (r *roleRepository) HasRole(ctx context.Context, userID, code string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1 AND r.code = $2
		)
	`
	var ok bool
	if err := conn(ctx, r.DB).QueryRowContext(ctx, query, userID, code).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
