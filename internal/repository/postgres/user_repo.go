package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventregistration/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `
		SELECT id, email, name, last_name, created_at, updated_at
		FROM users
		WHERE ` + where
	u := &domain.User{}
	var name, lastName sql.NullString
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &name, &lastName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Name = name.String
	u.LastName = lastName.String
	return u, nil
}

// GetByEmail matches case-insensitively; emails are stored as entered.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "LOWER(email) = $1", domain.NormalizeEmail(email))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}
