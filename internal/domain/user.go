package domain

import (
	"context"
	"time"
)

// RoleCodeAdmin grants the admin capability over every registration group.
const RoleCodeAdmin = "admin"

// User represents a registered user
// swagger:model User
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns "Name LastName", falling back to the email.
func (u *User) DisplayName() string {
	name := u.Name
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// Role represents an application role (e.g. admin, attendee)
type Role struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID        string
	Email         string
	EmailVerified bool
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(principal Principal, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a bearer token and returns the caller it was issued to.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

// UserRepository defines the read access this service needs to users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// RoleRepository answers role membership questions for a user.
type RoleRepository interface {
	HasRole(ctx context.Context, userID, code string) (bool, error)
}
