package domain

import (
	"context"
	"strings"
	"time"
)

// MemberRole is a member's role within a registration group.
type MemberRole string

const (
	MemberRoleCaptain MemberRole = "captain"
	MemberRoleMember  MemberRole = "member"
)

// Valid reports whether r is a known role.
func (r MemberRole) Valid() bool {
	return r == MemberRoleCaptain || r == MemberRoleMember
}

// GroupMember is a person attached to a registration group. UserID is nil until the
// invitee has an account; Email is the matching key until then.
// swagger:model GroupMember
type GroupMember struct {
	ID              string         `json:"id"`
	GroupID         string         `json:"group_id"`
	UserID          *string        `json:"user_id,omitempty"`
	Email           string         `json:"email"`
	Role            MemberRole     `json:"role"`
	Status          MemberStatus   `json:"status"`
	InvitedByUserID *string        `json:"invited_by_user_id,omitempty"`
	InvitedAt       time.Time      `json:"invited_at"`
	JoinedAt        *time.Time     `json:"joined_at,omitempty"`
	RosterMetadata  map[string]any `json:"roster_metadata"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewCaptainMember returns the active captain row created together with a group.
func NewCaptainMember(groupID, userID, email string, now time.Time) *GroupMember {
	uid := userID
	joined := now
	return &GroupMember{
		GroupID:         groupID,
		UserID:          &uid,
		Email:           NormalizeEmail(email),
		Role:            MemberRoleCaptain,
		Status:          MemberStatusActive,
		InvitedByUserID: &uid,
		InvitedAt:       now,
		JoinedAt:        &joined,
		RosterMetadata:  map[string]any{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Matches reports whether the member belongs to the given user, falling back to the
// normalized email for members not yet linked to an account.
func (m *GroupMember) Matches(userID, email string) bool {
	if userID != "" && m.UserID != nil && *m.UserID == userID {
		return true
	}
	return email != "" && m.Email == NormalizeEmail(email)
}

// NormalizeEmail is the canonical form used wherever emails are compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GroupMemberRepository defines storage for registration group members.
type GroupMemberRepository interface {
	Create(ctx context.Context, m *GroupMember) error
	GetByID(ctx context.Context, id string) (*GroupMember, error)
	ListByGroupID(ctx context.Context, groupID string) ([]*GroupMember, error)
	ListByGroupIDs(ctx context.Context, groupIDs []string) ([]*GroupMember, error)
	// Update writes the mutable columns (user, email, role, status, invitation and join data).
	Update(ctx context.Context, m *GroupMember) error
	UpdateStatus(ctx context.Context, id string, status MemberStatus) error
	// UpdateStatusByGroupAndEmail returns the number of rows changed.
	UpdateStatusByGroupAndEmail(ctx context.Context, groupID, email string, status MemberStatus) (int64, error)
}
