package domain

import (
	"context"
	"time"
)

// InviteStatus is the lifecycle status of a registration invite.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
	InviteStatusExpired  InviteStatus = "expired"
)

// DefaultInviteTTL is how long an invite stays redeemable when no expiry is requested.
const DefaultInviteTTL = 7 * 24 * time.Hour

// RegistrationInvite is an emailed offer to join a registration group. Only the hash of
// the token is stored; the plaintext travels in the invite link.
// swagger:model RegistrationInvite
type RegistrationInvite struct {
	ID               string       `json:"id"`
	GroupID          string       `json:"group_id"`
	Email            string       `json:"email"`
	TokenHash        string       `json:"-"`
	Status           InviteStatus `json:"status"`
	InvitedByUserID  *string      `json:"invited_by_user_id,omitempty"`
	ExpiresAt        *time.Time   `json:"expires_at,omitempty"`
	AcceptedByUserID *string      `json:"accepted_by_user_id,omitempty"`
	AcceptedAt       *time.Time   `json:"accepted_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// ExpiredAt reports whether the invite has a deadline at or before now.
func (inv *RegistrationInvite) ExpiredAt(now time.Time) bool {
	return inv.ExpiresAt != nil && !inv.ExpiresAt.After(now)
}

// InviteResult is returned to whoever issued an invite.
// swagger:model InviteResult
type InviteResult struct {
	InviteID  string     `json:"invite_id"`
	MemberID  string     `json:"member_id"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Redemption outcomes reported by accept and decline.
const (
	RedemptionJoined        = "joined"
	RedemptionAlreadyMember = "already_member"
	RedemptionDeclined      = "declined"
)

// RedemptionResult is the outcome of accepting or declining an invite.
// swagger:model RedemptionResult
type RedemptionResult struct {
	Status   string `json:"status"`
	GroupID  string `json:"group_id"`
	MemberID string `json:"member_id,omitempty"`
}

// InvitePreview describes an invite to someone who may not be signed in yet.
// swagger:model InvitePreview
type InvitePreview struct {
	Valid         bool         `json:"valid"`
	Expired       bool         `json:"expired"`
	Status        InviteStatus `json:"status,omitempty"`
	EventID       string       `json:"event_id,omitempty"`
	EventName     string       `json:"event_name,omitempty"`
	GroupID       string       `json:"group_id,omitempty"`
	GroupType     GroupType    `json:"group_type,omitempty"`
	InvitedByName string       `json:"invited_by_name,omitempty"`
	InviteEmail   string       `json:"invite_email,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
}

// InviteTokenCodec generates invite tokens and derives their storage keys.
type InviteTokenCodec interface {
	GenerateToken() (string, error)
	HashToken(token string) string
}

// RegistrationInviteRepository defines storage for registration invites.
type RegistrationInviteRepository interface {
	Create(ctx context.Context, inv *RegistrationInvite) error
	GetByID(ctx context.Context, id string) (*RegistrationInvite, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*RegistrationInvite, error)
	// RevokePending revokes every pending invite for the group and email, returning the count.
	RevokePending(ctx context.Context, groupID, email string) (int64, error)
	// TransitionStatus moves the invite from one status to another. It returns ErrNotFound
	// when the invite is not currently in status from.
	TransitionStatus(ctx context.Context, id string, from, to InviteStatus) error
	// MarkAccepted accepts a pending invite. It returns ErrNotFound when the invite is no longer pending.
	MarkAccepted(ctx context.Context, id, userID string, acceptedAt time.Time) error
}

// RegistrationInviteService defines the invite lifecycle.
type RegistrationInviteService interface {
	Invite(ctx context.Context, actor *Principal, groupID, email string, role MemberRole, expiresAt *time.Time) (*InviteResult, error)
	Revoke(ctx context.Context, actor *Principal, inviteID string) (*RegistrationInvite, error)
	Accept(ctx context.Context, actor *Principal, token string) (*RedemptionResult, error)
	Decline(ctx context.Context, actor *Principal, token string) (*RedemptionResult, error)
	RemoveMember(ctx context.Context, actor *Principal, memberID string) (*GroupMember, error)
	GetInvitePreview(ctx context.Context, token string) (*InvitePreview, error)
}
