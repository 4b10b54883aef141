package domain

import (
	"context"
	"time"
)

// Audit actions recorded by the registration group services.
const (
	AuditGroupCreated   = "registration_group.created"
	AuditGroupUpdated   = "registration_group.updated"
	AuditMemberInvited  = "registration_group.member_invited"
	AuditInviteRevoked  = "registration_invite.revoked"
	AuditInviteAccepted = "registration_invite.accepted"
	AuditInviteDeclined = "registration_invite.declined"
	AuditMemberRemoved  = "registration_group.member_removed"
)

// Audit target types.
const (
	AuditTargetGroup  = "registration_group"
	AuditTargetInvite = "registration_invite"
	AuditTargetMember = "registration_group_member"
)

// AuditEntry is one record in the audit log.
type AuditEntry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	ActorID    string         `json:"actor_id"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditRepository appends audit entries.
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
}
