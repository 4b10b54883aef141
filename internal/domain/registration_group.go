package domain

import (
	"context"
	"time"
)

// GroupType describes the kind of group registering together.
type GroupType string

const (
	GroupTypeIndividual GroupType = "individual"
	GroupTypePair       GroupType = "pair"
	GroupTypeTeam       GroupType = "team"
	GroupTypeRelay      GroupType = "relay"
	GroupTypeFamily     GroupType = "family"
)

// Valid reports whether t is a known group type.
func (t GroupType) Valid() bool {
	switch t {
	case GroupTypeIndividual, GroupTypePair, GroupTypeTeam, GroupTypeRelay, GroupTypeFamily:
		return true
	}
	return false
}

// GroupStatus is the lifecycle status of a registration group.
type GroupStatus string

const (
	GroupStatusDraft     GroupStatus = "draft"
	GroupStatusPending   GroupStatus = "pending"
	GroupStatusConfirmed GroupStatus = "confirmed"
	GroupStatusCancelled GroupStatus = "cancelled"
)

// Valid reports whether s is a known group status.
func (s GroupStatus) Valid() bool {
	switch s {
	case GroupStatusDraft, GroupStatusPending, GroupStatusConfirmed, GroupStatusCancelled:
		return true
	}
	return false
}

// RegistrationGroup is a set of people registering together for one event.
// Groups are never deleted; cancellation is a status.
// swagger:model RegistrationGroup
type RegistrationGroup struct {
	ID            string         `json:"id"`
	EventID       string         `json:"event_id"`
	GroupType     GroupType      `json:"group_type"`
	Status        GroupStatus    `json:"status"`
	CaptainUserID string         `json:"captain_user_id"`
	TeamID        *string        `json:"team_id,omitempty"`
	MinSize       *int           `json:"min_size,omitempty"`
	MaxSize       *int           `json:"max_size,omitempty"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewRegistrationGroup returns a draft group. ID is set by the repository on create.
func NewRegistrationGroup(eventID string, groupType GroupType, captainUserID string, createdAt time.Time) *RegistrationGroup {
	return &RegistrationGroup{
		EventID:       eventID,
		GroupType:     groupType,
		Status:        GroupStatusDraft,
		CaptainUserID: captainUserID,
		Metadata:      map[string]any{},
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

// RegistrationGroupPatch holds the fields of a partial group update. Nil means unchanged.
type RegistrationGroupPatch struct {
	Status   *GroupStatus
	MinSize  *int
	MaxSize  *int
	TeamID   *string
	Metadata map[string]any
}

// Empty reports whether the patch changes nothing.
func (p RegistrationGroupPatch) Empty() bool {
	return p.Status == nil && p.MinSize == nil && p.MaxSize == nil && p.TeamID == nil && p.Metadata == nil
}

// CreateGroupInput holds the caller-supplied fields for a new group.
type CreateGroupInput struct {
	EventID   string
	GroupType GroupType
	TeamID    *string
	MinSize   *int
	MaxSize   *int
	Metadata  map[string]any
}

// GroupRoster bundles a group with its members.
// swagger:model GroupRoster
type GroupRoster struct {
	Group   *RegistrationGroup `json:"group"`
	Members []*GroupMember     `json:"members"`
}

// RegistrationGroupRepository defines storage for registration groups.
type RegistrationGroupRepository interface {
	Create(ctx context.Context, g *RegistrationGroup) error
	GetByID(ctx context.Context, id string) (*RegistrationGroup, error)
	Update(ctx context.Context, id string, patch RegistrationGroupPatch) (*RegistrationGroup, error)
	ListByEventID(ctx context.Context, eventID string, params PaginationParams) ([]*RegistrationGroup, int, error)
}

// RegistrationGroupService defines group creation, updates and roster reads.
type RegistrationGroupService interface {
	CreateGroup(ctx context.Context, actor *Principal, in CreateGroupInput) (*RegistrationGroup, *GroupMember, error)
	UpdateGroup(ctx context.Context, actor *Principal, groupID string, patch RegistrationGroupPatch) (*RegistrationGroup, error)
	GetGroup(ctx context.Context, actor *Principal, groupID string) (*GroupRoster, error)
	ListGroupsForEvent(ctx context.Context, actor *Principal, eventID string, params PaginationParams) ([]*GroupRoster, int, error)
}
