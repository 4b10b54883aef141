package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"eventregistration/internal/domain"
)

type registrationGroupService struct {
	groupRepo      domain.RegistrationGroupRepository
	memberRepo     domain.GroupMemberRepository
	eventRepo      domain.EventRepository
	tx             domain.Transactor
	authz          *authorizer
	audit          *auditor
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

// NewRegistrationGroupService returns a RegistrationGroupService backed by the given repositories.
func NewRegistrationGroupService(
	groupRepo domain.RegistrationGroupRepository,
	memberRepo domain.GroupMemberRepository,
	eventRepo domain.EventRepository,
	roleRepo domain.RoleRepository,
	auditRepo domain.AuditRepository,
	tx domain.Transactor,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationGroupService {
	return &registrationGroupService{
		groupRepo:      groupRepo,
		memberRepo:     memberRepo,
		eventRepo:      eventRepo,
		tx:             tx,
		authz:          &authorizer{eventRepo: eventRepo, roleRepo: roleRepo},
		audit:          newAuditor(auditRepo, logger),
		logger:         logger,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

func (s *registrationGroupService) CreateGroup(ctx context.Context, actor *domain.Principal, in domain.CreateGroupInput) (group *domain.RegistrationGroup, captain *domain.GroupMember, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "RegistrationGroupService.CreateGroup", attribute.String("event.id", in.EventID))
	defer func() { finishSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	if !in.GroupType.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown group type %q", domain.ErrInvalidInput, in.GroupType)
	}
	if err := validateSizes(in.MinSize, in.MaxSize); err != nil {
		return nil, nil, err
	}

	if _, err := s.eventRepo.GetByID(ctx, in.EventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}

	now := s.now()
	group = domain.NewRegistrationGroup(in.EventID, in.GroupType, actor.UserID, now)
	group.TeamID = in.TeamID
	group.MinSize = in.MinSize
	group.MaxSize = in.MaxSize
	if in.Metadata != nil {
		group.Metadata = in.Metadata
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.groupRepo.Create(ctx, group); err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		captain = domain.NewCaptainMember(group.ID, actor.UserID, actor.Email, now)
		if err := s.memberRepo.Create(ctx, captain); err != nil {
			return fmt.Errorf("create captain member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.audit.record(ctx, domain.AuditGroupCreated, actor.UserID, domain.AuditTargetGroup, group.ID, map[string]any{
		"event_id":   group.EventID,
		"group_type": string(group.GroupType),
		"captain_id": captain.ID,
	})
	return group, captain, nil
}

func (s *registrationGroupService) UpdateGroup(ctx context.Context, actor *domain.Principal, groupID string, patch domain.RegistrationGroupPatch) (updated *domain.RegistrationGroup, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "RegistrationGroupService.UpdateGroup", attribute.String("group.id", groupID))
	defer func() { finishSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.requireGroupManager(ctx, actor, group); err != nil {
		return nil, err
	}

	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown group status %q", domain.ErrInvalidInput, *patch.Status)
	}
	minSize, maxSize := group.MinSize, group.MaxSize
	if patch.MinSize != nil {
		minSize = patch.MinSize
	}
	if patch.MaxSize != nil {
		maxSize = patch.MaxSize
	}
	if err := validateSizes(minSize, maxSize); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return group, nil
	}

	updated, err = s.groupRepo.Update(ctx, groupID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update group: %w", err)
	}

	if diff := groupDiff(group, updated); len(diff) > 0 {
		s.audit.record(ctx, domain.AuditGroupUpdated, actor.UserID, domain.AuditTargetGroup, groupID, diff)
	}
	return updated, nil
}

func (s *registrationGroupService) GetGroup(ctx context.Context, actor *domain.Principal, groupID string) (roster *domain.GroupRoster, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "RegistrationGroupService.GetGroup", attribute.String("group.id", groupID))
	defer func() { finishSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := s.memberRepo.ListByGroupID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	// Any member of the group may read its roster, whatever their status. An
	// unverified email claim does not identify an invitee.
	email := ""
	if actor.EmailVerified {
		email = actor.Email
	}
	if findMember(members, actor.UserID, email) == nil {
		if err := s.authz.requireGroupManager(ctx, actor, group); err != nil {
			return nil, err
		}
	}
	return &domain.GroupRoster{Group: group, Members: members}, nil
}

func (s *registrationGroupService) ListGroupsForEvent(ctx context.Context, actor *domain.Principal, eventID string, params domain.PaginationParams) (rosters []*domain.GroupRoster, total int, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "RegistrationGroupService.ListGroupsForEvent", attribute.String("event.id", eventID))
	defer func() { finishSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, 0, err
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != actor.UserID {
		admin, err := s.authz.isAdmin(ctx, actor.UserID)
		if err != nil {
			return nil, 0, err
		}
		if !admin {
			return nil, 0, domain.ErrForbidden
		}
	}

	groups, total, err := s.groupRepo.ListByEventID(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	members, err := s.memberRepo.ListByGroupIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	byGroup := make(map[string][]*domain.GroupMember, len(groups))
	for _, m := range members {
		byGroup[m.GroupID] = append(byGroup[m.GroupID], m)
	}

	rosters = make([]*domain.GroupRoster, 0, len(groups))
	for _, g := range groups {
		ms := byGroup[g.ID]
		if ms == nil {
			ms = []*domain.GroupMember{}
		}
		rosters = append(rosters, &domain.GroupRoster{Group: g, Members: ms})
	}
	return rosters, total, nil
}

func (s *registrationGroupService) getGroup(ctx context.Context, groupID string) (*domain.RegistrationGroup, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return group, nil
}

func requireActor(actor *domain.Principal) error {
	if actor == nil || actor.UserID == "" {
		return domain.ErrForbidden
	}
	return nil
}

// validateSizes checks that given sizes are positive and, when both are set, ordered.
func validateSizes(minSize, maxSize *int) error {
	if minSize != nil && *minSize < 1 {
		return fmt.Errorf("%w: min_size must be positive", domain.ErrInvalidInput)
	}
	if maxSize != nil && *maxSize < 1 {
		return fmt.Errorf("%w: max_size must be positive", domain.ErrInvalidInput)
	}
	if minSize != nil && maxSize != nil && *minSize > *maxSize {
		return fmt.Errorf("%w: min_size cannot exceed max_size", domain.ErrInvalidInput)
	}
	return nil
}

// groupDiff returns {field: {old, new}} for every patchable field that changed.
func groupDiff(before, after *domain.RegistrationGroup) map[string]any {
	diff := map[string]any{}
	add := func(field string, oldValue, newValue any) {
		diff[field] = map[string]any{"old": oldValue, "new": newValue}
	}
	if before.Status != after.Status {
		add("status", string(before.Status), string(after.Status))
	}
	if !intPtrEqual(before.MinSize, after.MinSize) {
		add("min_size", derefInt(before.MinSize), derefInt(after.MinSize))
	}
	if !intPtrEqual(before.MaxSize, after.MaxSize) {
		add("max_size", derefInt(before.MaxSize), derefInt(after.MaxSize))
	}
	if !stringPtrEqual(before.TeamID, after.TeamID) {
		add("team_id", derefString(before.TeamID), derefString(after.TeamID))
	}
	if !reflect.DeepEqual(before.Metadata, after.Metadata) {
		add("metadata", before.Metadata, after.Metadata)
	}
	return diff
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func derefInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
