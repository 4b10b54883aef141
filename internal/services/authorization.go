package services

import (
	"context"
	"errors"
	"fmt"

	"eventregistration/internal/domain"
)

// authorizer answers who may manage a registration group: its captain, the event
// organizer, or an admin.
type authorizer struct {
	eventRepo domain.EventRepository
	roleRepo  domain.RoleRepository
}

func (a *authorizer) isAdmin(ctx context.Context, userID string) (bool, error) {
	ok, err := a.roleRepo.HasRole(ctx, userID, domain.RoleCodeAdmin)
	if err != nil {
		return false, fmt.Errorf("check admin role: %w", err)
	}
	return ok, nil
}

// isOrganizerOrAdmin reports whether the actor owns the event or is an admin. A missing
// event only rules out the organizer path.
func (a *authorizer) isOrganizerOrAdmin(ctx context.Context, actor *domain.Principal, eventID string) (bool, error) {
	event, err := a.eventRepo.GetByID(ctx, eventID)
	switch {
	case err == nil:
		if event.OwnerID == actor.UserID {
			return true, nil
		}
	case !errors.Is(err, domain.ErrNotFound):
		return false, fmt.Errorf("get event: %w", err)
	}
	return a.isAdmin(ctx, actor.UserID)
}

func (a *authorizer) canManageGroup(ctx context.Context, actor *domain.Principal, group *domain.RegistrationGroup) (bool, error) {
	if actor == nil || actor.UserID == "" {
		return false, nil
	}
	if group.CaptainUserID == actor.UserID {
		return true, nil
	}
	return a.isOrganizerOrAdmin(ctx, actor, group.EventID)
}

// requireGroupManager returns ErrForbidden unless the actor may manage the group.
func (a *authorizer) requireGroupManager(ctx context.Context, actor *domain.Principal, group *domain.RegistrationGroup) error {
	ok, err := a.canManageGroup(ctx, actor, group)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}
