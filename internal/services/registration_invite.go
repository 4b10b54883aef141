package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"eventregistration/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// errInviteUnusable is returned for unknown, redeemed, revoked and expired tokens alike.
var errInviteUnusable = fmt.Errorf("%w: invite is invalid or expired", domain.ErrNotFound)

type registrationInviteService struct {
	groupRepo      domain.RegistrationGroupRepository
	memberRepo     domain.GroupMemberRepository
	inviteRepo     domain.RegistrationInviteRepository
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	tx             domain.Transactor
	codec          domain.InviteTokenCodec
	emailService   domain.EmailService
	authz          *authorizer
	audit          *auditor
	appBaseURL     string
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

// NewRegistrationInviteService returns a RegistrationInviteService. appBaseURL is the
// origin used to build the redemption link sent in invite emails.
func NewRegistrationInviteService(
	groupRepo domain.RegistrationGroupRepository,
	memberRepo domain.GroupMemberRepository,
	inviteRepo domain.RegistrationInviteRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	roleRepo domain.RoleRepository,
	auditRepo domain.AuditRepository,
	tx domain.Transactor,
	codec domain.InviteTokenCodec,
	emailService domain.EmailService,
	appBaseURL string,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationInviteService {
	return &registrationInviteService{
		groupRepo:      groupRepo,
		memberRepo:     memberRepo,
		inviteRepo:     inviteRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		tx:             tx,
		codec:          codec,
		emailService:   emailService,
		authz:          &authorizer{eventRepo: eventRepo, roleRepo: roleRepo},
		audit:          newAuditor(auditRepo, logger),
		appBaseURL:     strings.TrimRight(appBaseURL, "/"),
		logger:         logger,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

func (s *registrationInviteService) Invite(ctx context.Context, actor *domain.Principal, groupID, email string, role domain.MemberRole, expiresAt *time.Time) (res *domain.InviteResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "RegistrationInviteService.Invite", attribute.String("group.id", groupID))
	defer func() { finishSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	email = domain.NormalizeEmail(email)
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if role == "" {
		role = domain.MemberRoleMember
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.requireGroupManager(ctx, actor, group); err != nil {
		return nil, err
	}

	members, err := s.memberRepo.ListByGroupID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	existing, err := s.findInvitee(ctx, members, email)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == domain.MemberStatusActive {
		return nil, fmt.Errorf("%w: %s is already active in this group", domain.ErrInvalidInput, email)
	}
	if group.MaxSize != nil && seatedCount(members) >= *group.MaxSize {
		return nil, fmt.Errorf("%w: group is already full", domain.ErrInvalidInput)
	}
	if existing != nil && !domain.CanTransition(existing.Status, domain.MemberStatusInvited) {
		return nil, fmt.Errorf("%w: cannot invite a member with status %s", domain.ErrInvalidInput, existing.Status)
	}

	token, err := s.codec.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate invite token: %w", err)
	}
	now := s.now()
	expiry := resolveExpiry(expiresAt, now)
	inviter := actor.UserID

	member := existing
	invite := &domain.RegistrationInvite{
		GroupID:         groupID,
		Email:           email,
		TokenHash:       s.codec.HashToken(token),
		Status:          domain.InviteStatusPending,
		InvitedByUserID: &inviter,
		ExpiresAt:       expiry,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if existing != nil {
			m := *existing
			m.Email = email
			m.Role = role
			m.Status = domain.MemberStatusInvited
			m.InvitedByUserID = &inviter
			m.InvitedAt = now
			m.JoinedAt = nil
			if err := s.memberRepo.Update(ctx, &m); err != nil {
				return fmt.Errorf("update member: %w", err)
			}
			member = &m
		} else {
			member = &domain.GroupMember{
				GroupID:         groupID,
				Email:           email,
				Role:            role,
				Status:          domain.MemberStatusInvited,
				InvitedByUserID: &inviter,
				InvitedAt:       now,
				RosterMetadata:  map[string]any{},
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := s.memberRepo.Create(ctx, member); err != nil {
				return fmt.Errorf("create member: %w", err)
			}
		}
		if _, err := s.inviteRepo.RevokePending(ctx, groupID, email); err != nil {
			return fmt.Errorf("revoke pending invites: %w", err)
		}
		if err := s.inviteRepo.Create(ctx, invite); err != nil {
			return fmt.Errorf("create invite: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, domain.AuditMemberInvited, actor.UserID, domain.AuditTargetInvite, invite.ID, map[string]any{
		"group_id":  groupID,
		"member_id": member.ID,
		"email":     email,
		"role":      string(role),
	})
	s.sendInviteEmail(ctx, actor, group, email, token, expiry)

	return &domain.InviteResult{
		InviteID:  invite.ID,
		MemberID:  member.ID,
		Token:     token,
		ExpiresAt: expiry,
	}, nil
}

func (s *registrationInviteService) Revoke(ctx context.Context, actor *domain.Principal, inviteID string) (invite *domain.RegistrationInvite, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "RegistrationInviteService.Revoke", attribute.String("invite.id", inviteID))
	defer func() { finishSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	invite, err = s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	if invite.Status != domain.InviteStatusPending {
		return nil, errOnlyPendingRevocable
	}
	group, err := s.getGroup(ctx, invite.GroupID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.requireGroupManager(ctx, actor, group); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.inviteRepo.TransitionStatus(ctx, invite.ID, domain.InviteStatusPending, domain.InviteStatusRevoked); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errOnlyPendingRevocable
			}
			return fmt.Errorf("revoke invite: %w", err)
		}
		if _, err := s.memberRepo.UpdateStatusByGroupAndEmail(ctx, invite.GroupID, invite.Email, domain.MemberStatusRemoved); err != nil {
			return fmt.Errorf("remove invited member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invite.Status = domain.InviteStatusRevoked
	invite.UpdatedAt = s.now()

	s.audit.record(ctx, domain.AuditInviteRevoked, actor.UserID, domain.AuditTargetInvite, invite.ID, map[string]any{
		"group_id": invite.GroupID,
		"email":    invite.Email,
	})
	return invite, nil
}

var errOnlyPendingRevocable = fmt.Errorf("%w: only pending invites can be revoked", domain.ErrInvalidInput)

func (s *registrationInviteService) Accept(ctx context.Context, actor *domain.Principal, token string) (res *domain.RedemptionResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "RegistrationInviteService.Accept")
	defer func() { finishSpan(span, err) }()

	if err := requireVerifiedEmail(actor); err != nil {
		return nil, err
	}
	invite, err := s.lookupToken(ctx, token)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("invite.id", invite.ID))
	email := domain.NormalizeEmail(actor.Email)
	now := s.now()

	if invite.Status != domain.InviteStatusPending {
		if invite.Status == domain.InviteStatusAccepted && invite.AcceptedByUserID != nil && *invite.AcceptedByUserID == actor.UserID {
			members, err := s.memberRepo.ListByGroupID(ctx, invite.GroupID)
			if err != nil {
				return nil, fmt.Errorf("list members: %w", err)
			}
			if m := findMember(members, actor.UserID, email); m != nil && m.Status == domain.MemberStatusActive {
				return &domain.RedemptionResult{Status: domain.RedemptionAlreadyMember, GroupID: invite.GroupID, MemberID: m.ID}, nil
			}
		}
		return nil, errInviteUnusable
	}
	if invite.ExpiredAt(now) {
		if err := s.inviteRepo.TransitionStatus(ctx, invite.ID, domain.InviteStatusPending, domain.InviteStatusExpired); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("expire invite: %w", err)
		}
		return nil, errInviteUnusable
	}
	if domain.NormalizeEmail(invite.Email) != email {
		return nil, fmt.Errorf("%w: invite email does not match your account email", domain.ErrInvalidInput)
	}

	members, err := s.memberRepo.ListByGroupID(ctx, invite.GroupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	existing := findMember(members, actor.UserID, email)

	if existing != nil && existing.Status == domain.MemberStatusActive {
		if err := s.inviteRepo.MarkAccepted(ctx, invite.ID, actor.UserID, now); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("accept invite: %w", err)
		}
		s.audit.record(ctx, domain.AuditInviteAccepted, actor.UserID, domain.AuditTargetInvite, invite.ID, map[string]any{
			"group_id":  invite.GroupID,
			"member_id": existing.ID,
			"outcome":   domain.RedemptionAlreadyMember,
		})
		return &domain.RedemptionResult{Status: domain.RedemptionAlreadyMember, GroupID: invite.GroupID, MemberID: existing.ID}, nil
	}
	if existing != nil && !domain.CanTransition(existing.Status, domain.MemberStatusActive) {
		return nil, fmt.Errorf("%w: cannot join with member status %s", domain.ErrInvalidInput, existing.Status)
	}

	userID := actor.UserID
	joinedAt := now
	var member *domain.GroupMember
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if existing != nil {
			m := *existing
			m.UserID = &userID
			m.Email = email
			m.Status = domain.MemberStatusActive
			m.JoinedAt = &joinedAt
			if err := s.memberRepo.Update(ctx, &m); err != nil {
				return fmt.Errorf("update member: %w", err)
			}
			member = &m
		} else {
			member = &domain.GroupMember{
				GroupID:         invite.GroupID,
				UserID:          &userID,
				Email:           email,
				Role:            domain.MemberRoleMember,
				Status:          domain.MemberStatusActive,
				InvitedByUserID: invite.InvitedByUserID,
				InvitedAt:       invite.CreatedAt,
				JoinedAt:        &joinedAt,
				RosterMetadata:  map[string]any{},
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := s.memberRepo.Create(ctx, member); err != nil {
				return fmt.Errorf("create member: %w", err)
			}
		}
		if err := s.inviteRepo.MarkAccepted(ctx, invite.ID, userID, now); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errInviteUnusable
			}
			return fmt.Errorf("accept invite: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, domain.AuditInviteAccepted, actor.UserID, domain.AuditTargetInvite, invite.ID, map[string]any{
		"group_id":  invite.GroupID,
		"member_id": member.ID,
		"outcome":   domain.RedemptionJoined,
	})
	return &domain.RedemptionResult{Status: domain.RedemptionJoined, GroupID: invite.GroupID, MemberID: member.ID}, nil
}

func (s *registrationInviteService) Decline(ctx context.Context, actor *domain.Principal, token string) (res *domain.RedemptionResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "RegistrationInviteService.Decline")
	defer func() { finishSpan(span, err) }()

	if err := requireVerifiedEmail(actor); err != nil {
		return nil, err
	}
	invite, err := s.lookupToken(ctx, token)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("invite.id", invite.ID))
	if invite.Status != domain.InviteStatusPending {
		return nil, errInviteUnusable
	}
	email := domain.NormalizeEmail(actor.Email)
	if domain.NormalizeEmail(invite.Email) != email {
		return nil, fmt.Errorf("%w: invite email does not match your account email", domain.ErrInvalidInput)
	}

	members, err := s.memberRepo.ListByGroupID(ctx, invite.GroupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	existing := findMember(members, actor.UserID, email)
	if existing != nil && !domain.CanTransition(existing.Status, domain.MemberStatusDeclined) {
		return nil, fmt.Errorf("%w: cannot decline with member status %s", domain.ErrInvalidInput, existing.Status)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if existing != nil {
			if err := s.memberRepo.UpdateStatus(ctx, existing.ID, domain.MemberStatusDeclined); err != nil {
				return fmt.Errorf("decline member: %w", err)
			}
		}
		if err := s.inviteRepo.TransitionStatus(ctx, invite.ID, domain.InviteStatusPending, domain.InviteStatusRevoked); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errInviteUnusable
			}
			return fmt.Errorf("revoke invite: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res = &domain.RedemptionResult{Status: domain.RedemptionDeclined, GroupID: invite.GroupID}
	if existing != nil {
		res.MemberID = existing.ID
	}
	s.audit.record(ctx, domain.AuditInviteDeclined, actor.UserID, domain.AuditTargetInvite, invite.ID, map[string]any{
		"group_id":  invite.GroupID,
		"member_id": res.MemberID,
	})
	return res, nil
}

func (s *registrationInviteService) RemoveMember(ctx context.Context, actor *domain.Principal, memberID string) (member *domain.GroupMember, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "RegistrationInviteService.RemoveMember", attribute.String("member.id", memberID))
	defer func() { finishSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	member, err = s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	group, err := s.getGroup(ctx, member.GroupID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.requireGroupManager(ctx, actor, group); err != nil {
		return nil, err
	}

	// Administrative removal is always allowed, whatever the current status.
	previous := member.Status
	if err := s.memberRepo.UpdateStatus(ctx, member.ID, domain.MemberStatusRemoved); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("remove member: %w", err)
	}
	member.Status = domain.MemberStatusRemoved
	member.UpdatedAt = s.now()

	s.audit.record(ctx, domain.AuditMemberRemoved, actor.UserID, domain.AuditTargetMember, member.ID, map[string]any{
		"group_id":        member.GroupID,
		"previous_status": string(previous),
	})
	return member, nil
}

func (s *registrationInviteService) GetInvitePreview(ctx context.Context, token string) (preview *domain.InvitePreview, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "RegistrationInviteService.GetInvitePreview")
	defer func() { finishSpan(span, err) }()

	invite, err := s.lookupToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.InvitePreview{Valid: false}, nil
		}
		return nil, err
	}
	group, err := s.getGroup(ctx, invite.GroupID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expired := invite.Status == domain.InviteStatusExpired ||
		(invite.Status == domain.InviteStatusPending && invite.ExpiredAt(now))
	preview = &domain.InvitePreview{
		Valid:       invite.Status == domain.InviteStatusPending && !expired,
		Expired:     expired,
		Status:      invite.Status,
		EventID:     group.EventID,
		GroupID:     group.ID,
		GroupType:   group.GroupType,
		InviteEmail: invite.Email,
		ExpiresAt:   invite.ExpiresAt,
	}
	if event, err := s.eventRepo.GetByID(ctx, group.EventID); err == nil {
		preview.EventName = event.Name
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if invite.InvitedByUserID != nil {
		preview.InvitedByName = s.displayName(ctx, *invite.InvitedByUserID, "")
	}
	return preview, nil
}

func (s *registrationInviteService) getGroup(ctx context.Context, groupID string) (*domain.RegistrationGroup, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return group, nil
}

func (s *registrationInviteService) lookupToken(ctx context.Context, token string) (*domain.RegistrationInvite, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errInviteUnusable
	}
	invite, err := s.inviteRepo.GetByTokenHash(ctx, s.codec.HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInviteUnusable
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return invite, nil
}

// findInvitee matches a member by normalized email, then by the account the email
// belongs to, if any.
func (s *registrationInviteService) findInvitee(ctx context.Context, members []*domain.GroupMember, email string) (*domain.GroupMember, error) {
	for _, m := range members {
		if domain.NormalizeEmail(m.Email) == email {
			return m, nil
		}
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	for _, m := range members {
		if m.UserID != nil && *m.UserID == user.ID {
			return m, nil
		}
	}
	return nil, nil
}

// displayName resolves a user's name for emails and previews; lookup failures fall back.
func (s *registrationInviteService) displayName(ctx context.Context, userID, fallback string) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "inviter lookup failed", slog.String("user_id", userID), slog.Any("error", err))
		}
		return fallback
	}
	return user.DisplayName()
}

// sendInviteEmail runs after commit. Failures are logged and do not affect the invite.
func (s *registrationInviteService) sendInviteEmail(ctx context.Context, actor *domain.Principal, group *domain.RegistrationGroup, email, token string, expiresAt *time.Time) {
	if s.emailService == nil {
		return
	}
	eventName := ""
	if event, err := s.eventRepo.GetByID(ctx, group.EventID); err == nil {
		eventName = event.Name
	} else {
		s.logger.WarnContext(ctx, "invite email: event lookup failed", slog.String("event_id", group.EventID), slog.Any("error", err))
	}
	data := &domain.RegistrationInviteEmailData{
		Email:         email,
		EventName:     eventName,
		GroupType:     group.GroupType,
		InvitedByName: s.displayName(ctx, actor.UserID, actor.Email),
		Token:         token,
		InviteURL:     s.inviteURL(token),
		ExpiresAt:     expiresAt,
	}
	if err := s.emailService.SendRegistrationInvite(ctx, data); err != nil {
		s.logger.ErrorContext(ctx, "invite email failed",
			slog.String("group_id", group.ID),
			slog.String("email", email),
			slog.Any("error", err),
		)
	}
}

func (s *registrationInviteService) inviteURL(token string) string {
	return s.appBaseURL + "/registration-invites/" + token
}

// resolveExpiry returns the requested expiry, or now plus the default TTL.
func resolveExpiry(requested *time.Time, now time.Time) *time.Time {
	if requested != nil {
		t := *requested
		return &t
	}
	t := now.Add(domain.DefaultInviteTTL)
	return &t
}

func requireVerifiedEmail(actor *domain.Principal) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.EmailVerified || strings.TrimSpace(actor.Email) == "" {
		return fmt.Errorf("%w: a verified email is required to redeem invites", domain.ErrInvalidInput)
	}
	return nil
}

// findMember returns the first member matching the user or normalized email.
func findMember(members []*domain.GroupMember, userID, email string) *domain.GroupMember {
	for _, m := range members {
		if m.Matches(userID, email) {
			return m
		}
	}
	return nil
}

// seatedCount counts members holding a seat (invited, pending, active).
func seatedCount(members []*domain.GroupMember) int {
	n := 0
	for _, m := range members {
		if m.Status.Seated() {
			n++
		}
	}
	return n
}
