package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"eventregistration/internal/domain"
)

// memStore is an in-memory stand-in for the database shared by the fake repositories.
// Rows are stored and returned as copies, and memTx restores a snapshot on error.
type memStore struct {
	groups  map[string]domain.RegistrationGroup
	members map[string]domain.GroupMember
	invites map[string]domain.RegistrationInvite
	events  map[string]domain.Event
	users   map[string]domain.User
	roles   map[string][]*domain.Role
	audits  []domain.AuditEntry
	seq     int

	// failures maps an operation name such as "members.Create" to the error it returns.
	failures map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		groups:   map[string]domain.RegistrationGroup{},
		members:  map[string]domain.GroupMember{},
		invites:  map[string]domain.RegistrationInvite{},
		events:   map[string]domain.Event{},
		users:    map[string]domain.User{},
		roles:    map[string][]*domain.Role{},
		failures: map[string]error{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) fail(op string) error {
	return s.failures[op]
}

func (s *memStore) snapshot() *memStore {
	c := &memStore{
		groups:   map[string]domain.RegistrationGroup{},
		members:  map[string]domain.GroupMember{},
		invites:  map[string]domain.RegistrationInvite{},
		events:   s.events,
		users:    s.users,
		roles:    s.roles,
		audits:   append([]domain.AuditEntry(nil), s.audits...),
		seq:      s.seq,
		failures: s.failures,
	}
	for k, v := range s.groups {
		c.groups[k] = v
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.invites {
		c.invites[k] = v
	}
	return c
}

func (s *memStore) restore(from *memStore) {
	s.groups = from.groups
	s.members = from.members
	s.invites = from.invites
	s.audits = from.audits
}

func (s *memStore) membersOf(groupID string) []domain.GroupMember {
	var out []domain.GroupMember
	for _, m := range s.members {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) invitesFor(groupID, email string) []domain.RegistrationInvite {
	var out []domain.RegistrationInvite
	for _, inv := range s.invites {
		if inv.GroupID == groupID && inv.Email == email {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memTx struct{ s *memStore }

func (t memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.s.snapshot()
	if err := fn(ctx); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

type memGroupRepo struct{ s *memStore }

func (r memGroupRepo) Create(ctx context.Context, g *domain.RegistrationGroup) error {
	if err := r.s.fail("groups.Create"); err != nil {
		return err
	}
	g.ID = r.s.nextID("grp")
	r.s.groups[g.ID] = *g
	return nil
}

func (r memGroupRepo) GetByID(ctx context.Context, id string) (*domain.RegistrationGroup, error) {
	g, ok := r.s.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (r memGroupRepo) Update(ctx context.Context, id string, patch domain.RegistrationGroupPatch) (*domain.RegistrationGroup, error) {
	g, ok := r.s.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Status != nil {
		g.Status = *patch.Status
	}
	if patch.MinSize != nil {
		g.MinSize = patch.MinSize
	}
	if patch.MaxSize != nil {
		g.MaxSize = patch.MaxSize
	}
	if patch.TeamID != nil {
		g.TeamID = patch.TeamID
	}
	if patch.Metadata != nil {
		g.Metadata = patch.Metadata
	}
	r.s.groups[id] = g
	return &g, nil
}

func (r memGroupRepo) ListByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.RegistrationGroup, int, error) {
	var all []*domain.RegistrationGroup
	for _, g := range r.s.groups {
		if g.EventID == eventID {
			g := g
			all = append(all, &g)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	start, end := params.Window(len(all))
	return all[start:end], len(all), nil
}

type memMemberRepo struct{ s *memStore }

func (r memMemberRepo) Create(ctx context.Context, m *domain.GroupMember) error {
	if err := r.s.fail("members.Create"); err != nil {
		return err
	}
	m.ID = r.s.nextID("mem")
	r.s.members[m.ID] = *m
	return nil
}

func (r memMemberRepo) GetByID(ctx context.Context, id string) (*domain.GroupMember, error) {
	m, ok := r.s.members[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (r memMemberRepo) ListByGroupID(ctx context.Context, groupID string) ([]*domain.GroupMember, error) {
	out := []*domain.GroupMember{}
	for _, m := range r.s.membersOf(groupID) {
		m := m
		out = append(out, &m)
	}
	return out, nil
}

func (r memMemberRepo) ListByGroupIDs(ctx context.Context, groupIDs []string) ([]*domain.GroupMember, error) {
	out := []*domain.GroupMember{}
	for _, id := range groupIDs {
		ms, _ := r.ListByGroupID(ctx, id)
		out = append(out, ms...)
	}
	return out, nil
}

func (r memMemberRepo) Update(ctx context.Context, m *domain.GroupMember) error {
	if err := r.s.fail("members.Update"); err != nil {
		return err
	}
	if _, ok := r.s.members[m.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.members[m.ID] = *m
	return nil
}

func (r memMemberRepo) UpdateStatus(ctx context.Context, id string, status domain.MemberStatus) error {
	m, ok := r.s.members[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Status = status
	r.s.members[id] = m
	return nil
}

func (r memMemberRepo) UpdateStatusByGroupAndEmail(ctx context.Context, groupID, email string, status domain.MemberStatus) (int64, error) {
	var n int64
	email = domain.NormalizeEmail(email)
	for id, m := range r.s.members {
		if m.GroupID == groupID && m.Email == email {
			m.Status = status
			r.s.members[id] = m
			n++
		}
	}
	return n, nil
}

type memInviteRepo struct{ s *memStore }

func (r memInviteRepo) Create(ctx context.Context, inv *domain.RegistrationInvite) error {
	if err := r.s.fail("invites.Create"); err != nil {
		return err
	}
	inv.ID = r.s.nextID("inv")
	r.s.invites[inv.ID] = *inv
	return nil
}

func (r memInviteRepo) GetByID(ctx context.Context, id string) (*domain.RegistrationInvite, error) {
	inv, ok := r.s.invites[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &inv, nil
}

func (r memInviteRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RegistrationInvite, error) {
	for _, inv := range r.s.invites {
		if inv.TokenHash == tokenHash {
			return &inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memInviteRepo) RevokePending(ctx context.Context, groupID, email string) (int64, error) {
	var n int64
	email = domain.NormalizeEmail(email)
	for id, inv := range r.s.invites {
		if inv.GroupID == groupID && inv.Email == email && inv.Status == domain.InviteStatusPending {
			inv.Status = domain.InviteStatusRevoked
			r.s.invites[id] = inv
			n++
		}
	}
	return n, nil
}

func (r memInviteRepo) TransitionStatus(ctx context.Context, id string, from, to domain.InviteStatus) error {
	inv, ok := r.s.invites[id]
	if !ok || inv.Status != from {
		return domain.ErrNotFound
	}
	inv.Status = to
	r.s.invites[id] = inv
	return nil
}

func (r memInviteRepo) MarkAccepted(ctx context.Context, id, userID string, acceptedAt time.Time) error {
	if err := r.s.fail("invites.MarkAccepted"); err != nil {
		return err
	}
	inv, ok := r.s.invites[id]
	if !ok || inv.Status != domain.InviteStatusPending {
		return domain.ErrNotFound
	}
	inv.Status = domain.InviteStatusAccepted
	inv.AcceptedByUserID = &userID
	inv.AcceptedAt = &acceptedAt
	r.s.invites[id] = inv
	return nil
}

type memEventRepo struct{ s *memStore }

func (r memEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

type memUserRepo struct{ s *memStore }

func (r memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.s.users {
		if domain.NormalizeEmail(u.Email) == domain.NormalizeEmail(email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type memRoleRepo struct{ s *memStore }

func (r memRoleRepo) HasRole(ctx context.Context, userID, code string) (bool, error) {
	if err := r.s.fail("roles.HasRole"); err != nil {
		return false, err
	}
	for _, role := range r.s.roles[userID] {
		if role.Code == code {
			return true, nil
		}
	}
	return false, nil
}

type memAuditRepo struct{ s *memStore }

func (r memAuditRepo) Append(ctx context.Context, e *domain.AuditEntry) error {
	if err := r.s.fail("audit.Append"); err != nil {
		return err
	}
	e.ID = r.s.nextID("aud")
	r.s.audits = append(r.s.audits, *e)
	return nil
}

// fakeCodec issues predictable tokens so tests can redeem them.
type fakeCodec struct{ n int }

func (c *fakeCodec) GenerateToken() (string, error) {
	c.n++
	return fmt.Sprintf("token-%d", c.n), nil
}

func (c *fakeCodec) HashToken(token string) string { return "hash:" + token }

type fakeEmailService struct {
	sent []*domain.RegistrationInviteEmailData
	err  error
}

func (f *fakeEmailService) SendRegistrationInvite(ctx context.Context, data *domain.RegistrationInviteEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

var errStoreDown = errors.New("store unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture wires both services over one memStore with a fixed clock.
type fixture struct {
	store  *memStore
	email  *fakeEmailService
	groups *registrationGroupService
	invite *registrationInviteService
	now    time.Time
}

const (
	testEventID     = "ev-1"
	testOrganizerID = "organizer"
	testCaptainID   = "captain"
	testAdminID     = "admin"
)

func newFixture() *fixture {
	store := newMemStore()
	store.events[testEventID] = domain.Event{ID: testEventID, Name: "City Relay", OwnerID: testOrganizerID}
	store.users[testCaptainID] = domain.User{ID: testCaptainID, Email: "cap@x.com", Name: "Cara", LastName: "Captain"}
	store.roles[testAdminID] = []*domain.Role{{ID: "r-1", Code: domain.RoleCodeAdmin}}

	f := &fixture{store: store, email: &fakeEmailService{}, now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }
	logger := discardLogger()

	f.groups = NewRegistrationGroupService(
		memGroupRepo{store}, memMemberRepo{store}, memEventRepo{store}, memRoleRepo{store},
		memAuditRepo{store}, memTx{store}, logger, time.Second,
	).(*registrationGroupService)
	f.groups.now = clock
	f.groups.audit.now = clock

	f.invite = NewRegistrationInviteService(
		memGroupRepo{store}, memMemberRepo{store}, memInviteRepo{store}, memEventRepo{store},
		memUserRepo{store}, memRoleRepo{store}, memAuditRepo{store}, memTx{store},
		&fakeCodec{}, f.email, "https://app.example.com/", logger, time.Second,
	).(*registrationInviteService)
	f.invite.now = clock
	f.invite.audit.now = clock
	return f
}

func captain() *domain.Principal {
	return &domain.Principal{UserID: testCaptainID, Email: "cap@x.com", EmailVerified: true}
}

func userWithEmail(id, email string) *domain.Principal {
	return &domain.Principal{UserID: id, Email: email, EmailVerified: true}
}

func (f *fixture) createGroup(maxSize *int) *domain.RegistrationGroup {
	g, _, err := f.groups.CreateGroup(context.Background(), captain(), domain.CreateGroupInput{
		EventID: testEventID, GroupType: domain.GroupTypeRelay, MaxSize: maxSize,
	})
	if err != nil {
		panic(err)
	}
	return g
}

func intPtr(n int) *int { return &n }
