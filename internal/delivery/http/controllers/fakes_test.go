package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/delivery/http/middleware"
	"eventregistration/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testGroupID  = "0f8fad5b-d9cb-469f-a165-70867728950e"
	testEventID  = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	testInviteID = "a3bb189e-8bf9-3888-9912-ace4e6543002"
	testMemberID = "16fd2706-8baf-433b-82eb-8c7fada847da"
)

var testPrincipal = &domain.Principal{UserID: "user-123", Email: "cap@example.com", EmailVerified: true}

func withPrincipal(req *http.Request) *http.Request {
	return req.WithContext(middleware.SetPrincipal(req.Context(), testPrincipal))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if data != nil && envelope.Error == nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope.Error
}

// fakeGroupService implements domain.RegistrationGroupService for handler tests.
type fakeGroupService struct {
	err         error
	group       *domain.RegistrationGroup
	captain     *domain.GroupMember
	roster      *domain.GroupRoster
	rosters     []*domain.GroupRoster
	total       int
	lastActor   *domain.Principal
	lastInput   domain.CreateGroupInput
	lastGroupID string
	lastPatch   domain.RegistrationGroupPatch
	lastEventID string
	lastParams  domain.PaginationParams
}

func (f *fakeGroupService) CreateGroup(_ context.Context, actor *domain.Principal, in domain.CreateGroupInput) (*domain.RegistrationGroup, *domain.GroupMember, error) {
	f.lastActor, f.lastInput = actor, in
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.group, f.captain, nil
}

func (f *fakeGroupService) UpdateGroup(_ context.Context, actor *domain.Principal, groupID string, patch domain.RegistrationGroupPatch) (*domain.RegistrationGroup, error) {
	f.lastActor, f.lastGroupID, f.lastPatch = actor, groupID, patch
	if f.err != nil {
		return nil, f.err
	}
	return f.group, nil
}

func (f *fakeGroupService) GetGroup(_ context.Context, actor *domain.Principal, groupID string) (*domain.GroupRoster, error) {
	f.lastActor, f.lastGroupID = actor, groupID
	if f.err != nil {
		return nil, f.err
	}
	return f.roster, nil
}

func (f *fakeGroupService) ListGroupsForEvent(_ context.Context, actor *domain.Principal, eventID string, params domain.PaginationParams) ([]*domain.GroupRoster, int, error) {
	f.lastActor, f.lastEventID, f.lastParams = actor, eventID, params
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.rosters, f.total, nil
}

// fakeInviteService implements domain.RegistrationInviteService for handler tests.
type fakeInviteService struct {
	err           error
	inviteResult  *domain.InviteResult
	invite        *domain.RegistrationInvite
	redemption    *domain.RedemptionResult
	member        *domain.GroupMember
	preview       *domain.InvitePreview
	lastActor     *domain.Principal
	lastGroupID   string
	lastEmail     string
	lastRole      domain.MemberRole
	lastExpiresAt *time.Time
	lastInviteID  string
	lastToken     string
	lastMemberID  string
	calls         []string
}

func (f *fakeInviteService) Invite(_ context.Context, actor *domain.Principal, groupID, email string, role domain.MemberRole, expiresAt *time.Time) (*domain.InviteResult, error) {
	f.calls = append(f.calls, "Invite")
	f.lastActor, f.lastGroupID, f.lastEmail, f.lastRole, f.lastExpiresAt = actor, groupID, email, role, expiresAt
	if f.err != nil {
		return nil, f.err
	}
	return f.inviteResult, nil
}

func (f *fakeInviteService) Revoke(_ context.Context, actor *domain.Principal, inviteID string) (*domain.RegistrationInvite, error) {
	f.calls = append(f.calls, "Revoke")
	f.lastActor, f.lastInviteID = actor, inviteID
	if f.err != nil {
		return nil, f.err
	}
	return f.invite, nil
}

func (f *fakeInviteService) Accept(_ context.Context, actor *domain.Principal, token string) (*domain.RedemptionResult, error) {
	f.calls = append(f.calls, "Accept")
	f.lastActor, f.lastToken = actor, token
	if f.err != nil {
		return nil, f.err
	}
	return f.redemption, nil
}

func (f *fakeInviteService) Decline(_ context.Context, actor *domain.Principal, token string) (*domain.RedemptionResult, error) {
	f.calls = append(f.calls, "Decline")
	f.lastActor, f.lastToken = actor, token
	if f.err != nil {
		return nil, f.err
	}
	return f.redemption, nil
}

func (f *fakeInviteService) RemoveMember(_ context.Context, actor *domain.Principal, memberID string) (*domain.GroupMember, error) {
	f.calls = append(f.calls, "RemoveMember")
	f.lastActor, f.lastMemberID = actor, memberID
	if f.err != nil {
		return nil, f.err
	}
	return f.member, nil
}

func (f *fakeInviteService) GetInvitePreview(_ context.Context, token string) (*domain.InvitePreview, error) {
	f.calls = append(f.calls, "GetInvitePreview")
	f.lastToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.preview, nil
}
