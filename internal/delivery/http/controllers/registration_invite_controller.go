package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"
)

// RegistrationInviteController serves invite and membership endpoints.
type RegistrationInviteController struct {
	Logger  *slog.Logger
	Service domain.RegistrationInviteService
}

// NewRegistrationInviteController builds a RegistrationInviteController.
func NewRegistrationInviteController(logger *slog.Logger, svc domain.RegistrationInviteService) *RegistrationInviteController {
	return &RegistrationInviteController{Logger: logger, Service: svc}
}

// InviteMemberRequest is the request body for POST /registration-groups/{groupID}/invites.
type InviteMemberRequest struct {
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Validate implements Validator. Email syntax is checked by the service.
func (i InviteMemberRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(i.Email) == "" {
		errs = append(errs, "email is required")
	}
	return errs
}

// InviteMemberSuccessResponse is the success response envelope for POST /registration-groups/{groupID}/invites (201).
type InviteMemberSuccessResponse struct {
	Data  *domain.InviteResult `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// InviteRegistrationGroupMember godoc
// @Summary Invite someone to a registration group
// @Description Creates or re-invites the member for the email, revokes older pending invites and emails a fresh link. Allowed for the captain, the event organizer and admins.
// @Tags registration-invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID (UUID)"
// @Param body body InviteMemberRequest true "Invitee"
// @Success 201 {object} controllers.InviteMemberSuccessResponse "data contains the invite id, member id and token"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (e.g. group is already full)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration-groups/{groupID}/invites [post]
func (c *RegistrationInviteController) InviteRegistrationGroupMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	groupID, ok := helpers.PathUUID(w, r, "groupID")
	if !ok {
		return
	}
	var req InviteMemberRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Service.Invite(r.Context(), actor, groupID, req.Email, domain.MemberRole(strings.TrimSpace(req.Role)), req.ExpiresAt)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, res)
}

// RegistrationInviteSuccessResponse is the success response envelope for POST /registration-invites/{inviteID}/revoke (200).
type RegistrationInviteSuccessResponse struct {
	Data  *domain.RegistrationInvite `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// RevokeRegistrationInvite godoc
// @Summary Revoke a pending invite
// @Description Revokes the invite and marks the matching member removed.
// @Tags registration-invites
// @Produce json
// @Security BearerAuth
// @Param inviteID path string true "Invite ID (UUID)"
// @Success 200 {object} controllers.RegistrationInviteSuccessResponse "data contains the revoked invite"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (only pending invites can be revoked)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration-invites/{inviteID}/revoke [post]
func (c *RegistrationInviteController) RevokeRegistrationInvite(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	inviteID, ok := helpers.PathUUID(w, r, "inviteID")
	if !ok {
		return
	}
	inv, err := c.Service.Revoke(r.Context(), actor, inviteID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}

// InviteTokenRequest is the request body for accepting or declining an invite.
type InviteTokenRequest struct {
	Token string `json:"token"`
}

// Validate implements Validator.
func (t InviteTokenRequest) Validate() []string {
	if strings.TrimSpace(t.Token) == "" {
		return []string{"token is required"}
	}
	return nil
}

// RedemptionSuccessResponse is the success response envelope for accept and decline (200).
type RedemptionSuccessResponse struct {
	Data  *domain.RedemptionResult `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// AcceptRegistrationInvite godoc
// @Summary Accept an invite
// @Description Joins the group for the invite token. The caller's verified email must match the invite. Replaying an accepted invite returns already_member.
// @Tags registration-invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InviteTokenRequest true "Invite token"
// @Success 200 {object} controllers.RedemptionSuccessResponse "data.status: joined or already_member"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (invalid or expired invite)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration-invites/accept [post]
func (c *RegistrationInviteController) AcceptRegistrationInvite(w http.ResponseWriter, r *http.Request) {
	c.redeem(w, r, c.Service.Accept)
}

// DeclineRegistrationInvite godoc
// @Summary Decline an invite
// @Description Declines the invite for the token. The caller's verified email must match the invite.
// @Tags registration-invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InviteTokenRequest true "Invite token"
// @Success 200 {object} controllers.RedemptionSuccessResponse "data.status: declined"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (invalid invite)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration-invites/decline [post]
func (c *RegistrationInviteController) DeclineRegistrationInvite(w http.ResponseWriter, r *http.Request) {
	c.redeem(w, r, c.Service.Decline)
}

type redeemFunc func(ctx context.Context, actor *domain.Principal, token string) (*domain.RedemptionResult, error)

func (c *RegistrationInviteController) redeem(w http.ResponseWriter, r *http.Request, fn redeemFunc) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req InviteTokenRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := fn(r.Context(), actor, strings.TrimSpace(req.Token))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// InvitePreviewSuccessResponse is the success response envelope for GET /registration-invites/preview (200).
type InvitePreviewSuccessResponse struct {
	Data  *domain.InvitePreview `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// GetRegistrationInvitePreview godoc
// @Summary Preview an invite
// @Description Describes the invite behind a token without signing in. Unknown tokens return valid=false.
// @Tags registration-invites
// @Produce json
// @Param token query string true "Invite token"
// @Success 200 {object} controllers.InvitePreviewSuccessResponse "data contains the preview"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration-invites/preview [get]
func (c *RegistrationInviteController) GetRegistrationInvitePreview(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "token is required")
		return
	}
	preview, err := c.Service.GetInvitePreview(r.Context(), token)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, preview)
}

// GroupMemberSuccessResponse is the success response envelope for DELETE /registration-group-members/{memberID} (200).
type GroupMemberSuccessResponse struct {
	Data  *domain.GroupMember `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// RemoveRegistrationGroupMember godoc
// @Summary Remove a group member
// @Description Marks the member removed whatever their current status. Allowed for the captain, the event organizer and admins.
// @Tags registration-groups
// @Produce json
// @Security BearerAuth
// @Param memberID path string true "Member ID (UUID)"
// @Success 200 {object} controllers.GroupMemberSuccessResponse "data contains the removed member"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration-group-members/{memberID} [delete]
func (c *RegistrationInviteController) RemoveRegistrationGroupMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	memberID, ok := helpers.PathUUID(w, r, "memberID")
	if !ok {
		return
	}
	member, err := c.Service.RemoveMember(r.Context(), actor, memberID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, member)
}
