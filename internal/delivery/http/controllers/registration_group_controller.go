package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"
)

// RegistrationGroupController serves registration group endpoints.
type RegistrationGroupController struct {
	Logger  *slog.Logger
	Service domain.RegistrationGroupService
}

// NewRegistrationGroupController builds a RegistrationGroupController.
func NewRegistrationGroupController(logger *slog.Logger, svc domain.RegistrationGroupService) *RegistrationGroupController {
	return &RegistrationGroupController{Logger: logger, Service: svc}
}

// CreateRegistrationGroupRequest is the request body for POST /registration-groups.
type CreateRegistrationGroupRequest struct {
	EventID   string         `json:"event_id"`
	GroupType string         `json:"group_type"`
	TeamID    *string        `json:"team_id"`
	MinSize   *int           `json:"min_size"`
	MaxSize   *int           `json:"max_size"`
	Metadata  map[string]any `json:"metadata"`
}

// Validate implements Validator.
func (c CreateRegistrationGroupRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.EventID) == "" {
		errs = append(errs, "event_id is required")
	} else if _, err := uuid.Parse(c.EventID); err != nil {
		errs = append(errs, "event_id must be a valid UUID")
	}
	if strings.TrimSpace(c.GroupType) == "" {
		errs = append(errs, "group_type is required")
	}
	return append(errs, checkTeamID(c.TeamID)...)
}

// checkTeamID accepts an omitted team_id; a present one must be a UUID.
func checkTeamID(teamID *string) []string {
	if teamID == nil {
		return nil
	}
	if _, err := uuid.Parse(*teamID); err != nil {
		return []string{"team_id must be a valid UUID"}
	}
	return nil
}

// CreateRegistrationGroupResponse is the data payload for POST /registration-groups (201).
type CreateRegistrationGroupResponse struct {
	Group   *domain.RegistrationGroup `json:"group"`
	Captain *domain.GroupMember       `json:"captain"`
}

// CreateRegistrationGroupSuccessResponse is the success response envelope for POST /registration-groups (201).
type CreateRegistrationGroupSuccessResponse struct {
	Data  CreateRegistrationGroupResponse `json:"data"`
	Error *helpers.APIError               `json:"error"`
}

// CreateRegistrationGroup godoc
// @Summary Create a registration group
// @Description Creates a draft group for an event with the caller as its active captain.
// @Tags registration-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateRegistrationGroupRequest true "Group to create"
// @Success 201 {object} controllers.CreateRegistrationGroupSuccessResponse "data contains the group and its captain"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (event)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration-groups [post]
func (c *RegistrationGroupController) CreateRegistrationGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req CreateRegistrationGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	group, captain, err := c.Service.CreateGroup(r.Context(), actor, domain.CreateGroupInput{
		EventID:   req.EventID,
		GroupType: domain.GroupType(strings.TrimSpace(req.GroupType)),
		TeamID:    req.TeamID,
		MinSize:   req.MinSize,
		MaxSize:   req.MaxSize,
		Metadata:  req.Metadata,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, CreateRegistrationGroupResponse{Group: group, Captain: captain})
}

// GroupRosterSuccessResponse is the success response envelope for GET /registration-groups/{groupID} (200).
type GroupRosterSuccessResponse struct {
	Data  *domain.GroupRoster `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// GetRegistrationGroup godoc
// @Summary Get a registration group
// @Description Returns the group and all of its members. Readable by members, the captain, the event organizer and admins.
// @Tags registration-groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID (UUID)"
// @Success 200 {object} controllers.GroupRosterSuccessResponse "data contains the group roster"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration-groups/{groupID} [get]
func (c *RegistrationGroupController) GetRegistrationGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	groupID, ok := helpers.PathUUID(w, r, "groupID")
	if !ok {
		return
	}
	roster, err := c.Service.GetGroup(r.Context(), actor, groupID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, roster)
}

// UpdateRegistrationGroupRequest is the request body for PATCH /registration-groups/{groupID}.
// Omitted fields are unchanged.
type UpdateRegistrationGroupRequest struct {
	Status   *string        `json:"status"`
	MinSize  *int           `json:"min_size"`
	MaxSize  *int           `json:"max_size"`
	TeamID   *string        `json:"team_id"`
	Metadata map[string]any `json:"metadata"`
}

// Validate implements Validator.
func (u UpdateRegistrationGroupRequest) Validate() []string {
	return checkTeamID(u.TeamID)
}

func (u UpdateRegistrationGroupRequest) patch() domain.RegistrationGroupPatch {
	p := domain.RegistrationGroupPatch{
		MinSize:  u.MinSize,
		MaxSize:  u.MaxSize,
		TeamID:   u.TeamID,
		Metadata: u.Metadata,
	}
	if u.Status != nil {
		s := domain.GroupStatus(strings.TrimSpace(*u.Status))
		p.Status = &s
	}
	return p
}

// RegistrationGroupSuccessResponse is the success response envelope for PATCH /registration-groups/{groupID} (200).
type RegistrationGroupSuccessResponse struct {
	Data  *domain.RegistrationGroup `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// UpdateRegistrationGroup godoc
// @Summary Update a registration group
// @Description Partially updates status, sizes, team and metadata. Allowed for the captain, the event organizer and admins.
// @Tags registration-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID (UUID)"
// @Param body body UpdateRegistrationGroupRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.RegistrationGroupSuccessResponse "data contains the updated group"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registration-groups/{groupID} [patch]
func (c *RegistrationGroupController) UpdateRegistrationGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	groupID, ok := helpers.PathUUID(w, r, "groupID")
	if !ok {
		return
	}
	var req UpdateRegistrationGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	group, err := c.Service.UpdateGroup(r.Context(), actor, groupID, req.patch())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, group)
}

// ListRegistrationGroupsResponse is the data payload for GET /events/{eventID}/registration-groups (200).
type ListRegistrationGroupsResponse struct {
	Items      []*domain.GroupRoster  `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListRegistrationGroupsSuccessResponse is the success response envelope for GET /events/{eventID}/registration-groups (200).
type ListRegistrationGroupsSuccessResponse struct {
	Data  ListRegistrationGroupsResponse `json:"data"`
	Error *helpers.APIError              `json:"error"`
}

// ListRegistrationGroupsForEvent godoc
// @Summary List registration groups of an event
// @Description Paginated rosters of every group registered for the event. Allowed for the event organizer and admins.
// @Tags registration-groups
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListRegistrationGroupsSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/registration-groups [get]
func (c *RegistrationGroupController) ListRegistrationGroupsForEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	rosters, total, err := c.Service.ListGroupsForEvent(r.Context(), actor, eventID, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if rosters == nil {
		rosters = []*domain.GroupRoster{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListRegistrationGroupsResponse{Items: rosters, Pagination: meta})
}
