package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventregistration/internal/delivery/http/controllers"
	"eventregistration/internal/delivery/http/middleware"
	"eventregistration/internal/domain"
)

// RouterConfig holds what the router needs beyond the controllers.
type RouterConfig struct {
	Logger         *slog.Logger
	Verifier       domain.TokenVerifier
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes and wraps it with
// tracing, CORS and request logging.
func NewRouter(cfg RouterConfig, groups *controllers.RegistrationGroupController, invites *controllers.RegistrationInviteController) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)

	// Registration groups
	mux.HandleFunc("POST /registration-groups", auth(groups.CreateRegistrationGroup))
	mux.HandleFunc("GET /registration-groups/{groupID}", auth(groups.GetRegistrationGroup))
	mux.HandleFunc("PATCH /registration-groups/{groupID}", auth(groups.UpdateRegistrationGroup))
	mux.HandleFunc("GET /events/{eventID}/registration-groups", auth(groups.ListRegistrationGroupsForEvent))

	// Invites and membership
	mux.HandleFunc("POST /registration-groups/{groupID}/invites", auth(invites.InviteRegistrationGroupMember))
	mux.HandleFunc("POST /registration-invites/{inviteID}/revoke", auth(invites.RevokeRegistrationInvite))
	mux.HandleFunc("POST /registration-invites/accept", auth(invites.AcceptRegistrationInvite))
	mux.HandleFunc("POST /registration-invites/decline", auth(invites.DeclineRegistrationInvite))
	mux.HandleFunc("GET /registration-invites/preview", invites.GetRegistrationInvitePreview)
	mux.HandleFunc("DELETE /registration-group-members/{memberID}", auth(invites.RemoveRegistrationGroupMember))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.AllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(cfg.Logger, handler)
	handler = middleware.Tracing(handler)
	return handler
}
