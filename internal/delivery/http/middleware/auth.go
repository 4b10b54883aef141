package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	h "eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"
)

type contextKey struct{}

var principalKey contextKey

// SetPrincipal returns a context carrying the authenticated caller.
func SetPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated caller, if RequireAuth ran.
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*domain.Principal)
	return p, ok && p != nil
}

// bearerToken extracts the credentials of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively. A non-empty reason means the header is unusable.
func bearerToken(header string) (token, reason string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, rest, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization format"
	}
	if token = strings.TrimSpace(rest); token == "" {
		return "", "missing token"
	}
	return token, ""
}

// RequireAuth validates the bearer token and stores the resulting principal in the
// request context. Unauthenticated requests get a 401 and never reach next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, reason := bearerToken(r.Header.Get("Authorization"))
			if reason != "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, reason)
				return
			}
			principal, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "bearer token rejected", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("enduser.id", principal.UserID))
			next(w, r.WithContext(SetPrincipal(r.Context(), principal)))
		}
	}
}
