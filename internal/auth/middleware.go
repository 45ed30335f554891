package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/squadhub/squadhub/internal/apperrors"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const principalContextKey contextKey = "principal"

// Header names for the optional acting-context pair. When the context
// type is "team", the request is performed as the team identified by
// X-Context-Id on behalf of the token's subject.
const (
	HeaderContextType = "X-Context-Type"
	HeaderContextID   = "X-Context-Id"
)

// PrincipalMiddleware resolves the acting principal from request metadata
// and injects it into the context. Requests without a usable token
// continue unauthenticated; RequirePrincipal gates the routes that need
// one.
func PrincipalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := ResolvePrincipal(
			r.Header.Get("Authorization"),
			r.Header.Get(HeaderContextType),
			r.Header.Get(HeaderContextID),
		)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("No principal resolved")
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePrincipal is middleware that requires an authenticated principal.
// Returns 401 if none was resolved.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); !ok {
			apperrors.WriteUnauthorized(w, r, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PrincipalFrom retrieves the resolved principal from the context.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(Principal)
	return principal, ok
}

// GetUserID retrieves the authenticated user ID from the context.
// Returns uuid.Nil if no principal was resolved.
func GetUserID(ctx context.Context) uuid.UUID {
	principal, ok := PrincipalFrom(ctx)
	if !ok {
		return uuid.Nil
	}
	return principal.UserID
}
