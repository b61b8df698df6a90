package auth

import (
	"net/http"
	"strings"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Middleware guards routes with Bearer-token authentication.
type Middleware struct {
	Service *Service
}

// RequireAuth validates the Bearer token and stores the principal in context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		claims, err := m.Service.VerifyAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		principal := &shared.Principal{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireRole ensures the authenticated principal has one of the allowed roles.
func (m Middleware) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		roleSet[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if _, ok := roleSet[principal.Role]; !ok {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
