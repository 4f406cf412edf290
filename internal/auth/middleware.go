// internal/auth/middleware.go

package auth

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/imadgeboyega/laundry-backend/internal/common/utils"
	"github.com/imadgeboyega/laundry-backend/internal/session"
)

type identityKey struct{}

// RequireRole only lets through logged-in users holding one of roles.
// Must run inside the session middleware.
func RequireRole(roles ...Role) mux.MiddlewareFunc {
	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := CurrentIdentity(sess)
			if err != nil {
				utils.ErrorResponse(w, "Please log in first", http.StatusUnauthorized)
				return
			}
			if !allowed[identity.Role] {
				utils.ErrorResponse(w, "You do not have access to this resource", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity set by RequireRole
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok
}
