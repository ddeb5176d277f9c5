package middleware

import (
	"net/http"
	"slices"

	"github.com/angelmondragon/ebookshop-backend/api/responses"
	"github.com/angelmondragon/ebookshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
)

// RequireRole admits admins holding any of roles. It must run after Auth;
// a request without a role is treated as unauthenticated.
func RequireRole(logg *logger.Logger, roles ...enums.AdminRole) func(http.Handler) http.Handler {
	required := make([]string, 0, len(roles))
	for _, role := range roles {
		required = append(required, role.String())
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			current := RoleFromContext(ctx)
			switch {
			case current == "":
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			case slices.Contains(required, current):
				next.ServeHTTP(w, r)
			default:
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"role": current, "required": required}), "auth.role_denied")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required").WithDetails(map[string]any{"required": required}))
			}
		})
	}
}
