package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/ebookshop-backend/api/responses"
	pkgAuth "github.com/angelmondragon/ebookshop-backend/pkg/auth"
	"github.com/angelmondragon/ebookshop-backend/pkg/auth/session"
	"github.com/angelmondragon/ebookshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
)

// DefaultLoginPath is where unauthenticated console visitors are sent.
const DefaultLoginPath = "/api/admin/v1/auth/login"

// Auth validates an admin bearer token and seeds the request context with the claims.
// Browsers asking for HTML are redirected to loginPath instead of receiving a 401.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, loginPath string, logg *logger.Logger) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deny := func(err *pkgerrors.Error) {
				if wantsHTML(r) && err.Code() == pkgerrors.CodeUnauthorized {
					http.Redirect(w, r, loginPath, http.StatusSeeOther)
					return
				}
				if err.Code() == pkgerrors.CodeUnauthorized {
					err = err.WithDetails(map[string]string{"login_path": loginPath})
				}
				responses.WriteError(r.Context(), logg, w, err)
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				deny(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				deny(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				deny(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					deny(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					deny(pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			adminID := claims.AdminID.String()
			ctx := context.WithValue(r.Context(), ctxAdminID, adminID)
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))

			if logg != nil {
				ctx = logg.WithAdminID(ctx, adminID)
				ctx = logg.WithField(ctx, "admin_role", string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	token := strings.TrimSpace(header)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

func wantsHTML(r *http.Request) bool {
	accept := strings.ToLower(r.Header.Get("Accept"))
	return strings.Contains(accept, "text/html")
}
