package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/ebookshop-backend/pkg/config"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
)

const cartSessionHeader = "X-Cart-Session"

// CartSession resolves the visitor's cart session from the X-Cart-Session
// header or the cart cookie. Missing or malformed ids are replaced by a fresh
// uuid. The id is echoed in the header and the cookie is re-issued on every
// request so its lifetime slides with the Redis slot.
func CartSession(cfg config.CartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "ebk_cart"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := resolveCartSession(r, cookieName)
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(cartSessionHeader, sessionID)

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveCartSession(r *http.Request, cookieName string) string {
	if id := normalizeSessionID(r.Header.Get(cartSessionHeader)); id != "" {
		return id
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return normalizeSessionID(cookie.Value)
	}
	return ""
}

func normalizeSessionID(raw string) string {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return parsed.String()
}
