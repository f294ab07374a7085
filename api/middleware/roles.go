package middleware

import (
	"net/http"

	"github.com/linarqa/linarqa-web/pkg/enums"
	"github.com/linarqa/linarqa-web/pkg/logger"
)

// RequireUser serves next only when a user is signed in. Otherwise the
// fallback (the login page) is rendered in place, without a redirect.
func RequireUser(fallback http.Handler) func(http.Handler) http.Handler {
	return RequireRole(fallback, nil)
}

// RequireRole serves next when the signed-in user holds one of roles. An
// empty allow-list admits any signed-in user.
func RequireRole(fallback http.Handler, logg *logger.Logger, roles ...enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil || (len(roles) > 0 && !user.HasRole(roles...)) {
				if user != nil && logg != nil {
					logg.Warn(logg.WithField(r.Context(), "path", r.URL.Path), "access.role_denied")
				}
				fallback.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
