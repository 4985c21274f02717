package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/user"
	"github.com/cmlabs-hris/staff-hours-go/internal/handler/http/response"
)

// RequirePermission lets the request through when the caller's role grants
// at least one of permissions.
func RequirePermission(permissions ...user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := user.ActorFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			for _, p := range permissions {
				if actor.Can(p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			slog.Debug("Permission denied",
				"user_id", actor.UserID,
				"role", actor.Role,
				"required", permissions,
				"path", r.URL.Path,
			)
			response.Forbidden(w, fmt.Sprintf("Insufficient permissions: role '%s' lacks %v", actor.Role, permissions))
		})
	}
}
