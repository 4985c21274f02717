package middleware

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/auth"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/user"
	"github.com/cmlabs-hris/staff-hours-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests without a valid access token and stores the
// caller as a user.Actor on the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if errors.Is(err, jwtauth.ErrExpired) {
				response.HandleError(w, auth.ErrTokenExpired)
				return
			}
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			userID, _ := claims["user_id"].(string)
			if userID == "" {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			roleStr, _ := claims["role"].(string)
			role := user.Role(roleStr)
			if _, known := user.RolePermissions[role]; !known {
				response.HandleError(w, auth.ErrInvalidRole)
				return
			}

			email, _ := claims["email"].(string)
			ctx := user.WithActor(r.Context(), user.Actor{
				UserID: userID,
				Email:  email,
				Role:   role,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}
