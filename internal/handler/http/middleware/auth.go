package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/presence-payroll-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type (
	userIDKey struct{}
	adminKey  struct{}
)

// UserID returns the authenticated caller, or "" outside AuthRequired.
// Employees authenticate with their employee ID as user ID.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// IsAdmin reports whether the authenticated caller holds the admin claim.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminKey{}).(bool)
	return admin
}

// AuthRequired accepts verified access tokens that name a user and stores
// the user ID and admin flag on the request context.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}
		if token == nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		if tokenType, _ := claims["type"].(string); tokenType != "access" {
			response.Unauthorized(w, "Invalid token")
			return
		}
		userID, _ := claims["user_id"].(string)
		if userID == "" {
			response.Unauthorized(w, "Invalid token")
			return
		}

		admin, _ := claims["is_admin"].(bool)
		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		ctx = context.WithValue(ctx, adminKey{}, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
