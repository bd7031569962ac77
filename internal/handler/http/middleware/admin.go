package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/presence-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

// AdminOnly must run after AuthRequired.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		if admin, _ := claims["is_admin"].(bool); !admin {
			response.Forbidden(w, "Admin privilege required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SelfOrAdmin lets admins through and otherwise only callers whose user ID
// equals the named URL parameter. It must run after AuthRequired and be
// attached to the route itself so the parameter is resolved.
func SelfOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdmin(r.Context()) && chi.URLParam(r, param) != UserID(r.Context()) {
				response.Forbidden(w, "Access to another employee's records is not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
