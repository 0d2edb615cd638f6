package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
)

// RequireRole rejects actors whose role is not in roles.
func RequireRole(roles ...actor.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			act, ok := actor.FromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}
			if !slices.Contains(roles, act.Role) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: role '%s' not allowed", act.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdministrative allows admin and hr.
func RequireAdministrative(next http.Handler) http.Handler {
	return RequireRole(actor.RoleAdmin, actor.RoleHR)(next)
}

// RequireAdmin allows admin only.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(actor.RoleAdmin)(next)
}
