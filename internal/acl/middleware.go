// internal/acl/middleware.go
//
// Chi middleware helpers that enforce access control.

package acl

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ResolvePrincipal resolves the caller once and stores the principal on the
// request context for downstream facade calls.  Anonymous callers pass
// through unchanged; enforcement happens at the route level.
func ResolvePrincipal(rv *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p := rv.Resolve(r); p != nil {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireProjectRole gates a subtree on a project role.  The project id is
// taken from the {projectID} route parameter.
func RequireProjectRole(guard *Guard, role Role) func(http.Handler) http.Handler {
	if !role.IsProjectRole() {
		panic("acl.RequireProjectRole: " + string(role) + " is not a project role")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pid := chi.URLParam(r, "projectID")
			if pid == "" {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}

			if _, err := guard.Project(pid).withProjectRole(role).Require(r); err != nil {
				status := StatusOf(err)
				if status == http.StatusInternalServerError {
					zap.L().Error("acl project check", zap.Error(err))
				}
				http.Error(w, http.StatusText(status), status)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
