// internal/acl/errors.go
//
// Status-coded denial errors raised by the enforcement facade.
//
// Only two policy failures exist: nobody could be identified (401), or the
// identified caller lacks the required role (403).  Messages name the
// required role and entity type, never which users do hold access, and a
// missing parent row surfaces as the same 403 so the authorization layer
// leaks no existence information.  Infrastructure errors are ordinary Go
// errors and never wear this type.

package acl

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a denial with an HTTP-style status.  Returned only by the
// enforcement facade; the decision engine itself deals in plain booleans.
type Error struct {
	Status  int // http.StatusUnauthorized or http.StatusForbidden
	Message string
}

func (e *Error) Error() string { return e.Message }

// errUnauthenticated builds the 401 variant: no principal at all.
func errUnauthenticated() *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Message: "authentication required",
	}
}

// errForbidden builds the 403 variant, naming role and entity type only.
func errForbidden(role Role, entityType EntityType) *Error {
	return &Error{
		Status:  http.StatusForbidden,
		Message: fmt.Sprintf("requires role %q on %s", role, entityType),
	}
}

// StatusOf maps err to an HTTP status: 401/403 for facade denials, 500 for
// anything else (including store failures), 200 for nil.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}
