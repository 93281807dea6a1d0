// internal/acl/role.go
//
// Role vocabulary and privilege ordering.
//
// Context
// -------
// Taskgrid uses two disjoint role vocabularies that share one type:
//
//   - Project roles, most to least privileged:  owner > admin > developer >
//     viewer.  These are the only roles that may be compared directly.
//   - Resource roles:  read, write, use.  They never appear on Project
//     entities, and they carry no ordering among themselves.  Before any
//     comparison they must be mapped to their project equivalent
//     (read → viewer, write → developer, use → developer).
//
// Role names arriving from config, route payloads, or the grant table go
// through ParseRole once, at the edge.  An unrecognized name is a
// configuration error and is rejected there; the comparison logic below
// never sees one.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package acl

import "fmt"

// Role is a closed vocabulary.  Use the Role* constants; construct from
// external input only via ParseRole.
type Role string

// Project roles, in privilege order.
const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleViewer    Role = "viewer"
)

// Resource roles.  Valid only on non-project entities.
const (
	RoleRead  Role = "read"
	RoleWrite Role = "write"
	RoleUse   Role = "use"
)

// projectRank orders project roles; a lower rank means more privilege.
var projectRank = map[Role]int{
	RoleOwner:     0,
	RoleAdmin:     1,
	RoleDeveloper: 2,
	RoleViewer:    3,
}

// resourceEquivalent maps each resource role to the project role that
// satisfies it through inheritance.
var resourceEquivalent = map[Role]Role{
	RoleRead:  RoleViewer,
	RoleWrite: RoleDeveloper,
	RoleUse:   RoleDeveloper,
}

// ParseRole validates an external role name.  Callers must treat an error as
// fatal configuration or input rejection, never as "no access."
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := projectRank[r]; ok {
		return r, nil
	}
	if _, ok := resourceEquivalent[r]; ok {
		return r, nil
	}
	return "", fmt.Errorf("acl: unknown role %q", s)
}

// IsProjectRole reports whether r belongs to the project vocabulary.
func (r Role) IsProjectRole() bool {
	_, ok := projectRank[r]
	return ok
}

// IsResourceRole reports whether r belongs to the resource vocabulary.
func (r Role) IsResourceRole() bool {
	_, ok := resourceEquivalent[r]
	return ok
}

// ProjectEquivalent returns the project role used when comparing r.  Project
// roles map to themselves; resource roles map through the fixed table above.
// The zero Role maps to itself and will never satisfy a comparison.
func (r Role) ProjectEquivalent() Role {
	if eq, ok := resourceEquivalent[r]; ok {
		return eq
	}
	return r
}

// IsAtLeast reports whether holding `have` satisfies a requirement of `want`.
// Both arguments must be project roles; resource roles must go through
// ProjectEquivalent first.  Comparing an unmapped resource role is undefined
// and reports false.
func IsAtLeast(have, want Role) bool {
	h, ok := projectRank[have]
	if !ok {
		return false
	}
	w, ok := projectRank[want]
	if !ok {
		return false
	}
	return h <= w
}
