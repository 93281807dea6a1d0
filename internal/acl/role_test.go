// internal/acl/role_test.go
//
// Unit-tests for the role vocabulary and privilege ordering.

package acl

import "testing"

func TestIsAtLeast_ProjectOrdering(t *testing.T) {
	cases := []struct {
		have, want Role
		ok         bool
	}{
		{RoleOwner, RoleOwner, true},
		{RoleOwner, RoleViewer, true},
		{RoleAdmin, RoleViewer, true},
		{RoleDeveloper, RoleViewer, true},
		{RoleViewer, RoleViewer, true},
		{RoleViewer, RoleDeveloper, false},
		{RoleDeveloper, RoleAdmin, false},
		{RoleAdmin, RoleOwner, false},
		{RoleViewer, RoleOwner, false},
	}
	for _, c := range cases {
		if got := IsAtLeast(c.have, c.want); got != c.ok {
			t.Errorf("IsAtLeast(%s, %s) = %v, want %v", c.have, c.want, got, c.ok)
		}
	}
}

func TestIsAtLeast_UnmappedResourceRoleIsFalse(t *testing.T) {
	// Resource roles must go through ProjectEquivalent first; a raw
	// comparison is undefined and reports false in both positions.
	if IsAtLeast(RoleRead, RoleViewer) {
		t.Error("raw resource role on the have side should not satisfy anything")
	}
	if IsAtLeast(RoleOwner, RoleWrite) {
		t.Error("raw resource role on the want side should never be satisfied")
	}
}

func TestProjectEquivalent(t *testing.T) {
	cases := map[Role]Role{
		RoleRead:      RoleViewer,
		RoleWrite:     RoleDeveloper,
		RoleUse:       RoleDeveloper,
		RoleOwner:     RoleOwner,
		RoleAdmin:     RoleAdmin,
		RoleDeveloper: RoleDeveloper,
		RoleViewer:    RoleViewer,
	}
	for in, want := range cases {
		if got := in.ProjectEquivalent(); got != want {
			t.Errorf("ProjectEquivalent(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"owner", "admin", "developer", "viewer", "read", "write", "use"} {
		if _, err := ParseRole(s); err != nil {
			t.Errorf("ParseRole(%q) unexpected error: %v", s, err)
		}
	}
	for _, s := range []string{"", "root", "Admin", "superuser"} {
		if _, err := ParseRole(s); err == nil {
			t.Errorf("ParseRole(%q) should fail", s)
		}
	}
}

func TestParseEntityType(t *testing.T) {
	for _, s := range []string{"project", "task_source", "file_space", "secret",
		"task", "session", "pipeline_execution"} {
		if _, err := ParseEntityType(s); err != nil {
			t.Errorf("ParseEntityType(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseEntityType("widget"); err == nil {
		t.Error("ParseEntityType(\"widget\") should fail")
	}
}
