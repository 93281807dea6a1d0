// internal/acl/grant.go
//
// Entity vocabulary and the AccessGrant row model.

package acl

import (
	"fmt"
	"time"
)

// EntityType names every kind of resource the ACL can be asked about.  The
// string values are what the access_grant table stores in entity_type.
type EntityType string

const (
	EntityProject    EntityType = "project"
	EntityTaskSource EntityType = "task_source"
	EntityFileSpace  EntityType = "file_space"
	EntitySecret     EntityType = "secret"
	EntityTask       EntityType = "task"
	EntitySession    EntityType = "session"
	EntityExecution  EntityType = "pipeline_execution"
)

var knownEntityTypes = map[EntityType]struct{}{
	EntityProject:    {},
	EntityTaskSource: {},
	EntityFileSpace:  {},
	EntitySecret:     {},
	EntityTask:       {},
	EntitySession:    {},
	EntityExecution:  {},
}

// ParseEntityType validates an external entity-type name.
func ParseEntityType(s string) (EntityType, error) {
	et := EntityType(s)
	if _, ok := knownEntityTypes[et]; !ok {
		return "", fmt.Errorf("acl: unknown entity type %q", s)
	}
	return et, nil
}

// AccessGrant is one (user, entity, role) permission row.  Rows are unique on
// (user_id, entity_type, entity_id, role); re-granting the same tuple
// refreshes granted_by and granted_at instead of duplicating.
type AccessGrant struct {
	UserID     string     `db:"user_id"`
	EntityType EntityType `db:"entity_type"`
	EntityID   string     `db:"entity_id"`
	Role       Role       `db:"role"`
	GrantedBy  string     `db:"granted_by"`
	GrantedAt  time.Time  `db:"granted_at"`
	ExpiresAt  *time.Time `db:"expires_at"` // nil = never expires
}

// Expired reports whether the grant has an expiry in the past relative to
// now.  The store already filters expired rows at query time; this helper
// exists for callers holding a row in hand (e.g., audit views).
func (g AccessGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}
