// internal/acl/resolver.go
//
// Entity Resolver: walks a non-project entity up to its owning project.
//
// Context
// -------
// Every resource in Taskgrid ultimately belongs to one project, but only some
// tables carry a project_id column directly.  The ownership chains are fixed
// per entity type:
//
//	secret             → project_id                      (0 extra hops)
//	task_source        → project_id
//	file_space         → project_id
//	task               → task_source_id → task_source.project_id
//	session            → task_id → task → … → project
//	pipeline_execution → session_id → session → … → project
//
// The chains are data, not control flow: resolutionChains maps each entity
// type to an ordered hop list, so adding a resource type is a table edit.
// Each hop is one point lookup by primary key.
//
// A missing row anywhere in the chain means ownership cannot be proven, which
// the decision engine treats as denial.  Missing rows are therefore reported
// as (found == false, err == nil); only store failures produce an error.
// Resolution is read-only and idempotent, safe to call speculatively.
package acl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// hop is one parent lookup: read fkColumn from table by primary key; the
// value is the id of an entity of parentType.
type hop struct {
	table      string
	fkColumn   string
	parentType EntityType
}

// resolutionChains lists, per entity type, the ordered hops from the entity's
// own table up to the owning project id.  EntityProject is absent because a
// project resolves to itself.
var resolutionChains = map[EntityType][]hop{
	EntityTaskSource: {
		{"task_source", "project_id", EntityProject},
	},
	EntityFileSpace: {
		{"file_space", "project_id", EntityProject},
	},
	EntitySecret: {
		{"secret", "project_id", EntityProject},
	},
	EntityTask: {
		{"task", "task_source_id", EntityTaskSource},
		{"task_source", "project_id", EntityProject},
	},
	EntitySession: {
		{"task_session", "task_id", EntityTask},
		{"task", "task_source_id", EntityTaskSource},
		{"task_source", "project_id", EntityProject},
	},
	EntityExecution: {
		{"pipeline_execution", "session_id", EntitySession},
		{"task_session", "task_id", EntityTask},
		{"task", "task_source_id", EntityTaskSource},
		{"task_source", "project_id", EntityProject},
	},
}

// ResolveProjectID returns the id of the project that owns the given entity.
// found == false means some row in the chain is absent and access cannot be
// proven; err != nil means the store itself failed and the caller must not
// treat the outcome as a policy decision.
func ResolveProjectID(ctx context.Context, db *sqlx.DB, entityType EntityType,
	entityID string) (projectID string, found bool, err error) {

	if entityType == EntityProject {
		return entityID, true, nil
	}

	chain, ok := resolutionChains[entityType]
	if !ok {
		return "", false, fmt.Errorf("acl: no resolution chain for entity type %q", entityType)
	}

	id := entityID
	for _, h := range chain {
		q := `SELECT ` + h.fkColumn + ` FROM ` + h.table + ` WHERE id = ? LIMIT 1`

		var parent string
		err := db.GetContext(ctx, &parent, q, id)
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil // broken chain: deny, never error
		}
		if err != nil {
			return "", false, err
		}
		id = parent
	}
	return id, true, nil
}
