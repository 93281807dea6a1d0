// internal/acl/engine.go
//
// Access Decision Engine.
//
// Context
// -------
// HasAccess answers one question: may principal P act with at-least-role R on
// entity E?  The rules, in evaluation order:
//
//   - Service principals pass unconditionally.
//   - API key principals are all-or-nothing at the project boundary: the
//     entity's owning project must equal the key's bound project, and the
//     required role is ignored.  Deliberate coarse-grained trust, preserved
//     as-is.
//   - User principals first try a direct grant on the entity itself; a
//     sufficient direct grant short-circuits.  Otherwise the entity resolves
//     to its owning project and the check recurses there with the required
//     role mapped to its project equivalent.  A user can hold `read` on a
//     single secret with no project grant at all.
//   - No principal denies everything.
//
// Denial and failure stay distinct: a broken resolution chain or absent grant
// is (false, nil), while a store error propagates so callers can tell
// "denied" from "couldn't determine."  Checks never write; the engine holds
// no state between calls.
package acl

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Engine evaluates access decisions against the grant store.  Stateless;
// safe for concurrent use.
type Engine struct {
	db *sqlx.DB
}

// NewEngine builds an Engine over the platform database.
func NewEngine(db *sqlx.DB) *Engine {
	return &Engine{db: db}
}

// HasAccess reports whether p may act on (entityType, entityID) at
// requiredRole.  requiredRole must be a project role when entityType is
// EntityProject and is mapped via ProjectEquivalent when falling back to
// project inheritance.
func (e *Engine) HasAccess(ctx context.Context, p Principal, entityType EntityType,
	entityID string, requiredRole Role) (bool, error) {

	switch pr := p.(type) {
	case ServicePrincipal:
		return true, nil

	case APIKeyPrincipal:
		// All-or-nothing at the project boundary; requiredRole is ignored.
		if entityType == EntityProject {
			return entityID == pr.ProjectID, nil
		}
		pid, found, err := ResolveProjectID(ctx, e.db, entityType, entityID)
		if err != nil {
			return false, err
		}
		return found && pid == pr.ProjectID, nil

	case UserPrincipal:
		return e.userHasAccess(ctx, pr.UserID, entityType, entityID, requiredRole)

	default:
		// Anonymous, or an unrecognized variant: deny by default.
		return false, nil
	}
}

// userHasAccess runs the two-step user check: direct grant first, then
// project inheritance.
func (e *Engine) userHasAccess(ctx context.Context, userID string, entityType EntityType,
	entityID string, requiredRole Role) (bool, error) {

	grants, err := FindGrants(ctx, e.db, userID, entityType, entityID)
	if err != nil {
		return false, err
	}

	want := requiredRole.ProjectEquivalent()
	for _, g := range grants {
		if IsAtLeast(g.Role.ProjectEquivalent(), want) {
			return true, nil
		}
	}

	if entityType == EntityProject {
		return false, nil
	}

	// Fall back to the owning project at the mapped role.
	pid, found, err := ResolveProjectID(ctx, e.db, entityType, entityID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil // broken chain: cannot prove ownership, deny
	}
	return e.userHasAccess(ctx, userID, EntityProject, pid, want)
}
