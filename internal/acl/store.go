// internal/acl/store.go
//
// Grant Store query helpers.
//
// Context
// -------
// All grants live in one table:
//
//	access_grant (user_id, entity_type, entity_id, role,
//	              granted_by, granted_at, expires_at NULL,
//	              UNIQUE (user_id, entity_type, entity_id, role))
//
// These helpers are pure data access; policy lives in engine.go.  They accept
// a *sqlx.DB scoped by the caller and perform simple parameterised queries.
// Expired rows are filtered at query time, so readers never see a grant whose
// expires_at has passed, even between sweeper runs.
//
// Store errors are returned untouched.  A connectivity failure must stay
// distinguishable from "no grant found"; callers may never coerce one into
// the other.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • Max line length 100 columns.
package acl

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// FindGrants returns the non-expired grants held by userID on one entity.
// Zero rows is a normal outcome, not an error.
func FindGrants(ctx context.Context, db *sqlx.DB, userID string, entityType EntityType,
	entityID string) ([]AccessGrant, error) {

	const q = `SELECT user_id, entity_type, entity_id, role,
	                  granted_by, granted_at, expires_at
	             FROM access_grant
	            WHERE user_id = ? AND entity_type = ? AND entity_id = ?
	              AND (expires_at IS NULL OR expires_at > NOW())`

	grants := make([]AccessGrant, 0, 2)
	if err := db.SelectContext(ctx, &grants, q, userID, entityType, entityID); err != nil {
		return nil, err
	}
	return grants, nil
}

// UpsertGrant inserts a grant or, when the (user, entity, role) tuple already
// exists, refreshes granted_by, granted_at, and expires_at on the existing
// row.  granted_at is always set server-side to NOW().
func UpsertGrant(ctx context.Context, db *sqlx.DB, g AccessGrant) error {
	const q = `INSERT INTO access_grant
	              (user_id, entity_type, entity_id, role, granted_by, granted_at, expires_at)
	           VALUES (?, ?, ?, ?, ?, NOW(), ?)
	           ON DUPLICATE KEY UPDATE
	              granted_by = VALUES(granted_by),
	              granted_at = NOW(),
	              expires_at = VALUES(expires_at)`

	_, err := db.ExecContext(ctx, q,
		g.UserID, g.EntityType, g.EntityID, g.Role, g.GrantedBy, g.ExpiresAt)
	return err
}

// DeleteGrant revokes grants for userID on one entity.  When role is non-nil
// only that role row is removed; otherwise every role the user holds on the
// entity goes.  Returns the number of rows deleted.
func DeleteGrant(ctx context.Context, db *sqlx.DB, userID string, entityType EntityType,
	entityID string, role *Role) (int64, error) {

	q := `DELETE FROM access_grant
	       WHERE user_id = ? AND entity_type = ? AND entity_id = ?`
	args := []any{userID, entityType, entityID}
	if role != nil {
		q += ` AND role = ?`
		args = append(args, *role)
	}

	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpiredGrants removes every row whose expires_at has passed.  Called
// by the periodic sweeper; safe to run concurrently with checks because
// readers already filter on expiry.
func DeleteExpiredGrants(ctx context.Context, db *sqlx.DB) (int64, error) {
	const q = `DELETE FROM access_grant
	            WHERE expires_at IS NOT NULL AND expires_at <= NOW()`

	res, err := db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AccessibleProjectIDs returns the ids of every project on which userID
// holds any non-expired project-level grant.  Listing endpoints use this to
// filter collections by visibility instead of checking row by row.
func AccessibleProjectIDs(ctx context.Context, db *sqlx.DB, userID string) ([]string, error) {
	const q = `SELECT DISTINCT entity_id
	             FROM access_grant
	            WHERE user_id = ? AND entity_type = ?
	              AND (expires_at IS NULL OR expires_at > NOW())
	            ORDER BY entity_id`

	ids := make([]string, 0, 8)
	if err := db.SelectContext(ctx, &ids, q, userID, EntityProject); err != nil {
		return nil, err
	}
	return ids, nil
}
