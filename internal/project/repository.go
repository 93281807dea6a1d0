package project

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ByID fetches a single live project row.  The caller supplies a context so
// the lookup respects request deadlines.
func ByID(ctx context.Context, db *sqlx.DB, id string) (*Record, error) {
	const q = `
        SELECT id, name, created_by, created_at, updated_at, deleted_at
        FROM   project
        WHERE  id = ?
          AND  deleted_at IS NULL
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ByIDs fetches the live projects among ids, preserving no particular order.
// Listing endpoints call this with the ids the ACL already filtered by
// visibility.  An empty input returns an empty slice without touching the
// database.
func ByIDs(ctx context.Context, db *sqlx.DB, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}

	q, args, err := sqlx.In(`
        SELECT id, name, created_by, created_at, updated_at, deleted_at
        FROM   project
        WHERE  id IN (?)
          AND  deleted_at IS NULL`, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]Record, 0, len(ids))
	if err := db.SelectContext(ctx, &rows, db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// All returns every live project.  Used by trusted internal callers and
// batch tooling, not by user-facing listings, which filter by grant first.
func All(ctx context.Context, db *sqlx.DB) ([]Record, error) {
	const q = `
        SELECT id, name, created_by, created_at, updated_at, deleted_at
        FROM   project
        WHERE  deleted_at IS NULL`
	rows := make([]Record, 0, 16)
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert creates a project row.
func Insert(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const q = `
        INSERT INTO project (id, name, created_by, created_at, updated_at)
        VALUES (?, ?, ?, NOW(), NOW())`
	_, err := db.ExecContext(ctx, q, rec.ID, rec.Name, rec.CreatedBy)
	return err
}

// SoftDelete stamps deleted_at on a live project.  Grants pointing at the
// project stay in place; deleted projects simply stop resolving.
func SoftDelete(ctx context.Context, db *sqlx.DB, id string) (int64, error) {
	const q = `
        UPDATE project
        SET    deleted_at = NOW()
        WHERE  id = ?
          AND  deleted_at IS NULL`
	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
