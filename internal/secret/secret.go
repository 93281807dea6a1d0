// Helpers for the `secret` table.  A secret belongs to exactly one project;
// the project_id column is also the first hop of the ACL resolution chain.
package secret

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record mirrors one row in the `secret` table.  Value is the ciphertext as
// stored; decryption belongs to the caller that owns the key material.
type Record struct {
	ID        string    `db:"id"`
	ProjectID string    `db:"project_id"`
	Name      string    `db:"name"`
	Value     string    `db:"value"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ByID fetches a single secret row.
func ByID(ctx context.Context, db *sqlx.DB, id string) (*Record, error) {
	const q = `
        SELECT id, project_id, name, value, created_at, updated_at
        FROM   secret
        WHERE  id = ?
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, id); err != nil {
		return nil, err
	}
	return &rec, nil
}
