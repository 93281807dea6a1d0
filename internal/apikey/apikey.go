// internal/apikey/apikey.go
//
// Project-scoped API key lookup.
//
// Context
// -------
// An API key is a bearer secret bound to exactly one project:
//
//	api_key (id PK, project_id, secret_hash UNIQUE, created_at, revoked_at)
//
// Only the SHA-256 of the raw secret is stored; lookup hashes the presented
// value and matches on secret_hash.  Key issuance and rotation are handled by
// operator tooling, not this package.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package apikey

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Key is the resolved binding of a presented API key.
type Key struct {
	ID        string `db:"id"`
	ProjectID string `db:"project_id"`
}

// HashSecret returns the hex SHA-256 of a raw key secret, the form stored in
// api_key.secret_hash.
func HashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Lookup resolves a presented raw key to its id and bound project.  An
// unknown or revoked key returns (nil, nil); only store failures return an
// error.
func Lookup(ctx context.Context, db *sqlx.DB, raw string) (*Key, error) {
	const q = `SELECT id, project_id
	             FROM api_key
	            WHERE secret_hash = ? AND revoked_at IS NULL
	            LIMIT 1`

	var k Key
	err := db.GetContext(ctx, &k, q, HashSecret(raw))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}
