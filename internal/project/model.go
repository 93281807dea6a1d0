package project

import "time"

// Record mirrors one row in the persistent `project` table.  DeletedAt
// non-NULL means the project is permanently removed; repositories filter it
// out everywhere.
type Record struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	CreatedBy string     `db:"created_by"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}
