package models

import "time"

// Semester is an academic term. Exactly one row is flagged current.
type Semester struct {
	Name      string    `db:"name" json:"name"`
	IsCurrent bool      `db:"is_current" json:"is_current"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
