package model

import "time"

// DoIt is a repeatable chore definition, e.g. "Feed Fish".
type DoIt struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

func (d DoIt) String() string {
	return d.Description
}

// DidIt records one completion of a DoIt. It is append-only.
type DidIt struct {
	ID       int64     `json:"id" db:"id"`
	DoItID   int64     `json:"doit_id" db:"doit_id"`
	DoItName string    `json:"doit_name" db:"doit_name"`
	DoneAt   time.Time `json:"done_at" db:"done_at"`
}
