package models

import (
	"time"

	"github.com/google/uuid"
)

// Log entry actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionMerge  = "merge"
)

// LogEntry is an append-only audit record attached to a document. Entries are
// reassociated, not copied, when their document is absorbed by a merge.
type LogEntry struct {
	ID         uuid.UUID `db:"id" json:"id"`
	DocumentID int64     `db:"document_id" json:"document_id"`
	Actor      string    `db:"actor" json:"actor"`
	Action     string    `db:"action" json:"action"`
	Message    string    `db:"message" json:"message"`
	Created    time.Time `db:"created" json:"created"`
}
