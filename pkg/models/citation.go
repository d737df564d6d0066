package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/genizalab/corpus/pkg/database"
)

// Relation kinds a citation can carry. Non-exclusive; a citation may be an
// edition and a translation at once.
const (
	RelationEdition     = "E"
	RelationTranslation = "T"
	RelationDiscussion  = "D"
)

// Source is a bibliographic record. Sources are read but never merged here.
type Source struct {
	ID      int64                    `db:"id" json:"id"`
	Title   string                   `db:"title" json:"title"`
	Authors database.JSONB[[]string] `db:"authors" json:"authors"`
	Year    int                      `db:"year" json:"year"`
	Volume  string                   `db:"volume" json:"volume"`
}

// Citation links a document to a source with relation kinds, a location within
// the source, and an optional transcription content payload.
type Citation struct {
	ID           int64          `db:"id" json:"id"`
	DocumentID   int64          `db:"document_id" json:"document_id"`
	SourceID     int64          `db:"source_id" json:"source_id"`
	Location     string         `db:"location" json:"location"`
	LocationSort string         `db:"location_sort" json:"location_sort"`
	Notes        string         `db:"notes" json:"notes"`
	Relations    pq.StringArray `db:"relations" json:"relations"`
	Content      *string        `db:"content" json:"content,omitempty"`
	Created      time.Time      `db:"created" json:"created"`
	LastModified time.Time      `db:"last_modified" json:"last_modified"`
}

// HasContent reports whether the citation carries a transcription payload.
func (c *Citation) HasContent() bool {
	return c.Content != nil && *c.Content != ""
}

// HasRelation reports whether the citation carries the relation kind.
func (c *Citation) HasRelation(kind string) bool {
	for _, r := range c.Relations {
		if r == kind {
			return true
		}
	}
	return false
}
