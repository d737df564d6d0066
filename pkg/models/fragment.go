package models

import (
	"slices"
	"time"

	"github.com/genizalab/corpus/pkg/database"
)

// Fragment is a physical held object. Fragments are never deleted by merges.
type Fragment struct {
	ID              int64                    `db:"id" json:"id"`
	Shelfmark       string                   `db:"shelfmark" json:"shelfmark"`
	OldShelfmarks   database.JSONB[[]string] `db:"old_shelfmarks" json:"old_shelfmarks"`
	Collection      string                   `db:"collection" json:"collection"`
	URL             string                   `db:"url" json:"url"`
	IIIFURL         string                   `db:"iiif_url" json:"iiif_url"`
	IsMultifragment bool                     `db:"is_multifragment" json:"is_multifragment"`
	Notes           string                   `db:"notes" json:"notes"`
	NeedsReview     string                   `db:"needs_review" json:"needs_review"`
	Created         time.Time                `db:"created" json:"created"`
	LastModified    time.Time                `db:"last_modified" json:"last_modified"`
}

// ReplaceShelfmark changes the shelfmark, recording the one it replaces in
// old_shelfmarks so historical references keep resolving.
func (f *Fragment) ReplaceShelfmark(shelfmark string) {
	if shelfmark == f.Shelfmark {
		return
	}
	if f.Shelfmark != "" && !slices.Contains(f.OldShelfmarks.Data, f.Shelfmark) {
		f.OldShelfmarks.Data = append(f.OldShelfmarks.Data, f.Shelfmark)
	}
	f.Shelfmark = shelfmark
}

// Sides a placement can sit on.
const (
	SideRecto = "r"
	SideVerso = "v"
)

// Placement associates a document with a fragment, ordered within the
// document, with side/region labels and a certainty flag.
type Placement struct {
	ID         int64  `db:"id" json:"id"`
	DocumentID int64  `db:"document_id" json:"document_id"`
	FragmentID int64  `db:"fragment_id" json:"fragment_id"`
	Side       string `db:"side" json:"side"`
	Region     string `db:"region" json:"region"`
	OrderIndex int    `db:"order_index" json:"order_index"`
	Certain    bool   `db:"certain" json:"certain"`

	// Shelfmark of the referenced fragment, populated on reads that join
	// fragments. Not a placements column.
	Shelfmark string `db:"shelfmark" json:"shelfmark,omitempty"`
}
