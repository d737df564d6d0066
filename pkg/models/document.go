package models

import "time"

// Document statuses. Suppressed documents are excluded from the search index.
const (
	StatusPublic     = "P"
	StatusSuppressed = "S"
)

// Document is the top-level catalog record for a conceptual artifact or text.
// Its primary key is the PGPID referenced throughout the catalog.
type Document struct {
	ID           int64     `db:"id" json:"id"`
	Description  string    `db:"description" json:"description"`
	DocType      string    `db:"doctype" json:"doctype"`
	LanguageNote string    `db:"language_note" json:"language_note"`
	Notes        string    `db:"notes" json:"notes"`
	NeedsReview  string    `db:"needs_review" json:"needs_review"`
	Status       string    `db:"status" json:"status"`
	Created      time.Time `db:"created" json:"created"`
	LastModified time.Time `db:"last_modified" json:"last_modified"`
}

// IsPublic reports whether the document meets the indexable predicate.
func (d *Document) IsPublic() bool {
	return d.Status == StatusPublic
}

// LanguageScript is a language/script pair a document can be tagged with.
type LanguageScript struct {
	ID          int64  `db:"id" json:"id"`
	Language    string `db:"language" json:"language"`
	Script      string `db:"script" json:"script"`
	DisplayName string `db:"display_name" json:"display_name"`
}

// DocumentBundle is a document with every related fact loaded. It is the unit
// the merge engine folds over and the projector flattens.
type DocumentBundle struct {
	Document           Document         `json:"document"`
	OldIDs             []int64          `json:"old_ids"`
	Tags               []string         `json:"tags"`
	Languages          []LanguageScript `json:"languages"`
	SecondaryLanguages []LanguageScript `json:"secondary_languages"`
	Placements         []Placement      `json:"placements"`
	Citations          []Citation       `json:"citations"`
	LogEntries         []LogEntry       `json:"log_entries"`
}

// HasFragment reports whether any placement references the fragment,
// regardless of the certainty flag.
func (b *DocumentBundle) HasFragment(fragmentID int64) bool {
	for _, p := range b.Placements {
		if p.FragmentID == fragmentID {
			return true
		}
	}
	return false
}

// HasTag reports whether the bundle carries the tag.
func (b *DocumentBundle) HasTag(name string) bool {
	for _, t := range b.Tags {
		if t == name {
			return true
		}
	}
	return false
}
