package index

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/genizalab/corpus/pkg/models"
)

// Record is the flat representation of a document pushed to the search index.
// The external engine upserts by ID; ranking and tokenization are its concern.
type Record struct {
	ID              string    `json:"id"`
	PGPID           int64     `json:"pgpid"`
	Status          string    `json:"status"`
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	Notes           string    `json:"notes"`
	NeedsReview     bool      `json:"needs_review"`
	Shelfmark       string    `json:"shelfmark"`
	Fragments       []string  `json:"fragment_shelfmarks"`
	Tags            []string  `json:"tags"`
	Languages       []string  `json:"languages"`
	OldPGPIDs       []int64   `json:"old_pgpids"`
	NumEditions     int       `json:"num_editions"`
	NumTranslations int       `json:"num_translations"`
	NumDiscussions  int       `json:"num_discussions"`
	Transcription   string    `json:"transcription"`
	LastInput       time.Time `json:"last_input"`
}

// RecordID is the stable index identifier for a document.
func RecordID(documentID int64) string {
	return fmt.Sprintf("document.%d", documentID)
}

// BuildRecord flattens a document bundle into its index record. Deterministic
// given the same bundle: re-projecting an unchanged document yields an
// identical record.
func BuildRecord(bundle *models.DocumentBundle) *Record {
	doc := bundle.Document

	record := &Record{
		ID:          RecordID(doc.ID),
		PGPID:       doc.ID,
		Status:      doc.Status,
		Type:        doc.DocType,
		Description: doc.Description,
		Notes:       doc.Notes,
		NeedsReview: doc.NeedsReview != "",
		Shelfmark:   shelfmarkDisplay(bundle.Placements),
		Fragments:   fragmentShelfmarks(bundle.Placements),
		Tags:        sortedCopy(bundle.Tags),
		Languages:   languageNames(bundle.Languages),
		OldPGPIDs:   append([]int64{}, bundle.OldIDs...),
	}

	var transcriptions []string
	for _, c := range bundle.Citations {
		if c.HasRelation(models.RelationEdition) {
			record.NumEditions++
		}
		if c.HasRelation(models.RelationTranslation) {
			record.NumTranslations++
		}
		if c.HasRelation(models.RelationDiscussion) {
			record.NumDiscussions++
		}
		if c.HasContent() {
			transcriptions = append(transcriptions, *c.Content)
		}
	}
	record.Transcription = strings.Join(transcriptions, "\n")

	for _, entry := range bundle.LogEntries {
		if entry.Created.After(record.LastInput) {
			record.LastInput = entry.Created
		}
	}

	return record
}

// shelfmarkDisplay joins the shelfmarks of certain placements in placement
// order, collapsing consecutive duplicates, e.g. "T-S 8J22.25 + T-S NS J193".
func shelfmarkDisplay(placements []models.Placement) string {
	ordered := orderedPlacements(placements)

	var parts []string
	seen := make(map[string]struct{})
	for _, p := range ordered {
		if !p.Certain || p.Shelfmark == "" {
			continue
		}
		if _, ok := seen[p.Shelfmark]; ok {
			continue
		}
		seen[p.Shelfmark] = struct{}{}
		parts = append(parts, p.Shelfmark)
	}
	return strings.Join(parts, " + ")
}

func fragmentShelfmarks(placements []models.Placement) []string {
	ordered := orderedPlacements(placements)

	var out []string
	seen := make(map[string]struct{})
	for _, p := range ordered {
		if p.Shelfmark == "" {
			continue
		}
		if _, ok := seen[p.Shelfmark]; ok {
			continue
		}
		seen[p.Shelfmark] = struct{}{}
		out = append(out, p.Shelfmark)
	}
	return out
}

func orderedPlacements(placements []models.Placement) []models.Placement {
	ordered := append([]models.Placement{}, placements...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})
	return ordered
}

func languageNames(langs []models.LanguageScript) []string {
	names := make([]string, 0, len(langs))
	for _, l := range langs {
		names = append(names, l.Language)
	}
	sort.Strings(names)
	return names
}

func sortedCopy(values []string) []string {
	out := append([]string{}, values...)
	sort.Strings(out)
	return out
}
