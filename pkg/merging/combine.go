// Package merging consolidates duplicate documents into one survivor while
// preserving provenance and deduplicating associated facts.
package merging

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/genizalab/corpus/pkg/models"
	"github.com/genizalab/corpus/pkg/reconcile"
)

// ScriptedMergeMarker is prepended to the survivor's review field when a merge
// runs without a human actor, so the result can be confirmed later.
const ScriptedMergeMarker = "NEEDS REVIEW: SCRIPTED MERGE"

// Plan is the full set of mutations a merge must apply. It is produced by
// Combine without touching storage, so the fold is testable on its own and the
// engine's transaction is a mechanical application of the plan.
type Plan struct {
	// Survivor carries the combined scalar fields.
	Survivor models.Document
	// OldIDs is the survivor's complete superseded-id list after the merge.
	OldIDs []int64
	// AddedTags are tag names the survivor gains.
	AddedTags []string
	// AddedLanguages and AddedSecondaryLanguages are language script ids the
	// survivor gains.
	AddedLanguages          []int64
	AddedSecondaryLanguages []int64
	// MovePlacements are placement ids reassigned to the survivor. Placements
	// of absorbed documents whose fragment the survivor already references are
	// left behind and removed by the cascade delete.
	MovePlacements []int64
	// MoveCitations are citation ids reassigned to the survivor.
	MoveCitations []int64
	// DropCitations are survivor citation ids superseded by an incoming
	// content-bearing citation.
	DropCitations []int64
	// MoveLogEntries are log entries reassigned to the survivor with their
	// message rewritten for provenance.
	MoveLogEntries []LogMove
	// AbsorbedIDs are the documents deleted by the merge, in absorption order.
	AbsorbedIDs []int64
	// DroppedPlacements are placement ids left behind because their fragment
	// duplicates one on the survivor. Field conflicts with the kept placement
	// are not reconciled; the engine logs each one.
	DroppedPlacements []int64
}

// LogMove reassigns one log entry with a provenance-rewritten message.
type LogMove struct {
	ID      uuid.UUID
	Message string
}

// Ambiguity records a citation that matched more than one survivor citation
// under non-strict comparison. The first match in order was used.
type Ambiguity struct {
	DocumentID int64
	CitationID int64
	Matches    int
}

// Combine folds the absorbed bundles into the survivor, in list order, and
// returns the resulting plan. It never mutates its inputs and performs no I/O.
func Combine(survivor models.DocumentBundle, absorbed []models.DocumentBundle) (*Plan, []Ambiguity) {
	plan := &Plan{
		Survivor: survivor.Document,
		OldIDs:   append([]int64{}, survivor.OldIDs...),
	}
	var ambiguities []Ambiguity

	// working views of the survivor's facts, grown as the fold moves facts in
	tags := make(map[string]struct{}, len(survivor.Tags))
	for _, t := range survivor.Tags {
		tags[t] = struct{}{}
	}
	languages := languageSet(survivor.Languages)
	secondary := languageSet(survivor.SecondaryLanguages)
	fragments := make(map[int64]struct{}, len(survivor.Placements))
	for _, p := range survivor.Placements {
		fragments[p.FragmentID] = struct{}{}
	}
	citations := append([]models.Citation{}, survivor.Citations...)
	logEntries := append([]models.LogEntry{}, survivor.LogEntries...)

	languageNotes := []string{}
	if plan.Survivor.LanguageNote != "" {
		languageNotes = append(languageNotes, plan.Survivor.LanguageNote)
	}

	for _, doc := range absorbed {
		plan.OldIDs = append(plan.OldIDs, doc.Document.ID)
		plan.AbsorbedIDs = append(plan.AbsorbedIDs, doc.Document.ID)

		for _, t := range doc.Tags {
			if _, ok := tags[t]; !ok {
				tags[t] = struct{}{}
				plan.AddedTags = append(plan.AddedTags, t)
			}
		}

		if desc := doc.Document.Description; desc != "" && !strings.Contains(plan.Survivor.Description, desc) {
			plan.Survivor.Description = appendParagraph(plan.Survivor.Description,
				fmt.Sprintf("Description from PGPID %d:\n%s", doc.Document.ID, desc))
		}
		if notes := doc.Document.Notes; notes != "" {
			plan.Survivor.Notes = appendParagraph(plan.Survivor.Notes,
				fmt.Sprintf("Notes from PGPID %d:\n%s", doc.Document.ID, notes))
		}
		if review := doc.Document.NeedsReview; review != "" {
			plan.Survivor.NeedsReview = appendParagraph(plan.Survivor.NeedsReview, review)
		}

		for _, l := range doc.Languages {
			if _, ok := languages[l.ID]; !ok {
				languages[l.ID] = struct{}{}
				plan.AddedLanguages = append(plan.AddedLanguages, l.ID)
			}
		}
		for _, l := range doc.SecondaryLanguages {
			if _, ok := secondary[l.ID]; !ok {
				secondary[l.ID] = struct{}{}
				plan.AddedSecondaryLanguages = append(plan.AddedSecondaryLanguages, l.ID)
			}
		}
		if note := doc.Document.LanguageNote; note != "" {
			languageNotes = append(languageNotes, note)
		}

		for _, p := range doc.Placements {
			if _, ok := fragments[p.FragmentID]; ok {
				plan.DroppedPlacements = append(plan.DroppedPlacements, p.ID)
				continue
			}
			fragments[p.FragmentID] = struct{}{}
			plan.MovePlacements = append(plan.MovePlacements, p.ID)
		}

		for _, c := range doc.Citations {
			moved, dropped, ambiguous := reconcileCitation(citations, c)
			if ambiguous > 1 {
				ambiguities = append(ambiguities, Ambiguity{
					DocumentID: doc.Document.ID,
					CitationID: c.ID,
					Matches:    ambiguous,
				})
			}
			if dropped != nil {
				plan.DropCitations = append(plan.DropCitations, dropped.ID)
				citations = removeCitation(citations, dropped.ID)
			}
			if moved {
				plan.MoveCitations = append(plan.MoveCitations, c.ID)
				citations = append(citations, c)
			}
		}

		for _, entry := range doc.LogEntries {
			if reconcile.FindLogEntry(logEntries, entry) != nil {
				continue
			}
			moved := entry
			moved.Message = fmt.Sprintf("%s [PGPID %d]", entry.Message, doc.Document.ID)
			plan.MoveLogEntries = append(plan.MoveLogEntries, LogMove{ID: entry.ID, Message: moved.Message})
			logEntries = append(logEntries, moved)
		}
	}

	plan.Survivor.LanguageNote = strings.Join(languageNotes, "; ")

	return plan, ambiguities
}

// reconcileCitation decides what to do with one incoming citation:
//   - a strict match (content included) already covers it: skip
//   - a non-strict match exists and the incoming has content: move the
//     incoming in; the match is dropped too when it has no content
//   - a non-strict match exists and the incoming has no content: skip
//   - no match: move the incoming in
func reconcileCitation(have []models.Citation, incoming models.Citation) (moved bool, dropped *models.Citation, matches int) {
	if reconcile.FindCitation(have, incoming, true) != nil {
		return false, nil, 0
	}

	match := reconcile.FindCitation(have, incoming, false)
	if match == nil {
		return true, nil, 0
	}

	matches = reconcile.MatchCount(have, incoming, false)

	if incoming.HasContent() {
		if !match.HasContent() {
			return true, match, matches
		}
		return true, nil, matches
	}

	return false, nil, matches
}

func removeCitation(citations []models.Citation, id int64) []models.Citation {
	out := citations[:0]
	for _, c := range citations {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func appendParagraph(base, paragraph string) string {
	if base == "" {
		return paragraph
	}
	return base + "\n" + paragraph
}

func languageSet(langs []models.LanguageScript) map[int64]struct{} {
	set := make(map[int64]struct{}, len(langs))
	for _, l := range langs {
		set[l.ID] = struct{}{}
	}
	return set
}
