// Package reconcile compares facts of the same kind for equivalence, so the
// merge engine can reassociate citations and log entries without duplicating
// them. Everything here is pure.
package reconcile

import "github.com/genizalab/corpus/pkg/models"

// CitationsEqual reports whether two citations describe the same scholarly
// reference: same source, location, notes, and relation-kind set (unordered).
// When strict is true the content payloads must also match exactly; a missing
// payload equals only a missing payload.
func CitationsEqual(a, b models.Citation, strict bool) bool {
	if a.SourceID != b.SourceID {
		return false
	}
	if a.Location != b.Location {
		return false
	}
	if a.Notes != b.Notes {
		return false
	}
	if !relationSetsEqual(a.Relations, b.Relations) {
		return false
	}
	if strict && !contentsEqual(a.Content, b.Content) {
		return false
	}
	return true
}

// LogEntriesEqual reports whether two log entries record the same historical
// event: same actor at the same instant, compared at full precision.
func LogEntriesEqual(a, b models.LogEntry) bool {
	return a.Actor == b.Actor && a.Created.Equal(b.Created)
}

// FindCitation returns the first citation in have equivalent to want, or nil.
// First-in-slice-order is the deterministic tie-break when several match;
// callers use MatchCount to detect and log that ambiguity.
func FindCitation(have []models.Citation, want models.Citation, strict bool) *models.Citation {
	for i := range have {
		if CitationsEqual(have[i], want, strict) {
			return &have[i]
		}
	}
	return nil
}

// MatchCount returns how many citations in have are equivalent to want.
func MatchCount(have []models.Citation, want models.Citation, strict bool) int {
	n := 0
	for i := range have {
		if CitationsEqual(have[i], want, strict) {
			n++
		}
	}
	return n
}

// FindLogEntry returns the first log entry in have equivalent to want, or nil.
func FindLogEntry(have []models.LogEntry, want models.LogEntry) *models.LogEntry {
	for i := range have {
		if LogEntriesEqual(have[i], want) {
			return &have[i]
		}
	}
	return nil
}

func relationSetsEqual(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, r := range a {
		set[r] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	for _, r := range b {
		if _, ok := set[r]; !ok {
			return false
		}
		seen[r] = struct{}{}
	}
	return len(set) == len(seen)
}

func contentsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
