package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genizalab/corpus/pkg/models"
)

func strptr(s string) *string {
	return &s
}

func sampleBundle() *models.DocumentBundle {
	return &models.DocumentBundle{
		Document: models.Document{
			ID:          42,
			Description: "Letter concerning trade",
			DocType:     "Letter",
			Notes:       "fragmentary",
			NeedsReview: "verify join",
			Status:      models.StatusPublic,
		},
		OldIDs: []int64{7, 9},
		Tags:   []string{"trade", "letters"},
		Languages: []models.LanguageScript{
			{ID: 2, Language: "Hebrew"},
			{ID: 1, Language: "Judaeo-Arabic"},
		},
		Placements: []models.Placement{
			{ID: 2, FragmentID: 200, OrderIndex: 1, Certain: false, Shelfmark: "T-S NS J193"},
			{ID: 1, FragmentID: 100, OrderIndex: 0, Certain: true, Shelfmark: "T-S 8J22.25"},
		},
		Citations: []models.Citation{
			{ID: 1, SourceID: 5, Relations: []string{models.RelationEdition, models.RelationTranslation}, Content: strptr("line one")},
			{ID: 2, SourceID: 6, Relations: []string{models.RelationDiscussion}},
			{ID: 3, SourceID: 7, Relations: []string{models.RelationEdition}, Content: strptr("line two")},
		},
		LogEntries: []models.LogEntry{
			{Actor: "editor", Created: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Actor: "editor", Created: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		},
	}
}

func TestBuildRecord(t *testing.T) {
	record := BuildRecord(sampleBundle())

	assert.Equal(t, "document.42", record.ID)
	assert.Equal(t, int64(42), record.PGPID)
	assert.Equal(t, models.StatusPublic, record.Status)
	assert.Equal(t, "Letter", record.Type)
	assert.True(t, record.NeedsReview)
	assert.Equal(t, []int64{7, 9}, record.OldPGPIDs)

	// tags and languages are sorted for determinism
	assert.Equal(t, []string{"letters", "trade"}, record.Tags)
	assert.Equal(t, []string{"Hebrew", "Judaeo-Arabic"}, record.Languages)

	// only certain placements make the display string; order_index rules
	assert.Equal(t, "T-S 8J22.25", record.Shelfmark)
	assert.Equal(t, []string{"T-S 8J22.25", "T-S NS J193"}, record.Fragments)

	assert.Equal(t, 2, record.NumEditions)
	assert.Equal(t, 1, record.NumTranslations)
	assert.Equal(t, 1, record.NumDiscussions)
	assert.Equal(t, "line one\nline two", record.Transcription)

	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), record.LastInput)
}

func TestBuildRecord_Idempotent(t *testing.T) {
	bundle := sampleBundle()

	first := BuildRecord(bundle)
	second := BuildRecord(bundle)

	assert.Equal(t, first, second)
}

func TestBuildRecord_DuplicateShelfmarksCollapse(t *testing.T) {
	bundle := &models.DocumentBundle{
		Document: models.Document{ID: 1, Status: models.StatusPublic},
		Placements: []models.Placement{
			{ID: 1, FragmentID: 100, OrderIndex: 0, Certain: true, Shelfmark: "T-S 8J22.25"},
			{ID: 2, FragmentID: 100, OrderIndex: 1, Certain: true, Shelfmark: "T-S 8J22.25"},
		},
	}

	record := BuildRecord(bundle)

	assert.Equal(t, "T-S 8J22.25", record.Shelfmark)
	require.Len(t, record.Fragments, 1)
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "document.17", RecordID(17))
}
