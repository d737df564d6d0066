package merging

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genizalab/corpus/pkg/models"
)

func doc(id int64) models.Document {
	return models.Document{ID: id, Status: models.StatusPublic}
}

func strptr(s string) *string {
	return &s
}

func TestCombine_BasicScenario(t *testing.T) {
	survivor := models.DocumentBundle{
		Document: models.Document{ID: 20, Description: "Beta", Status: models.StatusPublic},
		Tags:     []string{"y"},
	}
	absorbed := models.DocumentBundle{
		Document: models.Document{ID: 10, Description: "Alpha", Status: models.StatusPublic},
		Tags:     []string{"x"},
	}

	plan, ambiguities := Combine(survivor, []models.DocumentBundle{absorbed})
	require.Empty(t, ambiguities)

	assert.Equal(t, []int64{10}, plan.OldIDs)
	assert.Equal(t, []int64{10}, plan.AbsorbedIDs)
	assert.Equal(t, []string{"x"}, plan.AddedTags)
	assert.Contains(t, plan.Survivor.Description, "Beta")
	assert.Contains(t, plan.Survivor.Description, "Description from PGPID 10:\nAlpha")
}

func TestCombine_OldIDsAccumulate(t *testing.T) {
	survivor := models.DocumentBundle{
		Document: doc(20),
		OldIDs:   []int64{5},
	}
	absorbed := []models.DocumentBundle{
		{Document: doc(10)},
		{Document: doc(11)},
	}

	plan, _ := Combine(survivor, absorbed)

	assert.Equal(t, []int64{5, 10, 11}, plan.OldIDs)
	assert.Len(t, plan.OldIDs, len(survivor.OldIDs)+len(absorbed))
	assert.NotContains(t, plan.OldIDs, survivor.Document.ID)
}

func TestCombine_DescriptionAlreadyContained(t *testing.T) {
	survivor := models.DocumentBundle{
		Document: models.Document{ID: 20, Description: "Beta and Alpha together"},
	}
	absorbed := models.DocumentBundle{
		Document: models.Document{ID: 10, Description: "Alpha"},
	}

	plan, _ := Combine(survivor, []models.DocumentBundle{absorbed})

	assert.Equal(t, "Beta and Alpha together", plan.Survivor.Description)
}

func TestCombine_NotesAndReview(t *testing.T) {
	survivor := models.DocumentBundle{
		Document: models.Document{ID: 20, Notes: "existing note", NeedsReview: "check dates"},
	}
	absorbed := models.DocumentBundle{
		Document: models.Document{ID: 10, Notes: "stray note", NeedsReview: "verify shelfmark"},
	}

	plan, _ := Combine(survivor, []models.DocumentBundle{absorbed})

	assert.Equal(t, "existing note\nNotes from PGPID 10:\nstray note", plan.Survivor.Notes)
	assert.Equal(t, "check dates\nverify shelfmark", plan.Survivor.NeedsReview)
}

func TestCombine_Languages(t *testing.T) {
	judeoArabic := models.LanguageScript{ID: 1, Language: "Judaeo-Arabic"}
	hebrew := models.LanguageScript{ID: 2, Language: "Hebrew"}
	aramaic := models.LanguageScript{ID: 3, Language: "Aramaic"}

	survivor := models.DocumentBundle{
		Document:  models.Document{ID: 20, LanguageNote: "mostly JA"},
		Languages: []models.LanguageScript{judeoArabic},
	}
	absorbed := []models.DocumentBundle{
		{
			Document:           models.Document{ID: 10, LanguageNote: "some Hebrew"},
			Languages:          []models.LanguageScript{judeoArabic, hebrew},
			SecondaryLanguages: []models.LanguageScript{aramaic},
		},
		{
			Document: models.Document{ID: 11, LanguageNote: "unclear hand"},
		},
	}

	plan, _ := Combine(survivor, absorbed)

	assert.Equal(t, []int64{2}, plan.AddedLanguages)
	assert.Equal(t, []int64{3}, plan.AddedSecondaryLanguages)
	assert.Equal(t, "mostly JA; some Hebrew; unclear hand", plan.Survivor.LanguageNote)
}

func TestCombine_Placements(t *testing.T) {
	survivor := models.DocumentBundle{
		Document:   doc(20),
		Placements: []models.Placement{{ID: 1, DocumentID: 20, FragmentID: 100, Certain: true}},
	}
	absorbed := models.DocumentBundle{
		Document: doc(10),
		Placements: []models.Placement{
			{ID: 2, DocumentID: 10, FragmentID: 100, Certain: false}, // duplicate fragment
			{ID: 3, DocumentID: 10, FragmentID: 200, Certain: true},
		},
	}

	plan, _ := Combine(survivor, []models.DocumentBundle{absorbed})

	assert.Equal(t, []int64{3}, plan.MovePlacements)
	assert.Equal(t, []int64{2}, plan.DroppedPlacements)
}

func TestCombine_CitationStrictDuplicateSkipped(t *testing.T) {
	shared := models.Citation{
		ID: 1, SourceID: 7, Location: "p. 3",
		Relations: []string{models.RelationEdition},
		Content:   strptr("text"),
	}
	incoming := shared
	incoming.ID = 2

	survivor := models.DocumentBundle{Document: doc(20), Citations: []models.Citation{shared}}
	absorbed := models.DocumentBundle{Document: doc(10), Citations: []models.Citation{incoming}}

	plan, _ := Combine(survivor, []models.DocumentBundle{absorbed})

	assert.Empty(t, plan.MoveCitations)
	assert.Empty(t, plan.DropCitations)
}

func TestCombine_CitationContentPreference(t *testing.T) {
	contentless := models.Citation{ID: 1, SourceID: 7, Location: "p. 3"}
	withContent := models.Citation{ID: 2, SourceID: 7, Location: "p. 3", Content: strptr("X")}

	survivor := models.DocumentBundle{Document: doc(20), Citations: []models.Citation{contentless}}
	absorbed := models.DocumentBundle{Document: doc(10), Citations: []models.Citation{withContent}}

	plan, _ := Combine(survivor, []models.DocumentBundle{absorbed})

	assert.Equal(t, []int64{2}, plan.MoveCitations, "content-bearing citation moves in")
	assert.Equal(t, []int64{1}, plan.DropCitations, "contentless match is superseded")
}

func TestCombine_CitationBothWithContentCoexist(t *testing.T) {
	existing := models.Citation{ID: 1, SourceID: 7, Location: "p. 3", Content: strptr("X")}
	incoming := models.Citation{ID: 2, SourceID: 7, Location: "p. 3", Content: strptr("Y")}

	survivor := models.DocumentBundle{Document: doc(20), Citations: []models.Citation{existing}}
	absorbed := models.DocumentBundle{Document: doc(10), Citations: []models.Citation{incoming}}

	plan, _ := Combine(survivor, []models.DocumentBundle{absorbed})

	assert.Equal(t, []int64{2}, plan.MoveCitations)
	assert.Empty(t, plan.DropCitations)
}

func TestCombine_ContentlessIncomingCovered(t *testing.T) {
	existing := models.Citation{ID: 1, SourceID: 7, Location: "p. 3", Content: strptr("X")}
	incoming := models.Citation{ID: 2, SourceID: 7, Location: "p. 3"}

	survivor := models.DocumentBundle{Document: doc(20), Citations: []models.Citation{existing}}
	absorbed := models.DocumentBundle{Document: doc(10), Citations: []models.Citation{incoming}}

	plan, _ := Combine(survivor, []models.DocumentBundle{absorbed})

	assert.Empty(t, plan.MoveCitations)
	assert.Empty(t, plan.DropCitations)
}

func TestCombine_CitationNoMatchMoves(t *testing.T) {
	survivor := models.DocumentBundle{Document: doc(20)}
	absorbed := models.DocumentBundle{
		Document:  doc(10),
		Citations: []models.Citation{{ID: 5, SourceID: 9, Location: "fol. 2v"}},
	}

	plan, _ := Combine(survivor, []models.DocumentBundle{absorbed})

	assert.Equal(t, []int64{5}, plan.MoveCitations)
}

func TestCombine_CitationAmbiguityReported(t *testing.T) {
	a := models.Citation{ID: 1, SourceID: 7, Location: "p. 3", Content: strptr("A")}
	b := models.Citation{ID: 2, SourceID: 7, Location: "p. 3", Content: strptr("B")}
	incoming := models.Citation{ID: 3, SourceID: 7, Location: "p. 3", Content: strptr("C")}

	survivor := models.DocumentBundle{Document: doc(20), Citations: []models.Citation{a, b}}
	absorbed := models.DocumentBundle{Document: doc(10), Citations: []models.Citation{incoming}}

	plan, ambiguities := Combine(survivor, []models.DocumentBundle{absorbed})

	require.Len(t, ambiguities, 1)
	assert.Equal(t, int64(10), ambiguities[0].DocumentID)
	assert.Equal(t, int64(3), ambiguities[0].CitationID)
	assert.Equal(t, 2, ambiguities[0].Matches)
	assert.Equal(t, []int64{3}, plan.MoveCitations)
}

func TestCombine_LogEntries(t *testing.T) {
	now := time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)
	dupID := uuid.New()
	uniqueID := uuid.New()

	survivor := models.DocumentBundle{
		Document: doc(20),
		LogEntries: []models.LogEntry{
			{ID: uuid.New(), DocumentID: 20, Actor: "editor", Created: now, Message: "initial entry"},
		},
	}
	absorbed := models.DocumentBundle{
		Document: doc(10),
		LogEntries: []models.LogEntry{
			{ID: dupID, DocumentID: 10, Actor: "editor", Created: now, Message: "same event, other copy"},
			{ID: uniqueID, DocumentID: 10, Actor: "editor", Created: now.Add(time.Hour), Message: "updated description"},
		},
	}

	plan, _ := Combine(survivor, []models.DocumentBundle{absorbed})

	require.Len(t, plan.MoveLogEntries, 1)
	assert.Equal(t, uniqueID, plan.MoveLogEntries[0].ID)
	assert.Equal(t, "updated description [PGPID 10]", plan.MoveLogEntries[0].Message)
}

func TestCombine_DoesNotMutateInputs(t *testing.T) {
	survivor := models.DocumentBundle{
		Document: models.Document{ID: 20, Description: "Beta"},
		OldIDs:   []int64{5},
		Tags:     []string{"y"},
	}
	absorbed := models.DocumentBundle{
		Document: models.Document{ID: 10, Description: "Alpha"},
		Tags:     []string{"x"},
	}

	_, _ = Combine(survivor, []models.DocumentBundle{absorbed})

	assert.Equal(t, "Beta", survivor.Document.Description)
	assert.Equal(t, []int64{5}, survivor.OldIDs)
	assert.Equal(t, "Alpha", absorbed.Document.Description)
}
