package merging

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genizalab/corpus/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
}

type fakeDocumentStore struct {
	bundles   map[int64]*models.DocumentBundle
	updated   *models.Document
	oldIDs    []int64
	tags      []string
	languages map[bool][]int64
	deleted   []int64
}

func newFakeDocumentStore(bundles ...*models.DocumentBundle) *fakeDocumentStore {
	s := &fakeDocumentStore{
		bundles:   make(map[int64]*models.DocumentBundle),
		languages: make(map[bool][]int64),
	}
	for _, b := range bundles {
		s.bundles[b.Document.ID] = b
	}
	return s
}

func (s *fakeDocumentStore) GetBundle(ctx context.Context, id int64) (*models.DocumentBundle, error) {
	b, ok := s.bundles[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("document %d not found", id))
	}
	return b, nil
}

func (s *fakeDocumentStore) Update(ctx context.Context, doc *models.Document) error {
	s.updated = doc
	return nil
}

func (s *fakeDocumentStore) AddOldIDs(ctx context.Context, documentID int64, oldIDs []int64) error {
	s.oldIDs = append(s.oldIDs, oldIDs...)
	return nil
}

func (s *fakeDocumentStore) AddTags(ctx context.Context, documentID int64, names []string) error {
	s.tags = append(s.tags, names...)
	return nil
}

func (s *fakeDocumentStore) AddLanguages(ctx context.Context, documentID int64, languageIDs []int64, secondary bool) error {
	s.languages[secondary] = append(s.languages[secondary], languageIDs...)
	return nil
}

func (s *fakeDocumentStore) Delete(ctx context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type fakePlacementStore struct {
	reassigned []int64
}

func (s *fakePlacementStore) Reassign(ctx context.Context, placementIDs []int64, documentID int64) error {
	s.reassigned = append(s.reassigned, placementIDs...)
	return nil
}

type fakeCitationStore struct {
	reassigned []int64
	deleted    []int64
}

func (s *fakeCitationStore) Reassign(ctx context.Context, citationIDs []int64, documentID int64) error {
	s.reassigned = append(s.reassigned, citationIDs...)
	return nil
}

func (s *fakeCitationStore) DeleteMany(ctx context.Context, citationIDs []int64) error {
	s.deleted = append(s.deleted, citationIDs...)
	return nil
}

type fakeLogStore struct {
	reassigned []LogMove
	appended   []*models.LogEntry
}

func (s *fakeLogStore) Reassign(ctx context.Context, entryID uuid.UUID, documentID int64, message string) error {
	s.reassigned = append(s.reassigned, LogMove{ID: entryID, Message: message})
	return nil
}

func (s *fakeLogStore) Append(ctx context.Context, entry *models.LogEntry) error {
	s.appended = append(s.appended, entry)
	return nil
}

func newTestEngine(docs *fakeDocumentStore) (*Engine, *fakePlacementStore, *fakeCitationStore, *fakeLogStore) {
	placements := &fakePlacementStore{}
	citations := &fakeCitationStore{}
	logs := &fakeLogStore{}
	engine := NewEngine(nil, docs, placements, citations, logs, nil, nil, Config{}, testLogger())
	return engine, placements, citations, logs
}

func TestMerge_Validation(t *testing.T) {
	engine, _, _, _ := newTestEngine(newFakeDocumentStore())

	tests := []struct {
		name    string
		req     Request
		message string
	}{
		{
			name:    "empty absorbed list",
			req:     Request{SurvivorID: 20, Rationale: "dup"},
			message: "at least one document to absorb is required",
		},
		{
			name:    "survivor in absorbed list",
			req:     Request{SurvivorID: 20, AbsorbedIDs: []int64{10, 20}, Rationale: "dup"},
			message: "document 20 cannot absorb itself",
		},
		{
			name:    "empty rationale",
			req:     Request{SurvivorID: 20, AbsorbedIDs: []int64{10}, Rationale: "  "},
			message: "a merge rationale is required",
		},
		{
			name:    "duplicate absorbed id",
			req:     Request{SurvivorID: 20, AbsorbedIDs: []int64{10, 10}, Rationale: "dup"},
			message: "document 10 listed more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Merge(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestMergeInTx_ScriptedMerge(t *testing.T) {
	docs := newFakeDocumentStore(
		&models.DocumentBundle{Document: models.Document{ID: 20, Description: "Beta", NeedsReview: "old flag"}},
		&models.DocumentBundle{Document: models.Document{ID: 10, Description: "Alpha"}},
	)
	engine, _, _, logs := newTestEngine(docs)

	result, err := engine.mergeInTx(context.Background(), Request{
		SurvivorID:  20,
		AbsorbedIDs: []int64{10},
		Rationale:   "dup",
	})
	require.NoError(t, err)
	assert.True(t, result.Scripted)

	require.NotNil(t, docs.updated)
	assert.Equal(t, ScriptedMergeMarker+"\nold flag", docs.updated.NeedsReview)

	require.Len(t, logs.appended, 1)
	entry := logs.appended[0]
	assert.Equal(t, "script", entry.Actor)
	assert.Equal(t, models.ActionMerge, entry.Action)
	assert.Contains(t, entry.Message, "PGPID 10")
	assert.Contains(t, entry.Message, "dup")

	assert.Equal(t, []int64{10}, docs.deleted)
	assert.Equal(t, []int64{10}, docs.oldIDs)
}

func TestMergeInTx_HumanActor(t *testing.T) {
	docs := newFakeDocumentStore(
		&models.DocumentBundle{Document: models.Document{ID: 20}},
		&models.DocumentBundle{Document: models.Document{ID: 10}},
	)
	engine, _, _, logs := newTestEngine(docs)

	result, err := engine.mergeInTx(context.Background(), Request{
		SurvivorID:  20,
		AbsorbedIDs: []int64{10},
		Rationale:   "same fragment",
		Actor:       "scholar",
	})
	require.NoError(t, err)
	assert.False(t, result.Scripted)

	require.NotNil(t, docs.updated)
	assert.NotContains(t, docs.updated.NeedsReview, ScriptedMergeMarker)

	require.Len(t, logs.appended, 1)
	assert.Equal(t, "scholar", logs.appended[0].Actor)
}

func TestMergeInTx_AppliesPlan(t *testing.T) {
	content := "transcription"
	docs := newFakeDocumentStore(
		&models.DocumentBundle{
			Document:   models.Document{ID: 20},
			Placements: []models.Placement{{ID: 1, FragmentID: 100}},
			Citations:  []models.Citation{{ID: 1, SourceID: 7, Location: "p. 3"}},
		},
		&models.DocumentBundle{
			Document:   models.Document{ID: 10},
			Tags:       []string{"legal"},
			Placements: []models.Placement{{ID: 2, FragmentID: 200}},
			Citations:  []models.Citation{{ID: 2, SourceID: 7, Location: "p. 3", Content: &content}},
		},
	)
	engine, placements, citations, _ := newTestEngine(docs)

	result, err := engine.mergeInTx(context.Background(), Request{
		SurvivorID:  20,
		AbsorbedIDs: []int64{10},
		Rationale:   "dup",
		Actor:       "scholar",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"legal"}, docs.tags)
	assert.Equal(t, []int64{2}, placements.reassigned)
	assert.Equal(t, []int64{2}, citations.reassigned)
	assert.Equal(t, []int64{1}, citations.deleted)
	assert.Equal(t, 1, result.MovedCitations)
	assert.Equal(t, 1, result.DroppedCitations)
}

func TestMergeInTx_MissingDocument(t *testing.T) {
	docs := newFakeDocumentStore(
		&models.DocumentBundle{Document: models.Document{ID: 20}},
	)
	engine, _, _, _ := newTestEngine(docs)

	_, err := engine.mergeInTx(context.Background(), Request{
		SurvivorID:  20,
		AbsorbedIDs: []int64{999},
		Rationale:   "dup",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}
