package reconcile

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

func TestCitationsEqual(t *testing.T) {
	base := models.Citation{
		SourceID:  7,
		Location:  "p. 3",
		Notes:     "see also p. 12",
		Relations: []string{models.RelationEdition, models.RelationTranslation},
	}

	tests := []struct {
		name   string
		a      models.Citation
		b      models.Citation
		strict bool
		want   bool
	}{
		{
			name: "identical fields match",
			a:    base,
			b:    base,
			want: true,
		},
		{
			name: "relation order is irrelevant",
			a:    base,
			b: models.Citation{
				SourceID:  7,
				Location:  "p. 3",
				Notes:     "see also p. 12",
				Relations: []string{models.RelationTranslation, models.RelationEdition},
			},
			want: true,
		},
		{
			name: "different relation sets do not match",
			a:    base,
			b: models.Citation{
				SourceID:  7,
				Location:  "p. 3",
				Notes:     "see also p. 12",
				Relations: []string{models.RelationEdition},
			},
			want: false,
		},
		{
			name: "different source does not match",
			a:    base,
			b: models.Citation{
				SourceID:  8,
				Location:  "p. 3",
				Notes:     "see also p. 12",
				Relations: []string{models.RelationEdition, models.RelationTranslation},
			},
			want: false,
		},
		{
			name: "different location does not match",
			a:    base,
			b: models.Citation{
				SourceID:  7,
				Location:  "p. 4",
				Notes:     "see also p. 12",
				Relations: []string{models.RelationEdition, models.RelationTranslation},
			},
			want: false,
		},
		{
			name:   "non-strict ignores content",
			a:      withContent(base, strptr("transcription")),
			b:      base,
			strict: false,
			want:   true,
		},
		{
			name:   "strict requires equal content",
			a:      withContent(base, strptr("transcription")),
			b:      base,
			strict: true,
			want:   false,
		},
		{
			name:   "strict matches equal content",
			a:      withContent(base, strptr("transcription")),
			b:      withContent(base, strptr("transcription")),
			strict: true,
			want:   true,
		},
		{
			name:   "strict matches nil content with nil content",
			a:      base,
			b:      base,
			strict: true,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CitationsEqual(tt.a, tt.b, tt.strict))
			assert.Equal(t, tt.want, CitationsEqual(tt.b, tt.a, tt.strict), "equivalence should be symmetric")
		})
	}
}

func TestLogEntriesEqual(t *testing.T) {
	now := time.Date(2024, 5, 17, 10, 30, 0, 123456789, time.UTC)

	a := models.LogEntry{Actor: "editor", Created: now}

	assert.True(t, LogEntriesEqual(a, models.LogEntry{Actor: "editor", Created: now}))
	assert.False(t, LogEntriesEqual(a, models.LogEntry{Actor: "other", Created: now}))

	// full precision, no tolerance window
	assert.False(t, LogEntriesEqual(a, models.LogEntry{Actor: "editor", Created: now.Add(time.Nanosecond)}))

	// same instant in a different zone is still equal
	assert.True(t, LogEntriesEqual(a, models.LogEntry{Actor: "editor", Created: now.In(time.FixedZone("X", 3600))}))
}

func TestFindCitation(t *testing.T) {
	have := []models.Citation{
		{ID: 1, SourceID: 7, Location: "p. 1"},
		{ID: 2, SourceID: 7, Location: "p. 3"},
		{ID: 3, SourceID: 7, Location: "p. 3"},
	}

	want := models.Citation{SourceID: 7, Location: "p. 3"}

	match := FindCitation(have, want, false)
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID, "first match in slice order wins")
	assert.Equal(t, 2, MatchCount(have, want, false))

	assert.Nil(t, FindCitation(have, models.Citation{SourceID: 9}, false))
}

func TestFindLogEntry(t *testing.T) {
	now := time.Now().UTC()
	have := []models.LogEntry{
		{Actor: "editor", Created: now},
	}

	require.NotNil(t, FindLogEntry(have, models.LogEntry{Actor: "editor", Created: now}))
	assert.Nil(t, FindLogEntry(have, models.LogEntry{Actor: "editor", Created: now.Add(time.Second)}))
}

func withContent(c models.Citation, content *string) models.Citation {
	c.Content = content
	return c
}
