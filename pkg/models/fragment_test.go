package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceShelfmark(t *testing.T) {
	frag := Fragment{Shelfmark: "T-S 8J22.25"}

	frag.ReplaceShelfmark("T-S NS J56")
	assert.Equal(t, "T-S NS J56", frag.Shelfmark)
	assert.Equal(t, []string{"T-S 8J22.25"}, frag.OldShelfmarks.Data)

	// renaming back does not duplicate the history
	frag.ReplaceShelfmark("T-S 8J22.25")
	frag.ReplaceShelfmark("T-S NS J56")
	assert.Equal(t, []string{"T-S 8J22.25", "T-S NS J56"}, frag.OldShelfmarks.Data)
}

func TestReplaceShelfmark_NoChange(t *testing.T) {
	frag := Fragment{Shelfmark: "T-S 8J22.25"}

	frag.ReplaceShelfmark("T-S 8J22.25")
	assert.Empty(t, frag.OldShelfmarks.Data)
}

func TestReplaceShelfmark_EmptyPriorNotRecorded(t *testing.T) {
	var frag Fragment

	frag.ReplaceShelfmark("T-S 8J22.25")
	assert.Equal(t, "T-S 8J22.25", frag.Shelfmark)
	assert.Empty(t, frag.OldShelfmarks.Data)
}
