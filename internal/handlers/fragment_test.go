package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genizalab/corpus/pkg/index"
	"github.com/genizalab/corpus/pkg/models"
)

type fakeFragmentStore struct {
	frag    *models.Fragment
	updated *models.Fragment
	getErr  error
}

func (f *fakeFragmentStore) Get(ctx context.Context, id int64) (*models.Fragment, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copied := *f.frag
	return &copied, nil
}

func (f *fakeFragmentStore) Update(ctx context.Context, frag *models.Fragment) error {
	f.updated = frag
	return nil
}

type fakeChangeNotifier struct {
	changes []index.Change
}

func (f *fakeChangeNotifier) Notify(ctx context.Context, change index.Change) {
	f.changes = append(f.changes, change)
}

func putFragment(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/fragments/3", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	return c, rec
}

func TestFragmentHandler_ShelfmarkRenameKeepsOldShelfmark(t *testing.T) {
	store := &fakeFragmentStore{frag: &models.Fragment{
		ID:        3,
		Shelfmark: "T-S 8J22.25",
	}}
	notifier := &fakeChangeNotifier{}
	handler := NewFragmentHandler(store, notifier)

	c, rec := putFragment(t, `{"shelfmark": "T-S NS J56"}`)
	require.NoError(t, handler.Update(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, store.updated)
	assert.Equal(t, "T-S NS J56", store.updated.Shelfmark)
	assert.Equal(t, []string{"T-S 8J22.25"}, store.updated.OldShelfmarks.Data)

	require.Len(t, notifier.changes, 1)
	assert.Equal(t, index.Change{
		Kind:     index.KindFragment,
		Event:    models.ActionUpdate,
		EntityID: 3,
	}, notifier.changes[0])
}

func TestFragmentHandler_NotesEditMarkedUnchanged(t *testing.T) {
	store := &fakeFragmentStore{frag: &models.Fragment{
		ID:        3,
		Shelfmark: "T-S 8J22.25",
	}}
	notifier := &fakeChangeNotifier{}
	handler := NewFragmentHandler(store, notifier)

	c, _ := putFragment(t, `{"shelfmark": "T-S 8J22.25", "notes": "rebound 1987"}`)
	require.NoError(t, handler.Update(c))

	require.NotNil(t, store.updated)
	assert.Equal(t, "rebound 1987", store.updated.Notes)
	assert.Empty(t, store.updated.OldShelfmarks.Data)

	require.Len(t, notifier.changes, 1)
	assert.True(t, notifier.changes[0].Unchanged)
}

func TestFragmentHandler_ShelfmarkRequired(t *testing.T) {
	store := &fakeFragmentStore{frag: &models.Fragment{ID: 3, Shelfmark: "T-S 8J22.25"}}
	notifier := &fakeChangeNotifier{}
	handler := NewFragmentHandler(store, notifier)

	c, _ := putFragment(t, `{"notes": "no shelfmark"}`)
	err := handler.Update(c)

	require.Error(t, err)
	assert.Nil(t, store.updated)
	assert.Empty(t, notifier.changes)
}
