package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/genizalab/corpus/pkg/index"
	"github.com/genizalab/corpus/pkg/models"
	"github.com/genizalab/corpus/pkg/utils"
)

// FragmentStore is the repository surface the fragment handler needs.
type FragmentStore interface {
	Get(ctx context.Context, id int64) (*models.Fragment, error)
	Update(ctx context.Context, frag *models.Fragment) error
}

// ChangeNotifier announces entity writes to the index layer.
type ChangeNotifier interface {
	Notify(ctx context.Context, change index.Change)
}

// FragmentUpdateRequest is the PUT body for a fragment update. Renaming the
// shelfmark moves the previous one into old_shelfmarks.
type FragmentUpdateRequest struct {
	Shelfmark       string `json:"shelfmark" validate:"required"`
	Collection      string `json:"collection"`
	URL             string `json:"url"`
	IIIFURL         string `json:"iiif_url"`
	IsMultifragment bool   `json:"is_multifragment"`
	Notes           string `json:"notes"`
	NeedsReview     string `json:"needs_review"`
}

// FragmentHandler serves fragment reads and updates.
type FragmentHandler struct {
	fragments FragmentStore
	notifier  ChangeNotifier
}

func NewFragmentHandler(fragments FragmentStore, notifier ChangeNotifier) *FragmentHandler {
	return &FragmentHandler{
		fragments: fragments,
		notifier:  notifier,
	}
}

// Register registers the fragment routes.
func (h *FragmentHandler) Register(g *echo.Group) {
	g.GET("/fragments/:id", h.Get)
	g.PUT("/fragments/:id", h.Update)
}

// Get returns a fragment.
func (h *FragmentHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return err
	}

	frag, err := h.fragments.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, frag)
}

// Update rewrites a fragment's fields. Only a shelfmark change re-projects
// the documents placed on the fragment; the shelfmark is the one fragment
// field the index carries.
func (h *FragmentHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return err
	}

	body, err := utils.BindRequest[FragmentUpdateRequest](c)
	if err != nil {
		return err
	}

	frag, err := h.fragments.Get(ctx, id)
	if err != nil {
		return err
	}

	shelfmarkChanged := body.Shelfmark != frag.Shelfmark
	frag.ReplaceShelfmark(body.Shelfmark)
	frag.Collection = body.Collection
	frag.URL = body.URL
	frag.IIIFURL = body.IIIFURL
	frag.IsMultifragment = body.IsMultifragment
	frag.Notes = body.Notes
	frag.NeedsReview = body.NeedsReview
	frag.LastModified = time.Now().UTC()

	if err := h.fragments.Update(ctx, frag); err != nil {
		return err
	}

	h.notifier.Notify(ctx, index.Change{
		Kind:      index.KindFragment,
		Event:     models.ActionUpdate,
		EntityID:  id,
		Unchanged: !shelfmarkChanged,
	})

	return c.JSON(http.StatusOK, frag)
}
