package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/genizalab/corpus/pkg/index"
	"github.com/genizalab/corpus/pkg/models"
	"github.com/genizalab/corpus/pkg/utils"
)

// DocumentReader is the repository surface the document handler needs.
type DocumentReader interface {
	GetBundle(ctx context.Context, id int64) (*models.DocumentBundle, error)
}

// LogReader lists a document's audit entries.
type LogReader interface {
	List(ctx context.Context, documentID int64) ([]models.LogEntry, error)
}

// Reindexer re-derives index records for the given documents.
type Reindexer interface {
	DocumentsChanged(ctx context.Context, event string, documentIDs []int64)
}

// DocumentHandler serves document reads and per-document reindex requests.
type DocumentHandler struct {
	documents DocumentReader
	logs      LogReader
	notifier  Reindexer
}

func NewDocumentHandler(documents DocumentReader, logs LogReader, notifier Reindexer) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		logs:      logs,
		notifier:  notifier,
	}
}

// Register registers the document routes.
func (h *DocumentHandler) Register(g *echo.Group) {
	g.GET("/documents/:id", h.Get)
	g.GET("/documents/:id/log", h.GetLog)
	g.POST("/documents/:id/reindex", h.Reindex)
}

// Get returns a document with every related fact loaded.
func (h *DocumentHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return err
	}

	bundle, err := h.documents.GetBundle(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bundle)
}

// GetLog returns a document's audit entries oldest first.
func (h *DocumentHandler) GetLog(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return err
	}

	entries, err := h.logs.List(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}

// Reindex re-projects one document into the search index. The document must
// exist; re-projection itself is best-effort.
func (h *DocumentHandler) Reindex(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.documents.GetBundle(ctx, id); err != nil {
		return err
	}

	h.notifier.DocumentsChanged(ctx, models.ActionUpdate, []int64{id})
	return c.JSON(http.StatusAccepted, map[string]any{
		"record_id": index.RecordID(id),
	})
}
