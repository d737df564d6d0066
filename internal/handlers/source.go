package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/genizalab/corpus/pkg/models"
	"github.com/genizalab/corpus/pkg/utils"
)

// SourceReader is the repository surface the source handler needs.
type SourceReader interface {
	Get(ctx context.Context, id int64) (*models.Source, error)
}

// SourceHandler serves bibliographic source reads.
type SourceHandler struct {
	sources SourceReader
}

func NewSourceHandler(sources SourceReader) *SourceHandler {
	return &SourceHandler{sources: sources}
}

// Register registers the source routes.
func (h *SourceHandler) Register(g *echo.Group) {
	g.GET("/sources/:id", h.Get)
}

// Get returns a bibliographic source.
func (h *SourceHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return err
	}

	src, err := h.sources.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, src)
}
