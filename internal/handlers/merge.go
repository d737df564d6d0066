package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/genizalab/corpus/pkg/appctx"
	"github.com/genizalab/corpus/pkg/merging"
	"github.com/genizalab/corpus/pkg/utils"
)

// Merger is the merge engine surface the handler needs.
type Merger interface {
	Merge(ctx context.Context, req merging.Request) (*merging.Result, error)
}

// MergeRequest is the POST body for a merge invocation.
type MergeRequest struct {
	SurvivorID  int64   `json:"survivor_id" validate:"required"`
	AbsorbedIDs []int64 `json:"absorbed_ids" validate:"required,min=1"`
	Rationale   string  `json:"rationale" validate:"required"`
	Actor       string  `json:"actor"`
}

// MergeHandler exposes the merge engine over HTTP.
type MergeHandler struct {
	engine Merger
}

func NewMergeHandler(engine Merger) *MergeHandler {
	return &MergeHandler{engine: engine}
}

// Register registers the merge routes.
func (h *MergeHandler) Register(g *echo.Group) {
	g.POST("/documents/merge", h.Merge)
}

// Merge consolidates duplicate documents into a survivor record.
func (h *MergeHandler) Merge(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := utils.BindRequest[MergeRequest](c)
	if err != nil {
		return err
	}

	actor := body.Actor
	if actor == "" {
		actor = appctx.GetActor(ctx)
	}

	result, err := h.engine.Merge(ctx, merging.Request{
		SurvivorID:  body.SurvivorID,
		AbsorbedIDs: body.AbsorbedIDs,
		Rationale:   body.Rationale,
		Actor:       actor,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
