package fragment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/genizalab/corpus/pkg/database"
	"github.com/genizalab/corpus/pkg/models"
	"github.com/genizalab/corpus/pkg/tracing"
)

// Repository handles fragment and placement persistence. Fragments are
// physical objects and outlive any document merge; placements move between
// documents instead.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a fragment by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Fragment, error) {
	ctx, span := tracing.StartSpan(ctx, "fragment.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "shelfmark", "old_shelfmarks", "collection", "url", "iiif_url", "is_multifragment", "notes", "needs_review", "created", "last_modified")
	sb.From("fragments")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var frag models.Fragment
	if err := r.db.GetContext(ctx, &frag, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("fragment %d not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get fragment")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get fragment")
	}

	return &frag, nil
}

// Update persists a fragment's mutable fields, old_shelfmarks included.
func (r *Repository) Update(ctx context.Context, frag *models.Fragment) error {
	ctx, span := tracing.StartSpan(ctx, "fragment.Repository.Update")
	defer span.End()

	sb := database.NewUpdateBuilder()
	sb.Update("fragments")
	sb.Set(
		sb.Assign("shelfmark", frag.Shelfmark),
		sb.Assign("old_shelfmarks", frag.OldShelfmarks),
		sb.Assign("collection", frag.Collection),
		sb.Assign("url", frag.URL),
		sb.Assign("iiif_url", frag.IIIFURL),
		sb.Assign("is_multifragment", frag.IsMultifragment),
		sb.Assign("notes", frag.Notes),
		sb.Assign("needs_review", frag.NeedsReview),
		sb.Assign("last_modified", frag.LastModified),
	)
	sb.Where(sb.Equal("id", frag.ID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update fragment")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update fragment")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update fragment")
	}
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("fragment %d not found", frag.ID))
	}

	return nil
}

// Reassign moves the placements to another document, preserving side, region
// and certainty. Order within the target document is the caller's concern.
func (r *Repository) Reassign(ctx context.Context, placementIDs []int64, documentID int64) error {
	ctx, span := tracing.StartSpan(ctx, "fragment.Repository.Reassign")
	defer span.End()

	if len(placementIDs) == 0 {
		return nil
	}

	sb := database.NewUpdateBuilder()
	sb.Update("placements")
	sb.Set(sb.Assign("document_id", documentID))
	sb.Where(sb.In("id", intValues(placementIDs)...))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reassign placements")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign placements")
	}

	return nil
}

// ListDocumentIDs returns the IDs of documents placed on the fragment.
func (r *Repository) ListDocumentIDs(ctx context.Context, fragmentID int64) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "fragment.Repository.ListDocumentIDs")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("DISTINCT document_id")
	sb.From("placements")
	sb.Where(sb.Equal("fragment_id", fragmentID))

	query, args := sb.Build()
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list documents for fragment")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list documents for fragment")
	}

	return ids, nil
}

// GetPlacementDocumentID returns the document a placement belongs to.
func (r *Repository) GetPlacementDocumentID(ctx context.Context, placementID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "fragment.Repository.GetPlacementDocumentID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("document_id")
	sb.From("placements")
	sb.Where(sb.Equal("id", placementID))

	query, args := sb.Build()
	var documentID int64
	if err := r.db.GetContext(ctx, &documentID, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return 0, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("placement %d not found", placementID))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get placement document")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get placement document")
	}

	return documentID, nil
}

func intValues(ids []int64) []any {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return values
}
