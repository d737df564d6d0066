package citation

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

// Repository handles citation persistence.
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

// Get retrieves a citation by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Citation, error) {
	ctx, span := tracing.StartSpan(ctx, "citation.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "document_id", "source_id", "location", "location_sort", "notes", "relations", "content", "created", "last_modified")
	sb.From("citations")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var cit models.Citation
	if err := r.db.GetContext(ctx, &cit, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("citation %d not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get citation")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get citation")
	}

	return &cit, nil
}

// Reassign moves the citations to another document.
func (r *Repository) Reassign(ctx context.Context, citationIDs []int64, documentID int64) error {
	ctx, span := tracing.StartSpan(ctx, "citation.Repository.Reassign")
	defer span.End()

	if len(citationIDs) == 0 {
		return nil
	}

	sb := database.NewUpdateBuilder()
	sb.Update("citations")
	sb.Set(sb.Assign("document_id", documentID))
	sb.Where(sb.In("id", intValues(citationIDs)...))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reassign citations")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign citations")
	}

	return nil
}

// DeleteMany removes citations made redundant by content supersession.
func (r *Repository) DeleteMany(ctx context.Context, citationIDs []int64) error {
	ctx, span := tracing.StartSpan(ctx, "citation.Repository.DeleteMany")
	defer span.End()

	if len(citationIDs) == 0 {
		return nil
	}

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom("citations")
	sb.Where(sb.In("id", intValues(citationIDs)...))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete citations")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete citations")
	}

	return nil
}

// GetDocumentID returns the document a citation belongs to.
func (r *Repository) GetDocumentID(ctx context.Context, citationID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "citation.Repository.GetDocumentID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("document_id")
	sb.From("citations")
	sb.Where(sb.Equal("id", citationID))

	query, args := sb.Build()
	var documentID int64
	if err := r.db.GetContext(ctx, &documentID, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return 0, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("citation %d not found", citationID))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get citation document")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get citation document")
	}

	return documentID, nil
}

// ListDocumentIDsBySource returns the IDs of documents citing the source.
func (r *Repository) ListDocumentIDsBySource(ctx context.Context, sourceID int64) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "citation.Repository.ListDocumentIDsBySource")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("DISTINCT document_id")
	sb.From("citations")
	sb.Where(sb.Equal("source_id", sourceID))

	query, args := sb.Build()
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list documents for source")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list documents for source")
	}

	return ids, nil
}

func intValues(ids []int64) []any {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return values
}
