package source

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

// Repository handles bibliographic source reads. Sources are referenced by
// citations but never created or merged here.
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

// Get retrieves a source by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Source, error) {
	ctx, span := tracing.StartSpan(ctx, "source.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "title", "authors", "year", "volume")
	sb.From("sources")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var src models.Source
	if err := r.db.GetContext(ctx, &src, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("source %d not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get source")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get source")
	}

	return &src, nil
}
