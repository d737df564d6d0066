package logentry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/genizalab/corpus/pkg/database"
	"github.com/genizalab/corpus/pkg/models"
	"github.com/genizalab/corpus/pkg/tracing"
)

// Repository handles the append-only document audit log. Entries are never
// updated in place except to reassociate them during a merge, which also
// stamps the originating PGPID into the message.
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

// List returns a document's audit entries oldest first.
func (r *Repository) List(ctx context.Context, documentID int64) ([]models.LogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "logentry.Repository.List")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "document_id", "actor", "action", "message", "created")
	sb.From("log_entries")
	sb.Where(sb.Equal("document_id", documentID))
	sb.OrderBy("created ASC", "id ASC")

	query, args := sb.Build()
	var entries []models.LogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list log entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list log entries")
	}

	return entries, nil
}

// Append writes a new audit entry.
func (r *Repository) Append(ctx context.Context, entry *models.LogEntry) error {
	ctx, span := tracing.StartSpan(ctx, "logentry.Repository.Append")
	defer span.End()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Created.IsZero() {
		entry.Created = time.Now().UTC()
	}

	sb := database.NewInsertBuilder()
	sb.InsertInto("log_entries")
	sb.Cols("id", "document_id", "actor", "action", "message", "created")
	sb.Values(entry.ID, entry.DocumentID, entry.Actor, entry.Action, entry.Message, entry.Created)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to append log entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to append log entry")
	}

	return nil
}

// Reassign moves one entry to another document, rewriting its message to keep
// the original PGPID visible. Actor, action and timestamp are untouched.
func (r *Repository) Reassign(ctx context.Context, entryID uuid.UUID, documentID int64, message string) error {
	ctx, span := tracing.StartSpan(ctx, "logentry.Repository.Reassign")
	defer span.End()

	sb := database.NewUpdateBuilder()
	sb.Update("log_entries")
	sb.Set(
		sb.Assign("document_id", documentID),
		sb.Assign("message", message),
	)
	sb.Where(sb.Equal("id", entryID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reassign log entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign log entry")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("log entry %s not found", entryID))
	}

	return nil
}
