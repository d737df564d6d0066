package document

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"

	"github.com/genizalab/corpus/pkg/database"
	"github.com/genizalab/corpus/pkg/models"
	"github.com/genizalab/corpus/pkg/tracing"
)

// Repository handles document persistence and bundle assembly.
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

// DB exposes the underlying database handle for transactional operations.
func (r *Repository) DB() database.DB {
	return r.db
}

// Get retrieves a document by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Document, error) {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "description", "doctype", "language_note", "notes", "needs_review", "status", "created", "last_modified")
	sb.From("documents")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("document %d not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get document")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get document")
	}

	return &doc, nil
}

// GetBundle retrieves a document with every related fact loaded.
func (r *Repository) GetBundle(ctx context.Context, id int64) (*models.DocumentBundle, error) {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.GetBundle")
	defer span.End()

	doc, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	bundle := &models.DocumentBundle{Document: *doc}

	if bundle.OldIDs, err = r.getOldIDs(ctx, id); err != nil {
		return nil, err
	}
	if bundle.Tags, err = r.getTags(ctx, id); err != nil {
		return nil, err
	}
	if bundle.Languages, err = r.getLanguages(ctx, id, false); err != nil {
		return nil, err
	}
	if bundle.SecondaryLanguages, err = r.getLanguages(ctx, id, true); err != nil {
		return nil, err
	}
	if bundle.Placements, err = r.getPlacements(ctx, id); err != nil {
		return nil, err
	}
	if bundle.Citations, err = r.getCitations(ctx, id); err != nil {
		return nil, err
	}
	if bundle.LogEntries, err = r.getLogEntries(ctx, id); err != nil {
		return nil, err
	}

	return bundle, nil
}

// ListIDs returns every document ID, suppressed records included, so a full
// reindex can also clear records that no longer belong in the index.
func (r *Repository) ListIDs(ctx context.Context) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.ListIDs")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id")
	sb.From("documents")
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list document IDs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list documents")
	}

	return ids, nil
}

// ListIDsByTag returns the IDs of documents carrying the tag.
func (r *Repository) ListIDsByTag(ctx context.Context, tagID int64) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.ListIDsByTag")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("document_id")
	sb.From("document_tags")
	sb.Where(sb.Equal("tag_id", tagID))

	query, args := sb.Build()
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list document IDs by tag")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list documents by tag")
	}

	return ids, nil
}

// Update writes the mutable document fields.
func (r *Repository) Update(ctx context.Context, doc *models.Document) error {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.Update")
	defer span.End()

	sb := database.NewUpdateBuilder()
	sb.Update("documents")
	sb.Set(
		sb.Assign("description", doc.Description),
		sb.Assign("doctype", doc.DocType),
		sb.Assign("language_note", doc.LanguageNote),
		sb.Assign("notes", doc.Notes),
		sb.Assign("needs_review", doc.NeedsReview),
		sb.Assign("status", doc.Status),
		sb.Assign("last_modified", doc.LastModified),
	)
	sb.Where(sb.Equal("id", doc.ID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update document")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update document")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("document %d not found", doc.ID))
	}

	return nil
}

// AddOldIDs records prior PGPIDs for the document. Each old ID belongs to at
// most one document; re-adding an existing mapping is a no-op.
func (r *Repository) AddOldIDs(ctx context.Context, documentID int64, oldIDs []int64) error {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.AddOldIDs")
	defer span.End()

	if len(oldIDs) == 0 {
		return nil
	}

	sb := database.NewInsertBuilder()
	sb.InsertInto("document_old_ids")
	sb.Cols("old_id", "document_id")
	for _, oldID := range oldIDs {
		sb.Values(oldID, documentID)
	}
	sb.OnConflictDoNothing()

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to add old document IDs")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to add old document IDs")
	}

	return nil
}

// AddTags attaches the named tags to the document, creating unknown tags.
func (r *Repository) AddTags(ctx context.Context, documentID int64, names []string) error {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.AddTags")
	defer span.End()

	if len(names) == 0 {
		return nil
	}

	sb := database.NewInsertBuilder()
	sb.InsertInto("tags")
	sb.Cols("name")
	for _, name := range names {
		sb.Values(name)
	}
	sb.OnConflictDoNothing()

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create tags")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to add tags")
	}

	query = `
		INSERT INTO document_tags (document_id, tag_id)
		SELECT $1, id FROM tags WHERE name = ANY($2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, documentID, pq.Array(names)); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to attach tags")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to add tags")
	}

	return nil
}

// AddLanguages attaches language/script pairs to the document, on the
// secondary association when secondary is set.
func (r *Repository) AddLanguages(ctx context.Context, documentID int64, languageIDs []int64, secondary bool) error {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.AddLanguages")
	defer span.End()

	if len(languageIDs) == 0 {
		return nil
	}

	table := "document_languages"
	if secondary {
		table = "document_secondary_languages"
	}

	sb := database.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols("document_id", "language_script_id")
	for _, languageID := range languageIDs {
		sb.Values(documentID, languageID)
	}
	sb.OnConflictDoNothing()

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to add document languages")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to add languages")
	}

	return nil
}

// Delete removes the document. Owned rows (tag links, language links, old ID
// mappings) go with it through cascading foreign keys; placements, citations
// and log entries are expected to have been reassigned first.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.Delete")
	defer span.End()

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom("documents")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete document")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete document")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("document %d not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted document")
	return nil
}

func (r *Repository) getOldIDs(ctx context.Context, documentID int64) ([]int64, error) {
	sb := database.NewSelectBuilder()
	sb.Select("old_id")
	sb.From("document_old_ids")
	sb.Where(sb.Equal("document_id", documentID))
	sb.OrderBy("old_id ASC")

	query, args := sb.Build()
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get old document IDs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get old document IDs")
	}
	return ids, nil
}

func (r *Repository) getTags(ctx context.Context, documentID int64) ([]string, error) {
	sb := database.NewSelectBuilder()
	sb.Select("tags.name")
	sb.From("tags")
	sb.Join("document_tags", "tags.id = document_tags.tag_id")
	sb.Where(sb.Equal("document_tags.document_id", documentID))
	sb.OrderBy("tags.name ASC")

	query, args := sb.Build()
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get document tags")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get document tags")
	}
	return names, nil
}

func (r *Repository) getLanguages(ctx context.Context, documentID int64, secondary bool) ([]models.LanguageScript, error) {
	table := "document_languages"
	if secondary {
		table = "document_secondary_languages"
	}

	sb := database.NewSelectBuilder()
	sb.Select("language_scripts.id", "language_scripts.language", "language_scripts.script", "language_scripts.display_name")
	sb.From("language_scripts")
	sb.Join(table, fmt.Sprintf("language_scripts.id = %s.language_script_id", table))
	sb.Where(sb.Equal(fmt.Sprintf("%s.document_id", table), documentID))
	sb.OrderBy("language_scripts.id ASC")

	query, args := sb.Build()
	var langs []models.LanguageScript
	if err := r.db.SelectContext(ctx, &langs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get document languages")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get document languages")
	}
	return langs, nil
}

func (r *Repository) getPlacements(ctx context.Context, documentID int64) ([]models.Placement, error) {
	sb := database.NewSelectBuilder()
	sb.Select(
		"placements.id",
		"placements.document_id",
		"placements.fragment_id",
		"placements.side",
		"placements.region",
		"placements.order_index",
		"placements.certain",
		"fragments.shelfmark",
	)
	sb.From("placements")
	sb.Join("fragments", "placements.fragment_id = fragments.id")
	sb.Where(sb.Equal("placements.document_id", documentID))
	sb.OrderBy("placements.order_index ASC", "placements.id ASC")

	query, args := sb.Build()
	var placements []models.Placement
	if err := r.db.SelectContext(ctx, &placements, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get document placements")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get document placements")
	}
	return placements, nil
}

func (r *Repository) getCitations(ctx context.Context, documentID int64) ([]models.Citation, error) {
	sb := database.NewSelectBuilder()
	sb.Select("id", "document_id", "source_id", "location", "location_sort", "notes", "relations", "content", "created", "last_modified")
	sb.From("citations")
	sb.Where(sb.Equal("document_id", documentID))
	sb.OrderBy("source_id ASC", "location_sort ASC", "id ASC")

	query, args := sb.Build()
	var citations []models.Citation
	if err := r.db.SelectContext(ctx, &citations, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get document citations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get document citations")
	}
	return citations, nil
}

func (r *Repository) getLogEntries(ctx context.Context, documentID int64) ([]models.LogEntry, error) {
	sb := database.NewSelectBuilder()
	sb.Select("id", "document_id", "actor", "action", "message", "created")
	sb.From("log_entries")
	sb.Where(sb.Equal("document_id", documentID))
	sb.OrderBy("created ASC", "id ASC")

	query, args := sb.Build()
	var entries []models.LogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get document log entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get document log entries")
	}
	return entries, nil
}
