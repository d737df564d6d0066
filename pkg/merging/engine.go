package merging

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/genizalab/corpus/pkg/database"
	"github.com/genizalab/corpus/pkg/metrics"
	"github.com/genizalab/corpus/pkg/models"
	"github.com/genizalab/corpus/pkg/redis"
)

// DocumentStore is the slice of the document repository the engine needs.
type DocumentStore interface {
	GetBundle(ctx context.Context, id int64) (*models.DocumentBundle, error)
	Update(ctx context.Context, doc *models.Document) error
	AddOldIDs(ctx context.Context, documentID int64, oldIDs []int64) error
	AddTags(ctx context.Context, documentID int64, names []string) error
	AddLanguages(ctx context.Context, documentID int64, languageIDs []int64, secondary bool) error
	Delete(ctx context.Context, id int64) error
}

// PlacementStore reassigns placements between documents.
type PlacementStore interface {
	Reassign(ctx context.Context, placementIDs []int64, documentID int64) error
}

// CitationStore reassigns and removes citations.
type CitationStore interface {
	Reassign(ctx context.Context, citationIDs []int64, documentID int64) error
	DeleteMany(ctx context.Context, citationIDs []int64) error
}

// LogStore reassigns log entries and appends new ones.
type LogStore interface {
	Reassign(ctx context.Context, entryID uuid.UUID, documentID int64, message string) error
	Append(ctx context.Context, entry *models.LogEntry) error
}

// Notifier receives document-level change notifications after the merge
// transaction commits. Failures are the notifier's problem, never the merge's.
type Notifier interface {
	DocumentsChanged(ctx context.Context, event string, documentIDs []int64)
	DocumentsDeleted(ctx context.Context, documentIDs []int64)
}

// Request describes one merge invocation.
type Request struct {
	SurvivorID  int64
	AbsorbedIDs []int64
	Rationale   string
	// Actor is the responsible user; empty means the reserved script actor.
	Actor string
}

// Result reports what a successful merge did.
type Result struct {
	SurvivorID       int64   `json:"survivor_id"`
	AbsorbedIDs      []int64 `json:"absorbed_ids"`
	MovedPlacements  int     `json:"moved_placements"`
	MovedCitations   int     `json:"moved_citations"`
	DroppedCitations int     `json:"dropped_citations"`
	MovedLogEntries  int     `json:"moved_log_entries"`
	Scripted         bool    `json:"scripted"`
}

// Config holds merge engine tunables.
type Config struct {
	// ScriptActor is the reserved actor recorded for unattended merges.
	ScriptActor string
	LockTTL     time.Duration
	LockTimeout time.Duration
}

// Engine consolidates duplicate documents. All store mutations for one merge
// happen in a single transaction; advisory locks serialize merges touching
// overlapping documents.
type Engine struct {
	db         database.DB
	documents  DocumentStore
	placements PlacementStore
	citations  CitationStore
	logs       LogStore
	notifier   Notifier
	locker     *redis.Locker
	config     Config
	logger     ectologger.Logger
}

func NewEngine(
	db database.DB,
	documents DocumentStore,
	placements PlacementStore,
	citations CitationStore,
	logs LogStore,
	notifier Notifier,
	locker *redis.Locker,
	config Config,
	logger ectologger.Logger,
) *Engine {
	if config.ScriptActor == "" {
		config.ScriptActor = "script"
	}
	if config.LockTTL == 0 {
		config.LockTTL = 30 * time.Second
	}
	if config.LockTimeout == 0 {
		config.LockTimeout = 5 * time.Second
	}
	return &Engine{
		db:         db,
		documents:  documents,
		placements: placements,
		citations:  citations,
		logs:       logs,
		notifier:   notifier,
		locker:     locker,
		config:     config,
		logger:     logger,
	}
}

// Merge consolidates the absorbed documents into the survivor and deletes
// them. Validation failures are rejected before any store mutation. On any
// later failure the transaction rolls back and nothing is persisted.
func (e *Engine) Merge(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if err := e.validate(req); err != nil {
		metrics.RecordMerge("invalid", 0, time.Since(start).Seconds())
		return nil, err
	}

	if e.locker != nil {
		keys := make([]string, 0, len(req.AbsorbedIDs)+1)
		keys = append(keys, fmt.Sprintf("document:%d", req.SurvivorID))
		for _, id := range req.AbsorbedIDs {
			keys = append(keys, fmt.Sprintf("document:%d", id))
		}
		locks, err := e.locker.TryAcquireAll(ctx, keys, e.config.LockTTL, e.config.LockTimeout)
		if err != nil {
			metrics.RecordMerge("conflict", 0, time.Since(start).Seconds())
			return nil, httperror.NewHTTPError(http.StatusConflict, "another merge is touching these documents")
		}
		defer redis.ReleaseAll(ctx, locks)
	}

	var result *Result
	err := database.WithTx(ctx, e.logger, e.db, func(ctx context.Context) error {
		var err error
		result, err = e.mergeInTx(ctx, req)
		return err
	})
	if err != nil {
		metrics.RecordMerge("failure", 0, time.Since(start).Seconds())
		return nil, err
	}

	// post-commit; index writes never affect the merge outcome
	if e.notifier != nil {
		e.notifier.DocumentsDeleted(ctx, result.AbsorbedIDs)
		e.notifier.DocumentsChanged(ctx, models.ActionUpdate, []int64{result.SurvivorID})
	}

	metrics.RecordMerge("success", len(req.AbsorbedIDs), time.Since(start).Seconds())

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"survivor_id":  result.SurvivorID,
		"absorbed_ids": result.AbsorbedIDs,
		"scripted":     result.Scripted,
	}).Info("Merged documents")

	return result, nil
}

func (e *Engine) validate(req Request) error {
	if len(req.AbsorbedIDs) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "at least one document to absorb is required")
	}
	if strings.TrimSpace(req.Rationale) == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "a merge rationale is required")
	}
	seen := make(map[int64]struct{}, len(req.AbsorbedIDs))
	for _, id := range req.AbsorbedIDs {
		if id == req.SurvivorID {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "document %d cannot absorb itself", req.SurvivorID)
		}
		if _, ok := seen[id]; ok {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "document %d listed more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (e *Engine) mergeInTx(ctx context.Context, req Request) (*Result, error) {
	survivor, err := e.documents.GetBundle(ctx, req.SurvivorID)
	if err != nil {
		return nil, err
	}

	absorbed := make([]models.DocumentBundle, 0, len(req.AbsorbedIDs))
	for _, id := range req.AbsorbedIDs {
		bundle, err := e.documents.GetBundle(ctx, id)
		if err != nil {
			return nil, err
		}
		absorbed = append(absorbed, *bundle)
	}

	plan, ambiguities := Combine(*survivor, absorbed)
	for _, a := range ambiguities {
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"document_id": a.DocumentID,
			"citation_id": a.CitationID,
			"matches":     a.Matches,
		}).Warn("Citation matched multiple existing citations; first match used")
	}
	for _, id := range plan.DroppedPlacements {
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"placement_id": id,
			"survivor_id":  req.SurvivorID,
		}).Warn("Dropped placement whose fragment the survivor already references")
	}

	actor := req.Actor
	scripted := actor == ""
	if scripted {
		actor = e.config.ScriptActor
		plan.Survivor.NeedsReview = prefixParagraph(ScriptedMergeMarker, plan.Survivor.NeedsReview)
	}

	if err := e.apply(ctx, plan); err != nil {
		return nil, err
	}

	entry := &models.LogEntry{
		ID:         uuid.New(),
		DocumentID: req.SurvivorID,
		Actor:      actor,
		Action:     models.ActionMerge,
		Message:    mergeMessage(plan.AbsorbedIDs, req.Rationale),
		Created:    time.Now().UTC(),
	}
	if err := e.logs.Append(ctx, entry); err != nil {
		return nil, err
	}

	for _, id := range plan.AbsorbedIDs {
		if err := e.documents.Delete(ctx, id); err != nil {
			return nil, err
		}
	}

	return &Result{
		SurvivorID:       req.SurvivorID,
		AbsorbedIDs:      plan.AbsorbedIDs,
		MovedPlacements:  len(plan.MovePlacements),
		MovedCitations:   len(plan.MoveCitations),
		DroppedCitations: len(plan.DropCitations),
		MovedLogEntries:  len(plan.MoveLogEntries),
		Scripted:         scripted,
	}, nil
}

func (e *Engine) apply(ctx context.Context, plan *Plan) error {
	plan.Survivor.LastModified = time.Now().UTC()
	if err := e.documents.Update(ctx, &plan.Survivor); err != nil {
		return err
	}
	if err := e.documents.AddOldIDs(ctx, plan.Survivor.ID, plan.AbsorbedIDs); err != nil {
		return err
	}
	if len(plan.AddedTags) > 0 {
		if err := e.documents.AddTags(ctx, plan.Survivor.ID, plan.AddedTags); err != nil {
			return err
		}
	}
	if len(plan.AddedLanguages) > 0 {
		if err := e.documents.AddLanguages(ctx, plan.Survivor.ID, plan.AddedLanguages, false); err != nil {
			return err
		}
	}
	if len(plan.AddedSecondaryLanguages) > 0 {
		if err := e.documents.AddLanguages(ctx, plan.Survivor.ID, plan.AddedSecondaryLanguages, true); err != nil {
			return err
		}
	}
	if len(plan.MovePlacements) > 0 {
		if err := e.placements.Reassign(ctx, plan.MovePlacements, plan.Survivor.ID); err != nil {
			return err
		}
	}
	if len(plan.MoveCitations) > 0 {
		if err := e.citations.Reassign(ctx, plan.MoveCitations, plan.Survivor.ID); err != nil {
			return err
		}
	}
	if len(plan.DropCitations) > 0 {
		if err := e.citations.DeleteMany(ctx, plan.DropCitations); err != nil {
			return err
		}
	}
	for _, move := range plan.MoveLogEntries {
		if err := e.logs.Reassign(ctx, move.ID, plan.Survivor.ID, move.Message); err != nil {
			return err
		}
	}
	return nil
}

func mergeMessage(absorbedIDs []int64, rationale string) string {
	names := make([]string, len(absorbedIDs))
	for i, id := range absorbedIDs {
		names[i] = fmt.Sprintf("PGPID %d", id)
	}
	return fmt.Sprintf("merged %s: %s", strings.Join(names, ", "), rationale)
}

func prefixParagraph(prefix, base string) string {
	if base == "" {
		return prefix
	}
	return prefix + "\n" + base
}
