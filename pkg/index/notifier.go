package index

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/genizalab/corpus/pkg/metrics"
	"github.com/genizalab/corpus/pkg/models"
	"github.com/genizalab/corpus/pkg/tracing"
)

// DocumentSource loads the bundle a projection needs.
type DocumentSource interface {
	GetBundle(ctx context.Context, id int64) (*models.DocumentBundle, error)
}

// Notifier receives entity change announcements and keeps the index current.
// It is injected into the entity-store access layer; there is no ambient
// signal bus.
type Notifier struct {
	graph     *Graph
	documents DocumentSource
	writer    Writer
	logger    ectologger.Logger
}

func NewNotifier(graph *Graph, documents DocumentSource, writer Writer, logger ectologger.Logger) *Notifier {
	return &Notifier{
		graph:     graph,
		documents: documents,
		writer:    writer,
		logger:    logger,
	}
}

// Notify handles one entity change. Unknown kinds are inert; raw and
// unchanged writes short-circuit. Failures are logged and counted, never
// propagated: the index is a derived view, not part of the write path.
func (n *Notifier) Notify(ctx context.Context, change Change) {
	ctx, span := tracing.StartSpan(ctx, "index.Notifier.Notify")
	defer span.End()

	log := n.logger.WithContext(ctx).WithFields(map[string]any{
		"kind":      string(change.Kind),
		"event":     change.Event,
		"entity_id": change.EntityID,
	})

	dep, ok := n.graph.Lookup(change.Kind)
	if !ok {
		log.Warn("Change for unregistered entity kind ignored")
		metrics.RecordNotification(string(change.Kind), "unregistered")
		return
	}

	if !dep.Triggers(change.Event) {
		metrics.RecordNotification(string(change.Kind), "untriggered")
		return
	}

	if change.Raw || change.Unchanged {
		metrics.RecordNotification(string(change.Kind), "short_circuit")
		return
	}

	documentIDs := change.DocumentIDs
	if len(documentIDs) == 0 {
		var err error
		documentIDs, err = dep.Resolve(ctx, change)
		if err != nil {
			log.WithError(err).Error("Failed to resolve affected documents")
			metrics.RecordNotification(string(change.Kind), "resolve_failed")
			return
		}
	}

	for _, id := range documentIDs {
		n.reproject(ctx, id)
	}
	metrics.RecordNotification(string(change.Kind), "processed")
}

// DocumentsChanged re-projects the given documents. Used by the merge engine
// and the reindex consumer, where the affected set is already known.
func (n *Notifier) DocumentsChanged(ctx context.Context, event string, documentIDs []int64) {
	n.Notify(ctx, Change{
		Kind:        KindDocument,
		Event:       event,
		DocumentIDs: documentIDs,
	})
}

// DocumentsDeleted removes the documents' records from the index.
func (n *Notifier) DocumentsDeleted(ctx context.Context, documentIDs []int64) {
	for _, id := range documentIDs {
		if err := n.writer.Delete(ctx, RecordID(id)); err != nil {
			n.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"document_id": id,
			}).Error("Failed to delete index record")
		}
	}
}

func (n *Notifier) reproject(ctx context.Context, documentID int64) {
	log := n.logger.WithContext(ctx).WithFields(map[string]any{"document_id": documentID})

	bundle, err := n.documents.GetBundle(ctx, documentID)
	if err != nil {
		log.WithError(err).Error("Failed to load document for projection")
		return
	}

	// documents outside the indexable predicate must not linger in the index
	if !bundle.Document.IsPublic() {
		if err := n.writer.Delete(ctx, RecordID(documentID)); err != nil {
			log.WithError(err).Error("Failed to delete index record for non-indexable document")
		}
		return
	}

	if err := n.writer.Upsert(ctx, BuildRecord(bundle)); err != nil {
		log.WithError(err).Error("Failed to write index record")
	}
}
