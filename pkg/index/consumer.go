package index

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/genizalab/corpus/pkg/kafka"
	"github.com/genizalab/corpus/pkg/metrics"
	"github.com/genizalab/corpus/pkg/models"
)

// ReindexRequest asks for deliberate re-projection of documents, either an
// explicit list or the whole catalog.
type ReindexRequest struct {
	DocumentIDs []int64 `json:"document_ids,omitempty"`
	All         bool    `json:"all,omitempty"`
}

// DocumentLister enumerates every document id, for whole-catalog reindexing.
type DocumentLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// ReindexConsumer consumes reindex requests from Kafka and replays them
// through the notifier. These are deliberate re-derivations, so the raw
// short-circuit does not apply.
type ReindexConsumer struct {
	consumer *kafka.Consumer
	notifier *Notifier
	lister   DocumentLister
	logger   ectologger.Logger
}

func NewReindexConsumer(cfg kafka.ConsumerConfig, notifier *Notifier, lister DocumentLister, logger ectologger.Logger) *ReindexConsumer {
	rc := &ReindexConsumer{
		notifier: notifier,
		lister:   lister,
		logger:   logger,
	}
	rc.consumer = kafka.NewConsumer(cfg, logger, rc.handle)
	return rc
}

func (rc *ReindexConsumer) Start(ctx context.Context) error {
	return rc.consumer.Start(ctx)
}

func (rc *ReindexConsumer) Stop() error {
	return rc.consumer.Stop()
}

func (rc *ReindexConsumer) handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	var req ReindexRequest
	if err := msg.Decode(&req); err != nil {
		// malformed requests are dropped, not retried
		rc.logger.WithContext(ctx).WithError(err).Error("Dropping malformed reindex request")
		metrics.ReindexRequestsTotal.WithLabelValues("malformed").Inc()
		return nil
	}

	ids := req.DocumentIDs
	if req.All {
		var err error
		ids, err = rc.lister.ListIDs(ctx)
		if err != nil {
			metrics.ReindexRequestsTotal.WithLabelValues("failure").Inc()
			return err
		}
	}

	if len(ids) == 0 {
		rc.logger.WithContext(ctx).Warn("Reindex request names no documents")
		metrics.ReindexRequestsTotal.WithLabelValues("empty").Inc()
		return nil
	}

	rc.logger.WithContext(ctx).WithFields(map[string]any{
		"documents": len(ids),
		"all":       req.All,
	}).Info("Reindexing documents")

	rc.notifier.DocumentsChanged(ctx, models.ActionUpdate, ids)
	metrics.ReindexRequestsTotal.WithLabelValues("success").Inc()
	return nil
}
