package index

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/genizalab/corpus/pkg/kafka"
	"github.com/genizalab/corpus/pkg/metrics"
)

// EntityChangeEvent is the wire form of a related-entity write published by
// the services that own those entities. DocumentIDs is optional; when the
// producer already knows the affected documents the graph resolver is skipped.
type EntityChangeEvent struct {
	Kind        string  `json:"kind"`
	Event       string  `json:"event"`
	EntityID    int64   `json:"entity_id"`
	DocumentIDs []int64 `json:"document_ids,omitempty"`
	Raw         bool    `json:"raw,omitempty"`
	Unchanged   bool    `json:"unchanged,omitempty"`
}

// EntityChangeConsumer consumes related-entity change events from Kafka and
// routes them through the notifier, so writes made outside this service still
// reach the index layer.
type EntityChangeConsumer struct {
	consumer *kafka.Consumer
	notifier *Notifier
	logger   ectologger.Logger
}

func NewEntityChangeConsumer(cfg kafka.ConsumerConfig, notifier *Notifier, logger ectologger.Logger) *EntityChangeConsumer {
	ec := &EntityChangeConsumer{
		notifier: notifier,
		logger:   logger,
	}
	ec.consumer = kafka.NewConsumer(cfg, logger, ec.handle)
	return ec
}

func (ec *EntityChangeConsumer) Start(ctx context.Context) error {
	return ec.consumer.Start(ctx)
}

func (ec *EntityChangeConsumer) Stop() error {
	return ec.consumer.Stop()
}

func (ec *EntityChangeConsumer) handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	var event EntityChangeEvent
	if err := msg.Decode(&event); err != nil {
		// malformed events are dropped, not retried
		ec.logger.WithContext(ctx).WithError(err).Error("Dropping malformed entity change event")
		metrics.EntityChangesTotal.WithLabelValues("unknown", "malformed").Inc()
		return nil
	}

	kind, ok := ParseEntityKind(event.Kind)
	if !ok {
		ec.logger.WithContext(ctx).WithField("kind", event.Kind).Warn("Dropping entity change of unknown kind")
		metrics.EntityChangesTotal.WithLabelValues(event.Kind, "unknown_kind").Inc()
		return nil
	}

	if event.Event == "" {
		ec.logger.WithContext(ctx).WithField("kind", event.Kind).Warn("Dropping entity change without an event")
		metrics.EntityChangesTotal.WithLabelValues(event.Kind, "malformed").Inc()
		return nil
	}

	ec.notifier.Notify(ctx, Change{
		Kind:        kind,
		Event:       event.Event,
		EntityID:    event.EntityID,
		DocumentIDs: event.DocumentIDs,
		Raw:         event.Raw,
		Unchanged:   event.Unchanged,
	})
	metrics.EntityChangesTotal.WithLabelValues(event.Kind, "processed").Inc()
	return nil
}
