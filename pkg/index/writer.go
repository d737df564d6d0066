package index

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/genizalab/corpus/pkg/kafka"
	"github.com/genizalab/corpus/pkg/metrics"
)

// Writer pushes flat records to the external search index.
type Writer interface {
	Upsert(ctx context.Context, record *Record) error
	Delete(ctx context.Context, recordID string) error
}

// Envelope is the message published to the index topic. The external engine
// applies upserts keyed by record id.
type Envelope struct {
	Operation string    `json:"operation"` // upsert, delete
	ID        string    `json:"id"`
	Record    *Record   `json:"record,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// KafkaWriter publishes index envelopes to a Kafka topic.
type KafkaWriter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

func NewKafkaWriter(producer *kafka.Producer, logger ectologger.Logger) *KafkaWriter {
	return &KafkaWriter{
		producer: producer,
		logger:   logger,
	}
}

func (w *KafkaWriter) Upsert(ctx context.Context, record *Record) error {
	return w.publish(ctx, Envelope{
		Operation: "upsert",
		ID:        record.ID,
		Record:    record,
		Timestamp: time.Now().UTC(),
	})
}

func (w *KafkaWriter) Delete(ctx context.Context, recordID string) error {
	return w.publish(ctx, Envelope{
		Operation: "delete",
		ID:        recordID,
		Timestamp: time.Now().UTC(),
	})
}

func (w *KafkaWriter) publish(ctx context.Context, envelope Envelope) error {
	start := time.Now()
	err := w.producer.Publish(ctx, envelope.ID, envelope, map[string]string{
		"operation": envelope.Operation,
	})
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RecordIndexWrite(envelope.Operation, status, time.Since(start).Seconds())
	return err
}
