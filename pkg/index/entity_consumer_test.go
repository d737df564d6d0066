package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genizalab/corpus/pkg/kafka"
	"github.com/genizalab/corpus/pkg/models"
)

func newTestEntityConsumer(source *fakeSource, writer *fakeWriter) (*EntityChangeConsumer, *Graph) {
	notifier, graph := newTestNotifier(source, writer)
	cfg := kafka.ConsumerConfig{
		Brokers:       []string{"localhost:9092"},
		Topic:         "entity-changes",
		ConsumerGroup: "test",
	}
	return NewEntityChangeConsumer(cfg, notifier, testLogger()), graph
}

func changeMessage(payload string) *kafka.IncomingMessage {
	return &kafka.IncomingMessage{Value: []byte(payload)}
}

func TestEntityConsumer_RoutesThroughResolver(t *testing.T) {
	source := &fakeSource{bundles: map[int64]*models.DocumentBundle{
		1: publicBundle(1),
		2: publicBundle(2),
	}}
	writer := &fakeWriter{}
	consumer, graph := newTestEntityConsumer(source, writer)

	var resolvedFor int64
	graph.Register(KindTag, Dependency{
		Events: []string{models.ActionUpdate, models.ActionDelete},
		Resolve: func(ctx context.Context, change Change) ([]int64, error) {
			resolvedFor = change.EntityID
			return []int64{1, 2}, nil
		},
	})

	err := consumer.handle(context.Background(), changeMessage(
		`{"kind": "tag", "event": "update", "entity_id": 9}`,
	))

	require.NoError(t, err)
	assert.Equal(t, int64(9), resolvedFor)
	require.Len(t, writer.upserts, 2)
	assert.Equal(t, "document.1", writer.upserts[0].ID)
	assert.Equal(t, "document.2", writer.upserts[1].ID)
}

func TestEntityConsumer_PreResolvedDocuments(t *testing.T) {
	source := &fakeSource{bundles: map[int64]*models.DocumentBundle{5: publicBundle(5)}}
	writer := &fakeWriter{}
	consumer, graph := newTestEntityConsumer(source, writer)

	graph.Register(KindCitation, Dependency{
		Events: []string{models.ActionCreate, models.ActionUpdate},
	})

	err := consumer.handle(context.Background(), changeMessage(
		`{"kind": "citation", "event": "create", "entity_id": 77, "document_ids": [5]}`,
	))

	require.NoError(t, err)
	require.Len(t, writer.upserts, 1)
	assert.Equal(t, "document.5", writer.upserts[0].ID)
}

func TestEntityConsumer_RawFlagShortCircuits(t *testing.T) {
	source := &fakeSource{bundles: map[int64]*models.DocumentBundle{1: publicBundle(1)}}
	writer := &fakeWriter{}
	consumer, _ := newTestEntityConsumer(source, writer)

	err := consumer.handle(context.Background(), changeMessage(
		`{"kind": "document", "event": "update", "entity_id": 1, "document_ids": [1], "raw": true}`,
	))

	require.NoError(t, err)
	assert.Empty(t, writer.upserts)
}

func TestEntityConsumer_DroppedEvents(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "malformed json", payload: `{"kind": `},
		{name: "unknown kind", payload: `{"kind": "inventory", "event": "update", "entity_id": 1}`},
		{name: "missing event", payload: `{"kind": "tag", "entity_id": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{bundles: map[int64]*models.DocumentBundle{1: publicBundle(1)}}
			writer := &fakeWriter{}
			consumer, _ := newTestEntityConsumer(source, writer)

			// dropped, never redelivered
			err := consumer.handle(context.Background(), changeMessage(tt.payload))

			require.NoError(t, err)
			assert.Empty(t, writer.upserts)
			assert.Empty(t, writer.deletes)
		})
	}
}

func TestParseEntityKind(t *testing.T) {
	kind, ok := ParseEntityKind("fragment")
	require.True(t, ok)
	assert.Equal(t, KindFragment, kind)

	_, ok = ParseEntityKind("inventory")
	assert.False(t, ok)
}
