package kafka

import (
	"encoding/json"
	"time"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// Decode unmarshals the message value into v
func (m *IncomingMessage) Decode(v any) error {
	return json.Unmarshal(m.Value, v)
}
