package emit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaEmitter publishes events as JSON messages to an audit topic, keyed
// by run ID so all events for one run land on the same partition in order.
//
// Delivery failures are logged and dropped; the audit stream is
// best-effort and must never fail a run. Callers that need a durable trail
// should rely on the snapshot store instead.
type KafkaEmitter struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewKafkaEmitter creates a KafkaEmitter writing to the given topic.
func NewKafkaEmitter(brokers []string, topic string) *KafkaEmitter {
	return &KafkaEmitter{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		timeout: 5 * time.Second,
	}
}

// Emit implements Emitter.
func (k *KafkaEmitter) Emit(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("kafka emitter: marshal event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.RunID),
		Value: data,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("kafka emitter: write event: %v", err)
	}
}

// Close closes the underlying Kafka writer.
func (k *KafkaEmitter) Close() error {
	return k.writer.Close()
}
