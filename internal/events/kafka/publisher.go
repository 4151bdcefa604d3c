// Package kafka publishes ledger events to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JonMunkholm/ledgerrecon/internal/events"
)

// Publisher writes JSON events to Kafka. The topic is chosen per message,
// prefixed with an optional namespace.
type Publisher struct {
	writer      *kafka.Writer
	topicPrefix string
}

// NewPublisher returns a Publisher for brokers. Topics are created by the
// broker on first write when auto-creation is enabled there.
func NewPublisher(brokers []string, topicPrefix string, writeTimeout time.Duration) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			WriteTimeout:           writeTimeout,
			AllowAutoTopicCreation: true,
		},
		topicPrefix: topicPrefix,
	}
}

// Publish marshals event and writes it to topic.
func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := kafka.Message{
		Topic: p.topicPrefix + topic,
		Key:   []byte(key(event)),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", topic, err)
	}
	return nil
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// key routes every event of one client to the same partition.
func key(event any) string {
	switch e := event.(type) {
	case events.ImportCompleted:
		return e.ClientID
	case events.PeriodCleared:
		return e.ClientID
	}
	return ""
}

var _ events.Publisher = (*Publisher)(nil)
