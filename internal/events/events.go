// Package events announces completed imports and cleared periods to other
// systems.
package events

import (
	"context"
	"sync"
	"time"
)

// Topics.
const (
	TopicImportCompleted = "ledger.import_completed"
	TopicPeriodCleared   = "ledger.period_cleared"
)

// ImportCompleted is published after every import that built a batch,
// whether or not it was persisted.
type ImportCompleted struct {
	ImportID              string    `json:"import_id"`
	ClientID              string    `json:"client_id"`
	Period                string    `json:"period"`
	FileName              string    `json:"file_name"`
	Profile               string    `json:"profile,omitempty"`
	ImportedCount         int       `json:"imported_count"`
	SkippedDuplicateCount int       `json:"skipped_duplicate_count"`
	InvalidRowCount       int       `json:"invalid_row_count"`
	Persisted             bool      `json:"persisted"`
	OccurredAt            time.Time `json:"occurred_at"`
}

// PeriodCleared is published after entries are deleted. Period is empty
// when every period of the client was cleared.
type PeriodCleared struct {
	ClientID     string    `json:"client_id"`
	Period       string    `json:"period"`
	RemovedCount int       `json:"removed_count"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher sends an event to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Message is one event captured by a Recorder.
type Message struct {
	Topic string
	Event any
}

// Recorder keeps published events in memory. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(_ context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Topic: topic, Event: event})
	return nil
}

// Messages returns a copy of everything published so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
