// Package events publishes ledger events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-petr/pocket-bank/internal/domain"
	"github.com/segmentio/kafka-go"
)

// TopicTransactionCompleted is the topic for committed balance mutations.
const TopicTransactionCompleted = "transaction.completed"

// TransactionCompleted is emitted after a deposit or withdrawal commits.
type TransactionCompleted struct {
	TransactionID int64         `json:"transaction_id"`
	Owner         string        `json:"owner"`
	Type          domain.TxType `json:"type"`
	Amount        string        `json:"amount"`
	BalanceAfter  string        `json:"balance_after"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// KafkaPublisher publishes ledger events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher returns a publisher writing to the given brokers.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    TopicTransactionCompleted,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish emits a TransactionCompleted event for the given transaction.
func (p *KafkaPublisher) Publish(ctx context.Context, t domain.Transaction) error {
	event := TransactionCompleted{
		TransactionID: t.ID,
		Owner:         t.Owner,
		Type:          t.Type,
		Amount:        t.Amount,
		BalanceAfter:  t.BalanceAfter,
		OccurredAt:    t.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(t.Owner),
		Value: data,
	})
}

// Close closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards all events. It is used when no brokers are configured.
type NopPublisher struct{}

// Publish implements the publisher interface and does nothing.
func (NopPublisher) Publish(ctx context.Context, t domain.Transaction) error {
	return nil
}
