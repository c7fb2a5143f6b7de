package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// batchTimeout bounds how long a synchronous write waits for more messages.
const batchTimeout = 10 * time.Millisecond

// Publisher sends budget change events to a Kafka topic, keyed by budget id.
type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           batchTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

type eventMessage struct {
	Type       budget.EventType `json:"type"`
	BudgetID   string           `json:"budgetId"`
	Month      budget.Month     `json:"month"`
	Year       int              `json:"year"`
	ExpenseID  string           `json:"expenseId,omitempty"`
	CategoryID string           `json:"categoryId,omitempty"`
	Amount     string           `json:"amount"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// Publish writes all events in a single call so a batch is flushed at once.
func (p *Publisher) Publish(ctx context.Context, events ...budget.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))

	for _, e := range events {
		msg, err := encodeEvent(e)
		if err != nil {
			return err
		}

		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing %d %s event(s): %w", len(msgs), events[0].Type, err)
	}

	return nil
}

func encodeEvent(e budget.Event) (kafka.Message, error) {
	msg := eventMessage{
		Type:       e.Type,
		BudgetID:   e.Period.Key(),
		Month:      e.Period.Month,
		Year:       e.Period.Year,
		CategoryID: e.CategoryID,
		Amount:     e.Amount.StringFixed(2),
		OccurredAt: e.OccurredAt,
	}

	if e.ExpenseID != uuid.Nil {
		msg.ExpenseID = e.ExpenseID.String()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(msg.BudgetID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
