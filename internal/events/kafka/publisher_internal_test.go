package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

type fakeWriter struct {
	msgs   []kafka.Message
	writes int
	err    error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}

	f.writes++
	f.msgs = append(f.msgs, msgs...)

	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	id := uuid.New()
	at := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), budget.Event{
		Type:       budget.EventExpenseRecorded,
		Period:     budget.Period{Month: budget.Enero, Year: 2025},
		ExpenseID:  id,
		CategoryID: "transporte",
		Amount:     decimal.RequireFromString("50"),
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "Enero-2025", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "expense.recorded", string(msg.Headers[0].Value))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "expense.recorded", got["type"])
	assert.Equal(t, id.String(), got["expenseId"])
	assert.Equal(t, "transporte", got["categoryId"])
	assert.Equal(t, "50.00", got["amount"])
	assert.Equal(t, "Enero", got["month"])
}

func TestPublisher_Publish_OmitsEmptyExpense(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	err := p.Publish(context.Background(), budget.Event{
		Type:   budget.EventBudgetUpdated,
		Period: budget.Period{Month: budget.Marzo, Year: 2025},
		Amount: decimal.RequireFromString("2500"),
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.NotContains(t, got, "expenseId")
	assert.NotContains(t, got, "categoryId")
}

func TestPublisher_Publish_WriterError(t *testing.T) {
	p := &Publisher{writer: &fakeWriter{err: errors.New("no brokers")}}

	err := p.Publish(context.Background(), budget.Event{
		Type:   budget.EventBudgetUpdated,
		Period: budget.Period{Month: budget.Marzo, Year: 2025},
	})
	assert.ErrorContains(t, err, "no brokers")
}

func TestPublisher_Publish_BatchInOneWrite(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	period := budget.Period{Month: budget.Enero, Year: 2025}
	events := make([]budget.Event, 0, 3)

	for _, amount := range []string{"10", "2.5", "8"} {
		events = append(events, budget.Event{
			Type:       budget.EventExpenseRecorded,
			Period:     period,
			ExpenseID:  uuid.New(),
			CategoryID: "ocio",
			Amount:     decimal.RequireFromString(amount),
		})
	}

	require.NoError(t, p.Publish(context.Background(), events...))
	assert.Equal(t, 1, w.writes)
	require.Len(t, w.msgs, 3)

	for i, msg := range w.msgs {
		assert.Equal(t, "Enero-2025", string(msg.Key))

		var got map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, events[i].ExpenseID.String(), got["expenseId"])
	}
}

func TestPublisher_Publish_NoEvents(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	require.NoError(t, p.Publish(context.Background()))
	assert.Zero(t, w.writes)
}

func TestNewPublisher_ShortBatchTimeout(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "budget-events")

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, batchTimeout, w.BatchTimeout)
	assert.Equal(t, "budget-events", w.Topic)
}
