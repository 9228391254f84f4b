package realtime

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_FiltersByBusinessAndTable(t *testing.T) {
	hub := NewHub(logger.NewNop())
	products := hub.Subscribe("b1", []string{TableProducts})
	all := hub.Subscribe("b1", nil)
	other := hub.Subscribe("b2", nil)

	ev, err := NewEvent(EventInsert, TableTransactions, "b1", map[string]interface{}{"id": "t1"}, nil)
	require.NoError(t, err)
	require.NoError(t, hub.HandleEvent(context.Background(), ev))

	assert.Len(t, products.C(), 0)
	assert.Len(t, other.C(), 0)
	require.Len(t, all.C(), 1)

	var got Event
	require.NoError(t, json.Unmarshal(<-all.C(), &got))
	assert.Equal(t, "t1", got.RecordID())
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(logger.NewNop())
	slow := hub.Subscribe("b1", nil)

	ev, err := NewEvent(EventUpdate, TableProducts, "b1", map[string]interface{}{"id": "p1"}, nil)
	require.NoError(t, err)
	for i := 0; i < subscriberBuffer+1; i++ {
		require.NoError(t, hub.HandleEvent(context.Background(), ev))
	}

	assert.Equal(t, 0, hub.Count())
	n := 0
	for range slow.C() {
		n++
	}
	assert.Equal(t, subscriberBuffer, n)

	// Unsubscribing an already dropped subscriber is a no-op.
	hub.Unsubscribe(slow)
}

func TestDispatcher_ContinuesAfterHandlerError(t *testing.T) {
	var calls []string
	d := NewDispatcher(logger.NewNop(),
		HandlerFunc(func(ctx context.Context, ev Event) error {
			calls = append(calls, "first")
			return assert.AnError
		}),
	)
	d.Register(HandlerFunc(func(ctx context.Context, ev Event) error {
		calls = append(calls, "second")
		return nil
	}))

	d.Dispatch(context.Background(), Event{Type: EventInsert, Table: TableProducts})
	assert.Equal(t, []string{"first", "second"}, calls)
}
