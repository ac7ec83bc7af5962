package outbox_test

import (
	"errors"
	"testing"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/outbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	now := time.Now()

	t.Run("creates event in Open status", func(t *testing.T) {
		id := kernel.NewUUID()

		e, err := outbox.NewEvent(id, outbox.TypeFabricIssued, "order", "o-1", []byte(`{}`), now)

		require.NoError(t, err)
		assert.True(t, e.ID().IsEqual(id))
		assert.Equal(t, outbox.StatusOpen, e.Status())
		assert.Equal(t, 0, e.RetryCount())
		assert.True(t, e.ProcessedAt().IsZero())
		require.NoError(t, e.Validate())
	})

	t.Run("rejects missing event type", func(t *testing.T) {
		_, err := outbox.NewEvent(kernel.NewUUID(), "", "order", "o-1", nil, now)
		require.Error(t, err)
	})

	t.Run("rejects zero created at", func(t *testing.T) {
		_, err := outbox.NewEvent(kernel.NewUUID(), outbox.TypeFabricIssued, "order", "o-1", nil, time.Time{})
		require.Error(t, err)
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var e outbox.Event
		require.ErrorIs(t, e.Validate(), outbox.ErrEventIsNotConstructed)
	})
}

func TestEvent_Lifecycle(t *testing.T) {
	now := time.Now()

	t.Run("open to processing to completed", func(t *testing.T) {
		e := newTestEvent(t)

		require.NoError(t, e.MarkProcessing(now))
		assert.Equal(t, outbox.StatusProcessing, e.Status())
		assert.Equal(t, now, e.ProcessedAt())

		done := now.Add(time.Second)
		require.NoError(t, e.MarkCompleted(done))
		assert.Equal(t, outbox.StatusCompleted, e.Status())
		assert.Equal(t, done, e.ProcessedAt())
	})

	t.Run("failure with budget left returns to Open", func(t *testing.T) {
		e := newTestEvent(t)
		require.NoError(t, e.MarkProcessing(now))

		require.NoError(t, e.MarkFailed(now, errors.New("handler exploded")))

		assert.Equal(t, outbox.StatusOpen, e.Status())
		assert.Equal(t, 1, e.RetryCount())
		assert.Equal(t, "handler exploded", e.LastError())
		assert.False(t, e.RetriesExhausted())
	})

	t.Run("failure beyond the bound is terminal", func(t *testing.T) {
		e := newTestEvent(t)

		for i := 0; i < outbox.MaxRetries; i++ {
			require.NoError(t, e.MarkProcessing(now))
			require.NoError(t, e.MarkFailed(now, errors.New("still broken")))
		}

		assert.Equal(t, outbox.StatusFailed, e.Status())
		assert.Equal(t, outbox.MaxRetries, e.RetryCount())
		assert.True(t, e.RetriesExhausted())

		// Terminal: cannot be claimed again.
		require.Error(t, e.MarkProcessing(now))
	})

	t.Run("cannot claim a non-open event", func(t *testing.T) {
		e := newTestEvent(t)
		require.NoError(t, e.MarkProcessing(now))
		require.Error(t, e.MarkProcessing(now))
	})

	t.Run("completion clears the last error", func(t *testing.T) {
		e := newTestEvent(t)
		require.NoError(t, e.MarkProcessing(now))
		require.NoError(t, e.MarkFailed(now, errors.New("first try")))

		require.NoError(t, e.MarkProcessing(now))
		require.NoError(t, e.MarkCompleted(now))
		assert.Empty(t, e.LastError())
	})
}

func TestEvent_Requeue(t *testing.T) {
	now := time.Now()

	t.Run("requeues a stuck claim without spending retries", func(t *testing.T) {
		e := newTestEvent(t)
		require.NoError(t, e.MarkProcessing(now))

		require.NoError(t, e.Requeue())

		assert.Equal(t, outbox.StatusOpen, e.Status())
		assert.Equal(t, 0, e.RetryCount())
	})

	t.Run("only Processing events can be requeued", func(t *testing.T) {
		e := newTestEvent(t)
		require.Error(t, e.Requeue())
	})
}

func TestRestoreEvent(t *testing.T) {
	now := time.Now()

	t.Run("restores persisted state", func(t *testing.T) {
		id := kernel.NewUUID()

		e, err := outbox.RestoreEvent(id, outbox.TypeQCCompleted, "order", "o-1",
			[]byte(`{"order_id":"o-1","pass_rate":96}`), outbox.StatusFailed, 2, now, now, "boom")

		require.NoError(t, err)
		assert.Equal(t, outbox.StatusFailed, e.Status())
		assert.Equal(t, 2, e.RetryCount())
		assert.Equal(t, "boom", e.LastError())
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		_, err := outbox.RestoreEvent(kernel.NewUUID(), outbox.TypeQCCompleted, "order", "o-1",
			nil, outbox.StatusUnknown, 0, now, time.Time{}, "")
		require.Error(t, err)
	})
}

func TestPayloadRoundTrip(t *testing.T) {
	payloads := []outbox.Payload{
		outbox.OrderCreated{OrderID: "o-1", Method: "SILKSCREEN", Quantity: 500},
		outbox.OrderStatusChanged{OrderID: "o-1", FromStatus: "Intake", ToStatus: "DesignPending", ActorID: "u-1"},
		outbox.FabricIssued{OrderID: "o-1", TotalMeters: 120, BatchCount: 2},
		outbox.QCCompleted{OrderID: "o-1", PassRate: 96, Checked: 500},
		outbox.RoutingChanged{OrderID: "o-1", TemplateKey: "silkscreen-standard", StepCount: 5},
		outbox.NotificationQueued{OrderID: "o-1", Kind: "status", Message: "order moved"},
	}

	for _, p := range payloads {
		t.Run(p.EventType(), func(t *testing.T) {
			data, err := outbox.EncodePayload(p)
			require.NoError(t, err)

			decoded, err := outbox.DecodePayload(p.EventType(), data)
			require.NoError(t, err)
			assert.Equal(t, p, decoded)

			entityType, entityID := decoded.EntityRef()
			assert.Equal(t, "order", entityType)
			assert.Equal(t, "o-1", entityID)
		})
	}

	t.Run("unknown tag is rejected", func(t *testing.T) {
		_, err := outbox.DecodePayload("order.teleported", []byte(`{}`))
		require.Error(t, err)
	})
}

func newTestEvent(t *testing.T) *outbox.Event {
	t.Helper()

	e, err := outbox.NewEvent(kernel.NewUUID(), outbox.TypeFabricIssued, "order", "o-1",
		[]byte(`{"order_id":"o-1","total_meters":120,"batch_count":2}`), time.Now())
	require.NoError(t, err)
	return e
}
