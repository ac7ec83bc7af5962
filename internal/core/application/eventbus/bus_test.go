package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"production/internal/adapters/out/memory"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/outbox"
)

func newTestBus(t *testing.T) (*Bus, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := NewBus(memory.NewFactory(store), logger, NewMetrics(prometheus.NewRegistry()))
	return bus, store
}

func storedEvent(t *testing.T, store *memory.Store, id kernel.UUID) *outbox.Event {
	t.Helper()

	event, ok := store.Events()[id.String()]
	require.True(t, ok, "event %s not persisted", id)
	return event
}

func Test_Bus_EmitPersistsAndDispatches(t *testing.T) {
	// Arrange
	bus, store := newTestBus(t)

	var received []Envelope
	bus.Subscribe(outbox.TypeFabricIssued, func(_ context.Context, e Envelope) error {
		received = append(received, e)
		return nil
	})

	// Act
	err := bus.Emit(context.Background(), outbox.FabricIssued{
		OrderID: "ord-1", TotalMeters: 120, BatchCount: 2,
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, outbox.TypeFabricIssued, received[0].EventType)
	assert.Equal(t, 1, received[0].Attempt)

	payload, ok := received[0].Payload.(outbox.FabricIssued)
	require.True(t, ok)
	assert.Equal(t, 120.0, payload.TotalMeters)

	event := storedEvent(t, store, received[0].EventID)
	assert.Equal(t, outbox.StatusCompleted, event.Status())
}

func Test_Bus_EmitSurvivesHandlerFailure(t *testing.T) {
	// Arrange
	bus, store := newTestBus(t)

	var eventID kernel.UUID
	bus.Subscribe(outbox.TypeQCCompleted, func(_ context.Context, e Envelope) error {
		eventID = e.EventID
		return errors.New("downstream unavailable")
	})

	// Act: the emit succeeds although handling fails.
	err := bus.Emit(context.Background(), outbox.QCCompleted{OrderID: "ord-1", PassRate: 97})

	// Assert: the event is back in OPEN with its error captured, waiting for
	// the sweep.
	require.NoError(t, err)
	event := storedEvent(t, store, eventID)
	assert.Equal(t, outbox.StatusOpen, event.Status())
	assert.Equal(t, 1, event.RetryCount())
	assert.Contains(t, event.LastError(), "downstream unavailable")
}

func Test_Bus_SweepRedrivesFailedEvent(t *testing.T) {
	// Arrange: the handler fails once, then recovers.
	bus, store := newTestBus(t)

	attempts := 0
	var eventID kernel.UUID
	bus.Subscribe(outbox.TypeQCCompleted, func(_ context.Context, e Envelope) error {
		eventID = e.EventID
		attempts++
		if attempts == 1 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), outbox.QCCompleted{OrderID: "ord-1", PassRate: 97}))
	require.Equal(t, outbox.StatusOpen, storedEvent(t, store, eventID).Status())

	// Act
	processed, err := bus.ProcessOpenBatch(context.Background(), 10)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, outbox.StatusCompleted, storedEvent(t, store, eventID).Status())
}

func Test_Bus_RetryBudgetExhaustion(t *testing.T) {
	// Arrange: the handler never recovers.
	bus, store := newTestBus(t)

	var eventID kernel.UUID
	bus.Subscribe(outbox.TypeQCCompleted, func(_ context.Context, e Envelope) error {
		eventID = e.EventID
		return errors.New("permanently broken")
	})

	// Act: the emit is attempt one; the sweep drives the rest of the budget.
	require.NoError(t, bus.Emit(context.Background(), outbox.QCCompleted{OrderID: "ord-1", PassRate: 50}))
	for i := 0; i < outbox.MaxRetries-1; i++ {
		_, err := bus.ProcessOpenBatch(context.Background(), 10)
		require.NoError(t, err)
	}

	// Assert: the event is parked terminally and the sweep ignores it.
	event := storedEvent(t, store, eventID)
	assert.Equal(t, outbox.StatusFailed, event.Status())
	assert.True(t, event.RetriesExhausted())

	processed, err := bus.ProcessOpenBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func Test_Bus_DerivedEmitIsIdempotent(t *testing.T) {
	// Arrange
	bus, store := newTestBus(t)

	handled := 0
	bus.Subscribe(outbox.TypeCuttingReady, func(context.Context, Envelope) error {
		handled++
		return nil
	})

	parent := kernel.NewUUID()

	// Act: the same derived emit twice, as a replayed handler would.
	require.NoError(t, bus.EmitDerived(context.Background(), parent, "cutting.ready",
		outbox.CuttingReady{OrderID: "ord-1"}))
	require.NoError(t, bus.EmitDerived(context.Background(), parent, "cutting.ready",
		outbox.CuttingReady{OrderID: "ord-1"}))

	// Assert: one row, one delivery.
	assert.Len(t, store.Events(), 1)
	assert.Equal(t, 1, handled)
}

func Test_Bus_Unsubscribe(t *testing.T) {
	// Arrange
	bus, _ := newTestBus(t)

	handled := 0
	unsubscribe := bus.Subscribe(outbox.TypePackingReady, func(context.Context, Envelope) error {
		handled++
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), outbox.PackingReady{OrderID: "ord-1"}))
	require.Equal(t, 1, handled)

	// Act
	unsubscribe()
	require.NoError(t, bus.Emit(context.Background(), outbox.PackingReady{OrderID: "ord-1"}))

	// Assert
	assert.Equal(t, 1, handled)
}

func Test_Bus_RequeueStale(t *testing.T) {
	// Arrange: an event claimed three minutes ago whose dispatcher died.
	bus, store := newTestBus(t)
	ctx := context.Background()

	payload, err := outbox.EncodePayload(outbox.PackingReady{OrderID: "ord-1"})
	require.NoError(t, err)

	stuck, err := outbox.NewEvent(kernel.NewUUID(), outbox.TypePackingReady, "order", "ord-1",
		payload, time.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	require.NoError(t, stuck.MarkProcessing(time.Now().Add(-3*time.Minute)))

	uow := memory.NewFactory(store).Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.EventRepository().Add(ctx, stuck))
	require.NoError(t, uow.Commit(ctx))

	// Act
	requeued, err := bus.RequeueStale(ctx, 2*time.Minute)

	// Assert: back to OPEN without consuming retry budget.
	require.NoError(t, err)
	assert.Equal(t, 1, requeued)

	event := storedEvent(t, store, stuck.ID())
	assert.Equal(t, outbox.StatusOpen, event.Status())
	assert.Zero(t, event.RetryCount())
}

func Test_Bus_FreshClaimIsNotRequeued(t *testing.T) {
	// Arrange: a claim only seconds old is presumed alive.
	bus, store := newTestBus(t)
	ctx := context.Background()

	payload, err := outbox.EncodePayload(outbox.PackingReady{OrderID: "ord-1"})
	require.NoError(t, err)

	claimed, err := outbox.NewEvent(kernel.NewUUID(), outbox.TypePackingReady, "order", "ord-1",
		payload, time.Now())
	require.NoError(t, err)
	require.NoError(t, claimed.MarkProcessing(time.Now()))

	uow := memory.NewFactory(store).Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.EventRepository().Add(ctx, claimed))
	require.NoError(t, uow.Commit(ctx))

	// Act
	requeued, err := bus.RequeueStale(ctx, 2*time.Minute)

	// Assert
	require.NoError(t, err)
	assert.Zero(t, requeued)
	assert.Equal(t, outbox.StatusProcessing, storedEvent(t, store, claimed.ID()).Status())
}
