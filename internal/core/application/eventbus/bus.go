package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/outbox"
	"production/internal/core/ports"
)

// Envelope is what a handler receives: the persisted event's identity plus
// its decoded payload. The EventID doubles as the dedup key for idempotent
// side effects.
type Envelope struct {
	EventID    kernel.UUID
	EventType  string
	EntityType string
	EntityID   string
	Payload    outbox.Payload
	Attempt    int
}

// Handler processes one delivered event. Handlers run sequentially in
// subscription order; the first error fails the whole dispatch attempt and
// the event returns to OPEN for the sweep.
type Handler func(ctx context.Context, e Envelope) error

// Bus is the durable event bus. It persists every emitted event, dispatches
// it to subscribed handlers immediately after the write commits, and offers
// the batch operations the background sweep and reaper are built on.
type Bus struct {
	uowFactory ports.UnitOfWorkFactory
	logger     *slog.Logger
	metrics    *Metrics
	now        func() time.Time

	mu        sync.RWMutex
	nextToken int
	handlers  map[string]map[int]Handler
	order     map[string][]int
}

// NewBus creates a bus over the given unit-of-work factory.
func NewBus(uowFactory ports.UnitOfWorkFactory, logger *slog.Logger, metrics *Metrics) *Bus {
	return &Bus{
		uowFactory: uowFactory,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		handlers:   map[string]map[int]Handler{},
		order:      map[string][]int{},
	}
}

// WithClock replaces the bus clock. Intended for tests.
func (b *Bus) WithClock(now func() time.Time) *Bus {
	b.now = now
	return b
}

// Subscribe registers a handler for an event type and returns its
// unsubscribe function. Handlers for the same type run in subscription
// order.
func (b *Bus) Subscribe(eventType string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	token := b.nextToken
	b.nextToken++

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = map[int]Handler{}
	}
	b.handlers[eventType][token] = h
	b.order[eventType] = append(b.order[eventType], token)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[eventType], token)
	}
}

// Emit persists the payload as a new OPEN event in its own transaction and
// then dispatches it inline. Once the write commits the event is durable:
// a handler failure is retried by the sweep and never surfaces here.
func (b *Bus) Emit(ctx context.Context, payload outbox.Payload) error {
	return b.EmitWithID(ctx, kernel.NewUUID(), payload)
}

// EmitDerived persists and dispatches an event whose ID is derived
// deterministically from a parent identifier. Re-emitting with the same
// parent and discriminator is a no-op thanks to the repository's
// insert-if-absent write: the building block for idempotent handler
// choreography.
func (b *Bus) EmitDerived(ctx context.Context, parent kernel.UUID, discriminator string, payload outbox.Payload) error {
	return b.EmitWithID(ctx, kernel.DerivedUUID(parent, discriminator), payload)
}

// EmitWithID persists and dispatches an event under an explicit identifier.
func (b *Bus) EmitWithID(ctx context.Context, id kernel.UUID, payload outbox.Payload) error {
	err := b.inTx(ctx, func(uow ports.UnitOfWork) error {
		_, err := b.Append(ctx, uow.EventRepository(), id, payload)
		return err
	})
	if err != nil {
		return err
	}

	b.Dispatch(ctx, id)
	return nil
}

// Append persists the payload as a new OPEN event through the given
// repository without dispatching. Callers that mutate state and emit in one
// transaction use Append inside their unit of work and Dispatch after
// commit.
func (b *Bus) Append(ctx context.Context, repo ports.EventRepository, id kernel.UUID, payload outbox.Payload) (*outbox.Event, error) {
	data, err := outbox.EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	entityType, entityID := payload.EntityRef()
	event, err := outbox.NewEvent(id, payload.EventType(), entityType, entityID, data, b.now())
	if err != nil {
		return nil, err
	}

	if err = repo.Add(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Dispatch claims the event and runs its handlers. The claim, the handler
// run and the outcome write are separate transactions: a crash between them
// leaves a PROCESSING row for the reaper, never a lost event.
//
// Dispatch is safe to call for an event someone else already handled; a
// non-OPEN row is skipped silently.
func (b *Bus) Dispatch(ctx context.Context, id kernel.UUID) {
	event, claimed := b.claim(ctx, id)
	if !claimed {
		return
	}

	handleErr := b.handle(ctx, event)
	b.finalize(ctx, event, handleErr)
}

// ProcessOpenBatch dispatches up to limit OPEN events, oldest first. The
// sweep job's engine; returns how many events were picked up.
func (b *Bus) ProcessOpenBatch(ctx context.Context, limit int) (int, error) {
	var ids []kernel.UUID

	err := b.inTx(ctx, func(uow ports.UnitOfWork) error {
		events, err := uow.EventRepository().GetOpenBatch(ctx, limit)
		if err != nil {
			return err
		}
		for _, e := range events {
			ids = append(ids, e.ID())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		b.Dispatch(ctx, id)
	}
	return len(ids), nil
}

// RequeueStale returns PROCESSING events whose claim is older than the
// threshold to OPEN. The attempt never reported an outcome, so it does not
// consume retry budget. The reaper job's engine.
func (b *Bus) RequeueStale(ctx context.Context, olderThan time.Duration) (int, error) {
	requeued := 0

	err := b.inTx(ctx, func(uow ports.UnitOfWork) error {
		repo := uow.EventRepository()
		stale, err := repo.GetStuckProcessing(ctx, b.now().Add(-olderThan))
		if err != nil {
			return err
		}

		for _, event := range stale {
			if err = event.Requeue(); err != nil {
				return err
			}
			if err = repo.Update(ctx, event); err != nil {
				return err
			}
			requeued++

			b.logger.Warn("requeued stale event",
				slog.String("event_id", event.ID().String()),
				slog.String("event_type", event.EventType()))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	b.metrics.requeued.Add(float64(requeued))
	return requeued, nil
}

// claim moves the event from OPEN to PROCESSING in its own transaction.
func (b *Bus) claim(ctx context.Context, id kernel.UUID) (*outbox.Event, bool) {
	var event *outbox.Event

	err := b.inTx(ctx, func(uow ports.UnitOfWork) error {
		repo := uow.EventRepository()

		found, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if found.Status() != outbox.StatusOpen {
			return nil
		}

		if err = found.MarkProcessing(b.now()); err != nil {
			return err
		}
		if err = repo.Update(ctx, found); err != nil {
			return err
		}

		event = found
		return nil
	})
	if err != nil {
		b.logger.Error("failed to claim event",
			slog.String("event_id", id.String()),
			slog.Any("error", err))
		return nil, false
	}

	return event, event != nil
}

// handle decodes the payload and runs the subscribed handlers sequentially.
func (b *Bus) handle(ctx context.Context, event *outbox.Event) error {
	payload, err := outbox.DecodePayload(event.EventType(), event.Payload())
	if err != nil {
		return err
	}

	envelope := Envelope{
		EventID:    event.ID(),
		EventType:  event.EventType(),
		EntityType: event.EntityType(),
		EntityID:   event.EntityID(),
		Payload:    payload,
		Attempt:    event.RetryCount() + 1,
	}

	for _, h := range b.snapshot(event.EventType()) {
		if err = h(ctx, envelope); err != nil {
			return err
		}
	}
	return nil
}

// finalize writes the dispatch outcome in its own transaction.
func (b *Bus) finalize(ctx context.Context, event *outbox.Event, handleErr error) {
	err := b.inTx(ctx, func(uow ports.UnitOfWork) error {
		if handleErr == nil {
			if err := event.MarkCompleted(b.now()); err != nil {
				return err
			}
		} else {
			if err := event.MarkFailed(b.now(), handleErr); err != nil {
				return err
			}
		}
		return uow.EventRepository().Update(ctx, event)
	})
	if err != nil {
		// The row stays PROCESSING; the reaper will requeue it.
		b.logger.Error("failed to record dispatch outcome",
			slog.String("event_id", event.ID().String()),
			slog.Any("error", err))
		return
	}

	if handleErr == nil {
		b.metrics.dispatched.WithLabelValues("completed").Inc()
		return
	}

	b.metrics.dispatched.WithLabelValues("failed").Inc()
	b.logger.Warn("event handling failed",
		slog.String("event_id", event.ID().String()),
		slog.String("event_type", event.EventType()),
		slog.Int("retry_count", event.RetryCount()),
		slog.Any("error", handleErr))

	if event.RetriesExhausted() {
		b.metrics.exhausted.Inc()
		b.logger.Error("event retries exhausted; manual intervention required",
			slog.String("event_id", event.ID().String()),
			slog.String("event_type", event.EventType()),
			slog.String("last_error", event.LastError()))
	}
}

// snapshot copies the handler list for a type so dispatch never runs under
// the subscription lock.
func (b *Bus) snapshot(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Handler
	for _, token := range b.order[eventType] {
		if h, ok := b.handlers[eventType][token]; ok {
			out = append(out, h)
		}
	}
	return out
}

func (b *Bus) inTx(ctx context.Context, fn func(uow ports.UnitOfWork) error) error {
	uow := b.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	if err := fn(uow); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}
	return uow.Commit(ctx)
}
