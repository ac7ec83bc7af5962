// Package memory provides an in-memory implementation of the persistence
// ports. It backs application-layer tests and local experimentation; the
// production wiring uses the postgres adapter.
//
// The store mimics the postgres adapter's semantics where they matter:
// optimistic version checks on orders, insert-if-absent on events, upsert
// on insights. Transactions are simulated - Begin/Commit/Rollback track
// state but writes apply immediately, which is sufficient for single-flow
// tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"production/internal/core/domain/model/audit"
	"production/internal/core/domain/model/insight"
	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/order"
	"production/internal/core/domain/model/outbox"
	"production/internal/core/domain/model/routing"
	"production/internal/core/ports"
	"production/internal/pkg/errs"
)

// ErrNoActiveTransaction is returned when Commit or Rollback is called
// without a Begin.
var ErrNoActiveTransaction = errors.New("no active transaction")

// Store is the shared backing state for every unit of work created by the
// same factory. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	orders   map[string]*order.Order
	steps    map[string]*routing.Step
	events   map[string]*outbox.Event
	entries  []*audit.Entry
	insights map[string]*insight.Insight
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		orders:   map[string]*order.Order{},
		steps:    map[string]*routing.Step{},
		events:   map[string]*outbox.Event{},
		insights: map[string]*insight.Insight{},
	}
}

// Factory creates units of work sharing one store.
type Factory struct {
	store *Store
}

// NewFactory creates a unit-of-work factory over the store.
func NewFactory(store *Store) *Factory {
	return &Factory{store: store}
}

// Create returns a new unit of work bound to the shared store.
func (f *Factory) Create() ports.UnitOfWork {
	return &unitOfWork{store: f.store}
}

type unitOfWork struct {
	store  *Store
	active bool
}

func (u *unitOfWork) Begin(context.Context) error {
	u.active = true
	return nil
}

func (u *unitOfWork) Commit(context.Context) error {
	if !u.active {
		return ErrNoActiveTransaction
	}
	u.active = false
	return nil
}

func (u *unitOfWork) Rollback(context.Context) error {
	if !u.active {
		return ErrNoActiveTransaction
	}
	u.active = false
	return nil
}

func (u *unitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{store: u.store}
}

func (u *unitOfWork) RoutingStepRepository() ports.RoutingStepRepository {
	return &routingStepRepository{store: u.store}
}

func (u *unitOfWork) EventRepository() ports.EventRepository {
	return &eventRepository{store: u.store}
}

func (u *unitOfWork) AuditRepository() ports.AuditRepository {
	return &auditRepository{store: u.store}
}

func (u *unitOfWork) InsightRepository() ports.InsightRepository {
	return &insightRepository{store: u.store}
}

type orderRepository struct {
	store *Store
}

func (r *orderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := aggregate.ID().String()
	if _, exists := r.store.orders[key]; exists {
		return errs.NewValueIsInvalidError("order already exists")
	}

	copied, err := snapshotOrder(aggregate, aggregate.Version())
	if err != nil {
		return err
	}
	r.store.orders[key] = copied
	return nil
}

func (r *orderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := aggregate.ID().String()
	stored, exists := r.store.orders[key]
	if !exists {
		return errs.NewObjectNotFoundError("order", key)
	}
	if stored.Version() != aggregate.Version() {
		return errs.NewConcurrentModificationError("order", key)
	}

	copied, err := snapshotOrder(aggregate, aggregate.Version()+1)
	if err != nil {
		return err
	}
	r.store.orders[key] = copied
	return nil
}

func (r *orderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, exists := r.store.orders[id.String()]
	if !exists {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return snapshotOrder(stored, stored.Version())
}

func snapshotOrder(src *order.Order, version int) (*order.Order, error) {
	return order.RestoreOrder(
		src.ID(),
		src.Client(),
		src.Method(),
		src.Quantity(),
		src.TargetDate(),
		src.Status(),
		src.Progress(),
		version,
	)
}

type routingStepRepository struct {
	store *Store
}

func (r *routingStepRepository) AddBatch(_ context.Context, steps []*routing.Step) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, step := range steps {
		if err := step.Validate(); err != nil {
			return err
		}

		copied, err := snapshotStep(step)
		if err != nil {
			return err
		}
		r.store.steps[step.ID().String()] = copied
	}
	return nil
}

func (r *routingStepRepository) DeleteByOrder(_ context.Context, orderID kernel.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for key, step := range r.store.steps {
		if step.OrderID().IsEqual(orderID) {
			delete(r.store.steps, key)
		}
	}
	return nil
}

func (r *routingStepRepository) Update(_ context.Context, step *routing.Step) error {
	if err := step.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := step.ID().String()
	if _, exists := r.store.steps[key]; !exists {
		return errs.NewObjectNotFoundError("routing step", key)
	}

	copied, err := snapshotStep(step)
	if err != nil {
		return err
	}
	r.store.steps[key] = copied
	return nil
}

func (r *routingStepRepository) GetByOrder(_ context.Context, orderID kernel.UUID) ([]*routing.Step, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var steps []*routing.Step
	for _, step := range r.store.steps {
		if !step.OrderID().IsEqual(orderID) {
			continue
		}
		copied, err := snapshotStep(step)
		if err != nil {
			return nil, err
		}
		steps = append(steps, copied)
	}

	sort.Slice(steps, func(i, j int) bool {
		return steps[i].Sequence() < steps[j].Sequence()
	})
	return steps, nil
}

func snapshotStep(src *routing.Step) (*routing.Step, error) {
	return routing.RestoreStep(
		src.ID(),
		src.OrderID(),
		src.Name(),
		src.Workcenter(),
		src.Sequence(),
		src.DependsOn(),
		src.JoinType(),
		src.Status(),
		src.PlannedStart(),
		src.PlannedEnd(),
	)
}

type eventRepository struct {
	store *Store
}

func (r *eventRepository) Add(_ context.Context, event *outbox.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := event.ID().String()
	if _, exists := r.store.events[key]; exists {
		// Insert-if-absent: re-adding a derived event is a no-op.
		return nil
	}

	copied, err := snapshotEvent(event)
	if err != nil {
		return err
	}
	r.store.events[key] = copied
	return nil
}

func (r *eventRepository) Update(_ context.Context, event *outbox.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := event.ID().String()
	if _, exists := r.store.events[key]; !exists {
		return errs.NewObjectNotFoundError("event", key)
	}

	copied, err := snapshotEvent(event)
	if err != nil {
		return err
	}
	r.store.events[key] = copied
	return nil
}

func (r *eventRepository) Get(_ context.Context, id kernel.UUID) (*outbox.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, exists := r.store.events[id.String()]
	if !exists {
		return nil, errs.NewObjectNotFoundError("event", id.String())
	}
	return snapshotEvent(stored)
}

func (r *eventRepository) GetOpenBatch(_ context.Context, limit int) ([]*outbox.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var open []*outbox.Event
	for _, event := range r.store.events {
		if event.Status() != outbox.StatusOpen {
			continue
		}
		copied, err := snapshotEvent(event)
		if err != nil {
			return nil, err
		}
		open = append(open, copied)
	}

	sort.Slice(open, func(i, j int) bool {
		return open[i].CreatedAt().Before(open[j].CreatedAt())
	})
	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

func (r *eventRepository) GetStuckProcessing(_ context.Context, olderThan time.Time) ([]*outbox.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var stuck []*outbox.Event
	for _, event := range r.store.events {
		if event.Status() != outbox.StatusProcessing || !event.ProcessedAt().Before(olderThan) {
			continue
		}
		copied, err := snapshotEvent(event)
		if err != nil {
			return nil, err
		}
		stuck = append(stuck, copied)
	}

	sort.Slice(stuck, func(i, j int) bool {
		return stuck[i].ProcessedAt().Before(stuck[j].ProcessedAt())
	})
	return stuck, nil
}

func snapshotEvent(src *outbox.Event) (*outbox.Event, error) {
	return outbox.RestoreEvent(
		src.ID(),
		src.EventType(),
		src.EntityType(),
		src.EntityID(),
		src.Payload(),
		src.Status(),
		src.RetryCount(),
		src.CreatedAt(),
		src.ProcessedAt(),
		src.LastError(),
	)
}

type auditRepository struct {
	store *Store
}

func (r *auditRepository) Add(_ context.Context, entry *audit.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.entries = append(r.store.entries, entry)
	return nil
}

func (r *auditRepository) GetByEntity(_ context.Context, entityType, entityID string) ([]*audit.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var trail []*audit.Entry
	for _, entry := range r.store.entries {
		if entry.EntityType() == entityType && entry.EntityID() == entityID {
			trail = append(trail, entry)
		}
	}

	sort.SliceStable(trail, func(i, j int) bool {
		return trail[i].CreatedAt().After(trail[j].CreatedAt())
	})
	return trail, nil
}

type insightRepository struct {
	store *Store
}

func (r *insightRepository) Upsert(_ context.Context, aggregate *insight.Insight) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.insights[aggregate.ID().String()] = aggregate
	return nil
}

// Orders returns the stored orders keyed by ID. Test inspection helper.
func (s *Store) Orders() map[string]*order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*order.Order, len(s.orders))
	for k, v := range s.orders {
		out[k] = v
	}
	return out
}

// Events returns the stored events keyed by ID. Test inspection helper.
func (s *Store) Events() map[string]*outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*outbox.Event, len(s.events))
	for k, v := range s.events {
		out[k] = v
	}
	return out
}

// Insights returns the stored insights keyed by ID. Test inspection helper.
func (s *Store) Insights() map[string]*insight.Insight {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*insight.Insight, len(s.insights))
	for k, v := range s.insights {
		out[k] = v
	}
	return out
}
