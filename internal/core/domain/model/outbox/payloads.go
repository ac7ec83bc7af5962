package outbox

import (
	"encoding/json"
	"fmt"

	"production/internal/pkg/errs"
)

// Event type tags. The set is closed: every tag maps to exactly one payload
// struct below, and DecodePayload switches over all of them.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypeDesignUploaded     = "design.uploaded"
	TypeDesignApproved     = "design.approved"
	TypeFabricIssued       = "fabric.issued"
	TypeCuttingReady       = "cutting.ready_for_lay_planning"
	TypeLayPlanned         = "lay.planned"
	TypeBundleUpdated      = "bundle.updated"
	TypeQCCompleted        = "qc.completed"
	TypePackingReady       = "packing.ready_for_packing"
	TypeReworkRequired     = "rework.required"
	TypeRoutingChanged     = "routing.changed"
	TypeNotificationQueued = "notification.queued"
)

// Payload is the closed union of event payloads. Each payload knows its own
// event type tag and the entity it references, so emitters cannot mismatch a
// tag and a body.
type Payload interface {
	// EventType returns the tag this payload is persisted under.
	EventType() string

	// EntityRef returns the referenced entity's kind and identifier.
	EntityRef() (entityType, entityID string)
}

// OrderCreated announces a newly registered order.
type OrderCreated struct {
	OrderID  string `json:"order_id"`
	Method   string `json:"method"`
	Quantity int    `json:"quantity"`
}

func (p OrderCreated) EventType() string                 { return TypeOrderCreated }
func (p OrderCreated) EntityRef() (string, string)       { return "order", p.OrderID }

// OrderStatusChanged announces a committed state machine transition.
type OrderStatusChanged struct {
	OrderID    string `json:"order_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorID    string `json:"actor_id"`
}

func (p OrderStatusChanged) EventType() string           { return TypeOrderStatusChanged }
func (p OrderStatusChanged) EntityRef() (string, string) { return "order", p.OrderID }

// DesignUploaded announces a new design asset on an order.
type DesignUploaded struct {
	OrderID  string `json:"order_id"`
	AssetID  string `json:"asset_id"`
	FileName string `json:"file_name"`
}

func (p DesignUploaded) EventType() string               { return TypeDesignUploaded }
func (p DesignUploaded) EntityRef() (string, string)     { return "order", p.OrderID }

// DesignApproved announces design sign-off; planning may begin.
type DesignApproved struct {
	OrderID    string `json:"order_id"`
	ApprovedBy string `json:"approved_by"`
}

func (p DesignApproved) EventType() string               { return TypeDesignApproved }
func (p DesignApproved) EntityRef() (string, string)     { return "order", p.OrderID }

// FabricIssued announces fabric released from the store to cutting.
type FabricIssued struct {
	OrderID     string  `json:"order_id"`
	TotalMeters float64 `json:"total_meters"`
	BatchCount  int     `json:"batch_count"`
}

func (p FabricIssued) EventType() string                 { return TypeFabricIssued }
func (p FabricIssued) EntityRef() (string, string)       { return "order", p.OrderID }

// CuttingReady announces that cutting may plan its lay.
type CuttingReady struct {
	OrderID string `json:"order_id"`
}

func (p CuttingReady) EventType() string                 { return TypeCuttingReady }
func (p CuttingReady) EntityRef() (string, string)       { return "order", p.OrderID }

// LayPlanned announces a completed lay plan for cutting.
type LayPlanned struct {
	OrderID    string `json:"order_id"`
	LayCount   int    `json:"lay_count"`
	PlannedBy  string `json:"planned_by"`
}

func (p LayPlanned) EventType() string                   { return TypeLayPlanned }
func (p LayPlanned) EntityRef() (string, string)         { return "order", p.OrderID }

// BundleUpdated announces progress on a physical bundle of cut pieces.
type BundleUpdated struct {
	OrderID  string `json:"order_id"`
	BundleID string `json:"bundle_id"`
	StepName string `json:"step_name"`
	Status   string `json:"status"`
}

func (p BundleUpdated) EventType() string                { return TypeBundleUpdated }
func (p BundleUpdated) EntityRef() (string, string)      { return "order", p.OrderID }

// QCCompleted announces the outcome of a quality inspection.
type QCCompleted struct {
	OrderID  string  `json:"order_id"`
	PassRate float64 `json:"pass_rate"`
	Checked  int     `json:"checked"`
}

func (p QCCompleted) EventType() string                  { return TypeQCCompleted }
func (p QCCompleted) EntityRef() (string, string)        { return "order", p.OrderID }

// PackingReady announces goods cleared for packing.
type PackingReady struct {
	OrderID string `json:"order_id"`
}

func (p PackingReady) EventType() string                 { return TypePackingReady }
func (p PackingReady) EntityRef() (string, string)       { return "order", p.OrderID }

// ReworkRequired announces a failed inspection needing floor rework.
type ReworkRequired struct {
	OrderID  string  `json:"order_id"`
	PassRate float64 `json:"pass_rate"`
}

func (p ReworkRequired) EventType() string               { return TypeReworkRequired }
func (p ReworkRequired) EntityRef() (string, string)     { return "order", p.OrderID }

// RoutingChanged announces that an order's routing batch was created or
// superseded.
type RoutingChanged struct {
	OrderID     string `json:"order_id"`
	TemplateKey string `json:"template_key"`
	StepCount   int    `json:"step_count"`
}

func (p RoutingChanged) EventType() string               { return TypeRoutingChanged }
func (p RoutingChanged) EntityRef() (string, string)     { return "order", p.OrderID }

// NotificationQueued hands a client-facing message to the notification
// collaborator. Fire-and-forget: the core never waits for delivery.
type NotificationQueued struct {
	OrderID string `json:"order_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (p NotificationQueued) EventType() string             { return TypeNotificationQueued }
func (p NotificationQueued) EntityRef() (string, string)   { return "order", p.OrderID }

// EncodePayload serializes a payload for persistence.
func EncodePayload(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("event payload", err)
	}
	return data, nil
}

// DecodePayload deserializes a persisted payload by its event type tag.
// The switch is exhaustive over the closed union; an unknown tag means the
// row was written by newer code and is a validation error here.
func DecodePayload(eventType string, data []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)

	switch eventType {
	case TypeOrderCreated:
		p, err = decodeAs[OrderCreated](data)
	case TypeOrderStatusChanged:
		p, err = decodeAs[OrderStatusChanged](data)
	case TypeDesignUploaded:
		p, err = decodeAs[DesignUploaded](data)
	case TypeDesignApproved:
		p, err = decodeAs[DesignApproved](data)
	case TypeFabricIssued:
		p, err = decodeAs[FabricIssued](data)
	case TypeCuttingReady:
		p, err = decodeAs[CuttingReady](data)
	case TypeLayPlanned:
		p, err = decodeAs[LayPlanned](data)
	case TypeBundleUpdated:
		p, err = decodeAs[BundleUpdated](data)
	case TypeQCCompleted:
		p, err = decodeAs[QCCompleted](data)
	case TypePackingReady:
		p, err = decodeAs[PackingReady](data)
	case TypeReworkRequired:
		p, err = decodeAs[ReworkRequired](data)
	case TypeRoutingChanged:
		p, err = decodeAs[RoutingChanged](data)
	case TypeNotificationQueued:
		p, err = decodeAs[NotificationQueued](data)
	default:
		return nil, errs.NewValueIsInvalidErrorWithCause("event type",
			fmt.Errorf("%q is not a known event type", eventType))
	}

	if err != nil {
		return nil, err
	}
	return p, nil
}

func decodeAs[T Payload](data []byte) (Payload, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("event payload", err)
	}
	return v, nil
}
