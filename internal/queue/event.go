// Package queue defines message payloads exchanged over the message broker.
package queue

// AuditEvent is emitted after every committed mutation.  It carries
// who did what to which entity, with enough metadata for downstream
// audit storage and reporting to work without querying the primary
// database.  Persistence and retention of audit records live outside
// this service; the engine only emits.
type AuditEvent struct {
    EventID     string                 `json:"event_id"`
    TenantID    uint64                 `json:"tenant_id"`
    ActorUserID uint64                 `json:"actor_user_id"`
    ActorRole   string                 `json:"actor_role"`
    Action      string                 `json:"action"`
    EntityType  string                 `json:"entity_type"`
    EntityID    uint64                 `json:"entity_id"`
    Metadata    map[string]interface{} `json:"metadata,omitempty"`
    OccurredAt  string                 `json:"occurred_at"`
}

// Audit actions recorded by the engine.
const (
    ActionOrderCreated     = "ORDER_CREATED"
    ActionItemsAdded       = "ORDER_ITEMS_ADDED"
    ActionItemStatusSet    = "ORDER_ITEM_STATUS_SET"
    ActionItemServed       = "ORDER_ITEM_SERVED"
    ActionStationReady     = "ORDER_STATION_READY"
    ActionDiscountSet      = "ORDER_DISCOUNT_SET"
    ActionComplimentarySet = "ORDER_COMPLIMENTARY_SET"
    ActionPaymentAdded     = "ORDER_PAYMENT_ADDED"
    ActionBillRequested    = "ORDER_BILL_REQUESTED"
    ActionPaymentConfirmed = "ORDER_PAYMENT_CONFIRMED"
    ActionOrderClosed      = "ORDER_CLOSED"
    ActionTableMoved       = "ORDER_TABLE_MOVED"
    ActionTableMerged      = "ORDER_TABLE_MERGED"
    ActionTableUnmerged    = "ORDER_TABLE_UNMERGED"
    ActionTableCreated     = "TABLE_CREATED"
    ActionTableUpdated     = "TABLE_UPDATED"
)

// Entity types referenced by audit events.
const (
    EntityOrder = "ORDER"
    EntityTable = "TABLE"
)
