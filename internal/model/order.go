package model

import "time"

// Order is an open tab against a table.  At most one non-CLOSED order
// may reference a given table, either as its primary table or through
// LinkedTableIDs; every table-touching operation re-checks that
// invariant before claiming.  PaymentStatus and Status are derived
// fields recomputed inside the same transaction as any mutation that
// changes their inputs, never settable independently.
//
// Fields:
//  ID                 – primary key identifier.
//  TenantID           – owning tenant.
//  TableID            – primary table the order occupies.
//  LinkedTableIDs     – secondary tables merged into this order.
//  WaiterID           – user who opened the order.
//  CustomerID         – optional customer reference.
//  Status             – NEW, READY, SERVED or CLOSED (derived, monotonic).
//  Discount           – optional active discount (last write wins).
//  PaymentStatus      – UNPAID, PARTIALLY_PAID or PAID (derived).
//  BillingStatus      – OPEN, BILL_REQUESTED or PAID.
//  BillRequestedAt/By – stamp of the bill request.
//  PaymentConfirmedAt/By – stamp of payment confirmation.
//  OrderClosedAt/By   – stamp of the close.
//  Note               – optional free-form note.
type Order struct {
    ID                 uint64     `json:"id"`
    TenantID           uint64     `json:"tenant_id"`
    TableID            uint64     `json:"table_id"`
    LinkedTableIDs     []uint64   `json:"linked_table_ids"`
    WaiterID           uint64     `json:"waiter_id"`
    CustomerID         *uint64    `json:"customer_id,omitempty"`
    Status             string     `json:"status"`
    Discount           *Discount  `json:"discount,omitempty"`
    PaymentStatus      string     `json:"payment_status"`
    BillingStatus      string     `json:"billing_status"`
    BillRequestedAt    *time.Time `json:"bill_requested_at,omitempty"`
    BillRequestedBy    *uint64    `json:"bill_requested_by,omitempty"`
    PaymentConfirmedAt *time.Time `json:"payment_confirmed_at,omitempty"`
    PaymentConfirmedBy *uint64    `json:"payment_confirmed_by,omitempty"`
    OrderClosedAt      *time.Time `json:"order_closed_at,omitempty"`
    OrderClosedBy      *uint64    `json:"order_closed_by,omitempty"`
    Note               *string    `json:"note,omitempty"`
    CreatedAt          time.Time  `json:"created_at"`
    UpdatedAt          time.Time  `json:"updated_at"`
}

// Discount is the value object attached to an order.  An order carries
// at most one discount; updates replace it wholesale.
//
// Fields:
//  Type      – PERCENT or AMOUNT.
//  Value     – non-negative percentage or absolute amount.
//  UpdatedAt – when the discount was last written.
//  UpdatedBy – user who wrote it.
type Discount struct {
    Type      string    `json:"type"`
    Value     float64   `json:"value"`
    UpdatedAt time.Time `json:"updated_at"`
    UpdatedBy uint64    `json:"updated_by"`
}

// Active reports whether the order still occupies its tables.
func (o *Order) Active() bool { return o.Status != OrderClosed }

// HasLinkedTable reports whether tableID is merged into the order.
func (o *Order) HasLinkedTable(tableID uint64) bool {
    for _, id := range o.LinkedTableIDs {
        if id == tableID {
            return true
        }
    }
    return false
}

// References reports whether the order occupies tableID as primary or
// linked table.
func (o *Order) References(tableID uint64) bool {
    return o.TableID == tableID || o.HasLinkedTable(tableID)
}

// AddLinkedTable adds tableID to the linked set.  The set never
// contains the order's own primary table and adding an existing member
// is a no-op, so merges are idempotent.
func (o *Order) AddLinkedTable(tableID uint64) bool {
    if tableID == o.TableID || o.HasLinkedTable(tableID) {
        return false
    }
    o.LinkedTableIDs = append(o.LinkedTableIDs, tableID)
    return true
}

// RemoveLinkedTable removes tableID from the linked set.  Removing an
// absent member is a no-op.
func (o *Order) RemoveLinkedTable(tableID uint64) bool {
    for i, id := range o.LinkedTableIDs {
        if id == tableID {
            o.LinkedTableIDs = append(o.LinkedTableIDs[:i], o.LinkedTableIDs[i+1:]...)
            return true
        }
    }
    return false
}
