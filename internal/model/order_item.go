package model

import "time"

// OrderItem is a single line on an order.  UnitPrice is a snapshot of
// the menu price at the moment the line was added; later catalog
// changes never affect existing lines.  CANCELED and complimentary
// lines are excluded from the subtotal.
//
// Fields:
//  ID                – primary key identifier.
//  OrderID           – owning order.
//  MenuItemID        – catalog item this line was created from.
//  VariantID         – optional catalog variant.
//  ModifierOptionIDs – selected modifier options, stored as JSON.
//  UnitPrice         – price captured at creation, immutable.
//  Quantity          – units ordered.
//  Note              – preparation note for the kitchen.
//  Status            – NEW, IN_PREPARATION, READY, SERVED or CANCELED.
//  IsComplimentary   – when true the line is waived from billing.
type OrderItem struct {
    ID                uint64    `json:"id"`
    OrderID           uint64    `json:"order_id"`
    MenuItemID        uint64    `json:"menu_item_id"`
    VariantID         *uint64   `json:"variant_id,omitempty"`
    ModifierOptionIDs []uint64  `json:"modifier_option_ids"`
    UnitPrice         float64   `json:"unit_price"`
    Quantity          uint32    `json:"quantity"`
    Note              string    `json:"note"`
    Status            string    `json:"status"`
    IsComplimentary   bool      `json:"is_complimentary"`
    CreatedAt         time.Time `json:"created_at"`
    UpdatedAt         time.Time `json:"updated_at"`
}

// Billable reports whether the line contributes to the subtotal.
func (i *OrderItem) Billable() bool {
    return i.Status != ItemCanceled && !i.IsComplimentary
}

// LineTotal returns unit price times quantity regardless of status.
func (i *OrderItem) LineTotal() float64 {
    return i.UnitPrice * float64(i.Quantity)
}
