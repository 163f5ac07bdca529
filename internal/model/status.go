package model

// Status vocabularies shared by tables, orders, items and payments.
// They mirror the ENUM columns in the corresponding MySQL tables, so
// any change here must be matched by a schema migration.

// Table statuses.  FREE and OCCUPIED are reconciled by the engine from
// order references; CLOSED is a manually-set terminal state (an admin
// taking the table out of service) that reconciliation never touches.
const (
    TableFree     = "FREE"
    TableOccupied = "OCCUPIED"
    TableClosed   = "CLOSED"
)

// Order statuses.  READY and SERVED are derived from the item set and
// only ever advance; CLOSED is reached exclusively through the close
// operation once billing is settled.
const (
    OrderNew    = "NEW"
    OrderReady  = "READY"
    OrderServed = "SERVED"
    OrderClosed = "CLOSED"
)

// Item statuses.  Transitions are deliberately loose: an authorized
// actor may set any status directly (see handler.SetItemStatus).
// ItemClosed exists in the DB enum but no operation produces it; it is
// kept so existing rows scan cleanly.
const (
    ItemNew           = "NEW"
    ItemInPreparation = "IN_PREPARATION"
    ItemReady         = "READY"
    ItemServed        = "SERVED"
    ItemCanceled      = "CANCELED"
    ItemClosed        = "CLOSED"
)

// Payment statuses derived by billing.PaymentState.
const (
    PaymentUnpaid        = "UNPAID"
    PaymentPartiallyPaid = "PARTIALLY_PAID"
    PaymentPaid          = "PAID"
)

// Billing workflow statuses.
const (
    BillingOpen      = "OPEN"
    BillingRequested = "BILL_REQUESTED"
    BillingPaid      = "PAID"
)

// Payment methods accepted at the till.
const (
    MethodCash     = "CASH"
    MethodCard     = "CARD"
    MethodMealCard = "MEAL_CARD"
)

// Discount types.
const (
    DiscountPercent = "PERCENT"
    DiscountAmount  = "AMOUNT"
)

// ValidItemStatus reports whether s is a settable item status.  CLOSED
// is excluded: the enum value exists but nothing may transition into it.
func ValidItemStatus(s string) bool {
    switch s {
    case ItemNew, ItemInPreparation, ItemReady, ItemServed, ItemCanceled:
        return true
    }
    return false
}

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
    switch m {
    case MethodCash, MethodCard, MethodMealCard:
        return true
    }
    return false
}

// ValidDiscountType reports whether t is a known discount type.
func ValidDiscountType(t string) bool {
    return t == DiscountPercent || t == DiscountAmount
}
