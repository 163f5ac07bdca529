// Package billing holds the pure money rules of the floor engine:
// subtotal, discount application, payment-sufficiency classification
// and derived order status.  Nothing here touches the database; every
// function is deterministic over its arguments so callers can (and
// must) recompute derived values inside the same transaction that
// changed their inputs rather than trusting stored fields.
package billing

import (
    "math"

    "github.com/iliyamo/restaurant-floor/internal/model"
)

// epsilon guards float comparisons against accumulated noise when
// classifying payment sufficiency.  Amounts within epsilon of the due
// total count as fully paid.
const epsilon = 1e-9

// Subtotal sums unit price times quantity over lines that are neither
// CANCELED nor complimentary.
func Subtotal(items []model.OrderItem) float64 {
    total := 0.0
    for i := range items {
        if items[i].Billable() {
            total += items[i].LineTotal()
        }
    }
    return total
}

// DiscountAmount returns the monetary value a discount removes from
// the given subtotal.  AMOUNT discounts are clamped to [0, subtotal];
// PERCENT discounts apply value% of the subtotal, clamped the same
// way.  A nil discount or unknown type removes nothing.
func DiscountAmount(subtotal float64, d *model.Discount) float64 {
    if d == nil {
        return 0
    }
    var amt float64
    switch d.Type {
    case model.DiscountAmount:
        amt = d.Value
    case model.DiscountPercent:
        amt = subtotal * d.Value / 100
    default:
        return 0
    }
    if amt < 0 {
        return 0
    }
    return math.Min(amt, subtotal)
}

// PaymentState classifies how far payments cover the amount due.
// due = max(0, subtotal - discount).  A zero or negative due is PAID
// outright; otherwise zero payments are UNPAID, payments short of due
// (beyond epsilon) are PARTIALLY_PAID, and anything at or above due is
// PAID.  Overpayment is permitted and simply resolves to PAID.
func PaymentState(subtotal float64, d *model.Discount, paymentsTotal float64) string {
    due := subtotal - DiscountAmount(subtotal, d)
    if due <= 0 {
        return model.PaymentPaid
    }
    if paymentsTotal <= 0 {
        return model.PaymentUnpaid
    }
    if paymentsTotal+epsilon < due {
        return model.PaymentPartiallyPaid
    }
    return model.PaymentPaid
}

// DeriveOrderStatus recomputes the order-level status from the item
// set.  A non-empty set that is entirely SERVED/CANCELED derives
// SERVED; entirely READY/SERVED/CANCELED derives READY; anything else
// keeps the current status.  There is deliberately no order-level
// IN_PREPARATION derivation even though items carry that status.
// CLOSED is terminal: derivation never moves a closed order back.
func DeriveOrderStatus(current string, items []model.OrderItem) string {
    if current == model.OrderClosed {
        return model.OrderClosed
    }
    if len(items) == 0 {
        return current
    }
    allServed := true
    allReady := true
    for i := range items {
        switch items[i].Status {
        case model.ItemServed, model.ItemCanceled:
            // counts toward both
        case model.ItemReady:
            allServed = false
        default:
            allServed = false
            allReady = false
        }
    }
    if allServed {
        return model.OrderServed
    }
    if allReady {
        return model.OrderReady
    }
    return current
}

// PaymentsTotal sums payment line amounts.
func PaymentsTotal(payments []model.PaymentLine) float64 {
    total := 0.0
    for i := range payments {
        total += payments[i].Amount
    }
    return total
}
