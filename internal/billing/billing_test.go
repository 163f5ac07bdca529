package billing

import (
    "testing"

    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/restaurant-floor/internal/model"
)

func item(price float64, qty uint32, status string, comp bool) model.OrderItem {
    return model.OrderItem{UnitPrice: price, Quantity: qty, Status: status, IsComplimentary: comp}
}

func TestSubtotal(t *testing.T) {
    items := []model.OrderItem{
        item(10, 2, model.ItemNew, false),
        item(4.5, 1, model.ItemReady, false),
        item(99, 3, model.ItemCanceled, false), // canceled, excluded
        item(12, 1, model.ItemServed, true),    // complimentary, excluded
    }
    assert.InDelta(t, 24.5, Subtotal(items), 1e-9)
    assert.Zero(t, Subtotal(nil))
}

func TestDiscountAmount(t *testing.T) {
    tests := []struct {
        name     string
        subtotal float64
        discount *model.Discount
        want     float64
    }{
        {"nilDiscount", 100, nil, 0},
        {"percentHalf", 20, &model.Discount{Type: model.DiscountPercent, Value: 50}, 10},
        {"percentOver100Clamped", 20, &model.Discount{Type: model.DiscountPercent, Value: 150}, 20},
        {"amount", 100, &model.Discount{Type: model.DiscountAmount, Value: 30}, 30},
        {"amountAboveSubtotalClamped", 100, &model.Discount{Type: model.DiscountAmount, Value: 250}, 100},
        {"negativeValueFloored", 100, &model.Discount{Type: model.DiscountAmount, Value: -5}, 0},
        {"unknownType", 100, &model.Discount{Type: "BOGOF", Value: 10}, 0},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            assert.InDelta(t, tt.want, DiscountAmount(tt.subtotal, tt.discount), 1e-9)
        })
    }
}

// Scenario: items [{price:10,qty:2}], discount PERCENT 50, payment 10
// -> subtotal 20, due 10, paid in full.
func TestPaymentStateHalfDiscountPaid(t *testing.T) {
    items := []model.OrderItem{item(10, 2, model.ItemNew, false)}
    d := &model.Discount{Type: model.DiscountPercent, Value: 50}
    sub := Subtotal(items)
    assert.InDelta(t, 20.0, sub, 1e-9)
    assert.InDelta(t, 10.0, DiscountAmount(sub, d), 1e-9)
    assert.Equal(t, model.PaymentPaid, PaymentState(sub, d, 10))
}

// Same order but only 5 paid against a due of 10 -> partial.
func TestPaymentStateHalfDiscountPartial(t *testing.T) {
    items := []model.OrderItem{item(10, 2, model.ItemNew, false)}
    d := &model.Discount{Type: model.DiscountPercent, Value: 50}
    assert.Equal(t, model.PaymentPartiallyPaid, PaymentState(Subtotal(items), d, 5))
}

func TestPaymentStateEdges(t *testing.T) {
    assert.Equal(t, model.PaymentPaid, PaymentState(0, nil, 0), "nothing due is paid")
    assert.Equal(t, model.PaymentPaid, PaymentState(10, &model.Discount{Type: model.DiscountAmount, Value: 10}, 0), "fully discounted is paid")
    assert.Equal(t, model.PaymentUnpaid, PaymentState(10, nil, 0))
    assert.Equal(t, model.PaymentUnpaid, PaymentState(10, nil, -1), "negative total treated as unpaid")
    assert.Equal(t, model.PaymentPartiallyPaid, PaymentState(10, nil, 9.99))
    assert.Equal(t, model.PaymentPaid, PaymentState(10, nil, 10))
    assert.Equal(t, model.PaymentPaid, PaymentState(10, nil, 25), "overpayment resolves to paid")
}

// Float noise within epsilon of the due amount must still classify as
// paid: 0.1+0.2 style sums would otherwise flap to PARTIALLY_PAID.
func TestPaymentStateFloatNoise(t *testing.T) {
    sub := 0.3
    paid := 0.1 + 0.2 // 0.30000000000000004... or slightly under depending on order
    assert.Equal(t, model.PaymentPaid, PaymentState(sub, nil, paid))
    assert.Equal(t, model.PaymentPaid, PaymentState(sub, nil, sub-1e-12))
}

func TestDeriveOrderStatus(t *testing.T) {
    tests := []struct {
        name     string
        current  string
        statuses []string
        want     string
    }{
        {"emptyKeepsCurrent", model.OrderNew, nil, model.OrderNew},
        {"allServed", model.OrderNew, []string{model.ItemServed, model.ItemServed}, model.OrderServed},
        {"servedAndCanceled", model.OrderReady, []string{model.ItemServed, model.ItemCanceled}, model.OrderServed},
        {"allCanceled", model.OrderNew, []string{model.ItemCanceled}, model.OrderServed},
        {"allReadyMix", model.OrderNew, []string{model.ItemReady, model.ItemServed, model.ItemCanceled}, model.OrderReady},
        {"pendingItemKeepsCurrent", model.OrderNew, []string{model.ItemReady, model.ItemNew}, model.OrderNew},
        {"inPreparationKeepsCurrent", model.OrderNew, []string{model.ItemInPreparation}, model.OrderNew},
        {"closedStaysClosed", model.OrderClosed, []string{model.ItemServed, model.ItemCanceled}, model.OrderClosed},
        {"closedIgnoresReadyItems", model.OrderClosed, []string{model.ItemReady}, model.OrderClosed},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            items := make([]model.OrderItem, 0, len(tt.statuses))
            for _, s := range tt.statuses {
                items = append(items, item(1, 1, s, false))
            }
            assert.Equal(t, tt.want, DeriveOrderStatus(tt.current, items))
        })
    }
}

// Once derivation yields SERVED, mutations that keep every item in
// {SERVED, CANCELED} can never move the order backward.
func TestDeriveOrderStatusMonotonic(t *testing.T) {
    items := []model.OrderItem{item(5, 1, model.ItemServed, false), item(5, 1, model.ItemServed, false)}
    status := DeriveOrderStatus(model.OrderNew, items)
    assert.Equal(t, model.OrderServed, status)

    // cancel one of the served items
    items[1].Status = model.ItemCanceled
    assert.Equal(t, model.OrderServed, DeriveOrderStatus(status, items))
}

func TestPaymentsTotal(t *testing.T) {
    payments := []model.PaymentLine{{Amount: 5}, {Amount: 2.5}, {Amount: 0.25}}
    assert.InDelta(t, 7.75, PaymentsTotal(payments), 1e-9)
    assert.Zero(t, PaymentsTotal(nil))
}
