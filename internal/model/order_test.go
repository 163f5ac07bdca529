package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestLinkedTableSet(t *testing.T) {
    o := &Order{ID: 1, TableID: 10}

    assert.True(t, o.AddLinkedTable(11))
    assert.True(t, o.AddLinkedTable(12))
    assert.False(t, o.AddLinkedTable(11), "re-adding a member is a no-op")
    assert.False(t, o.AddLinkedTable(10), "the primary table never joins the linked set")
    assert.Equal(t, []uint64{11, 12}, o.LinkedTableIDs)

    assert.True(t, o.References(10))
    assert.True(t, o.References(11))
    assert.False(t, o.References(13))

    assert.True(t, o.RemoveLinkedTable(11))
    assert.False(t, o.RemoveLinkedTable(11), "removing an absent member is a no-op")
    assert.False(t, o.RemoveLinkedTable(10), "the primary table is never a linked member")
    assert.Equal(t, []uint64{12}, o.LinkedTableIDs)
}

func TestOrderActive(t *testing.T) {
    o := &Order{Status: OrderNew}
    assert.True(t, o.Active())
    o.Status = OrderServed
    assert.True(t, o.Active())
    o.Status = OrderClosed
    assert.False(t, o.Active())
}

func TestSnapshotPaymentsTotal(t *testing.T) {
    s := &OrderSnapshot{Payments: []PaymentLine{
        {Method: MethodCash, Amount: 5},
        {Method: MethodCard, Amount: 2.5},
    }}
    assert.InDelta(t, 7.5, s.PaymentsTotal(), 1e-9)
}

func TestOrderItemBillable(t *testing.T) {
    it := OrderItem{Status: ItemNew, UnitPrice: 4, Quantity: 3}
    assert.True(t, it.Billable())
    assert.InDelta(t, 12.0, it.LineTotal(), 1e-9)

    it.IsComplimentary = true
    assert.False(t, it.Billable())

    it.IsComplimentary = false
    it.Status = ItemCanceled
    assert.False(t, it.Billable())
}
