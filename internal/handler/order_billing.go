package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-floor/internal/billing"
    "github.com/iliyamo/restaurant-floor/internal/model"
    "github.com/iliyamo/restaurant-floor/internal/queue"
    "github.com/iliyamo/restaurant-floor/internal/repository"
)

// SetDiscount handles PUT /v1/orders/:id/discount.  An order carries
// at most one discount; writing replaces any previous one (last write
// wins) and the payment status is recomputed against the new due
// amount in the same transaction.
func (h *OrderHandler) SetDiscount(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var body struct {
        Type  string  `json:"type"`
        Value float64 `json:"value"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if !model.ValidDiscountType(body.Type) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid discount type"})
    }
    if body.Value < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "discount value must not be negative"})
    }

    ctx := c.Request().Context()
    tx, err := h.OrderRepo.DB().BeginTx(ctx, nil)
    if err != nil {
        return internalErr(c)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    order, err := h.OrderRepo.GetForUpdateTx(ctx, tx, act.TenantID, orderID)
    if err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return internalErr(c)
    }
    if !order.Active() {
        return conflict(c, CodeOrderClosed, "order is closed")
    }
    d := &model.Discount{Type: body.Type, Value: body.Value, UpdatedAt: time.Now().UTC(), UpdatedBy: act.UserID}
    if err := h.OrderRepo.SetDiscountTx(ctx, tx, order.ID, d); err != nil {
        return internalErr(c)
    }
    order.Discount = d
    snapshot, err := h.recomputeAndSnapshotTx(ctx, tx, order)
    if err != nil {
        return internalErr(c)
    }
    if err := tx.Commit(); err != nil {
        return internalErr(c)
    }
    committed = true

    emitAudit(ctx, act, queue.ActionDiscountSet, queue.EntityOrder, order.ID, map[string]interface{}{
        "type":  d.Type,
        "value": d.Value,
    })
    return c.JSON(http.StatusOK, snapshot)
}

// AddPayment handles POST /v1/orders/:id/payments.  Payments are
// append-only lines; the derived payment status moves forward with
// each line and overpayment still resolves to PAID.
func (h *OrderHandler) AddPayment(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var body struct {
        Method string  `json:"method"`
        Amount float64 `json:"amount"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if !model.ValidPaymentMethod(body.Method) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment method"})
    }
    if body.Amount <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
    }

    ctx := c.Request().Context()
    tx, err := h.OrderRepo.DB().BeginTx(ctx, nil)
    if err != nil {
        return internalErr(c)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    order, err := h.OrderRepo.GetForUpdateTx(ctx, tx, act.TenantID, orderID)
    if err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return internalErr(c)
    }
    if !order.Active() {
        return conflict(c, CodeOrderClosed, "order is closed")
    }
    line := &model.PaymentLine{OrderID: order.ID, Method: body.Method, Amount: body.Amount, CreatedByUserID: act.UserID}
    if err := h.OrderRepo.AddPaymentTx(ctx, tx, line); err != nil {
        return internalErr(c)
    }
    snapshot, err := h.recomputeAndSnapshotTx(ctx, tx, order)
    if err != nil {
        return internalErr(c)
    }
    if err := tx.Commit(); err != nil {
        return internalErr(c)
    }
    committed = true

    emitAudit(ctx, act, queue.ActionPaymentAdded, queue.EntityOrder, order.ID, map[string]interface{}{
        "method": line.Method,
        "amount": line.Amount,
    })
    return c.JSON(http.StatusOK, snapshot)
}

// RequestBill handles POST /v1/orders/:id/bill-request.  It stamps the
// billing state machine's first transition.  Requesting a bill twice
// just refreshes the stamp; there is no guard against it.
func (h *OrderHandler) RequestBill(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }

    ctx := c.Request().Context()
    tx, err := h.OrderRepo.DB().BeginTx(ctx, nil)
    if err != nil {
        return internalErr(c)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    order, err := h.OrderRepo.GetForUpdateTx(ctx, tx, act.TenantID, orderID)
    if err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return internalErr(c)
    }
    if !order.Active() {
        return conflict(c, CodeOrderClosed, "order is closed")
    }
    now := time.Now().UTC()
    if err := h.OrderRepo.SetBillRequestedTx(ctx, tx, order.ID, act.UserID, now); err != nil {
        return internalErr(c)
    }
    order.BillingStatus = model.BillingRequested
    order.BillRequestedAt = &now
    order.BillRequestedBy = &act.UserID
    snapshot, err := h.recomputeAndSnapshotTx(ctx, tx, order)
    if err != nil {
        return internalErr(c)
    }
    if err := tx.Commit(); err != nil {
        return internalErr(c)
    }
    committed = true

    emitAudit(ctx, act, queue.ActionBillRequested, queue.EntityOrder, order.ID, nil)
    return c.JSON(http.StatusOK, snapshot)
}

// ConfirmPayment handles POST /v1/orders/:id/payment-confirm.  The
// handler recomputes the payment state from the rows it can see under
// the lock rather than trusting the stored derived field, so a
// concurrent payment removal can never slip a premature confirmation
// through.
func (h *OrderHandler) ConfirmPayment(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }

    ctx := c.Request().Context()
    tx, err := h.OrderRepo.DB().BeginTx(ctx, nil)
    if err != nil {
        return internalErr(c)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    order, err := h.OrderRepo.GetForUpdateTx(ctx, tx, act.TenantID, orderID)
    if err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return internalErr(c)
    }
    if !order.Active() {
        return conflict(c, CodeOrderClosed, "order is closed")
    }
    items, err := h.OrderRepo.ItemsTx(ctx, tx, order.ID)
    if err != nil {
        return internalErr(c)
    }
    payments, err := h.OrderRepo.PaymentsTx(ctx, tx, order.ID)
    if err != nil {
        return internalErr(c)
    }
    subtotal := billing.Subtotal(items)
    if billing.PaymentState(subtotal, order.Discount, billing.PaymentsTotal(payments)) != model.PaymentPaid {
        return conflict(c, CodePaymentNotComplete, "recorded payments do not cover the bill")
    }
    now := time.Now().UTC()
    if err := h.OrderRepo.SetPaymentConfirmedTx(ctx, tx, order.ID, act.UserID, now); err != nil {
        return internalErr(c)
    }
    order.BillingStatus = model.BillingPaid
    order.PaymentConfirmedAt = &now
    order.PaymentConfirmedBy = &act.UserID
    order.PaymentStatus = model.PaymentPaid
    order.Status = billing.DeriveOrderStatus(order.Status, items)
    if err := h.OrderRepo.UpdateDerivedTx(ctx, tx, order.ID, order.Status, order.PaymentStatus); err != nil {
        return internalErr(c)
    }
    if err := tx.Commit(); err != nil {
        return internalErr(c)
    }
    committed = true

    emitAudit(ctx, act, queue.ActionPaymentConfirmed, queue.EntityOrder, order.ID, map[string]interface{}{
        "payments_total": billing.PaymentsTotal(payments),
    })
    return c.JSON(http.StatusOK, &model.OrderSnapshot{Order: *order, Items: items, Payments: payments})
}

// CloseOrder handles POST /v1/orders/:id/close.  Closing is the only
// transition that releases tables, and it revalidates all three
// preconditions under the row lock instead of trusting stored derived
// fields: every item resolved (SERVED), the bill covered (PAID) and
// the payment confirmed.
func (h *OrderHandler) CloseOrder(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }

    ctx := c.Request().Context()
    tx, err := h.OrderRepo.DB().BeginTx(ctx, nil)
    if err != nil {
        return internalErr(c)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    order, err := h.OrderRepo.GetForUpdateTx(ctx, tx, act.TenantID, orderID)
    if err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return internalErr(c)
    }
    if !order.Active() {
        return conflict(c, CodeOrderClosed, "order is closed")
    }
    items, err := h.OrderRepo.ItemsTx(ctx, tx, order.ID)
    if err != nil {
        return internalErr(c)
    }
    payments, err := h.OrderRepo.PaymentsTx(ctx, tx, order.ID)
    if err != nil {
        return internalErr(c)
    }
    if billing.DeriveOrderStatus(order.Status, items) != model.OrderServed {
        return conflict(c, CodeOrderNotServed, "order has unresolved items")
    }
    subtotal := billing.Subtotal(items)
    if billing.PaymentState(subtotal, order.Discount, billing.PaymentsTotal(payments)) != model.PaymentPaid {
        return conflict(c, CodeOrderNotPaid, "recorded payments do not cover the bill")
    }
    if order.BillingStatus != model.BillingPaid {
        return conflict(c, CodeBillNotConfirmed, "payment has not been confirmed")
    }
    now := time.Now().UTC()
    if err := h.OrderRepo.CloseTx(ctx, tx, order.ID, act.UserID, now); err != nil {
        return internalErr(c)
    }
    order.Status = model.OrderClosed
    order.PaymentStatus = model.PaymentPaid
    order.OrderClosedAt = &now
    order.OrderClosedBy = &act.UserID
    freed := append([]uint64{order.TableID}, order.LinkedTableIDs...)
    if err := tx.Commit(); err != nil {
        return internalErr(c)
    }
    committed = true

    h.freeTablesBestEffort(ctx, freed...)
    emitAudit(ctx, act, queue.ActionOrderClosed, queue.EntityOrder, order.ID, map[string]interface{}{
        "tables_freed": freed,
    })
    return c.JSON(http.StatusOK, &model.OrderSnapshot{Order: *order, Items: items, Payments: payments})
}
