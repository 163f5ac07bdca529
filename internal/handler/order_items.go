package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-floor/internal/model"
    "github.com/iliyamo/restaurant-floor/internal/permission"
    "github.com/iliyamo/restaurant-floor/internal/queue"
    "github.com/iliyamo/restaurant-floor/internal/repository"
)

// SetItemStatus handles PATCH /v1/orders/:id/items/:itemID/status.
// Any status except CLOSED may be set directly by an authorized actor;
// there is deliberately no check that the new status is a legal
// successor of the current one.  CANCELED and SERVED carry their own
// permission keys, and any transition performed by the KITCHEN role
// additionally requires KITCHEN_ITEM_STATUS.
func (h *OrderHandler) SetItemStatus(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    itemID, ok := pathID(c, "itemID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if !model.ValidItemStatus(body.Status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item status"})
    }

    // The required permission keys depend on the requested status and
    // the actor's role, so the gate runs here instead of in route
    // middleware.
    ctx := c.Request().Context()
    keys := make([]string, 0, 2)
    switch body.Status {
    case model.ItemCanceled:
        keys = append(keys, permission.OrderItemCancel)
    case model.ItemServed:
        keys = append(keys, permission.OrderItemServe)
    }
    if act.Role == permission.RoleKitchen {
        keys = append(keys, permission.KitchenItemStatus)
    }
    for _, key := range keys {
        allowed, err := h.Gate.Check(ctx, act.TenantID, act.Role, key)
        if err != nil {
            return internalErr(c)
        }
        if !allowed {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }

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
    if err := h.OrderRepo.SetItemStatusTx(ctx, tx, order.ID, itemID, body.Status); err != nil {
        if err == repository.ErrItemNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order item not found"})
        }
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

    emitAudit(ctx, act, queue.ActionItemStatusSet, queue.EntityOrder, order.ID, map[string]interface{}{
        "item_id": itemID,
        "status":  body.Status,
    })
    return c.JSON(http.StatusOK, snapshot)
}

// ServeItem handles POST /v1/orders/:id/items/:itemID/serve.  Unlike
// the free-form status setter, serving enforces a precondition: the
// item must currently be READY.
func (h *OrderHandler) ServeItem(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    itemID, ok := pathID(c, "itemID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
    }

    ctx := c.Request().Context()
    if act.Role == permission.RoleKitchen {
        allowed, err := h.Gate.Check(ctx, act.TenantID, act.Role, permission.KitchenItemStatus)
        if err != nil {
            return internalErr(c)
        }
        if !allowed {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }

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
    var current *model.OrderItem
    for i := range items {
        if items[i].ID == itemID {
            current = &items[i]
            break
        }
    }
    if current == nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "order item not found"})
    }
    if current.Status != model.ItemReady {
        return conflict(c, CodeInvalidItemState, "item is not ready to serve")
    }
    if err := h.OrderRepo.SetItemStatusTx(ctx, tx, order.ID, itemID, model.ItemServed); err != nil {
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

    emitAudit(ctx, act, queue.ActionItemServed, queue.EntityOrder, order.ID, map[string]interface{}{
        "item_id": itemID,
    })
    return c.JSON(http.StatusOK, snapshot)
}

// MarkStationReady handles POST /v1/orders/:id/ready.  Every NEW or
// IN_PREPARATION item whose menu item belongs to the given station (or
// every such item when no station filter is supplied) advances to
// READY.  Items already READY, SERVED or CANCELED are untouched.
func (h *OrderHandler) MarkStationReady(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var body struct {
        Station *string `json:"station"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    ctx := c.Request().Context()
    if act.Role == permission.RoleKitchen {
        allowed, err := h.Gate.Check(ctx, act.TenantID, act.Role, permission.KitchenItemStatus)
        if err != nil {
            return internalErr(c)
        }
        if !allowed {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }

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
    stations, err := h.MenuRepo.StationsByItemTx(ctx, tx, order.ID)
    if err != nil {
        return internalErr(c)
    }
    advance := make([]uint64, 0, len(items))
    for i := range items {
        if items[i].Status != model.ItemNew && items[i].Status != model.ItemInPreparation {
            continue
        }
        if body.Station != nil && stations[items[i].ID] != *body.Station {
            continue
        }
        advance = append(advance, items[i].ID)
    }
    if err := h.OrderRepo.BulkSetItemStatusTx(ctx, tx, order.ID, advance, model.ItemReady); err != nil {
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

    meta := map[string]interface{}{"items_ready": len(advance)}
    if body.Station != nil {
        meta["station"] = *body.Station
    }
    emitAudit(ctx, act, queue.ActionStationReady, queue.EntityOrder, order.ID, meta)
    return c.JSON(http.StatusOK, snapshot)
}

// SetComplimentary handles POST /v1/orders/:id/items/:itemID/complimentary.
// Flipping the flag removes (or restores) the line's contribution to
// the subtotal, so payment status is recomputed in the same
// transaction.
func (h *OrderHandler) SetComplimentary(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    itemID, ok := pathID(c, "itemID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
    }
    var body struct {
        IsComplimentary bool `json:"is_complimentary"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
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
    if err := h.OrderRepo.SetItemComplimentaryTx(ctx, tx, order.ID, itemID, body.IsComplimentary); err != nil {
        if err == repository.ErrItemNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order item not found"})
        }
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

    emitAudit(ctx, act, queue.ActionComplimentarySet, queue.EntityOrder, order.ID, map[string]interface{}{
        "item_id":          itemID,
        "is_complimentary": body.IsComplimentary,
    })
    return c.JSON(http.StatusOK, snapshot)
}
