package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-floor/internal/model"
    "github.com/iliyamo/restaurant-floor/internal/queue"
    "github.com/iliyamo/restaurant-floor/internal/repository"
)

// MoveTable handles POST /v1/orders/:id/move.  The whole order is
// relocated to a FREE target table; its previous table is released
// after commit.  Merged orders cannot move, unmerge first.
func (h *OrderHandler) MoveTable(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var body struct {
        TableID uint64 `json:"table_id"`
    }
    if err := c.Bind(&body); err != nil || body.TableID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id is required"})
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
    if len(order.LinkedTableIDs) != 0 {
        return conflict(c, CodeCannotMoveMergedOrder, "unmerge linked tables before moving")
    }
    if body.TableID == order.TableID {
        snapshot, err := h.OrderRepo.SnapshotTx(ctx, tx, order)
        if err != nil {
            return internalErr(c)
        }
        return c.JSON(http.StatusOK, snapshot)
    }
    target, err := h.TableRepo.GetForUpdateTx(ctx, tx, act.TenantID, body.TableID)
    if err != nil {
        if err == repository.ErrTableNotFound {
            return badRequest(c, CodeInvalidTable, "target table not found")
        }
        return internalErr(c)
    }
    if target.Status != model.TableFree {
        return conflict(c, CodeTargetTableNotFree, "target table is not free")
    }
    // Status says FREE but another order may still reference the table,
    // a best-effort free can lag behind. Re-check under the lock.
    activeID, err := h.OrderRepo.FindActiveByTableTx(ctx, tx, act.TenantID, target.ID, order.ID)
    if err != nil {
        return internalErr(c)
    }
    if activeID != 0 {
        return conflict(c, CodeTargetTableHasOrder, "target table already has an active order")
    }
    fromTable := order.TableID
    if err := h.OrderRepo.SetTableTx(ctx, tx, order.ID, target.ID); err != nil {
        return internalErr(c)
    }
    if err := h.TableRepo.SetStatusTx(ctx, tx, target.ID, model.TableOccupied); err != nil {
        return internalErr(c)
    }
    order.TableID = target.ID
    snapshot, err := h.OrderRepo.SnapshotTx(ctx, tx, order)
    if err != nil {
        return internalErr(c)
    }
    if err := tx.Commit(); err != nil {
        return internalErr(c)
    }
    committed = true

    h.freeTablesBestEffort(ctx, fromTable)
    emitAudit(ctx, act, queue.ActionTableMoved, queue.EntityOrder, order.ID, map[string]interface{}{
        "from_table_id": fromTable,
        "to_table_id":   target.ID,
    })
    return c.JSON(http.StatusOK, snapshot)
}

// MergeTable handles POST /v1/orders/:id/merge.  The secondary table
// joins the order's linked set and is claimed as OCCUPIED.  Merging a
// table that is already part of the order is a no-op.
func (h *OrderHandler) MergeTable(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var body struct {
        TableID uint64 `json:"table_id"`
    }
    if err := c.Bind(&body); err != nil || body.TableID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id is required"})
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
    if order.References(body.TableID) {
        snapshot, err := h.OrderRepo.SnapshotTx(ctx, tx, order)
        if err != nil {
            return internalErr(c)
        }
        return c.JSON(http.StatusOK, snapshot)
    }
    secondary, err := h.TableRepo.GetForUpdateTx(ctx, tx, act.TenantID, body.TableID)
    if err != nil {
        if err == repository.ErrTableNotFound {
            return badRequest(c, CodeInvalidTable, "table not found")
        }
        return internalErr(c)
    }
    if secondary.Status == model.TableClosed {
        return badRequest(c, CodeInvalidTable, "table is closed")
    }
    activeID, err := h.OrderRepo.FindActiveByTableTx(ctx, tx, act.TenantID, secondary.ID, order.ID)
    if err != nil {
        return internalErr(c)
    }
    if activeID != 0 {
        return conflict(c, CodeSecondaryHasOrder, "table already has an active order")
    }
    if err := h.OrderRepo.AddLinkedTableTx(ctx, tx, order.ID, secondary.ID); err != nil {
        return internalErr(c)
    }
    if err := h.TableRepo.SetStatusTx(ctx, tx, secondary.ID, model.TableOccupied); err != nil {
        return internalErr(c)
    }
    order.AddLinkedTable(secondary.ID)
    snapshot, err := h.OrderRepo.SnapshotTx(ctx, tx, order)
    if err != nil {
        return internalErr(c)
    }
    if err := tx.Commit(); err != nil {
        return internalErr(c)
    }
    committed = true

    emitAudit(ctx, act, queue.ActionTableMerged, queue.EntityOrder, order.ID, map[string]interface{}{
        "table_id": secondary.ID,
    })
    return c.JSON(http.StatusOK, snapshot)
}

// UnmergeTable handles POST /v1/orders/:id/unmerge.  The table leaves
// the linked set and returns to FREE after commit.  Unmerging a table
// that is not in the set, the primary table included, is a no-op.
func (h *OrderHandler) UnmergeTable(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var body struct {
        TableID uint64 `json:"table_id"`
    }
    if err := c.Bind(&body); err != nil || body.TableID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id is required"})
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
    // The primary table is never a linked member, so unmerging it falls
    // into the same absent-member no-op as any other unknown table.
    removed := order.RemoveLinkedTable(body.TableID)
    if removed {
        if err := h.OrderRepo.RemoveLinkedTableTx(ctx, tx, order.ID, body.TableID); err != nil {
            return internalErr(c)
        }
    }
    snapshot, err := h.OrderRepo.SnapshotTx(ctx, tx, order)
    if err != nil {
        return internalErr(c)
    }
    if err := tx.Commit(); err != nil {
        return internalErr(c)
    }
    committed = true

    if removed {
        h.freeTablesBestEffort(ctx, body.TableID)
        emitAudit(ctx, act, queue.ActionTableUnmerged, queue.EntityOrder, order.ID, map[string]interface{}{
            "table_id": body.TableID,
        })
    }
    return c.JSON(http.StatusOK, snapshot)
}
