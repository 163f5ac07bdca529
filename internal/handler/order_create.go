package handler

import (
    "context"      // context for best-effort cleanup after commit
    "database/sql" // transactions owned by the handler
    "log"          // advisory cleanup failures are logged, not surfaced
    "net/http"     // HTTP status codes

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/restaurant-floor/internal/billing"    // pure money rules
    "github.com/iliyamo/restaurant-floor/internal/model"      // domain models
    "github.com/iliyamo/restaurant-floor/internal/permission" // permission gate
    "github.com/iliyamo/restaurant-floor/internal/queue"      // audit actions
    "github.com/iliyamo/restaurant-floor/internal/repository" // repository layer
)

// OrderHandler groups the repositories required to run the order and
// table lifecycle.  All methods assume JWT authentication has already
// been performed by middleware; per-operation permission keys are
// enforced either by route middleware or in-handler where the key
// depends on the request.  Each mutating method runs against a single
// transaction so derived fields are recomputed from exactly the data
// that was written.
type OrderHandler struct {
    OrderRepo *repository.OrderRepo    // orders, items, payments, linked tables
    TableRepo *repository.TableRepo    // floor tables and occupancy
    MenuRepo  *repository.MenuItemRepo // read-only menu catalog slice
    Gate      *permission.Gate         // tenant-scoped permission checks
}

// NewOrderHandler constructs a new OrderHandler with the provided
// dependencies.  All dependencies must be non-nil.
func NewOrderHandler(orderRepo *repository.OrderRepo, tableRepo *repository.TableRepo, menuRepo *repository.MenuItemRepo, gate *permission.Gate) *OrderHandler {
    if orderRepo == nil || tableRepo == nil || menuRepo == nil || gate == nil {
        panic("nil dependency passed to NewOrderHandler")
    }
    return &OrderHandler{OrderRepo: orderRepo, TableRepo: tableRepo, MenuRepo: menuRepo, Gate: gate}
}

// freeTablesBestEffort returns tables to FREE after the primary
// transaction committed.  Failures here are advisory cleanup, not
// correctness: they are logged and swallowed, and the next
// reconciling operation repairs the status.
func (h *OrderHandler) freeTablesBestEffort(ctx context.Context, tableIDs ...uint64) {
    for _, id := range tableIDs {
        if err := h.TableRepo.Free(ctx, id); err != nil {
            log.Printf("table free skipped for table %d: %v", id, err)
        }
    }
}

type createOrderItem struct {
    MenuItemID        uint64   `json:"menu_item_id"`
    VariantID         *uint64  `json:"variant_id"`
    ModifierOptionIDs []uint64 `json:"modifier_option_ids"`
    Quantity          uint32   `json:"quantity"`
    Note              string   `json:"note"`
}

// CreateOrder handles POST /v1/orders.  If the table already carries
// an active order (as primary or linked table), the requested items
// are appended to it and its note updated; otherwise a new order is
// opened and the table occupied.  Every requested item must exist in
// the tenant's menu and be currently available or the whole operation
// fails with no partial insert.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        TableID uint64            `json:"table_id"`
        Items   []createOrderItem `json:"items"`
        Note    *string           `json:"note"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.TableID == 0 {
        return badRequest(c, CodeInvalidTable, "table_id is required")
    }
    if len(body.Items) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "items is required"})
    }
    for _, it := range body.Items {
        if it.MenuItemID == 0 || it.Quantity == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "each item needs a menu_item_id and a positive quantity"})
        }
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

    // Lock the table row first so concurrent creates on the same table
    // serialize here.
    table, err := h.TableRepo.GetForUpdateTx(ctx, tx, act.TenantID, body.TableID)
    if err != nil {
        if err == repository.ErrTableNotFound {
            return badRequest(c, CodeInvalidTable, "table not found")
        }
        return internalErr(c)
    }
    if table.Status == model.TableClosed {
        return badRequest(c, CodeInvalidTable, "table is closed")
    }

    // Validate the requested menu items inside the transaction.
    ids := make([]uint64, 0, len(body.Items))
    for _, it := range body.Items {
        ids = append(ids, it.MenuItemID)
    }
    catalog, err := h.MenuRepo.GetByIDsTx(ctx, tx, act.TenantID, ids)
    if err != nil {
        return internalErr(c)
    }
    for _, it := range body.Items {
        m, ok := catalog[it.MenuItemID]
        if !ok {
            return badRequest(c, CodeInvalidMenuItem, "menu item not found")
        }
        if !m.IsAvailable {
            return badRequest(c, CodeItemNotAvailable, "menu item not available")
        }
    }

    // Re-check "at most one active order per table" under the lock and
    // either append to the existing order or open a new one.
    activeID, err := h.OrderRepo.FindActiveByTableTx(ctx, tx, act.TenantID, body.TableID, 0)
    if err != nil {
        return internalErr(c)
    }
    var order *model.Order
    action := queue.ActionItemsAdded
    if activeID != 0 {
        order, err = h.OrderRepo.GetForUpdateTx(ctx, tx, act.TenantID, activeID)
        if err != nil {
            return internalErr(c)
        }
        if body.Note != nil {
            if err := h.OrderRepo.UpdateNoteTx(ctx, tx, order.ID, body.Note); err != nil {
                return internalErr(c)
            }
            order.Note = body.Note
        }
    } else {
        action = queue.ActionOrderCreated
        order = &model.Order{TenantID: act.TenantID, TableID: body.TableID, WaiterID: act.UserID, Note: body.Note}
        if err := h.OrderRepo.CreateTx(ctx, tx, order); err != nil {
            return internalErr(c)
        }
    }
    // Claim the table in both branches: a lagging best-effort free may
    // have left it FREE even though its order is still active, and the
    // append path repairs that here.
    if err := h.TableRepo.SetStatusTx(ctx, tx, table.ID, model.TableOccupied); err != nil {
        return internalErr(c)
    }

    // Append the lines with price snapshots from the current catalog.
    lines := make([]model.OrderItem, 0, len(body.Items))
    for _, it := range body.Items {
        mods := it.ModifierOptionIDs
        if mods == nil {
            mods = []uint64{}
        }
        lines = append(lines, model.OrderItem{
            OrderID:           order.ID,
            MenuItemID:        it.MenuItemID,
            VariantID:         it.VariantID,
            ModifierOptionIDs: mods,
            UnitPrice:         catalog[it.MenuItemID].Price,
            Quantity:          it.Quantity,
            Note:              it.Note,
            Status:            model.ItemNew,
        })
    }
    if err := h.OrderRepo.InsertItemsTx(ctx, tx, lines); err != nil {
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

    emitAudit(ctx, act, action, queue.EntityOrder, order.ID, map[string]interface{}{
        "table_id":    order.TableID,
        "items_added": len(lines),
    })
    return c.JSON(http.StatusCreated, snapshot)
}

// recomputeAndSnapshotTx reloads the order's items and payments inside
// tx, recomputes both derived statuses, persists them and returns the
// snapshot that matches the committed state.  Every mutating command
// funnels through here so the stored derived fields can never drift
// from their inputs.
func (h *OrderHandler) recomputeAndSnapshotTx(ctx context.Context, tx *sql.Tx, order *model.Order) (*model.OrderSnapshot, error) {
    items, err := h.OrderRepo.ItemsTx(ctx, tx, order.ID)
    if err != nil {
        return nil, err
    }
    payments, err := h.OrderRepo.PaymentsTx(ctx, tx, order.ID)
    if err != nil {
        return nil, err
    }
    order.Status = billing.DeriveOrderStatus(order.Status, items)
    subtotal := billing.Subtotal(items)
    order.PaymentStatus = billing.PaymentState(subtotal, order.Discount, billing.PaymentsTotal(payments))
    if err := h.OrderRepo.UpdateDerivedTx(ctx, tx, order.ID, order.Status, order.PaymentStatus); err != nil {
        return nil, err
    }
    return &model.OrderSnapshot{Order: *order, Items: items, Payments: payments}, nil
}
