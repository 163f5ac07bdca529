package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strings"
    "time"

    "github.com/iliyamo/restaurant-floor/internal/model"
)

// OrderRepo provides persistence for orders, their items, payments and
// linked tables.  Every mutating method takes a *sql.Tx: handlers own
// the transaction and commit the order mutation together with its
// recomputed derived fields.  Reads used outside a command (snapshots,
// listings) run against the pool directly.
type OrderRepo struct {
    db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderCols = `id, tenant_id, table_id, waiter_id, customer_id, status,
    discount_type, discount_value, discount_updated_at, discount_updated_by,
    payment_status, billing_status, bill_requested_at, bill_requested_by,
    payment_confirmed_at, payment_confirmed_by, order_closed_at, order_closed_by,
    note, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
    var o model.Order
    var customerID, discountBy, billBy, confirmBy, closeBy sql.NullInt64
    var discountType, note sql.NullString
    var discountValue sql.NullFloat64
    var discountAt, billAt, confirmAt, closeAt sql.NullTime
    err := row.Scan(
        &o.ID, &o.TenantID, &o.TableID, &o.WaiterID, &customerID, &o.Status,
        &discountType, &discountValue, &discountAt, &discountBy,
        &o.PaymentStatus, &o.BillingStatus, &billAt, &billBy,
        &confirmAt, &confirmBy, &closeAt, &closeBy,
        &note, &o.CreatedAt, &o.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if customerID.Valid {
        id := uint64(customerID.Int64)
        o.CustomerID = &id
    }
    if discountType.Valid && discountValue.Valid {
        d := model.Discount{Type: discountType.String, Value: discountValue.Float64}
        if discountAt.Valid {
            d.UpdatedAt = discountAt.Time
        }
        if discountBy.Valid {
            d.UpdatedBy = uint64(discountBy.Int64)
        }
        o.Discount = &d
    }
    if billAt.Valid {
        t := billAt.Time
        o.BillRequestedAt = &t
    }
    if billBy.Valid {
        id := uint64(billBy.Int64)
        o.BillRequestedBy = &id
    }
    if confirmAt.Valid {
        t := confirmAt.Time
        o.PaymentConfirmedAt = &t
    }
    if confirmBy.Valid {
        id := uint64(confirmBy.Int64)
        o.PaymentConfirmedBy = &id
    }
    if closeAt.Valid {
        t := closeAt.Time
        o.OrderClosedAt = &t
    }
    if closeBy.Valid {
        id := uint64(closeBy.Int64)
        o.OrderClosedBy = &id
    }
    if note.Valid {
        n := note.String
        o.Note = &n
    }
    o.LinkedTableIDs = []uint64{}
    return &o, nil
}

// GetForUpdateTx loads an order with a row lock and its linked-table
// set inside tx.  Locking the order row serializes concurrent
// mutations on the same order so derived fields are never computed
// from stale inputs.  ErrOrderNotFound is returned when the id does
// not exist within the tenant.
func (r *OrderRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, tenantID, orderID uint64) (*model.Order, error) {
    const q = `SELECT ` + orderCols + ` FROM orders WHERE id = ? AND tenant_id = ? FOR UPDATE`
    o, err := scanOrder(tx.QueryRowContext(ctx, q, orderID, tenantID))
    if err == sql.ErrNoRows {
        return nil, ErrOrderNotFound
    }
    if err != nil {
        return nil, err
    }
    linked, err := r.LinkedTablesTx(ctx, tx, o.ID)
    if err != nil {
        return nil, err
    }
    o.LinkedTableIDs = linked
    return o, nil
}

// FindActiveByTableTx returns the id of the non-CLOSED order that
// references tableID as primary or linked table, excluding
// excludeOrderID (pass 0 to exclude nothing).  The row is locked so
// the answer stays true until the caller commits — this is the
// server-side re-check behind the "at most one active order per
// table" invariant.  Returns 0 when no active order references the
// table.
func (r *OrderRepo) FindActiveByTableTx(ctx context.Context, tx *sql.Tx, tenantID, tableID, excludeOrderID uint64) (uint64, error) {
    const q = `SELECT o.id FROM orders o
               LEFT JOIN order_linked_tables lt ON lt.order_id = o.id
               WHERE o.tenant_id = ? AND o.status <> 'CLOSED'
                 AND (o.table_id = ? OR lt.table_id = ?)
                 AND o.id <> ?
               LIMIT 1 FOR UPDATE`
    var id uint64
    err := tx.QueryRowContext(ctx, q, tenantID, tableID, tableID, excludeOrderID).Scan(&id)
    if err == sql.ErrNoRows {
        return 0, nil
    }
    return id, err
}

// CreateTx inserts a new order in NEW status and populates generated
// fields on the provided record.  The caller must commit or rollback.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
    const q = `INSERT INTO orders (tenant_id, table_id, waiter_id, customer_id, status, payment_status, billing_status, note)
               VALUES (?, ?, ?, ?, 'NEW', 'UNPAID', 'OPEN', ?)`
    res, err := tx.ExecContext(ctx, q, o.TenantID, o.TableID, o.WaiterID, o.CustomerID, o.Note)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    o.ID = uint64(id)
    o.Status = model.OrderNew
    o.PaymentStatus = model.PaymentUnpaid
    o.BillingStatus = model.BillingOpen
    if o.LinkedTableIDs == nil {
        o.LinkedTableIDs = []uint64{}
    }
    const sel = `SELECT created_at, updated_at FROM orders WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, o.ID).Scan(&o.CreatedAt, &o.UpdatedAt)
}

// UpdateNoteTx overwrites the order note.
func (r *OrderRepo) UpdateNoteTx(ctx context.Context, tx *sql.Tx, orderID uint64, note *string) error {
    const q = `UPDATE orders SET note = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, note, orderID)
    return err
}

// InsertItemsTx appends order items in a single statement.  Modifier
// option ids are stored as a JSON array.  Passing an empty slice has
// no effect and returns nil.
func (r *OrderRepo) InsertItemsTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
    if len(items) == 0 {
        return nil
    }
    query := `INSERT INTO order_items (order_id, menu_item_id, variant_id, modifier_option_ids, unit_price, quantity, note, status, is_complimentary) VALUES `
    args := make([]interface{}, 0, len(items)*9)
    for i := range items {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?, ?, ?)"
        mods, err := json.Marshal(items[i].ModifierOptionIDs)
        if err != nil {
            return err
        }
        args = append(args, items[i].OrderID, items[i].MenuItemID, items[i].VariantID, string(mods),
            items[i].UnitPrice, items[i].Quantity, items[i].Note, items[i].Status, items[i].IsComplimentary)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ItemsTx loads all items of an order inside tx, oldest first.
func (r *OrderRepo) ItemsTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]model.OrderItem, error) {
    const q = `SELECT id, order_id, menu_item_id, variant_id, modifier_option_ids, unit_price, quantity, note, status, is_complimentary, created_at, updated_at
               FROM order_items WHERE order_id = ? ORDER BY id`
    rows, err := tx.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]model.OrderItem, error) {
    items := make([]model.OrderItem, 0)
    for rows.Next() {
        var it model.OrderItem
        var variantID sql.NullInt64
        var mods sql.NullString
        if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &variantID, &mods, &it.UnitPrice,
            &it.Quantity, &it.Note, &it.Status, &it.IsComplimentary, &it.CreatedAt, &it.UpdatedAt); err != nil {
            return nil, err
        }
        if variantID.Valid {
            id := uint64(variantID.Int64)
            it.VariantID = &id
        }
        it.ModifierOptionIDs = []uint64{}
        if mods.Valid && strings.TrimSpace(mods.String) != "" {
            if err := json.Unmarshal([]byte(mods.String), &it.ModifierOptionIDs); err != nil {
                return nil, err
            }
        }
        items = append(items, it)
    }
    return items, rows.Err()
}

// SetItemStatusTx writes an item status, scoped to the order so a
// stale item id from another order cannot be hit.  ErrItemNotFound is
// returned when nothing matched.
func (r *OrderRepo) SetItemStatusTx(ctx context.Context, tx *sql.Tx, orderID, itemID uint64, status string) error {
    const q = `UPDATE order_items SET status = ? WHERE id = ? AND order_id = ?`
    res, err := tx.ExecContext(ctx, q, status, itemID, orderID)
    if err != nil {
        return err
    }
    return requireItemMatch(ctx, tx, res, orderID, itemID)
}

// SetItemComplimentaryTx flips the complimentary flag on one item.
func (r *OrderRepo) SetItemComplimentaryTx(ctx context.Context, tx *sql.Tx, orderID, itemID uint64, comp bool) error {
    const q = `UPDATE order_items SET is_complimentary = ? WHERE id = ? AND order_id = ?`
    res, err := tx.ExecContext(ctx, q, comp, itemID, orderID)
    if err != nil {
        return err
    }
    return requireItemMatch(ctx, tx, res, orderID, itemID)
}

// requireItemMatch turns a zero-row update into ErrItemNotFound unless
// the row exists and the write was simply a no-op.
func requireItemMatch(ctx context.Context, tx *sql.Tx, res sql.Result, orderID, itemID uint64) error {
    n, err := res.RowsAffected()
    if err != nil || n > 0 {
        return err
    }
    const q = `SELECT 1 FROM order_items WHERE id = ? AND order_id = ?`
    var one int
    if err := tx.QueryRowContext(ctx, q, itemID, orderID).Scan(&one); err == sql.ErrNoRows {
        return ErrItemNotFound
    } else if err != nil {
        return err
    }
    return nil
}

// BulkSetItemStatusTx advances the given items to status in one
// statement.  Used by the station-ready operation.
func (r *OrderRepo) BulkSetItemStatusTx(ctx context.Context, tx *sql.Tx, orderID uint64, itemIDs []uint64, status string) error {
    if len(itemIDs) == 0 {
        return nil
    }
    placeholders := make([]string, 0, len(itemIDs))
    args := make([]interface{}, 0, len(itemIDs)+2)
    args = append(args, status, orderID)
    for _, id := range itemIDs {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    query := `UPDATE order_items SET status = ? WHERE order_id = ? AND id IN (` + strings.Join(placeholders, ",") + `)`
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// SetDiscountTx replaces the order's discount wholesale.
func (r *OrderRepo) SetDiscountTx(ctx context.Context, tx *sql.Tx, orderID uint64, d *model.Discount) error {
    const q = `UPDATE orders SET discount_type = ?, discount_value = ?, discount_updated_at = ?, discount_updated_by = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, d.Type, d.Value, d.UpdatedAt, d.UpdatedBy, orderID)
    return err
}

// AddPaymentTx appends a payment line and populates its generated id.
func (r *OrderRepo) AddPaymentTx(ctx context.Context, tx *sql.Tx, p *model.PaymentLine) error {
    const q = `INSERT INTO order_payments (order_id, method, amount, created_by_user_id) VALUES (?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, p.OrderID, p.Method, p.Amount, p.CreatedByUserID)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    const sel = `SELECT created_at FROM order_payments WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt)
}

// PaymentsTx loads all payment lines of an order inside tx.
func (r *OrderRepo) PaymentsTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]model.PaymentLine, error) {
    const q = `SELECT id, order_id, method, amount, created_at, created_by_user_id
               FROM order_payments WHERE order_id = ? ORDER BY id`
    rows, err := tx.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    payments := make([]model.PaymentLine, 0)
    for rows.Next() {
        var p model.PaymentLine
        if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.CreatedAt, &p.CreatedByUserID); err != nil {
            return nil, err
        }
        payments = append(payments, p)
    }
    return payments, rows.Err()
}

// UpdateDerivedTx writes the recomputed order and payment status.
// Always called in the same transaction as the mutation that changed
// the derivation inputs.
func (r *OrderRepo) UpdateDerivedTx(ctx context.Context, tx *sql.Tx, orderID uint64, status, paymentStatus string) error {
    const q = `UPDATE orders SET status = ?, payment_status = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, status, paymentStatus, orderID)
    return err
}

// SetBillRequestedTx stamps the bill request.
func (r *OrderRepo) SetBillRequestedTx(ctx context.Context, tx *sql.Tx, orderID, byUser uint64, at time.Time) error {
    const q = `UPDATE orders SET billing_status = 'BILL_REQUESTED', bill_requested_at = ?, bill_requested_by = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, at, byUser, orderID)
    return err
}

// SetPaymentConfirmedTx moves billing to PAID and pins the payment
// status, stamping the confirmer.
func (r *OrderRepo) SetPaymentConfirmedTx(ctx context.Context, tx *sql.Tx, orderID, byUser uint64, at time.Time) error {
    const q = `UPDATE orders SET billing_status = 'PAID', payment_status = 'PAID', payment_confirmed_at = ?, payment_confirmed_by = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, at, byUser, orderID)
    return err
}

// CloseTx transitions the order to CLOSED and stamps the closer.
func (r *OrderRepo) CloseTx(ctx context.Context, tx *sql.Tx, orderID, byUser uint64, at time.Time) error {
    const q = `UPDATE orders SET status = 'CLOSED', order_closed_at = ?, order_closed_by = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, at, byUser, orderID)
    return err
}

// SetTableTx reassigns the order's primary table (move).
func (r *OrderRepo) SetTableTx(ctx context.Context, tx *sql.Tx, orderID, tableID uint64) error {
    const q = `UPDATE orders SET table_id = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, tableID, orderID)
    return err
}

// AddLinkedTableTx records a merged secondary table.  INSERT IGNORE
// keeps the operation idempotent against the (order_id, table_id)
// primary key.
func (r *OrderRepo) AddLinkedTableTx(ctx context.Context, tx *sql.Tx, orderID, tableID uint64) error {
    const q = `INSERT IGNORE INTO order_linked_tables (order_id, table_id) VALUES (?, ?)`
    _, err := tx.ExecContext(ctx, q, orderID, tableID)
    return err
}

// RemoveLinkedTableTx detaches a merged table.  Removing an absent
// table is a no-op.
func (r *OrderRepo) RemoveLinkedTableTx(ctx context.Context, tx *sql.Tx, orderID, tableID uint64) error {
    const q = `DELETE FROM order_linked_tables WHERE order_id = ? AND table_id = ?`
    _, err := tx.ExecContext(ctx, q, orderID, tableID)
    return err
}

// LinkedTablesTx loads the linked-table set of an order inside tx.
func (r *OrderRepo) LinkedTablesTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]uint64, error) {
    const q = `SELECT table_id FROM order_linked_tables WHERE order_id = ? ORDER BY table_id`
    rows, err := tx.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    ids := make([]uint64, 0)
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// SnapshotTx assembles the denormalized order view from within the
// caller's transaction, so the snapshot returned by a mutating command
// reflects exactly the state that was committed.
func (r *OrderRepo) SnapshotTx(ctx context.Context, tx *sql.Tx, o *model.Order) (*model.OrderSnapshot, error) {
    items, err := r.ItemsTx(ctx, tx, o.ID)
    if err != nil {
        return nil, err
    }
    payments, err := r.PaymentsTx(ctx, tx, o.ID)
    if err != nil {
        return nil, err
    }
    return &model.OrderSnapshot{Order: *o, Items: items, Payments: payments}, nil
}

// Snapshot loads the denormalized view outside a transaction, for
// read-only queries.  ErrOrderNotFound when the id is unknown to the
// tenant.
func (r *OrderRepo) Snapshot(ctx context.Context, tenantID, orderID uint64) (*model.OrderSnapshot, error) {
    const q = `SELECT ` + orderCols + ` FROM orders WHERE id = ? AND tenant_id = ?`
    o, err := scanOrder(r.db.QueryRowContext(ctx, q, orderID, tenantID))
    if err == sql.ErrNoRows {
        return nil, ErrOrderNotFound
    }
    if err != nil {
        return nil, err
    }
    const linkedQ = `SELECT table_id FROM order_linked_tables WHERE order_id = ? ORDER BY table_id`
    rows, err := r.db.QueryContext(ctx, linkedQ, o.ID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        o.LinkedTableIDs = append(o.LinkedTableIDs, id)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    const itemQ = `SELECT id, order_id, menu_item_id, variant_id, modifier_option_ids, unit_price, quantity, note, status, is_complimentary, created_at, updated_at
                   FROM order_items WHERE order_id = ? ORDER BY id`
    irows, err := r.db.QueryContext(ctx, itemQ, o.ID)
    if err != nil {
        return nil, err
    }
    defer irows.Close()
    items, err := collectItems(irows)
    if err != nil {
        return nil, err
    }
    const payQ = `SELECT id, order_id, method, amount, created_at, created_by_user_id
                  FROM order_payments WHERE order_id = ? ORDER BY id`
    prows, err := r.db.QueryContext(ctx, payQ, o.ID)
    if err != nil {
        return nil, err
    }
    defer prows.Close()
    payments := make([]model.PaymentLine, 0)
    for prows.Next() {
        var p model.PaymentLine
        if err := prows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.CreatedAt, &p.CreatedByUserID); err != nil {
            return nil, err
        }
        payments = append(payments, p)
    }
    if err := prows.Err(); err != nil {
        return nil, err
    }
    return &model.OrderSnapshot{Order: *o, Items: items, Payments: payments}, nil
}

// ListActive returns the tenant's non-CLOSED orders with their linked
// tables, newest first.  Items and payments are not loaded; clients
// fetch the full snapshot per order.
func (r *OrderRepo) ListActive(ctx context.Context, tenantID uint64) ([]model.Order, error) {
    const q = `SELECT ` + orderCols + ` FROM orders WHERE tenant_id = ? AND status <> 'CLOSED' ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, tenantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    orders := make([]model.Order, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        o, err := scanOrder(rows)
        if err != nil {
            return nil, err
        }
        index[o.ID] = len(orders)
        orders = append(orders, *o)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(orders) == 0 {
        return orders, nil
    }
    ids := make([]interface{}, 0, len(orders))
    placeholders := make([]string, 0, len(orders))
    for i := range orders {
        ids = append(ids, orders[i].ID)
        placeholders = append(placeholders, "?")
    }
    linkedQ := `SELECT order_id, table_id FROM order_linked_tables
                WHERE order_id IN (` + strings.Join(placeholders, ",") + `) ORDER BY order_id, table_id`
    lrows, err := r.db.QueryContext(ctx, linkedQ, ids...)
    if err != nil {
        return nil, err
    }
    defer lrows.Close()
    for lrows.Next() {
        var orderID, tableID uint64
        if err := lrows.Scan(&orderID, &tableID); err != nil {
            return nil, err
        }
        if idx, ok := index[orderID]; ok {
            orders[idx].LinkedTableIDs = append(orders[idx].LinkedTableIDs, tableID)
        }
    }
    return orders, lrows.Err()
}
