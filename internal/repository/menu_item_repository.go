package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/restaurant-floor/internal/model"
)

// MenuItemRepo reads the menu catalog slice the engine depends on.
// Catalog CRUD belongs to a separate service; this repo only validates
// requested items and supplies price snapshots and station routing.
type MenuItemRepo struct {
    db *sql.DB
}

// NewMenuItemRepo returns a new MenuItemRepo bound to the given database.
func NewMenuItemRepo(db *sql.DB) *MenuItemRepo { return &MenuItemRepo{db: db} }

// GetByIDsTx loads the requested menu items within the tenant, keyed
// by id.  Items missing from the result either do not exist or belong
// to another tenant; the caller decides how to report them.
func (r *MenuItemRepo) GetByIDsTx(ctx context.Context, tx *sql.Tx, tenantID uint64, ids []uint64) (map[uint64]model.MenuItem, error) {
    out := make(map[uint64]model.MenuItem, len(ids))
    if len(ids) == 0 {
        return out, nil
    }
    placeholders := make([]string, 0, len(ids))
    args := make([]interface{}, 0, len(ids)+1)
    args = append(args, tenantID)
    for _, id := range ids {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    query := `SELECT id, tenant_id, name, price, station, is_available
              FROM menu_items
              WHERE tenant_id = ? AND id IN (` + strings.Join(placeholders, ",") + `)`
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var m model.MenuItem
        if err := rows.Scan(&m.ID, &m.TenantID, &m.Name, &m.Price, &m.Station, &m.IsAvailable); err != nil {
            return nil, err
        }
        out[m.ID] = m
    }
    return out, rows.Err()
}

// StationsByItemTx maps order item ids to the station of their menu
// item, used by the station-ready bulk operation.
func (r *MenuItemRepo) StationsByItemTx(ctx context.Context, tx *sql.Tx, orderID uint64) (map[uint64]string, error) {
    const q = `SELECT oi.id, mi.station
               FROM order_items oi
               JOIN menu_items mi ON mi.id = oi.menu_item_id
               WHERE oi.order_id = ?`
    rows, err := tx.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64]string)
    for rows.Next() {
        var itemID uint64
        var station string
        if err := rows.Scan(&itemID, &station); err != nil {
            return nil, err
        }
        out[itemID] = station
    }
    return out, rows.Err()
}

// ListAvailable returns the tenant's currently orderable items,
// ordered by station then name for stable menus.
func (r *MenuItemRepo) ListAvailable(ctx context.Context, tenantID uint64) ([]model.MenuItem, error) {
    const q = `SELECT id, tenant_id, name, price, station, is_available
               FROM menu_items
               WHERE tenant_id = ? AND is_available = 1
               ORDER BY station, name`
    rows, err := r.db.QueryContext(ctx, q, tenantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    items := make([]model.MenuItem, 0)
    for rows.Next() {
        var m model.MenuItem
        if err := rows.Scan(&m.ID, &m.TenantID, &m.Name, &m.Price, &m.Station, &m.IsAvailable); err != nil {
            return nil, err
        }
        items = append(items, m)
    }
    return items, rows.Err()
}
