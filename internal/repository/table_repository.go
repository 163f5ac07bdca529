package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/restaurant-floor/internal/model"
)

// TableRepo provides persistence for restaurant floor tables.  Table
// status is a reconciled value: OCCUPIED while some active order
// references the table, FREE otherwise, with CLOSED reserved for
// manual admin action.  Status writes that participate in claiming a
// table run inside the caller's transaction; cleanup frees are
// best-effort and run outside it.
type TableRepo struct {
    db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *TableRepo) DB() *sql.DB { return r.db }

const tableCols = `id, tenant_id, name, status, customer_id, note, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (*model.Table, error) {
    var t model.Table
    var customerID sql.NullInt64
    var note sql.NullString
    if err := row.Scan(&t.ID, &t.TenantID, &t.Name, &t.Status, &customerID, &note, &t.CreatedAt, &t.UpdatedAt); err != nil {
        return nil, err
    }
    if customerID.Valid {
        id := uint64(customerID.Int64)
        t.CustomerID = &id
    }
    if note.Valid {
        n := note.String
        t.Note = &n
    }
    return &t, nil
}

// Create inserts a new table in FREE status and reads the row back to
// populate generated fields.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
    const q = `INSERT INTO restaurant_tables (tenant_id, name, status, note) VALUES (?, ?, 'FREE', ?)`
    res, err := r.db.ExecContext(ctx, q, t.TenantID, t.Name, t.Note)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    created, err := r.GetByID(ctx, t.TenantID, uint64(id))
    if err != nil {
        return err
    }
    *t = *created
    return nil
}

// GetByID returns a table scoped to the tenant.  ErrTableNotFound is
// returned when no such row exists.
func (r *TableRepo) GetByID(ctx context.Context, tenantID, id uint64) (*model.Table, error) {
    const q = `SELECT ` + tableCols + ` FROM restaurant_tables WHERE id = ? AND tenant_id = ?`
    t, err := scanTable(r.db.QueryRowContext(ctx, q, id, tenantID))
    if err == sql.ErrNoRows {
        return nil, ErrTableNotFound
    }
    return t, err
}

// GetForUpdateTx loads a table row with a row lock inside tx.  Claiming
// operations lock the target table first so two concurrent claims on
// the same table serialize.
func (r *TableRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, tenantID, id uint64) (*model.Table, error) {
    const q = `SELECT ` + tableCols + ` FROM restaurant_tables WHERE id = ? AND tenant_id = ? FOR UPDATE`
    t, err := scanTable(tx.QueryRowContext(ctx, q, id, tenantID))
    if err == sql.ErrNoRows {
        return nil, ErrTableNotFound
    }
    return t, err
}

// List returns all tables of the tenant ordered by name.
func (r *TableRepo) List(ctx context.Context, tenantID uint64) ([]model.Table, error) {
    const q = `SELECT ` + tableCols + ` FROM restaurant_tables WHERE tenant_id = ? ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q, tenantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    tables := make([]model.Table, 0)
    for rows.Next() {
        t, err := scanTable(rows)
        if err != nil {
            return nil, err
        }
        tables = append(tables, *t)
    }
    return tables, rows.Err()
}

// UpdateInfo applies admin edits to name, note and the manual status
// field.  Nil arguments leave the column untouched.  Engine-managed
// statuses (FREE/OCCUPIED) are still accepted here so an admin can put
// a CLOSED table back into service.
func (r *TableRepo) UpdateInfo(ctx context.Context, tenantID, id uint64, name, note, status *string) error {
    const q = `UPDATE restaurant_tables
               SET name = COALESCE(?, name), note = COALESCE(?, note), status = COALESCE(?, status)
               WHERE id = ? AND tenant_id = ?`
    res, err := r.db.ExecContext(ctx, q, name, note, status, id, tenantID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err == nil && n == 0 {
        // COALESCE updates may match zero rows either because the row
        // is absent or nothing changed; distinguish with a lookup.
        if _, gerr := r.GetByID(ctx, tenantID, id); gerr != nil {
            return gerr
        }
    }
    return err
}

// SetStatusTx writes a table status inside the caller's transaction.
// Used by claiming paths (occupy) where the write must commit or roll
// back together with the order mutation.
func (r *TableRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    const q = `UPDATE restaurant_tables SET status = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, status, id)
    return err
}

// Free returns a table to FREE outside any transaction.  Only
// OCCUPIED rows are touched so a manually CLOSED table stays closed.
// Callers treat failures as advisory cleanup and swallow them.
func (r *TableRepo) Free(ctx context.Context, id uint64) error {
    const q = `UPDATE restaurant_tables SET status = 'FREE' WHERE id = ? AND status = 'OCCUPIED'`
    _, err := r.db.ExecContext(ctx, q, id)
    return err
}
