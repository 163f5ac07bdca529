package repository

import (
    "context"
    "database/sql"
)

// PermissionRepo reads tenant permission overrides.  The override
// store itself is managed elsewhere; the engine only asks "does role R
// have permission K in tenant T" and falls back to role defaults for
// keys the tenant never set.  Implements permission.OverrideSource.
type PermissionRepo struct {
    db *sql.DB
}

// NewPermissionRepo returns a new PermissionRepo bound to the given database.
func NewPermissionRepo(db *sql.DB) *PermissionRepo { return &PermissionRepo{db: db} }

// Overrides returns the tenant's explicit grants and revocations for
// one role.  Keys absent from the map keep their role defaults.
func (r *PermissionRepo) Overrides(ctx context.Context, tenantID uint64, role string) (map[string]bool, error) {
    const q = `SELECT permission_key, allowed FROM role_permissions WHERE tenant_id = ? AND role = ?`
    rows, err := r.db.QueryContext(ctx, q, tenantID, role)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    overrides := make(map[string]bool)
    for rows.Next() {
        var key string
        var allowed bool
        if err := rows.Scan(&key, &allowed); err != nil {
            return nil, err
        }
        overrides[key] = allowed
    }
    return overrides, rows.Err()
}
