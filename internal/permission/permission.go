// Package permission implements the tenant-scoped permission gate.
// The decision itself is a pure function over (role, key, overrides):
// SUPER_ADMIN and ADMIN bypass everything, an explicit tenant override
// wins next, and a fixed per-role default table answers the rest.
// Loading the override map from storage is kept behind a narrow
// interface so the rule is testable without a database.
package permission

import "context"

// Roles carried in the JWT role claim.
const (
    RoleSuperAdmin = "SUPER_ADMIN"
    RoleAdmin      = "ADMIN"
    RoleWaiter     = "WAITER"
    RoleKitchen    = "KITCHEN"
)

// Permission keys gating state-changing operations.
const (
    OrderPayments      = "ORDER_PAYMENTS"
    OrderDiscount      = "ORDER_DISCOUNT"
    OrderComplimentary = "ORDER_COMPLIMENTARY"
    OrderItemCancel    = "ORDER_ITEM_CANCEL"
    OrderItemServe     = "ORDER_ITEM_SERVE"
    OrderClose         = "ORDER_CLOSE"
    TableManage        = "TABLE_MANAGE"
    KitchenItemStatus  = "KITCHEN_ITEM_STATUS"
)

// defaults is the fixed per-role permission table used when a tenant
// has no explicit override for a key.  Waiters may run the full
// front-of-house flow; kitchen staff only drive item preparation.
var defaults = map[string]map[string]bool{
    RoleWaiter: {
        OrderPayments:      true,
        OrderDiscount:      true,
        OrderComplimentary: true,
        OrderItemCancel:    true,
        OrderItemServe:     true,
        OrderClose:         true,
        TableManage:        true,
    },
    RoleKitchen: {
        KitchenItemStatus: true,
    },
}

// Allowed answers whether role may perform the operation gated by key,
// given the tenant's override map.  Unknown roles and unknown keys
// default to false.
func Allowed(role, key string, overrides map[string]bool) bool {
    if role == RoleSuperAdmin || role == RoleAdmin {
        return true
    }
    if v, ok := overrides[key]; ok {
        return v
    }
    return defaults[role][key]
}

// OverrideSource loads a tenant's override map for one role.  The map
// only contains keys the tenant explicitly set; absent keys fall back
// to the role defaults.
type OverrideSource interface {
    Overrides(ctx context.Context, tenantID uint64, role string) (map[string]bool, error)
}

// Gate binds the pure rule to an override store.  Admin roles never
// hit the store.
type Gate struct {
    src OverrideSource
}

// NewGate returns a Gate reading overrides from src.
func NewGate(src OverrideSource) *Gate { return &Gate{src: src} }

// Check resolves whether role may perform key within tenantID.
func (g *Gate) Check(ctx context.Context, tenantID uint64, role, key string) (bool, error) {
    if role == RoleSuperAdmin || role == RoleAdmin {
        return true, nil
    }
    var overrides map[string]bool
    if g.src != nil {
        m, err := g.src.Overrides(ctx, tenantID, role)
        if err != nil {
            return false, err
        }
        overrides = m
    }
    return Allowed(role, key, overrides), nil
}
