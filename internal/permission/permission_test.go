package permission

import (
    "context"
    "errors"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestAllowedDefaults(t *testing.T) {
    tests := []struct {
        name string
        role string
        key  string
        want bool
    }{
        {"waiterPayments", RoleWaiter, OrderPayments, true},
        {"waiterClose", RoleWaiter, OrderClose, true},
        {"waiterKitchenKeyDenied", RoleWaiter, KitchenItemStatus, false},
        {"kitchenItemStatus", RoleKitchen, KitchenItemStatus, true},
        {"kitchenPaymentsDenied", RoleKitchen, OrderPayments, false},
        {"unknownRoleDenied", "CLEANER", OrderPayments, false},
        {"unknownKeyDenied", RoleWaiter, "REPORTS_EXPORT", false},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            assert.Equal(t, tt.want, Allowed(tt.role, tt.key, nil))
        })
    }
}

func TestAllowedOverrideWins(t *testing.T) {
    // tenant revokes a default grant and adds a non-default one
    overrides := map[string]bool{
        OrderDiscount:     false,
        KitchenItemStatus: true,
    }
    assert.False(t, Allowed(RoleWaiter, OrderDiscount, overrides))
    assert.True(t, Allowed(RoleWaiter, KitchenItemStatus, overrides))
    // keys absent from the override map keep their defaults
    assert.True(t, Allowed(RoleWaiter, OrderPayments, overrides))
}

func TestAllowedAdminBypass(t *testing.T) {
    denyAll := map[string]bool{OrderPayments: false, OrderClose: false}
    assert.True(t, Allowed(RoleAdmin, OrderPayments, denyAll))
    assert.True(t, Allowed(RoleSuperAdmin, OrderClose, denyAll))
}

type stubSource struct {
    overrides map[string]bool
    err       error
    calls     int
}

func (s *stubSource) Overrides(_ context.Context, _ uint64, _ string) (map[string]bool, error) {
    s.calls++
    return s.overrides, s.err
}

func TestGateCheck(t *testing.T) {
    src := &stubSource{overrides: map[string]bool{OrderClose: false}}
    gate := NewGate(src)

    ok, err := gate.Check(context.Background(), 1, RoleWaiter, OrderClose)
    require.NoError(t, err)
    assert.False(t, ok, "tenant override revokes the waiter default")

    ok, err = gate.Check(context.Background(), 1, RoleWaiter, OrderPayments)
    require.NoError(t, err)
    assert.True(t, ok)
}

func TestGateCheckAdminSkipsStore(t *testing.T) {
    src := &stubSource{err: errors.New("store down")}
    gate := NewGate(src)

    ok, err := gate.Check(context.Background(), 1, RoleAdmin, OrderClose)
    require.NoError(t, err)
    assert.True(t, ok)
    assert.Zero(t, src.calls, "admin decisions must not consult the override store")
}

func TestGateCheckStoreError(t *testing.T) {
    src := &stubSource{err: errors.New("store down")}
    gate := NewGate(src)

    _, err := gate.Check(context.Background(), 1, RoleWaiter, OrderClose)
    assert.Error(t, err)
}
