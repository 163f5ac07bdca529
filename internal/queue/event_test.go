package queue

import (
    "encoding/json"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// The wire field names are consumed by external audit storage, so they
// are part of the contract, not an implementation detail.
func TestAuditEventWireShape(t *testing.T) {
    ev := AuditEvent{
        EventID:     "e-1",
        TenantID:    7,
        ActorUserID: 42,
        ActorRole:   "WAITER",
        Action:      ActionOrderClosed,
        EntityType:  EntityOrder,
        EntityID:    99,
        Metadata:    map[string]interface{}{"tables_freed": []uint64{10}},
        OccurredAt:  "2026-08-29T12:00:00Z",
    }
    bs, err := json.Marshal(ev)
    require.NoError(t, err)

    var m map[string]interface{}
    require.NoError(t, json.Unmarshal(bs, &m))
    for _, key := range []string{"event_id", "tenant_id", "actor_user_id", "actor_role", "action", "entity_type", "entity_id", "metadata", "occurred_at"} {
        assert.Contains(t, m, key)
    }
    assert.Equal(t, "ORDER_CLOSED", m["action"])
}
