package model

// MenuItem is the slice of the menu catalog this engine reads.
// Catalog CRUD lives in a separate service; the engine only validates
// items when order lines are created and snapshots their price.
//
// Fields:
//  ID          – primary key identifier.
//  TenantID    – owning tenant.
//  Name        – display name.
//  Price       – current catalog price, snapshotted onto order lines.
//  Station     – kitchen production line (hot, cold, dessert, bar).
//  IsAvailable – whether the item can currently be ordered.
type MenuItem struct {
    ID          uint64  `json:"id"`
    TenantID    uint64  `json:"tenant_id"`
    Name        string  `json:"name"`
    Price       float64 `json:"price"`
    Station     string  `json:"station"`
    IsAvailable bool    `json:"is_available"`
}
