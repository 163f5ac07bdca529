package model

import "time"

// Table represents a physical table on the restaurant floor.  Tables
// belong to a tenant and are created by admin action; they are never
// deleted, only closed.  Status is engine-managed (see Table statuses
// in status.go) except for the manual CLOSED state.
//
// Fields:
//  ID         – primary key identifier.
//  TenantID   – owning tenant.
//  Name       – display name, unique per tenant.
//  Status     – FREE, OCCUPIED or CLOSED.
//  CustomerID – optional customer currently associated with the table.
//  Note       – optional free-form note set by staff.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Table struct {
    ID         uint64     `json:"id"`          // restaurant_tables.id
    TenantID   uint64     `json:"tenant_id"`   // restaurant_tables.tenant_id
    Name       string     `json:"name"`        // restaurant_tables.name
    Status     string     `json:"status"`      // restaurant_tables.status
    CustomerID *uint64    `json:"customer_id,omitempty"` // restaurant_tables.customer_id (nullable)
    Note       *string    `json:"note,omitempty"`        // restaurant_tables.note (nullable)
    CreatedAt  time.Time  `json:"created_at"`  // restaurant_tables.created_at
    UpdatedAt  time.Time  `json:"updated_at"`  // restaurant_tables.updated_at
}
