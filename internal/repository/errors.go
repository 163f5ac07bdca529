// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting raw SQL errors. For example, ErrOrderNotFound indicates a
// stale or nonexistent order id, while ErrConflict signals that an
// operation cannot proceed due to conflicting state (e.g. claiming a
// table that another active order already references).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource owned by a different tenant. Handlers should
// translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")

// ErrTableNotFound is returned when a table id does not exist within
// the tenant.
var ErrTableNotFound = errors.New("table not found")

// ErrOrderNotFound is returned when an order id does not exist within
// the tenant.
var ErrOrderNotFound = errors.New("order not found")

// ErrItemNotFound is returned when an order item id does not exist on
// the given order.
var ErrItemNotFound = errors.New("order item not found")
