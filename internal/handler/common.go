package handler // handler defines http handlers

import (
    "context"  // context propagates request deadlines to publishers
    "net/http" // HTTP status codes
    "strconv"  // parsing path parameters

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/restaurant-floor/internal/middleware"      // middleware extracts actor claims
    "github.com/iliyamo/restaurant-floor/internal/queue"           // queue defines audit payloads
    publisher "github.com/iliyamo/restaurant-floor/internal/service" // publisher emits audit events
)

// Domain error codes surfaced in the `code` field of 4xx responses.
// Callers switch on these; the `error` field is for humans.
const (
    CodeOrderClosed            = "ORDER_CLOSED"
    CodeInvalidTable           = "INVALID_TABLE"
    CodeInvalidMenuItem        = "INVALID_MENU_ITEM"
    CodeItemNotAvailable       = "ITEM_NOT_AVAILABLE"
    CodeInvalidItemState       = "INVALID_ITEM_STATE"
    CodePaymentNotComplete     = "PAYMENT_NOT_COMPLETE"
    CodeOrderNotServed         = "ORDER_NOT_SERVED"
    CodeOrderNotPaid           = "ORDER_NOT_PAID"
    CodeBillNotConfirmed       = "BILL_NOT_CONFIRMED"
    CodeCannotMoveMergedOrder  = "CANNOT_MOVE_MERGED_ORDER"
    CodeTargetTableNotFree     = "TARGET_TABLE_NOT_FREE"
    CodeTargetTableHasOrder    = "TARGET_TABLE_HAS_ACTIVE_ORDER"
    CodeSecondaryHasOrder      = "SECONDARY_HAS_ACTIVE_ORDER"
)

// actor is the authenticated identity acting on a command, extracted
// from the JWT claims the auth middleware stored in context.
type actor struct {
    UserID   uint64
    Role     string
    TenantID uint64
}

// currentActor pulls the actor out of the echo context.  Routes behind
// JWTAuth always carry these claims; anything else is a 401.
func currentActor(c echo.Context) (actor, error) {
    userID, err := middleware.UserID(c)
    if err != nil {
        return actor{}, err
    }
    tenantID, err := middleware.TenantID(c)
    if err != nil {
        return actor{}, err
    }
    role, _ := c.Get("role").(string)
    return actor{UserID: userID, Role: role, TenantID: tenantID}, nil
}

// pathID parses a numeric path parameter, rejecting zero.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id != 0
}

// conflict writes a 409 carrying a domain error code.
func conflict(c echo.Context, code, msg string) error {
    return c.JSON(http.StatusConflict, echo.Map{"error": msg, "code": code})
}

// badRequest writes a 400 carrying a domain error code.
func badRequest(c echo.Context, code, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": code})
}

// internalErr hides storage details behind a generic message.
func internalErr(c echo.Context) error {
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// emitAudit publishes one audit record for a committed mutation.
// Publishing is best-effort: the mutation already committed, so a
// broker hiccup must not fail the request.
func emitAudit(ctx context.Context, a actor, action, entityType string, entityID uint64, metadata map[string]interface{}) {
    _ = publisher.PublishAuditEvent(ctx, queue.AuditEvent{
        TenantID:    a.TenantID,
        ActorUserID: a.UserID,
        ActorRole:   a.Role,
        Action:      action,
        EntityType:  entityType,
        EntityID:    entityID,
        Metadata:    metadata,
    })
}
