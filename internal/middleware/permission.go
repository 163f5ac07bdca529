package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http defines standard HTTP status codes
    "strconv"  // strconv parses string-typed numeric claims

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/restaurant-floor/internal/permission" // permission implements the tenant-scoped gate
)

// RequirePermission returns a middleware that enforces the given
// permission key through the tenant-scoped gate.  It assumes JWTAuth
// has already stored user_id, role and tenant_id in the context.
// SUPER_ADMIN and ADMIN pass unconditionally inside the gate; other
// roles are resolved against tenant overrides and role defaults.
// Operations whose key depends on the request body (item status
// changes) perform an additional in-handler check instead.
func RequirePermission(gate *permission.Gate, key string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || role == "" {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            tenantID, err := TenantID(c)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            allowed, err := gate.Check(c.Request().Context(), tenantID, role, key)
            if err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
            }
            if !allowed {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}

// TenantID extracts the tenant_id claim from context and converts it
// to uint64.  JWT numeric claims decode as float64.
func TenantID(c echo.Context) (uint64, error) {
    return claimUint(c, "tenant_id")
}

// UserID extracts the user_id claim from context.
func UserID(c echo.Context) (uint64, error) {
    return claimUint(c, "user_id")
}

func claimUint(c echo.Context, key string) (uint64, error) {
    switch t := c.Get(key).(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        // The sub claim arrives as a string from most issuers.
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, echo.ErrUnauthorized
}
