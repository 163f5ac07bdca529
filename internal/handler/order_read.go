package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-floor/internal/repository"
)

// GetOrder handles GET /v1/orders/:id.
func (h *OrderHandler) GetOrder(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    snapshot, err := h.OrderRepo.Snapshot(c.Request().Context(), act.TenantID, orderID)
    if err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return internalErr(c)
    }
    return c.JSON(http.StatusOK, snapshot)
}

// ListActiveOrders handles GET /v1/orders.  Returns every non-CLOSED
// order of the tenant without items or payments, the floor overview.
func (h *OrderHandler) ListActiveOrders(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orders, err := h.OrderRepo.ListActive(c.Request().Context(), act.TenantID)
    if err != nil {
        return internalErr(c)
    }
    return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// ListMenu handles GET /v1/menu.  Only currently available items are
// returned; unavailable ones stay orderable on existing orders through
// their price snapshots but cannot be added anew.
func (h *OrderHandler) ListMenu(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.MenuRepo.ListAvailable(c.Request().Context(), act.TenantID)
    if err != nil {
        return internalErr(c)
    }
    return c.JSON(http.StatusOK, echo.Map{"menu_items": items})
}
