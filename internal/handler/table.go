package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-floor/internal/model"
    "github.com/iliyamo/restaurant-floor/internal/queue"
    "github.com/iliyamo/restaurant-floor/internal/repository"
)

// TableHandler owns the floor-plan administration surface: creating
// tables, listing the floor and editing table metadata.  Occupancy
// transitions happen through order commands, not here, with one
// exception: an admin may take a table out of service by setting it
// CLOSED.
type TableHandler struct {
    TableRepo *repository.TableRepo
}

// NewTableHandler constructs a TableHandler.
func NewTableHandler(tableRepo *repository.TableRepo) *TableHandler {
    if tableRepo == nil {
        panic("nil dependency passed to NewTableHandler")
    }
    return &TableHandler{TableRepo: tableRepo}
}

// CreateTable handles POST /v1/tables.  New tables start FREE.
func (h *TableHandler) CreateTable(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        Name string  `json:"name"`
        Note *string `json:"note"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }
    table := &model.Table{TenantID: act.TenantID, Name: body.Name, Note: body.Note}
    if err := h.TableRepo.Create(c.Request().Context(), table); err != nil {
        return internalErr(c)
    }
    emitAudit(c.Request().Context(), act, queue.ActionTableCreated, queue.EntityTable, table.ID, map[string]interface{}{
        "name": table.Name,
    })
    return c.JSON(http.StatusCreated, table)
}

// ListTables handles GET /v1/tables.
func (h *TableHandler) ListTables(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    tables, err := h.TableRepo.List(c.Request().Context(), act.TenantID)
    if err != nil {
        return internalErr(c)
    }
    return c.JSON(http.StatusOK, echo.Map{"tables": tables})
}

// UpdateTable handles PATCH /v1/tables/:id.  Name and note are free
// edits.  Status may only be set to CLOSED (out of service) or FREE
// (back in service); OCCUPIED is owned by the order lifecycle.
func (h *TableHandler) UpdateTable(c echo.Context) error {
    act, err := currentActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
    }
    var body struct {
        Name   *string `json:"name"`
        Note   *string `json:"note"`
        Status *string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Status != nil && *body.Status != model.TableClosed && *body.Status != model.TableFree {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status may only be set to FREE or CLOSED"})
    }
    ctx := c.Request().Context()
    if err := h.TableRepo.UpdateInfo(ctx, act.TenantID, id, body.Name, body.Note, body.Status); err != nil {
        if err == repository.ErrTableNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
        }
        return internalErr(c)
    }
    table, err := h.TableRepo.GetByID(ctx, act.TenantID, id)
    if err != nil {
        return internalErr(c)
    }
    emitAudit(ctx, act, queue.ActionTableUpdated, queue.EntityTable, table.ID, nil)
    return c.JSON(http.StatusOK, table)
}
