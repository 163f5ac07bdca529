package handler

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/restaurant-floor/internal/permission"
    "github.com/iliyamo/restaurant-floor/internal/repository"
)

func newTestHandler(t *testing.T) (*OrderHandler, sqlmock.Sqlmock) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    h := NewOrderHandler(repository.NewOrderRepo(db), repository.NewTableRepo(db), repository.NewMenuItemRepo(db), permission.NewGate(nil))
    return h, mock
}

func newRequestContext(method, body string) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(method, "/", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uint64(2))
    c.Set("role", permission.RoleWaiter)
    c.Set("tenant_id", uint64(1))
    return c, rec
}

var orderColumns = []string{
    "id", "tenant_id", "table_id", "waiter_id", "customer_id", "status",
    "discount_type", "discount_value", "discount_updated_at", "discount_updated_by",
    "payment_status", "billing_status", "bill_requested_at", "bill_requested_by",
    "payment_confirmed_at", "payment_confirmed_by", "order_closed_at", "order_closed_by",
    "note", "created_at", "updated_at",
}

func orderRow(id, tableID int64, status, paymentStatus, billingStatus string) *sqlmock.Rows {
    now := time.Now()
    return sqlmock.NewRows(orderColumns).AddRow(
        id, 1, tableID, 2, nil, status,
        nil, nil, nil, nil,
        paymentStatus, billingStatus, nil, nil,
        nil, nil, nil, nil,
        nil, now, now,
    )
}

var itemColumns = []string{
    "id", "order_id", "menu_item_id", "variant_id", "modifier_option_ids",
    "unit_price", "quantity", "note", "status", "is_complimentary", "created_at", "updated_at",
}

var paymentColumns = []string{"id", "order_id", "method", "amount", "created_at", "created_by_user_id"}

// Mutating commands on a closed order must fail with a state conflict:
// the close transition already freed the tables, and letting the
// derived-status recompute run would resurrect the order as active.
func TestSetDiscountRejectsClosedOrder(t *testing.T) {
    h, mock := newTestHandler(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM orders WHERE id`).
        WillReturnRows(orderRow(5, 10, "CLOSED", "PAID", "PAID"))
    mock.ExpectQuery(`SELECT table_id FROM order_linked_tables`).
        WillReturnRows(sqlmock.NewRows([]string{"table_id"}))
    mock.ExpectRollback()

    c, rec := newRequestContext(http.MethodPut, `{"type":"PERCENT","value":10}`)
    c.SetParamNames("id")
    c.SetParamValues("5")

    require.NoError(t, h.SetDiscount(c))
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Contains(t, rec.Body.String(), "ORDER_CLOSED")
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPaymentRejectsClosedOrder(t *testing.T) {
    h, mock := newTestHandler(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM orders WHERE id`).
        WillReturnRows(orderRow(5, 10, "CLOSED", "PAID", "PAID"))
    mock.ExpectQuery(`SELECT table_id FROM order_linked_tables`).
        WillReturnRows(sqlmock.NewRows([]string{"table_id"}))
    mock.ExpectRollback()

    c, rec := newRequestContext(http.MethodPost, `{"method":"CASH","amount":5}`)
    c.SetParamNames("id")
    c.SetParamValues("5")

    require.NoError(t, h.AddPayment(c))
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Contains(t, rec.Body.String(), "ORDER_CLOSED")
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeTableRejectsClosedOrder(t *testing.T) {
    h, mock := newTestHandler(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM orders WHERE id`).
        WillReturnRows(orderRow(5, 10, "CLOSED", "PAID", "PAID"))
    mock.ExpectQuery(`SELECT table_id FROM order_linked_tables`).
        WillReturnRows(sqlmock.NewRows([]string{"table_id"}))
    mock.ExpectRollback()

    c, rec := newRequestContext(http.MethodPost, `{"table_id":11}`)
    c.SetParamNames("id")
    c.SetParamValues("5")

    require.NoError(t, h.MergeTable(c))
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Contains(t, rec.Body.String(), "ORDER_CLOSED")
    assert.NoError(t, mock.ExpectationsWereMet())
}

// Appending items to a table's existing active order re-claims the
// table as OCCUPIED, so a lagging best-effort free is repaired by the
// next order mutation on the table.
func TestCreateOrderAppendReclaimsTable(t *testing.T) {
    h, mock := newTestHandler(t)
    now := time.Now()

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM restaurant_tables WHERE id`).
        WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "status", "customer_id", "note", "created_at", "updated_at"}).
            AddRow(10, 1, "T10", "FREE", nil, nil, now, now))
    mock.ExpectQuery(`FROM menu_items`).
        WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "price", "station", "is_available"}).
            AddRow(7, 1, "Tea", 4.5, "BAR", true))
    mock.ExpectQuery(`LEFT JOIN order_linked_tables`).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
    mock.ExpectQuery(`FROM orders WHERE id`).
        WillReturnRows(orderRow(42, 10, "NEW", "UNPAID", "OPEN"))
    mock.ExpectQuery(`SELECT table_id FROM order_linked_tables`).
        WillReturnRows(sqlmock.NewRows([]string{"table_id"}))
    mock.ExpectExec(`UPDATE restaurant_tables SET status`).
        WithArgs("OCCUPIED", int64(10)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(`INSERT INTO order_items`).
        WillReturnResult(sqlmock.NewResult(100, 1))
    mock.ExpectQuery(`FROM order_items WHERE order_id`).
        WillReturnRows(sqlmock.NewRows(itemColumns).
            AddRow(100, 42, 7, nil, "[]", 4.5, 1, "", "NEW", false, now, now))
    mock.ExpectQuery(`FROM order_payments WHERE order_id`).
        WillReturnRows(sqlmock.NewRows(paymentColumns))
    mock.ExpectExec(`UPDATE orders SET status`).
        WithArgs("NEW", "UNPAID", int64(42)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    c, rec := newRequestContext(http.MethodPost, `{"table_id":10,"items":[{"menu_item_id":7,"quantity":1}]}`)

    require.NoError(t, h.CreateOrder(c))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

// Unmerging a table that is not a linked member, the primary table
// included, succeeds as a no-op and does not touch the linked set.
func TestUnmergePrimaryTableIsNoOp(t *testing.T) {
    h, mock := newTestHandler(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM orders WHERE id`).
        WillReturnRows(orderRow(5, 10, "NEW", "UNPAID", "OPEN"))
    mock.ExpectQuery(`SELECT table_id FROM order_linked_tables`).
        WillReturnRows(sqlmock.NewRows([]string{"table_id"}).AddRow(11))
    mock.ExpectQuery(`FROM order_items WHERE order_id`).
        WillReturnRows(sqlmock.NewRows(itemColumns))
    mock.ExpectQuery(`FROM order_payments WHERE order_id`).
        WillReturnRows(sqlmock.NewRows(paymentColumns))
    mock.ExpectCommit()

    c, rec := newRequestContext(http.MethodPost, `{"table_id":10}`)
    c.SetParamNames("id")
    c.SetParamValues("5")

    require.NoError(t, h.UnmergeTable(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"linked_table_ids":[11]`)
    assert.NoError(t, mock.ExpectationsWereMet())
}
