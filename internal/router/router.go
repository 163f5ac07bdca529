package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-floor/internal/config"     // cache and rate limit configuration
	"github.com/iliyamo/restaurant-floor/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/restaurant-floor/internal/middleware" // JWT, permission, cache and rate limit middleware
	"github.com/iliyamo/restaurant-floor/internal/permission" // permission keys
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check, used by
// load balancers and monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterFloor registers the whole authenticated surface under /v1: the
// table administration endpoints and the order lifecycle commands.  Every
// route runs the JWT middleware; per-operation permission keys are applied
// where the key is fixed for the route.  Operations whose required key
// depends on the request body (direct item status changes) enforce the gate
// inside the handler instead.
func RegisterFloor(e *echo.Echo, o *handler.OrderHandler, t *handler.TableHandler, gate *permission.Gate, jwtSecret string, rdb *redis.Client) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	// Reject tokens carrying unknown roles before any handler runs.
	v1.Use(middleware.RequireRole(permission.RoleSuperAdmin, permission.RoleAdmin, permission.RoleWaiter, permission.RoleKitchen))
	v1.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Read endpoints sit behind the Redis response cache.  Mutations
	// bypass it because the cache only stores configured methods.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Floor plan administration.  Creating and editing tables is gated by
	// TABLE_MANAGE; listing the floor is open to any authenticated staff.
	v1.POST("/tables", t.CreateTable, middleware.RequirePermission(gate, permission.TableManage))
	v1.PATCH("/tables/:id", t.UpdateTable, middleware.RequirePermission(gate, permission.TableManage))
	v1.GET("/tables", t.ListTables, cache)

	// Orders and items.
	v1.POST("/orders", o.CreateOrder)
	v1.GET("/orders", o.ListActiveOrders, cache)
	v1.GET("/orders/:id", o.GetOrder)
	v1.PATCH("/orders/:id/items/:itemID/status", o.SetItemStatus)
	v1.POST("/orders/:id/items/:itemID/serve", o.ServeItem, middleware.RequirePermission(gate, permission.OrderItemServe))
	v1.POST("/orders/:id/items/:itemID/complimentary", o.SetComplimentary, middleware.RequirePermission(gate, permission.OrderComplimentary))
	v1.POST("/orders/:id/ready", o.MarkStationReady)

	// Billing.
	v1.PUT("/orders/:id/discount", o.SetDiscount, middleware.RequirePermission(gate, permission.OrderDiscount))
	v1.POST("/orders/:id/payments", o.AddPayment, middleware.RequirePermission(gate, permission.OrderPayments))
	v1.POST("/orders/:id/bill-request", o.RequestBill, middleware.RequirePermission(gate, permission.OrderPayments))
	v1.POST("/orders/:id/payment-confirm", o.ConfirmPayment, middleware.RequirePermission(gate, permission.OrderPayments))
	v1.POST("/orders/:id/close", o.CloseOrder, middleware.RequirePermission(gate, permission.OrderClose))

	// Table topology.
	v1.POST("/orders/:id/move", o.MoveTable, middleware.RequirePermission(gate, permission.TableManage))
	v1.POST("/orders/:id/merge", o.MergeTable, middleware.RequirePermission(gate, permission.TableManage))
	v1.POST("/orders/:id/unmerge", o.UnmergeTable, middleware.RequirePermission(gate, permission.TableManage))

	// Menu browsing for order entry.
	v1.GET("/menu", o.ListMenu, cache)
}
