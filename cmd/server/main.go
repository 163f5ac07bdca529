package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/restaurant-floor/internal/config"     // Internal config loader
	"github.com/iliyamo/restaurant-floor/internal/database"   // MySQL connection pool
	"github.com/iliyamo/restaurant-floor/internal/handler"    // HTTP handlers
	"github.com/iliyamo/restaurant-floor/internal/permission" // Permission gate
	"github.com/iliyamo/restaurant-floor/internal/queue"      // Audit trail consumer
	"github.com/iliyamo/restaurant-floor/internal/repository" // Data access layer
	"github.com/iliyamo/restaurant-floor/internal/router"     // Internal router setup
)

func main() {
	_ = godotenv.Load()  // Load .env if present; real env always wins
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName) // Open MySQL pool
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // Redis client for cache and rate limiting

	orderRepo := repository.NewOrderRepo(db)   // Orders, items, payments, linked tables
	tableRepo := repository.NewTableRepo(db)   // Floor tables
	menuRepo := repository.NewMenuItemRepo(db) // Menu catalog
	permRepo := repository.NewPermissionRepo(db)

	gate := permission.NewGate(permRepo) // Tenant-scoped permission checks

	orders := handler.NewOrderHandler(orderRepo, tableRepo, menuRepo, gate)
	tables := handler.NewTableHandler(tableRepo)

	// The audit consumer drains audit.events into the append-only log.
	// It reconnects on its own, so a broker outage only delays entries.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()          // Create Echo instance
	router.RegisterRoutes(e) // Health check
	router.RegisterFloor(e, orders, tables, gate, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
