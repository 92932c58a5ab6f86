package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/air-quality-ingest/internal/api/http"
	"github.com/i474232898/air-quality-ingest/internal/config"
	"github.com/i474232898/air-quality-ingest/internal/dashboard"
	"github.com/i474232898/air-quality-ingest/internal/logging"
)

func main() {
	cfg, err := config.LoadDashboard()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := dashboard.OpenPostgres(ctx, cfg.WarehouseDSN)
	if err != nil {
		zl.Fatal("failed to connect to warehouse", zap.Error(err))
	}
	defer pg.Close()

	var wh dashboard.Warehouse = pg
	if cfg.RedisAddr != "" {
		rc, err := dashboard.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			zl.Warn("query cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			wh = dashboard.NewCachedWarehouse(pg, rc, cfg.CacheTTL, zl)
			zl.Info("query cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:               "air-quality-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "air-quality-dashboard",
		})
	})

	httpapi.RegisterRoutes(app, wh, zl)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Error("fiber server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
}
