package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nicolasdagostino/a615-sub000/internal/cache"
	"github.com/nicolasdagostino/a615-sub000/internal/config"
	"github.com/nicolasdagostino/a615-sub000/internal/database"
	"github.com/nicolasdagostino/a615-sub000/internal/events"
	"github.com/nicolasdagostino/a615-sub000/internal/logger"
	"github.com/nicolasdagostino/a615-sub000/internal/middleware"
	"github.com/nicolasdagostino/a615-sub000/internal/repository"
	"github.com/nicolasdagostino/a615-sub000/internal/routes"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
	realtime "github.com/nicolasdagostino/a615-sub000/internal/websocket"
	"github.com/nicolasdagostino/a615-sub000/internal/wodstore"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		zl.Error("DB_URL is required")
		os.Exit(1)
	}
	if err := database.ConnectDB(ctx, cfg.DBUrl, zl); err != nil {
		zl.Errorw("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer database.CloseDB()

	// 3. Optional infrastructure
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			if cfg.WODStore == "redis" {
				zl.Errorw("redis is required for the WOD store", "err", err)
				os.Exit(1)
			}
			zl.Warnw("redis unavailable, rate limiting disabled", "err", err)
		} else {
			defer rdb.Close()
		}
	}

	store, err := wodstore.New(wodstore.Options{
		Backend:  cfg.WODStore,
		FilePath: cfg.WODFile,
		RedisKey: cfg.WODRedisKey,
		Redis:    rdb,
	}, zl)
	if err != nil {
		zl.Errorw("failed to open WOD store", "backend", cfg.WODStore, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled() {
		brokers := events.SplitBrokers(cfg.KafkaBrokers)
		publisher = events.NewKafkaPublisher(brokers, cfg.EventsTopic)
		zl.Infow("publishing domain events", "brokers", brokers, "topic", cfg.EventsTopic)
	}
	publisher = events.NewAsyncPublisher(publisher, zl, 256)
	defer publisher.Close()

	hub := realtime.NewHub(zl)
	go hub.Run(ctx)

	if cfg.DefaultAdminEmail != "" && cfg.DefaultAdminPassword != "" {
		authService := services.NewAuthService(database.DB, repository.NewUserRepository(database.DB), cfg.JWTSecret)
		created, err := authService.EnsureAdmin(ctx, cfg.DefaultAdminEmail, cfg.DefaultAdminPassword)
		if err != nil {
			zl.Errorw("failed to seed admin account", "err", err)
		} else if created {
			zl.Infow("seeded admin account", "email", cfg.DefaultAdminEmail)
		}
	}

	// 4. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New())
	app.Use(middleware.RequestLogger(zl))
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"timezone": cfg.Timezone,
		})
	})
	routes.RegisterRoutes(app, cfg, routes.Dependencies{
		DB:        database.DB,
		Redis:     rdb,
		WODStore:  store,
		Publisher: publisher,
		Hub:       hub,
		Logger:    zl,
	})

	// 5. Start Server
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			zl.Errorw("graceful shutdown failed", "err", err)
		}
	}()

	zl.Infow("server starting", "port", cfg.Port, "env", cfg.AppEnv, "wod_store", cfg.WODStore)
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Errorw("server failed", "err", err)
	}
	zl.Info("server stopped")
}
