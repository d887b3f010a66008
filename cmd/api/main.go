package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cafe-stock/internal/config"
	"cafe-stock/internal/handler"
	"cafe-stock/internal/repository"
	"cafe-stock/internal/router"
	"cafe-stock/internal/service"
	"cafe-stock/internal/ws"
	"cafe-stock/pkg/database"
	"cafe-stock/pkg/jwt"
	"cafe-stock/pkg/logger"
	"cafe-stock/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg := config.LoadEnv()

	// 2. Logger
	zapLog, err := logger.New(logger.Config{
		IsDevelopment: cfg.IsDevelopment(),
		Level:         cfg.Logger.Level,
		Encoding:      cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLog.Sync()

	// 3. Setup Database
	db, err := database.ConnectDB(cfg.Database, zapLog, cfg.IsDevelopment())
	if err != nil {
		zapLog.Fatal("connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zapLog.Fatal("migrate database", zap.Error(err))
	}

	slips, err := storage.NewSlipStore(cfg.Storage.SlipDir)
	if err != nil {
		zapLog.Fatal("open slip store", zap.Error(err))
	}

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(zapLog)
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewMovementRepo(db)

	clock := service.SystemClock
	billingService := service.NewBillingService(
		db,
		repository.NewSubscriptionRepo(db),
		repository.NewPaymentRepo(db),
		repository.NewInvoiceProfileRepo(db),
		cfg.Plan,
		cfg.Seller,
		wsHub,
		clock,
		zapLog,
	)
	invService := service.NewInventoryService(db, productRepo, movementRepo, wsHub, clock, zapLog)
	dashService := service.NewDashboardService(invService, productRepo, movementRepo, clock)
	authService := service.NewAuthService(db, userRepo, billingService, jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTLHours), clock, zapLog)
	userService := service.NewUserService(userRepo, zapLog)

	// 6. Seed the bootstrap admin on an empty database
	seeded, err := authService.SeedAdmin(context.Background())
	if err != nil {
		zapLog.Warn("seed admin", zap.Error(err))
	} else if seeded {
		zapLog.Info("bootstrap admin created", zap.String("username", service.BootstrapUsername))
	}

	if !cfg.Subscription.Enforced {
		zapLog.Warn("subscription gate disabled, every account has full access")
	}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   cfg.Server.AppName,
		BodyLimit: 10 * 1024 * 1024,
	})

	// Middleware
	app.Use(fiberlogger.New()) // Logging request
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	// 8. Routes
	router.SetupRoutes(app, router.Deps{
		Auth:                 authService,
		Billing:              billingService,
		SubscriptionEnforced: cfg.Subscription.Enforced,
		Hub:                  wsHub,
		Log:                  zapLog,
		AuthHandler:          handler.NewAuthHandler(authService, zapLog),
		InventoryHandler:     handler.NewInventoryHandler(invService, zapLog),
		DashboardHandler:     handler.NewDashboardHandler(dashService, zapLog),
		UserHandler:          handler.NewUserHandler(userService, zapLog),
		BillingHandler:       handler.NewBillingHandler(billingService, slips, zapLog),
	})

	// 9. Graceful Shutdown
	go func() {
		zapLog.Info("listening", zap.String("port", cfg.Server.Port), zap.String("db_driver", database.Driver(cfg.Database)))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			zapLog.Panic("listen", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		zapLog.Error("server forced to shutdown", zap.Error(err))
	}
	wsHub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	zapLog.Info("server exited")
}
