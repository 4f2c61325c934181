package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/repository"
	"github.com/example/storefront/internal/routes"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseURL, !cfg.IsProduction(), log.Named("db"))
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	notifier, closeNotifier, err := services.NewNotifier(cfg, log)
	if err != nil {
		log.Fatal("notifier setup failed", zap.Error(err))
	}
	defer func() { _ = closeNotifier() }()

	limiter, closeLimiter := services.NewRateLimiter(cfg, log.Named("ratelimit"))
	defer func() { _ = closeLimiter() }()

	tx := repository.NewTransactor(db)
	users := repository.NewUsers(db)
	credentials := repository.NewCredentials(db)
	products := repository.NewProducts(db)

	expiry := services.NewOTPExpiry(credentials, log.Named("otp"))
	defer expiry.Stop()

	cart := services.NewCartService(repository.NewCarts(db))
	auth := services.NewAuthService(services.AuthDeps{
		Tx:          tx,
		Users:       users,
		Credentials: credentials,
		Cart:        cart,
		Notifier:    notifier,
		Limiter:     limiter,
		Tokens:      utils.NewTokenIssuer(cfg.JWTSecret),
		Expiry:      expiry,
		Log:         log.Named("auth"),
	}, services.AuthSettingsFrom(cfg))

	telegram := services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.AdminChat, cfg.Stripe.Currency, log.Named("telegram"))
	if !telegram.Enabled() {
		log.Info("telegram order notifications disabled")
	}

	var provider services.PaymentProvider
	if cfg.Stripe.SecretKey != "" {
		provider = services.NewStripeProvider(cfg.Stripe.SecretKey)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, payment intents disabled")
	}

	svc := routes.Services{
		Auth:     auth,
		Cart:     cart,
		Orders:   services.NewOrderService(tx, repository.NewOrders(db), products, services.FlatPricing{}, telegram, log.Named("orders")),
		Catalog:  services.NewCatalogService(products),
		Profiles: services.NewProfileService(users, repository.NewAddresses(db)),
		Inbox:    services.NewInboxService(repository.NewInbox(db), log.Named("inbox")),
		Payments: services.NewPaymentService(provider, products, repository.NewPayments(db), cfg.Stripe.Currency, log.Named("payments")),
	}

	janitor := services.NewJanitor(credentials, log.Named("janitor"))
	if err := janitor.Start(cfg.JanitorSchedule); err != nil {
		log.Fatal("janitor schedule invalid", zap.Error(err))
	}
	defer janitor.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Storefront Backend",
		ErrorHandler: handlers.ErrorHandler(log.Named("http")),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	app.Use(metrics.Middleware())

	routes.Register(app, svc, cfg)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Warn("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("starting server", zap.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal("fiber.Listen error", zap.Error(err))
	}
	log.Info("server stopped")
}
