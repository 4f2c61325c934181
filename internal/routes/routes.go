package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// Services are the domain services the HTTP surface delegates to.
type Services struct {
	Auth     *services.AuthService
	Cart     *services.CartService
	Orders   *services.OrderService
	Catalog  *services.CatalogService
	Profiles *services.ProfileService
	Inbox    *services.InboxService
	Payments *services.PaymentService
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, svc Services, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	cartHandler := handlers.NewCartHandler(svc.Cart)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog)
	productHandler := handlers.NewProductHandler(svc.Catalog)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	profileHandler := handlers.NewProfileHandler(svc.Profiles)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments)
	inboxHandler := handlers.NewInboxHandler(svc.Inbox)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Auth routes. change-password and logout resolve the session token themselves.
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/verify", authHandler.Verify)
	auth.Post("/verify-email", authHandler.VerifyEmail)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/change-password", authHandler.ChangePassword)
	auth.Post("/logout", authHandler.Logout)

	// Catalog routes
	api.Get("/categories", catalogHandler.ListCategories)

	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Post("/overview", productHandler.Overview)
	products.Post("/sort", productHandler.Sort)
	products.Get("/category/:categoryId", productHandler.ByCategory)
	products.Get("/type/:type", productHandler.ByType)
	products.Get("/:id", productHandler.GetProduct)
	products.Get("/:id/images", productHandler.Images)

	// Inbox
	api.Post("/subscribe", inboxHandler.Subscribe)
	api.Post("/contact", inboxHandler.Contact)
	api.Post("/support", inboxHandler.Support)

	// Protected routes
	protected := api.Group("", middleware.SessionAuth(svc.Auth))

	protected.Post("/cart", cartHandler.Merge)
	protected.Get("/cart", cartHandler.List)

	protected.Post("/orders", orderHandler.Place)
	protected.Get("/orders", orderHandler.List)
	protected.Get("/orders/:trackingId", orderHandler.Receipt)

	protected.Post("/payments/intent", paymentHandler.CreateIntent)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/addresses", profileHandler.ListAddresses)
	protected.Post("/profile/addresses", profileHandler.CreateAddress)
}
