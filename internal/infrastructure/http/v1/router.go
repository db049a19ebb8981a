// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gespro/internal/domain/auth"
	"gespro/internal/domain/billing"
	"gespro/internal/domain/catalogs/category"
	"gespro/internal/domain/catalogs/client"
	"gespro/internal/domain/catalogs/product"
	"gespro/internal/domain/catalogs/supplier"
	"gespro/internal/domain/documents/docsnap"
	"gespro/internal/domain/documents/purchaseorder"
	"gespro/internal/domain/documents/sale"
	"gespro/internal/domain/expense"
	"gespro/internal/domain/notification"
	"gespro/internal/domain/reports"
	"gespro/internal/domain/settings"
	"gespro/internal/infrastructure/http/v1/dto"
	"gespro/internal/infrastructure/http/v1/handlers"
	"gespro/internal/infrastructure/http/v1/middleware"
	"gespro/internal/infrastructure/storage/postgres"
	"gespro/internal/infrastructure/storage/postgres/auth_repo"
	"gespro/internal/infrastructure/storage/postgres/billing_repo"
	"gespro/internal/infrastructure/storage/postgres/catalog_repo"
	"gespro/internal/infrastructure/storage/postgres/document_repo"
	"gespro/internal/infrastructure/storage/postgres/expense_repo"
	"gespro/internal/infrastructure/storage/postgres/notification_repo"
	"gespro/internal/infrastructure/storage/postgres/report_repo"
	"gespro/internal/infrastructure/storage/postgres/settings_repo"
	"gespro/pkg/logger"
	"gespro/pkg/numerator"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (health checks)
	Pool *postgres.Pool

	// TxManager coordinates database transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTService issues and validates access tokens
	JWTService *auth.JWTService

	// AuthConfig tunes lockout and token lifetimes
	AuthConfig auth.ServiceConfig

	// Gateway is the external payment gateway client
	Gateway billing.GatewayClient

	// FileStore persists uploaded company logos
	FileStore settings.FileStore

	// Audit writes the per-owner change trail (optional)
	Audit *postgres.AuditService

	// UploadsDir is served statically under /uploads when set
	UploadsDir string

	// Version reported by /health/info
	Version string

	// IdempotencyTTL controls replay window for mutating requests.
	// Zero disables the idempotency middleware.
	IdempotencyTTL time.Duration

	// AuthRateLimit is a limiter format like "10-M" for public auth
	// endpoints. Empty disables rate limiting.
	AuthRateLimit string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Uploaded logos are public assets.
	if cfg.UploadsDir != "" {
		router.Static("/uploads", cfg.UploadsDir)
	}

	// Shared services
	num := numerator.New(cfg.TxManager)
	notificationService := notification.NewService(notification_repo.NewNotificationRepo(cfg.TxManager))

	authService := auth.NewService(
		auth_repo.NewUserRepo(cfg.TxManager),
		auth_repo.NewProfileRepo(cfg.TxManager),
		auth_repo.NewTokenRepo(cfg.TxManager),
		cfg.TxManager,
		cfg.JWTService,
		cfg.AuthConfig,
	)

	billingService := billing.NewService(
		billing_repo.NewPlanRepo(cfg.TxManager),
		billing_repo.NewSubscriptionRepo(cfg.TxManager),
		cfg.Gateway,
		cfg.TxManager,
	).WithNotifier(notificationService)

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg, authService)

		// Protected endpoints: JWT plus idempotent replay of mutations.
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTService))
		if cfg.IdempotencyTTL > 0 {
			store := postgres.NewIdempotencyStore(cfg.TxManager, cfg.IdempotencyTTL)
			protected.Use(middleware.Idempotency(store))
		}

		registerBillingRoutes(protected, billingService)
		registerNotificationRoutes(protected, notificationService)

		// Business endpoints additionally require an active subscription
		// (administrators pass through).
		business := protected.Group("")
		business.Use(middleware.RequireSubscription(billingService))

		catalogServices := registerCatalogRoutes(business, cfg, num)
		registerDocumentRoutes(business, cfg, num, catalogServices, notificationService)
		registerReportRoutes(business, cfg)
		registerSettingsRoutes(business, cfg)
		registerAuditRoutes(business, cfg)

		// Admin endpoints
		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		registerAdminRoutes(admin, authService, billingService)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig, authService *auth.Service) {
	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, authService)

	// Public auth endpoints, rate limited against brute force.
	public := rg.Group("/auth")
	if cfg.AuthRateLimit != "" {
		public.Use(middleware.RateLimit(cfg.AuthRateLimit))
	}
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/refresh", authHandler.Refresh)
	public.POST("/forgot-password", authHandler.ForgotPassword)
	public.POST("/reset-password", authHandler.ResetPassword)

	// Authenticated account endpoints.
	protected := rg.Group("/auth")
	protected.Use(middleware.Auth(cfg.JWTService))
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
	protected.POST("/password", authHandler.UpdatePassword)
	protected.PUT("/profile", authHandler.UpdateProfile)
}

// catalogServices groups the catalog services shared with documents.
type catalogServices struct {
	clients    *client.Service
	categories *category.Service
	suppliers  *supplier.Service
	products   *product.Service
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig, num *numerator.Service) catalogServices {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	services := catalogServices{
		clients:    client.NewService(catalog_repo.NewClientRepo(cfg.TxManager), cfg.TxManager, num),
		categories: category.NewService(catalog_repo.NewCategoryRepo(cfg.TxManager), cfg.TxManager, num),
		suppliers:  supplier.NewService(catalog_repo.NewSupplierRepo(cfg.TxManager), cfg.TxManager, num),
		products:   product.NewService(catalog_repo.NewProductRepo(cfg.TxManager), cfg.TxManager, num),
	}

	// --- CLIENTS ---
	{
		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*client.Client, dto.CreateClientRequest, dto.UpdateClientRequest]{
			Service:    services.clients.CatalogService,
			EntityName: "client",
			MapCreateDTO: func(req dto.CreateClientRequest) (*client.Client, error) {
				return req.ToEntity(), nil
			},
			MapUpdateDTO: func(req dto.UpdateClientRequest, existing *client.Client) (*client.Client, error) {
				req.ApplyTo(existing)
				return existing, nil
			},
		})
		RegisterCatalogRoutes(catalogs.Group("/clients"), handler)
	}

	// --- CATEGORIES ---
	{
		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*category.Category, dto.CreateCategoryRequest, dto.UpdateCategoryRequest]{
			Service:    services.categories.CatalogService,
			EntityName: "category",
			MapCreateDTO: func(req dto.CreateCategoryRequest) (*category.Category, error) {
				return req.ToEntity(), nil
			},
			MapUpdateDTO: func(req dto.UpdateCategoryRequest, existing *category.Category) (*category.Category, error) {
				req.ApplyTo(existing)
				return existing, nil
			},
		})
		RegisterCatalogRoutes(catalogs.Group("/categories"), handler)
	}

	// --- SUPPLIERS ---
	{
		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]{
			Service:    services.suppliers.CatalogService,
			EntityName: "supplier",
			MapCreateDTO: func(req dto.CreateSupplierRequest) (*supplier.Supplier, error) {
				return req.ToEntity(), nil
			},
			MapUpdateDTO: func(req dto.UpdateSupplierRequest, existing *supplier.Supplier) (*supplier.Supplier, error) {
				req.ApplyTo(existing)
				return existing, nil
			},
		})
		RegisterCatalogRoutes(catalogs.Group("/suppliers"), handler)
	}

	// --- PRODUCTS ---
	{
		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
			Service:    services.products.CatalogService,
			EntityName: "product",
			MapCreateDTO: func(req dto.CreateProductRequest) (*product.Product, error) {
				return req.ToEntity()
			},
			MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) (*product.Product, error) {
				if err := req.ApplyTo(existing); err != nil {
					return nil, err
				}
				return existing, nil
			},
		})
		RegisterCatalogRoutes(catalogs.Group("/products"), handler)
	}

	return services
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(
	rg *gin.RouterGroup,
	cfg RouterConfig,
	num *numerator.Service,
	catalogs catalogServices,
	notifier *notification.Service,
) {
	docs := rg.Group("/document")
	baseHandler := handlers.NewBaseHandler()

	snapshotService := docsnap.NewService(document_repo.NewSnapshotRepo(cfg.TxManager), num, cfg.TxManager)

	// --- SALES ---
	{
		service := sale.NewService(
			document_repo.NewSaleRepo(cfg.TxManager),
			catalogs.clients,
			catalogs.products,
			catalogs.categories,
			num,
			cfg.TxManager,
		).WithSnapshots(snapshotService).WithNotifier(notifier)

		handler := handlers.NewSaleHandler(baseHandler, service).WithAudit(cfg.Audit)

		group := docs.Group("/sales")
		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.POST("/:id/payments", handler.RecordPayment)
		group.POST("/:id/cancel", handler.Cancel)
		group.DELETE("/:id", handler.Delete)
	}

	// --- PURCHASE ORDERS ---
	{
		service := purchaseorder.NewService(
			document_repo.NewPurchaseOrderRepo(cfg.TxManager),
			catalogs.suppliers,
			catalogs.products,
			catalogs.categories,
			num,
			cfg.TxManager,
		).WithSnapshots(snapshotService)

		handler := handlers.NewPurchaseOrderHandler(baseHandler, service).WithAudit(cfg.Audit)

		group := docs.Group("/purchase-orders")
		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.POST("/:id/receive", handler.Receive)
		group.DELETE("/:id", handler.Delete)
	}

	// --- RECEIPT SNAPSHOTS ---
	{
		handler := handlers.NewSnapshotHandler(baseHandler, snapshotService)

		group := docs.Group("/receipts")
		group.GET("", handler.List)
		group.GET("/:id", handler.Get)
		group.DELETE("/:id", handler.Delete)
	}

	// --- EXPENSES ---
	{
		service := expense.NewService(expense_repo.NewExpenseRepo(cfg.TxManager), cfg.TxManager)
		handler := handlers.NewExpenseHandler(baseHandler, service)

		group := docs.Group("/expenses")
		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/month-total", handler.MonthTotal)
		group.GET("/:id", handler.Get)
		group.PUT("/:id", handler.Update)
		group.DELETE("/:id", handler.Delete)
	}
}

// registerBillingRoutes registers subscription endpoints. They stay outside
// the subscription gate so an expired account can renew.
func registerBillingRoutes(rg *gin.RouterGroup, service *billing.Service) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewBillingHandler(baseHandler, service)

	group := rg.Group("/billing")
	group.GET("/plans", handler.ListPlans)
	group.GET("/subscriptions", handler.History)
	group.POST("/subscriptions", handler.Subscribe)
	group.GET("/subscriptions/current", handler.Current)
	group.POST("/subscriptions/:id/confirm", handler.ConfirmPayment)
}

// registerNotificationRoutes registers in-app notification endpoints.
func registerNotificationRoutes(rg *gin.RouterGroup, service *notification.Service) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewNotificationHandler(baseHandler, service)

	group := rg.Group("/notifications")
	group.GET("", handler.List)
	group.GET("/unread-count", handler.CountUnread)
	group.POST("/read-all", handler.MarkAllRead)
	group.POST("/:id/read", handler.MarkRead)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	service := reports.NewService(report_repo.NewReportRepo(cfg.TxManager))
	handler := handlers.NewReportsHandler(baseHandler, service)

	rg.GET("/reports/dashboard", handler.Dashboard)
}

// registerSettingsRoutes registers company settings endpoints.
func registerSettingsRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	service := settings.NewService(settings_repo.NewSettingsRepo(cfg.TxManager), cfg.FileStore)
	handler := handlers.NewSettingsHandler(baseHandler, service)

	group := rg.Group("/settings")
	group.GET("", handler.Get)
	group.PUT("", handler.Update)
	group.POST("/logo", handler.UploadLogo)
}

// registerAuditRoutes registers the audit trail endpoint.
func registerAuditRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Audit == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewAuditHandler(baseHandler, cfg.Audit)

	rg.GET("/audit/:entityType/:id", handler.EntityHistory)
}

// registerAdminRoutes registers platform administration endpoints.
func registerAdminRoutes(rg *gin.RouterGroup, authService *auth.Service, billingService *billing.Service) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewAdminHandler(baseHandler, authService, billingService)

	rg.GET("/accounts", handler.ListAccounts)
	rg.POST("/accounts/:id/promote", handler.PromoteAccount)
	rg.POST("/accounts/:id/toggle-activation", handler.ToggleAccountActivation)
	rg.POST("/plans", handler.CreatePlan)
	rg.POST("/plans/:id/toggle", handler.TogglePlan)
	rg.POST("/subscriptions/expire", handler.ExpireSubscriptions)
}
