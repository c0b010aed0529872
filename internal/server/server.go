package server

import (
	"fmt"
	"net/http"
	"time"

	"catalog-service/internal/cache"
	"catalog-service/internal/client"
	"catalog-service/internal/config"
	"catalog-service/internal/database"
	"catalog-service/internal/domain"
	"catalog-service/internal/metrics"
	custommiddleware "catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/service"
	"catalog-service/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "catalog-service"

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires the catalog API. A nil db selects the in-memory store; a
// nil redisClient selects in-process caches and disables rate limiting.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, db, redisClient),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}
}

// NewRouter builds the HTTP handler with every route and middleware applied
func NewRouter(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) http.Handler {
	router := chi.NewRouter()

	router.Use(metrics.NewHTTPMetrics(serviceName).Middleware)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env != "production"))
	for _, mw := range custommiddleware.DefaultMiddlewareStack(logger) {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))

	if redisClient != nil && cfg.RateLimit.Requests > 0 {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "catalog_rate_limit",
		}, logger))
	}

	router.Get("/health", healthHandler(db))
	router.Handle("/metrics", metrics.Handler())

	var productRepo repository.ProductRepository
	var categoryRepo repository.CategoryRepository
	if db != nil {
		productRepo = repository.NewProductRepository(db.DB())
		categoryRepo = repository.NewCategoryRepository(db.DB())
	} else {
		logger.Warn("No database configured, using in-memory store")
		productRepo = repository.NewInMemoryProductRepository()
		categoryRepo = repository.NewInMemoryCategoryRepository()
	}

	opts := cache.Options{
		TTL:             cfg.Cache.TTL,
		MaxEntries:      cfg.Cache.MaxEntries,
		InitialCapacity: cfg.Cache.InitialCapacity,
	}
	productCaches, categoryCache := newCaches(cfg.Cache.Backend, redisClient, opts, logger)

	httpClient := client.NewHTTPClient(cfg.Services.ConnectTimeout, cfg.Services.ReadTimeout)
	inventoryClient := client.NewInventoryClient(cfg.Services.InventoryURL, httpClient, logger)
	notificationClient := client.NewNotificationClient(cfg.Services.NotificationURL, httpClient, logger)

	productService := service.NewProductService(
		productRepo,
		productCaches,
		inventoryClient,
		notificationClient,
		cfg.Catalog.LowStockThreshold,
		logger,
	)
	categoryService := service.NewCategoryService(categoryRepo, productRepo, categoryCache, logger)

	guards := writeGuards(cfg.JWT.Secret, logger)

	transport.NewProductHandler(productService, cfg.Catalog.LowStockThreshold, logger).RegisterRoutes(router, guards)
	transport.NewCategoryHandler(categoryService, logger).RegisterRoutes(router, guards)

	return router
}

func newCaches(backend string, redisClient *redis.Client, opts cache.Options, logger *zap.Logger) (service.ProductCaches, cache.Cache[*domain.Category]) {
	if backend == "redis" && redisClient != nil {
		return service.ProductCaches{
				Products:         cache.NewRedis[*domain.Product](cache.Products, redisClient, opts, logger),
				ProductInventory: cache.NewRedis[*domain.Product](cache.ProductInventory, redisClient, opts, logger),
			},
			cache.NewRedis[*domain.Category](cache.Categories, redisClient, opts, logger)
	}
	if backend == "redis" {
		logger.Warn("Redis cache requested but Redis is disabled, using in-process cache")
	}
	return service.ProductCaches{
			Products:         cache.NewLRU[*domain.Product](cache.Products, opts),
			ProductInventory: cache.NewLRU[*domain.Product](cache.ProductInventory, opts),
		},
		cache.NewLRU[*domain.Category](cache.Categories, opts)
}

// writeGuards protects mutating routes when a JWT secret is configured.
// Writes need an admin or catalog-manager role, deletes need admin.
func writeGuards(secret string, logger *zap.Logger) transport.Guards {
	if secret == "" {
		logger.Warn("JWT_SECRET not set, catalog writes are unauthenticated")
		return transport.Guards{}
	}
	auth := custommiddleware.AuthMiddleware(secret, logger)
	return transport.Guards{
		Write: []func(http.Handler) http.Handler{
			auth,
			custommiddleware.RequireRole([]string{custommiddleware.RoleAdmin, custommiddleware.RoleCatalogManager}, logger),
		},
		Delete: []func(http.Handler) http.Handler{
			auth,
			custommiddleware.RequireAdmin(logger),
		},
	}
}

func healthHandler(db database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "up", "store": "memory"})
			return
		}

		health := db.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
