package server

import (
	"fmt"
	"net/http"
	"time"

	"pos-inventory/internal/config"
	"pos-inventory/internal/database"
	custommiddleware "pos-inventory/internal/middleware"
	"pos-inventory/internal/repository"
	"pos-inventory/internal/service"
	"pos-inventory/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// routerDeps is everything the router needs. A nil tokens disables auth and a nil redis disables rate limiting.
type routerDeps struct {
	products  service.ProductService
	sales     service.SaleService
	saleItems service.SaleItemService
	tokens    service.TokenService
	redis     *redis.Client
	health    func() map[string]string
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbService database.Service) *Server {
	db := dbService.DB()

	// Initialize repositories
	repos := repository.NewRepositories(db)
	transactor := repository.NewTransactor(db)

	// Initialize services
	saleService := service.NewSaleService(repos.Sales, transactor)
	deps := routerDeps{
		products:  service.NewProductService(repos.Products, transactor),
		sales:     saleService,
		saleItems: service.NewSaleItemService(repos.SaleItems, transactor, saleService),
		health:    dbService.Health,
	}

	if cfg.JWT.Secret != "" {
		deps.tokens = service.NewTokenService(cfg.JWT.Secret)
	} else {
		logger.Warn("JWT_SECRET not set, write endpoints are unauthenticated")
	}

	if cfg.RateLimit.Enabled {
		deps.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      newRouter(cfg, logger, deps),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     dbService,
		redis:  deps.redis,
	}
}

func newRouter(cfg *config.Config, logger *zap.Logger, deps routerDeps) http.Handler {
	router := chi.NewRouter()

	// Fallbacks are set first so mounted sub-routers inherit them
	router.NotFound(custommiddleware.NotFoundHandler)
	router.MethodNotAllowed(custommiddleware.MethodNotAllowedHandler)

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))

	if deps.redis != nil {
		router.Use(custommiddleware.RateLimitMiddleware(deps.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "pos_rate_limit",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := deps.health()
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, stats)
	})

	// Catalog changes need an admin; recording sales is open to cashiers too
	var productGuard, saleGuard func(http.Handler) http.Handler
	if deps.tokens != nil {
		authMiddleware := custommiddleware.AuthMiddleware(deps.tokens, logger)
		productGuard = custommiddleware.WritesOnly(
			authMiddleware,
			custommiddleware.RequireAdmin(logger),
		)
		saleGuard = custommiddleware.WritesOnly(
			authMiddleware,
			custommiddleware.RequireRole([]string{service.RoleAdmin, service.RoleCashier}, logger),
		)
	}

	transport.NewProductHandler(deps.products, logger).RegisterRoutes(router, productGuard)
	transport.NewSaleHandler(deps.sales, logger).RegisterRoutes(router, saleGuard)
	transport.NewSaleItemHandler(deps.saleItems, logger).RegisterRoutes(router, saleGuard)

	return router
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
