package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"etalase/internal/config"
	"etalase/internal/database"
	"etalase/internal/handlers"
	"etalase/internal/metrics"
	"etalase/internal/middleware"
	"etalase/internal/models"
	"etalase/internal/repositories"
	"etalase/internal/services"
	"etalase/internal/session"
	"etalase/internal/storage"
	"etalase/internal/views"
	"etalase/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load(viper.New())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	configureLogging(cfg)

	app, cleanup, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	log.Infof("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("Error during Fiber shutdown: %v", err)
	}
	if err := cleanup(); err != nil {
		log.Errorf("Error releasing resources: %v", err)
	}
	log.Info("Server gracefully stopped")
}

// configureLogging applies the log level and format settings.
func configureLogging(cfg config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// NewApp wires the storefront. The returned cleanup function releases the
// database and message broker connections.
func NewApp(cfg config.Config) (*fiber.App, func() error, error) {
	var closers []func() error
	cleanup := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	// --- Storage and catalog ---
	var (
		backend     storage.Storage
		productRepo repositories.ProductRepository
	)
	if cfg.DatabaseDriver == "memory" {
		backend = storage.NewMemoryStorage()
		productRepo = repositories.NewMockProductRepository()
	} else {
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to access database handle: %w", err)
		}
		closers = append(closers, sqlDB.Close)
		backend = storage.NewGORMStorage(db)
		productRepo = repositories.NewGORMProductRepository(db)
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(registry)

	// --- Services ---
	productService := services.NewProductService(productRepo, services.NewProductFilter(cartMetrics))
	if cfg.SeedCatalog {
		n, err := productService.SeedProducts(defaultCatalog())
		if err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		if n > 0 {
			log.Infof("Seeded %d products", n)
		}
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQEnabled {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		closers = append(closers, mqClient.Close)
		publisher = mqClient

		log.Info("Starting RabbitMQ consumer for checkout events...")
		if err := mqClient.ConsumeCheckoutEvents(rabbitmq.LogCheckoutEvent); err != nil {
			log.WithError(err).Error("Failed to start RabbitMQ consumer")
		}
	}
	checkoutService := services.NewCheckoutService(publisher, cartMetrics)

	renderer, err := views.NewRenderer()
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}

	// --- Handlers ---
	sessions := handlers.NewCartSessions(backend, cartMetrics)
	pageHandler := handlers.NewPageHandler(sessions, productService, checkoutService, renderer)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(sessions, productService)
	checkoutHandler := handlers.NewCheckoutHandler(sessions, checkoutService)

	// --- Fiber app ---
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"storage":  cfg.DatabaseDriver,
			"rabbitmq": cfg.RabbitMQEnabled,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	issuer := session.NewIssuer(cfg.SessionSecret, cfg.SessionTTL)
	storefront := app.Group("", middleware.Session(issuer))
	pageHandler.RegisterRoutes(storefront)

	apiV1 := storefront.Group("/api/v1")
	productHandler.RegisterRoutes(apiV1)
	cartHandler.RegisterRoutes(apiV1)
	checkoutHandler.RegisterRoutes(apiV1)

	return app, cleanup, nil
}

// defaultCatalog is the catalog inserted into an empty product table.
func defaultCatalog() []models.Product {
	return []models.Product{
		{Name: "Classic Tee", Description: "Soft cotton t-shirt", Tag: "apparel", Price: 19.99, Image: "/img/classic-tee.jpg"},
		{Name: "Denim Jacket", Description: "Stonewashed denim jacket", Tag: "apparel", Price: 89.00, Image: "/img/denim-jacket.jpg"},
		{Name: "Ceramic Mug", Description: "350ml glazed mug", Tag: "home", Price: 12.50, Image: "/img/ceramic-mug.jpg"},
		{Name: "Table Lamp", Description: "Brass table lamp with linen shade", Tag: "home", Price: 145.00, Image: "/img/table-lamp.jpg"},
		{Name: "Wireless Headphones", Description: "Noise cancelling over-ear headphones", Tag: "electronics", Price: 249.99, Image: "/img/headphones.jpg"},
		{Name: "Mirrorless Camera", Description: "24MP mirrorless camera body", Tag: "electronics", Price: 899.00, Image: "/img/camera.jpg"},
		{Name: "Laptop Pro 16", Description: "High performance laptop", Tag: "electronics", Price: 1999.00, Image: "/img/laptop.jpg"},
	}
}
