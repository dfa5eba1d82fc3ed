package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/byterize/byterize-backend/internal/auth"
	"github.com/byterize/byterize-backend/internal/config"
	"github.com/byterize/byterize-backend/internal/events"
	"github.com/byterize/byterize-backend/internal/handlers"
	"github.com/byterize/byterize-backend/internal/metrics"
	"github.com/byterize/byterize-backend/internal/repository"
	"github.com/byterize/byterize-backend/internal/server"
	"github.com/byterize/byterize-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "byterize-backend")
	slog.SetDefault(logger)

	logger.Info("Starting byterize-backend", "port", cfg.Server.Port)

	var (
		productRepo repository.ProductRepository
		userRepo    repository.UserRepository
		orderRepo   repository.OrderRepository
		dbPing      func(ctx context.Context) error
	)

	if cfg.Database.Host != "" {
		db, err := initDatabase(cfg, logger)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		productRepo = repository.NewPostgresProductRepository(db, logger)
		userRepo = repository.NewPostgresUserRepository(db, logger)
		orderRepo = repository.NewPostgresOrderRepository(db, logger)
		dbPing = db.PingContext
	} else {
		logger.Warn("DB_HOST not set, using in-memory store")
		productRepo = repository.NewMemoryProductRepository()
		userRepo = repository.NewMemoryUserRepository()
		orderRepo = repository.NewMemoryOrderRepository()
	}

	var cache repository.Cache = repository.NoopCache{}
	if cfg.Features.EnableOrderCaching {
		cache = repository.NewRedisCache(cfg.Redis, logger)
	}

	var publisher events.OrderEventPublisher = events.NoopPublisher{}
	if cfg.Features.EnableOrderEvents {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
	}
	defer publisher.Close()

	m := metrics.New()
	tokens := auth.NewTokenIssuer(cfg.Auth)

	productService := service.NewProductService(productRepo, cache, cfg, logger)
	userService := service.NewUserService(userRepo, tokens, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, cache, publisher, m, cfg, logger)

	h := handlers.NewHandlers(productService, userService, orderService, cfg, logger, dbPing)

	srv := server.New(h, tokens, m, cfg)

	go func() {
		logger.Info("Server starting",
			"port", cfg.Server.Port,
			"order_caching", cfg.Features.EnableOrderCaching,
			"order_events", cfg.Features.EnableOrderEvents,
		)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

func initDatabase(cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Database connected", "host", cfg.Database.Host, "name", cfg.Database.Name)
	return db, nil
}
