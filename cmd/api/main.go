package main

// @title PlaceNet Simulator API
// @version 1.0.0
// @description Эпидемическая симуляция на графе перемещений между местами (PlaceNet).
// @description
// @description Основные возможности:
// @description - Запуск прогона с переопределением параметров
// @description - Ряд доли заражённых и агрегаты по эпохам
// @description - Заражённые места на конец прогона

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/placenet-simulator/docs"
	"github.com/placenet-simulator/internal/config"
	httpDelivery "github.com/placenet-simulator/internal/delivery/http"
	"github.com/placenet-simulator/internal/delivery/http/handler"
	"github.com/placenet-simulator/internal/domain/repository"
	"github.com/placenet-simulator/internal/pkg/logger"
	"github.com/placenet-simulator/internal/pkg/metrics"
	"github.com/placenet-simulator/internal/repository/cache"
	"github.com/placenet-simulator/internal/repository/file"
	"github.com/placenet-simulator/internal/repository/postgres"
	"github.com/placenet-simulator/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting PlaceNet Simulator API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("source", cfg.Simulation.Source),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 3. Connect to PostgreSQL
	var db *postgres.DB
	if cfg.Database.Enabled || cfg.Simulation.Source == config.SourcePostgres {
		db, err = postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		if err := db.Health(ctx); err != nil {
			log.Fatal("PostgreSQL health check failed", zap.Error(err))
		}
		log.Info("PostgreSQL connected")
	}

	// 4. Connect to Redis
	var redisClient *cache.Redis
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		if err := redisClient.Health(ctx); err != nil {
			log.Fatal("Redis health check failed", zap.Error(err))
		}
		log.Info("Redis connected")
	}

	// 5. Initialize Repositories
	var (
		locationRepo   repository.LocationRepository
		transitionRepo repository.TransitionRepository
		resultRepo     repository.ResultRepository
		cacheRepo      repository.CacheRepository
	)
	switch cfg.Simulation.Source {
	case config.SourcePostgres:
		locationRepo = postgres.NewLocationRepository(db)
		transitionRepo = postgres.NewTransitionRepository(db)
	default:
		locationRepo = file.NewLocationRepository(cfg.Simulation.LocationsPath, log)
		transitionRepo = file.NewTransitionRepository(cfg.Simulation.TransitionsPath, log)
	}
	if cfg.Database.Enabled {
		resultRepo = postgres.NewResultRepository(db)
	}
	if redisClient != nil {
		cacheRepo = cache.NewCacheRepository(redisClient)
	}

	log.Info("Repositories initialized")

	// 6. Initialize Use Cases
	collector := metrics.NewCollector()
	simulationUC := usecase.NewSimulationUseCase(
		locationRepo,
		transitionRepo,
		resultRepo,
		cacheRepo,
		collector,
		cfg.Simulation,
		cfg.Cache.ResultCacheTTL,
		log,
	)

	// 7. Initialize HTTP Handlers and Server
	simulationHandler := handler.NewSimulationHandler(simulationUC, log)
	server := httpDelivery.NewServer(cfg, log, collector, simulationHandler)

	// 8. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if db != nil {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL", zap.Error(err))
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}

	log.Info("Server stopped successfully")
}
