package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/config"
	"github.com/placenet-simulator/internal/domain/repository"
	"github.com/placenet-simulator/internal/pkg/logger"
	"github.com/placenet-simulator/internal/pkg/metrics"
	"github.com/placenet-simulator/internal/repository/cache"
	"github.com/placenet-simulator/internal/repository/file"
	"github.com/placenet-simulator/internal/repository/postgres"
	redisRepo "github.com/placenet-simulator/internal/repository/redis"
	"github.com/placenet-simulator/internal/usecase"
	"github.com/placenet-simulator/internal/worker"
	simulationWorker "github.com/placenet-simulator/internal/worker/simulation"
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

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting PlaceNet Simulation Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.String("source", cfg.Simulation.Source))

	// 3. Connect to PostgreSQL
	var db *postgres.DB
	if cfg.Database.Enabled || cfg.Simulation.Source == config.SourcePostgres {
		db, err = postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}()
	}

	// 4. Connect to Redis (cache and streams use separate clients)
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	streamClient, err := cache.NewRedisStreams(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis Streams", zap.Error(err))
	}
	defer func() {
		if err := streamClient.Close(); err != nil {
			log.Error("Failed to close Redis Streams connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	var (
		locationRepo   repository.LocationRepository
		transitionRepo repository.TransitionRepository
		resultRepo     repository.ResultRepository
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
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(streamClient, cfg.Worker.StreamReadTimeout, log)

	// 6. Initialize use cases
	simulationUC := usecase.NewSimulationUseCase(
		locationRepo,
		transitionRepo,
		resultRepo,
		cacheRepo,
		metrics.NewCollector(),
		cfg.Simulation,
		cfg.Cache.ResultCacheTTL,
		log,
	)

	// 7. Initialize workers
	runWorker := simulationWorker.NewRunWorker(
		streamRepo,
		simulationUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(runWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("Received shutdown signal")
	case <-workerManager.Done():
		log.Warn("All workers exited")
	}

	// Stop worker manager before cancelling so a running simulation can finish
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}
	cancel()

	log.Info("Worker shutdown complete")
}
