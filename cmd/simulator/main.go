package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/config"
	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
	"github.com/placenet-simulator/internal/pkg/logger"
	"github.com/placenet-simulator/internal/pkg/metrics"
	"github.com/placenet-simulator/internal/report"
	"github.com/placenet-simulator/internal/repository/file"
	"github.com/placenet-simulator/internal/repository/postgres"
	"github.com/placenet-simulator/internal/usecase"
	"github.com/placenet-simulator/internal/usecase/dto"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run возвращает код выхода, чтобы отложенные закрытия отработали до os.Exit
func run(args []string) int {
	flags := flag.NewFlagSet("simulator", flag.ContinueOnError)
	configPath := flags.String("config", ".env", "path to .env config file")
	reportDir := flags.String("out", "", "report directory (overrides REPORT_DIR)")
	seed := flags.Int64("seed", 0, "random seed (overrides SIM_SEED when non-zero)")
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	// 1. Load configuration
	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return exitFailure
	}
	if *reportDir != "" {
		cfg.Report.Dir = *reportDir
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer log.Sync()

	log.Info("Starting PlaceNet simulation",
		zap.String("source", cfg.Simulation.Source),
		zap.Time("start_date", cfg.Simulation.StartDate),
		zap.Time("end_date", cfg.Simulation.EndDate),
		zap.Duration("step", cfg.Simulation.Step))

	// 3. Initialize repositories
	var (
		locationRepo   repository.LocationRepository
		transitionRepo repository.TransitionRepository
		resultRepo     repository.ResultRepository
	)

	if cfg.Simulation.Source == config.SourcePostgres || cfg.Database.Enabled {
		db, err := postgres.New(&cfg.Database, log)
		if err != nil {
			log.Error("Failed to connect to PostgreSQL", zap.Error(err))
			return exitFailure
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}()
		if cfg.Database.Enabled {
			resultRepo = postgres.NewResultRepository(db)
		}
		if cfg.Simulation.Source == config.SourcePostgres {
			locationRepo = postgres.NewLocationRepository(db)
			transitionRepo = postgres.NewTransitionRepository(db)
		}
	}
	if cfg.Simulation.Source == config.SourceFile {
		locationRepo = file.NewLocationRepository(cfg.Simulation.LocationsPath, log)
		transitionRepo = file.NewTransitionRepository(cfg.Simulation.TransitionsPath, log)
	}

	// 4. Run simulation
	simulationUC := usecase.NewSimulationUseCase(
		locationRepo,
		transitionRepo,
		resultRepo,
		nil,
		metrics.NewCollector(),
		cfg.Simulation,
		cfg.Cache.ResultCacheTTL,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var req dto.RunSimulationRequest
	if *seed != 0 {
		req.Seed = seed
	}

	result, err := simulationUC.Run(ctx, req)
	if err != nil {
		var epochErr *domain.EpochError
		if errors.As(err, &epochErr) {
			log.Error("Simulation aborted",
				zap.Int("epoch", epochErr.Epoch),
				zap.Time("window_start", epochErr.WindowStart),
				zap.Time("window_end", epochErr.WindowEnd),
				zap.Int64("place_id", epochErr.PlaceID),
				zap.Error(err))
			return exitFailure
		}
		log.Error("Simulation failed", zap.Error(err))
		return exitFailure
	}

	// 5. Write reports
	dir := filepath.Join(cfg.Report.Dir, result.ID.String())
	if err := writeReports(dir, result); err != nil {
		log.Error("Failed to write reports", zap.Error(err))
		return exitFailure
	}

	log.Info("Simulation finished",
		zap.String("id", result.ID.String()),
		zap.Int("epochs", result.Epochs),
		zap.Int("series_length", len(result.Series)),
		zap.Int("skipped_rows", result.SkippedRows),
		zap.Int("infected_places", len(result.InfectedPlaceIDs)),
		zap.Int("edges", len(result.Edges)),
		zap.String("report_dir", dir))
	return exitOK
}

func writeReports(dir string, result *domain.SimulationResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	if err := writeFile(filepath.Join(dir, "series.csv"), func(f *os.File) error {
		return report.WriteSeriesCSV(f, result.EpochStats)
	}); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, "edges.csv"), func(f *os.File) error {
		return report.WriteEdgesCSV(f, result.Edges)
	}); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, "infected_series.png"), func(f *os.File) error {
		return report.RenderSeriesChart(f, result.Series)
	}); err != nil && !errors.Is(err, report.ErrNothingToPlot) {
		return err
	}

	if err := writeFile(filepath.Join(dir, "infected_map.png"), func(f *os.File) error {
		return report.RenderInfectedMap(f, result.InfectedPlaces, result.TotalPlaces, result.Params.EndDate)
	}); err != nil && !errors.Is(err, report.ErrNothingToPlot) {
		return err
	}

	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
