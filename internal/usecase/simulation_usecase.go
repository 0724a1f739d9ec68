package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/config"
	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
	applog "github.com/placenet-simulator/internal/pkg/logger"
	"github.com/placenet-simulator/internal/pkg/metrics"
	"github.com/placenet-simulator/internal/pkg/validator"
	"github.com/placenet-simulator/internal/simulation"
	"github.com/placenet-simulator/internal/usecase/dto"
)

const defaultListLimit = 20

// SimulationUseCase загружает фиды, выполняет прогон и хранит результаты.
// Одновременно выполняется не больше одного прогона.
type SimulationUseCase struct {
	locationRepo   repository.LocationRepository
	transitionRepo repository.TransitionRepository
	resultRepo     repository.ResultRepository
	cacheRepo      repository.CacheRepository
	metrics        *metrics.Collector
	defaults       config.SimulationConfig
	cacheTTL       time.Duration
	logger         *zap.Logger

	running atomic.Bool
	now     func() time.Time
}

// NewSimulationUseCase создает новый экземпляр SimulationUseCase.
// resultRepo, cacheRepo и collector могут быть nil.
func NewSimulationUseCase(
	locationRepo repository.LocationRepository,
	transitionRepo repository.TransitionRepository,
	resultRepo repository.ResultRepository,
	cacheRepo repository.CacheRepository,
	collector *metrics.Collector,
	defaults config.SimulationConfig,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *SimulationUseCase {
	return &SimulationUseCase{
		locationRepo:   locationRepo,
		transitionRepo: transitionRepo,
		resultRepo:     resultRepo,
		cacheRepo:      cacheRepo,
		metrics:        collector,
		defaults:       defaults,
		cacheTTL:       cacheTTL,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Params объединяет запрос с параметрами по умолчанию
func (uc *SimulationUseCase) Params(req dto.RunSimulationRequest) (domain.SimulationParams, error) {
	if err := validator.Validate(&req); err != nil {
		return domain.SimulationParams{}, err
	}

	p := domain.SimulationParams{
		StartDate:        uc.defaults.StartDate,
		EndDate:          uc.defaults.EndDate,
		Step:             uc.defaults.Step,
		Seed:             uc.defaults.Seed,
		IncubationPeriod: uc.defaults.IncubationPeriod,
		InfectiousPeriod: uc.defaults.InfectiousPeriod,
		InfectedFraction: uc.defaults.InfectedFraction,
	}
	if req.StartDate != nil {
		p.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		p.EndDate = req.EndDate.UTC()
	}
	if req.StepHours != nil {
		p.Step = time.Duration(*req.StepHours) * time.Hour
	}
	if req.Seed != nil {
		p.Seed = *req.Seed
	}
	if req.IncubationHours != nil {
		p.IncubationPeriod = time.Duration(*req.IncubationHours) * time.Hour
	}
	if req.InfectiousHours != nil {
		p.InfectiousPeriod = time.Duration(*req.InfectiousHours) * time.Hour
	}
	if req.InfectedFraction != nil {
		p.InfectedFraction = *req.InfectedFraction
	}

	if p.Step <= 0 || !p.StartDate.Before(p.EndDate) {
		return domain.SimulationParams{}, domain.ErrInvalidPeriod
	}
	return p, nil
}

// Run выполняет прогон. Ошибки данных прерывают прогон и возвращаются как есть
// (DataIntegrityError, EmptyPopulationError, EpochError).
func (uc *SimulationUseCase) Run(ctx context.Context, req dto.RunSimulationRequest) (*domain.SimulationResult, error) {
	params, err := uc.Params(req)
	if err != nil {
		return nil, err
	}

	if !uc.running.CompareAndSwap(false, true) {
		return nil, domain.ErrSimulationBusy
	}
	defer uc.running.Store(false)

	id := uuid.New()
	logger := applog.WithSimulation(uc.logger, id.String())
	startedAt := uc.now()

	result, err := uc.execute(ctx, id, params, logger)
	if uc.metrics != nil {
		malformed := 0
		if result != nil {
			malformed = result.SkippedRows
		}
		uc.metrics.ObserveRun(err, uc.now().Sub(startedAt), malformed)
	}
	if err != nil {
		return nil, err
	}

	result.StartedAt = startedAt
	result.FinishedAt = uc.now()

	if uc.resultRepo != nil {
		if err := uc.resultRepo.Save(ctx, result); err != nil {
			return nil, fmt.Errorf("save result: %w", err)
		}
	}
	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetResult(ctx, result, uc.cacheTTL); err != nil {
			logger.Warn("Failed to cache result", zap.Error(err))
		}
	}

	logger.Info("Simulation completed",
		zap.Int("epochs", result.Epochs),
		zap.Int("series_length", len(result.Series)),
		zap.Int("infected_places", len(result.InfectedPlaceIDs)),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))

	return result, nil
}

func (uc *SimulationUseCase) execute(ctx context.Context, id uuid.UUID, params domain.SimulationParams, logger *zap.Logger) (*domain.SimulationResult, error) {
	// 1. Фиды
	locations, err := uc.locationRepo.LoadLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	raw, feedStats, err := uc.transitionRepo.LoadTransitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transitions: %w", err)
	}

	// 2. Лог перемещений
	log, err := simulation.LoadTransitionLog(raw, uc.defaults.TimeLayouts)
	if err != nil {
		return nil, fmt.Errorf("build transition log: %w", err)
	}
	skipped := feedStats.Malformed + log.MalformedCount()
	for _, sample := range log.MalformedSamples() {
		logger.Debug("Malformed transition row", zap.Error(sample))
	}

	// 3. Реестр мест и начальное население
	registry := simulation.NewPlaceRegistry(domain.IncubationModel{
		IncubationPeriod: params.IncubationPeriod,
		InfectiousPeriod: params.InfectiousPeriod,
	})
	if err := registry.LoadPlaces(locations); err != nil {
		return nil, fmt.Errorf("load places: %w", err)
	}
	population, err := registry.SeedMovementTotals(log.OutgoingCounts(), domain.SeedPolicy{
		InfectedFraction: params.InfectedFraction,
		At:               params.StartDate,
	})
	if err != nil {
		return nil, fmt.Errorf("seed population: %w", err)
	}

	logger.Info("Simulation inputs ready",
		zap.Int("places", registry.Len()),
		zap.Int("events", log.TotalEventCount()),
		zap.Int("population", population),
		zap.Int("seeded_infected", registry.TotalInfected()),
		zap.Int("skipped_rows", skipped),
		zap.Int("inverted_rows", log.InvertedCount()))

	if first, last, ok := log.Span(); ok {
		logger.Debug("Transition log span",
			zap.Time("first_departure", first),
			zap.Time("last_departure", last))
		if last.Before(params.StartDate) || !first.Before(params.EndDate) {
			logger.Warn("Simulation period does not overlap the transition log",
				zap.Time("start", params.StartDate),
				zap.Time("end", params.EndDate))
		}
	}

	// 4. Прогон
	var opts []simulation.Option
	if uc.metrics != nil {
		opts = append(opts, simulation.WithObserver(uc.metrics.ObserveEpoch))
	}
	engine := simulation.NewEngine(registry, log, simulation.Config{
		Start: params.StartDate,
		End:   params.EndDate,
		Step:  params.Step,
		Seed:  params.Seed,
	}, logger, opts...)

	state, err := engine.Run(ctx)
	if err != nil {
		return &domain.SimulationResult{SkippedRows: skipped}, err
	}

	registry.MaterializeEdges(log)

	series := state.Series
	if series == nil {
		series = []float64{}
	}
	return &domain.SimulationResult{
		ID:               id,
		Params:           params,
		Epochs:           state.Epoch,
		Series:           series,
		EpochStats:       state.Stats,
		TotalEvents:      log.TotalEventCount(),
		TotalPlaces:      registry.Len(),
		TotalPopulation:  registry.TotalPopulation(),
		SkippedRows:      skipped,
		InvertedRows:     log.InvertedCount(),
		InfectedPlaceIDs: registry.InfectedPlaceIDs(),
		InfectedPlaces:   registry.InfectedSnapshot(),
		Edges:            registry.Edges(),
	}, nil
}

// GetResult возвращает результат прогона, используя кеш когда возможно
func (uc *SimulationUseCase) GetResult(ctx context.Context, id uuid.UUID) (*domain.SimulationResult, error) {
	// 1. Проверяем кеш
	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.GetResult(ctx, id)
		if err != nil {
			uc.logger.Warn("Failed to get result from cache", zap.Error(err))
		}
		if cached != nil {
			uc.observeCache(true)
			return cached, nil
		}
		uc.observeCache(false)
	}

	// 2. Хранилище
	if uc.resultRepo == nil {
		return nil, domain.ErrSimulationNotFound
	}
	result, err := uc.resultRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", id, err)
	}

	// 3. Кешируем
	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetResult(ctx, result, uc.cacheTTL); err != nil {
			uc.logger.Warn("Failed to cache result", zap.Error(err))
		}
	}

	return result, nil
}

// GetSummary возвращает сводку прогона
func (uc *SimulationUseCase) GetSummary(ctx context.Context, id uuid.UUID) (*dto.SimulationResponse, error) {
	result, err := uc.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewSimulationResponse(result), nil
}

// GetSeries возвращает ряд доли заражённых и агрегаты эпох
func (uc *SimulationUseCase) GetSeries(ctx context.Context, id uuid.UUID) (*dto.SeriesResponse, error) {
	result, err := uc.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SeriesResponse{ID: result.ID, Series: result.Series, Epochs: result.EpochStats}, nil
}

// GetInfectedPlaces возвращает места с заражёнными на конец прогона
func (uc *SimulationUseCase) GetInfectedPlaces(ctx context.Context, id uuid.UUID) (*dto.InfectedPlacesResponse, error) {
	result, err := uc.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.InfectedPlacesResponse{
		ID:     result.ID,
		IDs:    result.InfectedPlaceIDs,
		Places: result.InfectedPlaces,
		Total:  len(result.InfectedPlaceIDs),
	}, nil
}

// List возвращает сводки последних прогонов
func (uc *SimulationUseCase) List(ctx context.Context, req dto.ListSimulationsRequest) ([]dto.SimulationResponse, error) {
	if err := validator.Validate(&req); err != nil {
		return nil, err
	}
	if uc.resultRepo == nil {
		return []dto.SimulationResponse{}, nil
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	results, err := uc.resultRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	out := make([]dto.SimulationResponse, 0, len(results))
	for i := range results {
		out = append(out, *dto.NewSimulationResponse(&results[i]))
	}
	return out, nil
}

// Running сообщает, выполняется ли прогон
func (uc *SimulationUseCase) Running() bool {
	return uc.running.Load()
}

func (uc *SimulationUseCase) observeCache(hit bool) {
	if uc.metrics == nil {
		return
	}
	if hit {
		uc.metrics.CacheHits.Inc()
	} else {
		uc.metrics.CacheMisses.Inc()
	}
}
