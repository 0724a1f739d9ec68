package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
)

type resultRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewResultRepository создает хранилище результатов (simulation_runs + simulation_series)
func NewResultRepository(db *DB) repository.ResultRepository {
	return &resultRepository{
		db:     db,
		logger: db.logger,
	}
}

type simulationRunRow struct {
	ID                uuid.UUID `db:"id"`
	StartDate         time.Time `db:"start_date"`
	EndDate           time.Time `db:"end_date"`
	StepSeconds       int64     `db:"step_seconds"`
	Seed              int64     `db:"seed"`
	IncubationSeconds int64     `db:"incubation_seconds"`
	InfectiousSeconds int64     `db:"infectious_seconds"`
	InfectedFraction  float64   `db:"infected_fraction"`
	StartedAt         time.Time `db:"started_at"`
	FinishedAt        time.Time `db:"finished_at"`
	Epochs            int       `db:"epochs"`
	TotalEvents       int       `db:"total_events"`
	TotalPlaces       int       `db:"total_places"`
	TotalPopulation   int       `db:"total_population"`
	SkippedRows       int       `db:"skipped_rows"`
	InvertedRows      int       `db:"inverted_rows"`
	InfectedPlaceIDs  string    `db:"infected_place_ids"`
	InfectedPlaces    string    `db:"infected_places"`
}

type seriesRow struct {
	RunID uuid.UUID `db:"run_id"`
	domain.EpochStats
}

func (r *resultRepository) Save(ctx context.Context, result *domain.SimulationResult) error {
	row, err := toRunRow(result)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertRun := `
		INSERT INTO simulation_runs (
			id, start_date, end_date, step_seconds, seed, incubation_seconds, infectious_seconds,
			infected_fraction, started_at, finished_at, epochs, total_events, total_places,
			total_population, skipped_rows, inverted_rows, infected_place_ids, infected_places
		) VALUES (
			:id, :start_date, :end_date, :step_seconds, :seed, :incubation_seconds, :infectious_seconds,
			:infected_fraction, :started_at, :finished_at, :epochs, :total_events, :total_places,
			:total_population, :skipped_rows, :inverted_rows, :infected_place_ids, :infected_places
		)
	`
	if _, err := tx.NamedExecContext(ctx, insertRun, row); err != nil {
		r.logger.Error("failed to insert simulation run", zap.String("id", result.ID.String()), zap.Error(err))
		return fmt.Errorf("insert simulation run: %w", err)
	}

	if len(result.EpochStats) > 0 {
		series := make([]seriesRow, 0, len(result.EpochStats))
		for _, st := range result.EpochStats {
			series = append(series, seriesRow{RunID: result.ID, EpochStats: st})
		}

		insertSeries := `
			INSERT INTO simulation_series (
				run_id, epoch, window_start, window_end, events, infected_tally,
				population_tally, fraction, recorded
			) VALUES (
				:run_id, :epoch, :window_start, :window_end, :events, :infected_tally,
				:population_tally, :fraction, :recorded
			)
		`
		if _, err := tx.NamedExecContext(ctx, insertSeries, series); err != nil {
			r.logger.Error("failed to insert simulation series", zap.String("id", result.ID.String()), zap.Error(err))
			return fmt.Errorf("insert simulation series: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Debug("Simulation result saved",
		zap.String("id", result.ID.String()),
		zap.Int("epochs", len(result.EpochStats)))
	return nil
}

func (r *resultRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SimulationResult, error) {
	var row simulationRunRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM simulation_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSimulationNotFound
	}
	if err != nil {
		r.logger.Error("failed to get simulation run", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("get simulation run: %w", err)
	}

	result, err := fromRunRow(row)
	if err != nil {
		return nil, err
	}

	var series []seriesRow
	query := `
		SELECT run_id, epoch, window_start, window_end, events, infected_tally,
			population_tally, fraction, recorded
		FROM simulation_series
		WHERE run_id = $1
		ORDER BY epoch
	`
	if err := r.db.SelectContext(ctx, &series, query, id); err != nil {
		r.logger.Error("failed to get simulation series", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("get simulation series: %w", err)
	}

	result.EpochStats = make([]domain.EpochStats, 0, len(series))
	result.Series = make([]float64, 0, len(series))
	for _, s := range series {
		s.WindowStart = s.WindowStart.UTC()
		s.WindowEnd = s.WindowEnd.UTC()
		result.EpochStats = append(result.EpochStats, s.EpochStats)
		if s.Recorded {
			result.Series = append(result.Series, s.Fraction)
		}
	}

	return result, nil
}

func (r *resultRepository) List(ctx context.Context, limit int) ([]domain.SimulationResult, error) {
	var rows []simulationRunRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM simulation_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		r.logger.Error("failed to list simulation runs", zap.Error(err))
		return nil, fmt.Errorf("list simulation runs: %w", err)
	}

	results := make([]domain.SimulationResult, 0, len(rows))
	for _, row := range rows {
		result, err := fromRunRow(row)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, nil
}

func toRunRow(result *domain.SimulationResult) (simulationRunRow, error) {
	ids := result.InfectedPlaceIDs
	if ids == nil {
		ids = []int64{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return simulationRunRow{}, fmt.Errorf("marshal infected place ids: %w", err)
	}

	places := result.InfectedPlaces
	if places == nil {
		places = []domain.PlaceSnapshot{}
	}
	placesJSON, err := json.Marshal(places)
	if err != nil {
		return simulationRunRow{}, fmt.Errorf("marshal infected places: %w", err)
	}

	p := result.Params
	return simulationRunRow{
		ID:                result.ID,
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		StepSeconds:       int64(p.Step / time.Second),
		Seed:              p.Seed,
		IncubationSeconds: int64(p.IncubationPeriod / time.Second),
		InfectiousSeconds: int64(p.InfectiousPeriod / time.Second),
		InfectedFraction:  p.InfectedFraction,
		StartedAt:         result.StartedAt,
		FinishedAt:        result.FinishedAt,
		Epochs:            result.Epochs,
		TotalEvents:       result.TotalEvents,
		TotalPlaces:       result.TotalPlaces,
		TotalPopulation:   result.TotalPopulation,
		SkippedRows:       result.SkippedRows,
		InvertedRows:      result.InvertedRows,
		InfectedPlaceIDs:  string(idsJSON),
		InfectedPlaces:    string(placesJSON),
	}, nil
}

func fromRunRow(row simulationRunRow) (*domain.SimulationResult, error) {
	result := &domain.SimulationResult{
		ID: row.ID,
		Params: domain.SimulationParams{
			StartDate:        row.StartDate.UTC(),
			EndDate:          row.EndDate.UTC(),
			Step:             time.Duration(row.StepSeconds) * time.Second,
			Seed:             row.Seed,
			IncubationPeriod: time.Duration(row.IncubationSeconds) * time.Second,
			InfectiousPeriod: time.Duration(row.InfectiousSeconds) * time.Second,
			InfectedFraction: row.InfectedFraction,
		},
		StartedAt:       row.StartedAt.UTC(),
		FinishedAt:      row.FinishedAt.UTC(),
		Epochs:          row.Epochs,
		TotalEvents:     row.TotalEvents,
		TotalPlaces:     row.TotalPlaces,
		TotalPopulation: row.TotalPopulation,
		SkippedRows:     row.SkippedRows,
		InvertedRows:    row.InvertedRows,
	}

	if err := json.Unmarshal([]byte(row.InfectedPlaceIDs), &result.InfectedPlaceIDs); err != nil {
		return nil, fmt.Errorf("unmarshal infected place ids: %w", err)
	}
	if err := json.Unmarshal([]byte(row.InfectedPlaces), &result.InfectedPlaces); err != nil {
		return nil, fmt.Errorf("unmarshal infected places: %w", err)
	}
	return result, nil
}
