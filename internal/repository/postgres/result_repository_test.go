package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
	"github.com/placenet-simulator/internal/repository/postgres/testhelpers"
)

// ResultRepositorySuite проверяет хранение результатов прогонов
type ResultRepositorySuite struct {
	suite.Suite
	testDB *testhelpers.TestDB
	repo   repository.ResultRepository
	ctx    context.Context
}

func (s *ResultRepositorySuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDB(s.T())

	_, err := testhelpers.ApplyMigrations(s.testDB.DB.DB, "../../../migrations")
	s.Require().NoError(err, "Failed to apply migrations")

	s.repo = testhelpers.NewResultRepositoryForTest(s.testDB.DB, s.testDB.Logger)
}

func (s *ResultRepositorySuite) TearDownSuite() {
	if s.testDB != nil {
		s.testDB.Close()
	}
}

func (s *ResultRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.testDB.Cleanup(s.ctx))
}

func sampleResult(startedAt time.Time) *domain.SimulationResult {
	day := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.SimulationResult{
		ID: uuid.New(),
		Params: domain.SimulationParams{
			StartDate:        day,
			EndDate:          day.Add(72 * time.Hour),
			Step:             24 * time.Hour,
			Seed:             7,
			IncubationPeriod: 72 * time.Hour,
			InfectiousPeriod: 240 * time.Hour,
			InfectedFraction: 0.01,
		},
		StartedAt:   startedAt,
		FinishedAt:  startedAt.Add(time.Second),
		Epochs:      3,
		Series:      []float64{0.5, 0.25},
		TotalEvents: 4,
		EpochStats: []domain.EpochStats{
			{Epoch: 0, WindowStart: day, WindowEnd: day.Add(24 * time.Hour), Events: 2, InfectedTally: 1, PopulationTally: 4, Fraction: 0.5, Recorded: true},
			{Epoch: 1, WindowStart: day.Add(24 * time.Hour), WindowEnd: day.Add(48 * time.Hour)},
			{Epoch: 2, WindowStart: day.Add(48 * time.Hour), WindowEnd: day.Add(72 * time.Hour), Events: 2, PopulationTally: 3, Fraction: 0.25, Recorded: true},
		},
		TotalPlaces:      3,
		TotalPopulation:  4,
		SkippedRows:      1,
		InfectedPlaceIDs: []int64{2},
		InfectedPlaces:   []domain.PlaceSnapshot{{PlaceID: 2, Point: domain.Point{Lat: 40.7, Lon: -73.9}, Infected: 1, Population: 2}},
	}
}

func (s *ResultRepositorySuite) TestSaveAndGet() {
	result := sampleResult(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(s.repo.Save(s.ctx, result))

	got, err := s.repo.GetByID(s.ctx, result.ID)
	s.Require().NoError(err)

	s.Equal(result.ID, got.ID)
	s.Equal(result.Params, got.Params)
	s.Equal(result.Series, got.Series)
	s.Equal(result.EpochStats, got.EpochStats)
	s.Equal(result.InfectedPlaceIDs, got.InfectedPlaceIDs)
	s.Equal(result.InfectedPlaces, got.InfectedPlaces)
	s.Equal(1, got.SkippedRows)
	s.True(result.StartedAt.Equal(got.StartedAt))

	n, err := testhelpers.CountRows(s.ctx, s.testDB.DB, "simulation_series")
	s.Require().NoError(err)
	s.Equal(3, n)
}

func (s *ResultRepositorySuite) TestGetByID_NotFound() {
	_, err := s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, domain.ErrSimulationNotFound)
}

func (s *ResultRepositorySuite) TestSave_DuplicateIDRollsBack() {
	result := sampleResult(time.Now().UTC())
	s.Require().NoError(s.repo.Save(s.ctx, result))
	s.Error(s.repo.Save(s.ctx, result))

	n, err := testhelpers.CountRows(s.ctx, s.testDB.DB, "simulation_series")
	s.Require().NoError(err)
	s.Equal(3, n)
}

func (s *ResultRepositorySuite) TestList_NewestFirst() {
	older := sampleResult(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := sampleResult(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.repo.Save(s.ctx, older))
	s.Require().NoError(s.repo.Save(s.ctx, newer))

	list, err := s.repo.List(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newer.ID, list[0].ID)
	s.Empty(list[0].EpochStats)

	list, err = s.repo.List(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func TestResultRepositorySuite(t *testing.T) {
	suite.Run(t, new(ResultRepositorySuite))
}
