package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
	"github.com/placenet-simulator/internal/repository/postgres/testhelpers"
)

func strptr(s string) *string { return &s }

// FeedRepositorySuite проверяет чтение фидов из places и transitions
type FeedRepositorySuite struct {
	suite.Suite
	testDB      *testhelpers.TestDB
	locations   repository.LocationRepository
	transitions repository.TransitionRepository
	ctx         context.Context
}

func (s *FeedRepositorySuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDB(s.T())

	_, err := testhelpers.ApplyMigrations(s.testDB.DB.DB, "../../../migrations")
	s.Require().NoError(err, "Failed to apply migrations")

	s.locations = testhelpers.NewLocationRepositoryForTest(s.testDB.DB, s.testDB.Logger)
	s.transitions = testhelpers.NewTransitionRepositoryForTest(s.testDB.DB, s.testDB.Logger)
}

func (s *FeedRepositorySuite) TearDownSuite() {
	if s.testDB != nil {
		s.testDB.Close()
	}
}

func (s *FeedRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.testDB.Cleanup(s.ctx))
}

func (s *FeedRepositorySuite) TestLoadLocations() {
	err := testhelpers.InsertPlaces(s.ctx, s.testDB.DB, []domain.LocationRecord{
		{PlaceID: 20, Info: domain.PlaceInfo{Lat: 40.76, Lon: -73.98, Category: "Italian", CheckinsCount: "217", UsersCount: "291", Name: "Ristorante"}},
		{PlaceID: 10, Info: domain.PlaceInfo{Lat: 40.70, Lon: -73.90, Name: "Park"}},
	})
	s.Require().NoError(err)

	records, err := s.locations.LoadLocations(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 2)

	s.Equal(int64(10), records[0].PlaceID)
	s.Equal(int64(20), records[1].PlaceID)
	s.Equal("Italian", records[1].Info.Category)
	s.Equal("291", records[1].Info.UsersCount)
	s.InDelta(40.76, records[1].Info.Lat, 1e-9)
}

func (s *FeedRepositorySuite) TestLoadTransitions() {
	err := testhelpers.InsertTransitions(s.ctx, s.testDB.DB, []testhelpers.TransitionFixture{
		{Origin: 1, Destination: 2, Departure: strptr("2011-01-01 10:00:00"), Arrival: strptr("2011-01-01 11:30:00")},
		{Origin: 2, Destination: 3, Departure: nil, Arrival: strptr("2011-01-02 00:00:00")},
	})
	s.Require().NoError(err)

	rows, stats, err := s.transitions.LoadTransitions(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.Rows)
	s.Require().Len(rows, 2)

	s.Equal(int64(1), rows[0].Origin)
	s.Equal(int64(2), rows[0].Destination)
	s.Equal("2011-01-01 10:00:00", rows[0].Departure)
	s.Equal("2011-01-01 11:30:00", rows[0].Arrival)
	s.Empty(rows[1].Departure)
}

func TestFeedRepositorySuite(t *testing.T) {
	suite.Run(t, new(FeedRepositorySuite))
}
