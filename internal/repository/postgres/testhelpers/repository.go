package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/domain/repository"
	"github.com/placenet-simulator/internal/repository/postgres"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewLocationRepositoryForTest creates a location repository with test database and logger
func NewLocationRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.LocationRepository {
	return postgres.NewLocationRepository(NewDBForTest(db, logger))
}

// NewTransitionRepositoryForTest creates a transition repository with test database and logger
func NewTransitionRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.TransitionRepository {
	return postgres.NewTransitionRepository(NewDBForTest(db, logger))
}

// NewResultRepositoryForTest creates a result repository with test database and logger
func NewResultRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.ResultRepository {
	return postgres.NewResultRepository(NewDBForTest(db, logger))
}
