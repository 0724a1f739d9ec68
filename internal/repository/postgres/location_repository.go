package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
)

type locationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewLocationRepository создает репозиторий мест поверх таблицы places
func NewLocationRepository(db *DB) repository.LocationRepository {
	return &locationRepository{
		db:     db,
		logger: db.logger,
	}
}

type placeRow struct {
	PlaceID int64 `db:"place_id"`
	domain.PlaceInfo
}

func (r *locationRepository) LoadLocations(ctx context.Context) ([]domain.LocationRecord, error) {
	query := `
		SELECT place_id, lat, lon, category, checkins_count, users_count, name
		FROM places
		ORDER BY place_id
	`

	var rows []placeRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.Error("failed to load places", zap.Error(err))
		return nil, fmt.Errorf("load places: %w", err)
	}

	records := make([]domain.LocationRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.LocationRecord{PlaceID: row.PlaceID, Info: row.PlaceInfo})
	}

	r.logger.Info("Locations loaded from database", zap.Int("places", len(records)))
	return records, nil
}
