package repository

import (
	"context"

	"github.com/placenet-simulator/internal/domain"
)

// LocationRepository - источник метаданных мест
type LocationRepository interface {
	// LoadLocations возвращает все записи мест в порядке источника
	LoadLocations(ctx context.Context) ([]domain.LocationRecord, error)
}
