package testhelpers

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/placenet-simulator/internal/domain"
)

// TransitionFixture - строка таблицы transitions; nil метка пишется как NULL
type TransitionFixture struct {
	Origin      int64
	Destination int64
	Departure   *string
	Arrival     *string
}

// InsertPlaces загружает места в таблицу places
func InsertPlaces(ctx context.Context, db *sqlx.DB, records []domain.LocationRecord) error {
	query := `
		INSERT INTO places (place_id, lat, lon, category, checkins_count, users_count, name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, rec := range records {
		info := rec.Info
		if _, err := db.ExecContext(ctx, query,
			rec.PlaceID, info.Lat, info.Lon, info.Category, info.CheckinsCount, info.UsersCount, info.Name,
		); err != nil {
			return fmt.Errorf("insert place %d: %w", rec.PlaceID, err)
		}
	}
	return nil
}

// InsertTransitions загружает перемещения в таблицу transitions в порядке среза
func InsertTransitions(ctx context.Context, db *sqlx.DB, rows []TransitionFixture) error {
	query := `
		INSERT INTO transitions (venue1, venue2, timestamp1, timestamp2)
		VALUES ($1, $2, CAST($3 AS TIMESTAMP), CAST($4 AS TIMESTAMP))
	`
	for i, row := range rows {
		if _, err := db.ExecContext(ctx, query, row.Origin, row.Destination, row.Departure, row.Arrival); err != nil {
			return fmt.Errorf("insert transition %d: %w", i, err)
		}
	}
	return nil
}

// CountRows возвращает число строк таблицы
func CountRows(ctx context.Context, db *sqlx.DB, table string) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
