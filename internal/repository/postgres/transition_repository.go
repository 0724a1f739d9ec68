package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
)

type transitionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTransitionRepository создает репозиторий фида перемещений поверх таблицы transitions
func NewTransitionRepository(db *DB) repository.TransitionRepository {
	return &transitionRepository{
		db:     db,
		logger: db.logger,
	}
}

// LoadTransitions отдает метки времени текстом в формате "2006-01-02 15:04:05".
// NULL превращается в пустую строку и отбрасывается при построении лога как некорректная строка.
func (r *transitionRepository) LoadTransitions(ctx context.Context) ([]domain.RawTransition, domain.FeedStats, error) {
	query := `
		SELECT
			id AS line,
			venue1 AS origin,
			venue2 AS destination,
			COALESCE(to_char(timestamp1, 'YYYY-MM-DD HH24:MI:SS'), '') AS departure,
			COALESCE(to_char(timestamp2, 'YYYY-MM-DD HH24:MI:SS'), '') AS arrival
		FROM transitions
		ORDER BY id
	`

	var rows []domain.RawTransition
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.Error("failed to load transitions", zap.Error(err))
		return nil, domain.FeedStats{}, fmt.Errorf("load transitions: %w", err)
	}

	stats := domain.FeedStats{Rows: len(rows)}
	r.logger.Info("Transitions loaded from database", zap.Int("rows", stats.Rows))
	return rows, stats, nil
}
