package repository

import (
	"context"

	"github.com/placenet-simulator/internal/domain"
)

// TransitionRepository - источник фида перемещений.
// Временные метки отдаются строками; разбор выполняет TransitionLog.
type TransitionRepository interface {
	LoadTransitions(ctx context.Context) ([]domain.RawTransition, domain.FeedStats, error)
}
