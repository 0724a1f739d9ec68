package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/placenet-simulator/internal/domain"
)

// ResultRepository - хранилище результатов прогонов
type ResultRepository interface {
	// Save сохраняет результат вместе с рядом по эпохам
	Save(ctx context.Context, result *domain.SimulationResult) error

	// GetByID возвращает результат; domain.ErrSimulationNotFound если его нет
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SimulationResult, error)

	// List возвращает последние прогоны без рядов, новые первыми
	List(ctx context.Context, limit int) ([]domain.SimulationResult, error)
}
