package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamSimulationRun  = "stream:simulation:run"
	StreamSimulationDone = "stream:simulation:done"
)

// SimulationRunEvent - входящий запрос на прогон симуляции.
// Незаданные поля берутся из конфигурации.
type SimulationRunEvent struct {
	RequestID        uuid.UUID  `json:"request_id"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Seed             *int64     `json:"seed,omitempty"`
	InfectedFraction *float64   `json:"infected_fraction,omitempty"`
}

// HasWindow проверяет, что заданы обе границы периода
func (e *SimulationRunEvent) HasWindow() bool {
	return e.StartDate != nil && e.EndDate != nil && e.StartDate.Before(*e.EndDate)
}

// SimulationDoneEvent - результат прогона
type SimulationDoneEvent struct {
	RequestID     uuid.UUID  `json:"request_id"`
	ResultID      *uuid.UUID `json:"result_id,omitempty"`
	Epochs        int        `json:"epochs"`
	SeriesLength  int        `json:"series_length"`
	FinalFraction float64    `json:"final_fraction"`
	SkippedRows   int        `json:"skipped_rows"`
	Error         string     `json:"error,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
