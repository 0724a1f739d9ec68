package domain

import (
	"time"

	"github.com/google/uuid"
)

// SimulationParams - параметры прогона
type SimulationParams struct {
	StartDate        time.Time     `json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	Step             time.Duration `json:"step"`
	Seed             int64         `json:"seed"`
	IncubationPeriod time.Duration `json:"incubation_period"`
	InfectiousPeriod time.Duration `json:"infectious_period"`
	InfectedFraction float64       `json:"infected_fraction"`
}

// EpochStats - агрегаты одной эпохи
type EpochStats struct {
	Epoch           int       `json:"epoch" db:"epoch"`
	WindowStart     time.Time `json:"window_start" db:"window_start"`
	WindowEnd       time.Time `json:"window_end" db:"window_end"`
	Events          int       `json:"events" db:"events"`
	InfectedTally   int       `json:"infected_tally" db:"infected_tally"`
	PopulationTally int       `json:"population_tally" db:"population_tally"`
	Fraction        float64   `json:"fraction" db:"fraction"`
	Recorded        bool      `json:"recorded" db:"recorded"`
}

// PlaceSnapshot - состояние места для географической отрисовки
type PlaceSnapshot struct {
	PlaceID    int64  `json:"place_id"`
	Point      Point  `json:"point"`
	Name       string `json:"name"`
	Infected   int    `json:"infected"`
	Population int    `json:"population"`
}

// Edge - ребро графа мест, вес равен числу перемещений
type Edge struct {
	From   int64 `json:"from"`
	To     int64 `json:"to"`
	Weight int   `json:"weight"`
}

// SimulationResult - итог прогона симуляции
type SimulationResult struct {
	ID               uuid.UUID        `json:"id"`
	Params           SimulationParams `json:"params"`
	StartedAt        time.Time        `json:"started_at"`
	FinishedAt       time.Time        `json:"finished_at"`
	Epochs           int              `json:"epochs"`
	Series           []float64        `json:"series"`
	EpochStats       []EpochStats     `json:"epoch_stats,omitempty"`
	TotalEvents      int              `json:"total_events"`
	TotalPlaces      int              `json:"total_places"`
	TotalPopulation  int              `json:"total_population"`
	SkippedRows      int              `json:"skipped_rows"`
	InvertedRows     int              `json:"inverted_rows"`
	InfectedPlaceIDs []int64          `json:"infected_place_ids"`
	InfectedPlaces   []PlaceSnapshot  `json:"infected_places,omitempty"`
	// Edges не сохраняются в хранилище и кеш, только экспорт CLI
	Edges []Edge `json:"-"`
}
