package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/placenet-simulator/internal/domain"
)

// SimulationResponse - сводка прогона без ряда по эпохам
type SimulationResponse struct {
	ID                  uuid.UUID               `json:"id"`
	Params              domain.SimulationParams `json:"params"`
	StartedAt           time.Time               `json:"started_at"`
	FinishedAt          time.Time               `json:"finished_at"`
	DurationMs          int64                   `json:"duration_ms"`
	Epochs              int                     `json:"epochs"`
	SeriesLength        int                     `json:"series_length"`
	FinalFraction       float64                 `json:"final_fraction"`
	TotalEvents         int                     `json:"total_events"`
	TotalPlaces         int                     `json:"total_places"`
	TotalPopulation     int                     `json:"total_population"`
	SkippedRows         int                     `json:"skipped_rows"`
	InvertedRows        int                     `json:"inverted_rows"`
	InfectedPlacesCount int                     `json:"infected_places_count"`
}

// SeriesResponse - ряд доли заражённых и агрегаты эпох
type SeriesResponse struct {
	ID     uuid.UUID           `json:"id"`
	Series []float64           `json:"series"`
	Epochs []domain.EpochStats `json:"epochs"`
}

// InfectedPlacesResponse - заражённые места на конец прогона
type InfectedPlacesResponse struct {
	ID     uuid.UUID              `json:"id"`
	IDs    []int64                `json:"place_ids"`
	Places []domain.PlaceSnapshot `json:"places,omitempty"`
	Total  int                    `json:"total"`
}

// NewSimulationResponse строит сводку из результата
func NewSimulationResponse(r *domain.SimulationResult) *SimulationResponse {
	resp := &SimulationResponse{
		ID:                  r.ID,
		Params:              r.Params,
		StartedAt:           r.StartedAt,
		FinishedAt:          r.FinishedAt,
		DurationMs:          r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
		Epochs:              r.Epochs,
		SeriesLength:        len(r.Series),
		TotalEvents:         r.TotalEvents,
		TotalPlaces:         r.TotalPlaces,
		TotalPopulation:     r.TotalPopulation,
		SkippedRows:         r.SkippedRows,
		InvertedRows:        r.InvertedRows,
		InfectedPlacesCount: len(r.InfectedPlaceIDs),
	}
	if n := len(r.Series); n > 0 {
		resp.FinalFraction = r.Series[n-1]
	}
	return resp
}
