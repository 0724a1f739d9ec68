package dto

import (
	"time"

	"github.com/placenet-simulator/internal/domain"
)

// RunSimulationRequest - запрос на прогон. Незаданные поля берутся из конфигурации.
type RunSimulationRequest struct {
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	StepHours        *int       `json:"step_hours,omitempty" validate:"omitempty,min=1,max=8760"`
	Seed             *int64     `json:"seed,omitempty"`
	IncubationHours  *int       `json:"incubation_hours,omitempty" validate:"omitempty,min=0,max=8760"`
	InfectiousHours  *int       `json:"infectious_hours,omitempty" validate:"omitempty,min=1,max=8760"`
	InfectedFraction *float64   `json:"infected_fraction,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// RunRequestFromEvent строит запрос из события стрима
func RunRequestFromEvent(event *domain.SimulationRunEvent) RunSimulationRequest {
	return RunSimulationRequest{
		StartDate:        event.StartDate,
		EndDate:          event.EndDate,
		Seed:             event.Seed,
		InfectedFraction: event.InfectedFraction,
	}
}

// ListSimulationsRequest - параметры списка прогонов
type ListSimulationsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}
