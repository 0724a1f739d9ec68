package errors

import "net/http"

var (
	ErrSimulationNotFound = New(
		"SIMULATION_NOT_FOUND",
		"Simulation result not found",
		http.StatusNotFound,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInvalidPeriod = New(
		"INVALID_PERIOD",
		"Simulation end date must be after start date",
		http.StatusBadRequest,
	)

	ErrDataIntegrity = New(
		"DATA_INTEGRITY",
		"Input data references unknown or duplicate places",
		http.StatusUnprocessableEntity,
	)

	ErrEmptyPopulation = New(
		"EMPTY_POPULATION",
		"Movement from a place with no individuals",
		http.StatusUnprocessableEntity,
	)

	ErrMalformedInput = New(
		"MALFORMED_INPUT",
		"Transition feed could not be parsed",
		http.StatusUnprocessableEntity,
	)

	ErrSimulationBusy = New(
		"SIMULATION_BUSY",
		"Another simulation is already running",
		http.StatusConflict,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
