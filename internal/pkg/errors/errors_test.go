package errors_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placenet-simulator/internal/domain"
	apperrors "github.com/placenet-simulator/internal/pkg/errors"
	"github.com/placenet-simulator/internal/pkg/validator"
)

func TestFromDomain(t *testing.T) {
	at := time.Date(2011, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
		wantPlace  interface{}
	}{
		{
			name:       "not found",
			err:        fmt.Errorf("get: %w", domain.ErrSimulationNotFound),
			wantCode:   "SIMULATION_NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "busy",
			err:        domain.ErrSimulationBusy,
			wantCode:   "SIMULATION_BUSY",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid period",
			err:        fmt.Errorf("run: %w", domain.ErrInvalidPeriod),
			wantCode:   "INVALID_PERIOD",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "integrity inside epoch",
			err: &domain.EpochError{
				Epoch: 3,
				Err:   &domain.DataIntegrityError{PlaceID: 4, Reason: "destination not registered", Err: &domain.UnknownPlaceError{PlaceID: 4}},
			},
			wantCode:   "DATA_INTEGRITY",
			wantStatus: http.StatusUnprocessableEntity,
			wantPlace:  int64(4),
		},
		{
			name:       "empty population",
			err:        &domain.EpochError{Epoch: 1, Err: &domain.EmptyPopulationError{PlaceID: 2, At: at}},
			wantCode:   "EMPTY_POPULATION",
			wantStatus: http.StatusUnprocessableEntity,
			wantPlace:  int64(2),
		},
		{
			name:       "malformed",
			err:        fmt.Errorf("load: %w", &domain.MalformedRecordError{Line: 2, Field: "departure"}),
			wantCode:   "MALFORMED_INPUT",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantCode:   "INTERNAL_SERVER_ERROR",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := apperrors.FromDomain(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
			if tt.wantPlace != nil {
				assert.Equal(t, tt.wantPlace, appErr.Details["place_id"])
			}
		})
	}
}

func TestFromDomain_ValidationError(t *testing.T) {
	req := struct {
		Fraction float64 `json:"infected_fraction" validate:"lte=1"`
	}{Fraction: 2}

	appErr := apperrors.FromDomain(validator.Validate(&req))
	require.NotNil(t, appErr)
	assert.Equal(t, "INVALID_REQUEST", appErr.Code)
	assert.Equal(t, "lte=1", appErr.Details["infected_fraction"])
}

func TestFromDomain_PassesThroughAppError(t *testing.T) {
	assert.Nil(t, apperrors.FromDomain(nil))
	assert.Same(t, apperrors.ErrInvalidRequest, apperrors.FromDomain(apperrors.ErrInvalidRequest))
}

func TestWithDetails_DoesNotMutateShared(t *testing.T) {
	withDetails := apperrors.ErrInvalidRequest.WithDetails(map[string]interface{}{"field": "seed"})

	assert.Equal(t, "seed", withDetails.Details["field"])
	assert.Empty(t, apperrors.ErrInvalidRequest.Details)
}
