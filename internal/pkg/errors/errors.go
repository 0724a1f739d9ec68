package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/pkg/validator"
)

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

// WithDetails возвращает копию ошибки с деталями; общие значения из codes.go не меняются
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// FromDomain переводит ошибку домена в AppError. Неизвестные ошибки - 500.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	if fields := validator.FieldErrors(err); fields != nil {
		return ErrInvalidRequest.WithDetails(fields)
	}

	var (
		integrity *domain.DataIntegrityError
		unknown   *domain.UnknownPlaceError
		empty     *domain.EmptyPopulationError
		malformed *domain.MalformedRecordError
		epoch     *domain.EpochError
	)

	details := make(map[string]interface{})
	if stderrors.As(err, &epoch) {
		details["epoch"] = epoch.Epoch
		details["window_start"] = epoch.WindowStart
		details["window_end"] = epoch.WindowEnd
	}

	switch {
	case stderrors.Is(err, domain.ErrSimulationNotFound):
		return ErrSimulationNotFound
	case stderrors.Is(err, domain.ErrInvalidPeriod):
		return ErrInvalidPeriod
	case stderrors.Is(err, domain.ErrSimulationBusy):
		return ErrSimulationBusy
	case stderrors.As(err, &empty):
		details["place_id"] = empty.PlaceID
		details["at"] = empty.At
		return ErrEmptyPopulation.WithDetails(details)
	case stderrors.As(err, &integrity):
		details["place_id"] = integrity.PlaceID
		details["reason"] = integrity.Reason
		return ErrDataIntegrity.WithDetails(details)
	case stderrors.As(err, &unknown):
		details["place_id"] = unknown.PlaceID
		return ErrDataIntegrity.WithDetails(details)
	case stderrors.As(err, &malformed):
		details["line"] = malformed.Line
		details["field"] = malformed.Field
		return ErrMalformedInput.WithDetails(details)
	}

	return ErrInternalServer
}
