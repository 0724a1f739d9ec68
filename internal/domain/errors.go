package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSimulationNotFound - результат прогона не найден в хранилище
	ErrSimulationNotFound = errors.New("simulation result not found")

	// ErrInvalidPeriod - пустой период или неположительный шаг
	ErrInvalidPeriod = errors.New("simulation period is empty or step is not positive")

	// ErrSimulationBusy - другой прогон уже выполняется
	ErrSimulationBusy = errors.New("simulation already running")
)

// DataIntegrityError - структурная ошибка данных (дубликат или неизвестное место).
// Прерывает прогон симуляции.
type DataIntegrityError struct {
	PlaceID int64
	Reason  string
	Err     error
}

func (e *DataIntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data integrity: place %d: %s: %v", e.PlaceID, e.Reason, e.Err)
	}
	return fmt.Sprintf("data integrity: place %d: %s", e.PlaceID, e.Reason)
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Err
}

// UnknownPlaceError - место отсутствует в реестре
type UnknownPlaceError struct {
	PlaceID int64
}

func (e *UnknownPlaceError) Error() string {
	return fmt.Sprintf("unknown place %d", e.PlaceID)
}

// MalformedRecordError - строка входного фида не разобрана.
// На уровне строки ошибка восстанавливается: строка пропускается и учитывается.
type MalformedRecordError struct {
	Line   int
	Field  string
	Value  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at line %d: field %q (%q): %s", e.Line, e.Field, e.Value, e.Reason)
}

// EmptyPopulationError - попытка выбрать мигранта из пустого места
type EmptyPopulationError struct {
	PlaceID int64
	At      time.Time
}

func (e *EmptyPopulationError) Error() string {
	return fmt.Sprintf("empty population at place %d (at %s)", e.PlaceID, e.At.Format(time.RFC3339))
}

// ConservationError - сумма населения затронутых мест изменилась за эпоху
type ConservationError struct {
	Before int
	After  int
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("population not conserved: before=%d after=%d", e.Before, e.After)
}

// EpochError добавляет к ошибке контекст эпохи: индекс, границы окна и место
type EpochError struct {
	Epoch       int
	WindowStart time.Time
	WindowEnd   time.Time
	PlaceID     int64
	Err         error
}

func (e *EpochError) Error() string {
	return fmt.Sprintf("epoch %d (%s, %s] place %d: %v",
		e.Epoch,
		e.WindowStart.Format(time.RFC3339),
		e.WindowEnd.Format(time.RFC3339),
		e.PlaceID,
		e.Err,
	)
}

func (e *EpochError) Unwrap() error {
	return e.Err
}
