package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/placenet-simulator/internal/domain"
	"go.uber.org/zap"
)

// DefaultStep - длина эпохи
const DefaultStep = 24 * time.Hour

var (
	ErrAlreadyStarted = errors.New("simulation engine already started")
	ErrInvalidPeriod  = domain.ErrInvalidPeriod
)

// State - состояние движка. Прогон одноразовый, возобновления нет.
type State int

const (
	NotStarted State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Config - параметры прогона
type Config struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
	Seed  int64
}

// RunState - явное состояние прогона, передаётся в Step и возвращается из него
type RunState struct {
	// Started становится true после первой границы (kick-start)
	Started     bool
	Epoch       int
	WindowStart time.Time
	Series      []float64
	Stats       []domain.EpochStats
}

// Option настраивает Engine
type Option func(*Engine)

// WithObserver задаёт колбэк, вызываемый после каждой эпохи
func WithObserver(fn func(domain.EpochStats)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// Engine проигрывает лог перемещений по эпохам
type Engine struct {
	registry *PlaceRegistry
	log      *TransitionLog
	cfg      Config
	rng      *rand.Rand
	logger   *zap.Logger
	state    State
	observer func(domain.EpochStats)
}

// NewEngine создает движок. Генератор случайных чисел инициализируется cfg.Seed.
func NewEngine(registry *PlaceRegistry, log *TransitionLog, cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	if cfg.Step == 0 {
		cfg.Step = DefaultStep
	}
	e := &Engine{
		registry: registry,
		log:      log,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State возвращает текущее состояние движка
func (e *Engine) State() State {
	return e.state
}

// Boundaries возвращает границы эпох: start, start+step, ... строго до end
func (e *Engine) Boundaries() []time.Time {
	var out []time.Time
	if e.cfg.Step <= 0 {
		return out
	}
	for t := e.cfg.Start; t.Before(e.cfg.End); t = t.Add(e.cfg.Step) {
		out = append(out, t)
	}
	return out
}

// Run выполняет весь прогон. Контекст проверяется между эпохами.
// Ссылка на неизвестное место падает в своей эпохе с EpochError.
func (e *Engine) Run(ctx context.Context) (RunState, error) {
	if e.state != NotStarted {
		return RunState{}, ErrAlreadyStarted
	}
	e.state = Running
	defer func() { e.state = Finished }()

	if e.cfg.Step <= 0 || !e.cfg.Start.Before(e.cfg.End) {
		return RunState{}, ErrInvalidPeriod
	}

	e.logger.Info("Simulation started",
		zap.Time("start", e.cfg.Start),
		zap.Time("end", e.cfg.End),
		zap.Duration("step", e.cfg.Step),
		zap.Int64("seed", e.cfg.Seed),
		zap.Int("places", e.registry.Len()),
		zap.Int("events", e.log.TotalEventCount()))

	var (
		state RunState
		err   error
	)
	for _, boundary := range e.Boundaries() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.logger.Warn("Simulation cancelled", zap.Int("epoch", state.Epoch))
			return state, fmt.Errorf("simulation cancelled at epoch %d: %w", state.Epoch, ctxErr)
		}

		state, err = e.Step(state, boundary)
		if err != nil {
			e.logger.Error("Simulation aborted", zap.Int("epoch", state.Epoch), zap.Error(err))
			return state, err
		}
	}

	e.logger.Info("Simulation finished",
		zap.Int("epochs", state.Epoch),
		zap.Int("recorded", len(state.Series)),
		zap.Int("infected_places", len(e.registry.InfectedPlaceIDs())))

	return state, nil
}

// Step обрабатывает окно (state.WindowStart, windowEnd]. Первый вызов только
// запоминает границу. Эпоха без событий не добавляет точку в ряд, но индекс растёт.
func (e *Engine) Step(state RunState, windowEnd time.Time) (RunState, error) {
	if !state.Started {
		state.Started = true
		state.WindowStart = windowEnd
		return state, nil
	}

	stats := domain.EpochStats{
		Epoch:       state.Epoch,
		WindowStart: state.WindowStart,
		WindowEnd:   windowEnd,
	}

	// размер каждого затронутого места до первого касания в эпохе
	touched := make(map[int64]int)

	for ev := range e.log.EventsInWindow(state.WindowStart, windowEnd) {
		placeID, err := e.apply(ev, touched, &stats)
		if err != nil {
			return state, &domain.EpochError{
				Epoch:       state.Epoch,
				WindowStart: state.WindowStart,
				WindowEnd:   windowEnd,
				PlaceID:     placeID,
				Err:         err,
			}
		}
		stats.Events++
	}

	if err := e.checkConservation(touched); err != nil {
		return state, &domain.EpochError{
			Epoch:       state.Epoch,
			WindowStart: state.WindowStart,
			WindowEnd:   windowEnd,
			Err:         err,
		}
	}

	if stats.Events > 0 {
		if total := e.log.TotalEventCount(); total > 0 {
			stats.Fraction = float64(stats.InfectedTally) / float64(total)
		}
		stats.Recorded = true
		state.Series = append(state.Series, stats.Fraction)
	}
	state.Stats = append(state.Stats, stats)

	e.logger.Debug("Epoch processed",
		zap.Int("epoch", stats.Epoch),
		zap.Time("window_end", windowEnd),
		zap.Int("events", stats.Events),
		zap.Int("infected_tally", stats.InfectedTally),
		zap.Float64("fraction", stats.Fraction))

	if e.observer != nil {
		e.observer(stats)
	}

	state.Epoch++
	state.WindowStart = windowEnd
	return state, nil
}

// apply проводит одно перемещение. Возвращает ID места, к которому относится ошибка.
func (e *Engine) apply(ev domain.MovementEvent, touched map[int64]int, stats *domain.EpochStats) (int64, error) {
	origin, err := e.registry.Place(ev.Origin)
	if err != nil {
		return ev.Origin, &domain.DataIntegrityError{PlaceID: ev.Origin, Reason: "movement origin is not registered", Err: err}
	}
	destination, err := e.registry.Place(ev.Destination)
	if err != nil {
		return ev.Destination, &domain.DataIntegrityError{PlaceID: ev.Destination, Reason: "movement destination is not registered", Err: err}
	}

	for _, p := range []*domain.Place{origin, destination} {
		if _, ok := touched[p.ID()]; !ok {
			touched[p.ID()] = p.Size()
		}
	}

	origin.AdvanceIncubation(ev.Departure)
	destination.AdvanceIncubation(ev.Arrival)

	ind, err := origin.Take(e.rng, ev.Departure)
	if err != nil {
		return ev.Origin, err
	}
	if err := destination.Admit(ind); err != nil {
		return ev.Destination, err
	}

	stats.InfectedTally += origin.TotalInfected() + destination.TotalInfected()
	stats.PopulationTally += origin.Size() + destination.Size()

	return 0, nil
}

func (e *Engine) checkConservation(touched map[int64]int) error {
	before, after := 0, 0
	for id, size := range touched {
		before += size
		p, _ := e.registry.Place(id)
		after += p.Size()
	}
	if before != after {
		return &domain.ConservationError{Before: before, After: after}
	}
	return nil
}
