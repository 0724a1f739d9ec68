package simulation

import (
	"iter"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/placenet-simulator/internal/domain"
)

// maxMalformedSamples - сколько ошибок разбора хранить для диагностики
const maxMalformedSamples = 20

// DefaultTimeLayouts - форматы временных меток фида перемещений
var DefaultTimeLayouts = []string{
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05.999999",
	time.DateOnly,
}

// TransitionLog - отсортированная по времени отправления последовательность перемещений.
// После загрузки не изменяется.
type TransitionLog struct {
	events    []domain.MovementEvent
	malformed int
	inverted  int
	samples   []*domain.MalformedRecordError
}

// LoadTransitionLog разбирает временные метки и сортирует события по отправлению.
// Строки с неразборчивыми метками пропускаются и учитываются. Если строки есть,
// но ни одна не разобрана, возвращается MalformedRecordError.
func LoadTransitionLog(raw []domain.RawTransition, layouts []string) (*TransitionLog, error) {
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}

	l := &TransitionLog{
		events: make([]domain.MovementEvent, 0, len(raw)),
	}

	var firstErr *domain.MalformedRecordError
	for _, r := range raw {
		departure, err := parseTimestamp(r.Line, "departure", r.Departure, layouts)
		if err == nil {
			var arrival time.Time
			arrival, err = parseTimestamp(r.Line, "arrival", r.Arrival, layouts)
			if err == nil {
				if departure.After(arrival) {
					l.inverted++
				}
				l.events = append(l.events, domain.MovementEvent{
					Origin:      r.Origin,
					Destination: r.Destination,
					Departure:   departure,
					Arrival:     arrival,
				})
				continue
			}
		}

		l.malformed++
		if firstErr == nil {
			firstErr = err
		}
		if len(l.samples) < maxMalformedSamples {
			l.samples = append(l.samples, err)
		}
	}

	if len(raw) > 0 && len(l.events) == 0 {
		return nil, firstErr
	}

	slices.SortStableFunc(l.events, func(a, b domain.MovementEvent) int {
		return a.Departure.Compare(b.Departure)
	})

	return l, nil
}

func parseTimestamp(line int, field, value string, layouts []string) (time.Time, *domain.MalformedRecordError) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, &domain.MalformedRecordError{Line: line, Field: field, Value: value, Reason: "empty timestamp"}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &domain.MalformedRecordError{Line: line, Field: field, Value: value, Reason: "unparsable timestamp"}
}

// EventsInWindow возвращает события с window_start < departure <= window_end
// и arrival <= window_end. Бинарный поиск находит первое событие окна,
// перебор останавливается на первом отправлении после window_end.
func (l *TransitionLog) EventsInWindow(start, end time.Time) iter.Seq[domain.MovementEvent] {
	return func(yield func(domain.MovementEvent) bool) {
		i := sort.Search(len(l.events), func(i int) bool {
			return l.events[i].Departure.After(start)
		})
		for ; i < len(l.events); i++ {
			ev := l.events[i]
			if ev.Departure.After(end) {
				return
			}
			if ev.Arrival.After(end) {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// TotalEventCount - число загруженных событий, знаменатель ряда долей заражённых
func (l *TransitionLog) TotalEventCount() int {
	return len(l.events)
}

// Events возвращает копию событий в порядке лога
func (l *TransitionLog) Events() []domain.MovementEvent {
	return slices.Clone(l.events)
}

// OutgoingCounts считает исходящие перемещения по местам за один проход
func (l *TransitionLog) OutgoingCounts() map[int64]int {
	counts := make(map[int64]int)
	for _, ev := range l.events {
		counts[ev.Origin]++
	}
	return counts
}

// MalformedCount - число пропущенных строк
func (l *TransitionLog) MalformedCount() int {
	return l.malformed
}

// MalformedSamples - первые ошибки разбора
func (l *TransitionLog) MalformedSamples() []*domain.MalformedRecordError {
	return l.samples
}

// InvertedCount - число событий с отправлением позже прибытия
func (l *TransitionLog) InvertedCount() int {
	return l.inverted
}

// Span возвращает время первого и последнего отправления
func (l *TransitionLog) Span() (time.Time, time.Time, bool) {
	if len(l.events) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return l.events[0].Departure, l.events[len(l.events)-1].Departure, true
}
