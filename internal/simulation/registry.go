package simulation

import (
	"cmp"
	"slices"

	"github.com/placenet-simulator/internal/domain"
)

// PlaceRegistry - ориентированный граф мест и отображение ID -> Place.
// Рёбра материализуются только по запросу (экспорт, отрисовка).
type PlaceRegistry struct {
	model  domain.IncubationModel
	places map[int64]*domain.Place
	ids    []int64
	edges  map[int64]map[int64]int
}

// NewPlaceRegistry создает пустой реестр
func NewPlaceRegistry(model domain.IncubationModel) *PlaceRegistry {
	return &PlaceRegistry{
		model:  model,
		places: make(map[int64]*domain.Place),
	}
}

// LoadPlaces создаёт по одному месту на запись фида локаций
func (r *PlaceRegistry) LoadPlaces(records []domain.LocationRecord) error {
	for _, rec := range records {
		if _, ok := r.places[rec.PlaceID]; ok {
			return &domain.DataIntegrityError{PlaceID: rec.PlaceID, Reason: "duplicate place identifier"}
		}
		r.places[rec.PlaceID] = domain.NewPlace(rec.PlaceID, rec.Info, r.model)
		r.ids = append(r.ids, rec.PlaceID)
	}
	slices.Sort(r.ids)
	return nil
}

// Place возвращает место по ID
func (r *PlaceRegistry) Place(id int64) (*domain.Place, error) {
	p, ok := r.places[id]
	if !ok {
		return nil, &domain.UnknownPlaceError{PlaceID: id}
	}
	return p, nil
}

// Len возвращает число мест
func (r *PlaceRegistry) Len() int {
	return len(r.ids)
}

// IDs возвращает отсортированные ID мест
func (r *PlaceRegistry) IDs() []int64 {
	return slices.Clone(r.ids)
}

// SeedMovementTotals задаёт каждому месту число исходящих перемещений из готовой
// таблицы и заселяет места по policy. Места обходятся по возрастанию ID, поэтому
// ID особей детерминированы. Возвращает число созданных особей.
func (r *PlaceRegistry) SeedMovementTotals(counts map[int64]int, policy domain.SeedPolicy) (int, error) {
	for id := range counts {
		if _, ok := r.places[id]; !ok {
			return 0, &domain.DataIntegrityError{
				PlaceID: id,
				Reason:  "movement counts reference unregistered place",
				Err:     &domain.UnknownPlaceError{PlaceID: id},
			}
		}
	}

	var next int64 = 1
	for _, id := range r.ids {
		p := r.places[id]
		if err := p.SetTotalMovements(counts[id]); err != nil {
			return 0, err
		}
		next = p.Seed(next, policy)
	}

	return int(next - 1), nil
}

// MaterializeEdges строит рёбра графа по логу перемещений
func (r *PlaceRegistry) MaterializeEdges(log *TransitionLog) {
	r.edges = make(map[int64]map[int64]int)
	for _, ev := range log.events {
		out, ok := r.edges[ev.Origin]
		if !ok {
			out = make(map[int64]int)
			r.edges[ev.Origin] = out
		}
		out[ev.Destination]++
	}
}

// Edges возвращает материализованные рёбра, отсортированные по (From, To)
func (r *PlaceRegistry) Edges() []domain.Edge {
	out := []domain.Edge{}
	for from, dests := range r.edges {
		for to, w := range dests {
			out = append(out, domain.Edge{From: from, To: to, Weight: w})
		}
	}
	slices.SortFunc(out, func(a, b domain.Edge) int {
		if a.From != b.From {
			return cmp.Compare(a.From, b.From)
		}
		return cmp.Compare(a.To, b.To)
	})
	return out
}

// InfectedPlaceIDs возвращает отсортированные ID мест с заражёнными особями
func (r *PlaceRegistry) InfectedPlaceIDs() []int64 {
	var out []int64
	for _, id := range r.ids {
		if r.places[id].IsInfected() {
			out = append(out, id)
		}
	}
	return out
}

// InfectedSnapshot возвращает заражённые места с координатами
func (r *PlaceRegistry) InfectedSnapshot() []domain.PlaceSnapshot {
	var out []domain.PlaceSnapshot
	for _, id := range r.ids {
		p := r.places[id]
		if !p.IsInfected() {
			continue
		}
		out = append(out, domain.PlaceSnapshot{
			PlaceID:    id,
			Point:      p.Info().Point(),
			Name:       p.Info().Name,
			Infected:   p.TotalInfected(),
			Population: p.Size(),
		})
	}
	return out
}

// TotalPopulation - суммарное население всех мест
func (r *PlaceRegistry) TotalPopulation() int {
	total := 0
	for _, p := range r.places {
		total += p.Size()
	}
	return total
}

// TotalInfected - суммарное число заражённых
func (r *PlaceRegistry) TotalInfected() int {
	total := 0
	for _, p := range r.places {
		total += p.TotalInfected()
	}
	return total
}
