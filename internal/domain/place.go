package domain

import (
	"math"
	"math/rand"
	"slices"
	"time"
)

// HealthState - состояние особи в модели инкубации
type HealthState int

const (
	Susceptible HealthState = iota
	Incubating
	Infected
	Recovered
)

func (s HealthState) String() string {
	switch s {
	case Susceptible:
		return "susceptible"
	case Incubating:
		return "incubating"
	case Infected:
		return "infected"
	case Recovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Health - состояние особи и момент перехода в него
type Health struct {
	State HealthState `json:"state"`
	Since time.Time   `json:"since"`
}

// Individual - особь вместе с её состоянием здоровья.
// При миграции состояние переезжает вместе с особью.
type Individual struct {
	ID     int64  `json:"id"`
	Health Health `json:"health"`
}

// PlaceInfo - статические метаданные места. Ядро симуляции их не интерпретирует.
type PlaceInfo struct {
	Lat           float64 `json:"lat" db:"lat" validate:"gte=-90,lte=90"`
	Lon           float64 `json:"lon" db:"lon" validate:"gte=-180,lte=180"`
	Category      string  `json:"category" db:"category"`
	CheckinsCount string  `json:"checkins_count" db:"checkins_count"`
	UsersCount    string  `json:"users_count" db:"users_count"`
	Name          string  `json:"name" db:"name"`
}

// Point возвращает координаты места
func (i PlaceInfo) Point() Point {
	return Point{Lat: i.Lat, Lon: i.Lon}
}

// LocationRecord - запись фида локаций
type LocationRecord struct {
	PlaceID int64     `json:"place_id" db:"place_id" validate:"gte=0"`
	Info    PlaceInfo `json:"info"`
}

// IncubationModel задаёт длительности фаз.
//
// Переходы при AdvanceIncubation(asOf):
//  1. incubating -> infected, когда прошло IncubationPeriod;
//  2. infected -> recovered, когда прошло InfectiousPeriod (recovered терминально);
//  3. если в месте есть хотя бы один infected, все susceptible становятся incubating с since = asOf.
type IncubationModel struct {
	IncubationPeriod time.Duration `json:"incubation_period"`
	InfectiousPeriod time.Duration `json:"infectious_period"`
}

// DefaultIncubationModel - 3 дня инкубации, 10 дней заразности
var DefaultIncubationModel = IncubationModel{
	IncubationPeriod: 72 * time.Hour,
	InfectiousPeriod: 240 * time.Hour,
}

// SeedPolicy - начальное заражение: floor(n * InfectedFraction) особей места
// с наименьшими ID заражены с момента At
type SeedPolicy struct {
	InfectedFraction float64   `json:"infected_fraction" validate:"gte=0,lte=1"`
	At               time.Time `json:"at"`
}

// HealthCounts - количество особей по состояниям
type HealthCounts struct {
	Susceptible int `json:"susceptible"`
	Incubating  int `json:"incubating"`
	Infected    int `json:"infected"`
	Recovered   int `json:"recovered"`
}

// Place хранит население и состояние инфекции одного места.
// Место изменяется только движком симуляции, последовательно.
type Place struct {
	id    int64
	info  PlaceInfo
	model IncubationModel

	// members хранит порядок для детерминированной выборки, index - позицию в members
	members []int64
	index   map[int64]int
	health  map[int64]Health

	infected       int
	totalMovements int
	movementsSet   bool
	clock          time.Time
}

// NewPlace создает место без населения
func NewPlace(id int64, info PlaceInfo, model IncubationModel) *Place {
	return &Place{
		id:     id,
		info:   info,
		model:  model,
		index:  make(map[int64]int),
		health: make(map[int64]Health),
	}
}

// ID возвращает идентификатор места
func (p *Place) ID() int64 {
	return p.id
}

// Info возвращает метаданные места
func (p *Place) Info() PlaceInfo {
	return p.info
}

// TotalMovements возвращает число исторических исходящих перемещений
func (p *Place) TotalMovements() int {
	return p.totalMovements
}

// SetTotalMovements задаёт число исходящих перемещений. Допускается ровно один вызов.
func (p *Place) SetTotalMovements(n int) error {
	if n < 0 {
		return &DataIntegrityError{PlaceID: p.id, Reason: "negative total movements"}
	}
	if p.movementsSet {
		return &DataIntegrityError{PlaceID: p.id, Reason: "total movements already set"}
	}
	p.totalMovements = n
	p.movementsSet = true
	return nil
}

// Seed заселяет место totalMovements новыми особями с ID начиная с firstID
// и заражает часть из них согласно policy. Возвращает следующий свободный ID.
func (p *Place) Seed(firstID int64, policy SeedPolicy) int64 {
	n := p.totalMovements
	infected := int(math.Floor(float64(n) * policy.InfectedFraction))

	for i := 0; i < n; i++ {
		id := firstID + int64(i)
		h := Health{State: Susceptible}
		if i < infected {
			h = Health{State: Infected, Since: policy.At}
		}
		p.add(id, h)
	}

	return firstID + int64(n)
}

// Population возвращает отсортированную копию множества особей
func (p *Place) Population() []int64 {
	out := slices.Clone(p.members)
	slices.Sort(out)
	return out
}

// Size возвращает размер населения
func (p *Place) Size() int {
	return len(p.members)
}

// SetPopulation заменяет множество особей. Оставшиеся особи сохраняют состояние,
// новые становятся susceptible, счётчик заражённых пересчитывается.
func (p *Place) SetPopulation(ids []int64) {
	prev := p.health

	p.members = make([]int64, 0, len(ids))
	p.index = make(map[int64]int, len(ids))
	p.health = make(map[int64]Health, len(ids))
	p.infected = 0

	for _, id := range ids {
		if _, dup := p.index[id]; dup {
			continue
		}
		h, ok := prev[id]
		if !ok {
			h = Health{State: Susceptible}
		}
		p.add(id, h)
	}
}

// Has проверяет, находится ли особь в месте
func (p *Place) Has(id int64) bool {
	_, ok := p.index[id]
	return ok
}

// HealthOf возвращает состояние особи
func (p *Place) HealthOf(id int64) (Health, bool) {
	h, ok := p.health[id]
	return h, ok
}

// Take выбирает равномерно случайную особь и удаляет её из места
func (p *Place) Take(rng *rand.Rand, at time.Time) (Individual, error) {
	if len(p.members) == 0 {
		return Individual{}, &EmptyPopulationError{PlaceID: p.id, At: at}
	}

	id := p.members[rng.Intn(len(p.members))]
	ind := Individual{ID: id, Health: p.health[id]}
	p.remove(id)

	return ind, nil
}

// Admit добавляет особь вместе с её состоянием
func (p *Place) Admit(ind Individual) error {
	if _, ok := p.index[ind.ID]; ok {
		return &DataIntegrityError{PlaceID: p.id, Reason: "individual already present"}
	}
	p.add(ind.ID, ind.Health)
	return nil
}

// AdvanceIncubation продвигает часы инкубации до asOf.
// Вызов с asOf не позже текущих часов ничего не меняет.
func (p *Place) AdvanceIncubation(asOf time.Time) {
	if !asOf.After(p.clock) {
		return
	}

	for _, id := range p.members {
		h := p.health[id]

		if h.State == Incubating && asOf.Sub(h.Since) >= p.model.IncubationPeriod {
			h = Health{State: Infected, Since: h.Since.Add(p.model.IncubationPeriod)}
			p.infected++
		}
		if h.State == Infected && asOf.Sub(h.Since) >= p.model.InfectiousPeriod {
			h = Health{State: Recovered, Since: h.Since.Add(p.model.InfectiousPeriod)}
			p.infected--
		}

		p.health[id] = h
	}

	if p.infected > 0 {
		for _, id := range p.members {
			if p.health[id].State == Susceptible {
				p.health[id] = Health{State: Incubating, Since: asOf}
			}
		}
	}

	p.clock = asOf
}

// Clock возвращает момент последнего продвижения инкубации
func (p *Place) Clock() time.Time {
	return p.clock
}

// TotalInfected возвращает число заражённых особей в месте
func (p *Place) TotalInfected() int {
	return p.infected
}

// IsInfected - есть ли в месте хотя бы одна заражённая особь
func (p *Place) IsInfected() bool {
	return p.infected > 0
}

// Counts возвращает число особей по состояниям
func (p *Place) Counts() HealthCounts {
	var c HealthCounts
	for _, id := range p.members {
		switch p.health[id].State {
		case Susceptible:
			c.Susceptible++
		case Incubating:
			c.Incubating++
		case Infected:
			c.Infected++
		case Recovered:
			c.Recovered++
		}
	}
	return c
}

func (p *Place) add(id int64, h Health) {
	p.index[id] = len(p.members)
	p.members = append(p.members, id)
	p.health[id] = h
	if h.State == Infected {
		p.infected++
	}
}

func (p *Place) remove(id int64) {
	i, ok := p.index[id]
	if !ok {
		return
	}

	last := len(p.members) - 1
	if i != last {
		moved := p.members[last]
		p.members[i] = moved
		p.index[moved] = i
	}
	p.members = p.members[:last]
	delete(p.index, id)

	if p.health[id].State == Infected {
		p.infected--
	}
	delete(p.health, id)
}
