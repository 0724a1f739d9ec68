package domain

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)

func testModel() IncubationModel {
	return IncubationModel{IncubationPeriod: 48 * time.Hour, InfectiousPeriod: 96 * time.Hour}
}

func TestPlace_SetTotalMovements(t *testing.T) {
	t.Run("sets once", func(t *testing.T) {
		p := NewPlace(1, PlaceInfo{}, testModel())
		require.NoError(t, p.SetTotalMovements(5))
		assert.Equal(t, 5, p.TotalMovements())

		err := p.SetTotalMovements(7)
		var integrity *DataIntegrityError
		require.ErrorAs(t, err, &integrity)
		assert.Equal(t, int64(1), integrity.PlaceID)
		assert.Equal(t, 5, p.TotalMovements())
	})

	t.Run("rejects negative", func(t *testing.T) {
		p := NewPlace(2, PlaceInfo{}, testModel())
		err := p.SetTotalMovements(-1)
		var integrity *DataIntegrityError
		assert.ErrorAs(t, err, &integrity)
	})
}

func TestPlace_Seed(t *testing.T) {
	tests := []struct {
		name         string
		movements    int
		fraction     float64
		wantInfected int
	}{
		{"floor of fraction", 250, 0.01, 2},
		{"below one individual", 50, 0.01, 0},
		{"everyone", 4, 1.0, 4},
		{"no movements", 0, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlace(1, PlaceInfo{}, testModel())
			require.NoError(t, p.SetTotalMovements(tt.movements))

			next := p.Seed(10, SeedPolicy{InfectedFraction: tt.fraction, At: day0})

			assert.Equal(t, int64(10+tt.movements), next)
			assert.Equal(t, tt.movements, p.Size())
			assert.Equal(t, tt.wantInfected, p.TotalInfected())

			// the lowest IDs are the seeded infections
			for i := 0; i < tt.wantInfected; i++ {
				h, ok := p.HealthOf(10 + int64(i))
				require.True(t, ok)
				assert.Equal(t, Infected, h.State)
				assert.Equal(t, day0, h.Since)
			}
		})
	}
}

func TestPlace_AdvanceIncubation(t *testing.T) {
	newInfectedPlace := func() *Place {
		p := NewPlace(1, PlaceInfo{}, testModel())
		require.NoError(t, p.Admit(Individual{ID: 1, Health: Health{State: Infected, Since: day0}}))
		require.NoError(t, p.Admit(Individual{ID: 2, Health: Health{State: Susceptible}}))
		require.NoError(t, p.Admit(Individual{ID: 3, Health: Health{State: Susceptible}}))
		return p
	}

	t.Run("exposure makes susceptible members incubate", func(t *testing.T) {
		p := newInfectedPlace()
		at := day0.Add(time.Hour)
		p.AdvanceIncubation(at)

		h, _ := p.HealthOf(2)
		assert.Equal(t, Incubating, h.State)
		assert.Equal(t, at, h.Since)
		assert.Equal(t, 1, p.TotalInfected())
		assert.Equal(t, at, p.Clock())
	})

	t.Run("incubation then infection then recovery", func(t *testing.T) {
		p := newInfectedPlace()
		p.AdvanceIncubation(day0.Add(time.Hour))

		// incubating members become infected after the incubation period
		p.AdvanceIncubation(day0.Add(49 * time.Hour))
		assert.Equal(t, 3, p.TotalInfected())

		// seeded member recovers after the infectious period, the others later
		p.AdvanceIncubation(day0.Add(96 * time.Hour))
		assert.Equal(t, 2, p.TotalInfected())
		h, _ := p.HealthOf(1)
		assert.Equal(t, Recovered, h.State)

		p.AdvanceIncubation(day0.Add(200 * time.Hour))
		assert.Equal(t, 0, p.TotalInfected())
		assert.Equal(t, HealthCounts{Recovered: 3}, p.Counts())
	})

	t.Run("repeated and older times are no-ops", func(t *testing.T) {
		p := newInfectedPlace()
		at := day0.Add(time.Hour)
		p.AdvanceIncubation(at)
		before := p.Counts()

		p.AdvanceIncubation(at)
		p.AdvanceIncubation(day0)
		assert.Equal(t, before, p.Counts())
		assert.Equal(t, at, p.Clock())
	})

	t.Run("no exposure without infected members", func(t *testing.T) {
		p := NewPlace(1, PlaceInfo{}, testModel())
		p.SetPopulation([]int64{1, 2})
		p.AdvanceIncubation(day0.Add(time.Hour))
		assert.Equal(t, HealthCounts{Susceptible: 2}, p.Counts())
	})

	t.Run("recovered members are not reinfected", func(t *testing.T) {
		p := NewPlace(1, PlaceInfo{}, testModel())
		require.NoError(t, p.Admit(Individual{ID: 1, Health: Health{State: Recovered, Since: day0}}))
		require.NoError(t, p.Admit(Individual{ID: 2, Health: Health{State: Infected, Since: day0}}))
		p.AdvanceIncubation(day0.Add(time.Hour))

		h, _ := p.HealthOf(1)
		assert.Equal(t, Recovered, h.State)
	})
}

func TestPlace_SetPopulation(t *testing.T) {
	p := NewPlace(1, PlaceInfo{}, testModel())
	require.NoError(t, p.Admit(Individual{ID: 1, Health: Health{State: Infected, Since: day0}}))
	require.NoError(t, p.Admit(Individual{ID: 2, Health: Health{State: Infected, Since: day0}}))
	require.NoError(t, p.Admit(Individual{ID: 3}))
	require.Equal(t, 2, p.TotalInfected())

	// removing an infected member caps the infected count
	p.SetPopulation([]int64{2, 3, 4, 4})

	assert.Equal(t, []int64{2, 3, 4}, p.Population())
	assert.Equal(t, 1, p.TotalInfected())
	h, ok := p.HealthOf(4)
	require.True(t, ok)
	assert.Equal(t, Susceptible, h.State)
	assert.False(t, p.Has(1))

	p.SetPopulation(nil)
	assert.Equal(t, 0, p.Size())
	assert.Equal(t, 0, p.TotalInfected())
}

func TestPlace_TakeAndAdmit(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	t.Run("take removes the sampled member", func(t *testing.T) {
		p := NewPlace(1, PlaceInfo{}, testModel())
		require.NoError(t, p.Admit(Individual{ID: 7, Health: Health{State: Infected, Since: day0}}))

		ind, err := p.Take(rng, day0)
		require.NoError(t, err)
		assert.Equal(t, int64(7), ind.ID)
		assert.Equal(t, Infected, ind.Health.State)
		assert.Equal(t, 0, p.Size())
		assert.Equal(t, 0, p.TotalInfected())
	})

	t.Run("take from empty place", func(t *testing.T) {
		p := NewPlace(9, PlaceInfo{}, testModel())
		_, err := p.Take(rng, day0)

		var empty *EmptyPopulationError
		require.True(t, errors.As(err, &empty))
		assert.Equal(t, int64(9), empty.PlaceID)
		assert.Equal(t, day0, empty.At)
	})

	t.Run("admit rejects duplicates", func(t *testing.T) {
		p := NewPlace(1, PlaceInfo{}, testModel())
		require.NoError(t, p.Admit(Individual{ID: 1}))
		err := p.Admit(Individual{ID: 1})
		var integrity *DataIntegrityError
		assert.ErrorAs(t, err, &integrity)
	})

	t.Run("infected bound holds across random moves", func(t *testing.T) {
		a := NewPlace(1, PlaceInfo{}, testModel())
		b := NewPlace(2, PlaceInfo{}, testModel())
		for i := int64(1); i <= 20; i++ {
			h := Health{State: Susceptible}
			if i%3 == 0 {
				h = Health{State: Infected, Since: day0}
			}
			require.NoError(t, a.Admit(Individual{ID: i, Health: h}))
		}

		for i := 0; i < 15; i++ {
			ind, err := a.Take(rng, day0)
			require.NoError(t, err)
			require.NoError(t, b.Admit(ind))
			for _, p := range []*Place{a, b} {
				assert.GreaterOrEqual(t, p.TotalInfected(), 0)
				assert.LessOrEqual(t, p.TotalInfected(), p.Size())
			}
		}
		assert.Equal(t, 20, a.Size()+b.Size())
		assert.Equal(t, 6, a.TotalInfected()+b.TotalInfected())
	})
}
