package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lurebox/pkg/models"
)

func TestSelect_AffinityArgmax(t *testing.T) {
	sel := NewSelector(Default())

	assert.Equal(t, "ramesh-kumar", sel.Select(models.CategoryBankImpersonation, models.PhaseObserving))
	assert.Equal(t, "priya-sharma", sel.Select(models.CategoryPrize, models.PhaseObserving))
	assert.Equal(t, "rahul-verma", sel.Select(models.CategoryInvestment, models.PhaseObserving))
	assert.Equal(t, "ramesh-kumar", sel.Select(models.CategoryGeneric, models.PhaseObserving))
}

func TestSelect_DeterministicTieBreak(t *testing.T) {
	set := &Set{Profiles: []Profile{
		{ID: "a", Affinity: map[models.Category]float64{models.CategoryPrize: 0.5}},
		{ID: "b", Affinity: map[models.Category]float64{models.CategoryPrize: 0.5}},
	}}
	sel := NewSelector(set)

	for i := 0; i < 10; i++ {
		assert.Equal(t, "a", sel.Select(models.CategoryPrize, models.PhaseObserving),
			"unseeded ties resolve by declaration order")
	}
}

func TestSelect_SeededTieBreakReproducible(t *testing.T) {
	set := &Set{Profiles: []Profile{
		{ID: "a", Affinity: map[models.Category]float64{models.CategoryPrize: 0.5}},
		{ID: "b", Affinity: map[models.Category]float64{models.CategoryPrize: 0.5}},
	}}

	first := NewSeededSelector(set, 42)
	second := NewSeededSelector(set, 42)
	for i := 0; i < 10; i++ {
		assert.Equal(t,
			first.Select(models.CategoryPrize, models.PhaseObserving),
			second.Select(models.CategoryPrize, models.PhaseObserving),
			"same seed must produce the same sequence")
	}
}

func TestSelect_UnknownCategoryFallsBackToFirst(t *testing.T) {
	set := &Set{Profiles: []Profile{
		{ID: "only", Affinity: map[models.Category]float64{}},
	}}
	sel := NewSelector(set)
	assert.Equal(t, "only", sel.Select(models.CategoryNone, models.PhaseIdle))
}
