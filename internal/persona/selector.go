package persona

import (
	"math/rand"

	"github.com/lurebox/pkg/models"
)

// Selector maps a detected category and conversation phase to one
// persona. Selection is a pure argmax over static affinity weights;
// declaration order breaks ties unless a seeded tie-break source is
// supplied for diversity.
type Selector struct {
	set *Set
	rng *rand.Rand
}

// NewSelector builds a deterministic selector.
func NewSelector(set *Set) *Selector {
	return &Selector{set: set}
}

// NewSeededSelector builds a selector that breaks exact affinity ties
// randomly but reproducibly from the given seed.
func NewSeededSelector(set *Set, seed int64) *Selector {
	return &Selector{set: set, rng: rand.New(rand.NewSource(seed))}
}

// Select returns the persona id best suited to the category at the
// given phase. The phase is part of the contract so a future policy can
// differentiate; the current affinity tables do not.
func (s *Selector) Select(category models.Category, _ models.Phase) string {
	best := -1.0
	var tied []int
	for i := range s.set.Profiles {
		w := s.set.Profiles[i].Affinity[category]
		switch {
		case w > best:
			best = w
			tied = tied[:0]
			tied = append(tied, i)
		case w == best:
			tied = append(tied, i)
		}
	}
	if len(tied) == 0 {
		return s.set.Profiles[0].ID
	}
	idx := tied[0]
	if s.rng != nil && len(tied) > 1 {
		idx = tied[s.rng.Intn(len(tied))]
	}
	return s.set.Profiles[idx].ID
}
