package scorer

import (
	"sort"
	"strings"

	"github.com/lurebox/internal/patterns"
	"github.com/lurebox/pkg/models"
)

// Similarity scores how close a message is to a set of reference
// phrases, in [0,1]. The production implementation may be backed by an
// embedding model; tests use the deterministic TokenOverlap.
type Similarity interface {
	Score(text string, refs []string) float64
}

// Config holds the scoring policy parameters. Values come from the
// process configuration, not from this package.
type Config struct {
	LexicalWeight  float64
	SemanticWeight float64
	Threshold      float64
}

// Scorer combines lexical cue matching with a semantic similarity
// signal. Pure: identical text and library state always produce the
// identical assessment.
type Scorer struct {
	lib *patterns.Library
	sim Similarity
	cfg Config
}

// New builds a scorer over a static library. A nil sim falls back to
// TokenOverlap.
func New(lib *patterns.Library, sim Similarity, cfg Config) *Scorer {
	if sim == nil {
		sim = TokenOverlap{}
	}
	return &Scorer{lib: lib, sim: sim, cfg: cfg}
}

// Score assesses one message. Empty or whitespace-only text is
// rejected with models.ErrInvalidInput before any matching happens.
func (s *Scorer) Score(text string) (models.Assessment, error) {
	if strings.TrimSpace(text) == "" {
		return models.Assessment{}, models.ErrInvalidInput
	}

	lower := strings.ToLower(text)

	var (
		matched      []string
		totalMatches int
		bestWeight   float64
		bestCategory = models.CategoryNone
	)
	// Declaration order of the cue groups breaks weight ties: the first
	// group at the top weight wins.
	for _, g := range s.lib.Groups {
		hits := 0
		for _, cue := range g.Cues {
			if strings.Contains(lower, cue) {
				matched = append(matched, cue)
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		totalMatches += hits
		if g.Weight > bestWeight {
			bestWeight = g.Weight
			bestCategory = g.Category
		}
	}

	lexical := 0.0
	if totalMatches > 0 {
		lexical = bestWeight + 0.1*float64(totalMatches-1)
		if lexical > 1.0 {
			lexical = 1.0
		}
	}

	semantic := 0.0
	if bestCategory != models.CategoryNone {
		semantic = s.sim.Score(lower, s.lib.RefPhrases(bestCategory))
	} else {
		// No lexical anchor: take the best reference similarity so a
		// cue-free paraphrase still registers.
		for _, ref := range s.lib.References {
			if v := s.sim.Score(lower, ref.Phrases); v > semantic {
				semantic = v
			}
		}
	}

	score := s.cfg.LexicalWeight*lexical + s.cfg.SemanticWeight*semantic
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}

	actionable := score >= s.cfg.Threshold
	category := bestCategory
	if !actionable {
		category = models.CategoryNone
	}

	sort.Strings(matched)
	return models.Assessment{
		Score:       score,
		Category:    category,
		MatchedCues: matched,
		Urgency:     s.urgency(lower),
		Actionable:  actionable,
	}, nil
}

func (s *Scorer) urgency(lower string) models.Urgency {
	for _, cue := range s.lib.HighUrgencyCues {
		if strings.Contains(lower, cue) {
			return models.UrgencyHigh
		}
	}
	for _, cue := range s.lib.MediumUrgencyCues {
		if strings.Contains(lower, cue) {
			return models.UrgencyMedium
		}
	}
	return models.UrgencyLow
}

// Suspicious reports whether the sender appears to be probing for an
// automated counterpart. The result feeds directive tone hints, never
// a phase change.
func (s *Scorer) Suspicious(text string) bool {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, cue := range s.lib.SuspicionCues {
		if strings.Contains(cue, " ") {
			if strings.Contains(lower, cue) {
				return true
			}
			continue
		}
		// Single-word cues ("bot", "ai") must match whole tokens or
		// they would fire on words like "about".
		for _, f := range fields {
			if f == cue {
				return true
			}
		}
	}
	return false
}
