package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lurebox/pkg/models"
)

// Style holds the response-style parameters handed through to the
// completion prompt.
type Style struct {
	TypingSpeed   string   `yaml:"typing_speed"`
	TypoFrequency string   `yaml:"typo_frequency"`
	EmojiUse      string   `yaml:"emoji_use"`
	CommonPhrases []string `yaml:"common_phrases"`
	MaxSentences  int      `yaml:"max_sentences"`
}

// Profile is a static behavioral profile used to shape generated
// replies. Loaded once at startup, shared across sessions, referenced
// by ID only.
type Profile struct {
	ID            string                      `yaml:"id"`
	Name          string                      `yaml:"name"`
	Age           int                         `yaml:"age"`
	TechLiteracy  string                      `yaml:"tech_literacy"`
	Backstory     string                      `yaml:"backstory"`
	Situation     string                      `yaml:"situation"`
	Traits        []string                    `yaml:"traits"`
	Triggers      []models.Category           `yaml:"triggers"`
	Affinity      map[models.Category]float64 `yaml:"affinity"`
	Style         Style                       `yaml:"style"`
	FallbackLines []string                    `yaml:"fallback_lines"`
}

// Fallback returns a persona-appropriate stalling line for the n-th
// fallback in a session. Deterministic.
func (p *Profile) Fallback(n int) string {
	if len(p.FallbackLines) == 0 {
		return "Sorry, can you say that again?"
	}
	return p.FallbackLines[n%len(p.FallbackLines)]
}

// Set is the full persona collection, ordered by declaration.
type Set struct {
	Profiles []Profile `yaml:"personas"`
}

// ByID returns the profile with the given id, or nil.
func (s *Set) ByID(id string) *Profile {
	for i := range s.Profiles {
		if s.Profiles[i].ID == id {
			return &s.Profiles[i]
		}
	}
	return nil
}

// Load reads a persona set from a YAML file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading persona set: %w", err)
	}
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing persona set: %w", err)
	}
	if len(set.Profiles) == 0 {
		return nil, fmt.Errorf("persona set %s declares no personas", path)
	}
	for _, p := range set.Profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("persona set %s contains a persona without an id", path)
		}
	}
	return &set, nil
}

// Default returns the built-in persona set.
func Default() *Set {
	return &Set{Profiles: []Profile{
		{
			ID:           "ramesh-kumar",
			Name:         "Ramesh Kumar",
			Age:          67,
			TechLiteracy: "low",
			Backstory:    "Retired school teacher living on a pension, recently started using UPI at his son's insistence.",
			Situation:    "Worried about his pension account after reading about frauds in the newspaper.",
			Traits: []string{
				"trusts anyone who sounds official",
				"asks the same question twice",
				"types slowly and makes spelling mistakes",
			},
			Triggers: []models.Category{models.CategoryBankImpersonation, models.CategoryGeneric},
			Affinity: map[models.Category]float64{
				models.CategoryBankImpersonation: 0.9,
				models.CategoryGeneric:           0.6,
				models.CategoryPrize:             0.3,
				models.CategoryInvestment:        0.2,
			},
			Style: Style{
				TypingSpeed:   "slow",
				TypoFrequency: "high",
				EmojiUse:      "never",
				CommonPhrases: []string{"beta please help", "I am not understanding", "my son told me"},
				MaxSentences:  3,
			},
			FallbackLines: []string{
				"Sorry I am not understanding. Can you explain again please?",
				"One minute beta, my glasses are somewhere",
			},
		},
		{
			ID:           "priya-sharma",
			Name:         "Priya Sharma",
			Age:          34,
			TechLiteracy: "medium",
			Backstory:    "Marketing manager juggling back-to-back calls, pays for everything over UPI.",
			Situation:    "Between meetings, distracted, replies in short bursts.",
			Traits: []string{
				"impatient but curious about offers",
				"replies late and briefly",
				"skims messages without reading fully",
			},
			Triggers: []models.Category{models.CategoryPrize},
			Affinity: map[models.Category]float64{
				models.CategoryPrize:             0.9,
				models.CategoryGeneric:           0.5,
				models.CategoryBankImpersonation: 0.4,
				models.CategoryInvestment:        0.4,
			},
			Style: Style{
				TypingSpeed:   "fast",
				TypoFrequency: "low",
				EmojiUse:      "occasional",
				CommonPhrases: []string{"wait one sec", "in a meeting", "send details"},
				MaxSentences:  2,
			},
			FallbackLines: []string{
				"Wait one sec, call coming",
				"In a meeting, msg in 5",
			},
		},
		{
			ID:           "rahul-verma",
			Name:         "Rahul Verma",
			Age:          21,
			TechLiteracy: "high",
			Backstory:    "Final-year college student short on rent money, always looking for a side income.",
			Situation:    "Behind on hostel fees, eager for anything that pays quickly.",
			Traits: []string{
				"enthusiastic about quick money",
				"uses slang and abbreviations",
				"asks for proof and screenshots",
			},
			Triggers: []models.Category{models.CategoryInvestment},
			Affinity: map[models.Category]float64{
				models.CategoryInvestment:        0.9,
				models.CategoryPrize:             0.6,
				models.CategoryGeneric:           0.5,
				models.CategoryBankImpersonation: 0.2,
			},
			Style: Style{
				TypingSpeed:   "fast",
				TypoFrequency: "medium",
				EmojiUse:      "frequent",
				CommonPhrases: []string{"bro", "how much can I make", "is this legit"},
				MaxSentences:  2,
			},
			FallbackLines: []string{
				"Hold on bro, just give me a minute",
				"network issue bro, say again",
			},
		},
	}}
}
