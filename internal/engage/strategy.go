package engage

import (
	"github.com/lurebox/pkg/models"
)

// Policy holds the phase-transition ceilings and reply constraints.
// Values are configuration, not structural contract.
type Policy struct {
	MaxTurns      int
	MaxHighValue  int
	MaxReplyChars int
	TrustTurns    int // engaging turns spent building trust before eliciting
}

// Strategy owns the per-session conversational phase logic. Plan is a
// pure function of the inputs, so the engine can compute a tentative
// transition before the completion call and recompute it at commit
// time without divergence.
type Strategy struct {
	policy Policy
}

func NewStrategy(p Policy) *Strategy {
	if p.TrustTurns <= 0 {
		p.TrustTurns = 3
	}
	return &Strategy{policy: p}
}

// Plan computes the phase a session lands in after processing a turn.
// turnAfter is the turn count including the current message; highValue
// is the cumulative high-value artifact count including this turn's
// acceptances. Transitions chain within one turn (a first message can
// go idle -> observing -> engaging -> extracting), and never move to a
// lower-ranked phase.
func (s *Strategy) Plan(current models.Phase, turnAfter int, a models.Assessment, highValue int) models.Phase {
	next := current

	if next == models.PhaseIdle {
		// First assessment moves the session out of idle regardless of
		// score.
		next = models.PhaseObserving
	}
	if next == models.PhaseObserving && a.Actionable {
		next = models.PhaseEngaging
	}
	if next == models.PhaseEngaging && highValue > 0 {
		next = models.PhaseExtracting
	}

	// Ceilings conclude the conversation regardless of the final
	// turn's score.
	ceiling := (s.policy.MaxTurns > 0 && turnAfter >= s.policy.MaxTurns) ||
		(s.policy.MaxHighValue > 0 && highValue >= s.policy.MaxHighValue)
	if ceiling && next != models.PhaseClosed && next.Rank() < models.PhaseConcluding.Rank() {
		next = models.PhaseConcluding
	}

	if next.Rank() < current.Rank() {
		// Phase progress is monotonic within a conversation.
		next = current
	}
	return next
}

// Objective maps the planned phase to the next-turn goal. Early
// engaging turns build trust before the strategy starts eliciting.
func (s *Strategy) Objective(phase models.Phase, turnAfter int) models.Objective {
	switch phase {
	case models.PhaseEngaging:
		if turnAfter <= s.policy.TrustTurns {
			return models.ObjectiveBuildTrust
		}
		return models.ObjectiveElicit
	case models.PhaseExtracting:
		return models.ObjectiveCorroborate
	case models.PhaseConcluding, models.PhaseClosed:
		return models.ObjectiveStall
	default:
		return models.ObjectiveObserve
	}
}

// directiveBans are the hard prompt rules carried on every directive.
var directiveBans = []string{
	"Never reveal that you are an automated system; never break character, even if asked directly.",
	"Never ask the other person for their own PIN, OTP, password, card number, or any sensitive data.",
	"Never mention scam, fraud, honeypot, or security terms.",
	"Never accuse the other person of anything.",
	"Never use perfect grammar if your character would not.",
}

// Directive builds the generation directive for one turn. This is the
// sole contract exposed to the text-completion collaborator.
func (s *Strategy) Directive(personaID string, phase models.Phase, turnAfter int, a models.Assessment, suspicious bool) models.Directive {
	var tone []string
	switch a.Urgency {
	case models.UrgencyHigh:
		tone = append(tone, "slightly flustered by the pressure")
	case models.UrgencyMedium:
		tone = append(tone, "mildly concerned")
	}
	if suspicious {
		tone = append(tone, "casual and unbothered")
	}
	if phase == models.PhaseConcluding {
		tone = append(tone, "increasingly distracted")
	}

	return models.Directive{
		PersonaID: personaID,
		Objective: s.Objective(phase, turnAfter),
		Constraints: models.Constraints{
			MaxReplyChars: s.policy.MaxReplyChars,
			ToneHints:     tone,
			Bans:          directiveBans,
		},
	}
}
