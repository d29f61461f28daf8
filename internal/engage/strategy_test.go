package engage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lurebox/pkg/models"
)

func testStrategy() *Strategy {
	return NewStrategy(Policy{
		MaxTurns:      20,
		MaxHighValue:  3,
		MaxReplyChars: 400,
		TrustTurns:    3,
	})
}

func TestPlan_TransitionChain(t *testing.T) {
	s := testStrategy()
	actionable := models.Assessment{Score: 0.8, Category: models.CategoryPrize, Actionable: true}
	benign := models.Assessment{Score: 0.1, Category: models.CategoryNone}

	// A first actionable message with a high-value artifact chains all
	// the way to extracting in one turn.
	assert.Equal(t, models.PhaseExtracting, s.Plan(models.PhaseIdle, 1, actionable, 1))

	// Without an artifact it stops at engaging.
	assert.Equal(t, models.PhaseEngaging, s.Plan(models.PhaseIdle, 1, actionable, 0))

	// A benign first message only reaches observing.
	assert.Equal(t, models.PhaseObserving, s.Plan(models.PhaseIdle, 1, benign, 0))

	// Observing stays put until something actionable arrives.
	assert.Equal(t, models.PhaseObserving, s.Plan(models.PhaseObserving, 2, benign, 0))
	assert.Equal(t, models.PhaseEngaging, s.Plan(models.PhaseObserving, 2, actionable, 0))
}

func TestPlan_Monotonic(t *testing.T) {
	s := testStrategy()
	benign := models.Assessment{Score: 0.1, Category: models.CategoryNone}

	// A low-scoring later message never demotes the phase.
	assert.Equal(t, models.PhaseEngaging, s.Plan(models.PhaseEngaging, 5, benign, 0))
	assert.Equal(t, models.PhaseExtracting, s.Plan(models.PhaseExtracting, 6, benign, 1))
	assert.Equal(t, models.PhaseConcluding, s.Plan(models.PhaseConcluding, 7, benign, 1))
}

func TestPlan_TurnCeiling(t *testing.T) {
	s := testStrategy()
	benign := models.Assessment{Score: 0.1, Category: models.CategoryNone}

	// Hitting the turn ceiling concludes regardless of the final
	// message's score or phase.
	assert.Equal(t, models.PhaseConcluding, s.Plan(models.PhaseEngaging, 20, benign, 0))
	assert.Equal(t, models.PhaseConcluding, s.Plan(models.PhaseObserving, 20, benign, 0))
	assert.Equal(t, models.PhaseEngaging, s.Plan(models.PhaseEngaging, 19, benign, 0))
}

func TestPlan_HighValueCeiling(t *testing.T) {
	s := testStrategy()
	actionable := models.Assessment{Score: 0.8, Category: models.CategoryBankImpersonation, Actionable: true}

	assert.Equal(t, models.PhaseConcluding, s.Plan(models.PhaseExtracting, 5, actionable, 3))
	assert.Equal(t, models.PhaseExtracting, s.Plan(models.PhaseExtracting, 5, actionable, 2))
}

func TestPlan_ClosedNeverReopens(t *testing.T) {
	s := testStrategy()
	actionable := models.Assessment{Score: 0.9, Category: models.CategoryPrize, Actionable: true}

	assert.Equal(t, models.PhaseClosed, s.Plan(models.PhaseClosed, 21, actionable, 3))
}

func TestObjective(t *testing.T) {
	s := testStrategy()

	assert.Equal(t, models.ObjectiveObserve, s.Objective(models.PhaseObserving, 1))
	assert.Equal(t, models.ObjectiveBuildTrust, s.Objective(models.PhaseEngaging, 2))
	assert.Equal(t, models.ObjectiveBuildTrust, s.Objective(models.PhaseEngaging, 3))
	assert.Equal(t, models.ObjectiveElicit, s.Objective(models.PhaseEngaging, 4))
	assert.Equal(t, models.ObjectiveCorroborate, s.Objective(models.PhaseExtracting, 5))
	assert.Equal(t, models.ObjectiveStall, s.Objective(models.PhaseConcluding, 19))
	assert.Equal(t, models.ObjectiveStall, s.Objective(models.PhaseClosed, 20))
}

func TestDirective(t *testing.T) {
	s := testStrategy()

	d := s.Directive("priya-sharma", models.PhaseEngaging, 2,
		models.Assessment{Urgency: models.UrgencyHigh, Actionable: true}, false)

	assert.Equal(t, "priya-sharma", d.PersonaID)
	assert.Equal(t, models.ObjectiveBuildTrust, d.Objective)
	assert.Equal(t, 400, d.Constraints.MaxReplyChars)
	assert.NotEmpty(t, d.Constraints.Bans)
	assert.Contains(t, d.Constraints.ToneHints, "slightly flustered by the pressure")

	d = s.Directive("ramesh-kumar", models.PhaseConcluding, 19,
		models.Assessment{Urgency: models.UrgencyLow}, true)
	assert.Contains(t, d.Constraints.ToneHints, "casual and unbothered")
	assert.Contains(t, d.Constraints.ToneHints, "increasingly distracted")
}
