package scorer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lurebox/internal/patterns"
	"github.com/lurebox/pkg/models"
)

func testScorer() *Scorer {
	return New(patterns.Default(), nil, Config{
		LexicalWeight:  0.7,
		SemanticWeight: 0.3,
		Threshold:      0.6,
	})
}

func TestScore_PrizeMessage(t *testing.T) {
	s := testScorer()

	a, err := s.Score("Congratulations! You won Rs 50,000! Send your UPI ID to winner@paytm")
	require.NoError(t, err)

	assert.Equal(t, models.CategoryPrize, a.Category)
	assert.GreaterOrEqual(t, a.Score, 0.6)
	assert.True(t, a.Actionable)
	assert.Contains(t, a.MatchedCues, "congratulations")
}

func TestScore_BenignMessage(t *testing.T) {
	s := testScorer()

	a, err := s.Score("hello")
	require.NoError(t, err)

	assert.Equal(t, models.CategoryNone, a.Category)
	assert.Less(t, a.Score, 0.6)
	assert.False(t, a.Actionable)
	assert.Empty(t, a.MatchedCues)
}

func TestScore_BankImpersonation(t *testing.T) {
	s := testScorer()

	a, err := s.Score("This is your bank manager. Your account will be blocked, update KYC immediately and share the OTP")
	require.NoError(t, err)

	assert.Equal(t, models.CategoryBankImpersonation, a.Category)
	assert.True(t, a.Actionable)
	assert.Equal(t, models.UrgencyHigh, a.Urgency)
}

func TestScore_RangeAndDeterminism(t *testing.T) {
	s := testScorer()

	inputs := []string{
		"hello",
		"congratulations you won a prize",
		"urgent: verify now or your account will be blocked",
		"random text with no cues whatsoever",
		"crypto investment guaranteed returns act now",
	}
	for _, text := range inputs {
		first, err := s.Score(text)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, first.Score, 0.0, "score below range for %q", text)
		assert.LessOrEqual(t, first.Score, 1.0, "score above range for %q", text)

		second, err := s.Score(text)
		require.NoError(t, err)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("assessment not deterministic for %q (-first +second):\n%s", text, diff)
		}
	}
}

func TestScore_EmptyInput(t *testing.T) {
	s := testScorer()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Score(text)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	}
}

func TestScore_CategoryNoneBelowThreshold(t *testing.T) {
	s := testScorer()

	// A faint semantic overlap alone never crosses the threshold; the
	// category must come back NONE.
	a, err := s.Score("see you soon")
	require.NoError(t, err)
	assert.Less(t, a.Score, 0.6)
	assert.Equal(t, models.CategoryNone, a.Category)
}

func TestSuspicious(t *testing.T) {
	s := testScorer()

	assert.True(t, s.Suspicious("wait, are you real?"))
	assert.True(t, s.Suspicious("you sound like a bot"))
	assert.False(t, s.Suspicious("tell me about the prize"))
	assert.False(t, s.Suspicious("what is this about"), "substring 'ai' in 'about' must not trigger")
}

func TestTokenOverlap(t *testing.T) {
	sim := TokenOverlap{}

	assert.Equal(t, 0.0, sim.Score("", []string{"anything"}))
	assert.Equal(t, 0.0, sim.Score("unrelated words here", []string{"completely different phrase"}))

	full := sim.Score("you won the lucky draw", []string{"you won the lucky draw"})
	assert.InDelta(t, 1.0, full, 0.001)

	partial := sim.Score("you won something", []string{"you won the lucky draw"})
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}
