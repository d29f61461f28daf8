package engage

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lurebox/internal/completion"
	"github.com/lurebox/internal/extract"
	"github.com/lurebox/internal/persona"
	"github.com/lurebox/internal/report"
	"github.com/lurebox/internal/scorer"
	"github.com/lurebox/internal/session"
	"github.com/lurebox/pkg/models"
)

// Engine wires the scorer, extractor, strategy, persona selector, and
// session store into the single processTurn entry point. The completion
// and reporting collaborators stay behind interfaces.
type Engine struct {
	scorer    *scorer.Scorer
	extractor *extract.Extractor
	strategy  *Strategy
	selector  *persona.Selector
	personas  *persona.Set
	store     *session.Store
	completer completion.Completer
	reporter  report.Reporter

	historyLimit int
}

// Options bundles the engine's collaborators.
type Options struct {
	Scorer       *scorer.Scorer
	Extractor    *extract.Extractor
	Strategy     *Strategy
	Selector     *persona.Selector
	Personas     *persona.Set
	Store        *session.Store
	Completer    completion.Completer
	Reporter     report.Reporter
	HistoryLimit int
}

func NewEngine(o Options) *Engine {
	if o.Reporter == nil {
		o.Reporter = report.NopReporter{}
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 20
	}
	return &Engine{
		scorer:       o.Scorer,
		extractor:    o.Extractor,
		strategy:     o.Strategy,
		selector:     o.Selector,
		personas:     o.Personas,
		store:        o.Store,
		completer:    o.Completer,
		reporter:     o.Reporter,
		historyLimit: o.HistoryLimit,
	}
}

// ProcessTurn handles one inbound message. The turn runs in two
// phases: first the assessment, extraction, and tentative transition
// are computed against a snapshot and the completion collaborator is
// called; only after a reply (or the fallback path) is the transition
// committed under the session's per-key lock. An aborted completion
// leaves the session exactly as it was, so retrying the turn is
// idempotent.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, text string) (*models.TurnResult, error) {
	assessment, err := e.scorer.Score(text)
	if err != nil {
		return nil, err
	}
	suspicious := e.scorer.Suspicious(text)
	now := time.Now()

	// Phase 1: plan against a snapshot, no mutation.
	snap, exists := e.store.View(sessionID)
	if exists && snap.Phase == models.PhaseClosed {
		return nil, models.ErrSessionClosed
	}

	existingKeys := make(map[models.ArtifactKey]struct{}, len(snap.Artifacts))
	prevHigh := 0
	for k := range snap.Artifacts {
		existingKeys[k] = struct{}{}
		if k.Kind.HighValue() {
			prevHigh++
		}
	}
	newArtifacts := e.extractor.Extract(text, existingKeys)
	high := prevHigh
	for _, a := range newArtifacts {
		if a.Kind.HighValue() {
			high++
		}
	}

	currentPhase := snap.Phase
	if !exists {
		currentPhase = models.PhaseIdle
	}
	turnAfter := snap.TurnCount + 1
	tentative := e.strategy.Plan(currentPhase, turnAfter, assessment, high)

	personaID := snap.PersonaID
	if personaID == "" {
		personaID = e.selector.Select(e.selectionCategory(assessment), tentative)
	}
	profile := e.personas.ByID(personaID)
	directive := e.strategy.Directive(personaID, tentative, turnAfter, assessment, suspicious)

	// The completion call is the dominant latency source and may fail.
	// One internal retry happens inside the completer; after that we
	// fall back to a static persona line that never advances the phase.
	reply, genErr := e.completer.Complete(ctx, completion.Request{
		Directive:  directive,
		Persona:    profile,
		History:    snap.History,
		Inbound:    text,
		Suspicious: suspicious,
	})
	fallback := false
	if genErr != nil {
		if ctx.Err() != nil {
			// Aborted turn: commit nothing so a retry starts clean.
			return nil, ctx.Err()
		}
		log.Warn().Err(genErr).Str("session_id", sessionID).Msg("Completion failed, using fallback reply")
		reply = profile.Fallback(snap.FallbackCount)
		fallback = true
	}

	truncated := false
	if max := directive.Constraints.MaxReplyChars; max > 0 && len(reply) > max {
		// Out-of-constraint replies are truncated, not rejected.
		reply = reply[:max]
		truncated = true
	}

	// Phase 2: commit under the per-key lock. The transition is
	// recomputed against the live state so a concurrent turn that
	// slipped in between snapshot and commit cannot double-apply.
	var (
		result        models.TurnResult
		reportPayload *report.Payload
	)
	err = e.store.Update(sessionID, now, func(st *session.State) error {
		if st.Phase == models.PhaseClosed {
			return models.ErrSessionClosed
		}

		var accepted []models.Artifact
		for _, a := range newArtifacts {
			if _, dup := st.Artifacts[a.Key()]; dup {
				continue
			}
			st.Artifacts[a.Key()] = a
			accepted = append(accepted, a)
		}

		next := st.Phase
		if !fallback {
			next = e.strategy.Plan(st.Phase, st.TurnCount+1, assessment, st.HighValueCount())
		}

		st.TurnCount++
		if st.PersonaID == "" && next.Rank() >= models.PhaseEngaging.Rank() {
			// First binding; immutable for the session's remaining
			// lifetime.
			st.PersonaID = personaID
		}
		st.Phase = next
		if assessment.Score > st.Score {
			st.Score = assessment.Score
			if assessment.Category != models.CategoryNone {
				st.Category = assessment.Category
			}
		}
		st.AppendTurn(models.Turn{Role: models.RoleSender, Text: text, At: now}, e.historyLimit)
		st.AppendTurn(models.Turn{Role: models.RolePersona, Text: reply, At: now}, e.historyLimit)
		st.LastActivityAt = now
		if fallback {
			st.FallbackCount++
		}

		if next == models.PhaseConcluding && !st.Reported {
			st.Reported = true
			p := report.BuildPayload(st.SessionID, st.Category, st.Score, st.TurnCount,
				st.ArtifactList(), st.CreatedAt, now)
			reportPayload = &p
		}

		result = models.TurnResult{
			Reply:        reply,
			Score:        assessment.Score,
			Category:     assessment.Category,
			Phase:        st.Phase,
			TurnCount:    st.TurnCount,
			NewArtifacts: accepted,
			Fallback:     fallback,
			Truncated:    truncated,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", sessionID).
		Float64("score", result.Score).
		Str("category", string(result.Category)).
		Str("phase", string(result.Phase)).
		Int("turn", result.TurnCount).
		Int("new_artifacts", len(result.NewArtifacts)).
		Bool("fallback", result.Fallback).
		Msg("Processed turn")

	if reportPayload != nil {
		e.deliverAsync(*reportPayload)
	}
	return &result, nil
}

// EndSession closes a session from any non-terminal phase and triggers
// the final report if one was never sent. Returns the closed state and
// whether the session existed.
func (e *Engine) EndSession(sessionID string) (session.State, bool) {
	if _, ok := e.store.View(sessionID); !ok {
		return session.State{}, false
	}
	now := time.Now()
	var (
		closed        session.State
		reportPayload *report.Payload
	)
	_ = e.store.Update(sessionID, now, func(st *session.State) error {
		if st.Phase != models.PhaseClosed {
			st.Phase = models.PhaseClosed
			st.LastActivityAt = now
			if !st.Reported && st.TurnCount > 0 {
				st.Reported = true
				p := report.BuildPayload(st.SessionID, st.Category, st.Score, st.TurnCount,
					st.ArtifactList(), st.CreatedAt, now)
				reportPayload = &p
			}
		}
		closed = st.Snapshot()
		return nil
	})
	if reportPayload != nil {
		e.deliverAsync(*reportPayload)
	}
	log.Info().Str("session_id", sessionID).Msg("Session closed")
	return closed, true
}

// ResetSession discards a session's state and recreates it fresh under
// the same key. This is session recreation, not a phase transition; it
// is the only way past a CLOSED session.
func (e *Engine) ResetSession(sessionID string) {
	e.store.Reset(sessionID, time.Now())
	log.Info().Str("session_id", sessionID).Msg("Session reset")
}

// Diagnostics returns a read-only copy of the session state.
func (e *Engine) Diagnostics(sessionID string) (session.State, bool) {
	return e.store.View(sessionID)
}

// selectionCategory maps a non-actionable assessment to the generic
// persona affinity row so observing-phase replies still have a voice.
func (e *Engine) selectionCategory(a models.Assessment) models.Category {
	if a.Category == models.CategoryNone {
		return models.CategoryGeneric
	}
	return a.Category
}

// deliverAsync hands the payload to the reporter off the reply path.
// Failures are logged, never surfaced to the sender.
func (e *Engine) deliverAsync(p report.Payload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.reporter.Deliver(ctx, p); err != nil {
			log.Error().Err(err).
				Str("report_id", p.ReportID).
				Str("session_id", p.SessionID).
				Msg("Report delivery failed")
		}
	}()
}
