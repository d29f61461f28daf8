package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lurebox/pkg/models"
)

// State is the per-session conversational state. It is owned by the
// Store and mutated only inside Update callbacks, which gives
// single-writer-at-a-time semantics per session key.
type State struct {
	SessionID      string
	Phase          models.Phase
	TurnCount      int
	PersonaID      string
	Category       models.Category
	Score          float64
	Artifacts      map[models.ArtifactKey]models.Artifact
	History        []models.Turn
	CreatedAt      time.Time
	LastActivityAt time.Time
	Reported       bool
	FallbackCount  int
}

func newState(id string, now time.Time) *State {
	return &State{
		SessionID:      id,
		Phase:          models.PhaseIdle,
		Artifacts:      make(map[models.ArtifactKey]models.Artifact),
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// HighValueCount counts accumulated identifier, phone, and account
// artifacts.
func (s *State) HighValueCount() int {
	n := 0
	for k := range s.Artifacts {
		if k.Kind.HighValue() {
			n++
		}
	}
	return n
}

// ArtifactList returns the accumulated artifacts in no particular
// order.
func (s *State) ArtifactList() []models.Artifact {
	out := make([]models.Artifact, 0, len(s.Artifacts))
	for _, a := range s.Artifacts {
		out = append(out, a)
	}
	return out
}

// AppendTurn records an exchange in the bounded history window.
func (s *State) AppendTurn(t models.Turn, limit int) {
	s.History = append(s.History, t)
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// Snapshot returns a deep copy safe to read outside the store's locks.
func (s *State) Snapshot() State {
	cp := *s
	cp.Artifacts = make(map[models.ArtifactKey]models.Artifact, len(s.Artifacts))
	for k, v := range s.Artifacts {
		cp.Artifacts[k] = v
	}
	cp.History = append([]models.Turn(nil), s.History...)
	return cp
}

const shardCount = 16

type entry struct {
	mu    sync.Mutex
	state *State
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Store is a sharded in-memory session arena. Calls for the same
// sessionId serialize on that entry's lock; different sessionIds only
// contend on the shard map, never on each other's state.
type Store struct {
	shards [shardCount]*shard
}

func NewStore() *Store {
	st := &Store{}
	for i := range st.shards {
		st.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return st
}

func (st *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return st.shards[h.Sum32()%shardCount]
}

func (st *Store) entryFor(id string, now time.Time) *entry {
	sh := st.shardFor(id)
	sh.mu.RLock()
	e, ok := sh.entries[id]
	sh.mu.RUnlock()
	if ok {
		return e
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok = sh.entries[id]; ok {
		return e
	}
	e = &entry{state: newState(id, now)}
	sh.entries[id] = e
	return e
}

// Update runs fn against the session's state under its per-key lock,
// creating the session first if needed. Whatever fn mutates is
// committed by the time Update returns; an error from fn leaves any
// mutations it already made in place, so callers must mutate only after
// deciding to commit.
func (st *Store) Update(id string, now time.Time, fn func(*State) error) error {
	e := st.entryFor(id, now)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.state)
}

// View copies the session's state for read-only use. Returns false if
// the session does not exist.
func (st *Store) View(id string) (State, bool) {
	sh := st.shardFor(id)
	sh.mu.RLock()
	e, ok := sh.entries[id]
	sh.mu.RUnlock()
	if !ok {
		return State{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot(), true
}

// Reset replaces the session's state with a fresh one under the same
// key. This is session recreation, not a phase transition.
func (st *Store) Reset(id string, now time.Time) {
	e := st.entryFor(id, now)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = newState(id, now)
}

// EvictIdle removes sessions whose last activity is older than ttl and
// returns how many were removed. Runs off the hot path; request
// handling never evicts inline.
func (st *Store) EvictIdle(now time.Time, ttl time.Duration) int {
	evicted := 0
	for _, sh := range st.shards {
		sh.mu.Lock()
		for id, e := range sh.entries {
			e.mu.Lock()
			idle := now.Sub(e.state.LastActivityAt) > ttl
			e.mu.Unlock()
			if idle {
				delete(sh.entries, id)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	n := 0
	for _, sh := range st.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Sweep evicts idle sessions on a fixed interval until ctx is done.
func (st *Store) Sweep(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.EvictIdle(now, ttl); n > 0 {
				log.Info().Int("evicted", n).Int("live", st.Len()).Msg("Evicted idle sessions")
			}
		}
	}
}
