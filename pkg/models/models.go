package models

import (
	"errors"
	"time"
)

// Caller-visible error conditions. Everything else the engine absorbs
// with degraded behavior (fallback replies, silent candidate drops).
var (
	ErrInvalidInput  = errors.New("invalid input: message text is empty or malformed")
	ErrSessionClosed = errors.New("session is closed")
)

// Message is one inbound message from the remote party. Immutable after
// creation.
type Message struct {
	SessionID  string    `json:"session_id"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// Category tags the dominant scam pattern detected in a message.
type Category string

const (
	CategoryPrize             Category = "prize"
	CategoryBankImpersonation Category = "bank_impersonation"
	CategoryInvestment        Category = "investment"
	CategoryGeneric           Category = "generic"
	CategoryNone              Category = "none"
)

// Urgency grades how hard the sender is pushing for immediate action.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Assessment is the scorer's verdict for a single message. Derived from
// the text and the static pattern library only; never persisted on its
// own.
type Assessment struct {
	Score       float64  `json:"score"`
	Category    Category `json:"category"`
	MatchedCues []string `json:"matched_cues"`
	Urgency     Urgency  `json:"urgency"`
	Actionable  bool     `json:"actionable"`
}

// ArtifactKind identifies the shape of a piece of extracted
// intelligence.
type ArtifactKind string

const (
	KindIdentifier    ArtifactKind = "identifier"
	KindPhone         ArtifactKind = "phone"
	KindURL           ArtifactKind = "url"
	KindAccountNumber ArtifactKind = "account_number"
	KindRoutingCode   ArtifactKind = "routing_code"
)

// HighValue reports whether artifacts of this kind count toward the
// extraction ceiling that drives phase transitions.
func (k ArtifactKind) HighValue() bool {
	switch k {
	case KindIdentifier, KindPhone, KindAccountNumber:
		return true
	}
	return false
}

// Artifact is a validated piece of intelligence pulled out of message
// text. Immutable once created; deduplicated by Key within a session.
type Artifact struct {
	Kind       ArtifactKind `json:"kind"`
	RawMatch   string       `json:"raw_match"`
	Normalized string       `json:"normalized"`
	Flagged    bool         `json:"flagged,omitempty"` // shortener / suspicious-TLD URLs
	Validated  bool         `json:"validated"`
}

// ArtifactKey is the session-scoped dedup key.
type ArtifactKey struct {
	Kind       ArtifactKind
	Normalized string
}

// Key returns the dedup key for this artifact.
func (a Artifact) Key() ArtifactKey {
	return ArtifactKey{Kind: a.Kind, Normalized: a.Normalized}
}

// Phase is the engagement state machine's position for a session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseObserving  Phase = "observing"
	PhaseEngaging   Phase = "engaging"
	PhaseExtracting Phase = "extracting"
	PhaseConcluding Phase = "concluding"
	PhaseClosed     Phase = "closed"
)

// Terminal reports whether no further engagement happens in this phase.
func (p Phase) Terminal() bool { return p == PhaseClosed }

// Rank orders phases for the monotonicity invariant: a session never
// moves to a lower-ranked phase without an explicit reset.
func (p Phase) Rank() int {
	switch p {
	case PhaseIdle:
		return 0
	case PhaseObserving:
		return 1
	case PhaseEngaging:
		return 2
	case PhaseExtracting:
		return 3
	case PhaseConcluding:
		return 4
	case PhaseClosed:
		return 5
	}
	return -1
}

// Objective names the next-turn goal handed to the text-completion
// collaborator. Objectives mirror phases one-to-one.
type Objective string

const (
	ObjectiveObserve     Objective = "observe"
	ObjectiveBuildTrust  Objective = "build_trust"
	ObjectiveElicit      Objective = "elicit_artifacts"
	ObjectiveCorroborate Objective = "corroborate"
	ObjectiveStall       Objective = "stall"
)

// Constraints bound what the generated reply may look like. The bans
// are hard rules repeated verbatim in the prompt.
type Constraints struct {
	MaxReplyChars int      `json:"max_reply_chars"`
	ToneHints     []string `json:"tone_hints,omitempty"`
	Bans          []string `json:"bans"`
}

// Directive is the sole contract handed to the completion collaborator
// for one turn.
type Directive struct {
	PersonaID   string      `json:"persona_id"`
	Objective   Objective   `json:"objective"`
	Constraints Constraints `json:"constraints"`
}

// Roles for history turns.
const (
	RoleSender  = "sender"
	RolePersona = "persona"
)

// Turn is one exchange kept in the session's bounded history.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// TurnResult is what ProcessTurn hands back to the transport layer.
// Diagnostics fields are served by the diagnostic endpoint only; the
// primary caller needs nothing beyond Reply.
type TurnResult struct {
	Reply        string     `json:"reply"`
	Score        float64    `json:"score"`
	Category     Category   `json:"category"`
	Phase        Phase      `json:"phase"`
	TurnCount    int        `json:"turn_count"`
	NewArtifacts []Artifact `json:"new_artifacts,omitempty"`
	Fallback     bool       `json:"fallback,omitempty"`
	Truncated    bool       `json:"truncated,omitempty"`
}
