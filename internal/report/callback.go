package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/lurebox/pkg/models"
)

// Payload is the final intelligence package for one concluded session.
type Payload struct {
	ReportID    string                           `json:"report_id"`
	SessionID   string                           `json:"session_id"`
	Category    models.Category                  `json:"category"`
	Score       float64                          `json:"score"`
	TurnCount   int                              `json:"turn_count"`
	Artifacts   map[models.ArtifactKind][]string `json:"artifacts"`
	StartedAt   time.Time                        `json:"started_at"`
	ConcludedAt time.Time                        `json:"concluded_at"`
}

// BuildPayload groups a session's accumulated artifacts by kind.
func BuildPayload(sessionID string, category models.Category, score float64, turns int, artifacts []models.Artifact, startedAt, concludedAt time.Time) Payload {
	grouped := make(map[models.ArtifactKind][]string)
	for _, a := range artifacts {
		grouped[a.Kind] = append(grouped[a.Kind], a.Normalized)
	}
	return Payload{
		ReportID:    uuid.NewString(),
		SessionID:   sessionID,
		Category:    category,
		Score:       score,
		TurnCount:   turns,
		Artifacts:   grouped,
		StartedAt:   startedAt,
		ConcludedAt: concludedAt,
	}
}

// Reporter delivers a concluded session's intelligence. Delivery
// failures are logged by callers and never block the in-flight reply.
type Reporter interface {
	Deliver(ctx context.Context, p Payload) error
}

// HTTPReporter posts payloads to a callback URL. A token-bucket limiter
// keeps a burst of concluding sessions from hammering the receiver.
type HTTPReporter struct {
	url     string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPReporter builds a reporter. perMinute bounds the delivery
// rate; zero disables limiting.
func NewHTTPReporter(url, apiKey string, perMinute int) *HTTPReporter {
	var limiter *rate.Limiter
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	return &HTTPReporter{
		url:     url,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: limiter,
	}
}

// Deliver posts the payload. Non-2xx responses are errors.
func (r *HTTPReporter) Deliver(ctx context.Context, p Payload) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for delivery slot: %w", err)
		}
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding report payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("report callback returned status %d", resp.StatusCode)
	}

	log.Info().
		Str("report_id", p.ReportID).
		Str("session_id", p.SessionID).
		Str("category", string(p.Category)).
		Int("turns", p.TurnCount).
		Msg("Delivered session report")
	return nil
}

// NopReporter swallows payloads. Used when no callback URL is
// configured.
type NopReporter struct{}

func (NopReporter) Deliver(context.Context, Payload) error { return nil }
