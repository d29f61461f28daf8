package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lurebox/pkg/models"
)

func samplePayload() Payload {
	start := time.Now().Add(-10 * time.Minute)
	return BuildPayload("s1", models.CategoryPrize, 0.82, 6, []models.Artifact{
		{Kind: models.KindIdentifier, Normalized: "winner@paytm", Validated: true},
		{Kind: models.KindPhone, Normalized: "9876543210", Validated: true},
		{Kind: models.KindURL, Normalized: "https://bit.ly/x", Flagged: true, Validated: true},
	}, start, time.Now())
}

func TestBuildPayload_GroupsArtifactsByKind(t *testing.T) {
	p := samplePayload()

	assert.NotEmpty(t, p.ReportID)
	assert.Equal(t, "s1", p.SessionID)
	assert.Equal(t, models.CategoryPrize, p.Category)
	assert.Equal(t, 6, p.TurnCount)
	assert.Equal(t, []string{"winner@paytm"}, p.Artifacts[models.KindIdentifier])
	assert.Equal(t, []string{"9876543210"}, p.Artifacts[models.KindPhone])
	assert.Equal(t, []string{"https://bit.ly/x"}, p.Artifacts[models.KindURL])
}

func TestBuildPayload_UniqueReportIDs(t *testing.T) {
	a := samplePayload()
	b := samplePayload()
	assert.NotEqual(t, a.ReportID, b.ReportID)
}

func TestHTTPReporter_Deliver(t *testing.T) {
	var received Payload
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewHTTPReporter(srv.URL, "secret", 0)
	p := samplePayload()
	require.NoError(t, r.Deliver(context.Background(), p))

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, p.SessionID, received.SessionID)
	assert.Equal(t, p.ReportID, received.ReportID)
	assert.Equal(t, p.Artifacts[models.KindIdentifier], received.Artifacts[models.KindIdentifier])
}

func TestHTTPReporter_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewHTTPReporter(srv.URL, "", 0)
	err := r.Deliver(context.Background(), samplePayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPReporter_RateLimitRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// One delivery per minute: the second must wait, and a short
	// context cancels that wait.
	r := NewHTTPReporter(srv.URL, "", 1)
	require.NoError(t, r.Deliver(context.Background(), samplePayload()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := r.Deliver(ctx, samplePayload())
	assert.Error(t, err)
}

func TestNopReporter(t *testing.T) {
	assert.NoError(t, NopReporter{}.Deliver(context.Background(), samplePayload()))
}
