package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lurebox/internal/patterns"
	"github.com/lurebox/pkg/models"
)

func testExtractor() *Extractor {
	return New(patterns.Default())
}

func noExisting() map[models.ArtifactKey]struct{} {
	return map[models.ArtifactKey]struct{}{}
}

func kinds(arts []models.Artifact) []models.ArtifactKind {
	out := make([]models.ArtifactKind, len(arts))
	for i, a := range arts {
		out[i] = a.Kind
	}
	return out
}

func TestExtract_Identifier(t *testing.T) {
	e := testExtractor()

	arts := e.Extract("Send your UPI ID to winner@paytm", noExisting())
	require.Len(t, arts, 1)
	assert.Equal(t, models.KindIdentifier, arts[0].Kind)
	assert.Equal(t, "winner@paytm", arts[0].Normalized)
	assert.True(t, arts[0].Validated)
}

func TestExtract_IdentifierUnknownProviderDropped(t *testing.T) {
	e := testExtractor()

	arts := e.Extract("mail me at someone@gmail.com", noExisting())
	assert.Empty(t, arts, "unknown providers are not identifiers")
}

func TestExtract_ShortPhoneDiscarded(t *testing.T) {
	e := testExtractor()

	// Candidate span is found but fails the ten-digit validation.
	arts := e.Extract("Call 98765", noExisting())
	assert.Empty(t, arts)
}

func TestExtract_ValidPhone(t *testing.T) {
	e := testExtractor()

	arts := e.Extract("Call me on 9876543210 today", noExisting())
	require.Len(t, arts, 1)
	assert.Equal(t, models.KindPhone, arts[0].Kind)
	assert.Equal(t, "9876543210", arts[0].Normalized)
}

func TestExtract_PhoneWithCountryPrefix(t *testing.T) {
	e := testExtractor()

	arts := e.Extract("whatsapp +91 98765 43210", noExisting())
	require.Len(t, arts, 1)
	assert.Equal(t, models.KindPhone, arts[0].Kind)
	assert.Equal(t, "9876543210", arts[0].Normalized)
}

func TestExtract_PhoneWrongLeadDigitNotPhone(t *testing.T) {
	e := testExtractor()

	// Ten digits with a lead outside 6-9 is not mobile-shaped; it
	// lands in the account range instead.
	arts := e.Extract("number 1234567890", noExisting())
	require.Len(t, arts, 1)
	assert.Equal(t, models.KindAccountNumber, arts[0].Kind)
}

func TestExtract_AccountNumberNotMisreadAsPhone(t *testing.T) {
	e := testExtractor()

	arts := e.Extract("Transfer to account 123456789012", noExisting())
	require.Len(t, arts, 1)
	assert.Equal(t, models.KindAccountNumber, arts[0].Kind)
	assert.Equal(t, "123456789012", arts[0].Normalized)
}

func TestExtract_URLAndFlagging(t *testing.T) {
	e := testExtractor()

	arts := e.Extract("claim at https://example.com/claim now", noExisting())
	require.Len(t, arts, 1)
	assert.Equal(t, models.KindURL, arts[0].Kind)
	assert.False(t, arts[0].Flagged)

	arts = e.Extract("click bit.ly/free-cash fast", noExisting())
	require.Len(t, arts, 1)
	assert.Equal(t, models.KindURL, arts[0].Kind)
	assert.True(t, arts[0].Flagged, "shortener hosts are flagged")
	assert.True(t, arts[0].Validated, "flagging never invalidates")

	arts = e.Extract("visit https://totally-legit.xyz/win", noExisting())
	require.Len(t, arts, 1)
	assert.True(t, arts[0].Flagged, "suspicious TLDs are flagged")
}

func TestExtract_RoutingCode(t *testing.T) {
	e := testExtractor()

	arts := e.Extract("IFSC SBIN0001234 branch", noExisting())
	require.Len(t, arts, 1)
	assert.Equal(t, models.KindRoutingCode, arts[0].Kind)
	assert.Equal(t, "SBIN0001234", arts[0].Normalized)

	arts = e.Extract("IFSC ZZZZ0001234 branch", noExisting())
	assert.Empty(t, arts, "unknown bank prefixes are dropped")
}

func TestExtract_Dedup(t *testing.T) {
	e := testExtractor()

	first := e.Extract("pay winner@paytm or call 9876543210", noExisting())
	require.Len(t, first, 2)

	existing := make(map[models.ArtifactKey]struct{})
	for _, a := range first {
		existing[a.Key()] = struct{}{}
	}

	replay := e.Extract("pay winner@paytm or call 9876543210", existing)
	assert.Empty(t, replay, "replayed artifacts never duplicate")
}

func TestExtract_DedupWithinTurn(t *testing.T) {
	e := testExtractor()

	arts := e.Extract("winner@paytm winner@paytm WINNER@PAYTM", noExisting())
	assert.Len(t, arts, 1, "case-insensitive duplicates collapse within a turn")
}

func TestExtract_IdentifierDigitsNotDoubleCounted(t *testing.T) {
	e := testExtractor()

	arts := e.Extract("send to 9876543210@paytm please", noExisting())
	require.Len(t, arts, 1)
	assert.Equal(t, []models.ArtifactKind{models.KindIdentifier}, kinds(arts),
		"digits inside an identifier span must not also become a phone")
}

func TestExtract_MixedMessage(t *testing.T) {
	e := testExtractor()

	text := "Transfer to account 123456789012 IFSC HDFC0000123, or pay fast via scammer@ybl, help line 9123456780, proof http://cheap-deals.top/x"
	arts := e.Extract(text, noExisting())

	byKind := make(map[models.ArtifactKind]models.Artifact)
	for _, a := range arts {
		byKind[a.Kind] = a
	}
	require.Len(t, arts, 5)
	assert.Equal(t, "123456789012", byKind[models.KindAccountNumber].Normalized)
	assert.Equal(t, "HDFC0000123", byKind[models.KindRoutingCode].Normalized)
	assert.Equal(t, "scammer@ybl", byKind[models.KindIdentifier].Normalized)
	assert.Equal(t, "9123456780", byKind[models.KindPhone].Normalized)
	assert.True(t, byKind[models.KindURL].Flagged)
}

func TestExtract_NoCandidates(t *testing.T) {
	e := testExtractor()

	assert.Empty(t, e.Extract("just a normal chat message", noExisting()))
}
