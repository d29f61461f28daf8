package extract

import (
	"net/url"
	"strings"

	"github.com/lurebox/internal/patterns"
	"github.com/lurebox/pkg/models"
)

// Extractor scans raw text for contact and financial artifacts and
// validates each candidate before accepting it. Extraction is
// best-effort: invalid candidates are dropped silently.
type Extractor struct {
	lib *patterns.Library
}

func New(lib *patterns.Library) *Extractor {
	return &Extractor{lib: lib}
}

// Extract returns the artifacts newly accepted for this turn. existing
// is the session's accumulated set; anything already in it is skipped
// so replays never duplicate. Pure given text, library, and the
// existing set.
func (e *Extractor) Extract(text string, existing map[models.ArtifactKey]struct{}) []models.Artifact {
	var accepted []models.Artifact
	seen := make(map[models.ArtifactKey]struct{}, len(existing))
	for k := range existing {
		seen[k] = struct{}{}
	}
	add := func(a models.Artifact) {
		key := a.Key()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		accepted = append(accepted, a)
	}

	// Identifier and URL spans are remembered so their digit runs are
	// not re-read as phone or account candidates.
	var taken [][2]int

	for _, loc := range e.lib.IdentifierRegexp().FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		if a, ok := e.validateIdentifier(raw); ok {
			taken = append(taken, [2]int{loc[0], loc[1]})
			add(a)
		}
	}

	for _, loc := range e.lib.URLRegexp().FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		if a, ok := e.validateURL(raw); ok {
			taken = append(taken, [2]int{loc[0], loc[1]})
			add(a)
		}
	}

	for _, loc := range e.lib.RoutingRegexp().FindAllStringIndex(text, -1) {
		if overlaps(taken, loc) {
			continue
		}
		raw := text[loc[0]:loc[1]]
		if a, ok := e.validateRoutingCode(raw); ok {
			add(a)
		}
	}

	for _, loc := range e.lib.NumericRegexp().FindAllStringIndex(text, -1) {
		if overlaps(taken, loc) {
			continue
		}
		raw := text[loc[0]:loc[1]]
		if a, ok := e.classifyNumeric(raw); ok {
			add(a)
		}
	}

	return accepted
}

func (e *Extractor) validateIdentifier(raw string) (models.Artifact, bool) {
	at := strings.LastIndex(raw, "@")
	if at < 0 {
		return models.Artifact{}, false
	}
	local, provider := raw[:at], strings.ToLower(raw[at+1:])
	if len(local) < 2 || len(local) > 64 {
		return models.Artifact{}, false
	}
	allowed := false
	for _, p := range e.lib.IdentifierProviders {
		if provider == p {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.Artifact{}, false
	}
	return models.Artifact{
		Kind:       models.KindIdentifier,
		RawMatch:   raw,
		Normalized: strings.ToLower(raw),
		Validated:  true,
	}, true
}

func (e *Extractor) validateURL(raw string) (models.Artifact, bool) {
	trimmed := strings.TrimRight(raw, ".,!?;:)\"'")
	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		// Bare shortener form like bit.ly/x.
		candidate = "https://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return models.Artifact{}, false
	}
	host := strings.ToLower(parsed.Host)

	// Shorteners and suspicious TLDs flag the artifact but never
	// invalidate it.
	flagged := false
	for _, s := range e.lib.Shorteners {
		if host == s || strings.HasSuffix(host, "."+s) {
			flagged = true
			break
		}
	}
	if !flagged {
		for _, tld := range e.lib.SuspiciousTLDs {
			if strings.HasSuffix(host, tld) {
				flagged = true
				break
			}
		}
	}
	return models.Artifact{
		Kind:       models.KindURL,
		RawMatch:   trimmed,
		Normalized: strings.ToLower(candidate),
		Flagged:    flagged,
		Validated:  true,
	}, true
}

func (e *Extractor) validateRoutingCode(raw string) (models.Artifact, bool) {
	prefix := raw[:4]
	allowed := false
	for _, p := range e.lib.BankPrefixes {
		if prefix == p {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.Artifact{}, false
	}
	return models.Artifact{
		Kind:       models.KindRoutingCode,
		RawMatch:   raw,
		Normalized: strings.ToUpper(raw),
		Validated:  true,
	}, true
}

// classifyNumeric decides whether a digit span is a mobile number or an
// account number. Ten digits with a 6-9 lead is a phone; any other
// 9-18 digit run is tried as an account number, so long spans are never
// misread as phones and phone spans are never double-counted as
// accounts.
func (e *Extractor) classifyNumeric(raw string) (models.Artifact, bool) {
	clean := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if strings.HasPrefix(raw, "+91") && len(clean) == 12 {
		clean = clean[2:]
	}
	if len(clean) == 10 && clean[0] >= '6' && clean[0] <= '9' {
		return models.Artifact{
			Kind:       models.KindPhone,
			RawMatch:   raw,
			Normalized: clean,
			Validated:  true,
		}, true
	}
	if len(clean) >= 9 && len(clean) <= 18 {
		return models.Artifact{
			Kind:       models.KindAccountNumber,
			RawMatch:   raw,
			Normalized: clean,
			Validated:  true,
		}, true
	}
	return models.Artifact{}, false
}

func overlaps(taken [][2]int, loc []int) bool {
	for _, t := range taken {
		if loc[0] < t[1] && loc[1] > t[0] {
			return true
		}
	}
	return false
}
