package scorer

import "strings"

// TokenOverlap is the default Similarity: best Jaccard overlap between
// the message's token set and each reference phrase. Deterministic and
// dependency-free, which keeps the scorer testable without a model.
type TokenOverlap struct{}

func (TokenOverlap) Score(text string, refs []string) float64 {
	tokens := tokenSet(text)
	if len(tokens) == 0 {
		return 0
	}
	best := 0.0
	for _, ref := range refs {
		refTokens := tokenSet(strings.ToLower(ref))
		if len(refTokens) == 0 {
			continue
		}
		inter := 0
		for tok := range refTokens {
			if tokens[tok] {
				inter++
			}
		}
		union := len(tokens) + len(refTokens) - inter
		if union == 0 {
			continue
		}
		if v := float64(inter) / float64(union); v > best {
			best = v
		}
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if len(f) > 1 { // single letters carry no signal
			set[f] = true
		}
	}
	return set
}
