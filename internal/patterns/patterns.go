package patterns

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/lurebox/pkg/models"
)

// CueGroup is one lexical cue family. Group order in Library.Groups is
// the declaration order used for deterministic category tie-breaking.
type CueGroup struct {
	Name     string          `yaml:"name"`
	Category models.Category `yaml:"category"`
	Weight   float64         `yaml:"weight"`
	Cues     []string        `yaml:"cues"`
}

// Reference holds category-representative phrases for the semantic
// similarity signal.
type Reference struct {
	Category models.Category `yaml:"category"`
	Phrases  []string        `yaml:"phrases"`
}

// Library is the static, versioned set of lexical cues and extraction
// patterns. Loaded once at startup and treated as read-only for the
// process lifetime.
type Library struct {
	Version string     `yaml:"version"`
	Groups  []CueGroup `yaml:"groups"`
	// References are ordered the same way as Groups so the semantic
	// signal inherits the same tie-break.
	References []Reference `yaml:"references"`

	HighUrgencyCues   []string `yaml:"high_urgency_cues"`
	MediumUrgencyCues []string `yaml:"medium_urgency_cues"`
	SuspicionCues     []string `yaml:"suspicion_cues"`

	IdentifierProviders []string `yaml:"identifier_providers"`
	Shorteners          []string `yaml:"shorteners"`
	SuspiciousTLDs      []string `yaml:"suspicious_tlds"`
	BankPrefixes        []string `yaml:"bank_prefixes"`

	identifierRe *regexp.Regexp
	urlRe        *regexp.Regexp
	numericRe    *regexp.Regexp
	routingRe    *regexp.Regexp
}

// Regexp accessors for the extractor. Compiled once in compile().

func (l *Library) IdentifierRegexp() *regexp.Regexp { return l.identifierRe }
func (l *Library) URLRegexp() *regexp.Regexp        { return l.urlRe }
func (l *Library) NumericRegexp() *regexp.Regexp    { return l.numericRe }
func (l *Library) RoutingRegexp() *regexp.Regexp    { return l.routingRe }

// RefPhrases returns the reference phrases for a category, or nil.
func (l *Library) RefPhrases(cat models.Category) []string {
	for _, r := range l.References {
		if r.Category == cat {
			return r.Phrases
		}
	}
	return nil
}

const (
	identifierPattern = `\b[A-Za-z0-9][A-Za-z0-9._-]{0,63}@[A-Za-z][A-Za-z0-9]{1,15}\b`
	urlPattern        = `(?i)\bhttps?://[^\s<>"]+|\b(?:bit\.ly|tinyurl\.com|t\.co|goo\.gl|ow\.ly)/[^\s<>"]+`
	// numericPattern catches every digit span, including separator-joined
	// ones; the extractor decides phone vs account vs discard.
	numericPattern = `\+?\d[\d\s-]{2,24}\d`
	routingPattern = `\b[A-Z]{4}0[A-Z0-9]{6}\b`
)

func (l *Library) compile() error {
	var err error
	if l.identifierRe, err = regexp.Compile(identifierPattern); err != nil {
		return fmt.Errorf("compiling identifier pattern: %w", err)
	}
	if l.urlRe, err = regexp.Compile(urlPattern); err != nil {
		return fmt.Errorf("compiling url pattern: %w", err)
	}
	if l.numericRe, err = regexp.Compile(numericPattern); err != nil {
		return fmt.Errorf("compiling numeric pattern: %w", err)
	}
	if l.routingRe, err = regexp.Compile(routingPattern); err != nil {
		return fmt.Errorf("compiling routing pattern: %w", err)
	}
	return nil
}

// Load reads a library from a YAML file and compiles its patterns.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern library: %w", err)
	}
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parsing pattern library: %w", err)
	}
	if len(lib.Groups) == 0 {
		return nil, fmt.Errorf("pattern library %s declares no cue groups", path)
	}
	if err := lib.compile(); err != nil {
		return nil, err
	}
	return &lib, nil
}

// Default returns the built-in library. Cue sets follow observed UPI
// fraud wording; group order is significant.
func Default() *Library {
	lib := &Library{
		Version: "2025.08",
		Groups: []CueGroup{
			{
				Name:     "prize",
				Category: models.CategoryPrize,
				Weight:   0.8,
				Cues: []string{
					"congratulations", "won", "prize", "lottery", "lucky draw",
					"claim now", "winner", "lakh", "crore", "reward",
					"selected", "free gift", "bonus", "cashback",
				},
			},
			{
				Name:     "bank_impersonation",
				Category: models.CategoryBankImpersonation,
				Weight:   0.75,
				Cues: []string{
					"bank manager", "rbi", "npci", "customer care", "support team",
					"verify your account", "account will be blocked", "update kyc",
					"suspended", "official", "department", "government", "authority",
					"refund", "reverse transaction", "wrong transaction", "otp",
				},
			},
			{
				Name:     "investment",
				Category: models.CategoryInvestment,
				Weight:   0.75,
				Cues: []string{
					"investment opportunity", "guaranteed returns", "crypto", "bitcoin",
					"forex trading", "stock tips", "10x returns", "trading",
					"profit", "earn money", "make money fast", "double your money",
				},
			},
			{
				Name:     "generic",
				Category: models.CategoryGeneric,
				Weight:   0.7,
				Cues: []string{
					"urgent", "immediately", "within 24 hours", "verify now",
					"confirm details", "last chance", "act now", "today only",
					"limited time", "send upi id", "payment link", "qr code",
					"upi pin", "anydesk", "teamviewer", "screen share",
					"remote access", "download app",
				},
			},
		},
		References: []Reference{
			{
				Category: models.CategoryPrize,
				Phrases: []string{
					"you have won a cash prize in our lucky draw",
					"claim your lottery reward before it expires",
					"congratulations you are selected for a free gift",
				},
			},
			{
				Category: models.CategoryBankImpersonation,
				Phrases: []string{
					"your bank account will be suspended verify your details",
					"this is the official customer care calling about your kyc",
					"we are processing your refund share the otp to confirm",
				},
			},
			{
				Category: models.CategoryInvestment,
				Phrases: []string{
					"guaranteed returns on this crypto investment opportunity",
					"our trading experts will double your money in a week",
				},
			},
			{
				Category: models.CategoryGeneric,
				Phrases: []string{
					"act now this offer is valid today only",
					"send your upi id immediately to receive the payment",
				},
			},
		},
		HighUrgencyCues: []string{
			"immediately", "urgent", "right now", "today", "within 24",
			"last chance", "expire", "block", "suspend",
		},
		MediumUrgencyCues: []string{
			"soon", "quick", "fast", "asap", "hurry",
		},
		SuspicionCues: []string{
			"are you real", "are you a bot", "bot", "ai", "fake",
			"testing you", "is this automated",
		},
		IdentifierProviders: []string{
			"paytm", "ybl", "okhdfcbank", "okicici", "okaxis",
			"oksbi", "apl", "ibl", "axl", "upi",
		},
		Shorteners: []string{
			"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly",
		},
		SuspiciousTLDs: []string{
			".xyz", ".top", ".click", ".link", ".club", ".info",
		},
		BankPrefixes: []string{
			"SBIN", "HDFC", "ICIC", "UTIB", "PUNB",
			"KKBK", "YESB", "IDFB", "BARB", "CNRB",
		},
	}
	if err := lib.compile(); err != nil {
		// The built-in patterns are constants; a compile failure is a
		// programming error.
		panic(err)
	}
	return lib
}
