package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the process-wide configuration. Loaded once at startup and
// treated as read-only afterwards.
type Config struct {
	Server struct {
		Port          int    `koanf:"port"`
		APIKey        string `koanf:"api_key"`
		RatePerMinute int    `koanf:"rate_per_minute"`
	} `koanf:"server"`

	Scoring struct {
		LexicalWeight  float64 `koanf:"lexical_weight"`
		SemanticWeight float64 `koanf:"semantic_weight"`
		Threshold      float64 `koanf:"threshold"`
	} `koanf:"scoring"`

	Engagement struct {
		MaxTurns      int `koanf:"max_turns"`
		MaxHighValue  int `koanf:"max_high_value"`
		MaxReplyChars int `koanf:"max_reply_chars"`
		TrustTurns    int `koanf:"trust_turns"`
		HistoryLimit  int `koanf:"history_limit"`
	} `koanf:"engagement"`

	Session struct {
		TTLMinutes   int `koanf:"ttl_minutes"`
		SweepSeconds int `koanf:"sweep_seconds"`
	} `koanf:"session"`

	Completion struct {
		Provider       string  `koanf:"provider"`
		APIKey         string  `koanf:"api_key"`
		BaseURL        string  `koanf:"base_url"`
		Model          string  `koanf:"model"`
		Temperature    float64 `koanf:"temperature"`
		MaxTokens      int     `koanf:"max_tokens"`
		TimeoutSeconds int     `koanf:"timeout_seconds"`
	} `koanf:"completion"`

	Report struct {
		CallbackURL   string `koanf:"callback_url"`
		APIKey        string `koanf:"api_key"`
		RatePerMinute int    `koanf:"rate_per_minute"`
	} `koanf:"report"`

	Content struct {
		PatternsPath string `koanf:"patterns_path"`
		PersonasPath string `koanf:"personas_path"`
		SelectorSeed int64  `koanf:"selector_seed"`
	} `koanf:"content"`

	Logging struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"logging"`
}

// Load reads configuration from defaults, an optional TOML file, and
// LUREBOX_ environment variables, in that order of precedence.
func Load(configPath string) (*Config, error) {
	var k = koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"server.port":                8088,
		"server.rate_per_minute":     30,
		"scoring.lexical_weight":     0.7,
		"scoring.semantic_weight":    0.3,
		"scoring.threshold":          0.6,
		"engagement.max_turns":       20,
		"engagement.max_high_value":  3,
		"engagement.max_reply_chars": 400,
		"engagement.trust_turns":     3,
		"engagement.history_limit":   20,
		"session.ttl_minutes":        120,
		"session.sweep_seconds":      60,
		"completion.provider":        "openai",
		"completion.model":           "gpt-4o",
		"completion.temperature":     0.9,
		"completion.max_tokens":      150,
		"completion.timeout_seconds": 30,
		"report.rate_per_minute":     10,
		"logging.level":              "info",
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./lurebox.toml", "$HOME/.lurebox.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	k.Load(env.Provider("LUREBOX_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "LUREBOX_")), "_", ".", 1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// Init writes a sample configuration file.
func Init(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sample := `# Lurebox Configuration

[server]
port = 8088
api_key = "change-me"
rate_per_minute = 30

[scoring]
lexical_weight = 0.7
semantic_weight = 0.3
threshold = 0.6

[engagement]
max_turns = 20
max_high_value = 3
max_reply_chars = 400

[session]
ttl_minutes = 120
sweep_seconds = 60

[completion]
provider = "openai"
api_key = "your-openai-api-key"
model = "gpt-4o"
temperature = 0.9
max_tokens = 150

[report]
callback_url = ""
api_key = ""
`

	return os.WriteFile(configPath, []byte(sample), 0644)
}

// Validate checks the loaded configuration for values the engine
// cannot run without.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", cfg.Server.Port)
	}
	if cfg.Scoring.Threshold <= 0 || cfg.Scoring.Threshold > 1 {
		return fmt.Errorf("scoring threshold must be in (0, 1], got %g", cfg.Scoring.Threshold)
	}
	if cfg.Scoring.LexicalWeight < 0 || cfg.Scoring.SemanticWeight < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	if cfg.Scoring.LexicalWeight+cfg.Scoring.SemanticWeight == 0 {
		return fmt.Errorf("at least one scoring weight must be positive")
	}
	if cfg.Engagement.MaxTurns <= 0 {
		return fmt.Errorf("engagement max_turns must be positive")
	}
	if cfg.Engagement.MaxHighValue <= 0 {
		return fmt.Errorf("engagement max_high_value must be positive")
	}

	switch cfg.Completion.Provider {
	case "openai", "gemini":
		if cfg.Completion.APIKey == "" {
			return fmt.Errorf("completion api_key is required for provider %s", cfg.Completion.Provider)
		}
	case "ollama":
		// Local provider, no key needed.
	case "":
		return fmt.Errorf("completion provider is required")
	default:
		return fmt.Errorf("unknown completion provider %q", cfg.Completion.Provider)
	}
	return nil
}
