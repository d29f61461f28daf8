package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/lurebox/internal/retry"
)

// Provider identifies a completion backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// Options configures the langchaingo-backed completer.
type Options struct {
	Provider    Provider
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// LangchainCompleter generates persona replies through langchaingo.
// Transient backend failures are retried once; after that the engine
// falls back to a static persona line.
type LangchainCompleter struct {
	llm      llms.Model
	opts     Options
	retryCfg retry.Config
}

// NewLangchainCompleter builds a completer for the configured provider.
func NewLangchainCompleter(ctx context.Context, opts Options) (*LangchainCompleter, error) {
	var (
		model llms.Model
		err   error
	)

	log.Debug().
		Str("provider", string(opts.Provider)).
		Str("model", opts.Model).
		Float64("temperature", opts.Temperature).
		Msg("Creating completion client")

	switch opts.Provider {
	case ProviderOpenAI:
		o := []openai.Option{
			openai.WithToken(opts.APIKey),
			openai.WithModel(opts.Model),
		}
		if opts.BaseURL != "" {
			o = append(o, openai.WithBaseURL(opts.BaseURL))
		}
		model, err = openai.New(o...)
	case ProviderGemini:
		model, err = googleai.New(ctx, googleai.WithAPIKey(opts.APIKey))
	case ProviderOllama:
		o := []ollama.Option{ollama.WithModel(opts.Model)}
		if opts.BaseURL != "" {
			o = append(o, ollama.WithServerURL(opts.BaseURL))
		}
		model, err = ollama.New(o...)
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s completion client: %w", opts.Provider, err)
	}

	return &LangchainCompleter{
		llm:      model,
		opts:     opts,
		retryCfg: retry.CompletionConfig(),
	}, nil
}

// Complete renders the prompt for the request and asks the model for a
// reply. The context deadline bounds the whole call including the
// single retry.
func (c *LangchainCompleter) Complete(ctx context.Context, req Request) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	prompt := BuildPrompt(req)

	callOpts := []llms.CallOption{
		llms.WithTemperature(c.opts.Temperature),
	}
	if c.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.opts.MaxTokens))
	}
	if c.opts.Provider == ProviderGemini && c.opts.Model != "" {
		callOpts = append(callOpts, llms.WithModel(c.opts.Model))
	}

	var reply string
	res := retry.Do(ctx, c.retryCfg, func() error {
		out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, callOpts...)
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if !res.Success {
		return "", fmt.Errorf("completion failed after %d attempts: %w", res.Attempts, res.LastError)
	}

	log.Debug().
		Str("persona", req.Directive.PersonaID).
		Str("objective", string(req.Directive.Objective)).
		Int("attempts", res.Attempts).
		Dur("duration", res.TotalDuration).
		Msg("Generated reply")
	return reply, nil
}
