package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/lurebox/internal/api"
	"github.com/lurebox/internal/completion"
	"github.com/lurebox/internal/config"
	"github.com/lurebox/internal/engage"
	"github.com/lurebox/internal/extract"
	"github.com/lurebox/internal/logging"
	"github.com/lurebox/internal/persona"
	"github.com/lurebox/internal/patterns"
	"github.com/lurebox/internal/report"
	"github.com/lurebox/internal/scorer"
	"github.com/lurebox/internal/session"
)

// APICommand returns the CLI command for starting the API server.
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the Lurebox API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
		},
		Action: runAPI,
	}
}

func runAPI(c *cli.Context) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)

	engine, store, err := buildEngine(c.Context, cfg)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Options{
		Port:          cfg.Server.Port,
		APIKey:        cfg.Server.APIKey,
		RatePerMinute: cfg.Server.RatePerMinute,
		Engine:        engine,
		Sessions:      store,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting API server")
		return server.StartContext(ctx)
	})
	g.Go(func() error {
		store.Sweep(ctx,
			time.Duration(cfg.Session.SweepSeconds)*time.Second,
			time.Duration(cfg.Session.TTLMinutes)*time.Minute)
		return nil
	})
	return g.Wait()
}

// buildEngine assembles the engagement engine from configuration.
func buildEngine(ctx context.Context, cfg *config.Config) (*engage.Engine, *session.Store, error) {
	lib := patterns.Default()
	if cfg.Content.PatternsPath != "" {
		var err error
		if lib, err = patterns.Load(cfg.Content.PatternsPath); err != nil {
			return nil, nil, err
		}
	}
	log.Info().Str("version", lib.Version).Int("groups", len(lib.Groups)).Msg("Loaded pattern library")

	set := persona.Default()
	if cfg.Content.PersonasPath != "" {
		var err error
		if set, err = persona.Load(cfg.Content.PersonasPath); err != nil {
			return nil, nil, err
		}
	}
	log.Info().Int("personas", len(set.Profiles)).Msg("Loaded persona set")

	selector := persona.NewSelector(set)
	if cfg.Content.SelectorSeed != 0 {
		selector = persona.NewSeededSelector(set, cfg.Content.SelectorSeed)
	}

	completer, err := completion.NewLangchainCompleter(ctx, completion.Options{
		Provider:    completion.Provider(cfg.Completion.Provider),
		APIKey:      cfg.Completion.APIKey,
		BaseURL:     cfg.Completion.BaseURL,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
		Timeout:     time.Duration(cfg.Completion.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}

	var reporter report.Reporter = report.NopReporter{}
	if cfg.Report.CallbackURL != "" {
		reporter = report.NewHTTPReporter(cfg.Report.CallbackURL, cfg.Report.APIKey, cfg.Report.RatePerMinute)
	}

	store := session.NewStore()
	engine := engage.NewEngine(engage.Options{
		Scorer: scorer.New(lib, nil, scorer.Config{
			LexicalWeight:  cfg.Scoring.LexicalWeight,
			SemanticWeight: cfg.Scoring.SemanticWeight,
			Threshold:      cfg.Scoring.Threshold,
		}),
		Extractor: extract.New(lib),
		Strategy: engage.NewStrategy(engage.Policy{
			MaxTurns:      cfg.Engagement.MaxTurns,
			MaxHighValue:  cfg.Engagement.MaxHighValue,
			MaxReplyChars: cfg.Engagement.MaxReplyChars,
			TrustTurns:    cfg.Engagement.TrustTurns,
		}),
		Selector:     selector,
		Personas:     set,
		Store:        store,
		Completer:    completer,
		Reporter:     reporter,
		HistoryLimit: cfg.Engagement.HistoryLimit,
	})
	return engine, store, nil
}
