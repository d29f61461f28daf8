package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/lurebox/internal/config"
	"github.com/lurebox/internal/extract"
	"github.com/lurebox/internal/patterns"
	"github.com/lurebox/internal/scorer"
	"github.com/lurebox/pkg/models"
)

// ProbeCommand scores and extracts a single message from the command
// line without touching any session state. Useful for tuning patterns
// and thresholds.
func ProbeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Score a message and extract artifacts without engaging",
		ArgsUsage: "MESSAGE",
		Action:    runProbe,
	}
}

func runProbe(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("usage: lurebox probe MESSAGE")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	lib := patterns.Default()
	if cfg.Content.PatternsPath != "" {
		if lib, err = patterns.Load(cfg.Content.PatternsPath); err != nil {
			return err
		}
	}

	sc := scorer.New(lib, nil, scorer.Config{
		LexicalWeight:  cfg.Scoring.LexicalWeight,
		SemanticWeight: cfg.Scoring.SemanticWeight,
		Threshold:      cfg.Scoring.Threshold,
	})
	assessment, err := sc.Score(text)
	if err != nil {
		return err
	}
	artifacts := extract.New(lib).Extract(text, map[models.ArtifactKey]struct{}{})

	out, err := json.MarshalIndent(struct {
		Assessment models.Assessment `json:"assessment"`
		Artifacts  []models.Artifact `json:"artifacts"`
	}{assessment, artifacts}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
