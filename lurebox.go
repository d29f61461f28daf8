package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/lurebox/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "lurebox",
		Usage:   "Scam engagement engine: scores inbound messages, runs decoy conversations, and extracts fraud intelligence",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
		},
		Commands: []*cli.Command{
			cmd.APICommand(),
			cmd.ConfigCommand(),
			cmd.ProbeCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
