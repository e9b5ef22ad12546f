package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "formflow:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "formflow",
		Usage: "run form definitions in the terminal and import them from OpenAPI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML configuration file",
				Value:   "formflow.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn, error or off (overrides the config file)",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			importCommand(),
		},
	}
}
