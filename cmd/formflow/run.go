package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/internal/config"
	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/pkg/controller"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/options"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
	"github.com/goliatone/go-formflow/pkg/session"
	"github.com/goliatone/go-formflow/pkg/submit"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "fill a form definition interactively and submit it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "definition",
				Aliases:  []string{"d"},
				Usage:    "form definition (yaml, json or toml)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format for the submitted values: json or table",
				Value: string(formatJSON),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "collect and print values without calling the submit endpoint",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			def, err := loadDefinition(cmd.String("definition"), logger)
			if err != nil {
				return err
			}
			cfg.Apply(def)

			values, err := run(ctx, def, cfg, logger, cmd.Bool("dry-run"))
			if err != nil {
				return err
			}
			return writeValues(os.Stdout, values, format)
		},
	}
}

func setup(cmd *cli.Command) (config.Config, *zap.Logger, error) {
	path := cmd.String("config")
	cfg, err := config.Load(path, !cmd.IsSet("config"))
	if err != nil {
		return config.Config{}, nil, err
	}
	level := cfg.LogLevel
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	logger, err := logging.New(level)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func loadDefinition(path string, logger *zap.Logger) (*definition.Definition, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return definition.LoadFS(os.DirFS(filepath.Dir(abs)), filepath.Base(abs), definition.WithLogger(logger))
}

func run(ctx context.Context, def *definition.Definition, cfg config.Config, logger *zap.Logger, dryRun bool) (map[string]any, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout.Duration}

	sessCfg := def.SessionConfig()
	if dryRun || sessCfg.Submit.Endpoint == "" {
		sessCfg.HandleSubmit = func(context.Context, session.SubmitParams) error { return nil }
	}

	fetcher := options.NewHTTPFetcher(
		options.WithHTTPClient(httpClient),
		options.WithBaseURL(cfg.BaseURL),
	)
	client := submit.New(
		submit.WithHTTPClient(httpClient),
		submit.WithBaseURL(cfg.BaseURL),
		submit.WithLogger(logger),
	)

	sess, err := session.New(sessCfg,
		session.WithLogger(logger),
		session.WithClient(client),
		session.WithResolverOptions(controller.WithFetcher(fetcher)),
	)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	result, err := tui.New(tui.WithLogger(logger), tui.WithOutput(os.Stdout)).Run(ctx, sess)
	if err != nil {
		return nil, err
	}
	return result.Values, nil
}
