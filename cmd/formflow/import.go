package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/openapi"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "convert an OpenAPI operation into a form definition",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "openapi",
				Usage:    "OpenAPI document path or URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "operation",
				Usage: "operationId or \"METHOD /path\"; omit to list operations",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "form name (defaults to the operation id)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "definition format: yaml or json",
				Value: string(definition.FormatYAML),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			data, err := openapi.Load(ctx, cmd.String("openapi"), openapi.WithHTTPFallback(30*time.Second))
			if err != nil {
				return err
			}

			operation := cmd.String("operation")
			if operation == "" {
				ops, err := openapi.Operations(ctx, data)
				if err != nil {
					return err
				}
				for _, op := range ops {
					fmt.Fprintln(os.Stdout, op)
				}
				return nil
			}

			doc, err := openapi.Import(ctx, data, operation,
				openapi.WithLogger(logger),
				openapi.WithName(cmd.String("name")),
			)
			if err != nil {
				return err
			}
			out, err := definition.Encode(doc, definition.Format(cmd.String("format")))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}
}
