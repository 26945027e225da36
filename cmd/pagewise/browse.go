package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/entrhq/pagewise/pkg/executor/cli"
	"github.com/entrhq/pagewise/pkg/tools/browser"
)

func browseCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse interactively from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, "cli")
			if err != nil {
				return err
			}
			defer a.Close()

			executor := cli.NewExecutor(browser.NewToolRegistry(a.browser),
				cli.WithReader(cmd.InOrStdin()),
				cli.WithWriter(cmd.OutOrStdout()),
				cli.WithLogger(a.logger.With("cli")),
			)
			if err := executor.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
