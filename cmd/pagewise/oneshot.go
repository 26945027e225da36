package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/pagewise/pkg/tools/browser"
)

func searchCmd(flags *globalFlags) *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search and print the results page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, "cli")
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.browser.Search(cmd.Context(), strings.Join(args, " "), topN)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&topN, "topn", "n", browser.MaxTopN, "number of results")
	return cmd
}

func openCmd(flags *globalFlags) *cobra.Command {
	var (
		loc        int
		numLines   int
		viewSource bool
	)

	cmd := &cobra.Command{
		Use:   "open <url>",
		Short: "Fetch one page and print it as the browsing tools render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, "cli")
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.browser.Open(cmd.Context(), browser.OpenRequest{
				Link:       args[0],
				Loc:        loc,
				NumLines:   numLines,
				ViewSource: viewSource,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&loc, "loc", 0, "first line to show")
	cmd.Flags().IntVar(&numLines, "num-lines", -1, "number of lines to show; -1 fills the token budget")
	cmd.Flags().BoolVar(&viewSource, "source", false, "show the page source")
	return cmd
}
