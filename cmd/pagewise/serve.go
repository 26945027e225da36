package main

import (
	"github.com/spf13/cobra"

	mcpexec "github.com/entrhq/pagewise/pkg/executor/mcp"
	"github.com/entrhq/pagewise/pkg/tools/browser"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the browsing tools over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, "mcp")
			if err != nil {
				return err
			}
			defer a.Close()

			registry := browser.NewToolRegistry(a.browser)
			s, err := mcpexec.NewServer(registry.RegisterTools(), mcpexec.Options{
				Version: version,
				Logger:  a.logger.With("mcp"),
			})
			if err != nil {
				return err
			}

			a.logger.Infof("serving %d tools over stdio", len(registry.GetTools()))
			return mcpexec.ServeStdio(s)
		},
	}
}
