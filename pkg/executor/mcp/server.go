// Package mcp serves the browsing tools over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/entrhq/pagewise/pkg/logging"
	"github.com/entrhq/pagewise/pkg/toolerr"
	"github.com/entrhq/pagewise/pkg/tools"
)

// ServerName is reported to MCP clients.
const ServerName = "pagewise"

// Instructions tells the model how to cite what it reads.
const Instructions = `Use browser_search to search the web, browser_open to open results, links or URLs and to scroll, and browser_find to look for text on a page.

Pages are shown as numbered lines under a header like "[p_a001] Title (url)". Links appear inline as ⟦id†text⟧ or ⟦id†text†host⟧; pass the id to browser_open to follow them.

Cite what you use with the page id and line range: ⟦{cursor}†L{line_start}(-L{line_end})?⟧, for example ⟦p_a001†L8⟧ or ⟦p_a001†L8-L12⟧. Only cite lines that support the claim, and do not cite find-result pages.`

// Options configures the server.
type Options struct {
	Version string
	Logger  *logging.Logger
}

// NewServer registers every tool on a new MCP server.
func NewServer(toolset []tools.Tool, opts Options) (*server.MCPServer, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	s := server.NewMCPServer(ServerName, opts.Version,
		server.WithToolCapabilities(false),
		server.WithInstructions(Instructions),
	)

	for _, tool := range toolset {
		schema, err := json.Marshal(tool.Schema())
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema of %s: %w", tool.Name(), err)
		}
		s.AddTool(mcp.NewToolWithRawSchema(tool.Name(), tool.Description(), schema), Handler(tool, opts))
	}
	return s, nil
}

// Handler adapts a tool to an MCP tool handler. Tool errors are returned as
// error results so the model can read them and retry.
func Handler(tool tools.Tool, opts Options) server.ToolHandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		logger.Debugf("call %s %s", tool.Name(), args)
		output, _, err := tool.Execute(ctx, args)
		if err != nil {
			logger.Warnf("%s failed: %v", tool.Name(), err)
			return mcp.NewToolResultError(toolerr.Display(err)), nil
		}
		return mcp.NewToolResultText(output), nil
	}
}

// ServeStdio serves s on standard input and output until the client
// disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
