package browser

import (
	"github.com/entrhq/pagewise/pkg/tools"
)

// ToolRegistry exposes one Browser as agent tools.
type ToolRegistry struct {
	browser *Browser
	tools   []tools.Tool
}

// NewToolRegistry creates a new browser tool registry.
func NewToolRegistry(browser *Browser) *ToolRegistry {
	return &ToolRegistry{
		browser: browser,
		tools:   make([]tools.Tool, 0),
	}
}

// RegisterTools creates and returns all browser tools. Repeated calls return
// the same instances.
func (r *ToolRegistry) RegisterTools() []tools.Tool {
	if len(r.tools) > 0 {
		return r.tools
	}

	r.tools = append(r.tools,
		NewSearchTool(r.browser),
		NewOpenTool(r.browser),
		NewFindTool(r.browser),
	)

	return r.tools
}

// GetTools returns the current set of registered tools.
func (r *ToolRegistry) GetTools() []tools.Tool {
	return r.tools
}

// Lookup returns the registered tool with the given name.
func (r *ToolRegistry) Lookup(name string) (tools.Tool, bool) {
	for _, t := range r.RegisterTools() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Browser returns the browser the tools operate on.
func (r *ToolRegistry) Browser() *Browser {
	return r.browser
}
