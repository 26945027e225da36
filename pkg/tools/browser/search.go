package browser

import (
	"context"

	"github.com/entrhq/pagewise/pkg/tools"
)

// SearchTool searches the web and shows the results page.
type SearchTool struct {
	browser *Browser
}

// NewSearchTool creates a new search tool.
func NewSearchTool(browser *Browser) *SearchTool {
	return &SearchTool{
		browser: browser,
	}
}

// Name returns the tool name.
func (t *SearchTool) Name() string {
	return "browser_search"
}

// Description returns the tool description.
func (t *SearchTool) Description() string {
	return "Searches for information related to `query` and displays `topn` results. Starts a new browsing session; earlier page ids become invalid."
}

// Schema returns the tool's JSON schema.
func (t *SearchTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query",
			},
			"topn": map[string]interface{}{
				"type":        "integer",
				"description": "Number of results to display (1-10). Default: 10",
				"minimum":     1,
				"maximum":     MaxTopN,
			},
		},
		[]string{"query"},
	)
}

// SearchInput represents the parameters for searching.
type SearchInput struct {
	Query string `json:"query"`
	TopN  *int   `json:"topn"`
}

// Execute runs the search.
func (t *SearchTool) Execute(ctx context.Context, argsJSON []byte) (string, map[string]interface{}, error) {
	var input SearchInput
	if err := tools.DecodeArguments(argsJSON, &input); err != nil {
		return "", nil, err
	}

	topN := MaxTopN
	if input.TopN != nil {
		topN = *input.TopN
	}

	result, err := t.browser.Search(ctx, input.Query, topN)
	if err != nil {
		return "", nil, err
	}
	return result, pageMetadata(t.browser), nil
}
