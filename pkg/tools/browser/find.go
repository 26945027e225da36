package browser

import (
	"context"

	"github.com/entrhq/pagewise/pkg/tools"
)

// FindTool searches the text of a page.
type FindTool struct {
	browser *Browser
}

// NewFindTool creates a new find tool.
func NewFindTool(browser *Browser) *FindTool {
	return &FindTool{
		browser: browser,
	}
}

// Name returns the tool name.
func (t *FindTool) Name() string {
	return "browser_find"
}

// Description returns the tool description.
func (t *FindTool) Description() string {
	return "Finds case-insensitive matches of `pattern`, or matches of the regular expression `regex`, in the current page or the page given by `page_id`. " +
		"Each match is shown as a citable `⟦id†match at Ln⟧` block; open the id to jump to the match."
}

// Schema returns the tool's JSON schema.
func (t *FindTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "Text to find, matched case-insensitively",
			},
			"regex": map[string]interface{}{
				"type":        "string",
				"description": "Regular expression to find instead of pattern, optionally written as /expr/flags",
			},
			"page_id": map[string]interface{}{
				"type":        "string",
				"description": "Page to search. Default: the current page",
			},
		},
		nil,
	)
}

// FindInput represents the parameters for finding text.
type FindInput struct {
	Pattern *string `json:"pattern"`
	Regex   *string `json:"regex"`
	PageID  string  `json:"page_id"`
}

// Execute runs the find.
func (t *FindTool) Execute(ctx context.Context, argsJSON []byte) (string, map[string]interface{}, error) {
	var input FindInput
	if err := tools.DecodeArguments(argsJSON, &input); err != nil {
		return "", nil, err
	}

	result, err := t.browser.Find(ctx, FindRequest{
		Pattern: input.Pattern,
		Regex:   input.Regex,
		PageID:  input.PageID,
	})
	if err != nil {
		return "", nil, err
	}
	return result, pageMetadata(t.browser), nil
}
