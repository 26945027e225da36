package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/entrhq/pagewise/pkg/tools"
)

// OpenTool follows links, opens URLs and scrolls pages.
type OpenTool struct {
	browser *Browser
}

// NewOpenTool creates a new open tool.
func NewOpenTool(browser *Browser) *OpenTool {
	return &OpenTool{
		browser: browser,
	}
}

// Name returns the tool name.
func (t *OpenTool) Name() string {
	return "browser_open"
}

// Description returns the tool description.
func (t *OpenTool) Description() string {
	return "Opens the link `id` from the page indicated by `page_id`, starting at line `loc` and showing `num_lines` lines. " +
		"Valid link ids are displayed as `⟦id†...⟧`. If `id` is a URL, it is opened directly. " +
		"Without `id`, the current page is shown again at `loc`, which is how to scroll."
}

// Schema returns the tool's JSON schema.
func (t *OpenTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"id": map[string]interface{}{
				"type":        []string{"integer", "string"},
				"description": "Link id from the page, or a full URL. Default: stay on the page",
			},
			"page_id": map[string]interface{}{
				"type":        "string",
				"description": "Page the link id belongs to. Default: the current page",
			},
			"loc": map[string]interface{}{
				"type":        "integer",
				"description": "First line to display. Default: top of the page",
			},
			"num_lines": map[string]interface{}{
				"type":        "integer",
				"description": "Number of lines to display. Default: as many as fit the view budget",
			},
			"view_source": map[string]interface{}{
				"type":        "boolean",
				"description": "Show the raw page source instead of the rendered text. Default: false",
			},
		},
		nil,
	)
}

// OpenInput represents the parameters for opening a page.
type OpenInput struct {
	ID         json.RawMessage `json:"id"`
	PageID     string          `json:"page_id"`
	Loc        *int            `json:"loc"`
	NumLines   *int            `json:"num_lines"`
	ViewSource bool            `json:"view_source"`
}

// Execute opens the requested page.
func (t *OpenTool) Execute(ctx context.Context, argsJSON []byte) (string, map[string]interface{}, error) {
	var input OpenInput
	if err := tools.DecodeArguments(argsJSON, &input); err != nil {
		return "", nil, err
	}

	link, err := linkArgument(input.ID)
	if err != nil {
		return "", nil, err
	}

	req := OpenRequest{
		Link:       link,
		PageID:     input.PageID,
		Loc:        -1,
		NumLines:   -1,
		ViewSource: input.ViewSource,
	}
	if input.Loc != nil {
		req.Loc = *input.Loc
	}
	if input.NumLines != nil {
		req.NumLines = *input.NumLines
	}

	result, err := t.browser.Open(ctx, req)
	if err != nil {
		return "", nil, err
	}
	return result, pageMetadata(t.browser), nil
}

// linkArgument accepts the id as a JSON integer or string.
func linkArgument(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", nil
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n), nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	return "", fmt.Errorf("invalid parameters: id must be an integer or a string")
}

func pageMetadata(b *Browser) map[string]interface{} {
	return map[string]interface{}{"page_id": b.CurrentPageID()}
}
