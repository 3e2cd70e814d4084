package mcp

import (
	"context"
	"fmt"
	"time"

	"browserpilot-mcp-server/internal/browser"
)

// SearchTool runs the heuristic site-search flow on the active page.
type SearchTool struct {
	manager *browser.Manager
}

func (t *SearchTool) Name() string {
	return "search"
}

func (t *SearchTool) Description() string {
	return "Find the page's search box, type a query, and submit it. Tries ranked selector heuristics to locate the input, verifies the typed value, submits with Enter, and falls back to clicking a submit button."
}

func (t *SearchTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query to type",
			},
			"clearExisting":     boolProp("Clear any existing text in the input first (default true)"),
			"waitForNavigation": boolProp("Wait for the page to load after submitting (default true)"),
			"timeout":           intProp("Overall budget in milliseconds for locating the input (default 10000)"),
			"retryAttempts":     intProp("How many passes over the selector table before failing (default 3)"),
			"typeDelay":         intProp("Delay between keystrokes in milliseconds (default 50)"),
		},
		"required": []string{"query"},
	}
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	query := getStringArg(args, "query")
	if query == "" {
		return failure("query is required"), nil
	}

	opts := browser.DefaultSearchOptions(query)
	opts.ClearExisting = getBoolArg(args, "clearExisting", opts.ClearExisting)
	opts.WaitForNavigation = getBoolArg(args, "waitForNavigation", opts.WaitForNavigation)
	if ms := getIntArg(args, "timeout", 0); ms > 0 {
		opts.Timeout = time.Duration(ms) * time.Millisecond
	}
	if n := getIntArg(args, "retryAttempts", 0); n > 0 {
		opts.RetryAttempts = n
	}
	if ms := getIntArg(args, "typeDelay", -1); ms >= 0 {
		opts.TypeDelay = time.Duration(ms) * time.Millisecond
	}

	page, err := t.manager.ActivePage(ctx)
	if err != nil {
		if isNoActivePage(err) {
			return noActivePage(), nil
		}
		return failure("resolve active page: %v", err), nil
	}

	report, err := t.manager.ResolveSearch(ctx, page, opts)
	if err != nil {
		return failure("search for %q: %v", query, err), nil
	}
	t.manager.Tracker().RecordAccess(string(page.TargetID))

	return success(fmt.Sprintf("Searched for %q via %s", query, report.SubmitMethod), map[string]interface{}{
		"query":         query,
		"selector_used": report.SelectorUsed,
		"submit_method": report.SubmitMethod,
		"url_changed":   report.URLChanged,
		"results_found": report.ResultsFound,
		"final_url":     report.FinalURL,
		"attempts":      report.Attempts,
		"diagnostics":   report.Diagnostics,
	}), nil
}
