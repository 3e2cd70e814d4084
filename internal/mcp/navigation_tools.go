package mcp

import (
	"context"
	"fmt"
	"log"

	"browserpilot-mcp-server/internal/browser"
)

// NavigateTool drives the active tab to a URL, creating a tab if none exists.
type NavigateTool struct {
	manager *browser.Manager
}

func (t *NavigateTool) Name() string {
	return "navigate"
}

func (t *NavigateTool) Description() string {
	return "Navigate the active browser tab to a URL. Opens a new tab if no tab is open yet."
}

func (t *NavigateTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Absolute URL to load, e.g. https://example.com",
			},
		},
		"required": []string{"url"},
	}
}

func (t *NavigateTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	url := getStringArg(args, "url")
	if url == "" {
		return failure("url is required"), nil
	}

	if err := t.manager.EnsureStarted(ctx); err != nil {
		return failure("browser unavailable: %v", err), nil
	}

	page, err := t.manager.ActivePage(ctx)
	if err != nil {
		if !isNoActivePage(err) {
			return failure("resolve active page: %v", err), nil
		}
		page, err = t.manager.CreatePage(ctx, url)
		if err != nil {
			return failure("open tab for %s: %v", url, err), nil
		}
		info, infoErr := page.Info()
		finalURL := url
		title := ""
		if infoErr == nil {
			finalURL = info.URL
			title = info.Title
		}
		return success(fmt.Sprintf("Opened %s in a new tab", url), map[string]interface{}{
			"url":    finalURL,
			"title":  title,
			"newTab": true,
		}), nil
	}

	if err := t.manager.NavigateTo(page, url); err != nil {
		return failure("navigate: %v", err), nil
	}
	t.manager.Tracker().RecordAccess(string(page.TargetID))

	info, infoErr := page.Info()
	finalURL := url
	title := ""
	if infoErr == nil {
		finalURL = info.URL
		title = info.Title
	} else {
		log.Printf("page info after navigate: %v", infoErr)
	}

	return success(fmt.Sprintf("Navigated to %s", url), map[string]interface{}{
		"url":    finalURL,
		"title":  title,
		"newTab": false,
	}), nil
}

// OpenNewTabTool opens a fresh tab, optionally preloaded with a URL.
type OpenNewTabTool struct {
	manager *browser.Manager
}

func (t *OpenNewTabTool) Name() string {
	return "open_new_tab"
}

func (t *OpenNewTabTool) Description() string {
	return "Open a new browser tab, optionally navigating it to a URL. Tries the keyboard shortcut first, then falls back to creating a target directly."
}

func (t *OpenNewTabTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Optional URL to load in the new tab",
			},
		},
	}
}

func (t *OpenNewTabTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	url := getStringArg(args, "url")

	if err := t.manager.EnsureStarted(ctx); err != nil {
		return failure("browser unavailable: %v", err), nil
	}

	page, method, err := t.manager.OpenTab(ctx, url)
	if err != nil {
		return failure("open new tab: %v", err), nil
	}

	finalURL := url
	title := ""
	if info, infoErr := page.Info(); infoErr == nil {
		finalURL = info.URL
		title = info.Title
	}

	msg := "Opened a new tab"
	if url != "" {
		msg = fmt.Sprintf("Opened a new tab at %s", url)
	}
	return success(msg, map[string]interface{}{
		"url":       finalURL,
		"title":     title,
		"target_id": string(page.TargetID),
		"method":    method,
	}), nil
}

// ReloadPageTool reloads the active tab.
type ReloadPageTool struct {
	manager *browser.Manager
}

func (t *ReloadPageTool) Name() string {
	return "reload_page"
}

func (t *ReloadPageTool) Description() string {
	return "Reload the active browser tab and wait for the page to finish loading."
}

func (t *ReloadPageTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *ReloadPageTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	page, err := t.manager.ActivePage(ctx)
	if err != nil {
		if isNoActivePage(err) {
			return noActivePage(), nil
		}
		return failure("resolve active page: %v", err), nil
	}

	if err := page.Reload(); err != nil {
		return failure("reload: %v", err), nil
	}
	if err := page.Timeout(t.manager.NavigationTimeout()).WaitLoad(); err != nil {
		log.Printf("reload wait load: %v", err)
	}
	t.manager.Tracker().RecordAccess(string(page.TargetID))

	finalURL := ""
	title := ""
	if info, infoErr := page.Info(); infoErr == nil {
		finalURL = info.URL
		title = info.Title
	}

	return success("Reloaded the active page", map[string]interface{}{
		"url":   finalURL,
		"title": title,
	}), nil
}

// GoBackTool walks browser history backwards, optionally hunting for a target.
type GoBackTool struct {
	manager *browser.Manager
}

func (t *GoBackTool) Name() string {
	return "go_back"
}

func (t *GoBackTool) Description() string {
	return "Go back in the active tab's history. Optionally keep stepping until the URL or title contains a target substring (up to 10 steps)."
}

func (t *GoBackTool) InputSchema() map[string]interface{} {
	return historySchema()
}

func (t *GoBackTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return executeHistory(ctx, t.manager, browser.HistoryBack, args)
}

// GoForwardTool walks browser history forwards, optionally hunting for a target.
type GoForwardTool struct {
	manager *browser.Manager
}

func (t *GoForwardTool) Name() string {
	return "go_forward"
}

func (t *GoForwardTool) Description() string {
	return "Go forward in the active tab's history. Optionally keep stepping until the URL or title contains a target substring (up to 10 steps)."
}

func (t *GoForwardTool) InputSchema() map[string]interface{} {
	return historySchema()
}

func (t *GoForwardTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return executeHistory(ctx, t.manager, browser.HistoryForward, args)
}

func historySchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"targetUrl": map[string]interface{}{
				"type":        "string",
				"description": "Stop when the page URL contains this substring (case-insensitive)",
			},
			"targetTitle": map[string]interface{}{
				"type":        "string",
				"description": "Stop when the page title contains this substring (case-insensitive)",
			},
			"steps": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum history steps to take. Defaults to 1, or 10 when a target is given.",
			},
		},
	}
}

func executeHistory(ctx context.Context, manager *browser.Manager, dir browser.HistoryDirection, args map[string]interface{}) (interface{}, error) {
	targetURL := getStringArg(args, "targetUrl")
	targetTitle := getStringArg(args, "targetTitle")
	steps := getIntArg(args, "steps", 0)

	page, err := manager.ActivePage(ctx)
	if err != nil {
		if isNoActivePage(err) {
			return noActivePage(), nil
		}
		return failure("resolve active page: %v", err), nil
	}

	report, err := manager.TraverseHistory(ctx, page, dir, targetURL, targetTitle, steps)
	if err != nil {
		return failure("go %s: %v", dir, err), nil
	}

	msg := fmt.Sprintf("Went %s %d step(s)", dir, report.StepsTaken)
	switch {
	case report.MatchedTarget:
		msg = fmt.Sprintf("Went %s %d step(s) and found the target", dir, report.StepsTaken)
	case report.HitBoundary && report.StepsTaken == 0:
		msg = fmt.Sprintf("Already at the %s boundary of history", dir)
	case report.HitBoundary:
		msg = fmt.Sprintf("Went %s %d step(s) and reached the history boundary", dir, report.StepsTaken)
	}

	return success(msg, map[string]interface{}{
		"direction":      dir.String(),
		"steps_taken":    report.StepsTaken,
		"url":            report.FinalURL,
		"title":          report.FinalTitle,
		"matched_target": report.MatchedTarget,
		"hit_boundary":   report.HitBoundary,
	}), nil
}

// SwitchTabTool lists open tabs or activates one matched by index or substring.
type SwitchTabTool struct {
	manager *browser.Manager
}

func (t *SwitchTabTool) Name() string {
	return "switch_tab"
}

func (t *SwitchTabTool) Description() string {
	return "List open tabs, or switch to one by index or by a case-insensitive substring of its title or URL."
}

func (t *SwitchTabTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"tab": map[string]interface{}{
				"type":        "string",
				"description": "Tab index (as a number) or a substring of the tab's title or URL. Omit to list open tabs.",
			},
		},
	}
}

func (t *SwitchTabTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	tabs, err := t.manager.Tabs(ctx)
	if err != nil {
		return failure("list tabs: %v", err), nil
	}

	needle := getStringArg(args, "tab")
	if needle == "" {
		return success(fmt.Sprintf("%d tab(s) open:\n%s", len(tabs), formatTabList(tabs)), map[string]interface{}{
			"tabs": tabs,
		}), nil
	}

	idx, found := matchTabArg(tabs, needle)
	if !found {
		return failure("no tab matches %q; open tabs:\n%s", needle, formatTabList(tabs)), nil
	}

	page, err := t.manager.PageByTarget(ctx, tabs[idx].TargetID)
	if err != nil {
		return failure("switch tab: %v", err), nil
	}
	if _, err := page.Activate(); err != nil {
		return failure("activate tab %d: %v", idx, err), nil
	}
	t.manager.Tracker().RecordAccess(tabs[idx].TargetID)

	return success(fmt.Sprintf("Switched to tab %d: %s", idx, tabs[idx].Title), map[string]interface{}{
		"index": idx,
		"url":   tabs[idx].URL,
		"title": tabs[idx].Title,
	}), nil
}

// matchTabArg treats a numeric needle as a tab index when in range, otherwise
// falls through to substring matching.
func matchTabArg(tabs []browser.TabInfo, needle string) (int, bool) {
	var idx int
	if _, err := fmt.Sscanf(needle, "%d", &idx); err == nil && fmt.Sprintf("%d", idx) == needle {
		if idx >= 0 && idx < len(tabs) {
			return idx, true
		}
	}
	return browser.MatchTab(tabs, needle)
}
