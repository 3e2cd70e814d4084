package mcp

import (
	"errors"
	"fmt"
	"strings"

	"browserpilot-mcp-server/internal/browser"
)

func getStringArg(args map[string]interface{}, key string) string {
	val, ok := args[key]
	if !ok {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func getIntArg(args map[string]interface{}, key string, fallback int) int {
	val, ok := args[key]
	if !ok {
		return fallback
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// getBoolArg extracts a boolean argument with default.
func getBoolArg(args map[string]interface{}, key string, fallback bool) bool {
	val, ok := args[key]
	if !ok {
		return fallback
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return fallback
}

// getIntPtrArg distinguishes "argument absent" from zero for optional indexes.
func getIntPtrArg(args map[string]interface{}, key string) *int {
	val, ok := args[key]
	if !ok {
		return nil
	}
	var n int
	switch v := val.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	default:
		return nil
	}
	return &n
}

// failure builds the uniform error payload executors return for operational
// failures. These never become Go errors: the protocol wrapper turns the
// success flag into isError.
func failure(format string, a ...interface{}) map[string]interface{} {
	return map[string]interface{}{
		"success": false,
		"error":   fmt.Sprintf(format, a...),
	}
}

// success builds a result payload with a human-readable summary plus any
// structured fields.
func success(message string, extra map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{
		"success": true,
		"message": message,
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// noActivePage is the typed failure for operations that require a target tab.
func noActivePage() map[string]interface{} {
	return failure("no active page: open a tab or navigate somewhere first")
}

func isNoActivePage(err error) bool {
	return errors.Is(err, browser.ErrNoActivePage)
}

// formatTabList renders tabs as "index. title - url" lines for summaries and
// no-match failures.
func formatTabList(tabs []browser.TabInfo) string {
	if len(tabs) == 0 {
		return "(no open tabs)"
	}
	var sb strings.Builder
	for _, tab := range tabs {
		marker := "  "
		if tab.Active {
			marker = "* "
		}
		title := truncateString(tab.Title, 60)
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&sb, "%s%d. %s - %s\n", marker, tab.Index, title, tab.URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncateString(s string, maxLen int) string {
	s = strings.TrimSpace(strings.Join(strings.Fields(s), " "))
	if len(s) > maxLen && maxLen > 3 {
		return s[:maxLen-3] + "..."
	}
	return s
}
