package mcp

import (
	"context"
	"fmt"

	"browserpilot-mcp-server/internal/browser"

	"github.com/go-rod/rod"
)

// FillTool clears a field and types a value into it.
type FillTool struct {
	manager *browser.Manager
}

func (t *FillTool) Name() string {
	return "fill"
}

func (t *FillTool) Description() string {
	return "Fill an input or textarea matched by a CSS selector: clears any existing value, then types the new one."
}

func (t *FillTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector for the field to fill",
			},
			"value": map[string]interface{}{
				"type":        "string",
				"description": "Text to type into the field",
			},
		},
		"required": []string{"selector", "value"},
	}
}

func (t *FillTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	selector := getStringArg(args, "selector")
	if selector == "" {
		return failure("selector is required"), nil
	}
	value := getStringArg(args, "value")

	page, err := t.manager.ActivePage(ctx)
	if err != nil {
		if isNoActivePage(err) {
			return noActivePage(), nil
		}
		return failure("resolve active page: %v", err), nil
	}

	el, err := t.manager.WaitElement(page, selector)
	if err != nil {
		return failure("%v", err), nil
	}

	if err := el.Focus(); err != nil {
		return failure("focus %s: %v", selector, err), nil
	}
	if err := el.SelectAllText(); err == nil {
		if err := el.Input(""); err != nil {
			return failure("clear %s: %v", selector, err), nil
		}
	}
	if err := el.Input(value); err != nil {
		return failure("type into %s: %v", selector, err), nil
	}

	return success(fmt.Sprintf("Filled %s", selector), map[string]interface{}{
		"selector": selector,
		"value":    value,
	}), nil
}

// SelectOptionTool picks an option in a <select> element.
type SelectOptionTool struct {
	manager *browser.Manager
}

func (t *SelectOptionTool) Name() string {
	return "select"
}

func (t *SelectOptionTool) Description() string {
	return "Select an option in a dropdown matched by a CSS selector, by visible text first and by value attribute as a fallback."
}

func (t *SelectOptionTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector for the select element",
			},
			"value": map[string]interface{}{
				"type":        "string",
				"description": "Option text or value attribute to select",
			},
		},
		"required": []string{"selector", "value"},
	}
}

func (t *SelectOptionTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	selector := getStringArg(args, "selector")
	value := getStringArg(args, "value")
	if selector == "" || value == "" {
		return failure("selector and value are required"), nil
	}

	page, err := t.manager.ActivePage(ctx)
	if err != nil {
		if isNoActivePage(err) {
			return noActivePage(), nil
		}
		return failure("resolve active page: %v", err), nil
	}

	el, err := t.manager.WaitElement(page, selector)
	if err != nil {
		return failure("%v", err), nil
	}

	matched := "text"
	if err := el.Select([]string{value}, true, rod.SelectorTypeText); err != nil {
		// No option with that visible text; try the value attribute.
		byValue := fmt.Sprintf(`[value=%q]`, value)
		if err := el.Select([]string{byValue}, true, rod.SelectorTypeCSSSector); err != nil {
			return failure("no option matching %q in %s", value, selector), nil
		}
		matched = "value"
	}

	return success(fmt.Sprintf("Selected %q in %s", value, selector), map[string]interface{}{
		"selector":   selector,
		"value":      value,
		"matched_by": matched,
	}), nil
}

// HoverTool moves the pointer over an element.
type HoverTool struct {
	manager *browser.Manager
}

func (t *HoverTool) Name() string {
	return "hover"
}

func (t *HoverTool) Description() string {
	return "Hover the mouse over an element matched by a CSS selector, scrolling it into view first."
}

func (t *HoverTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector for the element to hover",
			},
		},
		"required": []string{"selector"},
	}
}

func (t *HoverTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	selector := getStringArg(args, "selector")
	if selector == "" {
		return failure("selector is required"), nil
	}

	page, err := t.manager.ActivePage(ctx)
	if err != nil {
		if isNoActivePage(err) {
			return noActivePage(), nil
		}
		return failure("resolve active page: %v", err), nil
	}

	el, err := t.manager.WaitElement(page, selector)
	if err != nil {
		return failure("%v", err), nil
	}

	if err := el.ScrollIntoView(); err != nil {
		return failure("scroll %s into view: %v", selector, err), nil
	}
	if err := el.Hover(); err != nil {
		return failure("hover %s: %v", selector, err), nil
	}

	return success(fmt.Sprintf("Hovering over %s", selector), map[string]interface{}{
		"selector": selector,
	}), nil
}

// ClickTool clicks one element among the selector's matches.
type ClickTool struct {
	manager *browser.Manager
}

func (t *ClickTool) Name() string {
	return "click"
}

func (t *ClickTool) Description() string {
	return "Click an element matched by a CSS selector. When several elements match, pass nth to pick one explicitly; otherwise one is chosen automatically."
}

func (t *ClickTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector for the element(s) to click",
			},
			"nth": map[string]interface{}{
				"type":        "integer",
				"description": "Zero-based index among the matches. Omit to let the server pick.",
			},
		},
		"required": []string{"selector"},
	}
}

func (t *ClickTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	selector := getStringArg(args, "selector")
	if selector == "" {
		return failure("selector is required"), nil
	}
	nth := getIntPtrArg(args, "nth")

	page, err := t.manager.ActivePage(ctx)
	if err != nil {
		if isNoActivePage(err) {
			return noActivePage(), nil
		}
		return failure("resolve active page: %v", err), nil
	}

	outcome, err := browser.ResolveClick(page, selector, nth, t.manager.ActionTimeout())
	if err != nil {
		return failure("click %s: %v", selector, err), nil
	}
	t.manager.Tracker().RecordAccess(string(page.TargetID))

	return success(fmt.Sprintf("Clicked %s (match %d of %d, %s)", selector, outcome.Index, outcome.Count, outcome.Method), map[string]interface{}{
		"selector": selector,
		"index":    outcome.Index,
		"count":    outcome.Count,
		"method":   outcome.Method,
	}), nil
}
