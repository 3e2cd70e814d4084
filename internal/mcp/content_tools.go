package mcp

import (
	"context"

	"browserpilot-mcp-server/internal/browser"
)

// GetPageContentTool extracts a structured or readable view of the active page.
type GetPageContentTool struct {
	manager *browser.Manager
}

func (t *GetPageContentTool) Name() string {
	return "get_page_content"
}

func (t *GetPageContentTool) Description() string {
	return "Extract the active page's content: title, metadata, headings, paragraphs, lists, links and the main text region. Use mode=readable for a prose-only article view."
}

func (t *GetPageContentTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"mode": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"structured", "readable"},
				"description": "structured (default) returns sectioned content; readable runs a readability pass and returns article prose",
			},
			"includeMetadata":    boolProp("Include meta tags (default true)"),
			"includeHeadings":    boolProp("Include h1-h6 headings (default true)"),
			"includeParagraphs":  boolProp("Include paragraph text (default true)"),
			"includeLists":       boolProp("Include ul/ol lists (default true)"),
			"includeLinks":       boolProp("Include links (default true)"),
			"includeMainContent": boolProp("Include the main/article text region (default true)"),
			"maxHeadings":        intProp("Maximum headings to return (default 50)"),
			"maxParagraphs":      intProp("Maximum paragraphs to return (default 30)"),
			"maxParagraphLength": intProp("Paragraphs longer than this are skipped entirely (default 500)"),
			"maxLists":           intProp("Maximum lists to return (default 20)"),
			"maxListItems":       intProp("Maximum items per list (default 10)"),
			"maxLinks":           intProp("Maximum links to return (default 100)"),
			"excludeNavLinks":    boolProp("Skip links inside nav/header/footer regions (default true)"),
			"maxLength":          intProp("readable mode only: cap on the returned text length"),
		},
	}
}

func boolProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": desc}
}

func intProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func (t *GetPageContentTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	page, err := t.manager.ActivePage(ctx)
	if err != nil {
		if isNoActivePage(err) {
			return noActivePage(), nil
		}
		return failure("resolve active page: %v", err), nil
	}

	if getStringArg(args, "mode") == "readable" {
		text, err := t.manager.ReadableContent(page, getIntArg(args, "maxLength", 0))
		if err != nil {
			return failure("extract readable content: %v", err), nil
		}
		return success("Extracted readable page content", map[string]interface{}{
			"mode":    "readable",
			"content": text,
		}), nil
	}

	opts := contentOptionsFromArgs(args)
	content, err := t.manager.ExtractContent(page, opts)
	if err != nil {
		return failure("extract page content: %v", err), nil
	}

	return success("Extracted structured page content", map[string]interface{}{
		"mode":     "structured",
		"content":  browser.RenderContent(content, opts),
		"title":    content.Title,
		"url":      content.URL,
		"sections": sectionCounts(content),
	}), nil
}

func contentOptionsFromArgs(args map[string]interface{}) browser.ContentOptions {
	opts := browser.DefaultContentOptions()
	opts.IncludeMetadata = getBoolArg(args, "includeMetadata", opts.IncludeMetadata)
	opts.IncludeHeadings = getBoolArg(args, "includeHeadings", opts.IncludeHeadings)
	opts.IncludeParagraphs = getBoolArg(args, "includeParagraphs", opts.IncludeParagraphs)
	opts.IncludeLists = getBoolArg(args, "includeLists", opts.IncludeLists)
	opts.IncludeLinks = getBoolArg(args, "includeLinks", opts.IncludeLinks)
	opts.IncludeMainContent = getBoolArg(args, "includeMainContent", opts.IncludeMainContent)
	opts.MaxHeadings = getIntArg(args, "maxHeadings", opts.MaxHeadings)
	opts.MaxParagraphs = getIntArg(args, "maxParagraphs", opts.MaxParagraphs)
	opts.MaxParagraphLength = getIntArg(args, "maxParagraphLength", opts.MaxParagraphLength)
	opts.MaxLists = getIntArg(args, "maxLists", opts.MaxLists)
	opts.MaxListItems = getIntArg(args, "maxListItems", opts.MaxListItems)
	opts.MaxLinks = getIntArg(args, "maxLinks", opts.MaxLinks)
	opts.ExcludeNavLinks = getBoolArg(args, "excludeNavLinks", opts.ExcludeNavLinks)
	return opts
}

func sectionCounts(pc browser.PageContent) map[string]interface{} {
	return map[string]interface{}{
		"metadata":   len(pc.Metadata),
		"headings":   len(pc.Headings),
		"paragraphs": len(pc.Paragraphs),
		"lists":      len(pc.Lists),
		"links":      len(pc.Links),
	}
}

// GetHTMLTool returns the active page's markup, raw or converted to markdown.
type GetHTMLTool struct {
	manager *browser.Manager
}

func (t *GetHTMLTool) Name() string {
	return "get_html"
}

func (t *GetHTMLTool) Description() string {
	return "Return the active page's HTML, either raw or converted to markdown."
}

func (t *GetHTMLTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"format": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"html", "markdown"},
				"description": "html (default) returns the raw markup; markdown converts it",
			},
			"maxLength": intProp("Cap on the returned text length (0 = unlimited)"),
		},
	}
}

func (t *GetHTMLTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	page, err := t.manager.ActivePage(ctx)
	if err != nil {
		if isNoActivePage(err) {
			return noActivePage(), nil
		}
		return failure("resolve active page: %v", err), nil
	}

	html, err := page.HTML()
	if err != nil {
		return failure("read page html: %v", err), nil
	}

	format := getStringArg(args, "format")
	out := html
	if format == "markdown" {
		md, err := browser.HTMLToMarkdown(html)
		if err != nil {
			return failure("convert html to markdown: %v", err), nil
		}
		out = md
	} else {
		format = "html"
	}

	truncated := false
	if maxLen := getIntArg(args, "maxLength", 0); maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
		truncated = true
	}

	return success("Captured page markup", map[string]interface{}{
		"format":    format,
		"content":   out,
		"length":    len(out),
		"truncated": truncated,
	}), nil
}
