package browser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-rod/rod"
	readability "github.com/go-shiori/go-readability"
)

// ContentOptions tunes structured page extraction.
type ContentOptions struct {
	IncludeMetadata    bool
	IncludeHeadings    bool
	IncludeParagraphs  bool
	IncludeLists       bool
	IncludeLinks       bool
	IncludeMainContent bool
	MaxHeadings        int
	MaxParagraphs      int
	// Paragraphs longer than this are excluded entirely, not truncated.
	MaxParagraphLength int
	MaxLists           int
	MaxListItems       int
	MaxLinks           int
	DedupeParagraphs   bool
	DedupeLinks        bool
	// Skip links found inside nav/header/footer regions.
	ExcludeNavLinks bool
	OmitEmpty       bool
}

// DefaultContentOptions returns the documented extraction defaults.
func DefaultContentOptions() ContentOptions {
	return ContentOptions{
		IncludeMetadata:    true,
		IncludeHeadings:    true,
		IncludeParagraphs:  true,
		IncludeLists:       true,
		IncludeLinks:       true,
		IncludeMainContent: true,
		MaxHeadings:        50,
		MaxParagraphs:      30,
		MaxParagraphLength: 500,
		MaxLists:           20,
		MaxListItems:       10,
		MaxLinks:           100,
		DedupeParagraphs:   true,
		DedupeLinks:        true,
		ExcludeNavLinks:    true,
		OmitEmpty:          true,
	}
}

// mainContentCap bounds the primary-region text carried back to the caller.
const mainContentCap = 2000

// Heading is one h1-h6 element.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// List is one ul/ol with its item texts.
type List struct {
	Type  string   `json:"type"`
	Items []string `json:"items"`
	Count int      `json:"count"`
}

// Link is one anchor with resolved href.
type Link struct {
	Href     string `json:"href"`
	Text     string `json:"text"`
	External bool   `json:"external,omitempty"`
}

// PageContent is the shaped extraction result.
type PageContent struct {
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Headings    []Heading         `json:"headings,omitempty"`
	Paragraphs  []string          `json:"paragraphs,omitempty"`
	Lists       []List            `json:"lists,omitempty"`
	Links       []Link            `json:"links,omitempty"`
	MainContent string            `json:"main_content,omitempty"`
}

// rawContent mirrors what the in-page collector emits before shaping.
type rawContent struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Meta     []struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	} `json:"meta"`
	Headings   []Heading `json:"headings"`
	Paragraphs []string  `json:"paragraphs"`
	Lists      []struct {
		Type  string   `json:"type"`
		Items []string `json:"items"`
	} `json:"lists"`
	Links []struct {
		Href  string `json:"href"`
		Text  string `json:"text"`
		InNav bool   `json:"inNav"`
	} `json:"links"`
	MainText string `json:"mainText"`
}

// extractContentJS runs in the page's own scripting context and collects the
// raw material in a single round trip. Caps on the JS side keep the payload
// bounded; semantic shaping happens in Go where it is testable.
const extractContentJS = `
() => {
	const trim = (s) => (s || '').replace(/\s+/g, ' ').trim();

	const meta = [];
	for (const el of document.querySelectorAll('meta[name], meta[property]')) {
		const name = el.getAttribute('name') || el.getAttribute('property');
		const content = el.getAttribute('content');
		if (name && content) meta.push({ name, content });
	}

	const headings = [];
	for (const el of document.querySelectorAll('h1, h2, h3, h4, h5, h6')) {
		const text = trim(el.innerText);
		if (!text) continue;
		headings.push({ level: Number(el.tagName[1]), text, id: el.id || '' });
		if (headings.length >= 100) break;
	}

	const paragraphs = [];
	for (const el of document.querySelectorAll('p')) {
		const text = trim(el.innerText);
		if (!text) continue;
		paragraphs.push(text);
		if (paragraphs.length >= 200) break;
	}

	const lists = [];
	for (const el of document.querySelectorAll('ul, ol')) {
		const items = [];
		for (const li of el.querySelectorAll(':scope > li')) {
			const text = trim(li.innerText);
			if (text) items.push(text);
			if (items.length >= 50) break;
		}
		if (items.length) lists.push({ type: el.tagName === 'OL' ? 'ordered' : 'unordered', items });
		if (lists.length >= 50) break;
	}

	const links = [];
	for (const el of document.querySelectorAll('a[href]')) {
		const text = trim(el.innerText);
		const href = el.href;
		if (!href || href.startsWith('javascript:')) continue;
		links.push({ href, text, inNav: !!el.closest('nav, header, footer') });
		if (links.length >= 300) break;
	}

	let mainText = '';
	const main = document.querySelector('main, [role="main"], article');
	if (main) mainText = trim(main.innerText).slice(0, 2000);

	return {
		title: document.title || '',
		url: location.href,
		meta, headings, paragraphs, lists, links, mainText,
	};
}
`

// ExtractContent collects and shapes the structured view of the active page.
// When the page has no main/article region, a readability pass over the raw
// HTML supplies the main-content section instead.
func (m *Manager) ExtractContent(page *rod.Page, opts ContentOptions) (PageContent, error) {
	res, err := page.Evaluate(&rod.EvalOptions{
		JS:           extractContentJS,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return PageContent{}, fmt.Errorf("extract page content: %w", err)
	}

	payload, err := res.Value.MarshalJSON()
	if err != nil {
		return PageContent{}, fmt.Errorf("decode extraction payload: %w", err)
	}

	var raw rawContent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return PageContent{}, fmt.Errorf("decode extraction payload: %w", err)
	}

	shaped := shapeContent(raw, opts)

	if opts.IncludeMainContent && shaped.MainContent == "" {
		if text, _, err := m.readableText(page, raw.URL); err == nil {
			shaped.MainContent = capString(text, mainContentCap)
		}
	}

	return shaped, nil
}

// shapeContent applies the extraction options to the raw collection.
func shapeContent(raw rawContent, opts ContentOptions) PageContent {
	out := PageContent{Title: raw.Title, URL: raw.URL}

	if opts.IncludeMetadata {
		meta := make(map[string]string, len(raw.Meta))
		for _, m := range raw.Meta {
			if _, seen := meta[m.Name]; !seen {
				meta[m.Name] = m.Content
			}
		}
		if len(meta) > 0 {
			out.Metadata = meta
		}
	}

	if opts.IncludeHeadings {
		for _, h := range raw.Headings {
			if opts.MaxHeadings > 0 && len(out.Headings) >= opts.MaxHeadings {
				break
			}
			if h.Level < 1 || h.Level > 6 || h.Text == "" {
				continue
			}
			out.Headings = append(out.Headings, h)
		}
	}

	if opts.IncludeParagraphs {
		seen := make(map[string]bool)
		for _, p := range raw.Paragraphs {
			if opts.MaxParagraphs > 0 && len(out.Paragraphs) >= opts.MaxParagraphs {
				break
			}
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			// Over-long paragraphs are excluded outright, not truncated.
			if opts.MaxParagraphLength > 0 && len(p) > opts.MaxParagraphLength {
				continue
			}
			if opts.DedupeParagraphs {
				if seen[p] {
					continue
				}
				seen[p] = true
			}
			out.Paragraphs = append(out.Paragraphs, p)
		}
	}

	if opts.IncludeLists {
		for _, l := range raw.Lists {
			if opts.MaxLists > 0 && len(out.Lists) >= opts.MaxLists {
				break
			}
			items := l.Items
			if opts.MaxListItems > 0 && len(items) > opts.MaxListItems {
				items = items[:opts.MaxListItems]
			}
			if len(items) == 0 {
				continue
			}
			out.Lists = append(out.Lists, List{Type: l.Type, Items: items, Count: len(l.Items)})
		}
	}

	if opts.IncludeLinks {
		pageOrigin := originOf(raw.URL)
		seen := make(map[string]bool)
		for _, l := range raw.Links {
			if opts.MaxLinks > 0 && len(out.Links) >= opts.MaxLinks {
				break
			}
			if opts.ExcludeNavLinks && l.InNav {
				continue
			}
			if l.Href == "" {
				continue
			}
			if opts.DedupeLinks {
				if seen[l.Href] {
					continue
				}
				seen[l.Href] = true
			}
			out.Links = append(out.Links, Link{
				Href:     l.Href,
				Text:     l.Text,
				External: pageOrigin != "" && originOf(l.Href) != pageOrigin,
			})
		}
	}

	if opts.IncludeMainContent {
		out.MainContent = capString(strings.TrimSpace(raw.MainText), mainContentCap)
	}

	return out
}

// RenderContent produces the markdown-like text summary carried back over the
// protocol. Empty sections are omitted when the options say so.
func RenderContent(pc PageContent, opts ContentOptions) string {
	var sb strings.Builder

	title := pc.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&sb, "# %s\n\nURL: %s\n", title, pc.URL)

	if len(pc.Metadata) > 0 || !opts.OmitEmpty && opts.IncludeMetadata {
		sb.WriteString("\n## Metadata\n")
		for _, name := range sortedKeys(pc.Metadata) {
			fmt.Fprintf(&sb, "- %s: %s\n", name, pc.Metadata[name])
		}
	}

	if len(pc.Headings) > 0 || !opts.OmitEmpty && opts.IncludeHeadings {
		sb.WriteString("\n## Headings\n")
		for _, h := range pc.Headings {
			fmt.Fprintf(&sb, "- %s %s", strings.Repeat("#", h.Level), h.Text)
			if h.ID != "" {
				fmt.Fprintf(&sb, " {#%s}", h.ID)
			}
			sb.WriteString("\n")
		}
	}

	if len(pc.Paragraphs) > 0 || !opts.OmitEmpty && opts.IncludeParagraphs {
		sb.WriteString("\n## Paragraphs\n")
		for _, p := range pc.Paragraphs {
			fmt.Fprintf(&sb, "\n%s\n", p)
		}
	}

	if len(pc.Lists) > 0 || !opts.OmitEmpty && opts.IncludeLists {
		sb.WriteString("\n## Lists\n")
		for _, l := range pc.Lists {
			fmt.Fprintf(&sb, "\n%s list (%d items):\n", l.Type, l.Count)
			for _, item := range l.Items {
				fmt.Fprintf(&sb, "- %s\n", item)
			}
		}
	}

	if len(pc.Links) > 0 || !opts.OmitEmpty && opts.IncludeLinks {
		sb.WriteString("\n## Links\n")
		for _, l := range pc.Links {
			text := l.Text
			if text == "" {
				text = l.Href
			}
			fmt.Fprintf(&sb, "- [%s](%s)", text, l.Href)
			if l.External {
				sb.WriteString(" (external)")
			}
			sb.WriteString("\n")
		}
	}

	if pc.MainContent != "" {
		fmt.Fprintf(&sb, "\n## Main Content\n\n%s\n", pc.MainContent)
	}

	return sb.String()
}

// readableText runs readability over the rendered HTML and returns the article
// text and title.
func (m *Manager) readableText(page *rod.Page, pageURL string) (text, title string, err error) {
	html, err := page.HTML()
	if err != nil {
		return "", "", fmt.Errorf("page html: %w", err)
	}
	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return "", "", fmt.Errorf("readability: %w", err)
	}
	return article.TextContent, article.Title, nil
}

// ReadableContent extracts the whole page through readability, for callers who
// want prose instead of the structured view.
func (m *Manager) ReadableContent(page *rod.Page, maxLength int) (string, error) {
	info, err := page.Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	text, title, err := m.readableText(page, info.URL)
	if err != nil {
		return "", err
	}
	if title == "" {
		title = info.Title
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\nURL: %s\n\n%s\n", title, info.URL, strings.TrimSpace(text))
	out := sb.String()
	if maxLength > 0 && len(out) > maxLength {
		out = out[:maxLength] + "\n\n[Content truncated...]"
	}
	return out, nil
}

// HTMLToMarkdown converts raw page markup to markdown.
func HTMLToMarkdown(html string) (string, error) {
	return htmltomarkdown.ConvertString(html)
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func capString(s string, n int) string {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
