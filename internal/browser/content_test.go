package browser

import (
	"strings"
	"testing"
)

func sampleRaw() rawContent {
	raw := rawContent{
		Title: "Example Domain",
		URL:   "https://example.com/page",
	}
	raw.Meta = []struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}{
		{Name: "description", Content: "An example"},
		{Name: "description", Content: "A duplicate"},
		{Name: "og:title", Content: "Example"},
	}
	raw.Headings = []Heading{
		{Level: 1, Text: "Welcome", ID: "top"},
		{Level: 2, Text: "Details"},
	}
	raw.Paragraphs = []string{
		"Short paragraph.",
		"Short paragraph.",
		strings.Repeat("x", 600),
		"Another paragraph.",
	}
	raw.Lists = []struct {
		Type  string   `json:"type"`
		Items []string `json:"items"`
	}{
		{Type: "unordered", Items: []string{"one", "two", "three"}},
	}
	raw.Links = []struct {
		Href  string `json:"href"`
		Text  string `json:"text"`
		InNav bool   `json:"inNav"`
	}{
		{Href: "https://example.com/a", Text: "internal"},
		{Href: "https://example.com/a", Text: "internal again"},
		{Href: "https://other.test/b", Text: "external"},
		{Href: "https://example.com/nav", Text: "nav", InNav: true},
	}
	raw.MainText = "Main region text."
	return raw
}

func TestShapeContent(t *testing.T) {
	t.Run("overlong paragraphs excluded not truncated", func(t *testing.T) {
		out := shapeContent(sampleRaw(), DefaultContentOptions())
		for _, p := range out.Paragraphs {
			if len(p) > 500 {
				t.Errorf("paragraph of length %d survived the 500-char limit", len(p))
			}
			if strings.HasSuffix(p, "...") {
				t.Errorf("paragraph %q looks truncated; over-long text should be dropped", p)
			}
		}
		// Two distinct short paragraphs remain after dedupe and exclusion.
		if len(out.Paragraphs) != 2 {
			t.Errorf("len(Paragraphs) = %d, want 2", len(out.Paragraphs))
		}
	})

	t.Run("paragraph dedupe", func(t *testing.T) {
		opts := DefaultContentOptions()
		opts.MaxParagraphLength = 0
		out := shapeContent(sampleRaw(), opts)
		seen := map[string]int{}
		for _, p := range out.Paragraphs {
			seen[p]++
		}
		if seen["Short paragraph."] != 1 {
			t.Errorf("duplicate paragraph kept %d times, want 1", seen["Short paragraph."])
		}
	})

	t.Run("nav links excluded and duplicates collapsed", func(t *testing.T) {
		out := shapeContent(sampleRaw(), DefaultContentOptions())
		if len(out.Links) != 2 {
			t.Fatalf("len(Links) = %d, want 2: %+v", len(out.Links), out.Links)
		}
		for _, l := range out.Links {
			if strings.Contains(l.Href, "/nav") {
				t.Errorf("nav link %q should have been excluded", l.Href)
			}
		}
	})

	t.Run("external flag from origin", func(t *testing.T) {
		out := shapeContent(sampleRaw(), DefaultContentOptions())
		for _, l := range out.Links {
			wantExternal := strings.Contains(l.Href, "other.test")
			if l.External != wantExternal {
				t.Errorf("link %q External = %v, want %v", l.Href, l.External, wantExternal)
			}
		}
	})

	t.Run("list count reflects original items", func(t *testing.T) {
		opts := DefaultContentOptions()
		opts.MaxListItems = 2
		out := shapeContent(sampleRaw(), opts)
		if len(out.Lists) != 1 {
			t.Fatalf("len(Lists) = %d, want 1", len(out.Lists))
		}
		if len(out.Lists[0].Items) != 2 {
			t.Errorf("items kept = %d, want 2", len(out.Lists[0].Items))
		}
		if out.Lists[0].Count != 3 {
			t.Errorf("Count = %d, want original 3", out.Lists[0].Count)
		}
	})

	t.Run("first meta value wins", func(t *testing.T) {
		out := shapeContent(sampleRaw(), DefaultContentOptions())
		if out.Metadata["description"] != "An example" {
			t.Errorf("Metadata[description] = %q, want first occurrence", out.Metadata["description"])
		}
	})

	t.Run("section caps respected", func(t *testing.T) {
		raw := sampleRaw()
		opts := DefaultContentOptions()
		opts.MaxHeadings = 1
		out := shapeContent(raw, opts)
		if len(out.Headings) != 1 {
			t.Errorf("len(Headings) = %d, want 1", len(out.Headings))
		}
	})

	t.Run("disabled sections omitted", func(t *testing.T) {
		opts := DefaultContentOptions()
		opts.IncludeLinks = false
		opts.IncludeMainContent = false
		out := shapeContent(sampleRaw(), opts)
		if out.Links != nil {
			t.Errorf("Links = %+v, want nil", out.Links)
		}
		if out.MainContent != "" {
			t.Errorf("MainContent = %q, want empty", out.MainContent)
		}
	})

	t.Run("main content capped", func(t *testing.T) {
		raw := sampleRaw()
		raw.MainText = strings.Repeat("y", mainContentCap+500)
		out := shapeContent(raw, DefaultContentOptions())
		if len(out.MainContent) != mainContentCap {
			t.Errorf("len(MainContent) = %d, want %d", len(out.MainContent), mainContentCap)
		}
	})
}

func TestRenderContent(t *testing.T) {
	out := shapeContent(sampleRaw(), DefaultContentOptions())
	text := RenderContent(out, DefaultContentOptions())

	for _, want := range []string{
		"# Example Domain",
		"URL: https://example.com/page",
		"## Headings",
		"- # Welcome {#top}",
		"## Links",
		"(external)",
		"## Main Content",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered output missing %q\n%s", want, text)
		}
	}

	t.Run("untitled placeholder", func(t *testing.T) {
		text := RenderContent(PageContent{URL: "https://x.test"}, DefaultContentOptions())
		if !strings.Contains(text, "# (untitled)") {
			t.Errorf("rendered output should carry the untitled placeholder:\n%s", text)
		}
	})

	t.Run("empty sections omitted", func(t *testing.T) {
		text := RenderContent(PageContent{Title: "T", URL: "https://x.test"}, DefaultContentOptions())
		if strings.Contains(text, "## Paragraphs") {
			t.Error("empty paragraph section should be omitted with OmitEmpty")
		}
	})
}

func TestOriginOf(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/page?q=1", "https://example.com"},
		{"http://example.com:8080/x", "http://example.com:8080"},
		{"about:blank", ""},
		{"not a url", ""},
	}
	for _, tt := range tests {
		if got := originOf(tt.raw); got != tt.want {
			t.Errorf("originOf(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCapString(t *testing.T) {
	if got := capString("hello", 3); got != "hel" {
		t.Errorf("capString = %q, want %q", got, "hel")
	}
	if got := capString("hello", 0); got != "hello" {
		t.Errorf("capString with no cap = %q, want unchanged", got)
	}
	if got := capString("hi", 10); got != "hi" {
		t.Errorf("capString under cap = %q, want unchanged", got)
	}
}
