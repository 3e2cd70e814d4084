package mcp

import (
	"strings"
	"testing"

	"browserpilot-mcp-server/internal/browser"
)

func TestGetStringArg(t *testing.T) {
	args := map[string]interface{}{
		"str": "hello",
		"num": 42.0,
	}
	if got := getStringArg(args, "str"); got != "hello" {
		t.Errorf("getStringArg(str) = %q", got)
	}
	if got := getStringArg(args, "num"); got != "42" {
		t.Errorf("getStringArg(num) = %q, want stringified value", got)
	}
	if got := getStringArg(args, "missing"); got != "" {
		t.Errorf("getStringArg(missing) = %q, want empty", got)
	}
}

func TestGetIntArg(t *testing.T) {
	args := map[string]interface{}{
		"float": 7.0, // JSON numbers decode as float64
		"int":   3,
		"str":   "nope",
	}
	if got := getIntArg(args, "float", 0); got != 7 {
		t.Errorf("getIntArg(float) = %d, want 7", got)
	}
	if got := getIntArg(args, "int", 0); got != 3 {
		t.Errorf("getIntArg(int) = %d, want 3", got)
	}
	if got := getIntArg(args, "str", 9); got != 9 {
		t.Errorf("getIntArg(str) = %d, want fallback", got)
	}
	if got := getIntArg(args, "missing", 5); got != 5 {
		t.Errorf("getIntArg(missing) = %d, want fallback", got)
	}
}

func TestGetBoolArg(t *testing.T) {
	args := map[string]interface{}{
		"yes": true,
		"no":  false,
		"str": "true",
	}
	if !getBoolArg(args, "yes", false) {
		t.Error("getBoolArg(yes) should be true")
	}
	if getBoolArg(args, "no", true) {
		t.Error("getBoolArg(no) should be false")
	}
	if !getBoolArg(args, "str", true) {
		t.Error("getBoolArg(str) should return fallback for non-bool")
	}
	if !getBoolArg(args, "missing", true) {
		t.Error("getBoolArg(missing) should return fallback")
	}
}

func TestGetIntPtrArg(t *testing.T) {
	t.Run("absent yields nil", func(t *testing.T) {
		if got := getIntPtrArg(map[string]interface{}{}, "nth"); got != nil {
			t.Errorf("got %v, want nil", *got)
		}
	})
	t.Run("zero is distinguishable from absent", func(t *testing.T) {
		got := getIntPtrArg(map[string]interface{}{"nth": 0.0}, "nth")
		if got == nil || *got != 0 {
			t.Errorf("got %v, want pointer to 0", got)
		}
	})
	t.Run("non-numeric yields nil", func(t *testing.T) {
		if got := getIntPtrArg(map[string]interface{}{"nth": "two"}, "nth"); got != nil {
			t.Errorf("got %v, want nil", *got)
		}
	})
}

func TestFailureAndSuccessPayloads(t *testing.T) {
	f := failure("boom %d", 7)
	if f["success"] != false {
		t.Error("failure payload should carry success=false")
	}
	if f["error"] != "boom 7" {
		t.Errorf("failure error = %v", f["error"])
	}

	s := success("done", map[string]interface{}{"url": "https://x.test"})
	if s["success"] != true || s["message"] != "done" || s["url"] != "https://x.test" {
		t.Errorf("success payload = %v", s)
	}
}

func TestFormatTabList(t *testing.T) {
	if got := formatTabList(nil); got != "(no open tabs)" {
		t.Errorf("empty list = %q", got)
	}

	tabs := []browser.TabInfo{
		{Index: 0, Title: "Home", URL: "https://a.test", Active: true},
		{Index: 1, Title: "", URL: "https://b.test"},
	}
	out := formatTabList(tabs)
	if !strings.Contains(out, "* 0. Home") {
		t.Errorf("active tab not flagged:\n%s", out)
	}
	if !strings.Contains(out, "(untitled)") {
		t.Errorf("untitled placeholder missing:\n%s", out)
	}

	t.Run("long titles shortened", func(t *testing.T) {
		long := []browser.TabInfo{
			{Index: 0, Title: strings.Repeat("very long title ", 10), URL: "https://a.test"},
		}
		out := formatTabList(long)
		if !strings.Contains(out, "...") {
			t.Errorf("long title should be shortened:\n%s", out)
		}
		if strings.Contains(out, strings.Repeat("very long title ", 10)) {
			t.Error("full title should not survive formatting")
		}
	})
}

func TestMatchTabArg(t *testing.T) {
	tabs := []browser.TabInfo{
		{Index: 0, Title: "Example", URL: "https://example.com"},
		{Index: 1, Title: "GitHub", URL: "https://github.com"},
	}

	t.Run("numeric needle is an index", func(t *testing.T) {
		idx, found := matchTabArg(tabs, "1")
		if !found || idx != 1 {
			t.Errorf("got (%d, %v), want (1, true)", idx, found)
		}
	})
	t.Run("out-of-range number falls through to substring", func(t *testing.T) {
		_, found := matchTabArg(tabs, "9")
		if found {
			t.Error("expected no match for 9")
		}
	})
	t.Run("substring match", func(t *testing.T) {
		idx, found := matchTabArg(tabs, "github")
		if !found || idx != 1 {
			t.Errorf("got (%d, %v), want (1, true)", idx, found)
		}
	})
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("  hello   world  ", 100); got != "hello world" {
		t.Errorf("whitespace collapse = %q", got)
	}
	got := truncateString("abcdefghij", 8)
	if got != "abcde..." {
		t.Errorf("truncated = %q, want %q", got, "abcde...")
	}
}
