package browser

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultHistorySteps(t *testing.T) {
	tests := []struct {
		name      string
		steps     int
		hasTarget bool
		want      int
	}{
		{"explicit steps win", 4, true, 4},
		{"plain traversal defaults to one", 0, false, 1},
		{"target hunt defaults to ten", 0, true, 10},
		{"negative treated as unset", -2, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := defaultHistorySteps(tt.steps, tt.hasTarget); got != tt.want {
				t.Errorf("defaultHistorySteps(%d, %v) = %d, want %d", tt.steps, tt.hasTarget, got, tt.want)
			}
		})
	}
}

func TestHistoryTargetMatched(t *testing.T) {
	tests := []struct {
		name        string
		url, title  string
		targetURL   string
		targetTitle string
		want        bool
	}{
		{"url substring case-insensitive", "https://GitHub.com/rod", "Rod", "github", "", true},
		{"title substring case-insensitive", "https://x.test", "Issue Tracker", "", "issue", true},
		{"either field suffices", "https://x.test/docs", "Unrelated", "docs", "nope", true},
		{"no match", "https://x.test", "Home", "github", "issues", false},
		{"empty targets never match", "https://x.test", "Home", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := historyTargetMatched(tt.url, tt.title, tt.targetURL, tt.targetTitle)
			if got != tt.want {
				t.Errorf("historyTargetMatched(%q, %q, %q, %q) = %v, want %v",
					tt.url, tt.title, tt.targetURL, tt.targetTitle, got, tt.want)
			}
		})
	}
}

// historyWalker simulates a back-stack: each step moves toward the oldest
// entry and stays put at the boundary, like a real browser.
func historyWalker(urls []string, titles map[string]string) (step func() error, pageInfo func() (string, string, error)) {
	pos := len(urls) - 1
	step = func() error {
		if pos > 0 {
			pos--
		}
		return nil
	}
	pageInfo = func() (string, string, error) {
		url := urls[pos]
		return url, titles[url], nil
	}
	return step, pageInfo
}

func TestTraverseHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("boundary stops before the step budget", func(t *testing.T) {
		step, info := historyWalker([]string{"https://a.test", "https://b.test"}, nil)
		report, err := traverseHistory(ctx, HistoryBack, "", "", 3, step, info)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.StepsTaken != 1 {
			t.Errorf("StepsTaken = %d, want 1", report.StepsTaken)
		}
		if !report.HitBoundary {
			t.Error("expected HitBoundary after the url stopped changing")
		}
		if report.FinalURL != "https://a.test" {
			t.Errorf("FinalURL = %q", report.FinalURL)
		}
	})

	t.Run("already at the boundary is not an error", func(t *testing.T) {
		step, info := historyWalker([]string{"https://only.test"}, nil)
		report, err := traverseHistory(ctx, HistoryBack, "", "", 1, step, info)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.StepsTaken != 0 || !report.HitBoundary {
			t.Errorf("report = %+v, want zero steps with HitBoundary", report)
		}
	})

	t.Run("step budget respected when history is deep", func(t *testing.T) {
		step, info := historyWalker([]string{"a", "b", "c", "d", "e", "f"}, nil)
		report, err := traverseHistory(ctx, HistoryBack, "", "", 3, step, info)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.StepsTaken != 3 {
			t.Errorf("StepsTaken = %d, want 3", report.StepsTaken)
		}
		if report.HitBoundary || report.MatchedTarget {
			t.Errorf("report = %+v, want no boundary or match flags", report)
		}
	})

	t.Run("early stop on target url match", func(t *testing.T) {
		urls := []string{"https://a.test", "https://github.com/go-rod/rod", "https://c.test"}
		step, info := historyWalker(urls, nil)
		report, err := traverseHistory(ctx, HistoryBack, "GITHUB", "", 0, step, info)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.MatchedTarget {
			t.Fatal("expected MatchedTarget")
		}
		if report.StepsTaken != 1 {
			t.Errorf("StepsTaken = %d, want 1 (stop at first match, not the 10-step budget)", report.StepsTaken)
		}
		if report.FinalURL != "https://github.com/go-rod/rod" {
			t.Errorf("FinalURL = %q", report.FinalURL)
		}
	})

	t.Run("early stop on target title match", func(t *testing.T) {
		urls := []string{"https://a.test", "https://b.test", "https://c.test"}
		titles := map[string]string{"https://b.test": "Issue Tracker"}
		step, info := historyWalker(urls, titles)
		report, err := traverseHistory(ctx, HistoryBack, "", "issue", 0, step, info)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.MatchedTarget || report.FinalTitle != "Issue Tracker" {
			t.Errorf("report = %+v, want title match", report)
		}
	})

	t.Run("first step failure is an error", func(t *testing.T) {
		step := func() error { return errors.New("no history entry") }
		info := func() (string, string, error) { return "https://a.test", "", nil }
		_, err := traverseHistory(ctx, HistoryBack, "", "", 1, step, info)
		if err == nil {
			t.Fatal("expected error when the very first step fails")
		}
	})

	t.Run("later step failure reports the partial traversal", func(t *testing.T) {
		calls := 0
		urls := []string{"a", "b", "c"}
		pos := len(urls) - 1
		step := func() error {
			calls++
			if calls > 1 {
				return errors.New("target detached")
			}
			pos--
			return nil
		}
		info := func() (string, string, error) { return urls[pos], "", nil }
		report, err := traverseHistory(ctx, HistoryBack, "", "", 3, step, info)
		if err != nil {
			t.Fatalf("partial traversal should not error: %v", err)
		}
		if report.StepsTaken != 1 || report.FinalURL != "b" {
			t.Errorf("report = %+v, want one completed step ending at b", report)
		}
	})
}

func TestHistoryDirectionString(t *testing.T) {
	if HistoryBack.String() != "back" || HistoryForward.String() != "forward" {
		t.Errorf("unexpected direction names: %q, %q", HistoryBack, HistoryForward)
	}
}
