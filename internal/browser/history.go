package browser

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/go-rod/rod"
)

// HistoryDirection selects back or forward traversal.
type HistoryDirection int

const (
	HistoryBack HistoryDirection = iota
	HistoryForward
)

func (d HistoryDirection) String() string {
	if d == HistoryForward {
		return "forward"
	}
	return "back"
}

// HistoryReport describes how far a traversal actually went.
type HistoryReport struct {
	StepsTaken    int    `json:"steps_taken"`
	FinalURL      string `json:"final_url"`
	FinalTitle    string `json:"final_title"`
	MatchedTarget bool   `json:"matched_target,omitempty"`
	HitBoundary   bool   `json:"hit_boundary,omitempty"`
}

// defaultHistorySteps applies the documented defaults: one step normally, up to
// ten when hunting for a target substring.
func defaultHistorySteps(steps int, hasTarget bool) int {
	if steps > 0 {
		return steps
	}
	if hasTarget {
		return 10
	}
	return 1
}

// historyTargetMatched reports whether the current url or title contains the
// requested substring, case-insensitively. Empty targets never match.
func historyTargetMatched(url, title, targetURL, targetTitle string) bool {
	if targetURL != "" && strings.Contains(strings.ToLower(url), strings.ToLower(targetURL)) {
		return true
	}
	if targetTitle != "" && strings.Contains(strings.ToLower(title), strings.ToLower(targetTitle)) {
		return true
	}
	return false
}

// TraverseHistory walks the page history up to maxSteps steps in the given
// direction. Traversal stops early when the target substring matches, or
// silently when a step leaves the URL unchanged, which signals the history
// boundary was reached.
func (m *Manager) TraverseHistory(ctx context.Context, page *rod.Page, dir HistoryDirection, targetURL, targetTitle string, steps int) (HistoryReport, error) {
	step := func() error {
		var err error
		if dir == HistoryForward {
			err = page.NavigateForward()
		} else {
			err = page.NavigateBack()
		}
		if err != nil {
			return err
		}
		if err := page.Timeout(m.cfg.GetNavigationTimeout()).WaitLoad(); err != nil {
			log.Printf("history %s wait load: %v", dir, err)
		}
		return nil
	}
	pageInfo := func() (string, string, error) {
		info, err := page.Info()
		if err != nil {
			return "", "", err
		}
		return info.URL, info.Title, nil
	}

	report, err := traverseHistory(ctx, dir, targetURL, targetTitle, steps, step, pageInfo)
	m.tracker.RecordAccess(string(page.TargetID))
	return report, err
}

// traverseHistory is the step loop itself, decoupled from rod: step performs
// one history move, pageInfo reads the resulting url and title.
func traverseHistory(ctx context.Context, dir HistoryDirection, targetURL, targetTitle string, steps int, step func() error, pageInfo func() (url, title string, err error)) (HistoryReport, error) {
	maxSteps := defaultHistorySteps(steps, targetURL != "" || targetTitle != "")

	report := HistoryReport{}
	currentURL := ""
	if url, title, err := pageInfo(); err == nil {
		currentURL = url
		report.FinalURL = url
		report.FinalTitle = title
	}

	for i := 0; i < maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := step(); err != nil {
			if report.StepsTaken == 0 {
				return report, fmt.Errorf("navigate %s: %w", dir, err)
			}
			// Partial traversal still counts; report what we have.
			log.Printf("history %s step %d failed: %v", dir, i+1, err)
			break
		}

		url, title, err := pageInfo()
		if err != nil {
			return report, fmt.Errorf("page info after %s step: %w", dir, err)
		}

		if url == currentURL {
			// No movement: the history boundary. Not an error.
			report.HitBoundary = true
			break
		}

		report.StepsTaken++
		report.FinalURL = url
		report.FinalTitle = title
		currentURL = url

		if historyTargetMatched(url, title, targetURL, targetTitle) {
			report.MatchedTarget = true
			break
		}
	}

	return report, nil
}
