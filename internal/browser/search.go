package browser

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
)

// searchInputSelectors is the ranked policy table for locating a search box
// when no exact selector is known. Order matters: semantic search types first,
// then aria/placeholder matches, then id/class heuristics, then generic text
// inputs scoped to regions where search boxes usually live.
var searchInputSelectors = []string{
	`input[type="search"]`,
	`input[name="q"]`,
	`input[name="query"]`,
	`input[name="search"]`,
	`input[role="searchbox"]`,
	`input[aria-label*="search" i]`,
	`input[placeholder*="search" i]`,
	`input[id*="search" i]`,
	`input[class*="search" i]`,
	`header input[type="text"]`,
	`nav input[type="text"]`,
	`form input[type="text"]`,
}

// submitButtonSelectors is the ranked policy table for the button-fallback
// submit path.
var submitButtonSelectors = []string{
	`button[type="submit"]`,
	`input[type="submit"]`,
	`button[aria-label*="search" i]`,
	`button[id*="search" i]`,
	`button[class*="search" i]`,
	`form button`,
}

// resultMarkerSelector matches common result-container markers, used to judge
// whether a submission produced results when the URL did not change.
const resultMarkerSelector = `[class*="result" i], [id*="result" i], [data-testid*="result" i], main ol li a, main ul li a`

const (
	searchRetryBackoff   = 500 * time.Millisecond
	searchSettleDelay    = 500 * time.Millisecond
	maxSearchDiagnostics = 5
)

// searchState names the phases of the search resolver. The fallback cascade is
// an explicit machine so each transition can be audited and tested.
type searchState int

const (
	stateFindingInput searchState = iota
	stateTyping
	stateSubmitEnter
	stateSubmitButtonFallback
	stateDone
	stateFailed
)

func (s searchState) String() string {
	switch s {
	case stateFindingInput:
		return "FINDING_INPUT"
	case stateTyping:
		return "TYPING"
	case stateSubmitEnter:
		return "SUBMIT_ENTER"
	case stateSubmitButtonFallback:
		return "SUBMIT_BUTTON_FALLBACK"
	case stateDone:
		return "DONE"
	case stateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// SearchOptions tunes the search resolver.
type SearchOptions struct {
	Query             string
	ClearExisting     bool
	WaitForNavigation bool
	Timeout           time.Duration
	RetryAttempts     int
	TypeDelay         time.Duration
}

// DefaultSearchOptions returns the documented defaults for a query.
func DefaultSearchOptions(query string) SearchOptions {
	return SearchOptions{
		Query:             query,
		ClearExisting:     true,
		WaitForNavigation: true,
		Timeout:           10 * time.Second,
		RetryAttempts:     3,
		TypeDelay:         50 * time.Millisecond,
	}
}

// SearchReport names which heuristic path succeeded so callers can diagnose
// unreliable sites.
type SearchReport struct {
	SelectorUsed string   `json:"selector_used"`
	SubmitMethod string   `json:"submit_method"`
	URLChanged   bool     `json:"url_changed"`
	FinalURL     string   `json:"final_url"`
	ResultsFound bool     `json:"results_found"`
	Attempts     int      `json:"attempts"`
	Diagnostics  []string `json:"diagnostics,omitempty"`
}

// appendDiagnostic keeps only the most recent diagnostics.
func appendDiagnostic(diags []string, format string, args ...interface{}) []string {
	diags = append(diags, fmt.Sprintf(format, args...))
	if len(diags) > maxSearchDiagnostics {
		diags = diags[len(diags)-maxSearchDiagnostics:]
	}
	return diags
}

// perSelectorWait divides the overall timeout across the candidate selectors so
// one pass over the whole table stays within budget.
func perSelectorWait(timeout time.Duration, selectorCount int) time.Duration {
	if selectorCount <= 0 {
		return timeout
	}
	wait := timeout / time.Duration(selectorCount)
	if wait < 100*time.Millisecond {
		wait = 100 * time.Millisecond
	}
	return wait
}

// searchDriver abstracts the page actions the search state machine performs.
type searchDriver interface {
	findInput(wait time.Duration, diags []string) (selector string, found bool, outDiags []string)
	typeQuery() error
	pressEnter() error
	clickSubmit(wait time.Duration) (selector string, clicked bool)
	settle()
	judge() (urlChanged, resultsFound bool, finalURL string)
}

// rodSearchDriver drives a live page.
type rodSearchDriver struct {
	m        *Manager
	page     *rod.Page
	opts     SearchOptions
	input    *rod.Element
	startURL string
}

func (d *rodSearchDriver) findInput(wait time.Duration, diags []string) (string, bool, []string) {
	el, sel, diags := findSearchInput(d.page, wait, diags)
	if el == nil {
		return "", false, diags
	}
	d.input = el
	return sel, true, diags
}

func (d *rodSearchDriver) typeQuery() error {
	return typeSearchQuery(d.input, d.opts)
}

func (d *rodSearchDriver) pressEnter() error {
	return d.page.Keyboard.Press(input.Enter)
}

func (d *rodSearchDriver) clickSubmit(wait time.Duration) (string, bool) {
	return clickSubmitButton(d.page, wait)
}

func (d *rodSearchDriver) settle() {
	d.m.settleAfterSubmit(d.page, d.opts.WaitForNavigation)
}

func (d *rodSearchDriver) judge() (bool, bool, string) {
	return judgeSubmission(d.page, d.startURL)
}

// ResolveSearch runs the multi-strategy search flow: locate an input, type the
// query with round-trip verification, submit via Enter, and fall back to a
// submit button when Enter produced no observable effect. Per-candidate
// failures are diagnostics, not errors; only exhaustion of all selectors across
// all retry attempts fails the operation.
func (m *Manager) ResolveSearch(ctx context.Context, page *rod.Page, opts SearchOptions) (SearchReport, error) {
	startURL := ""
	if info, err := page.Info(); err == nil {
		startURL = info.URL
	}
	driver := &rodSearchDriver{m: m, page: page, opts: opts, startURL: startURL}
	return runSearch(ctx, opts, driver)
}

// runSearch is the state machine itself, decoupled from rod through the driver.
func runSearch(ctx context.Context, opts SearchOptions, driver searchDriver) (SearchReport, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}

	report := SearchReport{}
	var (
		diags    []string
		selWait  = perSelectorWait(opts.Timeout, len(searchInputSelectors))
		attempts int
	)

	state := stateFindingInput
	for state != stateDone && state != stateFailed {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		switch state {
		case stateFindingInput:
			attempts++
			report.Attempts = attempts
			var found string
			var haveInput bool
			found, haveInput, diags = driver.findInput(selWait, diags)
			if !haveInput {
				if attempts >= opts.RetryAttempts {
					report.Diagnostics = diags
					state = stateFailed
					break
				}
				log.Printf("search: no input found on attempt %d/%d, retrying", attempts, opts.RetryAttempts)
				if err := sleepCtx(ctx, searchRetryBackoff); err != nil {
					return report, err
				}
				break // stay in FINDING_INPUT
			}
			report.SelectorUsed = found
			state = stateTyping

		case stateTyping:
			if err := driver.typeQuery(); err != nil {
				diags = appendDiagnostic(diags, "type into %s: %v", report.SelectorUsed, err)
				if attempts >= opts.RetryAttempts {
					report.Diagnostics = diags
					state = stateFailed
					break
				}
				if err := sleepCtx(ctx, searchRetryBackoff); err != nil {
					return report, err
				}
				state = stateFindingInput
				break
			}
			state = stateSubmitEnter

		case stateSubmitEnter:
			if err := driver.pressEnter(); err != nil {
				diags = appendDiagnostic(diags, "press Enter: %v", err)
			}
			driver.settle()

			urlChanged, resultsFound, finalURL := driver.judge()
			if urlChanged || resultsFound {
				report.SubmitMethod = "Enter key"
				report.URLChanged = urlChanged
				report.ResultsFound = resultsFound
				report.FinalURL = finalURL
				state = stateDone
				break
			}
			state = stateSubmitButtonFallback

		case stateSubmitButtonFallback:
			method := "Enter key" // reported when no button matched
			if sel, ok := driver.clickSubmit(perSelectorWait(opts.Timeout, len(submitButtonSelectors))); ok {
				method = fmt.Sprintf("submit button (%s)", sel)
				driver.settle()
			}
			urlChanged, resultsFound, finalURL := driver.judge()
			report.SubmitMethod = method
			report.URLChanged = urlChanged
			report.ResultsFound = resultsFound
			report.FinalURL = finalURL
			// The fallback path reports DONE regardless; the diagnostic fields
			// tell the caller whether the submission actually took effect.
			state = stateDone
		}
	}

	if state == stateFailed {
		return report, fmt.Errorf("no usable search input found after %d attempts (last errors: %s)",
			attempts, strings.Join(diags, "; "))
	}
	return report, nil
}

// findSearchInput walks the ranked selector table and returns the first match
// that is visible and enabled.
func findSearchInput(page *rod.Page, wait time.Duration, diags []string) (*rod.Element, string, []string) {
	for _, sel := range searchInputSelectors {
		el, err := page.Timeout(wait).Element(sel)
		if err != nil {
			diags = appendDiagnostic(diags, "%s: %v", sel, err)
			continue
		}
		if !isClickable(el) {
			diags = appendDiagnostic(diags, "%s: matched but not visible/enabled", sel)
			continue
		}
		return el, sel, diags
	}
	return nil, "", diags
}

func typeSearchQuery(el *rod.Element, opts SearchOptions) error {
	clear := func() {
		if err := el.SelectAllText(); err == nil {
			_ = el.Input("")
		}
	}
	readBack := func() (string, error) {
		value, err := el.Property("value")
		if err != nil {
			return "", err
		}
		return value.Str(), nil
	}
	return typeAndVerify(opts, el.Focus, clear, el.Input, readBack)
}

// typeAndVerify focuses the input, optionally clears it, types the query, and
// verifies the value round-trips exactly before submission is attempted.
func typeAndVerify(opts SearchOptions, focus func() error, clear func(), typeText func(string) error, readBack func() (string, error)) error {
	if err := focus(); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	if opts.ClearExisting {
		clear()
	}

	if opts.TypeDelay > 0 {
		for _, r := range opts.Query {
			if err := typeText(string(r)); err != nil {
				return fmt.Errorf("input: %w", err)
			}
			time.Sleep(opts.TypeDelay)
		}
	} else {
		if err := typeText(opts.Query); err != nil {
			return fmt.Errorf("input: %w", err)
		}
	}

	got, err := readBack()
	if err != nil {
		return fmt.Errorf("read back value: %w", err)
	}
	if got != opts.Query {
		return fmt.Errorf("value round-trip mismatch: typed %q, field holds %q", opts.Query, got)
	}
	return nil
}

// settleAfterSubmit waits for the page to settle after a submit action: a
// bounded load+stability wait when navigation is expected, a fixed short delay
// otherwise.
func (m *Manager) settleAfterSubmit(page *rod.Page, waitForNavigation bool) {
	if waitForNavigation {
		navTimeout := m.cfg.GetNavigationTimeout()
		if err := page.Timeout(navTimeout).WaitLoad(); err != nil {
			log.Printf("search: wait load after submit: %v", err)
		}
		if err := page.Timeout(navTimeout).WaitStable(300 * time.Millisecond); err != nil {
			log.Printf("search: wait stable after submit: %v", err)
		}
		return
	}
	time.Sleep(searchSettleDelay)
}

// judgeSubmission decides whether a submit took effect: the URL changed, or
// result-like containers appeared.
func judgeSubmission(page *rod.Page, startURL string) (urlChanged, resultsFound bool, finalURL string) {
	finalURL = startURL
	if info, err := page.Info(); err == nil {
		finalURL = info.URL
	}
	urlChanged = finalURL != startURL

	if markers, err := page.Elements(resultMarkerSelector); err == nil {
		resultsFound = len(markers) > 0
	}
	return urlChanged, resultsFound, finalURL
}

// clickSubmitButton walks the submit-button policy table and clicks the first
// visible, enabled match.
func clickSubmitButton(page *rod.Page, wait time.Duration) (string, bool) {
	for _, sel := range submitButtonSelectors {
		el, err := page.Timeout(wait).Element(sel)
		if err != nil {
			continue
		}
		if !isClickable(el) {
			continue
		}
		if err := clickElement(el); err != nil {
			log.Printf("search: click %s: %v", sel, err)
			continue
		}
		return sel, true
	}
	return "", false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
