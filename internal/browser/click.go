package browser

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Click selection methods reported back to callers.
const (
	ClickMethodSingle       = "single match"
	ClickMethodExplicit     = "explicit index"
	ClickMethodRandom       = "random index"
	ClickMethodScanFallback = "fallback scan"
	ClickMethodFirstElement = "fallback first element"
)

// ClickOutcome reports which element was clicked and how it was selected.
type ClickOutcome struct {
	Index  int    `json:"index"`
	Count  int    `json:"count"`
	Method string `json:"method"`
}

// chooseClickIndex picks which of count matches to click.
//
// An explicit index expresses caller intent and is never second-guessed: out of
// range or unclickable fails outright. Without one, a uniformly random index is
// tried first; if that element is not clickable the first clickable match in
// document order is substituted and reported as a fallback.
func chooseClickIndex(count int, explicit *int, pick func(n int) int, clickable func(i int) bool) (int, string, error) {
	switch {
	case count == 0:
		return 0, "", fmt.Errorf("no elements matched")
	case explicit != nil:
		nth := *explicit
		if nth < 0 || nth >= count {
			return 0, "", fmt.Errorf("index %d out of range, valid range is 0 to %d", nth, count-1)
		}
		if !clickable(nth) {
			return 0, "", fmt.Errorf("element at index %d is not visible or not enabled", nth)
		}
		if count == 1 {
			return nth, ClickMethodSingle, nil
		}
		return nth, ClickMethodExplicit, nil
	case count == 1:
		if !clickable(0) {
			return 0, "", fmt.Errorf("element is not visible or not enabled")
		}
		return 0, ClickMethodSingle, nil
	}

	idx := pick(count)
	if clickable(idx) {
		return idx, ClickMethodRandom, nil
	}
	for i := 0; i < count; i++ {
		if clickable(i) {
			return i, ClickMethodScanFallback, nil
		}
	}
	return 0, "", fmt.Errorf("none of the %d matched elements are clickable", count)
}

// isClickable reports whether an element is both visible and enabled.
func isClickable(el *rod.Element) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	disabled, err := el.Property("disabled")
	if err == nil && disabled.Bool() {
		return false
	}
	return true
}

func clickElement(el *rod.Element) error {
	_ = el.ScrollIntoView()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// ResolveClick locates selector on the page and clicks exactly one match,
// disambiguating per chooseClickIndex. If the randomly chosen element throws
// during the click itself, the first match in document order is clicked instead.
func ResolveClick(page *rod.Page, selector string, explicit *int, timeout time.Duration) (ClickOutcome, error) {
	elements, err := page.Timeout(timeout).Elements(selector)
	if err != nil {
		return ClickOutcome{}, fmt.Errorf("query %q: %w", selector, err)
	}
	count := len(elements)
	if count == 0 {
		return ClickOutcome{Count: 0}, fmt.Errorf("no elements found matching %q", selector)
	}

	idx, method, err := chooseClickIndex(count, explicit, rand.Intn, func(i int) bool {
		return isClickable(elements[i])
	})
	if err != nil {
		return ClickOutcome{Count: count}, err
	}

	if clickErr := clickElement(elements[idx]); clickErr != nil {
		// Explicit intent is never substituted; a failed explicit click is final.
		if method != ClickMethodRandom || idx == 0 {
			return ClickOutcome{Index: idx, Count: count, Method: method}, fmt.Errorf("click element %d: %w", idx, clickErr)
		}
		if err := clickElement(elements[0]); err != nil {
			return ClickOutcome{Index: idx, Count: count, Method: method}, fmt.Errorf("click element %d: %w", idx, clickErr)
		}
		return ClickOutcome{Index: 0, Count: count, Method: ClickMethodFirstElement}, nil
	}

	return ClickOutcome{Index: idx, Count: count, Method: method}, nil
}
