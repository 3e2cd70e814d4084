package browser

import (
	"strings"
	"testing"
)

func TestChooseClickIndex(t *testing.T) {
	allClickable := func(int) bool { return true }
	noneClickable := func(int) bool { return false }
	pickFixed := func(n int) func(int) int {
		return func(int) int { return n }
	}
	intPtr := func(n int) *int { return &n }

	t.Run("zero matches fails", func(t *testing.T) {
		_, _, err := chooseClickIndex(0, nil, pickFixed(0), allClickable)
		if err == nil {
			t.Fatal("expected error for zero matches")
		}
	})

	t.Run("single match clicks directly", func(t *testing.T) {
		idx, method, err := chooseClickIndex(1, nil, pickFixed(0), allClickable)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if idx != 0 || method != ClickMethodSingle {
			t.Errorf("got (%d, %q), want (0, %q)", idx, method, ClickMethodSingle)
		}
	})

	t.Run("single unclickable match fails", func(t *testing.T) {
		_, _, err := chooseClickIndex(1, nil, pickFixed(0), noneClickable)
		if err == nil {
			t.Fatal("expected error for unclickable single match")
		}
	})

	t.Run("explicit index honored", func(t *testing.T) {
		idx, method, err := chooseClickIndex(5, intPtr(3), pickFixed(0), allClickable)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if idx != 3 || method != ClickMethodExplicit {
			t.Errorf("got (%d, %q), want (3, %q)", idx, method, ClickMethodExplicit)
		}
	})

	t.Run("explicit index out of range", func(t *testing.T) {
		for _, nth := range []int{-1, 5, 100} {
			_, _, err := chooseClickIndex(5, &nth, pickFixed(0), allClickable)
			if err == nil {
				t.Fatalf("expected error for nth=%d with 5 matches", nth)
			}
			if !strings.Contains(err.Error(), "valid range is 0 to 4") {
				t.Errorf("nth=%d: error %q should name the valid range", nth, err)
			}
		}
	})

	t.Run("explicit unclickable never substituted", func(t *testing.T) {
		_, _, err := chooseClickIndex(5, intPtr(2), pickFixed(0), noneClickable)
		if err == nil {
			t.Fatal("expected error for unclickable explicit pick")
		}
	})

	t.Run("random pick used when clickable", func(t *testing.T) {
		idx, method, err := chooseClickIndex(4, nil, pickFixed(2), allClickable)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if idx != 2 || method != ClickMethodRandom {
			t.Errorf("got (%d, %q), want (2, %q)", idx, method, ClickMethodRandom)
		}
	})

	t.Run("unclickable random pick falls back to first clickable", func(t *testing.T) {
		clickableOnly := func(i int) bool { return i == 3 }
		idx, method, err := chooseClickIndex(4, nil, pickFixed(1), clickableOnly)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if idx != 3 || method != ClickMethodScanFallback {
			t.Errorf("got (%d, %q), want (3, %q)", idx, method, ClickMethodScanFallback)
		}
	})

	t.Run("nothing clickable fails", func(t *testing.T) {
		_, _, err := chooseClickIndex(4, nil, pickFixed(1), noneClickable)
		if err == nil {
			t.Fatal("expected error when nothing is clickable")
		}
	})

	t.Run("random pick stays in range", func(t *testing.T) {
		// Exercise the real contract: pick receives the match count.
		gotN := 0
		pick := func(n int) int {
			gotN = n
			return n - 1
		}
		idx, _, err := chooseClickIndex(7, nil, pick, allClickable)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotN != 7 {
			t.Errorf("pick received n=%d, want 7", gotN)
		}
		if idx != 6 {
			t.Errorf("idx = %d, want 6", idx)
		}
	})
}
