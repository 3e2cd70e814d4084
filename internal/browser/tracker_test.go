package browser

import (
	"reflect"
	"testing"
)

func TestTabTrackerRecordAccess(t *testing.T) {
	t.Run("most recent first", func(t *testing.T) {
		tr := NewTabTracker(10)
		tr.RecordAccess("a")
		tr.RecordAccess("b")
		tr.RecordAccess("c")

		want := []string{"c", "b", "a"}
		if got := tr.Recent(); !reflect.DeepEqual(got, want) {
			t.Errorf("Recent() = %v, want %v", got, want)
		}
	})

	t.Run("re-access moves to front without duplicating", func(t *testing.T) {
		tr := NewTabTracker(10)
		tr.RecordAccess("a")
		tr.RecordAccess("b")
		tr.RecordAccess("a")

		want := []string{"a", "b"}
		if got := tr.Recent(); !reflect.DeepEqual(got, want) {
			t.Errorf("Recent() = %v, want %v", got, want)
		}
		if tr.Len() != 2 {
			t.Errorf("Len() = %d, want 2", tr.Len())
		}
	})

	t.Run("capacity evicts oldest", func(t *testing.T) {
		tr := NewTabTracker(3)
		for _, id := range []string{"a", "b", "c", "d"} {
			tr.RecordAccess(id)
		}

		want := []string{"d", "c", "b"}
		if got := tr.Recent(); !reflect.DeepEqual(got, want) {
			t.Errorf("Recent() = %v, want %v", got, want)
		}
	})

	t.Run("empty id ignored", func(t *testing.T) {
		tr := NewTabTracker(10)
		tr.RecordAccess("")
		if tr.Len() != 0 {
			t.Errorf("Len() = %d, want 0", tr.Len())
		}
	})

	t.Run("non-positive capacity falls back to default", func(t *testing.T) {
		tr := NewTabTracker(0)
		if tr.Capacity() != 10 {
			t.Errorf("Capacity() = %d, want 10", tr.Capacity())
		}
	})
}

func TestPickActive(t *testing.T) {
	alive := func(id, url string) tabState {
		return tabState{TargetID: id, URL: url, Alive: true}
	}
	dead := func(id string) tabState {
		return tabState{TargetID: id}
	}

	tests := []struct {
		name            string
		recent          []string
		tabs            []tabState
		wantIndex       int
		wantFromRecency bool
		wantOK          bool
	}{
		{
			name:   "no tabs",
			recent: []string{"a"},
			tabs:   nil,
			wantOK: false,
		},
		{
			name:            "recency pick wins",
			recent:          []string{"b", "a"},
			tabs:            []tabState{alive("a", "https://a.test"), alive("b", "https://b.test")},
			wantIndex:       1,
			wantFromRecency: true,
			wantOK:          true,
		},
		{
			name:            "closed entry skipped not evicted",
			recent:          []string{"gone", "a"},
			tabs:            []tabState{alive("a", "https://a.test")},
			wantIndex:       0,
			wantFromRecency: true,
			wantOK:          true,
		},
		{
			name:            "blank recency entry skipped",
			recent:          []string{"blank"},
			tabs:            []tabState{alive("blank", "about:blank"), alive("b", "https://b.test")},
			wantIndex:       1,
			wantFromRecency: false,
			wantOK:          true,
		},
		{
			name:            "no recency falls to first alive non-blank",
			recent:          nil,
			tabs:            []tabState{alive("blank", ""), alive("b", "https://b.test")},
			wantIndex:       1,
			wantFromRecency: false,
			wantOK:          true,
		},
		{
			name:            "all blank falls to first alive",
			recent:          nil,
			tabs:            []tabState{dead("x"), alive("blank", "about:blank")},
			wantIndex:       1,
			wantFromRecency: false,
			wantOK:          true,
		},
		{
			name:   "all dead yields none",
			recent: []string{"x"},
			tabs:   []tabState{dead("x"), dead("y")},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, fromRecency, ok := pickActive(tt.recent, tt.tabs)
			if ok != tt.wantOK {
				t.Fatalf("pickActive() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if idx != tt.wantIndex {
				t.Errorf("pickActive() index = %d, want %d", idx, tt.wantIndex)
			}
			if fromRecency != tt.wantFromRecency {
				t.Errorf("pickActive() fromRecency = %v, want %v", fromRecency, tt.wantFromRecency)
			}
		})
	}
}

func TestIsBlankURL(t *testing.T) {
	if !isBlankURL("") || !isBlankURL("about:blank") {
		t.Error("empty and about:blank should be blank")
	}
	if isBlankURL("https://example.com") {
		t.Error("real URL should not be blank")
	}
}
