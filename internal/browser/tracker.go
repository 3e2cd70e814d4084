package browser

import "sync"

// TabTracker keeps a bounded, most-recent-first list of tab target IDs.
// It approximates "the tab the operator is currently looking at" without relying
// on engine-native focus tracking, which is unreliable across Chrome variants.
//
// The tracker never owns pages: entries referring to closed tabs are skipped at
// resolution time rather than eagerly evicted, since closure is only observable
// when the browser is queried.
type TabTracker struct {
	mu       sync.Mutex
	capacity int
	recent   []string
}

// NewTabTracker creates a tracker bounded to capacity entries.
func NewTabTracker(capacity int) *TabTracker {
	if capacity <= 0 {
		capacity = 10
	}
	return &TabTracker{capacity: capacity}
}

// RecordAccess moves id to the front of the recency list, removing any prior
// occurrence, then truncates to capacity.
func (t *TabTracker) RecordAccess(id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make([]string, 0, len(t.recent)+1)
	next = append(next, id)
	for _, existing := range t.recent {
		if existing != id {
			next = append(next, existing)
		}
	}
	if len(next) > t.capacity {
		next = next[:t.capacity]
	}
	t.recent = next
}

// Recent returns a snapshot of the recency list, most recent first.
func (t *TabTracker) Recent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.recent))
	copy(out, t.recent)
	return out
}

// Capacity returns the configured bound.
func (t *TabTracker) Capacity() int {
	return t.capacity
}

// Len returns the current number of tracked entries.
func (t *TabTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.recent)
}

// tabState is a point-in-time view of one open target, used by resolution.
type tabState struct {
	TargetID string
	URL      string
	Title    string
	Alive    bool
}

func isBlankURL(url string) bool {
	return url == "" || url == "about:blank"
}

// pickActive resolves which tab an operation should implicitly target.
//
// Resolution order:
//  1. the most recently accessed tab that is still alive with a non-blank URL;
//  2. the first alive non-blank tab in engine enumeration order;
//  3. the first alive tab regardless of blank status;
//  4. none.
//
// The second return reports whether the pick came from the recency list; callers
// record a fresh access for fallback picks so the heuristic converges.
func pickActive(recent []string, tabs []tabState) (index int, fromRecency, ok bool) {
	byTarget := make(map[string]int, len(tabs))
	for i, tab := range tabs {
		if _, seen := byTarget[tab.TargetID]; !seen {
			byTarget[tab.TargetID] = i
		}
	}

	for _, id := range recent {
		i, found := byTarget[id]
		if !found {
			continue // closed since last recorded; skip, do not evict
		}
		if tabs[i].Alive && !isBlankURL(tabs[i].URL) {
			return i, true, true
		}
	}

	for i, tab := range tabs {
		if tab.Alive && !isBlankURL(tab.URL) {
			return i, false, true
		}
	}

	for i, tab := range tabs {
		if tab.Alive {
			return i, false, true
		}
	}

	return 0, false, false
}
