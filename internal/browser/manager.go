package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"browserpilot-mcp-server/internal/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNoActivePage is returned when no open tab can be resolved as the target
// of an operation.
var ErrNoActivePage = errors.New("no active page")

// TabInfo is the lightweight view of one open tab, as reported to callers.
type TabInfo struct {
	Index    int    `json:"index"`
	TargetID string `json:"target_id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Active   bool   `json:"active"`
}

// Manager owns the single shared browser connection and the active-tab tracker.
// There is no reconnect logic: if the connection drops, later operations fail
// until the process is restarted.
type Manager struct {
	cfg     config.BrowserConfig
	tracker *TabTracker

	mu         sync.RWMutex
	browser    *rod.Browser
	controlURL string
}

func NewManager(cfg config.BrowserConfig) *Manager {
	return &Manager{
		cfg:     cfg,
		tracker: NewTabTracker(cfg.GetTabHistoryLimit()),
	}
}

// Tracker exposes the recency tracker for executors and tests.
func (m *Manager) Tracker() *TabTracker {
	return m.tracker
}

// Start connects to an existing Chrome or launches a new one using Rod's launcher.
// Safe to call more than once; a healthy connection is reused.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx)
}

func (m *Manager) startLocked(ctx context.Context) error {
	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		log.Printf("stale browser connection detected, reconnect requires restart")
		return errors.New("browser connection lost")
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" && len(m.cfg.Launch) > 0 {
		bin := m.cfg.Launch[0]
		launch := launcher.New().Bin(bin).Headless(m.cfg.IsHeadless())
		for _, rawFlag := range m.cfg.Launch[1:] {
			flagStr := strings.TrimLeft(rawFlag, "-")
			name, val, hasVal := strings.Cut(flagStr, "=")
			if hasVal {
				launch = launch.Set(flags.Flag(name), val)
			} else {
				launch = launch.Set(flags.Flag(name))
			}
		}
		url, err := launch.Launch()
		if err != nil {
			// Fallback: let Rod pick the port and defaults.
			fallback := launcher.New().Bin(bin).Headless(m.cfg.IsHeadless())
			alt, altErr := fallback.Launch()
			if altErr != nil {
				return fmt.Errorf("launch chrome: %w (fallback: %v)", err, altErr)
			}
			controlURL = alt
		} else {
			controlURL = url
		}
	}

	if controlURL == "" {
		// Neither a debugger URL nor a launch command: let Rod download and
		// manage its own Chromium.
		url, err := launcher.New().Headless(m.cfg.IsHeadless()).Launch()
		if err != nil {
			return fmt.Errorf("launch managed chromium: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	m.browser = browser
	m.controlURL = controlURL
	log.Printf("browser connected at %s", controlURL)
	return nil
}

// EnsureStarted lazily brings the browser up for operations that can create
// their own tab (navigate, open_new_tab).
func (m *Manager) EnsureStarted(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx)
}

// IsConnected reports whether the browser handle exists.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser != nil
}

// ControlURL returns the DevTools endpoint of the connected browser.
func (m *Manager) ControlURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controlURL
}

// Shutdown closes the underlying browser.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	m.controlURL = ""
	log.Printf("browser shutdown complete")
	return err
}

func (m *Manager) rodBrowser() (*rod.Browser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.browser == nil {
		return nil, errors.New("browser not connected")
	}
	return m.browser, nil
}

// snapshotTabs enumerates open targets and captures their current URL/title.
// A page whose Info call fails is reported dead rather than dropped so that
// indexes stay aligned with engine enumeration order.
func (m *Manager) snapshotTabs() ([]tabState, []*rod.Page, error) {
	browser, err := m.rodBrowser()
	if err != nil {
		return nil, nil, err
	}

	pages, err := browser.Pages()
	if err != nil {
		return nil, nil, fmt.Errorf("enumerate pages: %w", err)
	}

	states := make([]tabState, 0, len(pages))
	for _, page := range pages {
		state := tabState{TargetID: string(page.TargetID)}
		if info, err := page.Info(); err == nil {
			state.URL = info.URL
			state.Title = info.Title
			state.Alive = true
		}
		states = append(states, state)
	}
	return states, pages, nil
}

// ActivePage resolves the tab an operation should implicitly target, per the
// recency heuristic. Fallback picks are recorded as accesses so the tracker
// converges on reality. Returns ErrNoActivePage when no open page exists.
func (m *Manager) ActivePage(ctx context.Context) (*rod.Page, error) {
	states, pages, err := m.snapshotTabs()
	if err != nil {
		return nil, err
	}

	idx, fromRecency, ok := pickActive(m.tracker.Recent(), states)
	if !ok {
		return nil, ErrNoActivePage
	}
	if !fromRecency {
		m.tracker.RecordAccess(states[idx].TargetID)
	}
	return pages[idx].Context(ctx), nil
}

// Tabs returns the current open tabs with the active one flagged.
func (m *Manager) Tabs(ctx context.Context) ([]TabInfo, error) {
	states, _, err := m.snapshotTabs()
	if err != nil {
		return nil, err
	}

	activeIdx := -1
	if idx, _, ok := pickActive(m.tracker.Recent(), states); ok {
		activeIdx = idx
	}

	tabs := make([]TabInfo, 0, len(states))
	for i, s := range states {
		tabs = append(tabs, TabInfo{
			Index:    i,
			TargetID: s.TargetID,
			URL:      s.URL,
			Title:    s.Title,
			Active:   i == activeIdx,
		})
	}
	return tabs, nil
}

// PageByTarget returns the live page for a target ID.
func (m *Manager) PageByTarget(ctx context.Context, targetID string) (*rod.Page, error) {
	_, pages, err := m.snapshotTabs()
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if string(page.TargetID) == targetID {
			return page.Context(ctx), nil
		}
	}
	return nil, fmt.Errorf("tab not found: %s", targetID)
}

// CreatePage opens a fresh tab programmatically, applies the configured
// viewport, and records it as accessed. url may be empty for a blank tab.
func (m *Manager) CreatePage(ctx context.Context, url string) (*rod.Page, error) {
	browser, err := m.rodBrowser()
	if err != nil {
		return nil, err
	}

	target := url
	if target == "" {
		target = "about:blank"
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	page = page.Context(ctx)
	m.applyViewport(page)

	if url != "" {
		if err := page.Timeout(m.cfg.GetNavigationTimeout()).WaitLoad(); err != nil {
			log.Printf("warning: new tab load wait: %v", err)
		}
	}

	m.tracker.RecordAccess(string(page.TargetID))
	return page, nil
}

func (m *Manager) applyViewport(page *rod.Page) {
	err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.GetViewportWidth(),
		Height:            m.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page)
	if err != nil {
		log.Printf("warning: failed to set viewport: %v", err)
	}
}

// OpenTab opens a new tab, preferring the keyboard-shortcut path through the
// active page (closer to what a human operator does, and preserves the page's
// opener chain). Falls back to programmatic target creation when the shortcut
// does not yield a new distinguishable target within a short wait.
//
// Returns the new page and the method that produced it.
func (m *Manager) OpenTab(ctx context.Context, url string) (*rod.Page, string, error) {
	before, _, err := m.snapshotTabs()
	if err != nil {
		return nil, "", err
	}
	known := make(map[string]bool, len(before))
	for _, s := range before {
		known[s.TargetID] = true
	}

	if active, err := m.ActivePage(ctx); err == nil {
		if page := m.openTabViaShortcut(ctx, active, known); page != nil {
			m.applyViewport(page)
			if url != "" {
				if err := m.NavigateTo(page, url); err != nil {
					return nil, "", err
				}
			}
			m.tracker.RecordAccess(string(page.TargetID))
			return page, "keyboard shortcut", nil
		}
	}

	page, err := m.CreatePage(ctx, url)
	if err != nil {
		return nil, "", err
	}
	return page, "programmatic", nil
}

func (m *Manager) openTabViaShortcut(ctx context.Context, active *rod.Page, known map[string]bool) *rod.Page {
	if err := active.KeyActions().Press(input.ControlLeft).Type(input.KeyT).Do(); err != nil {
		log.Printf("new-tab shortcut failed: %v", err)
		return nil
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil
		}
		_, pages, err := m.snapshotTabs()
		if err != nil {
			return nil
		}
		for _, page := range pages {
			if !known[string(page.TargetID)] {
				return page.Context(ctx)
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

// NavigateTo drives a page to url with a bounded load wait.
func (m *Manager) NavigateTo(page *rod.Page, url string) error {
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.Timeout(m.cfg.GetNavigationTimeout()).WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s to load: %w", url, err)
	}
	return nil
}

// MatchTab returns the first tab whose title or URL contains needle,
// case-insensitively. First match in enumeration order wins.
func MatchTab(tabs []TabInfo, needle string) (int, bool) {
	lowered := strings.ToLower(needle)
	for i, tab := range tabs {
		if strings.Contains(strings.ToLower(tab.Title), lowered) ||
			strings.Contains(strings.ToLower(tab.URL), lowered) {
			return i, true
		}
	}
	return 0, false
}

// WaitElement waits for selector to exist, bounded by the action timeout.
func (m *Manager) WaitElement(page *rod.Page, selector string) (*rod.Element, error) {
	el, err := page.Timeout(m.cfg.GetActionTimeout()).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element not found: %s", selector)
	}
	return el, nil
}

// NavigationTimeout exposes the configured navigation bound to executors.
func (m *Manager) NavigationTimeout() time.Duration {
	return m.cfg.GetNavigationTimeout()
}

// ActionTimeout exposes the configured element-wait bound to executors.
func (m *Manager) ActionTimeout() time.Duration {
	return m.cfg.GetActionTimeout()
}
