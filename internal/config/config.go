package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTabHistoryLimit bounds the active-tab recency list.
	DefaultTabHistoryLimit = 10
	// DefaultNavigationTimeout bounds page loads and history traversal steps.
	DefaultNavigationTimeout = 15 * time.Second
	// DefaultActionTimeout bounds element waits for fill/select/hover/click.
	DefaultActionTimeout = 5 * time.Second
)

// Config captures all tunable settings for the BrowserPilot MCP server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Browser BrowserConfig `yaml:"browser"`
	MCP     MCPConfig     `yaml:"mcp"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	LogFile string `yaml:"log_file"`
}

// BrowserConfig configures how we attach to or launch Chrome for Rod.
type BrowserConfig struct {
	// Control endpoint for Rod (e.g., ws://localhost:9222). Required when launch is empty.
	DebuggerURL string `yaml:"debugger_url"`
	// Optional launch command to start Chrome (e.g., ["chrome", "--remote-debugging-port=9222"]).
	Launch []string `yaml:"launch"`
	// AutoStart controls whether the server launches/attaches to Chrome at startup.
	// When false the browser is brought up lazily on the first tool call that needs it.
	AutoStart bool `yaml:"auto_start"`
	// Headless controls whether Chrome runs in headless mode (default: true).
	Headless *bool `yaml:"headless"`
	// Bound for page loads and per-step history traversal (e.g., "15s").
	NavigationTimeout string `yaml:"navigation_timeout"`
	// Bound for element waits before fill/select/hover/click (e.g., "5s").
	ActionTimeout string `yaml:"action_timeout"`
	// Capacity of the active-tab recency list (default: 10).
	TabHistoryLimit int `yaml:"tab_history_limit"`
	// Viewport width for pages created by this server (default: 1920).
	ViewportWidth int `yaml:"viewport_width"`
	// Viewport height for pages created by this server (default: 1080).
	ViewportHeight int `yaml:"viewport_height"`
}

type MCPConfig struct {
	// When set, serves the streamable HTTP endpoint on this port instead of stdio-only.
	HTTPPort int `yaml:"http_port"`
	// Optional bind host for HTTP mode (default: empty, all interfaces).
	HTTPHost string `yaml:"http_host"`
}

// DefaultConfig provides reasonable defaults for local development.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:    "browserpilot-mcp",
			Version: "0.1.0",
			LogFile: "browserpilot-mcp.log",
		},
		Browser: BrowserConfig{
			AutoStart:         true,
			NavigationTimeout: "15s",
			ActionTimeout:     "5s",
			TabHistoryLimit:   DefaultTabHistoryLimit,
			ViewportWidth:     1920,
			ViewportHeight:    1080,
		},
		MCP: MCPConfig{
			HTTPPort: 0,
		},
	}
}

// Load reads YAML config from disk and overlays defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if _, err := time.ParseDuration(orDefault(c.Browser.NavigationTimeout, "15s")); err != nil {
		return fmt.Errorf("browser.navigation_timeout: %w", err)
	}
	if _, err := time.ParseDuration(orDefault(c.Browser.ActionTimeout, "5s")); err != nil {
		return fmt.Errorf("browser.action_timeout: %w", err)
	}
	if c.Browser.TabHistoryLimit < 0 {
		return errors.New("browser.tab_history_limit must be >= 0")
	}
	if c.MCP.HTTPPort < 0 || c.MCP.HTTPPort > 65535 {
		return fmt.Errorf("mcp.http_port out of range: %d", c.MCP.HTTPPort)
	}
	return nil
}

// IsHeadless reports whether Chrome should run headless (default true).
func (b BrowserConfig) IsHeadless() bool {
	if b.Headless == nil {
		return true
	}
	return *b.Headless
}

// GetNavigationTimeout parses the navigation timeout, falling back to the default.
func (b BrowserConfig) GetNavigationTimeout() time.Duration {
	return parseDuration(b.NavigationTimeout, DefaultNavigationTimeout)
}

// GetActionTimeout parses the action timeout, falling back to the default.
func (b BrowserConfig) GetActionTimeout() time.Duration {
	return parseDuration(b.ActionTimeout, DefaultActionTimeout)
}

// GetTabHistoryLimit returns the recency-list capacity, falling back to the default.
func (b BrowserConfig) GetTabHistoryLimit() int {
	if b.TabHistoryLimit <= 0 {
		return DefaultTabHistoryLimit
	}
	return b.TabHistoryLimit
}

// GetViewportWidth returns the viewport width, falling back to 1920.
func (b BrowserConfig) GetViewportWidth() int {
	if b.ViewportWidth <= 0 {
		return 1920
	}
	return b.ViewportWidth
}

// GetViewportHeight returns the viewport height, falling back to 1080.
func (b BrowserConfig) GetViewportHeight() int {
	if b.ViewportHeight <= 0 {
		return 1080
	}
	return b.ViewportHeight
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func orDefault(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	return raw
}
