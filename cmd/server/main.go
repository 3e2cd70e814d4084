package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"browserpilot-mcp-server/internal/browser"
	"browserpilot-mcp-server/internal/config"
	mcpserver "browserpilot-mcp-server/internal/mcp"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the BrowserPilot MCP config file")
	httpPort := flag.Int("http-port", 0, "Optional HTTP port override (falls back to config)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Before we can redirect logs, write to stderr as last resort
		log.Fatalf("failed to load config: %v", err)
	}
	if *httpPort != 0 {
		cfg.MCP.HTTPPort = *httpPort
	}

	// Redirect logging to file for stdio mode (stderr interferes with MCP protocol)
	if cfg.MCP.HTTPPort == 0 && cfg.Server.LogFile != "" {
		logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(logFile)
			defer logFile.Close()
		} else {
			// If we can't open log file, disable logging to avoid stderr pollution
			log.SetOutput(io.Discard)
		}
	}

	manager := browser.NewManager(cfg.Browser)
	if cfg.Browser.AutoStart {
		if err := manager.Start(ctx); err != nil {
			log.Fatalf("failed to start browser: %v", err)
		}
	} else {
		log.Printf("browser auto-start disabled; the first tool call will launch/attach")
	}
	defer func() {
		if err := manager.Shutdown(context.Background()); err != nil {
			log.Printf("browser shutdown: %v", err)
		}
	}()

	server, err := mcpserver.NewServer(cfg, manager)
	if err != nil {
		log.Fatalf("failed to initialize MCP server: %v", err)
	}

	var startErr error
	if cfg.MCP.HTTPPort > 0 {
		log.Printf("starting BrowserPilot MCP HTTP server on %s:%d", cfg.MCP.HTTPHost, cfg.MCP.HTTPPort)
		startErr = server.StartHTTP(ctx, cfg.MCP.HTTPHost, cfg.MCP.HTTPPort)
	} else {
		log.Printf("starting BrowserPilot MCP stdio server")
		startErr = server.Start(ctx)
	}

	if startErr != nil && !errors.Is(startErr, context.Canceled) {
		log.Fatalf("server exited with error: %v", startErr)
	}
}
