package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"browserpilot-mcp-server/internal/browser"
	"browserpilot-mcp-server/internal/config"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Server wires the MCP runtime and the Rod browser manager.
type Server struct {
	cfg        config.Config
	manager    *browser.Manager
	tools      map[string]Tool
	mcpServer  *mcpserver.MCPServer
	instanceID string
	startedAt  time.Time
}

// Tool describes the contract for MCP tool implementations.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// NewServer constructs the BrowserPilot MCP server and registers all tools.
func NewServer(cfg config.Config, manager *browser.Manager) (*Server, error) {
	mcpSrv := mcpserver.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
		mcpserver.WithRecovery(),
	)

	server := &Server{
		cfg:        cfg,
		manager:    manager,
		tools:      make(map[string]Tool),
		mcpServer:  mcpSrv,
		instanceID: uuid.NewString(),
		startedAt:  time.Now(),
	}

	server.registerAllTools()
	server.registerAllResources()
	return server, nil
}

// Start launches the stdio server.
func (s *Server) Start(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// StartHTTP hosts the JSON-RPC endpoint over HTTP with graceful shutdown.
// The protocol envelope lives at /mcp; /health and / answer simple status
// probes. Every response carries permissive cross-origin headers.
func (s *Server) StartHTTP(ctx context.Context, host string, port int) error {
	streamable := mcpserver.NewStreamableHTTPServer(
		s.mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithStateLess(true),
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	httpServer := &http.Server{
		Addr:    host + ":" + strconv.Itoa(port),
		Handler: withCORS(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Printf("HTTP server shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// withCORS adds permissive cross-origin headers and answers preflights.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Mcp-Session-Id, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) statusPayload(ctx context.Context) map[string]interface{} {
	browserStatus := map[string]interface{}{
		"connected": s.manager.IsConnected(),
	}
	if s.manager.IsConnected() {
		browserStatus["control_url"] = s.manager.ControlURL()
		if tabs, err := s.manager.Tabs(ctx); err == nil {
			browserStatus["tabs"] = len(tabs)
		}
	}
	return map[string]interface{}{
		"name":        s.cfg.Server.Name,
		"version":     s.cfg.Server.Version,
		"instance_id": s.instanceID,
		"status":      "ok",
		"uptime_s":    int(time.Since(s.startedAt).Seconds()),
		"browser":     browserStatus,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.statusPayload(r.Context()))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	payload := s.statusPayload(r.Context())
	payload["endpoints"] = map[string]string{
		"mcp":    "/mcp",
		"health": "/health",
	}
	writeJSON(w, payload)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write status response: %v", err)
	}
}

// ExecuteTool executes a tool directly (used by tests).
func (s *Server) ExecuteTool(name string, args map[string]interface{}) (interface{}, error) {
	tool, exists := s.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool.Execute(context.Background(), args)
}

func (s *Server) registerAllTools() {
	// Navigation and tab management
	s.registerTool(&NavigateTool{manager: s.manager})
	s.registerTool(&OpenNewTabTool{manager: s.manager})
	s.registerTool(&ReloadPageTool{manager: s.manager})
	s.registerTool(&GoBackTool{manager: s.manager})
	s.registerTool(&GoForwardTool{manager: s.manager})
	s.registerTool(&SwitchTabTool{manager: s.manager})

	// Content extraction
	s.registerTool(&GetPageContentTool{manager: s.manager})
	s.registerTool(&GetHTMLTool{manager: s.manager})

	// Interaction
	s.registerTool(&FillTool{manager: s.manager})
	s.registerTool(&SelectOptionTool{manager: s.manager})
	s.registerTool(&HoverTool{manager: s.manager})
	s.registerTool(&ClickTool{manager: s.manager})

	// Heuristic search
	s.registerTool(&SearchTool{manager: s.manager})
}

func (s *Server) registerTool(tool Tool) {
	s.tools[tool.Name()] = tool

	schema, err := json.Marshal(tool.InputSchema())
	if err != nil {
		schema = json.RawMessage(`{"type":"object"}`)
	}

	mcpTool := mcp.NewToolWithRawSchema(tool.Name(), tool.Description(), schema)
	s.mcpServer.AddTool(mcpTool, s.wrapTool(tool))
}

func (s *Server) wrapTool(tool Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}

		result, err := tool.Execute(ctx, args)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("tool %s failed: %v", tool.Name(), err))},
				IsError: true,
			}, nil
		}

		// Executors report operational failures as payloads rather than Go
		// errors, so every outcome reaches the caller as a well-formed result.
		isError := false
		if payload, ok := result.(map[string]interface{}); ok {
			if success, ok := payload["success"].(bool); ok && !success {
				isError = true
			}
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(marshalToolPayload(tool.Name(), result)))},
			IsError: isError,
		}, nil
	}
}

func marshalToolPayload(toolName string, result interface{}) []byte {
	payload, marshalErr := json.Marshal(result)
	if marshalErr == nil {
		return payload
	}

	fallback := map[string]interface{}{
		"success": false,
		"error":   fmt.Sprintf("tool %s returned non-serializable payload: %v", toolName, marshalErr),
	}
	payload, fallbackErr := json.Marshal(fallback)
	if fallbackErr == nil {
		return payload
	}

	return []byte(fmt.Sprintf(`{"success":false,"error":"tool %s failed to encode payload"}`, toolName))
}
