package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const resourceMIMEJSON = "application/json"

func (s *Server) registerAllResources() {
	if s == nil || s.mcpServer == nil {
		return
	}

	s.mcpServer.AddResource(
		mcp.NewResource(
			"browserpilot://about",
			"BrowserPilot About",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("High-level server info and usage notes."),
		),
		s.handleAboutResource,
	)

	s.mcpServer.AddResource(
		mcp.NewResource(
			"browserpilot://tabs",
			"Open Tabs",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("The currently open browser tabs, with the active tab flagged."),
		),
		s.handleTabsResource,
	)
}

func (s *Server) handleAboutResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload := map[string]interface{}{
		"name":        s.cfg.Server.Name,
		"version":     s.cfg.Server.Version,
		"instance_id": s.instanceID,
		"notes": []string{
			"Resources are read-only context endpoints; use tools for actions.",
			"Tools target the active tab unless they say otherwise; switch_tab changes which tab is active.",
		},
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: resourceMIMEJSON,
			Text:     string(text),
		},
	}, nil
}

func (s *Server) handleTabsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload := map[string]interface{}{
		"connected": s.manager.IsConnected(),
	}
	if s.manager.IsConnected() {
		tabs, err := s.manager.Tabs(ctx)
		if err != nil {
			return nil, err
		}
		payload["tabs"] = tabs
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: resourceMIMEJSON,
			Text:     string(text),
		},
	}, nil
}
