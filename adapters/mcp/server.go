// Package mcp exposes widget estimates as Model Context Protocol tools.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"widget-estimate/adapters/widgets"
	"widget-estimate/core/engine"
	"widget-estimate/core/output"
	"widget-estimate/core/pricing"
)

// Server represents the MCP server for widget estimates
type Server struct {
	server    *mcp.Server
	widgets   widgets.Provider
	estimator *engine.Estimator
	markdown  output.Formatter
}

// ServerOptions contains options for the MCP server
type ServerOptions struct {
	Widgets   widgets.Provider
	Estimator *engine.Estimator
}

// NewServer creates a new MCP server
func NewServer(opts *ServerOptions) (*Server, error) {
	if opts == nil || opts.Widgets == nil {
		return nil, fmt.Errorf("widget provider is required")
	}
	estimator := opts.Estimator
	if estimator == nil {
		estimator = engine.NewEstimator(opts.Widgets)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "widget-estimate",
		Version: pricing.Version,
	}, nil)

	s := &Server{
		server:    server,
		widgets:   opts.Widgets,
		estimator: estimator,
		markdown:  output.NewMarkdownFormatter(),
	}

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying SDK server, used to attach other transports
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.registerListWidgetsTool()
	s.registerGetWidgetConfigTool()
	s.registerComputeEstimateTool()
}

func text(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

// list_widgets tool
type listWidgetsArgs struct{}

func (s *Server) registerListWidgetsTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_widgets",
		Description: "List the published estimate widgets",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listWidgetsArgs) (*mcp.CallToolResult, any, error) {
		list, err := s.widgets.List(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list widgets: %w", err)
		}
		if len(list) == 0 {
			return text("No widgets found."), nil, nil
		}

		var b strings.Builder
		b.WriteString("Widgets:\n")
		for _, w := range list {
			name := w.Name
			if name == "" {
				name = w.Key
			}
			fmt.Fprintf(&b, "- %s: %s (%d steps)\n", w.Key, name, w.Steps)
		}
		return text(b.String()), nil, nil
	})
}

// get_widget_config tool
type getWidgetConfigArgs struct {
	WidgetKey string `json:"widgetKey" jsonschema:"required,the public widget key"`
}

func (s *Server) registerGetWidgetConfigTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_widget_config",
		Description: "Get the steps, options and pricing rules of a widget as JSON",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getWidgetConfigArgs) (*mcp.CallToolResult, any, error) {
		cfg, err := s.widgets.Get(ctx, args.WidgetKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load widget %q: %w", args.WidgetKey, err)
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode widget: %w", err)
		}
		return text(string(data)), nil, nil
	})
}

// compute_estimate tool
type computeEstimateArgs struct {
	WidgetKey string         `json:"widgetKey" jsonschema:"required,the public widget key"`
	Responses map[string]any `json:"responses" jsonschema:"required,map of step id to the response object for that step"`
}

func (s *Server) registerComputeEstimateTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compute_estimate",
		Description: "Compute an itemized price estimate for a widget from a visitor's step responses",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args computeEstimateArgs) (*mcp.CallToolResult, any, error) {
		responses := args.Responses
		if responses == nil {
			responses = map[string]any{}
		}
		raw, err := json.Marshal(responses)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode responses: %w", err)
		}

		report, err := s.estimator.Estimate(ctx, engine.EstimateRequest{
			WidgetKey: args.WidgetKey,
			Responses: raw,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to compute estimate: %w", err)
		}

		var buf bytes.Buffer
		if err := s.markdown.Render(&buf, report); err != nil {
			return nil, nil, fmt.Errorf("failed to render estimate: %w", err)
		}
		return text(buf.String()), nil, nil
	})
}
