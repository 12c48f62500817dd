// Package mcp exposes a leadflow engine as a Model Context Protocol server,
// so an assistant can drive conversations and inspect leads as tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/aretw0/leadflow/internal/engine"
	"github.com/aretw0/leadflow/internal/presentation/graph"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FlowResourceURI is the resource holding the Mermaid chart of the flow.
const FlowResourceURI = "leadflow://flow"

// Conversation runs one inbound message through the flow.
type Conversation interface {
	Handle(ctx context.Context, in engine.Inbound) (*engine.Response, error)
}

// LeadReader exposes stored leads.
type LeadReader interface {
	Get(ctx context.Context, channelID string) (*domain.Lead, error)
	List(ctx context.Context) ([]*domain.Lead, error)
}

// Config wires the server.
type Config struct {
	Engine  Conversation
	Leads   LeadReader
	Flow    *flow.Definition
	Version string
	Logger  *slog.Logger
}

// Server wraps the leadflow engine and exposes it as an MCP server.
type Server struct {
	cfg       Config
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		mcpServer: server.NewMCPServer("leadflow-mcp", cfg.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves JSON-RPC on in and out until ctx ends or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	err := server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send a participant message to the flow and return the bot's replies."),
		mcp.WithString("channel_id", mcp.Required(), mcp.Description("External address of the participant")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
		mcp.WithString("display_name", mcp.Description("Participant name, used when the lead is created")),
	), s.handleSendMessage)

	s.mcpServer.AddTool(mcp.NewTool("get_lead",
		mcp.WithDescription("Get the stored lead of a channel: current step, answers and history."),
		mcp.WithString("channel_id", mcp.Required(), mcp.Description("External address of the participant")),
	), s.handleGetLead)

	s.mcpServer.AddTool(mcp.NewTool("list_leads",
		mcp.WithDescription("List stored leads, optionally only those waiting on a step."),
		mcp.WithString("step", mcp.Description("Only leads whose current step is this id")),
	), s.handleListLeads)

	s.mcpServer.AddTool(mcp.NewTool("flow_graph",
		mcp.WithDescription("Render the flow as a Mermaid chart, highlighting a lead's path when channel_id is given."),
		mcp.WithString("channel_id", mcp.Description("Lead to overlay (optional)")),
	), s.handleFlowGraph)
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	channelID, err := request.RequireString("channel_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.cfg.Engine.Handle(ctx, engine.Inbound{
		ChannelID:   channelID,
		DisplayName: request.GetString("display_name", ""),
		Text:        text,
	})
	if err != nil {
		s.logger.Warn("MCP send_message failed", "channel_id", channelID, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("turn failed: %v", err)), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleGetLead(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	channelID, err := request.RequireString("channel_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lead, err := s.cfg.Leads.Get(ctx, channelID)
	if errors.Is(err, domain.ErrLeadNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("lead not found: %s", channelID)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}
	return jsonResult(lead)
}

func (s *Server) handleListLeads(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	leads, err := s.cfg.Leads.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	if step := request.GetString("step", ""); step != "" {
		leads = slices.DeleteFunc(leads, func(l *domain.Lead) bool { return l.CurrentStepID != step })
	}
	return jsonResult(leads)
}

func (s *Server) handleFlowGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var overlay *graph.GraphOverlay
	if channelID := request.GetString("channel_id", ""); channelID != "" {
		lead, err := s.cfg.Leads.Get(ctx, channelID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lead not found: %s", channelID)), nil
		}
		overlay = graph.OverlayFor(s.cfg.Flow, lead)
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(s.cfg.Flow, overlay)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(FlowResourceURI, "Flow graph",
		mcp.WithResourceDescription("Mermaid chart of the loaded flow"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      FlowResourceURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.cfg.Flow, nil),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
