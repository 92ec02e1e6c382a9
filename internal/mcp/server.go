// Package mcp exposes the control socket as Model Context Protocol tools so
// an assistant can drive a running daemon.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/ipc"
)

const (
	ServerName    = "parallaxd"
	ServerVersion = "0.1.0"
)

// Controller is the subset of ipc.Client the tools use.
type Controller interface {
	GetStatus() (*engine.Status, error)
	Workspace(p ipc.WorkspacePayload) error
	Cursor(x, y float64) error
	Set(key, value string) (string, error)
	Get(key string) (string, error)
	AddLayer(p ipc.LayerAddPayload) (*engine.LayerStatus, error)
	RemoveLayer(id uint32) error
	ModifyLayer(id uint32, property, value string) (*engine.LayerStatus, error)
	ListLayers() ([]engine.LayerStatus, error)
	ClearLayers() (int, error)
	Reload() error
	Pause() error
	Resume() error
	TogglePause() (bool, error)
}

var _ Controller = (*ipc.Client)(nil)

// Server is the MCP server for parallaxd control.
type Server struct {
	mcpServer *mcpsdk.Server
	ctl       Controller
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards tool calls to ctl.
func NewServer(ctl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		ctl:    ctl,
		logger: logger.With("component", "mcp"),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "parallax_status",
		Description: "Report the daemon state: compositor, workspace model, parallax mode, pause flag, per-monitor workspace and offset, and layer offsets.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "parallax_workspace",
		Description: "Inject a workspace change as if the compositor reported it. The change is debounced like compositor events and animates the background to the new workspace position.",
	}, s.handleWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "parallax_cursor",
		Description: "Inject a pointer position in global pixels. Only moves the parallax when the mode is cursor or hybrid.",
	}, s.handleCursor)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "parallax_set",
		Description: "Read or change a runtime setting. Pass only key to read; pass key and value to change it. Changes are not written to the config file.",
	}, s.handleSet)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "parallax_layers",
		Description: "Manage background layers. action=list returns every layer; add needs path; remove needs id; modify needs id, property and value; clear removes all layers.",
	}, s.handleLayers)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "parallax_reload",
		Description: "Reload the configuration file. Layers and settings changed at runtime are replaced by the file's values.",
	}, s.handleReload)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "parallax_pause",
		Description: "Pause, resume or toggle input handling. While paused, workspace and cursor input are ignored.",
	}, s.handlePause)
}
