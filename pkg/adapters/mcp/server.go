package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/weft/internal/presentation/graph"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	graphURI  = "weft://graph"
	statusURI = "weft://status"
)

// StatusSource publishes the latest graph status. Safe for concurrent use.
type StatusSource interface {
	Status() *domain.GraphStatus
}

// NodeList is the structured result of list_nodes.
type NodeList struct {
	Nodes []domain.NodeStatus `json:"nodes" jsonschema_description:"Node handlers in guid order"`
}

// Server exposes graph introspection as an MCP server.
type Server struct {
	source    StatusSource
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(source StatusSource, version string) *Server {
	s := &Server{
		source: source,
		mcpServer: server.NewMCPServer("weft-mcp", strings.TrimSpace(version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Get the full status of the live graph: nodes, signals, units and entry."),
		mcp.WithOutputSchema[domain.GraphStatus](),
	), mcp.NewStructuredToolHandler(s.handleGetStatus))

	s.mcpServer.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List node handlers and whether they are valid."),
		mcp.WithBoolean("invalid_only", mcp.Description("Only list nodes that are currently invalid")),
		mcp.WithOutputSchema[NodeList](),
	), mcp.NewStructuredToolHandler(s.handleListNodes))

	s.mcpServer.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Get the status of one node by guid."),
		mcp.WithString("guid", mcp.Required(), mcp.Description("Node guid")),
		mcp.WithOutputSchema[domain.NodeStatus](),
	), mcp.NewStructuredToolHandler(s.handleGetNode))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the live graph as a Mermaid flowchart."),
	), s.handleGetGraph)
}

func (s *Server) status() (*domain.GraphStatus, error) {
	st := s.source.Status()
	if st == nil {
		return nil, fmt.Errorf("runtime not started")
	}
	return st, nil
}

func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.GraphStatus, error) {
	st, err := s.status()
	if err != nil {
		return domain.GraphStatus{}, err
	}
	return *st, nil
}

func (s *Server) handleListNodes(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (NodeList, error) {
	st, err := s.status()
	if err != nil {
		return NodeList{}, err
	}
	invalidOnly, _ := args["invalid_only"].(bool)

	out := NodeList{Nodes: []domain.NodeStatus{}}
	for _, n := range st.Nodes {
		if invalidOnly && n.Valid {
			continue
		}
		out.Nodes = append(out.Nodes, n)
	}
	return out, nil
}

func (s *Server) handleGetNode(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.NodeStatus, error) {
	guid, _ := args["guid"].(string)
	if guid == "" {
		return domain.NodeStatus{}, fmt.Errorf("guid is required")
	}
	st, err := s.status()
	if err != nil {
		return domain.NodeStatus{}, err
	}
	n, ok := st.NodeByGUID(guid)
	if !ok {
		return domain.NodeStatus{}, fmt.Errorf("node %q not found", guid)
	}
	return n, nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.status()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(st)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Live Graph",
		mcp.WithResourceDescription("Mermaid flowchart of the live graph"),
		mcp.WithMIMEType("text/vnd.mermaid"),
	), s.readGraph)

	s.mcpServer.AddResource(mcp.NewResource(statusURI, "Graph Status",
		mcp.WithMIMEType("application/json"),
	), s.readStatus)
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := s.status()
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      graphURI,
			MIMEType: "text/vnd.mermaid",
			Text:     graph.GenerateMermaid(st),
		},
	}, nil
}

func (s *Server) readStatus(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := s.status()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      statusURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
