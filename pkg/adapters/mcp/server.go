package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/ticketflow"
	"github.com/aretw0/ticketflow/internal/dto"
	"github.com/aretw0/ticketflow/internal/logging"
	mermaid "github.com/aretw0/ticketflow/internal/presentation/graph"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/graph"
	"github.com/aretw0/ticketflow/pkg/support"
)

const (
	GraphURI        = "ticketflow://graph"
	GraphMermaidURI = "ticketflow://graph.mmd"
)

// ResolveResponse is the structured result of resolve_ticket. Aborted runs
// are reported in Error rather than as a tool failure, so the agent still
// sees the partial record.
type ResolveResponse struct {
	Run   dto.RunView        `json:"run" jsonschema_description:"The recorded run"`
	Error *dto.ErrorResponse `json:"error,omitempty" jsonschema_description:"Why the run aborted, if it did"`
}

// RunsResponse is the structured result of list_runs.
type RunsResponse struct {
	Runs []dto.RunSummary `json:"runs" jsonschema_description:"Stored runs, oldest first"`
}

// Service resolves tickets and serves stored runs.
type Service interface {
	Resolve(ctx context.Context, initial *domain.State) (*domain.RunRecord, error)
	Get(ctx context.Context, runID string) (*domain.RunRecord, error)
	List(ctx context.Context) ([]*domain.RunRecord, error)
}

// Inspector exposes the workflow structure.
type Inspector interface {
	Inspect() []graph.NodeInfo
}

// Server wraps the ticket service and exposes it as an MCP Server.
type Server struct {
	service   Service
	graph     Inspector
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(service Service, g Inspector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		service:   service,
		graph:     g,
		logger:    logger,
		mcpServer: server.NewMCPServer("ticketflow-mcp", strings.TrimSpace(ticketflow.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: resolve_ticket
	resolveTool := mcp.NewTool("resolve_ticket",
		mcp.WithDescription("Run a support ticket through every workflow stage and record the outcome."),
		mcp.WithString("customer_name", mcp.Required(), mcp.Description("Customer's name")),
		mcp.WithString("email", mcp.Required(), mcp.Description("Customer's email address")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text description of the problem")),
		mcp.WithString("ticket_id", mcp.Required(), mcp.Description("Ticket identifier")),
		mcp.WithString("priority", mcp.Description("Ticket priority (optional)")),
		mcp.WithOutputSchema[ResolveResponse](),
	)
	s.mcpServer.AddTool(resolveTool, mcp.NewStructuredToolHandler(s.handleResolve))

	// TOOL: get_run
	getRunTool := mcp.NewTool("get_run",
		mcp.WithDescription("Fetch a recorded run by ID."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID returned by resolve_ticket")),
		mcp.WithOutputSchema[dto.RunView](),
	)
	s.mcpServer.AddTool(getRunTool, mcp.NewStructuredToolHandler(s.handleGetRun))

	// TOOL: list_runs
	listTool := mcp.NewTool("list_runs",
		mcp.WithDescription("List recorded runs."),
		mcp.WithOutputSchema[RunsResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListRuns))

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the workflow graph for introspection."),
		mcp.WithString("format", mcp.Description("'json' (default) or 'mermaid'")),
	), s.handleGetGraph)
}

// Handler methods for structured tools

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ResolveResponse, error) {
	ticket, err := support.DecodeTicket(args)
	if err != nil {
		return ResolveResponse{}, fmt.Errorf("invalid ticket: %w", err)
	}
	initial, err := ticket.State()
	if err != nil {
		return ResolveResponse{}, fmt.Errorf("invalid ticket: %w", err)
	}

	rec, err := s.service.Resolve(ctx, initial)
	if rec == nil {
		return ResolveResponse{}, fmt.Errorf("resolve failed: %w", err)
	}

	resp := ResolveResponse{Run: dto.View(rec)}
	if err != nil {
		if !errors.Is(err, domain.ErrExecutionAborted) {
			return ResolveResponse{}, fmt.Errorf("resolve failed: %w", err)
		}
		s.logger.Warn("MCP Resolve: run aborted", "run_id", rec.ID, "stage", rec.FailedStage, "err", err)
		e := dto.NewErrorResponse(err)
		resp.Error = &e
	}
	return resp, nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (dto.RunView, error) {
	runID, _ := args["run_id"].(string)
	if runID == "" {
		return dto.RunView{}, errors.New("run_id is required")
	}
	rec, err := s.service.Get(ctx, runID)
	if err != nil {
		return dto.RunView{}, err
	}
	return dto.View(rec), nil
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunsResponse, error) {
	recs, err := s.service.List(ctx)
	if err != nil {
		return RunsResponse{}, err
	}
	out := RunsResponse{Runs: make([]dto.RunSummary, 0, len(recs))}
	for _, rec := range recs {
		out.Runs = append(out.Runs, dto.Summarize(rec))
	}
	return out, nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("format", "json") == "mermaid" {
		return mcp.NewToolResultText(mermaid.GenerateMermaid(s.graph.Inspect(), nil)), nil
	}
	jsonBytes, err := json.Marshal(s.graph.Inspect())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: ticketflow://graph
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Workflow Graph",
		mcp.WithMIMEType("application/json"),
	), s.readGraph)

	// EXPOSE: ticketflow://graph.mmd
	s.mcpServer.AddResource(mcp.NewResource(GraphMermaidURI, "Workflow Graph (Mermaid)",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), s.readGraphMermaid)
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.graph.Inspect())
	if err != nil {
		return nil, fmt.Errorf("failed to inspect graph: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (s *Server) readGraphMermaid(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphMermaidURI,
			MIMEType: "text/vnd.mermaid",
			Text:     mermaid.GenerateMermaid(s.graph.Inspect(), nil),
		},
	}, nil
}
