package mcptools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewPlanMCPServer creates an MCP server with the 4 planning tools registered:
// plan_item, list_rules, get_plan, and list_plans.
func NewPlanMCPServer(svc *PlanService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "docplan",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "plan_item",
		Description: "Build a discourse tree over an item's selected messages by applying the rule catalog. Returns the tree and an outline, or a no-plan status when the rules cannot combine every message.",
	}, svc.PlanItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List the rules of the active catalog in evaluation order with their relation, weight, bindings and guards.",
	}, svc.ListRules)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_plan",
		Description: "Fetch a stored document plan by ID.",
	}, svc.GetPlan)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_plans",
		Description: "List stored document plans in creation order.",
	}, svc.ListPlans)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, svc *PlanService) error {
	return NewPlanMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}

// shutdownTimeout bounds how long in-flight requests may finish after the
// context is cancelled.
const shutdownTimeout = 5 * time.Second

// RunMCPServer starts an HTTP server exposing the planning MCP tools. It
// returns when ctx is cancelled or the server fails; a listen error is
// returned before anything is served.
func RunMCPServer(ctx context.Context, svc *PlanService, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return ServeMCP(ctx, svc, ln)
}

// ServeMCP serves the planning MCP tools over streamable HTTP on ln until
// ctx is cancelled, then shuts down gracefully. It closes ln.
func ServeMCP(ctx context.Context, svc *PlanService, ln net.Listener) error {
	server := NewPlanMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
	httpServer := &http.Server{Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	// Serve has returned ErrServerClosed by now.
	<-errCh
	return nil
}
