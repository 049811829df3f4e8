package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMergeMCPServer creates an MCP server with the merge tools registered.
func NewMergeMCPServer(svc *MergeService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "reconcile-merge",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_changes",
		Description: "Diff two versions of a source file into classified semantic changes: added, removed, and modified declarations, with React hook and JSX refinements for function bodies.",
	}, svc.CompareChanges)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_conflicts",
		Description: "Reconcile concurrent task versions of a file against a shared baseline. Auto-merges compatible changes, escalates the rest, and returns the merged content with a resolution report.",
	}, svc.ResolveConflicts)

	return server
}

// RunMCPServer starts an HTTP server exposing the merge MCP tools.
func RunMCPServer(ctx context.Context, svc *MergeService, addr string) error {
	server := NewMergeMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
