package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for gridsync resources.
	uriScheme = "gridsync://"

	// historyLimit is how many cycles the history resource returns.
	historyLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "state",
		Name:        "state",
		Description: "Current sync state and queue counts",
		MIMEType:    "application/json",
	}, s.handleStateResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "pending",
		Name:        "pending",
		Description: "Queued changes awaiting upload, including rejected ones",
		MIMEType:    "application/json",
	}, s.handlePendingResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Results of recent sync cycles, most recent first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleStateResource returns the sync state.
func (s *Server) handleStateResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.stateOutput())
}

// handlePendingResource returns the queued records.
func (s *Server) handlePendingResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Sync.PendingChanges())
}

// handleHistoryResource returns recent cycle results.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	history, err := s.ports.Sync.History(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing sync history: %w", err)
	}
	return jsonResource(req.Params.URI, history)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
