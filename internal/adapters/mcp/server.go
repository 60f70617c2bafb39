package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
)

// Server exposes the search engine as an MCP tool so conversational agents
// can call it over stdio. Logging in this process goes to stderr; stdout
// belongs to the protocol.
type Server struct {
	search ports.CandidateSearchService
	mcp    *server.MCPServer
}

func NewServer(search ports.CandidateSearchService, version string) *Server {
	s := &Server{search: search}

	s.mcp = server.NewMCPServer("recommender", version, server.WithToolCapabilities(false))
	s.mcp.AddTool(findCandidatesTool(), s.handleFindCandidates)
	return s
}

// ServeStdio blocks until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func findCandidatesTool() mcp.Tool {
	return mcp.NewTool("find_candidates",
		mcp.WithDescription("Find product candidates for one configuration component, merged across retrieval strategies and ranked by consolidated score."),
		mcp.WithString("component_type",
			mcp.Required(),
			mcp.Description("Component slot to fill, e.g. power_source, feeder, torch."),
		),
		mcp.WithString("query",
			mcp.Description("Free-text requirements, e.g. '500A pulse MIG for aluminum'."),
		),
		mcp.WithObject("compatibility_context",
			mcp.Description("Already-selected products, component type to product key."),
		),
		mcp.WithString("exact_target_name",
			mcp.Description("Exact product name the user asked for, boosts a literal match to the top."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Page size, defaults to the engine's configured limit."),
		),
		mcp.WithNumber("offset",
			mcp.Description("Pagination offset."),
		),
	)
}

func (s *Server) handleFindCandidates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	componentType, err := request.RequireString("component_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := domain.SearchRequest{
		ComponentType:   componentType,
		RawQueryText:    request.GetString("query", ""),
		ExactTargetName: request.GetString("exact_target_name", ""),
		Limit:           request.GetInt("limit", 0),
		Offset:          request.GetInt("offset", 0),
	}
	if raw, ok := request.GetArguments()["compatibility_context"].(map[string]any); ok {
		req.CompatibilityContext = make(map[string]string, len(raw))
		for key, value := range raw {
			req.CompatibilityContext[key] = fmt.Sprintf("%v", value)
		}
	}

	resp, err := s.search.Search(ctx, req)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal search response: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
