// Package mcpadapter exposes the knowledge base to MCP-capable agent
// hosts over stdio. Tools mirror the HTTP retrieval endpoints.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wealthdesk/knowledge-service/internal/core/ports"
)

type Server struct {
	mcpServer *server.MCPServer
	retriever ports.KnowledgeRetriever
}

func NewServer(retriever ports.KnowledgeRetriever, version string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer("knowledge-service", version),
		retriever: retriever,
	}

	s.mcpServer.AddTool(
		mcp.NewTool("search_knowledge_base",
			mcp.WithDescription("Search the knowledge base and return matching documents with similarity scores."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Natural-language query to search for."),
			),
		),
		s.handleSearch,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_knowledge_context",
			mcp.WithDescription("Retrieve matching documents combined into a single labeled context block with source references."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Natural-language query to build context for."),
			),
		),
		s.handleCombine,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("generate_knowledge_answer",
			mcp.WithDescription("Retrieve matching documents and return the combined content with a short summary."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Natural-language query to answer from the knowledge base."),
			),
		),
		s.handleGenerate,
	)

	return s
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	docs := s.retriever.Retrieve(ctx, query)
	payload, err := json.Marshal(map[string]any{
		"documents":       docs,
		"total_documents": len(docs),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleCombine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := s.retriever.RetrieveAndCombine(ctx, query)
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal combined result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := s.retriever.RetrieveAndGenerate(ctx, query)
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal generated result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
