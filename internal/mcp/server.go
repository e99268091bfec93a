// Package mcp exposes the storefront assistant as Model Context Protocol
// tools over stdio, so an operator's AI client can chat as a customer and
// look up inquiries.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/bloomcart/bloomcart/internal/assistant"
	ctxpkg "github.com/bloomcart/bloomcart/internal/context"
	"github.com/bloomcart/bloomcart/internal/conversation"
	"github.com/bloomcart/bloomcart/internal/inquiry"
)

// Chatter runs chat turns.
type Chatter interface {
	Chat(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error)
}

// ContextBuilder renders storefront context.
type ContextBuilder interface {
	Build(ctx context.Context, userID string) (*ctxpkg.RagContext, error)
}

// History reads a user's conversation.
type History interface {
	GetHistory(ctx context.Context, userID string, limit int) ([]conversation.Message, error)
}

// Inquiries reads inquiry records.
type Inquiries interface {
	GetByReferenceID(ctx context.Context, ref string) (*inquiry.Inquiry, error)
	ListByUser(ctx context.Context, userID string, page inquiry.Page) ([]inquiry.Inquiry, error)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Assistant Chatter
	Builder   ContextBuilder
	History   History
	Inquiries Inquiries
	Logger    zerolog.Logger
}

// Server wraps an MCP server with the storefront tools registered.
type Server struct {
	d   Deps
	log zerolog.Logger
	mcp *server.MCPServer
}

// NewServer creates a Server named with version.
func NewServer(d Deps, version string) *Server {
	s := &Server{
		d:   d,
		log: d.Logger.With().Str("component", "mcp").Logger(),
		mcp: server.NewMCPServer("bloomcart", version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving requests on stdin and stdout.
func (s *Server) ServeStdio() error {
	s.log.Info().Msg("MCP server listening on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("chat",
		mcp.WithDescription("Send one customer message to the storefront assistant and return its reply. Inquiries and summaries the assistant triggers are real."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Customer session id")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Customer message")),
	), s.handleChat)

	s.mcp.AddTool(mcp.NewTool("get_context",
		mcp.WithDescription("Show the catalog, services and FAQ lines the assistant sees for a customer."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Customer session id")),
	), s.handleGetContext)

	s.mcp.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Return a customer's recent conversation, oldest first."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Customer session id")),
		mcp.WithNumber("limit", mcp.Description("Maximum messages to return (default 50)")),
	), s.handleGetHistory)

	s.mcp.AddTool(mcp.NewTool("lookup_inquiry",
		mcp.WithDescription("Look up an inquiry by its customer-facing reference id, e.g. INQ-20250101-AB12CD."),
		mcp.WithString("reference_id", mcp.Required(), mcp.Description("Inquiry reference id")),
	), s.handleLookupInquiry)

	s.mcp.AddTool(mcp.NewTool("list_user_inquiries",
		mcp.WithDescription("List a customer's inquiries, newest first."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Customer session id")),
		mcp.WithNumber("limit", mcp.Description("Maximum inquiries to return (default 20)")),
	), s.handleListUserInquiries)
}
