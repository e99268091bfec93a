package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bloomcart/bloomcart/internal/assistant"
	"github.com/bloomcart/bloomcart/internal/inquiry"
)

const defaultHistoryLimit = 50

func (s *Server) handleChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	message, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	resp, err := s.d.Assistant.Chat(ctx, assistant.ChatRequest{UserID: userID, Message: message})
	if err != nil {
		s.log.Error().Err(err).Str("userId", userID).Msg("chat tool failed")
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(resp.Message)
	if resp.InquiryCreated {
		fmt.Fprintf(&sb, "\n\n[inquiry created: %s]", resp.ReferenceID)
	}
	if resp.WhatsAppSent != nil {
		fmt.Fprintf(&sb, "\n[whatsapp sent: %t]", *resp.WhatsAppSent)
	}
	if resp.EmailSent != nil {
		fmt.Fprintf(&sb, "\n[email sent: %t]", *resp.EmailSent)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleGetContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	rc, err := s.d.Builder.Build(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build context: %v", err)), nil
	}
	if rc.Empty() {
		return mcp.NewToolResultText("No published catalog items, services or FAQs."), nil
	}

	var sb strings.Builder
	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(&sb, "## %s\n", title)
		for _, l := range lines {
			fmt.Fprintf(&sb, "- %s\n", l)
		}
		sb.WriteString("\n")
	}
	section("Catalog", rc.CatalogLines)
	section("Services", rc.ServiceLines)
	section("FAQ", rc.FAQLines)
	return mcp.NewToolResultText(strings.TrimSpace(sb.String())), nil
}

func (s *Server) handleGetHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	msgs, err := s.d.History.GetHistory(ctx, userID, req.GetInt("limit", defaultHistoryLimit))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load history: %v", err)), nil
	}
	if len(msgs) == 0 {
		return mcp.NewToolResultText("No messages yet."), nil
	}

	var sb strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.CreatedAt.Format("2006-01-02 15:04"), m.Role, m.Content)
	}
	return mcp.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}

func (s *Server) handleLookupInquiry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("reference_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: reference_id"), nil
	}
	inq, err := s.d.Inquiries.GetByReferenceID(ctx, strings.TrimSpace(ref))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if inq == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no inquiry with reference %s", ref)), nil
	}
	return jsonResult(inq)
}

func (s *Server) handleListUserInquiries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	list, err := s.d.Inquiries.ListByUser(ctx, userID, inquiry.Page{Limit: req.GetInt("limit", inquiry.DefaultPageLimit)})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list inquiries: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No inquiries for this customer."), nil
	}

	var sb strings.Builder
	for _, inq := range list {
		fmt.Fprintf(&sb, "%s  %-6s  %s  %s\n",
			inq.ReferenceID, inq.Status, inq.CreatedAt.Format("2006-01-02"), inq.Contact.Name)
	}
	return mcp.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
