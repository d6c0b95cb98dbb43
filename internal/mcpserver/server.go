// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes DocFlow tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/docflowapp/docflow/internal/docstore"
	"github.com/docflowapp/docflow/internal/models"
)

// Server wraps the MCP server with DocFlow tools. All tools operate on a
// single account's data; documents filed under password-protected folders
// are never exposed because MCP clients have no unlock path.
type Server struct {
	mcp    *server.MCPServer
	store  docstore.Store
	userID string
}

// New creates a new MCP server with all DocFlow tools registered, scoped
// to the given account.
func New(store docstore.Store, userID string) *Server {
	s := &Server{store: store, userID: userID}

	s.mcp = server.NewMCPServer(
		"DocFlow",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the account's documents. Documents inside password-protected folders are excluded."),
		mcp.WithString("folder", mcp.Description("Optional folder id to list (empty for all)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Search documents by name or owner, optionally narrowed to a category. "+
			"Valid categories are listed in the docflow://categories resource."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Name/owner substring to match")),
		mcp.WithString("category", mcp.Description("Optional category filter")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("list_folders",
		mcp.WithDescription("List the account's folders with their protection status."),
	), s.listFolders)

	s.mcp.AddTool(mcp.NewTool("document_stats",
		mcp.WithDescription("Summarize the account's documents: totals, uploads in the last 7 days, storage used."),
	), s.documentStats)

	s.mcp.AddTool(mcp.NewTool("create_ticket",
		mcp.WithDescription("File a support ticket on behalf of the account."),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Short ticket subject")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Full problem description")),
	), s.createTicket)

	// Resource: the fixed category list.
	s.mcp.AddResource(
		mcp.NewResource("docflow://categories", "Document Categories",
			mcp.WithResourceDescription("The fixed set of document categories."),
			mcp.WithMIMEType("text/plain"),
		),
		s.readCategoriesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// protectedFolders returns the ids of the account's protected folders.
func (s *Server) protectedFolders() (map[string]bool, error) {
	folders, err := s.store.FoldersByUser(s.userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool)
	for _, f := range folders {
		if f.IsProtected {
			out[f.ID] = true
		}
	}
	return out, nil
}

// visible filters out documents filed under protected folders.
func visible(docs []models.Document, protected map[string]bool) []models.Document {
	var out []models.Document
	for _, d := range docs {
		if d.FolderID != nil && protected[*d.FolderID] {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	protected, err := s.protectedFolders()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if folder != "" && protected[folder] {
		return mcp.NewToolResultError(fmt.Sprintf("folder is password protected: %s", folder)), nil
	}

	docs, err := s.store.DocumentsByUser(s.userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docs = visible(docs, protected)
	if folder != "" {
		var in []models.Document
		for _, d := range docs {
			if d.FolderID != nil && *d.FolderID == folder {
				in = append(in, d)
			}
		}
		docs = in
	}

	out, _ := json.MarshalIndent(docs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category := ""
	if c, err := req.RequireString("category"); err == nil {
		category = c
	}
	if category != "" && !models.ValidCategory(category) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category: %s", category)), nil
	}

	docs, err := s.store.SearchDocuments(s.userID, category)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	protected, err := s.protectedFolders()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q := strings.ToLower(query)
	var hits []models.Document
	for _, d := range visible(docs, protected) {
		if strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Owner), q) {
			hits = append(hits, d)
		}
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listFolders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folders, err := s.store.FoldersByUser(s.userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, f := range folders {
		line := fmt.Sprintf("%s\t%s", f.ID, f.Name)
		if f.IsProtected {
			line += "\t(protected)"
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no folders"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) documentStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.store.DocumentsByUser(s.userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var storage int64
	recent := 0
	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	for _, d := range docs {
		storage += d.FileSize
		if d.CreatedAt.After(weekAgo) {
			recent++
		}
	}
	out, _ := json.MarshalIndent(map[string]any{
		"totalDocuments": len(docs),
		"recentUploads":  recent,
		"storageUsed":    storage,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createTicket(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject, err := req.RequireString("subject")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.store.CreateTicket(models.HelpTicket{
		UserID:      s.userID,
		Subject:     subject,
		Description: description,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created ticket: %s", t.ID)), nil
}

func (s *Server) readCategoriesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "docflow://categories",
			MIMEType: "text/plain",
			Text:     strings.Join(models.Categories, "\n"),
		},
	}, nil
}
