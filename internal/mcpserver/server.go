// Package mcpserver exposes the dialog manager's operations to MCP clients:
// one tool per operation plus two read-only resources. It is a thin adapter:
// argument decoding and result serialization only, no storage logic.
//
// No failure ever escapes a tool boundary: every handler returns a
// well-formed JSON result, success-shaped or error-shaped.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dialogkeep/dialogkeep/internal/dialog"
	"github.com/dialogkeep/dialogkeep/internal/manager"
)

// Default argument values, applied when an MCP client omits the parameter.
const (
	defaultListLimit   = 20
	defaultSearchLimit = 10
	defaultRecentCount = 5
)

// Server wires a Manager into an MCP server.
type Server struct {
	mgr    *manager.Manager
	server *mcp.Server
}

// New builds an MCP server exposing all dialog tools and resources.
func New(mgr *manager.Manager, version string) *Server {
	s := &Server{
		mgr: mgr,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "dialogkeep",
			Version: version,
		}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect attaches the server to an arbitrary transport (used by tests).
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// ── Tool argument schemas ────────────────────────────────────────────────────

type saveDialogArgs struct {
	Content  string         `json:"content" jsonschema:"the dialog content to save"`
	Title    string         `json:"title,omitempty" jsonschema:"optional title for the dialog"`
	Tags     []string       `json:"tags,omitempty" jsonschema:"optional list of tags for categorization"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"optional additional metadata"`
}

type saveContextArgs struct {
	Messages []dialog.Message `json:"messages" jsonschema:"list of messages with role and content"`
	Title    string           `json:"title,omitempty" jsonschema:"optional title for the conversation"`
	Tags     []string         `json:"tags,omitempty" jsonschema:"optional tags for categorization"`
}

type quickSaveArgs struct {
	Text string `json:"text" jsonschema:"the text to save"`
}

type dialogIDArgs struct {
	DialogID string `json:"dialog_id" jsonschema:"the ID of the dialog"`
}

type listArgs struct {
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of dialog files to inspect (default 20)"`
	Tags   []string `json:"tags,omitempty" jsonschema:"filter by tags"`
	Search string   `json:"search,omitempty" jsonschema:"search in titles and content"`
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum results to return (default 10)"`
}

type byTagArgs struct {
	Tag string `json:"tag" jsonschema:"tag to filter by"`
}

type recentArgs struct {
	Count int `json:"count,omitempty" jsonschema:"number of recent dialogs to retrieve (default 5)"`
}

type updateTagsArgs struct {
	DialogID string   `json:"dialog_id" jsonschema:"the ID of the dialog"`
	Tags     []string `json:"tags" jsonschema:"new tags to set (replaces existing tags)"`
}

type renameArgs struct {
	DialogID string `json:"dialog_id" jsonschema:"the ID of the dialog"`
	NewTitle string `json:"new_title" jsonschema:"new title for the dialog"`
}

type exportArgs struct {
	DialogID   string `json:"dialog_id" jsonschema:"the ID of the dialog to export"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"optional custom output path"`
}

type emptyArgs struct{}

// ── Registration ─────────────────────────────────────────────────────────────

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "save_dialog",
		Description: "Save the current dialog/conversation",
	}, s.saveDialog)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "save_current_context",
		Description: "Save the current conversation context as structured messages",
	}, s.saveCurrentContext)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "quick_save",
		Description: "Quick save text without extra parameters",
	}, s.quickSave)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "load_dialog",
		Description: "Load a specific dialog by ID",
	}, s.loadDialog)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "load_last_dialog",
		Description: "Load the most recently saved dialog",
	}, s.loadLastDialog)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "load_dialog_content",
		Description: "Load just the content of a dialog (for AI to read)",
	}, s.loadDialogContent)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_dialogs",
		Description: "List saved dialogs",
	}, s.listDialogs)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_dialogs",
		Description: "Search through saved dialogs",
	}, s.searchDialogs)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_dialogs_by_tag",
		Description: "Get all dialogs with a specific tag",
	}, s.getDialogsByTag)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_recent_dialogs",
		Description: "Get the most recent dialogs",
	}, s.getRecentDialogs)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_dialog",
		Description: "Delete a saved dialog",
	}, s.deleteDialog)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_dialog_tags",
		Description: "Update tags for a dialog",
	}, s.updateDialogTags)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rename_dialog",
		Description: "Rename a dialog",
	}, s.renameDialog)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "export_dialog_as_markdown",
		Description: "Export a dialog as a Markdown file",
	}, s.exportDialogAsMarkdown)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_storage_info",
		Description: "Get information about dialog storage",
	}, s.getStorageInfo)
}

func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "dialog://{dialog_id}",
		Name:        "dialog",
		Description: "A saved dialog rendered as readable text",
		MIMEType:    "text/plain",
	}, s.dialogResource)
	s.server.AddResource(&mcp.Resource{
		URI:         "dialogs://recent",
		Name:        "recent-dialogs",
		Description: "The 10 most recent dialog summaries",
		MIMEType:    "application/json",
	}, s.recentResource)
}

// ── Tool handlers ────────────────────────────────────────────────────────────

func (s *Server) saveDialog(ctx context.Context, req *mcp.CallToolRequest, args saveDialogArgs) (*mcp.CallToolResult, any, error) {
	res, err := s.mgr.Save(args.Content, args.Title, args.Tags, args.Metadata)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) saveCurrentContext(ctx context.Context, req *mcp.CallToolRequest, args saveContextArgs) (*mcp.CallToolResult, any, error) {
	res, err := s.mgr.SaveStructured(args.Messages, args.Title, args.Tags)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) quickSave(ctx context.Context, req *mcp.CallToolRequest, args quickSaveArgs) (*mcp.CallToolResult, any, error) {
	res, err := s.mgr.QuickSave(args.Text)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) loadDialog(ctx context.Context, req *mcp.CallToolRequest, args dialogIDArgs) (*mcp.CallToolResult, any, error) {
	d, err := s.mgr.Load(args.DialogID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]any{
		"success": true,
		"dialog":  d,
	})
}

func (s *Server) loadLastDialog(ctx context.Context, req *mcp.CallToolRequest, args emptyArgs) (*mcp.CallToolResult, any, error) {
	d, err := s.mgr.LoadMostRecent()
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]any{
		"success": true,
		"dialog":  d,
	})
}

func (s *Server) loadDialogContent(ctx context.Context, req *mcp.CallToolRequest, args dialogIDArgs) (*mcp.CallToolResult, any, error) {
	return textResult(s.mgr.RenderForReading(args.DialogID))
}

func (s *Server) listDialogs(ctx context.Context, req *mcp.CallToolRequest, args listArgs) (*mcp.CallToolResult, any, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	res, err := s.mgr.List(limit, args.Tags, args.Search)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) searchDialogs(ctx context.Context, req *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	res, err := s.mgr.Search(args.Query, limit)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) getDialogsByTag(ctx context.Context, req *mcp.CallToolRequest, args byTagArgs) (*mcp.CallToolResult, any, error) {
	res, err := s.mgr.ByTag(args.Tag)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) getRecentDialogs(ctx context.Context, req *mcp.CallToolRequest, args recentArgs) (*mcp.CallToolResult, any, error) {
	count := args.Count
	if count <= 0 {
		count = defaultRecentCount
	}
	res, err := s.mgr.Recent(count)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) deleteDialog(ctx context.Context, req *mcp.CallToolRequest, args dialogIDArgs) (*mcp.CallToolResult, any, error) {
	res, err := s.mgr.Delete(args.DialogID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) updateDialogTags(ctx context.Context, req *mcp.CallToolRequest, args updateTagsArgs) (*mcp.CallToolResult, any, error) {
	res, err := s.mgr.UpdateTags(args.DialogID, args.Tags)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) renameDialog(ctx context.Context, req *mcp.CallToolRequest, args renameArgs) (*mcp.CallToolResult, any, error) {
	res, err := s.mgr.Rename(args.DialogID, args.NewTitle)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) exportDialogAsMarkdown(ctx context.Context, req *mcp.CallToolRequest, args exportArgs) (*mcp.CallToolResult, any, error) {
	res, err := s.mgr.ExportMarkdown(args.DialogID, args.OutputPath)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (s *Server) getStorageInfo(ctx context.Context, req *mcp.CallToolRequest, args emptyArgs) (*mcp.CallToolResult, any, error) {
	res, err := s.mgr.StorageStats()
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

// ── Resource handlers ────────────────────────────────────────────────────────

func (s *Server) dialogResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id := strings.TrimPrefix(req.Params.URI, "dialog://")
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     s.mgr.RenderForReading(id),
		}},
	}, nil
}

func (s *Server) recentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	var payload any
	res, err := s.mgr.Recent(10)
	if err != nil {
		payload = map[string]any{"error": err.Error()}
	} else {
		payload = res
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// ── Result helpers ───────────────────────────────────────────────────────────

// textResult wraps plain text as a successful tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// jsonResult serializes v as indented JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("serialize result: %w", err))
	}
	return textResult(string(data))
}

// errorResult converts a failure into an error-shaped result so the tool
// call itself always succeeds at the protocol level.
func errorResult(err error) (*mcp.CallToolResult, any, error) {
	data, _ := json.MarshalIndent(map[string]string{"error": err.Error()}, "", "  ")
	return textResult(string(data))
}
