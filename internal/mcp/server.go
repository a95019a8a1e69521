// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/helixml/fileserve/domain/byterange"
	"github.com/helixml/fileserve/domain/file"
	"github.com/helixml/fileserve/domain/transfer"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FileReader lists directories and reads byte ranges for MCP tools.
type FileReader interface {
	List(ctx context.Context, path string) ([]file.Entry, error)
	ReadRange(ctx context.Context, path, rawRange string, maxBytes int64) (byterange.Decision, []byte, error)
}

// TransferRecorder records reads served through MCP.
type TransferRecorder interface {
	Record(ctx context.Context, t transfer.Transfer) (transfer.Transfer, error)
}

// Server wraps the MCP server with file tools.
type Server struct {
	mcpServer *server.MCPServer
	files     FileReader
	transfers TransferRecorder
	maxBytes  int64
	version   string
	logger    *slog.Logger
}

// NewServer creates a new MCP server. Reads return at most maxBytes bytes;
// transfers may be nil.
func NewServer(files FileReader, transfers TransferRecorder, maxBytes int64, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		files:     files,
		transfers: transfers,
		maxBytes:  maxBytes,
		version:   version,
		logger:    logger,
	}

	mcpServer := server.NewMCPServer(
		"fileserve",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	listTool := mcp.NewTool("list_files",
		mcp.WithDescription("List the files and directories in a directory of the served root"),
		mcp.WithString("path",
			mcp.Description("Directory path relative to the root (default: root)"),
		),
	)
	mcpServer.AddTool(listTool, s.handleListFiles)

	readTool := mcp.NewTool("read_file_range",
		mcp.WithDescription(fmt.Sprintf(
			"Read a file, or one byte range of it, as base64. At most %d bytes are returned.", s.maxBytes)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path relative to the root"),
		),
		mcp.WithString("range",
			mcp.Description("HTTP-style byte range, e.g. bytes=0-1023 (default: whole file)"),
		),
	)
	mcpServer.AddTool(readTool, s.handleReadFileRange)

	versionTool := mcp.NewTool("get_version",
		mcp.WithDescription("Get the fileserve server version"),
	)
	mcpServer.AddTool(versionTool, s.handleGetVersion)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	template := mcp.NewResourceTemplate(FileURITemplate, "file",
		mcp.WithTemplateDescription("A file under the served root; ?range=bytes=S-E narrows it"),
	)
	mcpServer.AddResourceTemplate(template, s.handleReadResource)
}

type entryResult struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	URI         string `json:"uri"`
	IsDirectory bool   `json:"is_directory"`
	Size        int64  `json:"size"`
	Modified    string `json:"modified"`
}

func (s *Server) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")

	entries, err := s.files.List(ctx, path)
	if err != nil {
		s.logger.WarnContext(ctx, "list_files failed", slog.String("path", path), slog.Any("error", err))
		return mcp.NewToolResultError(toolErrorText(err)), nil
	}

	results := make([]entryResult, len(entries))
	for i, e := range entries {
		results[i] = entryResult{
			Name:        e.Name(),
			Path:        e.Path(),
			URI:         NewFileURI(e.Path()).String(),
			IsDirectory: e.IsDirectory(),
			Size:        e.Size(),
			Modified:    e.ModifiedTime().UTC().Format("2006-01-02T15:04:05Z"),
		}
	}

	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

type rangeResult struct {
	Path          string `json:"path"`
	Status        int    `json:"status"`
	Start         int64  `json:"start"`
	End           int64  `json:"end"`
	Total         int64  `json:"total"`
	ContentType   string `json:"content_type"`
	Truncated     bool   `json:"truncated"`
	ContentBase64 string `json:"content_base64"`
}

func (s *Server) handleReadFileRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}
	rawRange := request.GetString("range", "")

	decision, data, err := s.read(ctx, path, rawRange)
	if err != nil {
		s.logger.WarnContext(ctx, "read_file_range failed", slog.String("path", path), slog.Any("error", err))
		return mcp.NewToolResultError(toolErrorText(err)), nil
	}
	if !decision.Satisfiable() {
		return mcp.NewToolResultError(decision.Message()), nil
	}

	result := rangeResult{
		Path:          path,
		Status:        decision.Status().HTTPStatus(),
		Start:         decision.Start(),
		End:           decision.Start() + int64(len(data)) - 1,
		Total:         decision.Total(),
		ContentType:   decision.Header(byterange.HeaderContentType),
		Truncated:     int64(len(data)) < decision.Length(),
		ContentBase64: base64.StdEncoding.EncodeToString(data),
	}
	if len(data) == 0 {
		result.End = decision.End()
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

func (s *Server) handleReadResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri, err := ParseFileURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	decision, data, err := s.read(ctx, uri.Path(), uri.Range())
	if err != nil {
		return nil, err
	}
	if !decision.Satisfiable() {
		return nil, errors.New(decision.Message())
	}

	return []mcp.ResourceContents{
		mcp.BlobResourceContents{
			URI:      request.Params.URI,
			MIMEType: decision.Header(byterange.HeaderContentType),
			Blob:     base64.StdEncoding.EncodeToString(data),
		},
	}, nil
}

// read resolves and reads a capped range, recording the transfer.
func (s *Server) read(ctx context.Context, path, rawRange string) (byterange.Decision, []byte, error) {
	decision, data, err := s.files.ReadRange(ctx, path, rawRange, s.maxBytes)
	if err != nil {
		return decision, nil, err
	}

	if s.transfers != nil {
		t := transfer.New(path, transfer.KindMCP, decision.Status().HTTPStatus(),
			decision.Start(), decision.End(), decision.Length()).Finish(int64(len(data)))
		if _, err := s.transfers.Record(ctx, t); err != nil {
			s.logger.WarnContext(ctx, "failed to record transfer", slog.String("path", path), slog.Any("error", err))
		}
	}
	return decision, data, nil
}

func toolErrorText(err error) string {
	switch {
	case errors.Is(err, file.ErrNotFound):
		return "file not found"
	case errors.Is(err, file.ErrIsDirectory):
		return "path is a directory"
	case errors.Is(err, file.ErrNotDirectory):
		return "path is not a directory"
	default:
		return err.Error()
	}
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
