package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/polyrun/polyrun/config"
	"github.com/polyrun/polyrun/runner"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	executor  runner.Executor
	mcpServer *server.MCPServer
}

// outputLine is one streamed line, collected into the tool result because MCP
// tool calls resolve once.
type outputLine struct {
	Text    string `json:"text"`
	Channel string `json:"channel"`
}

// runPayload is the JSON body of a run_code tool result.
type runPayload struct {
	Lines      []outputLine `json:"lines"`
	ExitCode   int          `json:"exit_code"`
	TimedOut   bool         `json:"timed_out"`
	DurationMS int64        `json:"duration_ms"`
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, executor runner.Executor) (*MCPServer, error) {
	s := &MCPServer{
		config:   cfg,
		logger:   logger,
		executor: executor,
	}

	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("runner.image", cfg.Runner.Image),
		zap.Int("runner.timeout_sec", cfg.Runner.TimeoutSec),
		zap.Int("runner.memory_mb", cfg.Runner.MemoryMB),
		zap.Int64("runner.pids_limit", cfg.Runner.PidsLimit),
		zap.String("runner.network_mode", cfg.Runner.NetworkMode),
		zap.String("runner.user", cfg.Runner.User),
	)

	s.mcpServer = server.NewMCPServer("polyrun", "An ephemeral sandboxed code execution server")

	s.registerRunCodeTool()
	s.registerListLanguagesTool()
	s.registerHealthTool()

	return s, nil
}

func (s *MCPServer) registerRunCodeTool() {
	tool := mcp.Tool{
		Name:        "run_code",
		Description: "Execute source code in a fresh, resource-constrained container",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "User-provided source code",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Language id",
					"enum":        []string{"python", "javascript", "ruby", "go", "java", "c", "cpp"},
				},
				"dependencies": map[string]any{
					"type":        "string",
					"description": "Packages to install, separated by whitespace or commas (optional)",
				},
			},
			Required: []string{"code", "language"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRunCode)
}

func (s *MCPServer) registerListLanguagesTool() {
	tool := mcp.Tool{
		Name:        "list_languages",
		Description: "List the supported languages and their dependency support",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}

	s.mcpServer.AddTool(tool, s.handleListLanguages)
}

func (s *MCPServer) registerHealthTool() {
	tool := mcp.Tool{
		Name:        "check_runtime_health",
		Description: "Check whether the container engine is reachable",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}

	s.mcpServer.AddTool(tool, s.handleCheckHealth)
}

// handleRunCode handles the run_code tool
func (s *MCPServer) handleRunCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}

	languageID, err := request.RequireString("language")
	if err != nil {
		return nil, fmt.Errorf("language parameter is required: %w", err)
	}

	dependencies := request.GetString("dependencies", "")

	s.logger.Info("code execution requested",
		zap.String("language", languageID),
		zap.Bool("has_dependencies", dependencies != ""))

	lines := make([]outputLine, 0, 16)
	result, err := s.executor.Run(ctx, code, languageID, dependencies, func(line string, channel runner.Channel) {
		lines = append(lines, outputLine{Text: line, Channel: string(channel)})
	})
	if err != nil {
		if errors.Is(err, runner.ErrBusy) {
			return errorResult("An execution is already in progress, try again later"), nil
		}
		s.logger.Error("execution failed", zap.Error(err), zap.String("language", languageID))
		return errorResult(fmt.Sprintf("Execution failed: %v", err)), nil
	}

	payload := runPayload{
		Lines:      lines,
		ExitCode:   result.ExitCode,
		TimedOut:   result.TimedOut,
		DurationMS: result.Duration.Milliseconds(),
	}
	return jsonResult(payload)
}

// handleListLanguages handles the list_languages tool
func (s *MCPServer) handleListLanguages(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.executor.Languages())
}

// handleCheckHealth handles the check_runtime_health tool
func (s *MCPServer) handleCheckHealth(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.executor.CheckHealth(ctx); err != nil {
		return errorResult(fmt.Sprintf("Runtime unhealthy: %v", err)), nil
	}
	return jsonResult(map[string]bool{"ok": true})
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: string(raw)},
		},
	}, nil
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: message},
		},
		IsError: true,
	}
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
