// Package mcp is a small MCP client built directly on JSON-RPC. It exists
// for diagnostics: unlike the SDK client it exposes what the peer reported,
// such as the message endpoint of an SSE stream.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dhamidi/mcpdemo/mcp/jsonrpc2"
)

// ProtocolVersion is the protocol revision sent in the initialize request.
const ProtocolVersion = "2024-11-05"

// ErrTransportClosed is returned by transports used after Close.
var ErrTransportClosed = errors.New("mcp: transport closed")

// Transport carries JSON-RPC payloads to a server and can be closed.
type Transport interface {
	jsonrpc2.Transport
	io.Closer
}

// ToolResultContent defines the structure for content returned by a tool call.
type ToolResultContent struct {
	Type     string `json:"type"`               // "text" or "image"
	Text     string `json:"text,omitempty"`     // non-empty when type == "text"
	Data     string `json:"data,omitempty"`     // non-empty base64 encoded data when type == "image"
	MimeType string `json:"mimeType,omitempty"` // non-empty mime type for type == "image"
}

// Tool defines the structure for a tool's metadata.
type Tool struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	RawInputSchema json.RawMessage `json:"inputSchema"` // raw json bytes of the input schema
}

// Tools is a collection of Tool.
type Tools []Tool

// ByName finds a tool by its name from a list of tools.
func (t Tools) ByName(name string) (Tool, bool) {
	for _, tool := range t {
		if tool.Name == name {
			return tool, true
		}
	}
	return Tool{}, false
}

// Names returns the tool names in server order.
func (t Tools) Names() []string {
	names := make([]string, 0, len(t))
	for _, tool := range t {
		names = append(names, tool.Name)
	}
	return names
}

// Implementation names a client or server.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams defines the parameters for the "initialize" request.
type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      Implementation         `json:"clientInfo"`
}

// InitializeResult defines the result for the "initialize" response.
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities,omitempty"`
	ServerInfo      Implementation         `json:"serverInfo"`
	Instructions    string                 `json:"instructions,omitempty"`
}

// ListParams carries the pagination cursor of the list requests.
type ListParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ToolsListResult defines the result for the "tools/list" response.
type ToolsListResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// ToolsCallParams defines the parameters for the "tools/call" request.
type ToolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolsCallResult defines the result for the "tools/call" response.
type ToolsCallResult struct {
	Content []ToolResultContent `json:"content"`
	IsError bool                `json:"isError"`
}

// Resource describes a concrete resource offered by a server.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourcesListResult defines the result for the "resources/list" response.
type ResourcesListResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// Prompt describes a prompt offered by a server.
type Prompt struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PromptsListResult defines the result for the "prompts/list" response.
type PromptsListResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// Session is a client session with one server.
type Session struct {
	rpc       *jsonrpc2.Client
	transport Transport
	info      Implementation
	server    *InitializeResult
}

// NewSession creates a session over transport. Call Initialize before
// anything else.
func NewSession(transport Transport, info Implementation) *Session {
	if info.Name == "" {
		info = Implementation{Name: "mcpdemo-raw-client", Version: "0.1.0"}
	}
	return &Session{
		rpc:       jsonrpc2.NewClient(transport),
		transport: transport,
		info:      info,
	}
}

// Use installs interceptors around every request of the session.
func (s *Session) Use(interceptors ...jsonrpc2.Interceptor) {
	s.rpc.Use(interceptors...)
}

// Initialize performs the initialization handshake.
func (s *Session) Initialize(ctx context.Context) (*InitializeResult, error) {
	initParams := InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]interface{}{},
		ClientInfo:      s.info,
	}

	var initResult InitializeResult
	if err := s.rpc.Call(ctx, "initialize", initParams, &initResult); err != nil {
		return nil, fmt.Errorf("jsonrpc call to 'initialize' failed: %w", err)
	}

	if err := s.rpc.Notify(ctx, "notifications/initialized", struct{}{}); err != nil {
		return nil, fmt.Errorf("jsonrpc notify to 'notifications/initialized' failed: %w", err)
	}

	s.server = &initResult
	return &initResult, nil
}

// ServerInfo returns the result of Initialize, or nil before it.
func (s *Session) ServerInfo() *InitializeResult {
	return s.server
}

// ListTools sends "tools/list" requests until all pages have been read.
func (s *Session) ListTools(ctx context.Context) (Tools, error) {
	var tools Tools
	params := ListParams{}
	for {
		var listResult ToolsListResult
		if err := s.rpc.Call(ctx, "tools/list", params, &listResult); err != nil {
			return nil, fmt.Errorf("jsonrpc call to 'tools/list' failed: %w", err)
		}
		tools = append(tools, listResult.Tools...)
		if listResult.NextCursor == "" {
			return tools, nil
		}
		params.Cursor = listResult.NextCursor
	}
}

// ListResources sends "resources/list" requests until all pages have been read.
func (s *Session) ListResources(ctx context.Context) ([]Resource, error) {
	var resources []Resource
	params := ListParams{}
	for {
		var listResult ResourcesListResult
		if err := s.rpc.Call(ctx, "resources/list", params, &listResult); err != nil {
			return nil, fmt.Errorf("jsonrpc call to 'resources/list' failed: %w", err)
		}
		resources = append(resources, listResult.Resources...)
		if listResult.NextCursor == "" {
			return resources, nil
		}
		params.Cursor = listResult.NextCursor
	}
}

// ListPrompts sends "prompts/list" requests until all pages have been read.
func (s *Session) ListPrompts(ctx context.Context) ([]Prompt, error) {
	var prompts []Prompt
	params := ListParams{}
	for {
		var listResult PromptsListResult
		if err := s.rpc.Call(ctx, "prompts/list", params, &listResult); err != nil {
			return nil, fmt.Errorf("jsonrpc call to 'prompts/list' failed: %w", err)
		}
		prompts = append(prompts, listResult.Prompts...)
		if listResult.NextCursor == "" {
			return prompts, nil
		}
		params.Cursor = listResult.NextCursor
	}
}

// CallTool sends a "tools/call" request to the server for the specified tool.
func (s *Session) CallTool(ctx context.Context, toolName string, args map[string]any) ([]ToolResultContent, error) {
	if args == nil {
		args = map[string]any{}
	}
	var callResult ToolsCallResult
	callPayload := ToolsCallParams{
		Name:      toolName,
		Arguments: args,
	}

	if err := s.rpc.Call(ctx, "tools/call", callPayload, &callResult); err != nil {
		return nil, fmt.Errorf("jsonrpc call to 'tools/call' (tool: %s) failed: %w", toolName, err)
	}

	if callResult.IsError {
		if len(callResult.Content) > 0 && callResult.Content[0].Type == "text" {
			return callResult.Content, fmt.Errorf("tool call for '%s' failed with server-side error: %s", toolName, callResult.Content[0].Text)
		}
		return callResult.Content, fmt.Errorf("tool call for '%s' failed with server-side error", toolName)
	}

	return callResult.Content, nil
}

// Close closes the underlying transport.
func (s *Session) Close() error {
	return s.transport.Close()
}
