package mcpdemo

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition pairs a tool's metadata with the code registering its
// typed handler on a server.
type ToolDefinition struct {
	Tool     *mcp.Tool
	register func(s *mcp.Server, t *mcp.Tool)
}

// NewTool defines a tool with a typed handler. Input and output schemas
// are inferred from In and Out when the server registers it.
func NewTool[In, Out any](tool *mcp.Tool, handler mcp.ToolHandlerFor[In, Out]) *ToolDefinition {
	return &ToolDefinition{
		Tool: tool,
		register: func(s *mcp.Server, t *mcp.Tool) {
			mcp.AddTool(s, t, handler)
		},
	}
}

func (def *ToolDefinition) Name() string {
	return def.Tool.Name
}

// Register adds the tool to s. Each server gets its own copy of the
// metadata, since registration fills in the schemas.
func (def *ToolDefinition) Register(s *mcp.Server) {
	t := *def.Tool
	def.register(s, &t)
}

type ToolBox map[string]*ToolDefinition

func NewToolBox() ToolBox { return ToolBox{} }

// DefaultToolBox holds the tools of the demo server.
func DefaultToolBox() ToolBox {
	return NewToolBox().
		Add(AddTool).
		Add(GreetTool).
		Add(SpellCastingTool)
}

func (tools ToolBox) Add(def *ToolDefinition) ToolBox {
	tools[def.Name()] = def
	return tools
}

// Names returns the tool names in sorted order.
func (tools ToolBox) Names() []string {
	names := []string{}
	for _, tool := range tools {
		names = append(names, tool.Name())
	}
	sort.Strings(names)
	return names
}

func (tools ToolBox) Get(name string) (def *ToolDefinition, found bool) {
	def, found = tools[name]
	return
}

// RegisterAll adds every tool to s.
func (tools ToolBox) RegisterAll(s *mcp.Server) {
	for _, name := range tools.Names() {
		tools[name].Register(s)
	}
}

// FormatToolCall renders a call as name(args) for logs and terminal output.
func FormatToolCall(name string, args any) string {
	buf := bytes.NewBufferString(name)
	fmt.Fprintf(buf, "(%s)", AsJSON(args))
	return buf.String()
}
