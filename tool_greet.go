package mcpdemo

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultGreetingName is used when a greeting names nobody.
const DefaultGreetingName = "friend"

type GreetInput struct {
	Name string `json:"name,omitempty" jsonschema:"who to greet"`
}

var GreetTool = NewTool(&mcp.Tool{
	Name:        "greet_tool",
	Description: "Greet someone by name",
}, greet)

func greet(ctx context.Context, req *mcp.CallToolRequest, in GreetInput) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: Greeting(in.Name)}},
	}, nil, nil
}

// Greeting returns the greeting for name.
func Greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultGreetingName
	}
	return "Hello, " + name
}
