package mcpdemo

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AddInput struct {
	A int `json:"a" jsonschema:"the first number"`
	B int `json:"b" jsonschema:"the second number"`
}

type AddOutput struct {
	Sum int `json:"sum" jsonschema:"the sum of a and b"`
}

var AddTool = NewTool(&mcp.Tool{
	Name:        "add",
	Description: "Add two numbers",
}, add)

func add(ctx context.Context, req *mcp.CallToolRequest, in AddInput) (*mcp.CallToolResult, AddOutput, error) {
	return nil, AddOutput{Sum: in.A + in.B}, nil
}
