package mcpdemo

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var greetingStyles = map[string]string{
	"friendly": "Please write a warm, friendly greeting",
	"formal":   "Please write a formal, professional greeting",
	"casual":   "Please write a casual, relaxed greeting",
}

var GreetUserPrompt = &mcp.Prompt{
	Name:        "greet_user",
	Description: "Generate a greeting prompt",
	Arguments: []*mcp.PromptArgument{
		{Name: "name", Description: "who to greet", Required: true},
		{Name: "style", Description: "friendly, formal or casual"},
	},
}

// GreetingPrompt returns the prompt text for name in the given style.
// Unknown styles fall back to friendly.
func GreetingPrompt(name, style string) string {
	instruction, ok := greetingStyles[style]
	if !ok {
		instruction = greetingStyles["friendly"]
	}
	return fmt.Sprintf("%s for someone named %s.", instruction, name)
}

func greetUser(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := req.Params.Arguments["name"]
	if name == "" {
		return nil, fmt.Errorf("greet_user: argument %q is required", "name")
	}
	style := req.Params.Arguments["style"]
	if style == "" {
		style = "friendly"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("A %s greeting for %s", style, name),
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: GreetingPrompt(name, style)},
		}},
	}, nil
}
