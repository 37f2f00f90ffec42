package mcpdemo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	rawmcp "github.com/dhamidi/mcpdemo/mcp"
)

type ClientOptions struct {
	Name    string // passed to greet_tool
	Display Display
	Logger  *slog.Logger
}

func (opts *ClientOptions) display() Display {
	if opts.Display == nil {
		return NewRawDisplay(nil)
	}
	return opts.Display
}

func (opts *ClientOptions) logger() *slog.Logger {
	if opts.Logger == nil {
		return slog.Default()
	}
	return opts.Logger
}

// ToolOutput is what a tool call returned, independent of the client used.
type ToolOutput struct {
	Texts      []string
	Structured any
}

// ToolCaller calls tools on a connected server.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolOutput, error)
}

// RunClient connects over transport with the go-sdk client and runs the
// demo calls.
func RunClient(ctx context.Context, transport mcp.Transport, opts ClientOptions) error {
	client := mcp.NewClient(&mcp.Implementation{Name: Name + "-client", Version: Version}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("client: connect: %w", err)
	}
	defer session.Close()
	return RunDemo(ctx, &sdkCaller{session: session}, opts)
}

// RunRawClient runs the demo calls through the diagnostic client.
func RunRawClient(ctx context.Context, transport rawmcp.Transport, opts ClientOptions) error {
	session := rawmcp.NewSession(transport, rawmcp.Implementation{Name: Name + "-raw-client", Version: Version})
	defer session.Close()
	if _, err := session.Initialize(ctx); err != nil {
		return fmt.Errorf("client: initialize: %w", err)
	}
	return RunDemo(ctx, &rawCaller{session: session}, opts)
}

// RunDemo greets opts.Name and prints the spell book.
func RunDemo(ctx context.Context, caller ToolCaller, opts ClientOptions) error {
	display := opts.display()
	logger := opts.logger()

	args := map[string]any{"name": opts.Name}
	logger.Debug("calling tool", "call", FormatToolCall("greet_tool", args))
	greeting, err := caller.CallTool(ctx, "greet_tool", args)
	if err != nil {
		return fmt.Errorf("client: greet_tool: %w", err)
	}
	display.DisplayMessage("Tool response", "%s", strings.Join(greeting.Texts, "\n"))

	logger.Debug("calling tool", "call", FormatToolCall("spell_casting_tool", nil))
	spells, err := caller.CallTool(ctx, "spell_casting_tool", nil)
	if err != nil {
		return fmt.Errorf("client: spell_casting_tool: %w", err)
	}
	text, ok := FormatSpells(spells)
	if !ok {
		logger.Warn("spell_casting_tool returned no json field, printing raw content")
		return display.Display(text)
	}
	return display.DisplayCode("json", text)
}

// FormatSpells extracts the "json" field of a spell_casting_tool result and
// indents it. When no such field exists, it returns the raw content and
// false.
func FormatSpells(out *ToolOutput) (string, bool) {
	for _, text := range out.Texts {
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
			continue
		}
		inner, ok := wrapped["json"]
		if !ok {
			continue
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, inner, "", "  "); err == nil {
			return buf.String(), true
		}
	}
	if m, ok := out.Structured.(map[string]any); ok {
		if inner, ok := m["json"]; ok {
			if data, err := json.MarshalIndent(inner, "", "  "); err == nil {
				return string(data), true
			}
		}
	}
	if len(out.Texts) == 0 && out.Structured != nil {
		return AsJSON(out.Structured), false
	}
	return strings.Join(out.Texts, "\n"), false
}

type sdkCaller struct {
	session *mcp.ClientSession
}

func (c *sdkCaller) CallTool(ctx context.Context, name string, args map[string]any) (*ToolOutput, error) {
	if args == nil {
		args = map[string]any{}
	}
	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}
	out := &ToolOutput{Structured: res.StructuredContent}
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			out.Texts = append(out.Texts, text.Text)
		}
	}
	if res.IsError {
		return out, fmt.Errorf("tool %s failed: %s", name, strings.Join(out.Texts, "; "))
	}
	return out, nil
}

type rawCaller struct {
	session *rawmcp.Session
}

func (c *rawCaller) CallTool(ctx context.Context, name string, args map[string]any) (*ToolOutput, error) {
	content, err := c.session.CallTool(ctx, name, args)
	out := &ToolOutput{}
	for _, item := range content {
		if item.Type == "text" {
			out.Texts = append(out.Texts, item.Text)
		}
	}
	return out, err
}
