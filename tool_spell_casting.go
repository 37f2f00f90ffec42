package mcpdemo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Spell struct {
	Name   string `json:"name"`
	School string `json:"school"`
	Level  int    `json:"level"`
	Effect string `json:"effect"`
}

type SpellBook struct {
	Spells []Spell `json:"spells"`
}

// Spells is the book returned by spell_casting_tool.
var Spells = SpellBook{Spells: []Spell{
	{Name: "Fireball", School: "evocation", Level: 3, Effect: "A bright streak flashes to a point you choose, then blossoms into flame."},
	{Name: "Mage Hand", School: "conjuration", Level: 0, Effect: "A spectral hand appears and manipulates objects at a distance."},
	{Name: "Counterspell", School: "abjuration", Level: 3, Effect: "You attempt to interrupt a creature in the process of casting a spell."},
}}

type SpellCastingInput struct{}

var SpellCastingTool = NewTool(&mcp.Tool{
	Name:        "spell_casting_tool",
	Description: "List the spells in the spell book as JSON",
}, castSpells)

// The payload is wrapped in a "json" field and sent as text, which is what
// clients unwrap.
func castSpells(ctx context.Context, req *mcp.CallToolRequest, in SpellCastingInput) (*mcp.CallToolResult, any, error) {
	payload, err := json.Marshal(map[string]any{"json": Spells})
	if err != nil {
		return nil, nil, fmt.Errorf("spell_casting_tool: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil, nil
}
