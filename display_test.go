package mcpdemo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawDisplay(t *testing.T) {
	var out bytes.Buffer
	d := NewRawDisplay(&out)
	require.NoError(t, d.Display("# title"))
	d.DisplayMessage("Tool response", "%d spells", 3)
	d.DisplayError("lost %s", "wand")
	require.NoError(t, d.DisplayCode("json", "{}"))
	assert.Equal(t, "# title\nTool response: 3 spells\nError: lost wand\n{}\n", out.String())
}

func TestGlamourousDisplay(t *testing.T) {
	t.Setenv("GLAMOUR_STYLE", "notty")
	var out bytes.Buffer
	d := NewDisplay(&out, true)
	require.NoError(t, d.DisplayCode("json", `{"spells": []}`))
	assert.Contains(t, out.String(), "spells")
	assert.NotContains(t, out.String(), "```")
}

func TestCropText(t *testing.T) {
	assert.Equal(t, "short", CropText("short", 10))
	assert.Equal(t, "abcd…wxyz", CropText("abcdefghijklmnopqrstuvwxyz", 9))
	assert.Equal(t, 9, len([]rune(CropText(strings.Repeat("ü", 50), 9))))
}

func TestAsJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, AsJSON(map[string]int{"a": 1}))
	assert.True(t, strings.HasPrefix(AsJSON(make(chan int)), `{"error": `))
	assert.Equal(t, `add({"a":1,"b":2})`, FormatToolCall("add", map[string]int{"a": 1, "b": 2}))
}
