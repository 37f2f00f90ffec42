package mcpdemo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
)

// Display writes client and inspector output.
type Display interface {
	// Display writes markdown content.
	Display(content string) error
	// DisplayMessage writes a single labelled line.
	DisplayMessage(label string, format string, args ...any)
	DisplayError(format string, args ...any)
	// DisplayCode writes a block of source text in language lang.
	DisplayCode(lang, code string) error
}

// RawDisplay writes content unmodified.
type RawDisplay struct {
	Out io.Writer
}

func NewRawDisplay(out io.Writer) *RawDisplay {
	if out == nil {
		out = os.Stdout
	}
	return &RawDisplay{Out: out}
}

func (r *RawDisplay) Display(content string) error {
	_, err := fmt.Fprintln(r.Out, content)
	return err
}

func (r *RawDisplay) DisplayMessage(label string, format string, args ...any) {
	fmt.Fprintf(r.Out, label+": "+format+"\n", args...)
}

func (r *RawDisplay) DisplayError(format string, args ...any) {
	fmt.Fprintf(r.Out, "Error: "+format+"\n", args...)
}

func (r *RawDisplay) DisplayCode(lang, code string) error {
	return r.Display(code)
}

// GlamourousDisplay renders markdown with glamour, falling back to
// RawDisplay when rendering fails.
type GlamourousDisplay struct {
	*RawDisplay
}

func NewGlamourousDisplay(out io.Writer) *GlamourousDisplay {
	return &GlamourousDisplay{RawDisplay: NewRawDisplay(out)}
}

func (g *GlamourousDisplay) Display(content string) error {
	pretty, err := glamour.RenderWithEnvironmentConfig(content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "glamour rendering failed: %v\n", err)
		return g.RawDisplay.Display(content)
	}
	_, err = fmt.Fprint(g.Out, pretty)
	return err
}

func (g *GlamourousDisplay) DisplayCode(lang, code string) error {
	return g.Display(CodeBlock(lang, code))
}

// NewDisplay returns a GlamourousDisplay when pretty is set.
func NewDisplay(out io.Writer, pretty bool) Display {
	if pretty {
		return NewGlamourousDisplay(out)
	}
	return NewRawDisplay(out)
}

// AsJSON encodes value as JSON, reporting encoding failures inline.
func AsJSON(value any) string {
	out, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err)
	}
	return string(out)
}

// CropText shortens in to at most width runes, keeping its start and end.
func CropText(in string, width int) string {
	runes := []rune(in)
	if len(runes) <= width || width < 2 {
		return in
	}
	half := (width - 1) / 2
	return string(runes[:half]) + "…" + string(runes[len(runes)-(width-1-half):])
}

// CodeBlock wraps text in a fenced markdown block.
func CodeBlock(lang, text string) string {
	return "```" + lang + "\n" + text + "\n```"
}
