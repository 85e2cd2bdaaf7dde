// Package render writes a completion message to the terminal.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"xai-chat/internal/llm"
)

const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

type Options struct {
	Format string
	// Style is a glamour standard style name ("dark", "light", "notty", ...)
	// or a path to a style file. Only used by FormatMarkdown.
	Style string
}

// Response writes the first choice's message. A response without choices
// is an error and nothing is written.
func Response(w io.Writer, resp llm.ChatResponse, opts Options) error {
	choice, err := resp.First()
	if err != nil {
		return err
	}
	return Message(w, choice.Message, opts)
}

func Message(w io.Writer, msg llm.Message, opts Options) error {
	var out string
	switch opts.Format {
	case "", FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		out = buf.String()
	case FormatText:
		out = msg.Content + "\n"
	case FormatMarkdown:
		style := opts.Style
		if strings.TrimSpace(style) == "" {
			style = "dark"
		}
		rendered, err := glamour.Render(msg.Content, style)
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		out = rendered
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
	_, err := io.WriteString(w, out)
	return err
}
