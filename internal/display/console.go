package display

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"go.klb.dev/cbview/internal/message"
)

// Console prints entries to a writer, one per line.
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

// NewConsole returns a console sink. With asJSON each entry is written as a
// JSON object; otherwise as "HH:MM:SS text" with newlines escaped.
func NewConsole(w io.Writer, asJSON bool) *Console {
	return &Console{w: w, json: asJSON}
}

// Show implements Sink.
func (c *Console) Show(e message.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.json {
		err = json.NewEncoder(c.w).Encode(e)
	} else {
		_, err = fmt.Fprintf(c.w, "%s %s\n", e.CapturedAt.Format("15:04:05"), FormatLine(e.Text))
	}
	if err != nil {
		slog.Warn("console write failed", "err", err)
	}
}

var lineEscaper = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`, "\t", `\t`)

// FormatLine renders text on a single line.
func FormatLine(s string) string {
	return lineEscaper.Replace(s)
}
