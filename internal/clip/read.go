//go:build darwin || windows || linux

package clip

import (
	"golang.design/x/clipboard"

	"go.klb.dev/cbview/internal/message"
)

// readClipboard reads text, falling back to an image.
func readClipboard() message.Content {
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		return message.Content{Format: message.FormatText, Data: text}
	}
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		return message.Content{Format: message.FormatImage, Data: img}
	}
	return message.Content{}
}
