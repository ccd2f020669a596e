// Package export renders a room's history as a downloadable transcript.
// It relies on the store's guarantee that message append order is display
// order, so the transcript reads exactly like the room did.
package export

import (
	"fmt"
	"strings"

	"planchat/internal/models"
)

// Transcript formats one "[time] sender: text" line per message, in
// append order. System messages carry no sender.
func Transcript(room *models.Room) string {
	var b strings.Builder
	for _, msg := range room.Messages {
		if msg.Type == models.MessageTypeSystem {
			fmt.Fprintf(&b, "[%s] %s\n", msg.Timestamp, msg.Text)
			continue
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", msg.Timestamp, msg.SenderName, msg.Text)
	}
	return b.String()
}

// Filename suggests a transcript file name derived from the room title.
func Filename(room *models.Room) string {
	title := strings.TrimSpace(room.Title)
	if title == "" {
		title = "room"
	}
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
	return safe + "-transcript.txt"
}
