package dialog

import (
	"strings"
)

// RenderText renders a dialog as readable plain text: a title banner, the
// saved timestamp, the tag list, then the payload.
func (d *Dialog) RenderText() string {
	lines := []string{
		"=== " + d.Title + " ===",
		"Saved: " + d.Timestamp,
		"Tags: " + strings.Join(d.Tags, ", "),
		"\n--- Content ---\n",
		d.Body(),
	}
	return strings.Join(lines, "\n")
}

// RenderMarkdown renders a dialog as a Markdown document: H1 title, bold
// Saved/Tags metadata, a horizontal rule, then one H2 section per message
// for structured dialogs or the raw content for free-form ones.
func (d *Dialog) RenderMarkdown() string {
	parts := []string{
		"# " + d.Title + "\n",
		"**Saved:** " + d.Timestamp,
		"**Tags:** " + strings.Join(d.Tags, ", ") + "\n",
		"---\n",
	}
	if d.IsStructured() {
		for _, msg := range d.Messages {
			role := msg.Role
			if role == "" {
				role = "unknown"
			}
			parts = append(parts, "## "+strings.ToUpper(role)+"\n", msg.Content+"\n")
		}
	} else {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n")
}
