// Package dialog defines the persisted record type: one saved conversation
// or note, either a free-form text blob or an ordered list of role-tagged
// messages. Derived fields (word counts, formatted content) are computed by
// the constructors and never supplied by callers.
package dialog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Variant identifies which payload shape a dialog carries.
type Variant string

const (
	FreeForm   Variant = "free_form"
	Structured Variant = "structured"
)

// Message is a single role-tagged entry in a structured dialog.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Dialog is the sole persisted entity. Exactly one of the free-form or
// structured field groups is populated; which one is tracked by the variant
// set at construction (or re-derived from field presence on decode).
type Dialog struct {
	ID        string
	Title     string
	Timestamp string
	Tags      []string

	variant Variant

	// Free-form payload
	Content   string
	Metadata  map[string]any
	WordCount int
	CharCount int

	// Structured payload
	Messages         []Message
	FormattedContent string
	MessageCount     int
	TotalWords       int
}

// NewFreeForm builds a free-form dialog and computes its derived counts.
// An empty title defaults to "Dialog <id>".
func NewFreeForm(id, title, content string, tags []string, metadata map[string]any, ts time.Time) *Dialog {
	if title == "" {
		title = "Dialog " + id
	}
	if tags == nil {
		tags = []string{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Dialog{
		ID:        id,
		Title:     title,
		Timestamp: ts.Format(time.RFC3339),
		Tags:      tags,
		variant:   FreeForm,
		Content:   content,
		Metadata:  metadata,
		WordCount: len(strings.Fields(content)),
		CharCount: utf8.RuneCountInString(content),
	}
}

// NewStructured builds a structured dialog from role-tagged messages and
// computes its formatted content and counts. An empty title defaults to
// "Conversation <id>".
func NewStructured(id, title string, messages []Message, tags []string, ts time.Time) *Dialog {
	if title == "" {
		title = "Conversation " + id
	}
	if tags == nil {
		tags = []string{}
	}
	if messages == nil {
		messages = []Message{}
	}
	formatted := FormatMessages(messages)
	return &Dialog{
		ID:               id,
		Title:            title,
		Timestamp:        ts.Format(time.RFC3339),
		Tags:             tags,
		variant:          Structured,
		Messages:         messages,
		FormattedContent: formatted,
		MessageCount:     len(messages),
		TotalWords:       len(strings.Fields(formatted)),
	}
}

// FormatMessages renders messages as "[ROLE]: content" lines joined by blank
// lines. A missing role renders as UNKNOWN.
func FormatMessages(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		if role == "" {
			role = "unknown"
		}
		parts = append(parts, fmt.Sprintf("[%s]: %s", strings.ToUpper(role), msg.Content))
	}
	return strings.Join(parts, "\n\n")
}

// Variant reports which payload shape this dialog carries.
func (d *Dialog) Variant() Variant { return d.variant }

// IsStructured reports whether the dialog holds role-tagged messages.
func (d *Dialog) IsStructured() bool { return d.variant == Structured }

// Body returns the displayable payload: the formatted messages for a
// structured dialog, the raw content otherwise.
func (d *Dialog) Body() string {
	if d.IsStructured() {
		return d.FormattedContent
	}
	return d.Content
}

// freeFormJSON and structuredJSON are the two on-disk shapes. Field names
// match the original record files so existing dialogs remain readable.
type freeFormJSON struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
	Tags      []string       `json:"tags"`
	Metadata  map[string]any `json:"metadata"`
	WordCount int            `json:"word_count"`
	CharCount int            `json:"char_count"`
}

type structuredJSON struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Messages         []Message `json:"messages"`
	FormattedContent string    `json:"formatted_content"`
	Timestamp        string    `json:"timestamp"`
	Tags             []string  `json:"tags"`
	MessageCount     int       `json:"message_count"`
	TotalWords       int       `json:"total_words"`
}

// MarshalJSON emits only the active variant's fields, keeping the
// mutual-exclusion invariant in the file itself.
func (d *Dialog) MarshalJSON() ([]byte, error) {
	if d.IsStructured() {
		return json.Marshal(structuredJSON{
			ID:               d.ID,
			Title:            d.Title,
			Messages:         d.Messages,
			FormattedContent: d.FormattedContent,
			Timestamp:        d.Timestamp,
			Tags:             d.Tags,
			MessageCount:     d.MessageCount,
			TotalWords:       d.TotalWords,
		})
	}
	return json.Marshal(freeFormJSON{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Timestamp: d.Timestamp,
		Tags:      d.Tags,
		Metadata:  d.Metadata,
		WordCount: d.WordCount,
		CharCount: d.CharCount,
	})
}

// UnmarshalJSON decodes either shape, deriving the variant from the presence
// of the messages field. A record without an id is invalid.
func (d *Dialog) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID               string         `json:"id"`
		Title            string         `json:"title"`
		Timestamp        string         `json:"timestamp"`
		Tags             []string       `json:"tags"`
		Content          string         `json:"content"`
		Metadata         map[string]any `json:"metadata"`
		WordCount        int            `json:"word_count"`
		CharCount        int            `json:"char_count"`
		Messages         []Message      `json:"messages"`
		FormattedContent string         `json:"formatted_content"`
		MessageCount     int            `json:"message_count"`
		TotalWords       int            `json:"total_words"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ID == "" {
		return fmt.Errorf("dialog record missing id")
	}
	if raw.Tags == nil {
		raw.Tags = []string{}
	}

	d.ID = raw.ID
	d.Title = raw.Title
	d.Timestamp = raw.Timestamp
	d.Tags = raw.Tags
	if raw.Messages != nil {
		d.variant = Structured
		d.Messages = raw.Messages
		d.FormattedContent = raw.FormattedContent
		d.MessageCount = raw.MessageCount
		d.TotalWords = raw.TotalWords
		d.Content = ""
		d.Metadata = nil
		d.WordCount = 0
		d.CharCount = 0
		return nil
	}
	d.variant = FreeForm
	d.Content = raw.Content
	d.Metadata = raw.Metadata
	if d.Metadata == nil {
		d.Metadata = map[string]any{}
	}
	d.WordCount = raw.WordCount
	d.CharCount = raw.CharCount
	d.Messages = nil
	d.FormattedContent = ""
	d.MessageCount = 0
	d.TotalWords = 0
	return nil
}
