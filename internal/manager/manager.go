// Package manager is the read/write composition layer over the dialog store:
// saving in both payload shapes, listing and filtered search, tag and title
// updates, Markdown export, and storage statistics. It never touches the
// filesystem except through the store, and callers get fresh copies of record
// data on every load.
package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dialogkeep/dialogkeep/internal/dialog"
	"github.com/dialogkeep/dialogkeep/internal/store"
)

// ByTagLimit caps how many files a tag lookup inspects.
const ByTagLimit = 100

// Manager implements the query/export operations on top of a Store.
type Manager struct {
	store *store.Store
	now   func() time.Time
}

// New creates a Manager over the given store.
func New(st *store.Store) *Manager {
	return &Manager{store: st, now: time.Now}
}

// Store returns the underlying record store.
func (m *Manager) Store() *store.Store { return m.store }

// SaveResult summarizes a newly saved dialog.
type SaveResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DialogID     string `json:"dialog_id"`
	Title        string `json:"title"`
	FilePath     string `json:"file_path"`
	WordCount    int    `json:"word_count,omitempty"`
	MessageCount int    `json:"message_count,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// Summary is the per-dialog entry returned by listing operations. WordCount
// is zero for structured dialogs, which track total_words instead.
type Summary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Timestamp string   `json:"timestamp"`
	Tags      []string `json:"tags"`
	WordCount int      `json:"word_count"`
	FilePath  string   `json:"file_path"`
}

// ListResult is the result of a list/search/tag query.
type ListResult struct {
	Success     bool      `json:"success"`
	Dialogs     []Summary `json:"dialogs"`
	Total       int       `json:"total"`
	StoragePath string    `json:"storage_path"`
}

// DeleteResult reports a completed deletion.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TagsResult reports a completed tag replacement.
type TagsResult struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	DialogID string   `json:"dialog_id"`
	Tags     []string `json:"tags"`
}

// RenameResult reports a completed rename, carrying both titles.
type RenameResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	DialogID string `json:"dialog_id"`
	OldTitle string `json:"old_title"`
	NewTitle string `json:"new_title"`
}

// ExportResult reports a completed Markdown export.
type ExportResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
}

// StorageInfo aggregates record count and byte size across the store.
type StorageInfo struct {
	StoragePath    string `json:"storage_path"`
	TotalDialogs   int    `json:"total_dialogs"`
	TotalSizeMB    string `json:"total_size_mb"`
	TotalSizeBytes int64  `json:"total_size_bytes"`
}

// Save creates a free-form dialog. Empty content is valid and yields zero
// counts.
func (m *Manager) Save(content, title string, tags []string, metadata map[string]any) (*SaveResult, error) {
	id := m.store.GenerateID()
	d := dialog.NewFreeForm(id, title, content, tags, metadata, m.now())
	path, err := m.store.Write(d)
	if err != nil {
		return nil, err
	}
	return &SaveResult{
		Success:   true,
		Message:   "Dialog saved successfully",
		DialogID:  id,
		Title:     d.Title,
		FilePath:  path,
		WordCount: d.WordCount,
		Timestamp: d.Timestamp,
	}, nil
}

// SaveStructured creates a structured dialog from role-tagged messages.
func (m *Manager) SaveStructured(messages []dialog.Message, title string, tags []string) (*SaveResult, error) {
	id := m.store.GenerateID()
	d := dialog.NewStructured(id, title, messages, tags, m.now())
	path, err := m.store.Write(d)
	if err != nil {
		return nil, err
	}
	return &SaveResult{
		Success:      true,
		Message:      "Conversation context saved",
		DialogID:     id,
		Title:        d.Title,
		FilePath:     path,
		MessageCount: d.MessageCount,
		Timestamp:    d.Timestamp,
	}, nil
}

// QuickSave saves text as a free-form dialog with a generated title.
func (m *Manager) QuickSave(text string) (*SaveResult, error) {
	title := "Quick Save " + m.now().Format("2006-01-02 15:04")
	return m.Save(text, title, nil, nil)
}

// Load returns the full dialog for an id.
func (m *Manager) Load(id string) (*dialog.Dialog, error) {
	return m.store.Read(id)
}

// LoadMostRecent returns the most recently modified dialog, or ErrEmptyStore
// when no dialogs exist.
func (m *Manager) LoadMostRecent() (*dialog.Dialog, error) {
	res, err := m.List(1, nil, "")
	if err != nil {
		return nil, err
	}
	if len(res.Dialogs) == 0 {
		return nil, store.ErrEmptyStore
	}
	return m.Load(res.Dialogs[0].ID)
}

// RenderForReading returns a dialog as displayable text. This path always
// produces text: a load failure becomes an error string, not an error.
func (m *Manager) RenderForReading(id string) string {
	d, err := m.Load(id)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return d.RenderText()
}

// List scans the store most-recent-first and returns summaries of surviving
// dialogs.
//
// The limit bounds how many files are inspected, not how many matches are
// returned: filters apply only to the limit most recently modified files, so
// a query can return fewer than limit results (or none) even when matching
// dialogs exist further back. This keeps the cost of a query bounded and
// biased toward recent dialogs.
//
// Tag filtering keeps dialogs whose tags intersect the requested set (OR
// semantics). Search is a case-insensitive substring match over the title and
// free-form content; message payloads of structured dialogs are not searched.
// Unparseable files are skipped, never an error.
func (m *Manager) List(limit int, tags []string, query string) (*ListResult, error) {
	entries, err := m.store.Enumerate()
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	if limit < len(entries) {
		entries = entries[:limit]
	}

	query = strings.ToLower(query)
	summaries := []Summary{}
	for _, entry := range entries {
		d, err := m.store.ReadPath(entry.Path)
		if err != nil {
			continue
		}
		if len(tags) > 0 && !tagsIntersect(d.Tags, tags) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(d.Title), query) &&
			!strings.Contains(strings.ToLower(d.Content), query) {
			continue
		}
		summaries = append(summaries, Summary{
			ID:        d.ID,
			Title:     d.Title,
			Timestamp: d.Timestamp,
			Tags:      d.Tags,
			WordCount: d.WordCount,
			FilePath:  entry.Path,
		})
	}

	return &ListResult{
		Success:     true,
		Dialogs:     summaries,
		Total:       len(summaries),
		StoragePath: m.store.Root(),
	}, nil
}

// Search lists dialogs matching a query in title or free-form content.
func (m *Manager) Search(query string, limit int) (*ListResult, error) {
	return m.List(limit, nil, query)
}

// ByTag lists dialogs carrying the given tag, inspecting at most ByTagLimit
// files.
func (m *Manager) ByTag(tag string) (*ListResult, error) {
	return m.List(ByTagLimit, []string{tag}, "")
}

// Recent lists the count most recently modified dialogs.
func (m *Manager) Recent(count int) (*ListResult, error) {
	return m.List(count, nil, "")
}

// Delete removes a dialog.
func (m *Manager) Delete(id string) (*DeleteResult, error) {
	if err := m.store.Delete(id); err != nil {
		return nil, err
	}
	return &DeleteResult{
		Success: true,
		Message: fmt.Sprintf("Dialog %s deleted", id),
	}, nil
}

// UpdateTags replaces a dialog's tags entirely (no merging) via a full
// read-modify-write of the record.
func (m *Manager) UpdateTags(id string, tags []string) (*TagsResult, error) {
	d, err := m.store.Read(id)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	d.Tags = tags
	if _, err := m.store.Write(d); err != nil {
		return nil, err
	}
	return &TagsResult{
		Success:  true,
		Message:  "Tags updated",
		DialogID: id,
		Tags:     tags,
	}, nil
}

// Rename replaces a dialog's title via a full read-modify-write of the
// record, returning both the old and new titles.
func (m *Manager) Rename(id, newTitle string) (*RenameResult, error) {
	d, err := m.store.Read(id)
	if err != nil {
		return nil, err
	}
	oldTitle := d.Title
	d.Title = newTitle
	if _, err := m.store.Write(d); err != nil {
		return nil, err
	}
	return &RenameResult{
		Success:  true,
		Message:  "Dialog renamed",
		DialogID: id,
		OldTitle: oldTitle,
		NewTitle: newTitle,
	}, nil
}

// ExportMarkdown renders a dialog as Markdown and writes it to outputPath,
// defaulting to <storage root>/<id>.md.
func (m *Manager) ExportMarkdown(id, outputPath string) (*ExportResult, error) {
	d, err := m.store.Read(id)
	if err != nil {
		return nil, err
	}
	if outputPath == "" {
		outputPath = filepath.Join(m.store.Root(), id+".md")
	}
	if err := os.WriteFile(outputPath, []byte(d.RenderMarkdown()), 0644); err != nil {
		return nil, fmt.Errorf("export dialog %s: %w", id, err)
	}
	return &ExportResult{
		Success:  true,
		Message:  "Dialog exported as Markdown",
		FilePath: outputPath,
	}, nil
}

// StorageStats returns aggregate storage statistics.
func (m *Manager) StorageStats() (*StorageInfo, error) {
	count, totalBytes, err := m.store.Stats()
	if err != nil {
		return nil, err
	}
	return &StorageInfo{
		StoragePath:    m.store.Root(),
		TotalDialogs:   count,
		TotalSizeMB:    fmt.Sprintf("%.2f", float64(totalBytes)/(1024*1024)),
		TotalSizeBytes: totalBytes,
	}, nil
}

// tagsIntersect reports whether any wanted tag appears in have.
func tagsIntersect(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
