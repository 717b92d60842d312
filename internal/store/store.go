// Package store owns the on-disk directory of dialog records: one JSON file
// per dialog under a single storage root, named <id>.json. It provides id
// generation, atomic writes, keyed reads and deletes, and mtime-ordered
// enumeration. No other component writes to the root.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/dialogkeep/dialogkeep/internal/dialog"
)

const recordExt = ".json"

// idPattern is the allow list for externally supplied ids: exactly the shapes
// GenerateID produces. Anything else is rejected before touching the path.
var idPattern = regexp.MustCompile(`^\d{8}_\d{6}(_\d+)?$`)

// Store is a keyed file store for dialog records rooted at a single
// directory. The mutex only guards id generation; read-modify-write sequences
// across operations are not locked, so concurrent writers to the same id are
// last-writer-wins.
type Store struct {
	root string

	mu        sync.Mutex
	lastStamp string
	seq       int

	now func() time.Time // test hook
}

// Entry is one record file found during enumeration.
type Entry struct {
	Path    string
	ModTime time.Time
}

// New creates a store rooted at root, creating the directory if needed.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{root: root, now: time.Now}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string { return s.root }

// GenerateID returns a new unique id derived from the current wall-clock
// time at second granularity (YYYYMMDD_HHMMSS). Ids created at least one
// second apart sort in creation order as plain strings. Within the same
// second a _NN sequence suffix keeps ids unique instead of overwriting.
func (s *Store) GenerateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().Format("20060102_150405")
	if stamp == s.lastStamp {
		s.seq++
		return fmt.Sprintf("%s_%02d", stamp, s.seq)
	}
	s.lastStamp = stamp
	s.seq = 1
	return stamp
}

// ValidateID rejects ids that do not match the generator's format.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// PathFor maps a validated id to its record file path.
func (s *Store) PathFor(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.root, id+recordExt), nil
}

// Write serializes the dialog and atomically replaces its record file,
// writing to a temp file in the root and renaming into place. Returns the
// path written.
func (s *Store) Write(d *dialog.Dialog) (string, error) {
	path, err := s.PathFor(d.ID)
	if err != nil {
		return "", err
	}

	// Keep non-ASCII literal in the file; no HTML escaping.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return "", fmt.Errorf("marshal dialog %s: %w", d.ID, err)
	}

	tmp, err := os.CreateTemp(s.root, ".dialog-*.tmp")
	if err != nil {
		return "", fmt.Errorf("write dialog %s: %w", d.ID, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write dialog %s: %w", d.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write dialog %s: %w", d.ID, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write dialog %s: %w", d.ID, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write dialog %s: %w", d.ID, err)
	}
	return path, nil
}

// Read loads a record by id.
func (s *Store) Read(id string) (*dialog.Dialog, error) {
	path, err := s.PathFor(id)
	if err != nil {
		return nil, err
	}
	return s.ReadPath(path)
}

// ReadPath loads a record file directly. Missing files map to ErrNotFound,
// undecodable content to ErrParse.
func (s *Store) ReadPath(path string) (*dialog.Dialog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("dialog %s: %w", idFromPath(path), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read dialog: %w", err)
	}

	var d dialog.Dialog
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("dialog %s: %w: %v", idFromPath(path), ErrParse, err)
	}
	return &d, nil
}

// Delete removes a record file. There is no soft delete.
func (s *Store) Delete(id string) error {
	path, err := s.PathFor(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("dialog %s: %w", id, ErrNotFound)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete dialog %s: %w", id, err)
	}
	return nil
}

// Enumerate lists every record file under the root ordered by modification
// time, most recently modified first. Updating a record therefore moves it to
// the front of the listing.
func (s *Store) Enumerate() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("scan storage dir: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != recordExt {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Path:    filepath.Join(s.root, de.Name()),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		return entries[i].Path > entries[j].Path
	})
	return entries, nil
}

// Stats returns the record count and total byte size across all record files.
func (s *Store) Stats() (count int, totalBytes int64, err error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, 0, fmt.Errorf("scan storage dir: %w", err)
	}
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != recordExt {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		count++
		totalBytes += info.Size()
	}
	return count, totalBytes, nil
}

// idFromPath recovers the id stem from a record file path (for error text).
func idFromPath(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
