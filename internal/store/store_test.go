package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dialogkeep/dialogkeep/internal/dialog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "dialogs")
	if _, err := New(root); err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected root directory to exist, err=%v", err)
	}
}

func TestGenerateID_Format(t *testing.T) {
	s := newTestStore(t)
	id := s.GenerateID()
	if err := ValidateID(id); err != nil {
		t.Errorf("generated id %q fails validation: %v", id, err)
	}
	if len(id) != 15 {
		t.Errorf("expected bare YYYYMMDD_HHMMSS id, got %q", id)
	}
}

func TestGenerateID_SameSecondSuffix(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	id1 := s.GenerateID()
	id2 := s.GenerateID()
	id3 := s.GenerateID()

	if id1 != "20260825_120000" {
		t.Errorf("id1 = %q", id1)
	}
	if id2 != "20260825_120000_02" {
		t.Errorf("id2 = %q", id2)
	}
	if id3 != "20260825_120000_03" {
		t.Errorf("id3 = %q", id3)
	}
	if !(id1 < id2 && id2 < id3) {
		t.Errorf("ids not sorted: %q %q %q", id1, id2, id3)
	}
	for _, id := range []string{id1, id2, id3} {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q): %v", id, err)
		}
	}

	// Next second resets the sequence.
	s.now = func() time.Time { return fixed.Add(time.Second) }
	if id := s.GenerateID(); id != "20260825_120001" {
		t.Errorf("next-second id = %q", id)
	}
}

func TestValidateID_RejectsBadIDs(t *testing.T) {
	bad := []string{
		"",
		"foo",
		"20260825",
		"../../etc/passwd",
		"20260825_120000/../x",
		"20260825_120000.json",
	}
	for _, id := range bad {
		if err := ValidateID(id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("ValidateID(%q) = %v, want ErrInvalidID", id, err)
		}
	}

	s := newTestStore(t)
	if _, err := s.PathFor("../escape"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("PathFor accepted traversal id: %v", err)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	id := s.GenerateID()
	d := dialog.NewFreeForm(id, "Röund trip", "héllo 世界 <tag>", []string{"t1"}, map[string]any{"k": "v"}, time.Now())

	path, err := s.Write(d)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != id+".json" {
		t.Errorf("unexpected record path %q", path)
	}

	got, err := s.Read(id)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Content != d.Content {
		t.Errorf("content = %q, want %q", got.Content, d.Content)
	}
	if got.Title != "Röund trip" {
		t.Errorf("title = %q", got.Title)
	}

	// Non-ASCII stays literal in the file, no escaping.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(raw), "世界") {
		t.Error("expected literal UTF-8 in record file")
	}
	if !strings.Contains(string(raw), "<tag>") {
		t.Error("expected unescaped angle brackets in record file")
	}
}

func TestWrite_OverwritesExisting(t *testing.T) {
	s := newTestStore(t)
	id := s.GenerateID()
	d := dialog.NewFreeForm(id, "v1", "one", nil, nil, time.Now())
	if _, err := s.Write(d); err != nil {
		t.Fatalf("Write: %v", err)
	}
	d.Title = "v2"
	if _, err := s.Write(d); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	got, err := s.Read(id)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Title != "v2" {
		t.Errorf("title = %q, want v2", got.Title)
	}
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	id := s.GenerateID()
	if _, err := s.Write(dialog.NewFreeForm(id, "", "x", nil, nil, time.Now())); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover temp file %q", e.Name())
		}
	}
}

func TestRead_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Read("20260825_120000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRead_ParseError(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.Root(), "20260825_120000.json")
	os.WriteFile(path, []byte("{truncated"), 0644)

	_, err := s.Read("20260825_120000")
	if !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}

	// Valid JSON but not a record (missing id) is also a parse failure.
	os.WriteFile(path, []byte(`{"title": "x"}`), 0644)
	if _, err := s.Read("20260825_120000"); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse for missing id, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	id := s.GenerateID()
	if _, err := s.Write(dialog.NewFreeForm(id, "", "x", nil, nil, time.Now())); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestEnumerate_OrdersByModTimeDesc(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().Add(-time.Hour)

	ids := []string{"20260825_100000", "20260825_100001", "20260825_100002"}
	for i, id := range ids {
		path, err := s.Write(dialog.NewFreeForm(id, "", "x", nil, nil, time.Now()))
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		mt := base.Add(time.Duration(i) * time.Minute)
		os.Chtimes(path, mt, mt)
	}

	entries, err := s.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if filepath.Base(entries[0].Path) != "20260825_100002.json" {
		t.Errorf("newest first, got %q", entries[0].Path)
	}
	if filepath.Base(entries[2].Path) != "20260825_100000.json" {
		t.Errorf("oldest last, got %q", entries[2].Path)
	}

	// Touching the oldest record moves it to the front.
	oldest := filepath.Join(s.Root(), "20260825_100000.json")
	now := time.Now()
	os.Chtimes(oldest, now, now)
	entries, err = s.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if entries[0].Path != oldest {
		t.Errorf("expected touched record first, got %q", entries[0].Path)
	}
}

func TestEnumerate_IgnoresForeignFiles(t *testing.T) {
	s := newTestStore(t)
	id := s.GenerateID()
	if _, err := s.Write(dialog.NewFreeForm(id, "", "x", nil, nil, time.Now())); err != nil {
		t.Fatalf("Write: %v", err)
	}
	os.WriteFile(filepath.Join(s.Root(), id+".md"), []byte("# export"), 0644)
	os.WriteFile(filepath.Join(s.Root(), ".dialog-zzz.tmp"), []byte("junk"), 0644)

	entries, err := s.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	var want int64
	for _, id := range []string{"20260825_100000", "20260825_100001"} {
		path, err := s.Write(dialog.NewFreeForm(id, "", strings.Repeat("word ", 10), nil, nil, time.Now()))
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		want += info.Size()
	}

	count, totalBytes, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if totalBytes != want {
		t.Errorf("totalBytes = %d, want %d", totalBytes, want)
	}
}
