package dialog

import (
	"encoding/json"
	"testing"
	"time"
)

var testTime = time.Date(2026, 8, 25, 14, 15, 3, 0, time.UTC)

func TestNewFreeForm_DerivedCounts(t *testing.T) {
	d := NewFreeForm("20260825_141503", "Notes", "hello world foo", nil, nil, testTime)
	if d.WordCount != 3 {
		t.Errorf("expected word_count 3, got %d", d.WordCount)
	}
	if d.CharCount != 15 {
		t.Errorf("expected char_count 15, got %d", d.CharCount)
	}
	if d.Variant() != FreeForm {
		t.Errorf("expected free_form variant, got %q", d.Variant())
	}
	if d.Timestamp != "2026-08-25T14:15:03Z" {
		t.Errorf("unexpected timestamp %q", d.Timestamp)
	}
}

func TestNewFreeForm_CountsRunesNotBytes(t *testing.T) {
	d := NewFreeForm("20260825_141503", "", "héllo 世界", nil, nil, testTime)
	if d.CharCount != 8 {
		t.Errorf("expected char_count 8 (runes), got %d", d.CharCount)
	}
	if d.WordCount != 2 {
		t.Errorf("expected word_count 2, got %d", d.WordCount)
	}
}

func TestNewFreeForm_EmptyContent(t *testing.T) {
	d := NewFreeForm("20260825_141503", "", "", nil, nil, testTime)
	if d.WordCount != 0 || d.CharCount != 0 {
		t.Errorf("expected 0/0 counts for empty content, got %d/%d", d.WordCount, d.CharCount)
	}
	if d.Title != "Dialog 20260825_141503" {
		t.Errorf("expected default title, got %q", d.Title)
	}
	if d.Tags == nil {
		t.Error("expected non-nil tags")
	}
	if d.Metadata == nil {
		t.Error("expected non-nil metadata")
	}
}

func TestNewStructured_FormattedContent(t *testing.T) {
	d := NewStructured("20260825_141503", "", []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hey"},
	}, nil, testTime)

	want := "[USER]: hi\n\n[ASSISTANT]: hey"
	if d.FormattedContent != want {
		t.Errorf("formatted_content = %q, want %q", d.FormattedContent, want)
	}
	if d.MessageCount != 2 {
		t.Errorf("expected message_count 2, got %d", d.MessageCount)
	}
	if d.TotalWords != 4 {
		t.Errorf("expected total_words 4, got %d", d.TotalWords)
	}
	if d.Title != "Conversation 20260825_141503" {
		t.Errorf("expected default title, got %q", d.Title)
	}
	if d.Variant() != Structured {
		t.Errorf("expected structured variant, got %q", d.Variant())
	}
}

func TestFormatMessages_MissingRole(t *testing.T) {
	got := FormatMessages([]Message{{Content: "orphan"}})
	if got != "[UNKNOWN]: orphan" {
		t.Errorf("got %q", got)
	}
}

func TestMarshal_FreeFormOmitsStructuredFields(t *testing.T) {
	d := NewFreeForm("20260825_141503", "T", "some text", []string{"a"}, nil, testTime)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["content"]; !ok {
		t.Error("expected content field")
	}
	if _, ok := raw["messages"]; ok {
		t.Error("free-form record must not carry messages")
	}
	if _, ok := raw["word_count"]; !ok {
		t.Error("expected word_count field")
	}
}

func TestMarshal_StructuredOmitsFreeFormFields(t *testing.T) {
	d := NewStructured("20260825_141503", "T", []Message{{Role: "user", Content: "hi"}}, nil, testTime)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["messages"]; !ok {
		t.Error("expected messages field")
	}
	if _, ok := raw["content"]; ok {
		t.Error("structured record must not carry content")
	}
	if _, ok := raw["metadata"]; ok {
		t.Error("structured record must not carry metadata")
	}
}

func TestUnmarshal_LegacyFreeFormRecord(t *testing.T) {
	raw := `{
  "id": "20240101_090000",
  "title": "Old dialog",
  "content": "kept from before",
  "timestamp": "2024-01-01T09:00:00",
  "tags": ["legacy"],
  "metadata": {"source": "import"},
  "word_count": 3,
  "char_count": 16
}`
	var d Dialog
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Variant() != FreeForm {
		t.Errorf("expected free_form, got %q", d.Variant())
	}
	if d.Content != "kept from before" {
		t.Errorf("content = %q", d.Content)
	}
	if d.WordCount != 3 {
		t.Errorf("word_count = %d", d.WordCount)
	}
	if d.Metadata["source"] != "import" {
		t.Errorf("metadata = %+v", d.Metadata)
	}
}

func TestUnmarshal_StructuredRoundTrip(t *testing.T) {
	orig := NewStructured("20260825_141503", "Chat", []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hey"},
	}, []string{"x"}, testTime)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var d Dialog
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Variant() != Structured {
		t.Errorf("expected structured, got %q", d.Variant())
	}
	if len(d.Messages) != 2 || d.Messages[1].Content != "hey" {
		t.Errorf("messages = %+v", d.Messages)
	}
	if d.FormattedContent != orig.FormattedContent {
		t.Errorf("formatted_content = %q", d.FormattedContent)
	}
	if d.TotalWords != orig.TotalWords {
		t.Errorf("total_words = %d", d.TotalWords)
	}
}

func TestUnmarshal_MissingID(t *testing.T) {
	var d Dialog
	err := json.Unmarshal([]byte(`{"title": "no id", "content": "x"}`), &d)
	if err == nil {
		t.Error("expected error for record without id")
	}
}

func TestUnmarshal_NilTagsNormalized(t *testing.T) {
	var d Dialog
	if err := json.Unmarshal([]byte(`{"id": "20240101_090000", "content": "x"}`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Tags == nil {
		t.Error("expected non-nil tags after decode")
	}
}

func TestBody(t *testing.T) {
	ff := NewFreeForm("20260825_141503", "", "plain", nil, nil, testTime)
	if ff.Body() != "plain" {
		t.Errorf("free-form body = %q", ff.Body())
	}
	st := NewStructured("20260825_141504", "", []Message{{Role: "user", Content: "hi"}}, nil, testTime)
	if st.Body() != "[USER]: hi" {
		t.Errorf("structured body = %q", st.Body())
	}
}
