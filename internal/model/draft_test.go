package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/debemdeboas/x-mcp/internal/errs"
)

func TestDraftKind(t *testing.T) {
	if k := NewPost("hello").Kind(); k != KindPost {
		t.Errorf("Expected post kind, got %s", k)
	}
	if k := NewThread([]string{"a", "b"}).Kind(); k != KindThread {
		t.Errorf("Expected thread kind, got %s", k)
	}
	if k := NewThread(nil).Kind(); k != KindThread {
		t.Errorf("Expected empty thread to stay a thread, got %s", k)
	}
}

func TestDraftTexts(t *testing.T) {
	if got := NewPost("solo").Texts(); !reflect.DeepEqual(got, []string{"solo"}) {
		t.Errorf("Expected [solo], got %v", got)
	}
	if got := NewThread([]string{"a", "b", "c"}).Texts(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Expected [a b c], got %v", got)
	}
}

func TestNewThreadCopiesInput(t *testing.T) {
	in := []string{"a", "b"}
	d := NewThread(in)
	in[0] = "changed"
	if d.Contents[0] != "a" {
		t.Errorf("Expected thread contents to be copied, got %v", d.Contents)
	}
}

func TestDraftCheckStored(t *testing.T) {
	tests := []struct {
		name    string
		draft   *Draft
		wantErr bool
	}{
		{"single post", NewPost("hello"), false},
		{"thread with blank entry", &Draft{Contents: []string{"a", ""}}, false},
		{"empty content", &Draft{}, false},
		{"both set", &Draft{Content: "a", Contents: []string{"b"}}, true},
		{"thread with media", &Draft{Contents: []string{"a"}, MediaPath: "/tmp/a.png"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.CheckStored()
			if tt.wantErr && !errors.Is(err, errs.ErrInvalidArgument) {
				t.Errorf("Expected invalid argument error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected stored draft to be accepted, got %v", err)
			}
		})
	}
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   *Draft
		wantErr string
	}{
		{"single post", NewPost("hello"), ""},
		{"post with media", NewPostWithMedia("look", "/tmp/a.png", "123"), ""},
		{"thread", NewThread([]string{"a", "b"}), ""},
		{"both set", &Draft{Content: "a", Contents: []string{"b"}}, "not both"},
		{"neither set", &Draft{}, "needs content or contents"},
		{"empty thread", NewThread([]string{}), "at least one entry"},
		{"blank thread entry", NewThread([]string{"a", "  "}), "entry 2 is empty"},
		{"blank content", NewPost("   "), "content is empty"},
		{"thread with media", &Draft{Contents: []string{"a"}, MediaID: "1"}, "only supported on single posts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid draft, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, errs.ErrInvalidArgument) {
				t.Errorf("Expected invalid argument error, got %v", err)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	now := time.Unix(1700000000, 0)

	post := GenerateID(KindPost, now)
	if !strings.HasPrefix(string(post), "draft_1700000000_") {
		t.Errorf("Expected post id prefix, got %s", post)
	}
	thread := GenerateID(KindThread, now)
	if !strings.HasPrefix(string(thread), "thread_draft_1700000000_") {
		t.Errorf("Expected thread id prefix, got %s", thread)
	}

	seen := make(map[DraftID]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID(KindPost, now)
		if seen[id] {
			t.Fatalf("Expected unique ids within the same second, got duplicate %s", id)
		}
		seen[id] = true
		if _, err := ParseID(string(id)); err != nil {
			t.Fatalf("Expected generated id to parse, got %v", err)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    DraftID
		wantErr bool
	}{
		{"draft_1700000000_abcd1234", "draft_1700000000_abcd1234", false},
		{"draft_1700000000.json", "draft_1700000000", false},
		{"  thread_draft_1  ", "thread_draft_1", false},
		{"", "", true},
		{".json", "", true},
		{"../etc/passwd", "", true},
		{"a/b", "", true},
		{`a\b`, "", true},
		{".hidden", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseID(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, errs.ErrInvalidArgument) {
					t.Errorf("Expected invalid argument error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDraftFileName(t *testing.T) {
	if got := DraftID("draft_1").FileName(); got != "draft_1.json" {
		t.Errorf("Expected draft_1.json, got %s", got)
	}
}

func TestDraftJSON(t *testing.T) {
	t.Run("Single post layout", func(t *testing.T) {
		d := NewPostWithMedia("hi", "/tmp/cat.png", "987")
		d.ID = "draft_1"
		d.Timestamp = Timestamp{time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)}

		data, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}
		want := `{"content":"hi","media_path":"/tmp/cat.png","media_id":"987","timestamp":"2024-05-01T12:30:00Z"}`
		if string(data) != want {
			t.Errorf("Expected %s, got %s", want, data)
		}
	})

	t.Run("Thread layout", func(t *testing.T) {
		d := NewThread([]string{"a", "b"})
		d.Timestamp = Timestamp{time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)}

		data, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}
		want := `{"contents":["a","b"],"timestamp":"2024-05-01T12:30:00Z"}`
		if string(data) != want {
			t.Errorf("Expected %s, got %s", want, data)
		}
	})

	t.Run("Reads zone-less timestamps", func(t *testing.T) {
		var d Draft
		if err := json.Unmarshal([]byte(`{"content":"old","timestamp":"2024-05-01T12:30:45.123456"}`), &d); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}
		want := time.Date(2024, 5, 1, 12, 30, 45, 123456000, time.UTC)
		if !d.Timestamp.Equal(want) {
			t.Errorf("Expected %v, got %v", want, d.Timestamp.Time)
		}
		if d.Kind() != KindPost || d.Content != "old" {
			t.Errorf("Expected legacy single post, got %+v", d)
		}
	})

	t.Run("Rejects garbage timestamps", func(t *testing.T) {
		var d Draft
		if err := json.Unmarshal([]byte(`{"content":"x","timestamp":"yesterday"}`), &d); err == nil {
			t.Error("Expected timestamp parse error")
		}
	})
}
