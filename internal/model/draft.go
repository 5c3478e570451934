// Package model defines the draft record shared by the store, the publisher
// and the tool handlers.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/debemdeboas/x-mcp/internal/errs"
)

type DraftID string

// PostID is the identifier the platform assigns to a published post.
type PostID string

type Kind string

const (
	KindPost   Kind = "post"
	KindThread Kind = "thread"
)

// FileExt is appended to a draft id to form its storage key.
const FileExt = ".json"

// Draft is a pending single post or thread. Exactly one of Content and
// Contents is set. The ID is not serialized; it is the storage key.
type Draft struct {
	ID DraftID `json:"-"`

	Content   string `json:"content,omitempty"`
	MediaPath string `json:"media_path,omitempty"`
	MediaID   string `json:"media_id,omitempty"`

	Contents []string `json:"contents,omitempty"`

	Timestamp Timestamp `json:"timestamp"`
}

func NewPost(content string) *Draft {
	return &Draft{Content: content}
}

func NewPostWithMedia(content, mediaPath, mediaID string) *Draft {
	return &Draft{Content: content, MediaPath: mediaPath, MediaID: mediaID}
}

func NewThread(contents []string) *Draft {
	c := make([]string, len(contents))
	copy(c, contents)
	return &Draft{Contents: c}
}

func (d *Draft) Kind() Kind {
	if d.Contents != nil {
		return KindThread
	}
	return KindPost
}

// Texts returns the post bodies in publish order.
func (d *Draft) Texts() []string {
	if d.Kind() == KindThread {
		return d.Contents
	}
	return []string{d.Content}
}

// CheckStored accepts any draft an earlier version could have written: the
// kind must be unambiguous, but entries may be empty.
func (d *Draft) CheckStored() error {
	const op = "check stored draft"

	switch {
	case d.Content != "" && d.Contents != nil:
		return errs.InvalidArgument(op, "a draft has either content or contents, not both")
	case d.Contents != nil && (d.MediaID != "" || d.MediaPath != ""):
		return errs.InvalidArgument(op, "media is only supported on single posts")
	}
	return nil
}

// Validate enforces the draft shape invariants. New drafts and publishes
// are held to it; stored drafts only to CheckStored.
func (d *Draft) Validate() error {
	const op = "validate draft"

	hasContent := d.Content != ""
	hasContents := d.Contents != nil

	switch {
	case hasContent && hasContents:
		return errs.InvalidArgument(op, "a draft has either content or contents, not both")
	case !hasContent && !hasContents:
		return errs.InvalidArgument(op, "a draft needs content or contents")
	}

	if hasContents {
		if len(d.Contents) == 0 {
			return errs.InvalidArgument(op, "a thread needs at least one entry")
		}
		for i, c := range d.Contents {
			if strings.TrimSpace(c) == "" {
				return errs.InvalidArgument(op, "thread entry %d is empty", i+1)
			}
		}
		if d.MediaID != "" || d.MediaPath != "" {
			return errs.InvalidArgument(op, "media is only supported on single posts")
		}
		return nil
	}

	if strings.TrimSpace(d.Content) == "" {
		return errs.InvalidArgument(op, "content is empty")
	}
	return nil
}

// GenerateID returns a new timestamp-derived id. The random suffix keeps two
// drafts created in the same second apart.
func GenerateID(kind Kind, now time.Time) DraftID {
	prefix := "draft"
	if kind == KindThread {
		prefix = "thread_draft"
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return DraftID(fmt.Sprintf("%s_%d_%s", prefix, now.Unix(), suffix))
}

// ParseID accepts a caller-supplied handle, with or without the file
// extension, and rejects anything that could escape the drafts directory.
func ParseID(raw string) (DraftID, error) {
	const op = "parse draft id"

	id := strings.TrimSuffix(strings.TrimSpace(raw), FileExt)
	switch {
	case id == "":
		return "", errs.InvalidArgument(op, "draft id is empty")
	case strings.ContainsAny(id, `/\`), strings.Contains(id, ".."), strings.HasPrefix(id, "."):
		return "", errs.InvalidArgument(op, "invalid draft id %q", raw)
	}
	return DraftID(id), nil
}

func (id DraftID) FileName() string {
	return string(id) + FileExt
}

// Entry is one element of a draft listing.
type Entry struct {
	ID    DraftID `json:"id"`
	Draft *Draft  `json:"draft"`
}

// Timestamp marshals as RFC 3339 and also reads the zone-less ISO 8601 form
// written by older drafts.
type Timestamp struct {
	time.Time
}

var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	var parseErr error
	for _, format := range timestampFormats {
		parsed, err := time.Parse(format, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		parseErr = err
	}
	return fmt.Errorf("timestamp %q: %w", s, parseErr)
}
