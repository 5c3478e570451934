package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/x-mcp/internal/errs"
	"github.com/debemdeboas/x-mcp/internal/model"
)

var repoLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

// DraftRepository persists drafts keyed by their generated id.
type DraftRepository interface {
	// Create assigns an id and timestamp to draft, stores it and returns the id.
	Create(ctx context.Context, draft *model.Draft) (model.DraftID, error)
	List(ctx context.Context) ([]model.Entry, error)
	Get(ctx context.Context, id model.DraftID) (*model.Draft, error)
	Delete(ctx context.Context, id model.DraftID) error
}

// Restorer writes a draft under an existing id, as when copying drafts
// between backends.
type Restorer interface {
	// Restore fails with ErrDraftExists if id is already stored.
	Restore(ctx context.Context, id model.DraftID, draft *model.Draft) error
}

var ErrDraftExists = errors.New("draft already exists")

// createAttempts bounds id regeneration when a generated id is already taken.
const createAttempts = 3

func encodeDraft(d *model.Draft) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode draft")
	}
	return append(data, '\n'), nil
}

func decodeDraft(id model.DraftID, data []byte) (*model.Draft, error) {
	var d model.Draft
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrapf(err, "decode draft %s", id)
	}
	if err := d.CheckStored(); err != nil {
		return nil, errors.Wrapf(err, "draft %s is malformed", id)
	}
	d.ID = id
	return &d, nil
}

// prepare validates a new draft and stamps its creation time.
func prepare(d *model.Draft, now time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = model.Timestamp{Time: now.UTC()}
	}
	return nil
}

func sortEntries(entries []model.Entry) {
	slices.SortStableFunc(entries, func(a, b model.Entry) int {
		if c := a.Draft.Timestamp.Compare(b.Draft.Timestamp.Time); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

func notFound(op string, id model.DraftID) error {
	return errs.NotFound(op, "draft %s does not exist", id)
}
