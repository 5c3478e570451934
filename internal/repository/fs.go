package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/debemdeboas/x-mcp/internal/errs"
	"github.com/debemdeboas/x-mcp/internal/model"
)

// FSDraftRepository stores each draft as <dir>/<id>.json.
type FSDraftRepository struct { // implements DraftRepository
	dir string
	now func() time.Time
}

func NewFSDraftRepository(dir string) *FSDraftRepository {
	return &FSDraftRepository{
		dir: dir,
		now: time.Now,
	}
}

func (r *FSDraftRepository) Dir() string {
	return r.dir
}

func (r *FSDraftRepository) path(id model.DraftID) string {
	return filepath.Join(r.dir, id.FileName())
}

func (r *FSDraftRepository) Create(ctx context.Context, draft *model.Draft) (model.DraftID, error) {
	const op = "create draft"

	now := r.now()
	if err := prepare(draft, now); err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", errs.Storage(op, errors.Wrapf(err, "create drafts directory %s", r.dir))
	}

	data, err := encodeDraft(draft)
	if err != nil {
		return "", errs.Storage(op, err)
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", errs.Storage(op, err)
		}

		id := model.GenerateID(draft.Kind(), now)
		err := r.writeNew(id, data)
		if errors.Is(err, ErrDraftExists) {
			repoLogger.Debug().Str("draft_id", string(id)).Msg("Draft id taken, regenerating")
			continue
		}
		if err != nil {
			return "", errs.Storage(op, err)
		}

		draft.ID = id
		repoLogger.Info().Str("draft_id", string(id)).Str("kind", string(draft.Kind())).Msg("Draft created")
		return id, nil
	}

	return "", errs.Storage(op, errors.New("could not allocate a unique draft id"))
}

// writeNew creates the file for id, failing with ErrDraftExists if it is
// already there.
func (r *FSDraftRepository) writeNew(id model.DraftID, data []byte) error {
	path := r.path(id)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return ErrDraftExists
	}
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "close %s", path)
	}
	return nil
}

func (r *FSDraftRepository) Restore(_ context.Context, id model.DraftID, draft *model.Draft) error {
	const op = "restore draft"

	if err := draft.CheckStored(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return errs.Storage(op, errors.Wrapf(err, "create drafts directory %s", r.dir))
	}
	data, err := encodeDraft(draft)
	if err != nil {
		return errs.Storage(op, err)
	}

	if err := r.writeNew(id, data); err != nil {
		if errors.Is(err, ErrDraftExists) {
			return err
		}
		return errs.Storage(op, err)
	}
	return nil
}

func (r *FSDraftRepository) List(ctx context.Context) ([]model.Entry, error) {
	const op = "list drafts"

	dirEntries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return []model.Entry{}, nil
	}
	if err != nil {
		return nil, errs.Storage(op, errors.Wrapf(err, "read drafts directory %s", r.dir))
	}

	entries := make([]model.Entry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, model.FileExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errs.Storage(op, err)
		}

		id := model.DraftID(strings.TrimSuffix(name, model.FileExt))
		data, err := os.ReadFile(filepath.Join(r.dir, name))
		if err != nil {
			return nil, errs.Storage(op, errors.Wrapf(err, "read %s", name))
		}
		draft, err := decodeDraft(id, data)
		if err != nil {
			return nil, errs.Storage(op, err)
		}
		entries = append(entries, model.Entry{ID: id, Draft: draft})
	}

	sortEntries(entries)
	return entries, nil
}

func (r *FSDraftRepository) Get(_ context.Context, id model.DraftID) (*model.Draft, error) {
	const op = "get draft"

	data, err := os.ReadFile(r.path(id))
	if os.IsNotExist(err) {
		return nil, notFound(op, id)
	}
	if err != nil {
		return nil, errs.Storage(op, errors.Wrapf(err, "read %s", id.FileName()))
	}

	draft, err := decodeDraft(id, data)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	return draft, nil
}

func (r *FSDraftRepository) Delete(_ context.Context, id model.DraftID) error {
	const op = "delete draft"

	err := os.Remove(r.path(id))
	if os.IsNotExist(err) {
		return notFound(op, id)
	}
	if err != nil {
		return errs.Storage(op, errors.Wrapf(err, "remove %s", id.FileName()))
	}

	repoLogger.Info().Str("draft_id", string(id)).Msg("Draft deleted")
	return nil
}
