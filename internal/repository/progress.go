package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/debemdeboas/x-mcp/internal/db"
	"github.com/debemdeboas/x-mcp/internal/errs"
	"github.com/debemdeboas/x-mcp/internal/model"
)

// ProgressRepository records which entries of a draft are already live on the
// platform, so an interrupted publish can resume where it stopped.
type ProgressRepository interface {
	// Published returns the post ids recorded for id, in position order.
	Published(ctx context.Context, id model.DraftID) ([]model.PostID, error)
	Record(ctx context.Context, id model.DraftID, position int, postID model.PostID) error
	Clear(ctx context.Context, id model.DraftID) error
}

type DbProgressRepository struct { // implements ProgressRepository
	db db.Db
}

func NewDbProgressRepository(db db.Db) *DbProgressRepository {
	return &DbProgressRepository{db: db}
}

func (r *DbProgressRepository) Published(ctx context.Context, id model.DraftID) ([]model.PostID, error) {
	const op = "read publish progress"

	rows, err := r.db.QueryContext(ctx,
		`SELECT position, post_id FROM publish_progress WHERE draft_id = ? ORDER BY position`,
		string(id),
	)
	if err != nil {
		return nil, errs.Storage(op, errors.Wrap(err, "query publish_progress"))
	}
	defer rows.Close()

	var ids []model.PostID
	for rows.Next() {
		var position int
		var postID string
		if err := rows.Scan(&position, &postID); err != nil {
			return nil, errs.Storage(op, errors.Wrap(err, "scan publish_progress"))
		}
		if position != len(ids) {
			return nil, errs.Storage(op, errors.Errorf("draft %s has a gap in publish progress at position %d", id, len(ids)))
		}
		ids = append(ids, model.PostID(postID))
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage(op, errors.Wrap(err, "iterate publish_progress"))
	}
	return ids, nil
}

func (r *DbProgressRepository) Record(ctx context.Context, id model.DraftID, position int, postID model.PostID) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO publish_progress (draft_id, position, post_id) VALUES (?, ?, ?)`,
		string(id), position, string(postID),
	)
	if err != nil {
		return errs.Storage("record publish progress", errors.Wrap(err, "insert publish_progress"))
	}

	repoLogger.Debug().Interface("result", res).Str("draft_id", string(id)).Int("position", position).Msg("Publish progress recorded")
	return nil
}

func (r *DbProgressRepository) Clear(ctx context.Context, id model.DraftID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM publish_progress WHERE draft_id = ?`, string(id)); err != nil {
		return errs.Storage("clear publish progress", errors.Wrap(err, "delete publish_progress"))
	}
	return nil
}

// MemoryProgressRepository keeps progress for the life of the process only.
type MemoryProgressRepository struct { // implements ProgressRepository
	mu    sync.Mutex
	posts map[model.DraftID][]model.PostID
}

func NewMemoryProgressRepository() *MemoryProgressRepository {
	return &MemoryProgressRepository{posts: make(map[model.DraftID][]model.PostID)}
}

func (m *MemoryProgressRepository) Published(_ context.Context, id model.DraftID) ([]model.PostID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.posts[id]), nil
}

func (m *MemoryProgressRepository) Record(_ context.Context, id model.DraftID, position int, postID model.PostID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.posts[id]
	switch {
	case position < len(ids):
		ids[position] = postID
	case position == len(ids):
		ids = append(ids, postID)
	default:
		return errs.Storage("record publish progress", errors.Errorf("position %d skips ahead of %d recorded posts", position, len(ids)))
	}
	m.posts[id] = ids
	return nil
}

func (m *MemoryProgressRepository) Clear(_ context.Context, id model.DraftID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, id)
	return nil
}
