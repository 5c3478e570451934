package repository

import (
	"context"
	"sync"
	"time"

	"github.com/debemdeboas/x-mcp/internal/model"
)

// MemoryDraftRepository keeps drafts in process memory. Stored drafts are
// copies, so callers cannot mutate them after creation.
type MemoryDraftRepository struct { // implements DraftRepository
	drafts sync.Map
	now    func() time.Time
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{now: time.Now}
}

func cloneDraft(d *model.Draft) *model.Draft {
	c := *d
	if d.Contents != nil {
		c.Contents = append(make([]string, 0, len(d.Contents)), d.Contents...)
	}
	return &c
}

func (m *MemoryDraftRepository) Create(_ context.Context, draft *model.Draft) (model.DraftID, error) {
	now := m.now()
	if err := prepare(draft, now); err != nil {
		return "", err
	}

	for {
		id := model.GenerateID(draft.Kind(), now)
		stored := cloneDraft(draft)
		stored.ID = id
		if _, loaded := m.drafts.LoadOrStore(id, stored); loaded {
			continue
		}
		draft.ID = id
		return id, nil
	}
}

func (m *MemoryDraftRepository) List(_ context.Context) ([]model.Entry, error) {
	entries := make([]model.Entry, 0)
	m.drafts.Range(func(key, value any) bool {
		entries = append(entries, model.Entry{ID: key.(model.DraftID), Draft: cloneDraft(value.(*model.Draft))})
		return true
	})
	sortEntries(entries)
	return entries, nil
}

func (m *MemoryDraftRepository) Get(_ context.Context, id model.DraftID) (*model.Draft, error) {
	if draft, ok := m.drafts.Load(id); ok {
		return cloneDraft(draft.(*model.Draft)), nil
	}
	return nil, notFound("get draft", id)
}

func (m *MemoryDraftRepository) Delete(_ context.Context, id model.DraftID) error {
	if _, loaded := m.drafts.LoadAndDelete(id); !loaded {
		return notFound("delete draft", id)
	}
	return nil
}

func (m *MemoryDraftRepository) Restore(_ context.Context, id model.DraftID, draft *model.Draft) error {
	if err := draft.CheckStored(); err != nil {
		return err
	}
	stored := cloneDraft(draft)
	stored.ID = id
	if _, loaded := m.drafts.LoadOrStore(id, stored); loaded {
		return ErrDraftExists
	}
	return nil
}
