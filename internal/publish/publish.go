// Package publish turns stored drafts into live posts.
package publish

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/x-mcp/internal/errs"
	"github.com/debemdeboas/x-mcp/internal/lock"
	"github.com/debemdeboas/x-mcp/internal/metrics"
	"github.com/debemdeboas/x-mcp/internal/model"
	"github.com/debemdeboas/x-mcp/internal/repository"
)

// Poster creates one post on the platform. replyTo is empty for a root post.
type Poster interface {
	CreatePost(ctx context.Context, text string, replyTo model.PostID, mediaIDs []string) (model.PostID, error)
}

// Pacer blocks between successive posts of one publish.
type Pacer interface {
	// Wait blocks until the next post may start.
	Wait(ctx context.Context) error
	// Mark records that a post just finished.
	Mark()
}

// Result describes a completed publish.
type Result struct {
	DraftID model.DraftID
	Kind    model.Kind
	PostIDs []model.PostID
	RootID  model.PostID
}

type Publisher struct {
	store    repository.DraftRepository
	progress repository.ProgressRepository
	poster   Poster
	locks    *lock.Keyed[model.DraftID]
	newPacer func() Pacer
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

type Option func(*Publisher)

// WithInterval pauses interval between the end of one thread post and the
// start of the next.
func WithInterval(interval time.Duration) Option {
	return func(p *Publisher) {
		p.newPacer = func() Pacer { return NewRatePacer(interval) }
	}
}

// WithPacer uses newPacer to build the pacer of each publish.
func WithPacer(newPacer func() Pacer) Option {
	return func(p *Publisher) {
		p.newPacer = newPacer
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Publisher) {
		p.logger = l
	}
}

func New(store repository.DraftRepository, progress repository.ProgressRepository, poster Poster, opts ...Option) *Publisher {
	p := &Publisher{
		store:    store,
		progress: progress,
		poster:   poster,
		locks:    lock.NewKeyed[model.DraftID](),
		logger:   zerolog.Nop(),
	}
	WithInterval(time.Second)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish posts the draft and deletes it once every post is live. A thread
// that fails part way keeps its draft; publishing it again continues after
// the last post that went out.
func (p *Publisher) Publish(ctx context.Context, id model.DraftID) (Result, error) {
	unlock := p.locks.Lock(id)
	defer unlock()

	draft, err := p.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if err := draft.Validate(); err != nil {
		return Result{}, err
	}

	res, err := p.publish(ctx, draft)
	p.metrics.ObservePublish(string(draft.Kind()), err)
	return res, err
}

func (p *Publisher) publish(ctx context.Context, draft *model.Draft) (Result, error) {
	const op = "publish draft"
	log := p.logger.With().Str("draft_id", string(draft.ID)).Str("kind", string(draft.Kind())).Logger()

	texts := draft.Texts()
	posted, err := p.progress.Published(ctx, draft.ID)
	if err != nil {
		return Result{}, err
	}
	if len(posted) > len(texts) {
		return Result{}, errs.Storage(op, errors.Errorf("draft %s has %d recorded posts but only %d entries", draft.ID, len(posted), len(texts)))
	}
	if len(posted) > 0 {
		log.Info().Int("already_published", len(posted)).Msg("Resuming publish")
	}

	var mediaIDs []string
	if draft.MediaID != "" {
		mediaIDs = []string{draft.MediaID}
	}

	pacer := p.newPacer()
	for i := len(posted); i < len(texts); i++ {
		var replyTo model.PostID
		if i > 0 {
			if err := pacer.Wait(ctx); err != nil {
				return Result{}, errs.Post(op, errors.Wrapf(err, "wait before post %d of %d", i+1, len(texts)))
			}
			replyTo = posted[i-1]
		}

		postID, err := p.poster.CreatePost(ctx, texts[i], replyTo, mediaIDs)
		if err != nil {
			log.Warn().Err(err).Int("position", i).Int("published", len(posted)).Msg("Post failed, keeping draft")
			return Result{}, errs.Post(op, errors.Wrapf(err, "post %d of %d", i+1, len(texts)))
		}
		pacer.Mark()
		p.metrics.ObservePost()

		if err := p.progress.Record(ctx, draft.ID, i, postID); err != nil {
			return Result{}, err
		}
		posted = append(posted, postID)
		log.Debug().Int("position", i).Str("post_id", string(postID)).Msg("Post published")
	}

	if err := p.store.Delete(ctx, draft.ID); err != nil {
		return Result{}, err
	}
	if err := p.progress.Clear(ctx, draft.ID); err != nil {
		log.Warn().Err(err).Msg("Failed to clear publish progress")
	}

	log.Info().Str("root_id", string(posted[0])).Int("posts", len(posted)).Msg("Draft published")
	return Result{
		DraftID: draft.ID,
		Kind:    draft.Kind(),
		PostIDs: posted,
		RootID:  posted[0],
	}, nil
}

// Delete removes a draft without publishing it, along with any partial
// publish progress.
func (p *Publisher) Delete(ctx context.Context, id model.DraftID) error {
	unlock := p.locks.Lock(id)
	defer unlock()

	if err := p.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := p.progress.Clear(ctx, id); err != nil {
		p.logger.Warn().Err(err).Str("draft_id", string(id)).Msg("Failed to clear publish progress")
	}
	return nil
}
