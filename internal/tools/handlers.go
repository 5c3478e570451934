package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/x-mcp/internal/errs"
	"github.com/debemdeboas/x-mcp/internal/metrics"
	"github.com/debemdeboas/x-mcp/internal/model"
	"github.com/debemdeboas/x-mcp/internal/publish"
	"github.com/debemdeboas/x-mcp/internal/repository"
)

type Publisher interface {
	Publish(ctx context.Context, id model.DraftID) (publish.Result, error)
	Delete(ctx context.Context, id model.DraftID) error
}

type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Handlers holds the collaborators shared by every tool.
type Handlers struct {
	store     repository.DraftRepository
	publisher Publisher
	uploader  Uploader
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewHandlers(store repository.DraftRepository, publisher Publisher, uploader Uploader, m *metrics.Metrics, logger zerolog.Logger) *Handlers {
	return &Handlers{
		store:     store,
		publisher: publisher,
		uploader:  uploader,
		metrics:   m,
		logger:    logger,
	}
}

// ToolError is the failure returned to the calling agent. Err keeps the
// categorized cause.
type ToolError struct {
	Doing string
	Err   error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("Error %s: %s", e.Doing, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Dispatch validates raw against op's declared fields and runs its handler.
func (h *Handlers) Dispatch(ctx context.Context, op Operation, raw any) (string, error) {
	def, ok := definitions[op]
	if !ok {
		return "", errs.InvalidArgument("dispatch", "unknown tool: %d", int(op))
	}

	log := h.logger.With().Str("tool", op.String()).Logger()

	a, err := validate(op, raw)
	if err == nil {
		var text string
		text, err = def.handle(h, ctx, a)
		if err == nil {
			h.metrics.ObserveTool(op.String(), nil)
			log.Debug().Msg("Tool call succeeded")
			return text, nil
		}
	}

	h.metrics.ObserveTool(op.String(), err)
	doing := strings.TrimSpace(def.doing(a))
	log.Error().Err(err).Str("kind", errs.KindOf(err).String()).Msgf("Error %s", doing)
	return "", &ToolError{Doing: doing, Err: err}
}

func (h *Handlers) createDraftTweet(ctx context.Context, a args) (string, error) {
	draft := model.NewPost(a.str("content"))
	if err := draft.Validate(); err != nil {
		return "", err
	}

	id, err := h.store.Create(ctx, draft)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Draft tweet created with ID %s", id), nil
}

func (h *Handlers) createDraftThread(ctx context.Context, a args) (string, error) {
	draft := model.NewThread(a.strs("contents"))
	if err := draft.Validate(); err != nil {
		return "", err
	}

	id, err := h.store.Create(ctx, draft)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Draft thread created with ID %s", id), nil
}

func (h *Handlers) listDrafts(ctx context.Context, _ args) (string, error) {
	entries, err := h.store.List(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", errs.Storage("list drafts", errors.Wrap(err, "encode listing"))
	}
	return string(data), nil
}

func (h *Handlers) publishDraft(ctx context.Context, a args) (string, error) {
	id, err := model.ParseID(a.str("draft_id"))
	if err != nil {
		return "", err
	}

	res, err := h.publisher.Publish(ctx, id)
	if err != nil {
		return "", err
	}

	if res.Kind == model.KindPost {
		return fmt.Sprintf("Draft %s published as tweet ID %s", id, res.RootID), nil
	}

	ids := make([]string, len(res.PostIDs))
	for i, pid := range res.PostIDs {
		ids[i] = string(pid)
	}
	return fmt.Sprintf("Draft %s published as thread starting with tweet ID %s (%d posts: %s)",
		id, res.RootID, len(ids), strings.Join(ids, ", ")), nil
}

func (h *Handlers) deleteDraft(ctx context.Context, a args) (string, error) {
	id, err := model.ParseID(a.str("draft_id"))
	if err != nil {
		return "", err
	}

	if err := h.publisher.Delete(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully deleted draft %s", id), nil
}

func (h *Handlers) uploadMediaAndTweet(ctx context.Context, a args) (string, error) {
	path, text := a.str("media_path"), a.str("tweet_text")

	// Reject bad text before spending an upload on it.
	if err := model.NewPost(text).Validate(); err != nil {
		return "", err
	}
	if strings.TrimSpace(path) == "" {
		return "", errs.InvalidArgument("upload media", "media_path is empty")
	}

	mediaID, err := h.uploader.Upload(ctx, path)
	if err != nil {
		return "", err
	}

	id, err := h.store.Create(ctx, model.NewPostWithMedia(text, path, mediaID))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Draft tweet with media created with ID %s\n", id)
	fmt.Fprintf(&b, "Media ID: %s\n", mediaID)
	fmt.Fprintf(&b, "Media path: %s\n", path)
	fmt.Fprintf(&b, "Text: %s", text)
	return b.String(), nil
}
