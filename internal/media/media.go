// Package media uploads local files to the platform ahead of posting.
package media

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/x-mcp/internal/errs"
	"github.com/debemdeboas/x-mcp/internal/metrics"
)

type Client interface {
	UploadMedia(ctx context.Context, path string) (string, error)
}

type Uploader struct {
	client  Client
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewUploader(client Client, m *metrics.Metrics, logger zerolog.Logger) *Uploader {
	return &Uploader{client: client, metrics: m, logger: logger}
}

// Upload sends the regular file at path and returns its media id.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	const op = "upload media"

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", errs.NotFound(op, "media file %s does not exist", path)
	}
	if err != nil {
		return "", errs.Upload(op, errors.Wrapf(err, "stat %s", path))
	}
	if info.IsDir() {
		return "", errs.NotFound(op, "media path %s is a directory", path)
	}

	id, err := u.client.UploadMedia(ctx, path)
	u.metrics.ObserveUpload(err)
	if err != nil {
		return "", errs.Upload(op, err)
	}

	u.logger.Info().Str("path", path).Str("media_id", id).Int64("size", info.Size()).Msg("Media uploaded")
	return id, nil
}
