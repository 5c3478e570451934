package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/debemdeboas/x-mcp/internal/config"
)

// Store is a draft repository that can also take drafts under existing ids.
type Store interface {
	DraftRepository
	Restorer
}

// Open returns the draft store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.DraftsConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFS, "":
		return NewFSDraftRepository(cfg.Dir), nil
	case config.BackendS3:
		client, err := NewS3Client(ctx, cfg.S3, os.Getenv(cfg.S3.AccessKeyIDEnv), os.Getenv(cfg.S3.SecretAccessKeyEnv))
		if err != nil {
			return nil, err
		}
		return NewS3DraftRepository(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	case config.BackendMemory:
		return NewMemoryDraftRepository(), nil
	}
	return nil, fmt.Errorf("unsupported drafts backend %q", cfg.Backend)
}
