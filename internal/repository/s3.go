package repository

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/debemdeboas/x-mcp/internal/config"
	"github.com/debemdeboas/x-mcp/internal/errs"
	"github.com/debemdeboas/x-mcp/internal/model"
)

// S3API is the subset of *s3.Client used by S3DraftRepository.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// NewS3Client builds a client for AWS S3 or any S3-compatible endpoint.
// Static credentials are used when both keys are set; otherwise the default
// AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg config.S3Config, accessKeyID, accessKeySecret string) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if accessKeyID != "" && accessKeySecret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load S3 configuration")
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// S3DraftRepository stores each draft as the object <prefix><id>.json.
type S3DraftRepository struct { // implements DraftRepository
	client S3API
	bucket string
	prefix string

	now func() time.Time
}

func NewS3DraftRepository(client S3API, bucket, prefix string) *S3DraftRepository {
	return &S3DraftRepository{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *S3DraftRepository) key(id model.DraftID) string {
	return r.prefix + id.FileName()
}

func (r *S3DraftRepository) Create(ctx context.Context, draft *model.Draft) (model.DraftID, error) {
	const op = "create draft"

	now := r.now()
	if err := prepare(draft, now); err != nil {
		return "", err
	}

	data, err := encodeDraft(draft)
	if err != nil {
		return "", errs.Storage(op, err)
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		id := model.GenerateID(draft.Kind(), now)
		err := r.putNew(ctx, id, data)
		if errors.Is(err, ErrDraftExists) {
			repoLogger.Debug().Str("draft_id", string(id)).Msg("Draft id taken, regenerating")
			continue
		}
		if err != nil {
			return "", errs.Storage(op, err)
		}

		draft.ID = id
		repoLogger.Info().Str("draft_id", string(id)).Str("bucket", r.bucket).Msg("Draft created")
		return id, nil
	}

	return "", errs.Storage(op, errors.New("could not allocate a unique draft id"))
}

// putNew writes the object for id only if no object exists under its key.
func (r *S3DraftRepository) putNew(ctx context.Context, id model.DraftID, data []byte) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if isAPIError(err, "PreconditionFailed") {
		return ErrDraftExists
	}
	if err != nil {
		return errors.Wrapf(err, "put %s", r.key(id))
	}
	return nil
}

func (r *S3DraftRepository) Restore(ctx context.Context, id model.DraftID, draft *model.Draft) error {
	const op = "restore draft"

	if err := draft.CheckStored(); err != nil {
		return err
	}
	data, err := encodeDraft(draft)
	if err != nil {
		return errs.Storage(op, err)
	}

	if err := r.putNew(ctx, id, data); err != nil {
		if errors.Is(err, ErrDraftExists) {
			return err
		}
		return errs.Storage(op, err)
	}
	return nil
}

func (r *S3DraftRepository) List(ctx context.Context) ([]model.Entry, error) {
	const op = "list drafts"

	entries := make([]model.Entry, 0)
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errs.Storage(op, errors.Wrapf(err, "list bucket %s", r.bucket))
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), r.prefix)
			if strings.Contains(name, "/") || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, model.FileExt) {
				continue
			}

			id := model.DraftID(strings.TrimSuffix(name, model.FileExt))
			draft, err := r.read(ctx, id)
			if err != nil {
				return nil, errs.Storage(op, err)
			}
			entries = append(entries, model.Entry{ID: id, Draft: draft})
		}
	}

	sortEntries(entries)
	return entries, nil
}

func (r *S3DraftRepository) read(ctx context.Context, id model.DraftID) (*model.Draft, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", r.key(id))
	}
	return decodeDraft(id, data)
}

func (r *S3DraftRepository) Get(ctx context.Context, id model.DraftID) (*model.Draft, error) {
	const op = "get draft"

	draft, err := r.read(ctx, id)
	if isNotFound(err) {
		return nil, notFound(op, id)
	}
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	return draft, nil
}

func (r *S3DraftRepository) Delete(ctx context.Context, id model.DraftID) error {
	const op = "delete draft"

	// DeleteObject succeeds on missing keys, so check existence first.
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	})
	if isNotFound(err) {
		return notFound(op, id)
	}
	if err != nil {
		return errs.Storage(op, errors.Wrapf(err, "head %s", r.key(id)))
	}

	if _, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	}); err != nil {
		return errs.Storage(op, errors.Wrapf(err, "delete %s", r.key(id)))
	}

	repoLogger.Info().Str("draft_id", string(id)).Str("bucket", r.bucket).Msg("Draft deleted")
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	return isAPIError(err, "NoSuchKey") || isAPIError(err, "NotFound")
}

func isAPIError(err error, code string) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
