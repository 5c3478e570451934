package repository

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/debemdeboas/x-mcp/internal/errs"
	"github.com/debemdeboas/x-mcp/internal/model"
)

// fakeS3 is an in-memory bucket implementing S3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte

	// failPuts makes the next n conditional puts report a taken key.
	failPuts int
	puts     int
	pageSize int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++

	key := aws.ToString(in.Key)
	if aws.ToString(in.IfNoneMatch) == "*" {
		if _, ok := f.objects[key]; ok || f.failPuts > 0 {
			if f.failPuts > 0 {
				f.failPuts--
			}
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
		}
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		start = sort.SearchStrings(keys, aws.ToString(in.ContinuationToken))
	}
	end := len(keys)
	if f.pageSize > 0 && start+f.pageSize < end {
		end = start + f.pageSize
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func TestS3DraftRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	repo := NewS3DraftRepository(client, "bucket", "drafts/")

	id, err := repo.Create(ctx, model.NewPost("to the cloud"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, ok := client.objects["drafts/"+id.FileName()]; !ok {
		t.Fatalf("Expected object drafts/%s, got %v", id.FileName(), client.objects)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Content != "to the cloud" || got.ID != id {
		t.Errorf("Unexpected draft: %+v", got)
	}

	if _, err := repo.Get(ctx, "draft_0_missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestS3DraftRepository_CreateRetriesTakenKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Regenerates after a conflict", func(t *testing.T) {
		client := newFakeS3()
		client.failPuts = 1
		repo := NewS3DraftRepository(client, "bucket", "")

		if _, err := repo.Create(ctx, model.NewPost("retry")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if client.puts != 2 {
			t.Errorf("Expected 2 put attempts, got %d", client.puts)
		}
	})

	t.Run("Gives up after bounded attempts", func(t *testing.T) {
		client := newFakeS3()
		client.failPuts = createAttempts
		repo := NewS3DraftRepository(client, "bucket", "")

		_, err := repo.Create(ctx, model.NewPost("retry"))
		if !errors.Is(err, errs.ErrStorage) {
			t.Errorf("Expected storage error, got %v", err)
		}
	})
}

func TestS3DraftRepository_List(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	client.pageSize = 2
	repo := NewS3DraftRepository(client, "bucket", "drafts/")

	for _, text := range []string{"a", "b", "c"} {
		if _, err := repo.Create(ctx, model.NewPost(text)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	client.objects["drafts/nested/draft_1_x.json"] = []byte(`{"content":"nested"}`)
	client.objects["drafts/readme.md"] = []byte("#")
	client.objects["other/draft_1_y.json"] = []byte(`{"content":"elsewhere"}`)

	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries across pages, got %d", len(entries))
	}

	client.objects["drafts/draft_2_bad.json"] = []byte(`{"content":`)
	if _, err := repo.List(ctx); !errors.Is(err, errs.ErrStorage) {
		t.Errorf("Expected storage error for corrupt object, got %v", err)
	}
}

func TestS3DraftRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewS3DraftRepository(newFakeS3(), "bucket", "drafts/")

	id, err := repo.Create(ctx, model.NewThread([]string{"x", "y"}))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"no such key", &types.NoSuchKey{}, true},
		{"head not found", &types.NotFound{}, true},
		{"generic code", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"wrapped", errors.Wrap(&types.NotFound{}, "head"), true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestS3DraftRepository_Restore(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	repo := NewS3DraftRepository(client, "bucket", "drafts/")

	if err := repo.Restore(ctx, "draft_1_a", model.NewPost("moved")); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if _, ok := client.objects["drafts/draft_1_a.json"]; !ok {
		t.Errorf("Expected object under original id, got %v", client.objects)
	}
	if err := repo.Restore(ctx, "draft_1_a", model.NewPost("moved")); !errors.Is(err, ErrDraftExists) {
		t.Errorf("Expected ErrDraftExists, got %v", err)
	}
}
