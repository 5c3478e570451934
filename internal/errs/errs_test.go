package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     bool
	}{
		{"not found matches", NotFound("get", "draft %s does not exist", "x"), ErrNotFound, true},
		{"not found is not storage", NotFound("get", "missing"), ErrStorage, false},
		{"storage matches", Storage("create", fs.ErrPermission), ErrStorage, true},
		{"wrapped post matches", fmt.Errorf("outer: %w", Post("publish", errors.New("boom"))), ErrPost, true},
		{"invalid argument", InvalidArgument("validate", "missing field"), ErrInvalidArgument, true},
		{"upload", Upload("upload", errors.New("413")), ErrUpload, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.sentinel); got != tt.want {
				t.Errorf("Expected errors.Is = %v, got %v", tt.want, got)
			}
		})
	}
}

func TestStorageUnwrapsCause(t *testing.T) {
	err := Storage("create", fs.ErrPermission)
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("Expected cause to be reachable through errors.Is")
	}
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("delete", "draft %s does not exist", "draft_1")
	if got, want := err.Error(), "delete: draft draft_1 does not exist"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	err = Post("publish", errors.New("rate limited"))
	if got, want := err.Error(), "publish: rate limited"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestKindOf(t *testing.T) {
	if k := KindOf(errors.New("plain")); k != KindUnknown {
		t.Errorf("Expected unknown kind, got %v", k)
	}
	if k := KindOf(fmt.Errorf("wrap: %w", Upload("upload", errors.New("x")))); k != KindUpload {
		t.Errorf("Expected upload kind, got %v", k)
	}
	if s := KindNotFound.String(); s != "not_found" {
		t.Errorf("Expected not_found, got %q", s)
	}
}
