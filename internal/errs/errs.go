// Package errs defines the failure categories shared by the draft store,
// the publisher and the tool dispatcher.
package errs

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindStorage
	KindUpload
	KindPost
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindUpload:
		return "upload"
	case KindPost:
		return "post"
	default:
		return "unknown"
	}
}

// Error is a categorized failure. Op names the operation that failed and Err
// is the underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var s string
	switch {
	case e.Msg != "" && e.Err != nil:
		s = e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		s = e.Msg
	case e.Err != nil:
		s = e.Err.Error()
	default:
		s = e.Kind.String()
	}
	if e.Op != "" {
		return e.Op + ": " + s
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a bare sentinel of the same kind, so that
// errors.Is(err, errs.ErrNotFound) works on any wrapped *Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrStorage         = &Error{Kind: KindStorage}
	ErrUpload          = &Error{Kind: KindUpload}
	ErrPost            = &Error{Kind: KindPost}
)

func InvalidArgument(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

func Upload(op string, err error) error {
	return &Error{Kind: KindUpload, Op: op, Err: err}
}

func Post(op string, err error) error {
	return &Error{Kind: KindPost, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
