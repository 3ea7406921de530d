package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the phase that raised it.
type Kind int

const (
	KindConfiguration Kind = iota // operator construction; never retried
	KindBinding                   // bound evaluation at open
	KindStorage                   // range-read failures; the cursor is destroyed
	KindDecode                    // malformed physical key; the cursor is destroyed
	KindUsage                     // cursor driven out of order
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindBinding:
		return "binding"
	case KindStorage:
		return "storage"
	case KindDecode:
		return "decode"
	case KindUsage:
		return "usage"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrCursorOpen is returned by Open on a cursor that has not been closed.
	ErrCursorOpen = errors.New("cursor is already open")

	// ErrCursorClosed is returned by Next on a cursor that is not open.
	ErrCursorClosed = errors.New("cursor is not open")

	// ErrCursorDestroyed is returned by every operation on a cursor after a fault.
	ErrCursorDestroyed = errors.New("cursor destroyed by an earlier fault")

	// ErrMissingParameter is returned when a bound references an unbound parameter.
	ErrMissingParameter = errors.New("parameter not bound")
)

// Error carries the kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind so callers can test errors.Is(err, errs.Storage).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels usable with errors.Is to test only the kind.
var (
	Configuration = &Error{Kind: KindConfiguration}
	Binding       = &Error{Kind: KindBinding}
	Storage       = &Error{Kind: KindStorage}
	Decode        = &Error{Kind: KindDecode}
	Usage         = &Error{Kind: KindUsage}
)

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, and false when err was not produced by this package.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Fatal reports whether err leaves a cursor unusable.
func Fatal(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == KindStorage || k == KindDecode)
}
