// Package failure defines the error kinds surfaced by the RAG pipeline.
//
// Every error leaving a pipeline component carries exactly one kind, which the
// HTTP layer uses to pick a status code. Kinds are matched with errors.Is.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTranscriptUnavailable means no captions were found or the video reference is malformed.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	// ErrStoreUnavailable means the vector store (or its embedding collaborator) failed.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrGenerationFailed means the language model errored or returned unusable output.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrMalformedMessage marks a record that does not have the expected shape.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrTimeout means an external call exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)

var kinds = []error{
	ErrTimeout,
	ErrTranscriptUnavailable,
	ErrStoreUnavailable,
	ErrGenerationFailed,
	ErrMalformedMessage,
}

// Error is a pipeline failure tagged with its kind and the operation that failed.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap tags err with kind. Deadline expiries are always reported as ErrTimeout,
// and an error that already carries a kind keeps it.
func Wrap(kind error, op string, err error) error {
	if err != nil {
		if existing := KindOf(err); existing != nil {
			return err
		}
		if IsDeadline(err) {
			kind = ErrTimeout
		}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// New creates a failure of the given kind with a formatted cause.
func New(kind error, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind carried by err, or nil.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsDeadline reports whether err was caused by an expired deadline.
func IsDeadline(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Code is the stable machine-readable name of the kind carried by err.
func Code(err error) string {
	switch KindOf(err) {
	case ErrTimeout:
		return "timeout"
	case ErrTranscriptUnavailable:
		return "transcript_unavailable"
	case ErrStoreUnavailable:
		return "store_unavailable"
	case ErrGenerationFailed:
		return "generation_failed"
	case ErrMalformedMessage:
		return "malformed_message"
	default:
		return "internal"
	}
}
