// Package errors provides the sync error taxonomy and classification.
//
// Every failure crossing the sync boundary is tagged with a Kind that drives
// the retry decision: network, storage and unknown failures are queued for
// retry, validation and auth failures are surfaced immediately because
// retrying identical input cannot succeed.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a sync failure.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindStorage    Kind = "storage"
	KindUnknown    Kind = "unknown"
)

// Kinder is implemented by error values that carry their own kind, such as
// the remote boundary's typed errors. Classify prefers this over message
// heuristics.
type Kinder interface {
	SyncKind() Kind
}

// Context carries the structured context attached to a sync failure.
type Context struct {
	Operation      string
	EntityType     string
	EntityID       string
	UserID         string
	OrganizationID string
}

// SyncError is a classified sync failure with structured context and a
// derived user-facing message.
type SyncError struct {
	Kind    Kind
	Context Context
	Err     error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	msg := fmt.Sprintf("[%s]", e.Kind)
	if e.Context.Operation != "" {
		msg += " " + e.Context.Operation
	}
	if e.Context.EntityType != "" {
		msg += " " + e.Context.EntityType
	}
	if e.Context.EntityID != "" {
		msg += " " + e.Context.EntityID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *SyncError) Unwrap() error { return e.Err }

// SyncKind implements Kinder.
func (e *SyncError) SyncKind() Kind { return e.Kind }

// New creates a SyncError of the given kind from a plain message.
func New(kind Kind, ctx Context, message string) *SyncError {
	return &SyncError{Kind: kind, Context: ctx, Err: stderrors.New(message)}
}

// Wrap attaches a kind and context to an existing error.
func Wrap(err error, kind Kind, ctx Context) *SyncError {
	return &SyncError{Kind: kind, Context: ctx, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the kind carried by err, or KindUnknown when err carries
// none.
func KindOf(err error) Kind {
	var k Kinder
	if stderrors.As(err, &k) {
		return k.SyncKind()
	}
	return KindUnknown
}

// Retryable reports whether failures of the given kind may succeed on a
// later attempt. Unknown failures retry optimistically.
func Retryable(kind Kind) bool {
	switch kind {
	case KindNetwork, KindStorage, KindUnknown:
		return true
	}
	return false
}
