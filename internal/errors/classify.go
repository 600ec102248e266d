package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Classify determines the kind of an arbitrary error. Errors from the remote
// boundary carry a typed kind and are classified exactly; anything else falls
// back to message-text heuristics, which exist only for third-party errors
// that predate the typed boundary.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var k Kinder
	if stderrors.As(err, &k) {
		return k.SyncKind()
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "network", "fetch", "timeout", "timed out", "connection", "unreachable", "offline"):
		return KindNetwork
	case containsAny(msg, "unauthorized", "forbidden", "auth", "token", "permission"):
		return KindAuth
	case containsAny(msg, "invalid", "required", "must be", "validation"):
		return KindValidation
	case containsAny(msg, "storage", "quota", "disk", "database", "no such table"):
		return KindStorage
	}
	return KindUnknown
}

// ClassifyAndWrap classifies err and wraps it with context in one step. An
// err that is already a SyncError keeps its kind and gains any context fields
// it was missing.
func ClassifyAndWrap(err error, ctx Context) *SyncError {
	var se *SyncError
	if stderrors.As(err, &se) {
		merged := se.Context
		fillContext(&merged, ctx)
		return &SyncError{Kind: se.Kind, Context: merged, Err: se.Err}
	}
	return Wrap(err, Classify(err), ctx)
}

// UserMessage renders a short message suitable for direct display, keyed off
// the error kind and the operation it interrupted.
func (e *SyncError) UserMessage() string {
	subject := e.Context.EntityType
	if subject == "" {
		subject = "data"
	}
	op := e.Context.Operation
	if op == "" {
		op = "sync"
	}

	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("Could not reach the server. Your %s was saved locally and will sync when you are back online.", subject)
	case KindValidation:
		return fmt.Sprintf("The %s could not be saved: %v", subject, e.Err)
	case KindAuth:
		return "Your session is no longer valid. Please sign in again."
	case KindStorage:
		return fmt.Sprintf("Local storage failed while trying to %s the %s.", op, subject)
	default:
		return fmt.Sprintf("Something went wrong while trying to %s the %s. It will be retried automatically.", op, subject)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func fillContext(dst *Context, src Context) {
	if dst.Operation == "" {
		dst.Operation = src.Operation
	}
	if dst.EntityType == "" {
		dst.EntityType = src.EntityType
	}
	if dst.EntityID == "" {
		dst.EntityID = src.EntityID
	}
	if dst.UserID == "" {
		dst.UserID = src.UserID
	}
	if dst.OrganizationID == "" {
		dst.OrganizationID = src.OrganizationID
	}
}
