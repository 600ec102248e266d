// Package remote provides the client boundary to the hosted CRUD service.
// Errors crossing this boundary are typed at the source so the sync layer
// never has to guess retryability from message text.
package remote

import (
	"context"
	"fmt"

	syncerrors "github.com/nualapos/backend/internal/errors"
)

// Record is one row exchanged with the remote service.
type Record map[string]any

// Client defines the table-scoped operations the sync layer issues against
// the remote store. Writes must carry organization_id; reads filter by it.
type Client interface {
	// Insert creates a row and returns the stored copy.
	Insert(ctx context.Context, table string, rec Record) (Record, error)

	// InsertBatch creates several rows as one logical operation. Used for
	// invoice line items, which never sync independently of their header.
	InsertBatch(ctx context.Context, table string, recs []Record) error

	// Update replaces the row with the given id and returns the stored copy.
	Update(ctx context.Context, table, id string, rec Record) (Record, error)

	// Delete removes the row with the given id. Deleting an absent row is
	// not an error.
	Delete(ctx context.Context, table, id string) error

	// Select returns all rows matching the equality filters.
	Select(ctx context.Context, table string, filter map[string]string) ([]Record, error)
}

// Error is a typed failure from the remote boundary.
type Error struct {
	Kind    syncerrors.Kind
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote: %s (%s)", e.Message, e.Code)
	}
	return "remote: " + e.Message
}

// SyncKind implements errors.Kinder so classification is exact.
func (e *Error) SyncKind() syncerrors.Kind { return e.Kind }
