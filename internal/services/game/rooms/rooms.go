// Package rooms gives sessions access to the shared room record. The record
// is a last-writer-wins document, so Put sends only the fields the caller
// knows and returns the server-merged result.
package rooms

import (
	"context"

	"github.com/louisbranch/darkwater/internal/platform/errors"
	"github.com/louisbranch/darkwater/internal/services/rooms/domain/room"
)

// ErrNotFound is returned when a room code has no record.
var ErrNotFound = errors.New(errors.CodeNotFound, "room not found")

// Store is the client-side room record access used by session runtimes.
type Store interface {
	// Get returns the current record for code, or ErrNotFound.
	Get(ctx context.Context, code string) (room.Record, error)

	// Put merges rec over the stored record and returns the merged result.
	Put(ctx context.Context, rec room.Record) (room.Record, error)

	// Delete removes the record. Absent codes are not an error.
	Delete(ctx context.Context, code string) error
}
