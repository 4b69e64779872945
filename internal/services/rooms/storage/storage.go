// Package storage defines the persistence contract for room records.
package storage

import (
	"context"
	"time"

	"github.com/louisbranch/darkwater/internal/platform/errors"
	"github.com/louisbranch/darkwater/internal/services/rooms/domain/room"
)

// ErrNotFound is returned when a room code has no record.
var ErrNotFound = errors.New(errors.CodeNotFound, "room not found")

// Store persists room records keyed by room code.
type Store interface {
	// Get returns the record for code, or ErrNotFound.
	Get(ctx context.Context, code string) (room.Record, error)

	// Put stores the record under its room code, replacing any existing one.
	Put(ctx context.Context, rec room.Record) error

	// Delete removes the record. Deleting an absent code is not an error.
	Delete(ctx context.Context, code string) error

	// DeleteExpired removes records not updated since cutoff and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases the store's resources.
	Close() error
}
