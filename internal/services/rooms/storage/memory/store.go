// Package memory provides an in-memory room store for tests and single-node
// runs without persistence.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
	"github.com/louisbranch/darkwater/internal/services/rooms/domain/room"
	"github.com/louisbranch/darkwater/internal/services/rooms/storage"
)

type entry struct {
	rec       room.Record
	updatedAt time.Time
}

// Store keeps room records in a map. Safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	rooms map[string]entry
	now   func() time.Time
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		rooms: make(map[string]entry),
		now:   time.Now,
	}
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, code string) (room.Record, error) {
	if err := ctx.Err(); err != nil {
		return room.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.rooms[code]
	if !ok {
		return room.Record{}, storage.ErrNotFound
	}
	return cloneRecord(e.rec), nil
}

// Put implements storage.Store.
func (s *Store) Put(ctx context.Context, rec room.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updatedAt := s.now()
	if rec.UpdatedAt != 0 {
		updatedAt = time.UnixMilli(rec.UpdatedAt)
	}
	s.rooms[rec.RoomCode] = entry{rec: cloneRecord(rec), updatedAt: updatedAt}
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

// DeleteExpired implements storage.Store.
func (s *Store) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for code, e := range s.rooms {
		if e.updatedAt.Before(cutoff) {
			delete(s.rooms, code)
			n++
		}
	}
	return n, nil
}

// Close implements storage.Store.
func (s *Store) Close() error { return nil }

func cloneRecord(rec room.Record) room.Record {
	out := rec
	out.Shots = append([]shot.Record(nil), rec.Shots...)
	return out
}

var _ storage.Store = (*Store)(nil)
