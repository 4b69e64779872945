package rooms

import (
	"context"
	"sync"
	"time"

	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
	"github.com/louisbranch/darkwater/internal/services/rooms/domain/room"
)

// Local is an in-process Store. Two sessions sharing one Local can play a
// full match without a rooms service; it applies the same merge rules the
// service does.
type Local struct {
	mu    sync.Mutex
	rooms map[string]room.Record
	now   func() time.Time
}

// NewLocal returns an empty local store.
func NewLocal() *Local {
	return &Local{
		rooms: make(map[string]room.Record),
		now:   time.Now,
	}
}

// Get implements Store.
func (l *Local) Get(ctx context.Context, code string) (room.Record, error) {
	if err := ctx.Err(); err != nil {
		return room.Record{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.rooms[code]
	if !ok {
		return room.Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// Put implements Store.
func (l *Local) Put(ctx context.Context, rec room.Record) (room.Record, error) {
	if err := ctx.Err(); err != nil {
		return room.Record{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	merged := room.Merge(l.rooms[rec.RoomCode], rec)
	nowMillis := l.now().UTC().UnixMilli()
	if merged.CreatedAt == 0 {
		merged.CreatedAt = nowMillis
	}
	merged.UpdatedAt = nowMillis
	l.rooms[rec.RoomCode] = merged
	return cloneRecord(merged), nil
}

// Delete implements Store.
func (l *Local) Delete(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rooms, code)
	return nil
}

func cloneRecord(rec room.Record) room.Record {
	out := rec
	out.Shots = append([]shot.Record(nil), rec.Shots...)
	return out
}

var _ Store = (*Local)(nil)
