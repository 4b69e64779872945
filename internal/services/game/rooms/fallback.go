package rooms

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/louisbranch/darkwater/internal/services/rooms/domain/room"
)

// Fallback fronts a remote store with a local mirror. When the rooms service
// is unreachable the session keeps playing against the mirror, so a match
// between two sessions in one process survives service outages.
type Fallback struct {
	remote Store
	local  Store

	warnOnce sync.Once
}

// NewFallback wraps remote with local as the degraded path.
func NewFallback(remote, local Store) *Fallback {
	return &Fallback{remote: remote, local: local}
}

// Get implements Store. A remote ErrNotFound is authoritative; only transport
// failures fall back.
func (f *Fallback) Get(ctx context.Context, code string) (room.Record, error) {
	rec, err := f.remote.Get(ctx, code)
	if err == nil || errors.Is(err, ErrNotFound) || ctx.Err() != nil {
		return rec, err
	}
	f.warn(err)
	return f.local.Get(ctx, code)
}

// Put implements Store. Successful remote merges are mirrored locally so a
// later fallback read sees the freshest record.
func (f *Fallback) Put(ctx context.Context, rec room.Record) (room.Record, error) {
	merged, err := f.remote.Put(ctx, rec)
	if err == nil {
		if _, mirrorErr := f.local.Put(ctx, merged); mirrorErr != nil {
			log.Printf("mirror room %s locally: %v", rec.RoomCode, mirrorErr)
		}
		return merged, nil
	}
	if ctx.Err() != nil {
		return room.Record{}, err
	}
	f.warn(err)
	return f.local.Put(ctx, rec)
}

// Delete implements Store.
func (f *Fallback) Delete(ctx context.Context, code string) error {
	err := f.remote.Delete(ctx, code)
	if err != nil && ctx.Err() == nil {
		f.warn(err)
	}
	return f.local.Delete(ctx, code)
}

func (f *Fallback) warn(err error) {
	f.warnOnce.Do(func() {
		log.Printf("rooms service unreachable, continuing on local store: %v", err)
	})
}

var _ Store = (*Fallback)(nil)
