// Package bus carries low-latency game signals between sessions sharing a
// process. Delivery is best effort: a slow subscriber loses messages rather
// than blocking the publisher, and the polled room record backfills anything
// missed.
package bus

import (
	"sync"

	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
)

// Kind discriminates bus messages.
type Kind string

const (
	KindRoomReady    Kind = "room_ready"
	KindJoinerJoined Kind = "joiner_joined"
	KindGameIDSet    Kind = "game_id_set"
	KindCommitment   Kind = "commitment"
	KindShot         Kind = "shot"
	KindHitProof     Kind = "hit_proof"
	KindGameOver     Kind = "game_over"
)

// Message is one broadcast signal. Fields beyond Kind and RoomCode are
// populated per kind; subscribers filter by RoomCode before acting.
type Message struct {
	Kind     Kind
	RoomCode string

	// GameIDSet.
	GameID uint64

	// Commitment, Shot, HitProof, GameOver.
	Role shot.Role

	// Commitment.
	CommitmentHex string

	// Shot and HitProof.
	Row   int
	Col   int
	Index int

	// HitProof: 0=miss, 1=hit.
	Result int
}

// Bus fans published messages out to all current subscribers.
//
// The zero value is not usable; call New.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Message]struct{}
	size int
}

// New returns a bus whose subscriber channels buffer size messages.
func New(size int) *Bus {
	if size <= 0 {
		size = 16
	}
	return &Bus{
		subs: make(map[chan Message]struct{}),
		size: size,
	}
}

// Subscribe registers a new subscriber and returns its channel along with a
// cancel func. Cancel is idempotent and closes the channel.
func (b *Bus) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, b.size)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			// The write lock waits out in-flight publishes, so closing here
			// cannot race a send.
			b.mu.Lock()
			delete(b.subs, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers msg to every subscriber whose buffer has room. It never
// blocks.
func (b *Bus) Publish(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
			// Full buffer; the room record poll covers the gap.
		}
	}
}
