package session

import (
	"github.com/louisbranch/darkwater/internal/services/game/domain/board"
	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
)

// Event is one normalized observation or action outcome fed into Fold.
//
// The variants form a closed set: action handlers produce the *ed variants
// for their own side effects, while the bus subscriber and the poll loops
// produce the *Observed variants for remote facts. Applying the same event
// twice never double-counts a hit or duplicates a shot.
type Event interface {
	sessionEvent()
}

// ResetRequested returns the session to the initial empty state.
type ResetRequested struct{}

// GameCreated records a successful create action: the room record exists and
// the session now hosts it.
type GameCreated struct {
	RoomCode string
}

// GameIDAssigned records the ledger game id, either from the creator's
// confirmed transaction or from a GameIdSet broadcast observed by the joiner.
type GameIDAssigned struct {
	GameID uint64
	Status string
}

// JoinRequested records the start of a join-by-code attempt; the session
// stays in the lobby until the room record reveals the game id.
type JoinRequested struct {
	RoomCode string
}

// JoinCompleted records a confirmed on-chain join; the joiner may now place
// ships.
type JoinCompleted struct {
	GameID uint64
}

// JoinTimedOut records that the joiner's game-id poll exhausted its attempts.
type JoinTimedOut struct{}

// JoinerJoined records that the opponent joined the host's game, observed
// from any source.
type JoinerJoined struct{}

// BoardSubmitted records the start of proof generation for the local layout.
type BoardSubmitted struct {
	Ships []board.Placement
}

// BoardCommitted records the local commitment landing (proof generated and,
// when a ledger game exists, submitted on-chain).
type BoardCommitted struct {
	CommitmentHex string
	Status        string
}

// CommitmentObserved records the opponent's commitment, observed from any
// source. Producers filter by role before emitting; Role is carried so the
// fold can drop echoes of our own commitment anyway.
type CommitmentObserved struct {
	Role          shot.Role
	CommitmentHex string
}

// BothCommitted records the ledger showing both commitments submitted.
type BothCommitted struct{}

// ShotFired records a shot this session fired, with the authoritative index.
type ShotFired struct {
	Row   int
	Col   int
	Index int
}

// ShotObserved records an opponent shot at my board, observed from any
// source.
type ShotObserved struct {
	FromRole shot.Role
	Row      int
	Col      int
	Index    int
}

// HitProofObserved records a hit/miss result for one of MY shots, observed
// from any source. Result uses the wire encoding: 0=miss, 1=hit.
type HitProofObserved struct {
	Index  int
	Result int
}

// IncomingResolved records a hit/miss result for one of the opponent's shots
// at my board, either computed by my own proof submission or observed from
// the room record.
type IncomingResolved struct {
	Index  int
	Result int
	Status string
}

// GameOverObserved records a game-over announcement naming the winning role.
type GameOverObserved struct {
	WinnerRole shot.Role
}

// ProofTimedOut records the liveness timer firing while still waiting for the
// opponent's proof.
type ProofTimedOut struct{}

// LobbyListed refreshes the open-game listing.
type LobbyListed struct {
	Games []LobbyGame
}

// StatusChanged updates the user-facing status line without touching phase.
type StatusChanged struct {
	Status string
}

// ActionFailed surfaces an action error and rolls the phase back to the last
// stable phase before the action was attempted.
type ActionFailed struct {
	Message       string
	RollbackPhase Phase
}

func (ResetRequested) sessionEvent()     {}
func (GameCreated) sessionEvent()        {}
func (GameIDAssigned) sessionEvent()     {}
func (JoinRequested) sessionEvent()      {}
func (JoinCompleted) sessionEvent()      {}
func (JoinTimedOut) sessionEvent()       {}
func (JoinerJoined) sessionEvent()       {}
func (BoardSubmitted) sessionEvent()     {}
func (BoardCommitted) sessionEvent()     {}
func (CommitmentObserved) sessionEvent() {}
func (BothCommitted) sessionEvent()      {}
func (ShotFired) sessionEvent()          {}
func (ShotObserved) sessionEvent()       {}
func (HitProofObserved) sessionEvent()   {}
func (IncomingResolved) sessionEvent()   {}
func (GameOverObserved) sessionEvent()   {}
func (ProofTimedOut) sessionEvent()      {}
func (LobbyListed) sessionEvent()        {}
func (StatusChanged) sessionEvent()      {}
func (ActionFailed) sessionEvent()       {}
