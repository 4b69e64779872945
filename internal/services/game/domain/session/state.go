package session

import (
	"github.com/louisbranch/darkwater/internal/services/game/domain/board"
	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
)

// LobbyGame is one open on-chain game visible from the lobby listing.
type LobbyGame struct {
	GameID    uint64
	Creator   string
	CreatedAt int64
}

// State captures everything a session knows about its match.
//
// The runtime owns exactly one State and mutates it only by replacing it with
// the result of Fold; reconciliation loops and action handlers never touch
// fields directly.
type State struct {
	Phase Phase

	// RoomCode correlates the two players before a ledger game id exists.
	// Immutable once assigned.
	RoomCode string
	// GameID is the ledger-assigned identifier; zero until the create
	// transaction confirms. Once set, never changes.
	GameID uint64
	// Role is assigned at create/join time and immutable thereafter.
	Role shot.Role

	MyShips               []board.Placement
	MyCommitmentHex       string
	OpponentCommitmentHex string

	MyShots       []shot.Shot
	IncomingShots []shot.Shot
	MyHits        int
	OpponentHits  int

	Winner Winner

	// Err and Status carry user-facing diagnostics. They never affect phase
	// logic and are cleared by the next successful action.
	Err    string
	Status string

	// EarlyProofs buffers hit/miss results that arrived before the shot they
	// resolve existed locally, keyed by shot index. Applied exactly once when
	// the shot is created.
	EarlyProofs map[int]int

	LobbyGames []LobbyGame
}

// Initial returns the empty pre-game state.
func Initial() State {
	return State{Phase: PhaseIdle}
}

// bothCommitted reports whether both layout commitments are known locally.
func (s State) bothCommitted() bool {
	return s.MyCommitmentHex != "" && s.OpponentCommitmentHex != ""
}

// hasPendingOwnShot reports whether any of my shots still awaits a proof.
func (s State) hasPendingOwnShot() bool {
	for _, sh := range s.MyShots {
		if sh.Result == shot.ResultPending {
			return true
		}
	}
	return false
}

// FiredAt reports whether I already fired at the cell.
func (s State) FiredAt(row, col int) bool {
	for _, sh := range s.MyShots {
		if sh.Row == row && sh.Col == col {
			return true
		}
	}
	return false
}

// activePhaseForRole is the phase a player enters once both commitments are
// in: the host moves first, the joiner waits for the first shot's proof
// exchange to come back around.
func activePhaseForRole(role shot.Role) Phase {
	if role == shot.RoleHost {
		return PhaseActive
	}
	return PhaseWaitingProof
}
