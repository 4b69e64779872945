// Package ledger defines the on-chain game contract surface and an in-memory
// simulator that enforces the same rules.
//
// The ledger is the authority on game status, turn order, and shot results;
// sessions treat everything read from it as fact and merge it into local
// state. Reads are polled, so all methods take a context.
package ledger

import "context"

// Status is the contract-side game lifecycle.
type Status string

const (
	StatusWaitingForOpponent Status = "waiting_for_opponent"
	StatusCommitmentPhase    Status = "commitment_phase"
	StatusActive             Status = "active"
	StatusFinished           Status = "finished"
)

// ResultPending marks a shot whose hit proof has not been submitted yet.
const ResultPending uint8 = 255

// ShotRecord is one fired shot as the contract stores it. Index is the shot's
// position in the game's shot log and doubles as the proof correlation key.
type ShotRecord struct {
	Player string
	Row    int
	Col    int
	Index  int
	Result uint8
}

// GameState is a point-in-time snapshot of one game.
type GameState struct {
	ID                 uint64
	Creator            string
	Opponent           string
	Status             Status
	Turn               string
	CreatorCommitment  []byte
	OpponentCommitment []byte
	Shots              []ShotRecord
	Winner             string
	CreatedAt          int64
}

// BothCommitted reports whether both layout commitments are on the ledger.
func (g GameState) BothCommitted() bool {
	return len(g.CreatorCommitment) > 0 && len(g.OpponentCommitment) > 0
}

// GameSummary is one entry in the open-game listing.
type GameSummary struct {
	ID        uint64
	Creator   string
	CreatedAt int64
}

// Client is the contract interface sessions talk to.
type Client interface {
	// CreateGame opens a new game for player and returns its id.
	CreateGame(ctx context.Context, player string) (uint64, error)

	// JoinGame adds player as the opponent of an open game.
	JoinGame(ctx context.Context, gameID uint64, player string) error

	// SubmitCommitment records player's board commitment.
	SubmitCommitment(ctx context.Context, gameID uint64, player string, commitment []byte) error

	// FireShot records a shot by player and returns its index in the shot log.
	FireShot(ctx context.Context, gameID uint64, player string, row, col int) (int, error)

	// SubmitHitProof resolves the shot at index with result (0 miss, 1 hit),
	// carrying the defender's proof bytes.
	SubmitHitProof(ctx context.Context, gameID uint64, player string, index, result int, proof []byte) error

	// GameState returns a snapshot of the game.
	GameState(ctx context.Context, gameID uint64) (GameState, error)

	// RecentGames lists open games, newest first.
	RecentGames(ctx context.Context, limit int) ([]GameSummary, error)
}
