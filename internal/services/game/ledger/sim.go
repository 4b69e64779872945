package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/louisbranch/darkwater/internal/platform/errors"
	"github.com/louisbranch/darkwater/internal/services/game/domain/board"
)

// Sim is an in-memory Client that applies the contract's rules without a
// chain. It is safe for concurrent use, which lets two sessions in one
// process share it as their ledger.
type Sim struct {
	mu     sync.Mutex
	games  map[uint64]*GameState
	nextID uint64
	now    func() time.Time
}

// NewSim returns an empty simulator.
func NewSim() *Sim {
	return &Sim{
		games:  make(map[uint64]*GameState),
		nextID: 1,
		now:    time.Now,
	}
}

var _ Client = (*Sim)(nil)

// CreateGame implements Client.
func (s *Sim) CreateGame(ctx context.Context, player string) (uint64, error) {
	if player == "" {
		return 0, errors.New(errors.CodeWalletRequired, "player address required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.games[id] = &GameState{
		ID:        id,
		Creator:   player,
		Status:    StatusWaitingForOpponent,
		CreatedAt: s.now().Unix(),
	}
	return id, nil
}

// JoinGame implements Client.
func (s *Sim) JoinGame(ctx context.Context, gameID uint64, player string) error {
	if player == "" {
		return errors.New(errors.CodeWalletRequired, "player address required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.game(gameID)
	if err != nil {
		return err
	}
	if g.Status != StatusWaitingForOpponent {
		return errors.New(errors.CodeGameStatusInvalid, "game is not open for joining")
	}
	if player == g.Creator {
		return errors.New(errors.CodeSelfPlay, "cannot join your own game")
	}
	g.Opponent = player
	g.Status = StatusCommitmentPhase
	return nil
}

// SubmitCommitment implements Client.
func (s *Sim) SubmitCommitment(ctx context.Context, gameID uint64, player string, commitment []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.game(gameID)
	if err != nil {
		return err
	}
	if g.Status != StatusCommitmentPhase {
		return errors.New(errors.CodeGameStatusInvalid, "game is not accepting commitments")
	}

	switch player {
	case g.Creator:
		if len(g.CreatorCommitment) > 0 {
			return errors.New(errors.CodeCommitmentRepeated, "commitment already submitted")
		}
		g.CreatorCommitment = append([]byte(nil), commitment...)
	case g.Opponent:
		if len(g.OpponentCommitment) > 0 {
			return errors.New(errors.CodeCommitmentRepeated, "commitment already submitted")
		}
		g.OpponentCommitment = append([]byte(nil), commitment...)
	default:
		return errors.New(errors.CodeNotAuthorized, "player is not in this game")
	}

	if g.BothCommitted() {
		g.Status = StatusActive
		g.Turn = g.Creator
	}
	return nil
}

// FireShot implements Client.
func (s *Sim) FireShot(ctx context.Context, gameID uint64, player string, row, col int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.game(gameID)
	if err != nil {
		return 0, err
	}
	if g.Status != StatusActive {
		return 0, errors.New(errors.CodeGameStatusInvalid, "game is not active")
	}
	if player != g.Creator && player != g.Opponent {
		return 0, errors.New(errors.CodeNotAuthorized, "player is not in this game")
	}
	if player != g.Turn {
		return 0, errors.New(errors.CodeNotYourTurn, "not your turn")
	}
	if row < 0 || row >= board.Size || col < 0 || col >= board.Size {
		return 0, errors.New(errors.CodeCellOutOfBounds, "cell out of bounds")
	}
	for _, sh := range g.Shots {
		if sh.Player == player && sh.Row == row && sh.Col == col {
			return 0, errors.New(errors.CodeCellAlreadyFired, "cell already fired")
		}
	}

	// Indices are dense per attacker: each player's first shot is 0.
	index := 0
	for _, sh := range g.Shots {
		if sh.Player == player {
			index++
		}
	}
	g.Shots = append(g.Shots, ShotRecord{
		Player: player,
		Row:    row,
		Col:    col,
		Index:  index,
		Result: ResultPending,
	})
	// The turn passes to the defender only when the proof resolves.
	return index, nil
}

// SubmitHitProof implements Client. The defender of the shot is the only
// player allowed to resolve it; the contract verifies the proof against the
// defender's commitment, which the simulator only checks for presence.
func (s *Sim) SubmitHitProof(ctx context.Context, gameID uint64, player string, index, result int, proof []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.game(gameID)
	if err != nil {
		return err
	}
	if g.Status != StatusActive {
		return errors.New(errors.CodeGameStatusInvalid, "game is not active")
	}
	if player != g.Creator && player != g.Opponent {
		return errors.New(errors.CodeNotAuthorized, "player is not in this game")
	}

	// Shots are keyed by (attacker, index); the prover defends against the
	// other player's shot.
	attacker := g.otherPlayer(player)
	sh := g.findShot(attacker, index)
	if sh == nil {
		if g.findShot(player, index) != nil {
			return errors.New(errors.CodeNotAuthorized, "only the defender may prove this shot")
		}
		return errors.New(errors.CodeShotNotFound, "shot not found")
	}
	if sh.Result != ResultPending {
		return errors.New(errors.CodeProofReplayed, "proof already submitted for this shot")
	}
	if len(proof) == 0 {
		return errors.New(errors.CodeBoardInvalid, "empty proof")
	}
	if result != 0 && result != 1 {
		return errors.New(errors.CodeBoardInvalid, "result must be 0 or 1")
	}

	sh.Result = uint8(result)
	g.Turn = player
	if result == 1 && s.hitCount(g, sh.Player) >= board.TotalShipCells {
		g.Status = StatusFinished
		g.Winner = sh.Player
	}
	return nil
}

// GameState implements Client.
func (s *Sim) GameState(ctx context.Context, gameID uint64) (GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.game(gameID)
	if err != nil {
		return GameState{}, err
	}

	snap := *g
	snap.CreatorCommitment = append([]byte(nil), g.CreatorCommitment...)
	snap.OpponentCommitment = append([]byte(nil), g.OpponentCommitment...)
	snap.Shots = append([]ShotRecord(nil), g.Shots...)
	return snap, nil
}

// RecentGames implements Client.
func (s *Sim) RecentGames(ctx context.Context, limit int) ([]GameSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var open []GameSummary
	for _, g := range s.games {
		if g.Status == StatusWaitingForOpponent {
			open = append(open, GameSummary{ID: g.ID, Creator: g.Creator, CreatedAt: g.CreatedAt})
		}
	}
	// Newest first; ids are monotonic.
	sort.Slice(open, func(i, j int) bool { return open[i].ID > open[j].ID })
	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

func (s *Sim) game(id uint64) (*GameState, error) {
	g, ok := s.games[id]
	if !ok {
		return nil, errors.New(errors.CodeGameNotFound, "game not found")
	}
	return g, nil
}

func (g *GameState) otherPlayer(player string) string {
	if player == g.Creator {
		return g.Opponent
	}
	return g.Creator
}

// findShot returns the attacker's shot with the given per-attacker index.
func (g *GameState) findShot(attacker string, index int) *ShotRecord {
	for i := range g.Shots {
		if g.Shots[i].Player == attacker && g.Shots[i].Index == index {
			return &g.Shots[i]
		}
	}
	return nil
}

// hitCount counts resolved hits by attacker.
func (s *Sim) hitCount(g *GameState, attacker string) int {
	n := 0
	for _, sh := range g.Shots {
		if sh.Player == attacker && sh.Result == 1 {
			n++
		}
	}
	return n
}
