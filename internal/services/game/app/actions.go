package app

import (
	"context"
	"fmt"
	"log"

	"github.com/louisbranch/darkwater/internal/platform/errors"
	"github.com/louisbranch/darkwater/internal/services/game/bus"
	"github.com/louisbranch/darkwater/internal/services/game/domain/board"
	"github.com/louisbranch/darkwater/internal/services/game/domain/session"
	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
	"github.com/louisbranch/darkwater/internal/services/rooms/domain/room"
)

// CreateGame opens a game on the ledger, publishes the room record, and moves
// the session to hosting.
func (s *Session) CreateGame(ctx context.Context) error {
	if s.cfg.Player == "" {
		return errors.New(errors.CodeWalletRequired, "connect a wallet before creating a game")
	}
	if phase := s.Snapshot().Phase; phase != session.PhaseIdle && phase != session.PhaseLobby {
		return errors.New(errors.CodePhaseDisallowsOp, fmt.Sprintf("cannot create a game while %s", phase))
	}

	code, err := newRoomCode()
	if err != nil {
		return errors.Wrap(errors.CodeUnknown, "generate room code", err)
	}

	gameID, err := s.deps.Ledger.CreateGame(ctx, s.cfg.Player)
	if err != nil {
		s.apply(session.ActionFailed{Message: "create game failed", RollbackPhase: session.PhaseIdle})
		return errors.Wrap(errors.CodeUnknown, "create game on ledger", err)
	}

	s.apply(session.GameCreated{RoomCode: code})
	s.apply(session.GameIDAssigned{GameID: gameID, Status: "waiting for an opponent"})

	s.putRoom(room.Record{RoomCode: code, GameID: gameID, HostAddress: s.cfg.Player})
	s.deps.Bus.Publish(bus.Message{Kind: bus.KindRoomReady, RoomCode: code})
	s.deps.Bus.Publish(bus.Message{Kind: bus.KindGameIDSet, RoomCode: code, GameID: gameID})
	return nil
}

// JoinGame starts joining the game behind a room code. The ledger game id may
// not be written yet, so the session enters the lobby and polls for it.
func (s *Session) JoinGame(ctx context.Context, code string) error {
	if s.cfg.Player == "" {
		return errors.New(errors.CodeWalletRequired, "connect a wallet before joining a game")
	}
	if code == "" {
		return errors.New(errors.CodeRoomRequired, "room code is required")
	}
	if phase := s.Snapshot().Phase; phase != session.PhaseIdle && phase != session.PhaseLobby {
		return errors.New(errors.CodePhaseDisallowsOp, fmt.Sprintf("cannot join a game while %s", phase))
	}

	s.apply(session.JoinRequested{RoomCode: code})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pollGameID(code)
	}()
	return nil
}

// JoinGameByID joins a known on-chain game directly, as from the lobby
// listing. The session runs under a synthetic room code derived from the
// game id; cross-device coordination relies on the ledger poll.
func (s *Session) JoinGameByID(ctx context.Context, gameID uint64) error {
	if s.cfg.Player == "" {
		return errors.New(errors.CodeWalletRequired, "connect a wallet before joining a game")
	}
	if phase := s.Snapshot().Phase; phase != session.PhaseIdle && phase != session.PhaseLobby {
		return errors.New(errors.CodePhaseDisallowsOp, fmt.Sprintf("cannot join a game while %s", phase))
	}

	// Direct joins have no shared code, so derive one from the game id to
	// keep bus filtering and room-record sync working.
	code := fmt.Sprintf("ID-%d", gameID)
	s.apply(session.JoinRequested{RoomCode: code})
	if err := s.deps.Ledger.JoinGame(ctx, gameID, s.cfg.Player); err != nil {
		s.apply(session.ActionFailed{Message: "join game failed", RollbackPhase: session.PhaseIdle})
		return errors.Wrap(errors.CodeOf(err), "join game on ledger", err)
	}

	s.apply(session.JoinCompleted{GameID: gameID})
	s.deps.Bus.Publish(bus.Message{Kind: bus.KindJoinerJoined, RoomCode: code, GameID: gameID})
	return nil
}

// SubmitBoard validates the layout and starts the board proof. The session
// moves to proving immediately; commitment submission completes in the
// background and rolls back to placement on failure.
func (s *Session) SubmitBoard(ctx context.Context, ships []board.Placement) error {
	snap := s.Snapshot()
	if snap.Phase != session.PhasePlacement {
		return errors.New(errors.CodePhaseDisallowsOp, fmt.Sprintf("cannot submit a board while %s", snap.Phase))
	}
	if len(ships) != board.ShipCount {
		return errors.New(errors.CodeShipCountInvalid, fmt.Sprintf("fleet has %d ships, want %d", len(ships), board.ShipCount))
	}
	if err := board.Validate(ships); err != nil {
		return errors.Wrap(errors.CodeBoardInvalid, "invalid fleet layout", err)
	}

	s.apply(session.BoardSubmitted{Ships: ships})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.commitBoard(ships)
	}()
	return nil
}

// commitBoard generates the board proof and lands the commitment on the
// ledger and room record.
func (s *Session) commitBoard(ships []board.Placement) {
	bp, err := s.deps.Prover.ProveBoard(s.ctx, ships)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.apply(session.ActionFailed{Message: "board proof generation failed", RollbackPhase: session.PhasePlacement})
		return
	}

	snap := s.Snapshot()
	if snap.GameID != 0 {
		if err := s.deps.Ledger.SubmitCommitment(s.ctx, snap.GameID, s.cfg.Player, bp.Commitment); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.apply(session.ActionFailed{Message: "commitment submission failed", RollbackPhase: session.PhasePlacement})
			return
		}
	}

	hexCommitment := board.CommitmentHex(ships)
	if snap.RoomCode != "" {
		patch := room.Record{RoomCode: snap.RoomCode}
		if snap.Role == shot.RoleHost {
			patch.HostCommitment = hexCommitment
		} else {
			patch.JoinerCommitment = hexCommitment
			patch.JoinerAddress = s.cfg.Player
		}
		s.putRoom(patch)
	}
	s.deps.Bus.Publish(bus.Message{
		Kind:          bus.KindCommitment,
		RoomCode:      snap.RoomCode,
		Role:          snap.Role,
		CommitmentHex: hexCommitment,
	})

	s.apply(session.BoardCommitted{CommitmentHex: hexCommitment, Status: "board committed, waiting for opponent"})
}

// FireShot fires at a cell. The ledger assigns the shot index; the record and
// bus fan it out to the opponent.
func (s *Session) FireShot(ctx context.Context, row, col int) error {
	snap := s.Snapshot()
	if snap.Phase != session.PhaseActive {
		return errors.New(errors.CodePhaseDisallowsOp, fmt.Sprintf("cannot fire while %s", snap.Phase))
	}
	if row < 0 || row >= board.Size || col < 0 || col >= board.Size {
		return errors.New(errors.CodeCellOutOfBounds, fmt.Sprintf("cell (%d,%d) is off the board", row, col))
	}
	if snap.FiredAt(row, col) {
		return errors.New(errors.CodeCellAlreadyFired, fmt.Sprintf("already fired at (%d,%d)", row, col))
	}

	index := len(snap.MyShots)
	if snap.GameID != 0 {
		ledgerIndex, err := s.deps.Ledger.FireShot(ctx, snap.GameID, s.cfg.Player, row, col)
		if err != nil {
			return errors.Wrap(errors.CodeOf(err), "fire shot on ledger", err)
		}
		index = ledgerIndex
	}

	s.apply(session.ShotFired{Row: row, Col: col, Index: index})

	fired := shot.Shot{Row: row, Col: col, Index: index}
	s.putRoom(roomShotPatch(snap.RoomCode, snap.Role, fired, nil))
	s.deps.Bus.Publish(bus.Message{
		Kind:     bus.KindShot,
		RoomCode: snap.RoomCode,
		Role:     snap.Role,
		Row:      row,
		Col:      col,
		Index:    index,
	})
	return nil
}

// SubmitHitProof proves one incoming shot on demand. The session normally
// does this automatically; the explicit action exists for recovery when an
// earlier attempt failed.
func (s *Session) SubmitHitProof(ctx context.Context, index int) error {
	snap := s.Snapshot()
	var target *shot.Shot
	for i := range snap.IncomingShots {
		if snap.IncomingShots[i].Index == index {
			target = &snap.IncomingShots[i]
			break
		}
	}
	if target == nil {
		return errors.New(errors.CodeShotNotFound, fmt.Sprintf("no incoming shot with index %d", index))
	}
	if target.Result != shot.ResultPending {
		return errors.New(errors.CodeProofReplayed, fmt.Sprintf("incoming shot %d already resolved", index))
	}

	s.mu.Lock()
	if s.proving[index] {
		s.mu.Unlock()
		return nil
	}
	s.proving[index] = true
	s.mu.Unlock()

	s.proveIncoming(*target)
	return nil
}

// Reset abandons the match and returns to idle. The room record is deleted
// when this session created it.
func (s *Session) Reset(ctx context.Context) error {
	snap := s.Snapshot()
	if snap.RoomCode != "" && snap.Role == shot.RoleHost {
		if err := s.deps.Rooms.Delete(ctx, snap.RoomCode); err != nil {
			log.Printf("delete room %s: %v", snap.RoomCode, err)
		}
	}
	s.apply(session.ResetRequested{})
	return nil
}
