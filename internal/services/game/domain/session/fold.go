package session

import (
	"github.com/louisbranch/darkwater/internal/services/game/domain/board"
	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
)

// Fold applies one event to the session state and returns the new state.
//
// Fold is the only place phase and score change. It is idempotent against
// duplicate delivery: shots merge by (role, index), results apply only to
// pending shots, and hit counters move exactly on the pending-to-hit edge.
// The win check (hits reaching board.TotalShipCells) runs in both resolution
// paths so the game ends identically no matter which source reported the
// final hit.
func Fold(s State, evt Event) State {
	switch e := evt.(type) {
	case ResetRequested:
		return Initial()

	case GameCreated:
		s.Phase = PhaseWaitingJoiner
		s.RoomCode = e.RoomCode
		s.Role = shot.RoleHost
		s.Err = ""

	case GameIDAssigned:
		if s.GameID == 0 {
			s.GameID = e.GameID
		}
		if e.Status != "" {
			s.Status = e.Status
		}

	case JoinRequested:
		s.Phase = PhaseLobby
		s.RoomCode = e.RoomCode
		s.Role = shot.RoleJoiner
		s.Err = ""
		s.Status = "looking for game"

	case JoinCompleted:
		if s.GameID == 0 {
			s.GameID = e.GameID
		}
		s.Phase = PhasePlacement
		s.Err = ""
		s.Status = "joined game, place your ships"

	case JoinTimedOut:
		s.Phase = PhaseIdle
		s.Status = ""
		s.Err = "timed out waiting for the game; make sure the host created it first"

	case JoinerJoined:
		if s.Role == shot.RoleHost && s.Phase == PhaseWaitingJoiner {
			s.Phase = PhasePlacement
			s.Status = "opponent joined, place your ships"
		}

	case BoardSubmitted:
		s.MyShips = append([]board.Placement(nil), e.Ships...)
		s.Phase = PhaseProving
		s.Err = ""
		s.Status = "generating board validity proof"

	case BoardCommitted:
		s.MyCommitmentHex = e.CommitmentHex
		if s.OpponentCommitmentHex != "" {
			s.Phase = activePhaseForRole(s.Role)
		} else {
			s.Phase = PhaseWaitingOpponent
		}
		if e.Status != "" {
			s.Status = e.Status
		}

	case CommitmentObserved:
		if e.Role == s.Role {
			return s
		}
		if s.OpponentCommitmentHex == "" {
			s.OpponentCommitmentHex = e.CommitmentHex
		}
		if s.Phase == PhaseWaitingOpponent && s.bothCommitted() {
			s.Phase = activePhaseForRole(s.Role)
		}

	case BothCommitted:
		if s.Phase == PhaseWaitingOpponent {
			s.Phase = activePhaseForRole(s.Role)
			s.Status = "both boards committed, game is active"
		}

	case ShotFired:
		if indexOf(s.MyShots, e.Index) >= 0 {
			return s
		}
		result := shot.ResultPending
		if bit, ok := s.EarlyProofs[e.Index]; ok {
			result = shot.FromBit(bit)
			s.EarlyProofs = cloneWithout(s.EarlyProofs, e.Index)
		}
		s.MyShots = append(append([]shot.Shot(nil), s.MyShots...), shot.Shot{
			Row: e.Row, Col: e.Col, Index: e.Index, Result: result,
		})
		s.Err = ""
		if result == shot.ResultHit {
			s.MyHits++
		}
		switch {
		case s.MyHits >= board.TotalShipCells:
			s.Phase = PhaseGameOver
			s.Winner = WinnerMe
		case result == shot.ResultPending:
			s.Phase = PhaseWaitingProof
		default:
			// Proof arrived before the shot record; skip the waiting detour.
			s.Phase = PhaseActive
			s.Status = resolvedStatus(result)
		}

	case ShotObserved:
		if e.FromRole == s.Role || !e.FromRole.Valid() {
			return s
		}
		if indexOf(s.IncomingShots, e.Index) >= 0 {
			return s
		}
		s.IncomingShots = append(append([]shot.Shot(nil), s.IncomingShots...), shot.Shot{
			Row: e.Row, Col: e.Col, Index: e.Index, Result: shot.ResultPending,
		})

	case HitProofObserved:
		i := indexOf(s.MyShots, e.Index)
		if i < 0 {
			// Race: the proof can outrun the local shot record. Buffer it and
			// apply it the moment the shot is created.
			s.EarlyProofs = cloneWith(s.EarlyProofs, e.Index, e.Result)
			return s
		}
		if s.MyShots[i].Result != shot.ResultPending {
			return s
		}
		result := shot.FromBit(e.Result)
		s.MyShots = setResult(s.MyShots, i, result)
		if result == shot.ResultHit {
			s.MyHits++
		}
		s.Status = resolvedStatus(result)
		if s.MyHits >= board.TotalShipCells {
			s.Phase = PhaseGameOver
			s.Winner = WinnerMe
		} else if s.Phase == PhaseWaitingProof {
			s.Phase = PhaseActive
		}

	case IncomingResolved:
		i := indexOf(s.IncomingShots, e.Index)
		if i < 0 || s.IncomingShots[i].Result != shot.ResultPending {
			return s
		}
		result := shot.FromBit(e.Result)
		s.IncomingShots = setResult(s.IncomingShots, i, result)
		if result == shot.ResultHit {
			s.OpponentHits++
		}
		s.Err = ""
		if e.Status != "" {
			s.Status = e.Status
		}
		if s.OpponentHits >= board.TotalShipCells {
			s.Phase = PhaseGameOver
			s.Winner = WinnerOpponent
		} else if s.Phase == PhaseActive || s.Phase == PhaseWaitingProof {
			// Only my own unresolved shot keeps me waiting.
			if s.hasPendingOwnShot() {
				s.Phase = PhaseWaitingProof
			} else {
				s.Phase = PhaseActive
			}
		}

	case GameOverObserved:
		if s.Phase == PhaseGameOver {
			return s
		}
		s.Phase = PhaseGameOver
		if e.WinnerRole == s.Role {
			s.Winner = WinnerMe
		} else {
			s.Winner = WinnerOpponent
		}

	case ProofTimedOut:
		if s.Phase == PhaseWaitingProof {
			s.Phase = PhaseActive
			s.Err = "timed out waiting for the opponent's proof"
		}

	case LobbyListed:
		s.LobbyGames = append([]LobbyGame(nil), e.Games...)

	case StatusChanged:
		s.Status = e.Status

	case ActionFailed:
		s.Err = e.Message
		s.Status = ""
		if e.RollbackPhase != "" {
			s.Phase = e.RollbackPhase
		}
	}
	return s
}

// indexOf finds a shot by its sequence index, or -1.
func indexOf(shots []shot.Shot, index int) int {
	for i, sh := range shots {
		if sh.Index == index {
			return i
		}
	}
	return -1
}

// setResult returns a copy of shots with position i resolved.
func setResult(shots []shot.Shot, i int, result shot.Result) []shot.Shot {
	next := append([]shot.Shot(nil), shots...)
	next[i].Result = result
	return next
}

func cloneWith(m map[int]int, key, value int) map[int]int {
	next := make(map[int]int, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	next[key] = value
	return next
}

func cloneWithout(m map[int]int, key int) map[int]int {
	next := make(map[int]int, len(m))
	for k, v := range m {
		if k != key {
			next[k] = v
		}
	}
	return next
}

func resolvedStatus(result shot.Result) string {
	if result == shot.ResultHit {
		return "opponent proved: hit"
	}
	return "opponent proved: miss"
}
