package app

import (
	"encoding/hex"
	"log"
	"time"

	"github.com/louisbranch/darkwater/internal/platform/errors"
	"github.com/louisbranch/darkwater/internal/services/game/bus"
	"github.com/louisbranch/darkwater/internal/services/game/domain/session"
	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
	"github.com/louisbranch/darkwater/internal/services/game/ledger"
	"github.com/louisbranch/darkwater/internal/services/rooms/domain/room"
)

// busLoop turns bus messages into session events.
func (s *Session) busLoop(msgs <-chan bus.Message) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			s.handleBusMessage(msg)
		}
	}
}

func (s *Session) handleBusMessage(msg bus.Message) {
	snap := s.Snapshot()
	// Every message is scoped to a room; without a code on both sides there
	// is no way to tell another match's traffic from ours, so drop it.
	if msg.RoomCode == "" || snap.RoomCode == "" || msg.RoomCode != snap.RoomCode {
		return
	}

	switch msg.Kind {
	case bus.KindRoomReady:
		// Informational; the joiner acts on the game id, not room creation.
	case bus.KindJoinerJoined:
		s.apply(session.JoinerJoined{})
	case bus.KindGameIDSet:
		if snap.Role == shot.RoleJoiner && snap.Phase == session.PhaseLobby {
			s.tryJoin(msg.GameID)
		}
	case bus.KindCommitment:
		s.apply(session.CommitmentObserved{Role: msg.Role, CommitmentHex: msg.CommitmentHex})
	case bus.KindShot:
		if msg.Role != snap.Role {
			s.apply(session.ShotObserved{FromRole: msg.Role, Row: msg.Row, Col: msg.Col, Index: msg.Index})
		}
	case bus.KindHitProof:
		// Role names the attacker whose shot was proven.
		if msg.Role == snap.Role {
			s.apply(session.HitProofObserved{Index: msg.Index, Result: msg.Result})
		}
	case bus.KindGameOver:
		if msg.Role.Valid() {
			s.apply(session.GameOverObserved{WinnerRole: msg.Role})
		}
	}
}

// pollGameID waits for the host to publish the ledger game id in the room
// record, then joins.
func (s *Session) pollGameID(code string) {
	ticker := time.NewTicker(s.cfg.GameIDPollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < s.cfg.GameIDPollAttempts; attempt++ {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}

		snap := s.Snapshot()
		if snap.Phase != session.PhaseLobby {
			return
		}
		rec, err := s.deps.Rooms.Get(s.ctx, code)
		if err != nil {
			continue
		}
		if rec.GameID != 0 {
			s.tryJoin(rec.GameID)
			return
		}
	}

	if s.Snapshot().Phase == session.PhaseLobby {
		s.apply(session.JoinTimedOut{})
	}
}

// tryJoin performs the join transaction at most once, no matter how many
// sources reveal the game id.
func (s *Session) tryJoin(gameID uint64) {
	s.mu.Lock()
	if s.joining || s.state.Phase != session.PhaseLobby {
		s.mu.Unlock()
		return
	}
	s.joining = true
	s.mu.Unlock()

	if err := s.deps.Ledger.JoinGame(s.ctx, gameID, s.cfg.Player); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.apply(session.ActionFailed{Message: "join game failed", RollbackPhase: session.PhaseIdle})
		s.mu.Lock()
		s.joining = false
		s.mu.Unlock()
		return
	}

	snap := s.Snapshot()
	s.apply(session.JoinCompleted{GameID: gameID})
	if snap.RoomCode != "" {
		s.putRoom(room.Record{RoomCode: snap.RoomCode, JoinerAddress: s.cfg.Player})
	}
	s.deps.Bus.Publish(bus.Message{Kind: bus.KindJoinerJoined, RoomCode: snap.RoomCode, GameID: gameID})
}

// roomPollLoop reads the shared room record and merges whatever the opponent
// published since the last read.
func (s *Session) roomPollLoop() {
	ticker := time.NewTicker(s.cfg.RoomPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}

		snap := s.Snapshot()
		if snap.RoomCode == "" || !pollablePhase(snap.Phase) {
			continue
		}
		rec, err := s.deps.Rooms.Get(s.ctx, snap.RoomCode)
		if err != nil {
			continue
		}
		s.mergeRoomRecord(rec)
	}
}

// mergeRoomRecord folds the remote facts from one room record read. Every
// event is idempotent, so re-reading an unchanged record is a no-op.
func (s *Session) mergeRoomRecord(rec room.Record) {
	snap := s.Snapshot()
	if !snap.Role.Valid() {
		return
	}
	opponent := snap.Role.Opponent()

	if rec.GameID != 0 {
		s.apply(session.GameIDAssigned{GameID: rec.GameID})
	}
	if snap.Role == shot.RoleHost && rec.JoinerAddress != "" {
		s.apply(session.JoinerJoined{})
	}

	oppCommitment := rec.HostCommitment
	if opponent == shot.RoleJoiner {
		oppCommitment = rec.JoinerCommitment
	}
	if oppCommitment != "" {
		s.apply(session.CommitmentObserved{Role: opponent, CommitmentHex: oppCommitment})
	}

	for _, sr := range rec.Shots {
		switch sr.FromRole {
		case opponent:
			s.apply(session.ShotObserved{FromRole: sr.FromRole, Row: sr.Row, Col: sr.Col, Index: sr.Index})
			if sr.Result != nil {
				s.apply(session.IncomingResolved{Index: sr.Index, Result: *sr.Result})
			}
		case snap.Role:
			s.apply(session.ShotFired{Row: sr.Row, Col: sr.Col, Index: sr.Index})
			if sr.Result != nil {
				s.apply(session.HitProofObserved{Index: sr.Index, Result: *sr.Result})
			}
		}
	}

	if rec.Winner.Valid() {
		s.apply(session.GameOverObserved{WinnerRole: rec.Winner})
	}
}

// ledgerPollLoop polls the authoritative on-chain game state.
func (s *Session) ledgerPollLoop() {
	ticker := time.NewTicker(s.cfg.LedgerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}

		snap := s.Snapshot()
		if snap.GameID == 0 || !pollablePhase(snap.Phase) {
			continue
		}
		g, err := s.deps.Ledger.GameState(s.ctx, snap.GameID)
		if err != nil {
			continue
		}
		s.mergeLedgerState(g)
	}
}

// mergeLedgerState folds the facts from one ledger snapshot.
func (s *Session) mergeLedgerState(g ledger.GameState) {
	snap := s.Snapshot()
	if !snap.Role.Valid() {
		return
	}
	opponent := snap.Role.Opponent()

	if snap.Role == shot.RoleHost && g.Opponent != "" {
		s.apply(session.JoinerJoined{})
	}

	oppCommitment := g.CreatorCommitment
	if opponent == shot.RoleJoiner {
		oppCommitment = g.OpponentCommitment
	}
	if len(oppCommitment) > 0 {
		s.apply(session.CommitmentObserved{Role: opponent, CommitmentHex: hex.EncodeToString(oppCommitment)})
	}
	if g.BothCommitted() {
		s.apply(session.BothCommitted{})
	}

	for _, sr := range g.Shots {
		if sr.Player == s.cfg.Player {
			s.apply(session.ShotFired{Row: sr.Row, Col: sr.Col, Index: sr.Index})
			if sr.Result != ledger.ResultPending {
				s.apply(session.HitProofObserved{Index: sr.Index, Result: int(sr.Result)})
			}
			continue
		}
		s.apply(session.ShotObserved{FromRole: opponent, Row: sr.Row, Col: sr.Col, Index: sr.Index})
		if sr.Result != ledger.ResultPending {
			s.apply(session.IncomingResolved{Index: sr.Index, Result: int(sr.Result)})
		}
	}

	if g.Status == ledger.StatusFinished && g.Winner != "" {
		winnerRole := shot.RoleHost
		if g.Winner != g.Creator {
			winnerRole = shot.RoleJoiner
		}
		s.apply(session.GameOverObserved{WinnerRole: winnerRole})
	}
}

// lobbyPollLoop refreshes the open-game listing while the player can still
// pick a game.
func (s *Session) lobbyPollLoop() {
	s.refreshLobby()

	ticker := time.NewTicker(s.cfg.LobbyPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
		s.refreshLobby()
	}
}

func (s *Session) refreshLobby() {
	snap := s.Snapshot()
	if snap.Phase != session.PhaseIdle && snap.Phase != session.PhaseLobby {
		return
	}
	games, err := s.deps.Ledger.RecentGames(s.ctx, 20)
	if err != nil {
		return
	}
	listed := make([]session.LobbyGame, 0, len(games))
	for _, g := range games {
		listed = append(listed, session.LobbyGame{GameID: g.ID, Creator: g.Creator, CreatedAt: g.CreatedAt})
	}
	s.apply(session.LobbyListed{Games: listed})
}

// pollablePhase reports whether remote reconciliation is still useful.
func pollablePhase(phase session.Phase) bool {
	switch phase {
	case session.PhaseIdle, session.PhaseGameOver:
		return false
	}
	return true
}

// putRoom merges a partial record into the shared room document.
func (s *Session) putRoom(patch room.Record) {
	if patch.RoomCode == "" {
		return
	}
	if _, err := s.deps.Rooms.Put(s.ctx, patch); err != nil && s.ctx.Err() == nil {
		log.Printf("update room %s: %v", patch.RoomCode, err)
	}
}

func roomWinnerPatch(code string, winner shot.Role) room.Record {
	return room.Record{RoomCode: code, Winner: winner}
}

func roomShotPatch(code string, role shot.Role, sh shot.Shot, result *int) room.Record {
	return room.Record{
		RoomCode: code,
		Shots: []shot.Record{{
			FromRole: role,
			Row:      sh.Row,
			Col:      sh.Col,
			Index:    sh.Index,
			Result:   result,
		}},
	}
}

// isBenignProofError reports whether a proof submission failed only because
// another path already landed it.
func isBenignProofError(err error) bool {
	return errors.CodeOf(err) == errors.CodeProofReplayed
}
