// Package app runs a game session: it owns the session state, exposes the
// player actions, and reconciles the three event sources (in-process bus,
// shared room record, on-chain ledger) into that state.
package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/darkwater/internal/services/game/bus"
	"github.com/louisbranch/darkwater/internal/services/game/domain/board"
	"github.com/louisbranch/darkwater/internal/services/game/domain/session"
	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
	"github.com/louisbranch/darkwater/internal/services/game/ledger"
	"github.com/louisbranch/darkwater/internal/services/game/prover"
	"github.com/louisbranch/darkwater/internal/services/game/rooms"
)

// Deps are the external collaborators of a session.
type Deps struct {
	Bus    *bus.Bus
	Rooms  rooms.Store
	Ledger ledger.Client
	Prover *prover.Prover
}

// Session owns one player's view of a match.
//
// All state changes flow through apply, which folds one event at a time under
// the session mutex. Everything the loops and actions learn is expressed as
// an event, so duplicate observations from different sources collapse in the
// fold instead of in ad hoc checks.
type Session struct {
	cfg  Config
	deps Deps

	mu    sync.Mutex
	state session.State
	// proving tracks incoming shot indexes with a proof in flight, so the
	// same shot observed on two sources is proven once.
	proving map[int]bool
	// joining guards the join transaction; the game id can arrive from the
	// bus and the room poll at once.
	joining    bool
	proofTimer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New assembles a session. Call Start before using it.
func New(cfg Config, deps Deps) *Session {
	s := &Session{
		cfg:     cfg.normalized(),
		deps:    deps,
		state:   session.Initial(),
		proving: make(map[int]bool),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Start launches the reconciliation loops. They stop when ctx is canceled or
// Stop is called.
func (s *Session) Start(ctx context.Context) {
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(ctx)

	msgs, unsubscribe := s.deps.Bus.Subscribe()

	s.wg.Add(4)
	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		s.busLoop(msgs)
	}()
	go func() {
		defer s.wg.Done()
		s.roomPollLoop()
	}()
	go func() {
		defer s.wg.Done()
		s.ledgerPollLoop()
	}()
	go func() {
		defer s.wg.Done()
		s.lobbyPollLoop()
	}()
}

// Stop cancels the loops and waits for them to finish.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	s.stopProofTimer()
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state safe to read concurrently.
func (s *Session) Snapshot() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// apply folds one event into the state and runs the phase-edge side effects:
// the proof liveness timer and the auto-prover for newly observed incoming
// shots.
func (s *Session) apply(evt session.Event) session.State {
	s.mu.Lock()

	prev := s.state
	s.state = session.Fold(prev, evt)
	next := s.state

	if next.Phase == session.PhaseWaitingProof && prev.Phase != session.PhaseWaitingProof {
		// The liveness timer guards my own pending shot, so only a fire (or a
		// resolution that re-exposes my pending shot) arms it. Entering
		// waiting_proof while the opponent opens the game is open-ended
		// waiting, not a liveness failure.
		switch evt.(type) {
		case session.ShotFired, session.IncomingResolved:
			s.resetProofTimer()
		}
	}
	if next.Phase != session.PhaseWaitingProof && prev.Phase == session.PhaseWaitingProof {
		s.stopProofTimer()
	}

	if _, ok := evt.(session.ResetRequested); ok {
		s.proving = make(map[int]bool)
		s.joining = false
	}

	var todo []shot.Shot
	if len(next.MyShips) > 0 && next.Phase != session.PhaseGameOver {
		for _, sh := range next.IncomingShots {
			if sh.Result == shot.ResultPending && !s.proving[sh.Index] {
				s.proving[sh.Index] = true
				todo = append(todo, sh)
			}
		}
	}
	won := next.Phase == session.PhaseGameOver &&
		prev.Phase != session.PhaseGameOver &&
		next.Winner == session.WinnerMe
	s.mu.Unlock()

	for _, sh := range todo {
		s.wg.Add(1)
		go func(sh shot.Shot) {
			defer s.wg.Done()
			s.proveIncoming(sh)
		}(sh)
	}
	if won {
		// Announce the win so the opponent's session ends identically even
		// if its own merge has not caught up yet.
		s.putRoom(roomWinnerPatch(next.RoomCode, next.Role))
		s.deps.Bus.Publish(bus.Message{Kind: bus.KindGameOver, RoomCode: next.RoomCode, Role: next.Role})
	}
	return next
}

// resetProofTimer (re)arms the opponent-proof liveness timer. Caller holds mu.
func (s *Session) resetProofTimer() {
	s.stopProofTimer()
	s.proofTimer = time.AfterFunc(s.cfg.ProofTimeout, func() {
		s.apply(session.ProofTimedOut{})
	})
}

// stopProofTimer cancels the timer if armed. Caller holds mu.
func (s *Session) stopProofTimer() {
	if s.proofTimer != nil {
		s.proofTimer.Stop()
		s.proofTimer = nil
	}
}

// proveIncoming generates and publishes the hit proof for one opponent shot.
func (s *Session) proveIncoming(sh shot.Shot) {
	snap := s.Snapshot()
	for _, cur := range snap.IncomingShots {
		if cur.Index == sh.Index && cur.Result != shot.ResultPending {
			// Resolved meanwhile, typically from a rehydrated room record.
			return
		}
	}

	hp, err := s.deps.Prover.ProveShot(s.ctx, snap.MyShips, sh.Index, sh.Row, sh.Col)
	if err != nil {
		s.abandonProof(sh.Index, "prove shot", err)
		return
	}

	if snap.GameID != 0 {
		err := s.deps.Ledger.SubmitHitProof(s.ctx, snap.GameID, s.cfg.Player, hp.Index, hp.Result, hp.Proof)
		if err != nil && !isBenignProofError(err) {
			s.abandonProof(sh.Index, "submit hit proof", err)
			return
		}
	}

	attacker := snap.Role.Opponent()
	result := hp.Result
	s.putRoom(roomShotPatch(snap.RoomCode, attacker, sh, &result))
	s.deps.Bus.Publish(bus.Message{
		Kind:     bus.KindHitProof,
		RoomCode: snap.RoomCode,
		Role:     attacker,
		Row:      sh.Row,
		Col:      sh.Col,
		Index:    sh.Index,
		Result:   result,
	})

	status := "shot incoming: miss"
	if result == 1 {
		status = "shot incoming: hit"
	}
	s.apply(session.IncomingResolved{Index: sh.Index, Result: result, Status: status})
}

// abandonProof releases the in-flight guard so a later observation retries.
func (s *Session) abandonProof(index int, op string, err error) {
	if s.ctx.Err() != nil {
		return
	}
	log.Printf("%s for incoming shot %d: %v", op, index, err)
	s.mu.Lock()
	delete(s.proving, index)
	s.mu.Unlock()
}

func cloneState(st session.State) session.State {
	out := st
	out.MyShips = append([]board.Placement(nil), st.MyShips...)
	out.MyShots = append([]shot.Shot(nil), st.MyShots...)
	out.IncomingShots = append([]shot.Shot(nil), st.IncomingShots...)
	out.LobbyGames = append([]session.LobbyGame(nil), st.LobbyGames...)
	if st.EarlyProofs != nil {
		out.EarlyProofs = make(map[int]int, len(st.EarlyProofs))
		for k, v := range st.EarlyProofs {
			out.EarlyProofs[k] = v
		}
	}
	return out
}
