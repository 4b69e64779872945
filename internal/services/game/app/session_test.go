package app

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/darkwater/internal/platform/errors"
	"github.com/louisbranch/darkwater/internal/services/game/bus"
	"github.com/louisbranch/darkwater/internal/services/game/domain/board"
	"github.com/louisbranch/darkwater/internal/services/game/domain/session"
	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
	"github.com/louisbranch/darkwater/internal/services/game/ledger"
	"github.com/louisbranch/darkwater/internal/services/game/prover"
	"github.com/louisbranch/darkwater/internal/services/game/rooms"
)

func testFleet() []board.Placement {
	return []board.Placement{
		{Row: 0, Col: 0, Length: 5, Orientation: board.Horizontal},
		{Row: 1, Col: 0, Length: 4, Orientation: board.Horizontal},
		{Row: 2, Col: 0, Length: 3, Orientation: board.Horizontal},
		{Row: 3, Col: 0, Length: 3, Orientation: board.Horizontal},
		{Row: 4, Col: 0, Length: 2, Orientation: board.Horizontal},
	}
}

// missCells are cells no testFleet ship covers.
func missCells() []board.Cell {
	var cells []board.Cell
	for col := 0; col < board.Size; col++ {
		cells = append(cells, board.Cell{Row: 9, Col: col})
	}
	for col := 0; col < board.Size; col++ {
		cells = append(cells, board.Cell{Row: 8, Col: col})
	}
	return cells
}

func testConfig(player string) Config {
	return Config{
		Player:             player,
		RoomPollInterval:   10 * time.Millisecond,
		LedgerPollInterval: 15 * time.Millisecond,
		GameIDPollInterval: 10 * time.Millisecond,
		GameIDPollAttempts: 200,
		LobbyPollInterval:  20 * time.Millisecond,
		ProofTimeout:       10 * time.Second,
	}
}

// newPair wires two sessions to the same bus, room store, and ledger.
func newPair(t *testing.T) (host, joiner *Session) {
	t.Helper()

	shared := Deps{
		Bus:    bus.New(64),
		Rooms:  rooms.NewLocal(),
		Ledger: ledger.NewSim(),
		Prover: prover.New(prover.WithBoardProofDelay(0), prover.WithHitProofDelay(0)),
	}

	host = New(testConfig("GHOST"), shared)
	joiner = New(testConfig("GJOIN"), shared)

	ctx := context.Background()
	host.Start(ctx)
	joiner.Start(ctx)
	t.Cleanup(func() {
		host.Stop()
		joiner.Stop()
	})
	return host, joiner
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitPhase(t *testing.T, s *Session, phase session.Phase) {
	t.Helper()
	waitFor(t, string(phase), func() bool { return s.Snapshot().Phase == phase })
}

// waitTurn waits until the session may fire: the phase is active, at least
// incoming opponent shots have arrived, and every one of them has been
// proven, which is when the ledger turn passes back. Requiring the expected
// count keeps the condition from passing vacuously before the opponent's
// latest shot has reached this session.
func waitTurn(t *testing.T, s *Session, incoming int) {
	t.Helper()
	waitFor(t, "turn to fire", func() bool {
		snap := s.Snapshot()
		if snap.Phase != session.PhaseActive {
			return false
		}
		if len(snap.IncomingShots) < incoming {
			return false
		}
		for _, sh := range snap.IncomingShots {
			if sh.Result == shot.ResultPending {
				return false
			}
		}
		return true
	})
}

func TestCreateGame(t *testing.T) {
	host, _ := newPair(t)

	if err := host.CreateGame(context.Background()); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	snap := host.Snapshot()
	if snap.Phase != session.PhaseWaitingJoiner {
		t.Fatalf("phase = %s, want %s", snap.Phase, session.PhaseWaitingJoiner)
	}
	if len(snap.RoomCode) != codeLength {
		t.Fatalf("room code = %q, want %d characters", snap.RoomCode, codeLength)
	}
	if snap.GameID == 0 {
		t.Fatal("expected a ledger game id")
	}

	rec, err := host.deps.Rooms.Get(context.Background(), snap.RoomCode)
	if err != nil {
		t.Fatalf("room record missing: %v", err)
	}
	if rec.HostAddress != "GHOST" || rec.GameID != snap.GameID {
		t.Fatalf("room record = %+v, want host identity and game id", rec)
	}
}

func TestCreateGameGuards(t *testing.T) {
	host, _ := newPair(t)

	noWallet := New(testConfig(""), host.deps)
	if err := noWallet.CreateGame(context.Background()); errors.CodeOf(err) != errors.CodeWalletRequired {
		t.Fatalf("err = %v, want wallet required", err)
	}

	if err := host.CreateGame(context.Background()); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := host.CreateGame(context.Background()); errors.CodeOf(err) != errors.CodePhaseDisallowsOp {
		t.Fatalf("err = %v, want phase guard", err)
	}
}

func TestJoinGameGuards(t *testing.T) {
	_, joiner := newPair(t)

	if err := joiner.JoinGame(context.Background(), ""); errors.CodeOf(err) != errors.CodeRoomRequired {
		t.Fatalf("err = %v, want room required", err)
	}
}

func TestJoinTimesOutWithoutHost(t *testing.T) {
	_, joiner := newPair(t)
	joiner.cfg.GameIDPollAttempts = 3

	if err := joiner.JoinGame(context.Background(), "NOHOST"); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	waitPhase(t, joiner, session.PhaseIdle)
	if joiner.Snapshot().Err == "" {
		t.Fatal("expected a join timeout message")
	}
}

func TestJoinReachesPlacementOnBothSides(t *testing.T) {
	host, joiner := newPair(t)
	ctx := context.Background()

	if err := host.CreateGame(ctx); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	code := host.Snapshot().RoomCode

	if err := joiner.JoinGame(ctx, code); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}

	waitPhase(t, joiner, session.PhasePlacement)
	waitPhase(t, host, session.PhasePlacement)

	if joiner.Snapshot().GameID != host.Snapshot().GameID {
		t.Fatal("sessions disagree on the game id")
	}
}

func TestSubmitBoardValidation(t *testing.T) {
	host, joiner := newPair(t)
	ctx := context.Background()

	if err := host.CreateGame(ctx); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := joiner.JoinGame(ctx, host.Snapshot().RoomCode); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	waitPhase(t, host, session.PhasePlacement)

	if err := host.SubmitBoard(ctx, testFleet()[:4]); errors.CodeOf(err) != errors.CodeShipCountInvalid {
		t.Fatalf("err = %v, want ship count guard", err)
	}

	overlapping := testFleet()
	overlapping[1] = overlapping[0]
	overlapping[1].Length = 4
	if err := host.SubmitBoard(ctx, overlapping); errors.CodeOf(err) != errors.CodeBoardInvalid {
		t.Fatalf("err = %v, want board guard", err)
	}
}

func TestFullMatch(t *testing.T) {
	host, joiner := newPair(t)
	ctx := context.Background()

	if err := host.CreateGame(ctx); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := joiner.JoinGame(ctx, host.Snapshot().RoomCode); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	waitPhase(t, host, session.PhasePlacement)
	waitPhase(t, joiner, session.PhasePlacement)

	if err := host.SubmitBoard(ctx, testFleet()); err != nil {
		t.Fatalf("host SubmitBoard: %v", err)
	}
	if err := joiner.SubmitBoard(ctx, testFleet()); err != nil {
		t.Fatalf("joiner SubmitBoard: %v", err)
	}
	waitPhase(t, host, session.PhaseActive)

	targets := board.Cells(testFleet())
	misses := missCells()

	for i, cell := range targets {
		waitTurn(t, host, i)
		if err := host.FireShot(ctx, cell.Row, cell.Col); err != nil {
			t.Fatalf("host FireShot %d: %v", i, err)
		}

		if i < len(targets)-1 {
			// The joiner answers with a miss to hand the turn back.
			waitTurn(t, joiner, i+1)
			miss := misses[i]
			if err := joiner.FireShot(ctx, miss.Row, miss.Col); err != nil {
				t.Fatalf("joiner FireShot %d: %v", i, err)
			}
		}
	}

	waitPhase(t, host, session.PhaseGameOver)
	waitPhase(t, joiner, session.PhaseGameOver)

	hostSnap := host.Snapshot()
	if hostSnap.Winner != session.WinnerMe {
		t.Fatalf("host winner = %s, want %s", hostSnap.Winner, session.WinnerMe)
	}
	if hostSnap.MyHits != board.TotalShipCells {
		t.Fatalf("host hits = %d, want %d", hostSnap.MyHits, board.TotalShipCells)
	}

	joinerSnap := joiner.Snapshot()
	if joinerSnap.Winner != session.WinnerOpponent {
		t.Fatalf("joiner winner = %s, want %s", joinerSnap.Winner, session.WinnerOpponent)
	}
	if joinerSnap.OpponentHits != board.TotalShipCells {
		t.Fatalf("joiner opponent hits = %d, want %d", joinerSnap.OpponentHits, board.TotalShipCells)
	}

	// The ledger agrees on the outcome.
	g, err := host.deps.Ledger.GameState(ctx, hostSnap.GameID)
	if err != nil {
		t.Fatalf("GameState: %v", err)
	}
	if g.Status != ledger.StatusFinished || g.Winner != "GHOST" {
		t.Fatalf("ledger = %s/%s, want finished/GHOST", g.Status, g.Winner)
	}
}

func TestFireShotGuards(t *testing.T) {
	host, joiner := newPair(t)
	ctx := context.Background()

	if err := host.FireShot(ctx, 0, 0); errors.CodeOf(err) != errors.CodePhaseDisallowsOp {
		t.Fatalf("err = %v, want phase guard", err)
	}

	if err := host.CreateGame(ctx); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := joiner.JoinGame(ctx, host.Snapshot().RoomCode); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	waitPhase(t, host, session.PhasePlacement)
	waitPhase(t, joiner, session.PhasePlacement)
	_ = host.SubmitBoard(ctx, testFleet())
	_ = joiner.SubmitBoard(ctx, testFleet())
	waitPhase(t, host, session.PhaseActive)

	if err := host.FireShot(ctx, -1, 0); errors.CodeOf(err) != errors.CodeCellOutOfBounds {
		t.Fatalf("err = %v, want bounds guard", err)
	}
	if err := host.FireShot(ctx, 9, 9); err != nil {
		t.Fatalf("FireShot: %v", err)
	}
	waitPhase(t, host, session.PhaseActive)
	if err := host.FireShot(ctx, 9, 9); errors.CodeOf(err) != errors.CodeCellAlreadyFired {
		t.Fatalf("err = %v, want duplicate cell guard", err)
	}
}

func TestLobbyListing(t *testing.T) {
	host, joiner := newPair(t)
	ctx := context.Background()

	if err := host.CreateGame(ctx); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	waitFor(t, "lobby listing", func() bool {
		return len(joiner.Snapshot().LobbyGames) == 1
	})
	game := joiner.Snapshot().LobbyGames[0]
	if game.Creator != "GHOST" {
		t.Fatalf("lobby creator = %s, want GHOST", game.Creator)
	}

	if err := joiner.JoinGameByID(ctx, game.GameID); err != nil {
		t.Fatalf("JoinGameByID: %v", err)
	}
	waitPhase(t, joiner, session.PhasePlacement)
	waitPhase(t, host, session.PhasePlacement)
}

func TestJoinerWaitsForFirstShotWithoutTimeout(t *testing.T) {
	host, joiner := newPair(t)
	joiner.cfg.ProofTimeout = 25 * time.Millisecond
	ctx := context.Background()

	if err := host.CreateGame(ctx); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := joiner.JoinGame(ctx, host.Snapshot().RoomCode); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	waitPhase(t, host, session.PhasePlacement)
	waitPhase(t, joiner, session.PhasePlacement)
	if err := host.SubmitBoard(ctx, testFleet()); err != nil {
		t.Fatalf("host SubmitBoard: %v", err)
	}
	if err := joiner.SubmitBoard(ctx, testFleet()); err != nil {
		t.Fatalf("joiner SubmitBoard: %v", err)
	}
	waitPhase(t, joiner, session.PhaseWaitingProof)

	// The joiner has fired nothing; waiting for the host's opening shot is
	// open-ended and must not trip the proof liveness timer.
	time.Sleep(100 * time.Millisecond)
	snap := joiner.Snapshot()
	if snap.Phase != session.PhaseWaitingProof {
		t.Fatalf("phase = %s, want %s before the host fires", snap.Phase, session.PhaseWaitingProof)
	}
	if snap.Err != "" {
		t.Fatalf("unexpected error %q before any shot", snap.Err)
	}
}

func TestProofTimeoutAfterOwnShot(t *testing.T) {
	sim := ledger.NewSim()
	shared := Deps{
		Bus:    bus.New(64),
		Rooms:  rooms.NewLocal(),
		Ledger: sim,
		Prover: prover.New(prover.WithBoardProofDelay(0), prover.WithHitProofDelay(0)),
	}
	cfg := testConfig("GHOST")
	cfg.ProofTimeout = 30 * time.Millisecond
	host := New(cfg, shared)
	ctx := context.Background()
	host.Start(ctx)
	t.Cleanup(host.Stop)

	if err := host.CreateGame(ctx); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	gameID := host.Snapshot().GameID

	// The opponent acts on the ledger directly and never proves anything.
	if err := sim.JoinGame(ctx, gameID, "GJOIN"); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	if err := sim.SubmitCommitment(ctx, gameID, "GJOIN", []byte{1, 2, 3}); err != nil {
		t.Fatalf("SubmitCommitment: %v", err)
	}
	waitPhase(t, host, session.PhasePlacement)
	if err := host.SubmitBoard(ctx, testFleet()); err != nil {
		t.Fatalf("SubmitBoard: %v", err)
	}
	waitPhase(t, host, session.PhaseActive)

	if err := host.FireShot(ctx, 0, 0); err != nil {
		t.Fatalf("FireShot: %v", err)
	}
	waitFor(t, "proof timeout recovery", func() bool {
		snap := host.Snapshot()
		return snap.Phase == session.PhaseActive && snap.Err != ""
	})

	snap := host.Snapshot()
	if snap.MyHits != 0 || snap.OpponentHits != 0 {
		t.Fatalf("hits = %d/%d after timeout, want 0/0", snap.MyHits, snap.OpponentHits)
	}
	if snap.MyShots[0].Result != shot.ResultPending {
		t.Fatalf("shot result = %s, want still pending", snap.MyShots[0].Result)
	}
}

func TestBusIgnoresForeignRoom(t *testing.T) {
	host, _ := newPair(t)
	ctx := context.Background()

	// Idle session, no room code yet.
	host.deps.Bus.Publish(bus.Message{Kind: bus.KindCommitment, RoomCode: "OTHERROOM", Role: shot.RoleJoiner, CommitmentHex: "deadbeef"})
	host.deps.Bus.Publish(bus.Message{Kind: bus.KindShot, RoomCode: "OTHERROOM", Role: shot.RoleJoiner, Row: 1, Col: 1, Index: 0})

	if err := host.CreateGame(ctx); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	// In a room, traffic for a different code.
	host.deps.Bus.Publish(bus.Message{Kind: bus.KindCommitment, RoomCode: "OTHERROOM", Role: shot.RoleJoiner, CommitmentHex: "deadbeef"})

	time.Sleep(50 * time.Millisecond)
	snap := host.Snapshot()
	if snap.OpponentCommitmentHex != "" {
		t.Fatalf("session stored foreign commitment %q", snap.OpponentCommitmentHex)
	}
	if len(snap.IncomingShots) != 0 {
		t.Fatalf("session recorded %d foreign shots", len(snap.IncomingShots))
	}
}

func TestReset(t *testing.T) {
	host, _ := newPair(t)
	ctx := context.Background()

	if err := host.CreateGame(ctx); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	code := host.Snapshot().RoomCode

	if err := host.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if host.Snapshot().Phase != session.PhaseIdle {
		t.Fatalf("phase = %s, want idle", host.Snapshot().Phase)
	}
	if _, err := host.deps.Rooms.Get(ctx, code); err == nil {
		t.Fatal("room record survived host reset")
	}
}
