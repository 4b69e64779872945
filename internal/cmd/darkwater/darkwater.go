// Package darkwater configures and runs the local match harness: two
// sessions in one process playing a scripted match over the bus, the rooms
// service (with local fallback), and the simulated ledger.
package darkwater

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	platformcmd "github.com/louisbranch/darkwater/internal/platform/cmd"
	"github.com/louisbranch/darkwater/internal/platform/errors"
	"github.com/louisbranch/darkwater/internal/services/game/app"
	"github.com/louisbranch/darkwater/internal/services/game/bus"
	"github.com/louisbranch/darkwater/internal/services/game/domain/board"
	"github.com/louisbranch/darkwater/internal/services/game/domain/session"
	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
	"github.com/louisbranch/darkwater/internal/services/game/ledger"
	"github.com/louisbranch/darkwater/internal/services/game/prover"
	"github.com/louisbranch/darkwater/internal/services/game/rooms"
)

// Config holds the harness configuration.
type Config struct {
	RoomsBaseURL    string        `env:"DARKWATER_ROOMS_BASE_URL" envDefault:"http://localhost:8087"`
	HostWallet      string        `env:"DARKWATER_HOST_WALLET"`
	JoinerWallet    string        `env:"DARKWATER_JOINER_WALLET"`
	BoardProofDelay time.Duration `env:"DARKWATER_BOARD_PROOF_DELAY" envDefault:"2s"`
	HitProofDelay   time.Duration `env:"DARKWATER_HIT_PROOF_DELAY" envDefault:"1500ms"`
}

// ParseConfig loads env defaults and parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.RoomsBaseURL, "rooms-url", cfg.RoomsBaseURL, "rooms service base URL")
	fs.DurationVar(&cfg.BoardProofDelay, "board-proof-delay", cfg.BoardProofDelay, "simulated board proof latency")
	fs.DurationVar(&cfg.HitProofDelay, "hit-proof-delay", cfg.HitProofDelay, "simulated hit proof latency")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if cfg.HostWallet == "" {
		cfg.HostWallet = newWallet()
	}
	if cfg.JoinerWallet == "" {
		cfg.JoinerWallet = newWallet()
	}
	return cfg, nil
}

// newWallet fabricates a throwaway wallet address for the harness.
func newWallet() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "G" + strings.ToUpper(raw[:16])
}

// Run plays one scripted match between two sessions and exits.
func Run(ctx context.Context, cfg Config) error {
	shared := app.Deps{
		Bus:    bus.New(64),
		Rooms:  rooms.NewFallback(rooms.NewRemote(cfg.RoomsBaseURL), rooms.NewLocal()),
		Ledger: ledger.NewSim(),
		Prover: prover.New(
			prover.WithBoardProofDelay(cfg.BoardProofDelay),
			prover.WithHitProofDelay(cfg.HitProofDelay),
		),
	}

	host := app.New(app.Config{Player: cfg.HostWallet}, shared)
	joiner := app.New(app.Config{Player: cfg.JoinerWallet}, shared)
	host.Start(ctx)
	joiner.Start(ctx)
	defer host.Stop()
	defer joiner.Stop()

	if err := host.CreateGame(ctx); err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	code := host.Snapshot().RoomCode
	log.Printf("host created room %s (game %d)", code, host.Snapshot().GameID)

	if err := joiner.JoinGame(ctx, code); err != nil {
		return fmt.Errorf("join game: %w", err)
	}
	if err := waitPhase(ctx, host, session.PhasePlacement); err != nil {
		return err
	}
	if err := waitPhase(ctx, joiner, session.PhasePlacement); err != nil {
		return err
	}
	log.Printf("joiner joined, placing ships")

	if err := host.SubmitBoard(ctx, demoFleet(0)); err != nil {
		return fmt.Errorf("host board: %w", err)
	}
	if err := joiner.SubmitBoard(ctx, demoFleet(5)); err != nil {
		return fmt.Errorf("joiner board: %w", err)
	}
	if err := waitPhase(ctx, host, session.PhaseActive); err != nil {
		return err
	}
	log.Printf("both boards committed, firing")

	if err := playOut(ctx, host, joiner); err != nil {
		return err
	}

	hostSnap := host.Snapshot()
	log.Printf("game over: host winner=%s hits=%d taken=%d",
		hostSnap.Winner, hostSnap.MyHits, hostSnap.OpponentHits)
	return nil
}

// playOut alternates sweeping shots until one side sinks the other's fleet.
func playOut(ctx context.Context, host, joiner *app.Session) error {
	hostNext, joinerNext := 0, 0
	for {
		if err := fireNext(ctx, host, &hostNext); err != nil {
			return fmt.Errorf("host fire: %w", err)
		}
		if host.Snapshot().Phase == session.PhaseGameOver {
			break
		}
		if err := fireNext(ctx, joiner, &joinerNext); err != nil {
			return fmt.Errorf("joiner fire: %w", err)
		}
		if joiner.Snapshot().Phase == session.PhaseGameOver {
			break
		}
	}

	if err := waitPhase(ctx, host, session.PhaseGameOver); err != nil {
		return err
	}
	return waitPhase(ctx, joiner, session.PhaseGameOver)
}

// fireNext waits for the session's turn and fires at its next sweep cell.
func fireNext(ctx context.Context, s *app.Session, next *int) error {
	if err := waitTurn(ctx, s); err != nil {
		return err
	}
	if s.Snapshot().Phase == session.PhaseGameOver {
		return nil
	}
	if *next >= board.Size*board.Size {
		return fmt.Errorf("swept the whole board without ending the game")
	}

	row, col := *next/board.Size, *next%board.Size
	*next++
	err := s.FireShot(ctx, row, col)
	if errors.CodeOf(err) == errors.CodePhaseDisallowsOp {
		// The match ended between the phase check and the shot.
		return nil
	}
	return err
}

// waitTurn waits until the session may fire: active phase with every incoming
// shot proven, which is when the ledger turn passes back to this player.
func waitTurn(ctx context.Context, s *app.Session) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap := s.Snapshot()
		if snap.Phase == session.PhaseGameOver {
			return nil
		}
		if snap.Phase == session.PhaseActive && !hasPendingIncoming(snap) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func hasPendingIncoming(snap session.State) bool {
	for _, sh := range snap.IncomingShots {
		if sh.Result == shot.ResultPending {
			return true
		}
	}
	return false
}

func waitPhase(ctx context.Context, s *app.Session, phase session.Phase) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap := s.Snapshot()
		if snap.Phase == phase {
			return nil
		}
		if snap.Phase == session.PhaseGameOver && phase != session.PhaseGameOver {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// demoFleet lays the standard fleet in rows starting at rowOffset.
func demoFleet(rowOffset int) []board.Placement {
	lengths := []int{5, 4, 3, 3, 2}
	fleet := make([]board.Placement, 0, len(lengths))
	for i, length := range lengths {
		fleet = append(fleet, board.Placement{
			Row:         rowOffset + i,
			Col:         0,
			Length:      length,
			Orientation: board.Horizontal,
		})
	}
	return fleet
}
