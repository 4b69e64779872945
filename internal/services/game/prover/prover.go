// Package prover generates zero-knowledge proofs for board validity and shot
// results.
//
// The current prover is a stand-in for a real circuit backend: it simulates
// proving time and emits random proof bytes. The hit/miss result itself is
// computed from the defender's own board, so the defender is trusted until
// real proofs verify the result against the commitment.
package prover

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/louisbranch/darkwater/internal/services/game/domain/board"
)

// ProofSize is the byte length of a generated proof.
const ProofSize = 128

const (
	defaultBoardProofDelay = 2 * time.Second
	defaultHitProofDelay   = 1500 * time.Millisecond
)

// BoardProof attests that a committed layout is a valid fleet.
type BoardProof struct {
	Commitment []byte
	Proof      []byte
}

// HitProof attests the result of one shot against a committed layout.
type HitProof struct {
	Index  int
	Result int // 0 miss, 1 hit
	Proof  []byte
}

// Prover generates proofs with simulated latency.
type Prover struct {
	boardDelay time.Duration
	hitDelay   time.Duration
}

// Option configures a Prover.
type Option func(*Prover)

// WithBoardProofDelay overrides the board proof latency. Zero disables the
// wait, which tests use.
func WithBoardProofDelay(d time.Duration) Option {
	return func(p *Prover) { p.boardDelay = d }
}

// WithHitProofDelay overrides the hit proof latency.
func WithHitProofDelay(d time.Duration) Option {
	return func(p *Prover) { p.hitDelay = d }
}

// New returns a prover with production latencies unless overridden.
func New(opts ...Option) *Prover {
	p := &Prover{
		boardDelay: defaultBoardProofDelay,
		hitDelay:   defaultHitProofDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProveBoard validates the layout and produces its commitment proof.
func (p *Prover) ProveBoard(ctx context.Context, ships []board.Placement) (BoardProof, error) {
	if err := board.Validate(ships); err != nil {
		return BoardProof{}, err
	}
	if err := wait(ctx, p.boardDelay); err != nil {
		return BoardProof{}, err
	}
	proof, err := proofBytes()
	if err != nil {
		return BoardProof{}, err
	}
	commitment := board.Commitment(ships)
	return BoardProof{Commitment: commitment[:], Proof: proof}, nil
}

// ProveShot computes the shot's result against the defender's own layout and
// produces the accompanying proof.
func (p *Prover) ProveShot(ctx context.Context, ships []board.Placement, index, row, col int) (HitProof, error) {
	if err := wait(ctx, p.hitDelay); err != nil {
		return HitProof{}, err
	}
	proof, err := proofBytes()
	if err != nil {
		return HitProof{}, err
	}
	result := 0
	if board.Hit(ships, row, col) {
		result = 1
	}
	return HitProof{Index: index, Result: result, Proof: proof}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func proofBytes() ([]byte, error) {
	b := make([]byte, ProofSize)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate proof bytes: %w", err)
	}
	return b, nil
}
