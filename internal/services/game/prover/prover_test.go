package prover

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/louisbranch/darkwater/internal/services/game/domain/board"
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

func fastProver() *Prover {
	return New(WithBoardProofDelay(0), WithHitProofDelay(0))
}

func TestProveBoard(t *testing.T) {
	p := fastProver()
	ships := testFleet()

	proof, err := p.ProveBoard(context.Background(), ships)
	if err != nil {
		t.Fatalf("ProveBoard: %v", err)
	}
	if len(proof.Proof) != ProofSize {
		t.Fatalf("proof size = %d, want %d", len(proof.Proof), ProofSize)
	}

	want := board.Commitment(ships)
	if !bytes.Equal(proof.Commitment, want[:]) {
		t.Fatal("commitment does not match the layout commitment")
	}
	if proof.Commitment[0] != 0 {
		t.Fatalf("commitment top byte = %d, want 0", proof.Commitment[0])
	}
}

func TestProveBoardRejectsInvalidFleet(t *testing.T) {
	p := fastProver()
	if _, err := p.ProveBoard(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty fleet")
	}
}

func TestProveShotResults(t *testing.T) {
	p := fastProver()
	ships := testFleet()

	hit, err := p.ProveShot(context.Background(), ships, 3, 0, 0)
	if err != nil {
		t.Fatalf("ProveShot: %v", err)
	}
	if hit.Result != 1 {
		t.Fatalf("result = %d, want hit at an occupied cell", hit.Result)
	}
	if hit.Index != 3 {
		t.Fatalf("index = %d, want 3", hit.Index)
	}
	if len(hit.Proof) != ProofSize {
		t.Fatalf("proof size = %d, want %d", len(hit.Proof), ProofSize)
	}

	miss, err := p.ProveShot(context.Background(), ships, 4, 9, 9)
	if err != nil {
		t.Fatalf("ProveShot: %v", err)
	}
	if miss.Result != 0 {
		t.Fatalf("result = %d, want miss at an empty cell", miss.Result)
	}
}

func TestProveShotHonorsContext(t *testing.T) {
	p := New(WithHitProofDelay(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.ProveShot(ctx, testFleet(), 0, 0, 0); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
