// Package board models ship layouts and the one-way commitment derived from
// them. The commitment is the only thing a player ever shares about their
// layout; hit lookups run locally against the private placements.
package board

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

const (
	// Size is the board dimension; cells are addressed [0, Size) on each axis.
	Size = 10
	// ShipCount is the number of ships in a valid fleet.
	ShipCount = 5
	// TotalShipCells is the sum of all ship lengths (5+4+3+3+2). A player
	// whose hit counter reaches this value has sunk the whole fleet.
	TotalShipCells = 17
)

// Orientation selects the axis a ship extends along.
type Orientation uint8

const (
	Horizontal Orientation = 0
	Vertical   Orientation = 1
)

// Placement positions one ship by its top-left cell, length, and orientation.
type Placement struct {
	Row         int         `json:"row"`
	Col         int         `json:"col"`
	Length      int         `json:"length"`
	Orientation Orientation `json:"orientation"`
}

// Cell is a single board coordinate.
type Cell struct {
	Row int
	Col int
}

// Cells expands placements into their covered cells in placement order. The
// order matters: the commitment hashes cells exactly in this sequence.
func Cells(ships []Placement) []Cell {
	var cells []Cell
	for _, ship := range ships {
		for i := 0; i < ship.Length; i++ {
			if ship.Orientation == Horizontal {
				cells = append(cells, Cell{Row: ship.Row, Col: ship.Col + i})
			} else {
				cells = append(cells, Cell{Row: ship.Row + i, Col: ship.Col})
			}
		}
	}
	return cells
}

// Commitment computes the SHA-256 layout commitment: the digest of the
// flattened (row, col) byte pairs with the top byte zeroed so the value fits
// in a BN254 field element.
func Commitment(ships []Placement) [32]byte {
	cells := Cells(ships)
	flat := make([]byte, 0, len(cells)*2)
	for _, cell := range cells {
		flat = append(flat, byte(cell.Row), byte(cell.Col))
	}
	digest := sha256.Sum256(flat)
	digest[0] = 0
	return digest
}

// CommitmentHex returns the lowercase hex encoding of Commitment.
func CommitmentHex(ships []Placement) string {
	digest := Commitment(ships)
	return hex.EncodeToString(digest[:])
}

// Hit reports whether any ship covers the target cell.
func Hit(ships []Placement, row, col int) bool {
	for _, ship := range ships {
		for i := 0; i < ship.Length; i++ {
			cellRow, cellCol := ship.Row, ship.Col
			if ship.Orientation == Vertical {
				cellRow += i
			} else {
				cellCol += i
			}
			if cellRow == row && cellCol == col {
				return true
			}
		}
	}
	return false
}

// Validate checks that ships form a legal fleet: exactly five ships with the
// standard lengths, every cell on the board, and no overlapping cells.
func Validate(ships []Placement) error {
	if len(ships) != ShipCount {
		return fmt.Errorf("fleet has %d ships, want %d", len(ships), ShipCount)
	}

	lengths := make([]int, 0, len(ships))
	for _, ship := range ships {
		lengths = append(lengths, ship.Length)
	}
	sort.Ints(lengths)
	want := []int{2, 3, 3, 4, 5}
	for i, length := range lengths {
		if length != want[i] {
			return fmt.Errorf("fleet lengths %v, want %v", lengths, want)
		}
	}

	seen := make(map[Cell]bool)
	for _, cell := range Cells(ships) {
		if cell.Row < 0 || cell.Row >= Size || cell.Col < 0 || cell.Col >= Size {
			return fmt.Errorf("cell (%d,%d) outside %dx%d board", cell.Row, cell.Col, Size, Size)
		}
		if seen[cell] {
			return fmt.Errorf("cell (%d,%d) covered by two ships", cell.Row, cell.Col)
		}
		seen[cell] = true
	}
	return nil
}
