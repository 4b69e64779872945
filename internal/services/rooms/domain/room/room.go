// Package room defines the shared room record that correlates two sessions
// before and during a match. Both the rooms service and the game clients
// merge records with the same rules, so a read-modify-write from either side
// converges on the union of what both players published.
package room

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/louisbranch/darkwater/internal/services/game/domain/shot"
)

// CodePattern is the accepted room code shape. Codes are generated from an
// alphabet without ambiguous characters, but the service accepts the full
// uppercase range so hand-typed codes fail at lookup, not validation.
var CodePattern = regexp.MustCompile(`^[A-Z0-9]{4,12}$`)

// ValidateCode rejects malformed room codes before they hit storage.
func ValidateCode(code string) error {
	if !CodePattern.MatchString(code) {
		return fmt.Errorf("invalid room code %q", code)
	}
	return nil
}

// Record is the shared, last-writer-wins room document. Every field except
// RoomCode is optional; players fill in their half as the match progresses.
type Record struct {
	RoomCode         string        `json:"roomCode"`
	GameID           uint64        `json:"gameId,omitempty"`
	HostAddress      string        `json:"hostAddress,omitempty"`
	JoinerAddress    string        `json:"joinerAddress,omitempty"`
	HostCommitment   string        `json:"hostCommitment,omitempty"`
	JoinerCommitment string        `json:"joinerCommitment,omitempty"`
	Shots            []shot.Record `json:"shots,omitempty"`
	Winner           shot.Role     `json:"winner,omitempty"`
	CreatedAt        int64         `json:"createdAt,omitempty"`
	UpdatedAt        int64         `json:"updatedAt,omitempty"`
}

// Merge layers update over base and returns the combined record. Scalar
// fields keep the base value unless the update sets one; shots are unioned by
// (role, index) with resolved results beating pending ones. Merge never
// mutates its inputs.
func Merge(base, update Record) Record {
	out := base
	if out.RoomCode == "" {
		out.RoomCode = update.RoomCode
	}
	if update.GameID != 0 {
		out.GameID = update.GameID
	}
	if update.HostAddress != "" {
		out.HostAddress = update.HostAddress
	}
	if update.JoinerAddress != "" {
		out.JoinerAddress = update.JoinerAddress
	}
	if update.HostCommitment != "" {
		out.HostCommitment = update.HostCommitment
	}
	if update.JoinerCommitment != "" {
		out.JoinerCommitment = update.JoinerCommitment
	}
	if update.Winner != "" {
		out.Winner = update.Winner
	}
	if update.CreatedAt != 0 && (out.CreatedAt == 0 || update.CreatedAt < out.CreatedAt) {
		out.CreatedAt = update.CreatedAt
	}
	if update.UpdatedAt > out.UpdatedAt {
		out.UpdatedAt = update.UpdatedAt
	}
	out.Shots = mergeShots(base.Shots, update.Shots)
	return out
}

type shotKey struct {
	role  shot.Role
	index int
}

func mergeShots(base, update []shot.Record) []shot.Record {
	if len(base) == 0 && len(update) == 0 {
		return nil
	}

	merged := make(map[shotKey]shot.Record, len(base)+len(update))
	for _, sh := range base {
		merged[shotKey{sh.FromRole, sh.Index}] = sh
	}
	for _, sh := range update {
		key := shotKey{sh.FromRole, sh.Index}
		existing, ok := merged[key]
		if !ok {
			merged[key] = sh
			continue
		}
		// A resolved result is final; never let a stale pending copy erase it.
		if existing.Result == nil && sh.Result != nil {
			merged[key] = sh
		}
	}

	out := make([]shot.Record, 0, len(merged))
	for _, sh := range merged {
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromRole != out[j].FromRole {
			return out[i].FromRole < out[j].FromRole
		}
		return out[i].Index < out[j].Index
	})
	return out
}
