package app

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet omits ambiguous characters (0/O, 1/I/L) so codes survive being
// read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// newRoomCode generates a random room code.
func newRoomCode() (string, error) {
	raw := make([]byte, codeLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}
	code := make([]byte, codeLength)
	for i, b := range raw {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(code), nil
}
